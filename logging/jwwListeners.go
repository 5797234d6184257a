////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"sort"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// listeners holds every log listener registered with jwalterweatherman, keyed
// on the ID returned by AddLogListener. jwalterweatherman only accepts the
// full list, so it is re-registered on every change.
var listeners = &listenerRegistry{entries: make(map[uint64]jww.LogListener)}

type listenerRegistry struct {
	entries map[uint64]jww.LogListener
	nextID  uint64
	mux     sync.Mutex
}

// AddLogListener registers the log listener with jwalterweatherman without
// removing previously registered listeners. Returns an ID that can be passed
// to RemoveLogListener.
func AddLogListener(ll jww.LogListener) uint64 {
	listeners.mux.Lock()
	defer listeners.mux.Unlock()

	id := listeners.nextID
	listeners.nextID++
	listeners.entries[id] = ll
	listeners.apply()
	return id
}

// RemoveLogListener unregisters the log listener with the ID. Unknown IDs are
// ignored.
func RemoveLogListener(id uint64) {
	listeners.mux.Lock()
	defer listeners.mux.Unlock()

	delete(listeners.entries, id)
	listeners.apply()
}

// NumLogListeners returns the number of registered log listeners.
func NumLogListeners() int {
	listeners.mux.Lock()
	defer listeners.mux.Unlock()
	return len(listeners.entries)
}

// apply registers the current listeners, in the order they were added. This
// function is not thread safe.
func (r *listenerRegistry) apply() {
	ids := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	list := make([]jww.LogListener, len(ids))
	for i, id := range ids {
		list[i] = r.entries[id]
	}
	jww.SetLogListeners(list...)
}
