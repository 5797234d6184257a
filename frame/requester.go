////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package frame

import (
	"sort"
	"sync"
	"time"
)

// TickerRequester is a Requester for environments without a display refresh.
// Each requested callback fires once after the interval and is then handed to
// post, which must queue it on the owner's task queue.
type TickerRequester struct {
	interval time.Duration
	post     func(func()) bool

	timers map[uint64]*time.Timer
	nextID uint64
	mux    sync.Mutex
}

// NewTickerRequester returns a requester that fires callbacks after interval
// and runs them through post. If post is nil, callbacks run on the timer's
// goroutine.
func NewTickerRequester(
	interval time.Duration, post func(func()) bool) *TickerRequester {
	if post == nil {
		post = func(fn func()) bool { fn(); return true }
	}
	return &TickerRequester{
		interval: interval,
		post:     post,
		timers:   make(map[uint64]*time.Timer),
	}
}

// RequestFrame schedules cb to be posted after the interval.
func (tr *TickerRequester) RequestFrame(cb func()) uint64 {
	tr.mux.Lock()
	defer tr.mux.Unlock()
	tr.nextID++
	id := tr.nextID
	tr.timers[id] = time.AfterFunc(tr.interval, func() {
		tr.mux.Lock()
		_, exists := tr.timers[id]
		delete(tr.timers, id)
		tr.mux.Unlock()
		if exists {
			tr.post(cb)
		}
	})
	return id
}

// CancelFrame stops the timer of the callback if it has not fired yet.
func (tr *TickerRequester) CancelFrame(id uint64) {
	tr.mux.Lock()
	defer tr.mux.Unlock()
	if t, exists := tr.timers[id]; exists {
		t.Stop()
		delete(tr.timers, id)
	}
}

// Pending returns the number of callbacks whose timer has not fired.
func (tr *TickerRequester) Pending() int {
	tr.mux.Lock()
	defer tr.mux.Unlock()
	return len(tr.timers)
}

// ManualRequester is a Requester whose callbacks only run when Flush is
// called. It is used to step a loop one frame at a time.
type ManualRequester struct {
	callbacks map[uint64]func()
	nextID    uint64
	mux       sync.Mutex
}

// NewManualRequester returns an empty ManualRequester.
func NewManualRequester() *ManualRequester {
	return &ManualRequester{callbacks: make(map[uint64]func())}
}

// RequestFrame queues cb until the next Flush.
func (mr *ManualRequester) RequestFrame(cb func()) uint64 {
	mr.mux.Lock()
	defer mr.mux.Unlock()
	mr.nextID++
	mr.callbacks[mr.nextID] = cb
	return mr.nextID
}

// CancelFrame removes the queued callback.
func (mr *ManualRequester) CancelFrame(id uint64) {
	mr.mux.Lock()
	delete(mr.callbacks, id)
	mr.mux.Unlock()
}

// Pending returns the number of queued callbacks.
func (mr *ManualRequester) Pending() int {
	mr.mux.Lock()
	defer mr.mux.Unlock()
	return len(mr.callbacks)
}

// Flush runs every callback queued before the call, in request order.
// Callbacks requested while flushing run on the next Flush. Returns the number
// of callbacks run.
func (mr *ManualRequester) Flush() int {
	mr.mux.Lock()
	ids := make([]uint64, 0, len(mr.callbacks))
	for id := range mr.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	mr.mux.Unlock()

	n := 0
	for _, id := range ids {
		mr.mux.Lock()
		cb, exists := mr.callbacks[id]
		delete(mr.callbacks, id)
		mr.mux.Unlock()
		if exists {
			cb()
			n++
		}
	}
	return n
}
