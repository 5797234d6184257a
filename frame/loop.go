////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package frame contains the render loop scheduler. A Loop runs a tick
// function once per frame callback of its Requester until it is stopped.
package frame

import (
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// Requester schedules a callback for the next frame, the way
// requestAnimationFrame does. RequestFrame returns a non-zero ID that can be
// passed to CancelFrame to prevent the callback from running.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Window/requestAnimationFrame
type Requester interface {
	RequestFrame(cb func()) uint64
	CancelFrame(id uint64)
}

// Loop repeatedly schedules a tick on a Requester. Each scheduled callback
// carries the generation it was scheduled in; Stop advances the generation so
// that a callback that was already handed to the host does nothing when it
// finally runs. A tick that is already running completes.
type Loop struct {
	requester Requester
	tick      func(n uint64)

	running bool

	// generation is incremented on every Start and Stop.
	generation uint64

	// pending is the ID returned by the requester for the scheduled
	// callback, or zero. seq identifies the scheduled callback itself.
	pending, seq uint64

	// ticks is the number of ticks that have run.
	ticks uint64

	name string
	mux  sync.Mutex
}

// NewLoop returns a stopped Loop that calls tick with the tick number, starting
// at 1, on every frame of the requester. The name is used for logging.
func NewLoop(name string, requester Requester, tick func(n uint64)) *Loop {
	return &Loop{requester: requester, tick: tick, name: name}
}

// Start begins scheduling ticks. Returns false if the loop is already running.
func (l *Loop) Start() bool {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.running {
		return false
	}
	l.running = true
	l.generation++
	l.schedule(l.generation)
	jww.DEBUG.Printf("[LOOP] [%s] Started render loop (generation %d).",
		l.name, l.generation)
	return true
}

// Stop cancels the scheduled tick and prevents any further scheduling. Returns
// false if the loop was not running.
func (l *Loop) Stop() bool {
	l.mux.Lock()
	defer l.mux.Unlock()
	if !l.running {
		return false
	}
	l.running = false
	l.generation++
	if l.pending != 0 {
		l.requester.CancelFrame(l.pending)
		l.pending = 0
	}
	jww.DEBUG.Printf("[LOOP] [%s] Stopped render loop after %d ticks.",
		l.name, l.ticks)
	return true
}

// Running returns true if the loop is started.
func (l *Loop) Running() bool {
	l.mux.Lock()
	defer l.mux.Unlock()
	return l.running
}

// Pending returns the number of scheduled callbacks that have not run yet. It
// is always zero once the loop is stopped.
func (l *Loop) Pending() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.pending != 0 {
		return 1
	}
	return 0
}

// Ticks returns the number of ticks that have run.
func (l *Loop) Ticks() uint64 {
	l.mux.Lock()
	defer l.mux.Unlock()
	return l.ticks
}

// schedule requests a frame for the given generation. This function is not
// thread safe.
func (l *Loop) schedule(generation uint64) {
	l.seq++
	seq := l.seq
	l.pending = l.requester.RequestFrame(func() { l.run(generation, seq) })
}

// run is the frame callback. It runs the tick if its generation is still
// current and then schedules the next frame.
func (l *Loop) run(generation, seq uint64) {
	l.mux.Lock()
	if !l.running || generation != l.generation {
		l.mux.Unlock()
		jww.TRACE.Printf("[LOOP] [%s] Ignoring stale frame callback "+
			"(generation %d).", l.name, generation)
		return
	}
	if seq == l.seq {
		l.pending = 0
	}
	l.ticks++
	n := l.ticks
	l.mux.Unlock()

	l.tick(n)

	l.mux.Lock()
	if l.running && generation == l.generation && l.pending == 0 {
		l.schedule(generation)
	}
	l.mux.Unlock()
}
