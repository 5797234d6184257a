////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	jww "github.com/spf13/jwalterweatherman"
)

// ThreadManager queues incoming messages from the main thread and handles them
// based on their tag. It runs inside the worker.
type ThreadManager struct {
	*dispatcher
}

// NewThreadManager initialises a new ThreadManager on the worker's end of the
// channel. Callbacks should be registered before calling
// ThreadManager.Start.
func NewThreadManager(name string, port Port, p Params) *ThreadManager {
	return &ThreadManager{newDispatcher(name, port, MainToWorker, p)}
}

// Stop closes the thread manager and the port to the main thread. Queued
// tasks are discarded. Calling Stop more than once does nothing.
func (tm *ThreadManager) Stop() {
	if tm.stop() {
		jww.INFO.Printf("[WW] [%s] Stopped worker thread.", tm.name)
	}
}
