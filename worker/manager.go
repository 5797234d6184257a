////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Spawner starts a new worker and returns the main thread's end of the channel
// to it.
type Spawner interface {
	Spawn(name string) (Port, error)
}

// EntryPoint is the function a worker runs when it starts. It receives the
// worker's end of the channel and the worker's name.
type EntryPoint func(port Port, name string)

// LocalSpawner starts workers as goroutines in the same process, connected to
// the main thread with a local pipe.
type LocalSpawner struct {
	Entry EntryPoint
}

// Spawn starts the entry point on a new goroutine.
func (s LocalSpawner) Spawn(name string) (Port, error) {
	if s.Entry == nil {
		return nil, errors.New("local spawner has no entry point")
	}
	main, w := NewLocalPipe("main", name)
	go s.Entry(w, name)
	return main, nil
}

// Manager is the main thread's handle to a single worker. It sends messages to
// the worker and calls registered callbacks, one at a time, for messages the
// worker sends back.
type Manager struct {
	*dispatcher
}

// NewManager spawns a new worker with the given name and returns its manager.
// Callbacks should be registered before calling Manager.Start.
func NewManager(s Spawner, name string, p Params) (*Manager, error) {
	port, err := s.Spawn(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to spawn worker %q", name)
	}
	return NewManagerFromPort(port, name, p), nil
}

// NewManagerFromPort returns a manager for a worker that is already connected
// to the port.
func NewManagerFromPort(port Port, name string, p Params) *Manager {
	return &Manager{newDispatcher(name, port, WorkerToMain, p)}
}

// Terminate destroys the worker. Queued and in-flight messages in both
// directions are discarded and later sends fail with ErrStopped. Calling
// Terminate more than once does nothing. Returns true if this call terminated
// the worker.
func (m *Manager) Terminate() bool {
	if !m.stop() {
		return false
	}
	jww.INFO.Printf("[WW] [%s] Terminated worker.", m.name)
	return true
}
