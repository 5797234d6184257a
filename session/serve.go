////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package session

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/frame"
	"gitlab.com/elixxir/offscreen-wasm/render"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// Serve runs a render session on the worker's end of the port. It returns the
// session and its thread manager once the manager is listening. When the main
// thread destroys the worker, the session is closed.
func Serve(port worker.Port, name string, backend render.Backend,
	p Params, wp worker.Params) (*Session, *worker.ThreadManager, error) {
	tm := worker.NewThreadManager(name, port, wp)
	requester := frame.NewTickerRequester(p.FrameInterval, tm.Post)
	s := New(name, tm, backend, requester, p)
	s.RegisterCallbacks(tm)
	tm.OnClose(func() {
		s.Close()
		tm.Stop()
	})

	if err := tm.Start(); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to start worker %q", name)
	}
	jww.INFO.Printf("[WW] [%s] Render worker ready.", name)
	return s, tm, nil
}

// EntryPoint returns a worker.EntryPoint that serves a render session with the
// given backend and parameters.
func EntryPoint(backend render.Backend, p Params,
	wp worker.Params) worker.EntryPoint {
	return func(port worker.Port, name string) {
		if _, _, err := Serve(port, name, backend, p, wp); err != nil {
			jww.ERROR.Printf("[WW] [%s] %+v", name, err)
			port.Close()
		}
	}
}
