////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package main

import (
	"fmt"

	"github.com/hack-pad/safejs"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/logging"
	"gitlab.com/elixxir/offscreen-wasm/render"
	"gitlab.com/elixxir/offscreen-wasm/session"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

func main() {
	fmt.Println("Starting offscreen render worker.")

	if err := logging.LogLevel(jww.LevelInfo); err != nil {
		jww.FATAL.Panicf("Failed to set log level: %+v", err)
	}

	// The worker is named by the options passed to its constructor
	name := "render-worker"
	if v, err := safejs.Global().Get("name"); err == nil && v.Type() == safejs.TypeString {
		if s, err := v.String(); err == nil && s != "" {
			name = s
		}
	}

	port, err := worker.NewGlobalPort(name)
	if err != nil {
		jww.FATAL.Panicf("[WW] [%s] Failed to get worker scope: %+v", name, err)
	}

	_, _, err = session.Serve(port, name, render.NewSoftware(),
		session.DefaultParams(), worker.DefaultParams())
	if err != nil {
		jww.FATAL.Panicf("[WW] [%s] %+v", name, err)
	}
	<-make(chan bool)
}
