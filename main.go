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
	"os"
	"os/signal"
	"syscall"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/logging"
)

func main() {
	fmt.Println("Go Web Assembly")

	if err := logging.LogLevel(jww.LevelInfo); err != nil {
		jww.FATAL.Panicf("Failed to set log level: %+v", err)
	}

	// demo.go
	js.Global().Set("InstantiateWorker", js.FuncOf(InstantiateWorker))
	js.Global().Set("StartRenderLoop", js.FuncOf(StartRenderLoop))
	js.Global().Set("StopRenderLoop", js.FuncOf(StopRenderLoop))
	js.Global().Set("TerminateWorker", js.FuncOf(TerminateWorker))
	js.Global().Set("GetStats", js.FuncOf(GetStats))
	js.Global().Set("ClearSettings", js.FuncOf(ClearSettings))

	// logging
	js.Global().Set("LogLevel", js.FuncOf(LogLevel))

	// Wait until the user terminates the program
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	os.Exit(0)
}
