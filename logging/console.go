////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package logging

import (
	"io"
	"sync"

	"github.com/hack-pad/safejs"
	jww "github.com/spf13/jwalterweatherman"
)

// Console writes to one method of the Javascript console object. For example,
// if the method is "warn", then every Write prints a warning.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/console
type Console struct {
	method  string
	console safejs.Value
}

// Write writes the data to the Javascript console with the preset method.
// Returns the number of bytes written.
func (c *Console) Write(p []byte) (int, error) {
	if _, err := c.console.Call(c.method, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// JsConsoleLogListener redirects log output to the Javascript console using the
// console method matching each level.
type JsConsoleLogListener struct {
	threshold jww.Threshold
	levels    map[jww.Threshold]*Console
	def       *Console
}

// NewJsConsoleLogListener initialises a new log listener that listens for the
// specific threshold and prints the logs to the Javascript console.
func NewJsConsoleLogListener(
	threshold jww.Threshold) (*JsConsoleLogListener, error) {
	console, err := safejs.Global().Get("console")
	if err != nil {
		return nil, err
	}
	c := func(method string) *Console { return &Console{method, console} }

	return &JsConsoleLogListener{
		threshold: threshold,
		levels: map[jww.Threshold]*Console{
			jww.LevelTrace:    c("debug"),
			jww.LevelDebug:    c("log"),
			jww.LevelInfo:     c("info"),
			jww.LevelWarn:     c("warn"),
			jww.LevelError:    c("error"),
			jww.LevelCritical: c("error"),
			jww.LevelFatal:    c("error"),
		},
		def: c("log"),
	}, nil
}

// Listen is called for every logging event. This function adheres to the
// [jwalterweatherman.LogListener] type.
func (ll *JsConsoleLogListener) Listen(t jww.Threshold) io.Writer {
	if t < ll.threshold {
		return nil
	} else if c, exists := ll.levels[t]; exists {
		return c
	}
	return ll.def
}

var (
	consoleListenerID  uint64
	consoleListenerSet bool
	consoleMux         sync.Mutex
)

// setOutput replaces the console log listener with one at the threshold and
// silences stdout, which the browser also sends to the console.
func setOutput(threshold jww.Threshold) {
	consoleMux.Lock()
	defer consoleMux.Unlock()

	ll, err := NewJsConsoleLogListener(threshold)
	if err != nil {
		jww.SetStdoutThreshold(threshold)
		jww.ERROR.Printf("Failed to access the Javascript console: %+v", err)
		return
	}

	if consoleListenerSet {
		RemoveLogListener(consoleListenerID)
	}
	consoleListenerID = AddLogListener(ll.Listen)
	consoleListenerSet = true
	jww.SetStdoutThreshold(jww.LevelFatal + 1)
}
