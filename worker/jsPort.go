////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package worker

import (
	"context"
	"sync"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/internal/fifo"
	"gitlab.com/elixxir/offscreen-wasm/surface"
	"gitlab.com/elixxir/wasm-utils/utils"
)

// JsPort is a Port over a Javascript object that has postMessage and message
// events: a Worker on the main thread or the worker's global scope inside a
// worker. Messages are encoded with EncodeMessage; bitmap pixels are sent as
// transferred ArrayBuffers so they are not copied by the browser. Offscreen
// surfaces cannot be sent on a JsPort.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Worker/postMessage
type JsPort struct {
	v safejs.Value

	// name is used as the source of every message sent from this end.
	name string

	// closeMethod is the Javascript method called to destroy the channel
	// ("terminate" on a Worker, "close" on a worker's global scope).
	closeMethod string

	listening, closed bool
	mux               sync.Mutex
}

// NewJsPort wraps the Javascript value. Returns an error if it has no
// postMessage function.
func NewJsPort(v safejs.Value, name, closeMethod string) (*JsPort, error) {
	method, err := v.Get("postMessage")
	if err != nil {
		return nil, err
	}
	if method.Type() != safejs.TypeFunction {
		return nil, errors.New("postMessage is not a function")
	}
	return &JsPort{v: v, name: name, closeMethod: closeMethod}, nil
}

// NewGlobalPort returns the port of a worker to the main thread, using the
// worker's global scope.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/DedicatedWorkerGlobalScope
func NewGlobalPort(name string) (*JsPort, error) {
	return NewJsPort(safejs.Global(), name, "close")
}

// PostMessage encodes and sends the message. Refer to [Port.PostMessage] for
// more information.
func (jp *JsPort) PostMessage(
	msg Message, transfer ...surface.Transferable) error {
	// Surfaces are rejected before anything is moved
	if init, ok := msg.(InitWorkerState); ok && init.Surface != nil {
		return errors.Wrap(ErrDataClone,
			"offscreen surfaces cannot be sent on a Javascript port")
	}

	moved, err := transferMessage(msg, transfer)
	if err != nil {
		return err
	}

	jp.mux.Lock()
	closed := jp.closed
	jp.mux.Unlock()
	if closed {
		closeMessage(moved)
		return nil
	}

	header, buffers, err := EncodeMessage(Envelope{Source: jp.name, Message: moved})
	if err != nil {
		return err
	}

	headerJS := utils.CopyBytesToJS(header)
	buffersJS := make([]any, len(buffers))
	transferJS := []any{headerJS.Get("buffer")}
	for i, buf := range buffers {
		b := utils.CopyBytesToJS(buf)
		buffersJS[i] = b
		transferJS = append(transferJS, b.Get("buffer"))
	}

	obj := map[string]any{"header": headerJS, "buffers": buffersJS}
	_, err = jp.v.Call("postMessage", obj, transferJS)
	return errors.Wrap(err, "postMessage failed")
}

// Listen registers listeners for message, error, and messageerror events and
// returns all events on the returned channel. Refer to [Port.Listen] for more
// information.
func (jp *JsPort) Listen(
	ctx context.Context) (_ <-chan MessageEvent, err error) {
	jp.mux.Lock()
	defer jp.mux.Unlock()
	if jp.listening {
		return nil, ErrAlreadyListening
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		if err != nil {
			cancel()
		}
	}()

	// Javascript handlers must not block, so events are queued here and
	// delivered in order by a single goroutine
	queue := fifo.New[MessageEvent]()
	push := func(e MessageEvent) {
		if !queue.Push(e) {
			jww.DEBUG.Printf("[WW] [%s] Dropping event: port closed.", jp.name)
			discardEvent(e)
		}
	}

	messageHandler, err := safejs.FuncOf(
		func(_ safejs.Value, args []safejs.Value) any {
			push(parseMessageEvent(args[0]))
			return nil
		})
	if err != nil {
		return nil, err
	}
	errorHandler, err := safejs.FuncOf(
		func(_ safejs.Value, args []safejs.Value) any {
			push(errorEvent(args[0]))
			return nil
		})
	if err != nil {
		return nil, err
	}

	handlers := map[string]safejs.Func{
		"message":      messageHandler,
		"error":        errorHandler,
		"messageerror": errorHandler,
	}
	for event, handler := range handlers {
		if _, err = jp.v.Call("addEventListener", event, handler); err != nil {
			return nil, err
		}
	}
	jp.listening = true

	events := forwardEvents(ctx, queue, func() {
		for event, handler := range handlers {
			_, _ = jp.v.Call("removeEventListener", event, handler)
		}
		messageHandler.Release()
		errorHandler.Release()
	})
	return events, nil
}

// Close destroys the channel. Calling Close more than once does nothing.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Worker/terminate
func (jp *JsPort) Close() {
	jp.mux.Lock()
	defer jp.mux.Unlock()
	if jp.closed {
		return
	}
	jp.closed = true
	if _, err := jp.v.Call(jp.closeMethod); err != nil {
		jww.ERROR.Printf("[WW] [%s] Failed to call %s: %+v",
			jp.name, jp.closeMethod, err)
	}
}
