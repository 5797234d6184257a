////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package worker

import (
	"syscall/js"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"

	"gitlab.com/elixxir/wasm-utils/utils"
)

// parseMessageEvent decodes the data of a Javascript MessageEvent into a
// MessageEvent. The data is an object with a "header" Uint8Array holding the
// JSON message and a "buffers" array of Uint8Array pixel buffers.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/MessageEvent
func parseMessageEvent(v safejs.Value) MessageEvent {
	data, err := v.Get("data")
	if err != nil {
		return MessageEvent{err: err}
	}
	obj := safejs.Unsafe(data)

	if obj.Type() != js.TypeObject {
		return MessageEvent{err: errors.Errorf(
			"cannot handle data of type %s", obj.Type())}
	}
	header := obj.Get("header")
	if !header.Truthy() || !header.Get("constructor").Equal(utils.Uint8Array) {
		return MessageEvent{err: errors.Errorf(
			"message has no header: %s", utils.JsToJson(obj))}
	}

	var buffers [][]byte
	if list := obj.Get("buffers"); list.Truthy() {
		buffers = make([][]byte, list.Length())
		for i := range buffers {
			buffers[i] = utils.CopyBytesToGo(list.Index(i))
		}
	}

	env, err := DecodeMessage(utils.CopyBytesToGo(header), buffers)
	if err != nil {
		return MessageEvent{err: err}
	}
	return MessageEvent{data: env}
}

// errorEvent converts a Javascript error or messageerror event into a
// MessageEvent.
func errorEvent(v safejs.Value) MessageEvent {
	return MessageEvent{err: js.Error{Value: safejs.Unsafe(v)}}
}
