////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"github.com/pkg/errors"

	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Errors returned when a message cannot be posted because of its transfer
// list or payload.
var (
	// ErrNotTransferable is returned when a transfer list contains a value
	// that cannot be transferred.
	ErrNotTransferable = errors.New("value in transfer list is not transferable")

	// ErrDuplicateTransfer is returned when the same value appears more than
	// once in a transfer list.
	ErrDuplicateTransfer = errors.New("value appears more than once in transfer list")

	// ErrNotReachable is returned when a transfer list contains a value that
	// is not part of the message payload.
	ErrNotReachable = errors.New("transferred value is not reachable from the payload")

	// ErrDataClone is returned when the payload contains a value that is not
	// in the transfer list and cannot be copied.
	ErrDataClone = errors.New("value could not be cloned")

	// ErrNilMessage is returned when posting a nil message.
	ErrNilMessage = errors.New("cannot post nil message")
)

// transferMessage prepares a message for delivery to another thread. Every
// value in the transfer list is moved into a new handle and every other
// transferable value in the payload is cloned. The returned message refers to
// the new handles only.
//
// The transfer list and payload are fully validated before anything is moved,
// so on error no value has changed owner.
func transferMessage(
	msg Message, transfer []surface.Transferable) (Message, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}

	reachable := make(map[surface.Transferable]struct{})
	for _, t := range msg.transferables() {
		reachable[t] = struct{}{}
	}

	listed := make(map[surface.Transferable]struct{}, len(transfer))
	for i, t := range transfer {
		if t == nil {
			return nil, errors.Wrapf(ErrNotTransferable, "entry %d is nil", i)
		} else if _, exists := listed[t]; exists {
			return nil, errors.Wrapf(ErrDuplicateTransfer, "entry %d (%T)", i, t)
		} else if _, exists = reachable[t]; !exists {
			return nil, errors.Wrapf(ErrNotReachable, "entry %d (%T)", i, t)
		} else if t.Detached() {
			return nil, errors.Wrapf(surface.ErrDetached,
				"entry %d (%T) was already transferred", i, t)
		}
		listed[t] = struct{}{}
	}

	for t := range reachable {
		if _, exists := listed[t]; exists {
			continue
		} else if _, ok := t.(surface.Cloneable); !ok {
			return nil, errors.Wrapf(ErrDataClone,
				"%T must be in the transfer list", t)
		} else if t.Detached() {
			return nil, errors.Wrapf(surface.ErrDetached,
				"cannot clone %T", t)
		}
	}

	moved := make(map[surface.Transferable]surface.Transferable, len(reachable))
	for t := range reachable {
		var err error
		if _, exists := listed[t]; exists {
			moved[t], err = t.Detach()
		} else {
			moved[t], err = t.(surface.Cloneable).StructuredClone()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transfer %T", t)
		}
	}

	return msg.rebind(func(t surface.Transferable) surface.Transferable {
		return moved[t]
	}), nil
}
