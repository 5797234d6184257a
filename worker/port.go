////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"context"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/offscreen-wasm/internal/fifo"
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// ErrAlreadyListening is returned when Listen is called more than once on the
// same port.
var ErrAlreadyListening = errors.New("port is already being listened on")

// Port is one end of an asynchronous channel between two threads.
type Port interface {
	// PostMessage sends the message to the other end without waiting for it
	// to be received. Values in the transfer list are moved to the receiver
	// and the caller's handles become invalid. Returns an error, without
	// sending anything, if the transfer list or payload is invalid. Messages
	// posted after the channel is closed are silently dropped.
	PostMessage(msg Message, transfer ...surface.Transferable) error

	// Listen returns every message received on the port in the order they
	// were sent. The channel is closed when the port is closed or the
	// context is done.
	Listen(ctx context.Context) (<-chan MessageEvent, error)

	// Close destroys the channel for both ends. Messages still queued are
	// discarded.
	Close()
}

// MessageEvent is received from the channel returned by Port.Listen.
type MessageEvent struct {
	data Envelope
	err  error
}

// Data returns this event's message or the error that occurred receiving it.
func (e MessageEvent) Data() (Envelope, error) {
	if e.err != nil {
		return Envelope{}, errors.Wrap(e.err, "failed to receive message")
	}
	return e.data, nil
}

// forwardEvents delivers every event pushed on the queue, in order, on the
// returned channel until the context is done or the queue is closed. Events
// still queued at that point are discarded with the bitmaps they own, then
// cleanup is called and the channel is closed.
func forwardEvents(ctx context.Context, queue *fifo.Queue[MessageEvent],
	cleanup func()) <-chan MessageEvent {
	events := make(chan MessageEvent)
	go func() {
		defer close(events)
		defer func() {
			for _, e := range queue.Close() {
				discardEvent(e)
			}
			if cleanup != nil {
				cleanup()
			}
		}()

		for {
			e, ok := queue.Pop(ctx)
			if !ok {
				return
			}
			select {
			case events <- e:
			case <-ctx.Done():
				discardEvent(e)
				return
			}
		}
	}()
	return events
}

// discardEvent releases the bitmaps of an event that will not be delivered.
func discardEvent(e MessageEvent) {
	if e.err == nil {
		closeMessage(e.data.Message)
	}
}
