////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"context"
	"sync"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/internal/fifo"
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// LocalPort is one end of an in-process channel created by NewLocalPipe. Each
// end has its own unbounded inbox, so posting never blocks and each direction
// is delivered in order independently of the other.
type LocalPort struct {
	// name is used as the source of every message sent from this end.
	name string

	inbox *fifo.Queue[Envelope]
	peer  *LocalPort

	listening bool
	mux       sync.Mutex
}

// NewLocalPipe returns two connected ports. Messages posted on one are
// received on the other with the sender's name as their source.
func NewLocalPipe(name1, name2 string) (*LocalPort, *LocalPort) {
	p1 := &LocalPort{name: name1, inbox: fifo.New[Envelope]()}
	p2 := &LocalPort{name: name2, inbox: fifo.New[Envelope]()}
	p1.peer, p2.peer = p2, p1
	return p1, p2
}

// Name returns the name used as the source of messages sent from this port.
func (lp *LocalPort) Name() string { return lp.name }

// PostMessage sends the message to the other end of the pipe. Refer to
// [Port.PostMessage] for more information.
func (lp *LocalPort) PostMessage(
	msg Message, transfer ...surface.Transferable) error {
	moved, err := transferMessage(msg, transfer)
	if err != nil {
		return err
	}

	if !lp.peer.inbox.Push(Envelope{Source: lp.name, Message: moved}) {
		jww.DEBUG.Printf("[WW] [%s] Dropping %q message: channel closed.",
			lp.name, moved.Action())
		closeMessage(moved)
	}
	return nil
}

// Listen returns a channel that receives every message sent to this port.
// Refer to [Port.Listen] for more information.
func (lp *LocalPort) Listen(ctx context.Context) (<-chan MessageEvent, error) {
	lp.mux.Lock()
	defer lp.mux.Unlock()
	if lp.listening {
		return nil, ErrAlreadyListening
	}
	lp.listening = true

	events := make(chan MessageEvent)
	go func() {
		defer close(events)
		for {
			env, ok := lp.inbox.Pop(ctx)
			if !ok {
				return
			}
			select {
			case events <- MessageEvent{data: env}:
			case <-ctx.Done():
				closeMessage(env.Message)
				return
			}
		}
	}()

	return events, nil
}

// Close closes both ends of the pipe. Queued messages are discarded along with
// any bitmaps they own.
func (lp *LocalPort) Close() {
	for _, p := range []*LocalPort{lp, lp.peer} {
		for _, env := range p.inbox.Close() {
			closeMessage(env.Message)
		}
	}
}
