////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/aquilax/truncate"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/internal/fifo"
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Errors returned when sending a message.
var (
	// ErrWrongDirection is returned when sending a message whose tag is not
	// valid in the direction of the port.
	ErrWrongDirection = errors.New("tag is not valid for this direction")

	// ErrStopped is returned when sending on a manager that has been stopped.
	ErrStopped = errors.New("message manager has been stopped")

	// ErrAlreadyStarted is returned when starting a manager more than once.
	ErrAlreadyStarted = errors.New("message manager has already been started")
)

// Callback is called with a message received on the port. It runs on the
// manager's task queue, so callbacks never run concurrently with each other or
// with tasks passed to Post.
type Callback func(env Envelope)

// dispatcher is the core shared by the main thread [Manager] and the worker
// [ThreadManager]. It owns a single sequential task queue: every received
// message and every posted task runs on it in order, one at a time.
type dispatcher struct {
	// port is the channel to the other thread.
	port Port

	// receive is the direction of messages arriving on the port.
	receive Direction

	// callbacks are called when receiving a message with the keyed tag.
	callbacks map[Tag]Callback

	// closeCB is called on the task queue once the port stops delivering
	// messages because the other end closed it.
	closeCB func()

	// tasks is the queue of work waiting to run on the processing thread.
	tasks *fifo.Queue[func()]

	ctx    context.Context
	cancel context.CancelFunc

	started, stopped bool

	// name describes the thread. It is used for debugging and logging
	// purposes.
	name string

	Params

	mux sync.Mutex
}

// newDispatcher initialises a new dispatcher that receives messages going in
// the given direction.
func newDispatcher(
	name string, port Port, receive Direction, p Params) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &dispatcher{
		port:      port,
		receive:   receive,
		callbacks: make(map[Tag]Callback),
		tasks:     fifo.New[func()](),
		ctx:       ctx,
		cancel:    cancel,
		name:      name,
		Params:    p,
	}
}

// Name returns the name of the thread.
func (d *dispatcher) Name() string { return d.name }

// RegisterCallback registers the callback for the given tag. Previous
// callbacks for the tag are overwritten. This function is thread safe.
func (d *dispatcher) RegisterCallback(tag Tag, cb Callback) {
	jww.DEBUG.Printf(
		"[WW] [%s] Registering callback for tag %q", d.name, tag)
	d.mux.Lock()
	d.callbacks[tag] = cb
	d.mux.Unlock()
}

// OnClose registers a function that is called on the task queue when the
// other end closes the port.
func (d *dispatcher) OnClose(fn func()) {
	d.mux.Lock()
	d.closeCB = fn
	d.mux.Unlock()
}

// Start begins listening on the port and processing tasks. Messages received
// before Start are queued by the port.
func (d *dispatcher) Start() error {
	d.mux.Lock()
	defer d.mux.Unlock()
	if d.started {
		return ErrAlreadyStarted
	} else if d.stopped {
		return ErrStopped
	}

	events, err := d.port.Listen(d.ctx)
	if err != nil {
		return errors.Wrap(err, "failed to listen on port")
	}
	d.started = true

	go d.messageReception(events)
	go d.processThread()
	return nil
}

// Post queues fn to run on the task queue after everything already queued.
// Returns false if the manager is stopped.
func (d *dispatcher) Post(fn func()) bool {
	return d.tasks.Push(fn)
}

// Stopped returns true once the manager has been stopped.
func (d *dispatcher) Stopped() bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.stopped
}

// SendMessage posts the message on the port, transferring ownership of every
// value in the transfer list. Returns an error if the tag is not valid for the
// outgoing direction or if the port rejects the transfer.
func (d *dispatcher) SendMessage(
	msg Message, transfer ...surface.Transferable) error {
	if msg == nil {
		return ErrNilMessage
	}
	send := MainToWorker
	if d.receive == MainToWorker {
		send = WorkerToMain
	}
	if !msg.Action().ValidFor(send) {
		return errors.Wrapf(ErrWrongDirection, "cannot send %q %s",
			msg.Action(), send)
	} else if d.Stopped() {
		return ErrStopped
	}

	if d.MessageLogging {
		jww.DEBUG.Printf("[WW] [%s] Sending message for %q: %s",
			d.name, msg.Action(), d.truncate(msg))
	}

	if err := d.port.PostMessage(msg, transfer...); err != nil {
		return errors.Wrapf(err, "failed to send %q", msg.Action())
	}
	return nil
}

// stop stops processing, closes the port and discards queued tasks. It is
// idempotent. Returns false if already stopped.
func (d *dispatcher) stop() bool {
	d.mux.Lock()
	if d.stopped {
		d.mux.Unlock()
		return false
	}
	d.stopped = true
	d.mux.Unlock()

	d.cancel()
	d.tasks.Close()
	d.port.Close()
	return true
}

// messageReception moves every received message onto the task queue.
func (d *dispatcher) messageReception(events <-chan MessageEvent) {
	jww.INFO.Printf("[WW] [%s] Starting message reception thread.", d.name)
	for event := range events {
		env, err := event.Data()
		if err != nil {
			jww.ERROR.Printf("[WW] [%s] Failed to process message: %+v",
				d.name, err)
			continue
		}
		if !d.Post(func() { d.handle(env) }) {
			closeMessage(env.Message)
		}
	}

	jww.INFO.Printf("[WW] [%s] Quitting message reception thread.", d.name)
	d.Post(func() {
		d.mux.Lock()
		cb, stopped := d.closeCB, d.stopped
		d.mux.Unlock()
		if cb != nil && !stopped {
			cb()
		}
	})
}

// processThread runs queued tasks sequentially until stopped.
func (d *dispatcher) processThread() {
	jww.INFO.Printf("[WW] [%s] Starting process thread.", d.name)
	for {
		task, ok := d.tasks.Pop(d.ctx)
		if !ok {
			jww.INFO.Printf("[WW] [%s] Quitting process thread.", d.name)
			return
		}
		task()
	}
}

// handle calls the callback registered for the message's tag. Messages with
// unknown tags, tags for the other direction or no callback are logged and
// ignored.
func (d *dispatcher) handle(env Envelope) {
	tag := env.Message.Action()
	if d.MessageLogging {
		jww.DEBUG.Printf("[WW] [%s] Received message for %q from %q: %s",
			d.name, tag, env.Source, d.truncate(env.Message))
	}

	if _, known := tag.Direction(); !known {
		jww.WARN.Printf("[WW] [%s] Ignoring message with unknown tag %q.",
			d.name, tag)
		closeMessage(env.Message)
		return
	} else if !tag.ValidFor(d.receive) {
		jww.WARN.Printf("[WW] [%s] Ignoring %q message: tag is not valid %s.",
			d.name, tag, d.receive)
		closeMessage(env.Message)
		return
	}

	d.mux.Lock()
	cb, exists := d.callbacks[tag]
	d.mux.Unlock()
	if !exists {
		jww.WARN.Printf("[WW] [%s] Ignoring %q message: no callback "+
			"registered.", d.name, tag)
		closeMessage(env.Message)
		return
	}

	cb(env)
}

// truncate returns the message formatted for the log and shortened to the
// configured length.
func (d *dispatcher) truncate(msg Message) string {
	return truncate.Truncate(fmt.Sprintf("%+v", msg), d.TruncateLength,
		"...", truncate.PositionMiddle)
}
