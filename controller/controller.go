////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package controller drives a render worker from the main thread. It spawns
// the worker, hands it a surface, schedules render requests and presents the
// bitmaps it sends back.
package controller

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/frame"
	"gitlab.com/elixxir/offscreen-wasm/surface"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// UnsupportedOffscreenMessage is the alert shown when the host cannot transfer
// control of a canvas to a worker.
const UnsupportedOffscreenMessage = `Your browser does not support ` +
	`transferControlToOffscreen and OffscreenCanvas.

See here:
https://caniuse.com/#feat=mdn-api_htmlcanvaselement_transfercontroltooffscreen
https://caniuse.com/#feat=offscreencanvas`

// Errors returned by the Controller.
var (
	// ErrNoWorker is returned when controlling a worker that has not been
	// instantiated or has been terminated.
	ErrNoWorker = errors.New("no worker is running")

	// ErrWorkerRunning is returned when instantiating while a worker is
	// running.
	ErrWorkerRunning = errors.New("a worker is already running")

	// ErrWorkerFailed is returned when starting the render loop after the
	// worker reported an error.
	ErrWorkerFailed = errors.New("worker reported an error")

	// ErrOffscreenUnsupported is returned when transfer mode is used on a
	// host that cannot transfer canvases.
	ErrOffscreenUnsupported = errors.New(
		"offscreen canvas transfer is not supported")
)

// Host is the windowing environment of the main thread.
type Host interface {
	// Requester schedules the main render loop, one tick per host frame.
	frame.Requester

	// Canvas returns the canvas element with the ID.
	Canvas(id string) (*surface.Canvas, error)

	// CloneCanvas replaces the canvas element with the ID with a fresh clone
	// and returns the clone.
	CloneCanvas(id string) (*surface.Canvas, error)

	// Alert shows a message to the user.
	Alert(msg string)

	// Log appends a line to the visible message log.
	Log(line string)

	// SupportsOffscreen returns true if canvas control can be transferred.
	SupportsOffscreen() bool
}

// Stats counts the events handled by a Controller.
type Stats struct {
	Instances          uint64
	FramesRequested    uint64
	FramesPresented    uint64
	BitmapsPresented   uint64
	Notifications      uint64
	ErrorNotifications uint64
	Terminations       uint64
}

// Controller is the main thread's side of a render session.
type Controller struct {
	host         Host
	spawner      worker.Spawner
	params       Params
	workerParams worker.Params

	// manager is the handle to the current worker. It is nil when no worker
	// is running.
	manager    *worker.Manager
	workerName string

	// transferredSurfaceID is the ID of the canvas whose control was
	// transferred to the current worker.
	transferredSurfaceID string

	// presenters hold one bitmap context per target.
	presenters []*surface.BitmapRenderer

	// loop is the main render loop. Its pending frame callback is the
	// cancellation token.
	loop       *frame.Loop
	workerLoop bool

	errorFlag bool
	alerted   bool
	done      chan struct{}
	stats     Stats
	mux       sync.Mutex
}

// New returns a Controller that spawns workers with the spawner and displays
// them on the host.
func New(h Host, spawner worker.Spawner, p Params,
	wp worker.Params) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid controller parameters")
	}

	done := make(chan struct{})
	close(done)
	c := &Controller{
		host:         h,
		spawner:      spawner,
		params:       p,
		workerParams: wp,
		done:         done,
	}
	c.loop = frame.NewLoop("main", h, c.tick)
	return c, nil
}

// Instantiate spawns a new worker, hands it its surface and initializes it.
// In transfer mode, control of the transfer canvas moves to the worker; a
// canvas transferred to a previous worker is replaced by a fresh clone.
func (c *Controller) Instantiate() error {
	c.mux.Lock()
	err := c.instantiate()
	c.mux.Unlock()

	if errors.Is(err, ErrOffscreenUnsupported) {
		c.host.Alert(UnsupportedOffscreenMessage)
	}
	return err
}

// instantiate spawns and initializes the worker. This function is not thread
// safe.
func (c *Controller) instantiate() error {
	if c.manager != nil {
		return ErrWorkerRunning
	}
	if c.params.Mode == TransferMode && !c.host.SupportsOffscreen() {
		return ErrOffscreenUnsupported
	}

	presenters := make([]*surface.BitmapRenderer, len(c.params.Targets))
	for i, t := range c.params.Targets {
		canvas, err := c.host.Canvas(t.CanvasID)
		if err != nil {
			return err
		}
		if presenters[i], err = canvas.BitmapRenderer(); err != nil {
			return errors.Wrapf(err, "could not present on %q", t.CanvasID)
		}
	}

	init := worker.InitWorkerState{
		Width:     c.params.Width,
		Height:    c.params.Height,
		SceneName: c.params.SceneName,
	}
	var transfer []surface.Transferable
	if c.params.Mode == TransferMode {
		off, err := c.transferControl(c.params.TransferCanvasID)
		if err != nil {
			return err
		}
		init = worker.InitWorkerState{Surface: off, SceneName: c.params.SceneName}
		transfer = append(transfer, off)
	}

	name := fmt.Sprintf("%s-%s", c.params.WorkerPrefix, uuid.NewString())
	m, err := worker.NewManager(c.spawner, name, c.workerParams)
	if err != nil {
		return err
	}
	c.registerCallbacks(m)
	if err = m.Start(); err != nil {
		m.Terminate()
		return errors.Wrapf(err, "could not start manager of %q", name)
	}
	if err = m.SendMessage(init, transfer...); err != nil {
		m.Terminate()
		return errors.Wrapf(err, "could not initialize %q", name)
	}

	c.manager = m
	c.workerName = name
	c.presenters = presenters
	c.errorFlag, c.alerted, c.workerLoop = false, false, false
	c.done = make(chan struct{})
	c.stats.Instances++
	if c.params.Mode == TransferMode {
		c.transferredSurfaceID = c.params.TransferCanvasID
	}
	jww.INFO.Printf("[CTRL] Instantiated worker %q in %s mode.",
		name, c.params.Mode)
	return nil
}

// transferControl transfers control of the canvas to a new offscreen surface,
// cloning the canvas first if it was already transferred. This function is not
// thread safe.
func (c *Controller) transferControl(id string) (*surface.Offscreen, error) {
	canvas, err := c.host.Canvas(id)
	if err != nil {
		return nil, err
	}
	if canvas.ControlTransferred() {
		if canvas, err = c.host.CloneCanvas(id); err != nil {
			return nil, errors.Wrapf(err, "could not clone canvas %q", id)
		}
	}
	off, err := canvas.TransferControlToOffscreen()
	if err != nil {
		return nil, errors.Wrapf(err, "could not transfer canvas %q", id)
	}
	return off, nil
}

// registerCallbacks registers the handlers of every worker→main message.
// Messages from a manager that is no longer current are dropped.
func (c *Controller) registerCallbacks(m *worker.Manager) {
	m.RegisterCallback(worker.BitmapsTag, func(env worker.Envelope) {
		c.handleBitmaps(m, env.Message.(worker.Bitmaps))
	})
	m.RegisterCallback(worker.NotifyTag, func(env worker.Envelope) {
		c.handleNotify(m, env.Message.(worker.Notify))
	})
	m.RegisterCallback(worker.TerminateMeTag, func(worker.Envelope) {
		c.handleTerminateMe(m)
	})
	m.OnClose(func() {
		c.mux.Lock()
		defer c.mux.Unlock()
		if c.manager == m {
			jww.WARN.Printf("[CTRL] Worker %q closed its channel.",
				c.workerName)
			c.terminate()
		}
	})
}

// handleBitmaps presents each bitmap on the context of its target.
func (c *Controller) handleBitmaps(m *worker.Manager, msg worker.Bitmaps) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.manager != m {
		for _, b := range msg.Bitmaps {
			b.Close()
		}
		return
	}

	for i, b := range msg.Bitmaps {
		if i >= len(c.presenters) {
			b.Close()
			continue
		}
		if err := c.presenters[i].TransferFromImageBitmap(b); err != nil {
			jww.ERROR.Printf("[CTRL] Failed to present bitmap on %q: %+v",
				c.presenters[i].Canvas().ID(), err)
			b.Close()
			continue
		}
		c.stats.BitmapsPresented++
	}
	c.stats.FramesPresented++
}

// handleNotify logs the notification. An error notification stops the render
// loop and alerts the user once.
func (c *Controller) handleNotify(m *worker.Manager, msg worker.Notify) {
	c.mux.Lock()
	c.stats.Notifications++
	alert := false
	if msg.Err {
		c.stats.ErrorNotifications++
		if c.manager == m {
			jww.ERROR.Printf("[CTRL] Worker %q reported: %s",
				c.workerName, msg.Info)
			c.errorFlag = true
			c.stopLoop()
			alert, c.alerted = !c.alerted, true
		}
	}
	c.mux.Unlock()

	c.host.Log(msg.Info)
	if alert {
		c.host.Alert(msg.Info)
	}
}

// handleTerminateMe destroys the worker that asked for it.
func (c *Controller) handleTerminateMe(m *worker.Manager) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.manager == m {
		jww.INFO.Printf("[CTRL] Worker %q asked to be terminated.",
			c.workerName)
		c.terminate()
	}
}

// StartRenderLoop starts requesting frames. Calling it while the loop runs
// does nothing.
func (c *Controller) StartRenderLoop() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.manager == nil {
		return ErrNoWorker
	} else if c.errorFlag {
		return ErrWorkerFailed
	}

	if c.params.LoopOwner == MainLoop {
		c.loop.Start()
		return nil
	}

	if c.workerLoop {
		return nil
	}
	err := c.manager.SendMessage(
		worker.StartRenderLoop{Resolutions: c.params.Resolutions()})
	if err != nil {
		c.fail(err)
		return err
	}
	c.workerLoop = true
	return nil
}

// StopRenderLoop stops requesting frames. Calling it while the loop is
// stopped does nothing.
func (c *Controller) StopRenderLoop() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.stopLoop()
}

// stopLoop cancels the pending tick and stops the worker's loop. This function
// is not thread safe.
func (c *Controller) stopLoop() error {
	c.loop.Stop()
	if !c.workerLoop || c.manager == nil {
		return nil
	}
	c.workerLoop = false
	if err := c.manager.SendMessage(worker.StopRenderLoop{}); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// Terminate destroys the worker and cancels the pending tick. No message is
// sent afterwards. Returns false if no worker was running.
func (c *Controller) Terminate() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.manager == nil {
		return false
	}
	c.terminate()
	return true
}

// terminate destroys the current worker. This function is not thread safe.
func (c *Controller) terminate() {
	c.loop.Stop()
	c.workerLoop = false
	c.manager.Terminate()
	c.manager = nil
	c.presenters = nil
	c.stats.Terminations++
	close(c.done)
	jww.INFO.Printf("[CTRL] Terminated worker %q.", c.workerName)
}

// tick requests one frame from the worker.
func (c *Controller) tick(uint64) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.manager == nil || c.errorFlag {
		c.loop.Stop()
		return
	}

	err := c.manager.SendMessage(
		worker.RequestBitmaps{Resolutions: c.params.Resolutions()})
	if err != nil {
		c.fail(err)
		return
	}
	c.stats.FramesRequested++
}

// fail handles a failed send: the error flag is set and the loop cancelled.
// The send is not retried. This function is not thread safe.
func (c *Controller) fail(err error) {
	jww.ERROR.Printf("[CTRL] Failed to send to worker %q: %+v",
		c.workerName, err)
	c.errorFlag = true
	c.loop.Stop()
	c.workerLoop = false
}

// Done returns a channel that is closed once the current worker is
// terminated. It is closed when no worker is running.
func (c *Controller) Done() <-chan struct{} {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.done
}

// Stats returns a copy of the event counters.
func (c *Controller) Stats() Stats {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.stats
}

// WorkerName returns the name of the current or last worker.
func (c *Controller) WorkerName() string {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.workerName
}

// TransferredSurfaceID returns the ID of the canvas transferred to the current
// or last worker, or an empty string in bitmap mode.
func (c *Controller) TransferredSurfaceID() string {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.transferredSurfaceID
}

// Running returns true if frames are being requested.
func (c *Controller) Running() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.workerLoop || c.loop.Running()
}

// Failed returns true if the current worker reported an error or a send to it
// failed.
func (c *Controller) Failed() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.errorFlag
}

// Pending returns the number of scheduled ticks that have not run.
func (c *Controller) Pending() int { return c.loop.Pending() }
