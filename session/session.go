////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package session implements the worker side of the render protocol. A
// Session owns the render surface, scene, camera and renderer of one worker,
// renders a frame for every request or loop tick and sends the resulting
// bitmaps back to the main thread.
package session

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/frame"
	"gitlab.com/elixxir/offscreen-wasm/render"
	"gitlab.com/elixxir/offscreen-wasm/surface"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// Sender sends a message to the main thread.
type Sender interface {
	SendMessage(msg worker.Message, transfer ...surface.Transferable) error
}

// Registrar registers the handler for a message tag.
type Registrar interface {
	RegisterCallback(tag worker.Tag, cb worker.Callback)
}

// Session is the render state of one worker. All of its methods except the
// accessors must be called from the worker's task queue.
type Session struct {
	name    string
	sender  Sender
	backend render.Backend
	params  Params

	// loop is the worker's own render loop, used by START_RENDER_LOOP.
	loop            *frame.Loop
	loopResolutions []worker.Resolution

	surface   *surface.Offscreen
	secondary map[worker.Resolution]*surface.Offscreen
	scene     *render.Scene
	camera    *render.PerspectiveCamera
	renderer  render.Renderer

	// errorFlag is set after a failed frame.
	errorFlag     bool
	lastError     error
	terminateSent bool

	state        State
	frameCounter uint64
	mux          sync.Mutex
}

// New returns a new uninitialized Session. Messages are sent with the sender,
// renderers come from the backend and the worker's own render loop runs on
// the requester.
func New(name string, sender Sender, backend render.Backend,
	requester frame.Requester, p Params) *Session {
	s := &Session{
		name:      name,
		sender:    sender,
		backend:   backend,
		params:    p,
		secondary: make(map[worker.Resolution]*surface.Offscreen),
	}
	s.loop = frame.NewLoop(name, requester, func(uint64) {
		s.tick(s.loopResolutions)
	})
	return s
}

// RegisterCallbacks registers the handlers of every main→worker message.
func (s *Session) RegisterCallbacks(r Registrar) {
	r.RegisterCallback(worker.InitWorkerStateTag, func(env worker.Envelope) {
		s.HandleInit(env.Message.(worker.InitWorkerState))
	})
	r.RegisterCallback(worker.RequestBitmapsTag, func(env worker.Envelope) {
		s.HandleRequestBitmaps(env.Message.(worker.RequestBitmaps))
	})
	r.RegisterCallback(worker.StartRenderLoopTag, func(env worker.Envelope) {
		s.HandleStartRenderLoop(env.Message.(worker.StartRenderLoop))
	})
	r.RegisterCallback(worker.StopRenderLoopTag, func(worker.Envelope) {
		s.HandleStopRenderLoop()
	})
}

// State returns the current state of the session. This function is thread
// safe.
func (s *Session) State() State {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.state
}

// FrameCounter returns the number of render requests processed. This function
// is thread safe.
func (s *Session) FrameCounter() uint64 {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.frameCounter
}

// LastError returns the error that set the error flag, if any. This function
// is thread safe.
func (s *Session) LastError() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.lastError
}

// Failed returns true once a frame has failed.
func (s *Session) Failed() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.errorFlag
}

// LoopRunning returns true if the worker's own render loop is running.
func (s *Session) LoopRunning() bool { return s.loop.Running() }

func (s *Session) setState(state State) {
	s.mux.Lock()
	if s.state != state {
		jww.DEBUG.Printf("[WW] [%s] Session state %s → %s",
			s.name, s.state, state)
	}
	s.state = state
	s.mux.Unlock()
}

// HandleInit builds the render session. On success the session is Ready; on
// failure an error notification is sent, the session asks to be terminated
// and never becomes Ready.
func (s *Session) HandleInit(msg worker.InitWorkerState) {
	if state := s.State(); state != Uninitialized {
		jww.WARN.Printf("[WW] [%s] Ignoring %s in state %s.",
			s.name, msg.Action(), state)
		s.notify(fmt.Sprintf("[%s] - already initialized", s.name), true)
		return
	}

	if err := s.init(msg); err != nil {
		jww.ERROR.Printf("[WW] [%s] Failed to initialize: %+v", s.name, err)
		s.mux.Lock()
		s.lastError = err
		s.mux.Unlock()
		s.notify(fmt.Sprintf("[%s] - initialization failed: %v", s.name, err),
			true)
		s.terminate()
		return
	}

	s.setState(Ready)
	s.notify(fmt.Sprintf("[%s] - ready", s.name), false)
}

func (s *Session) init(msg worker.InitWorkerState) error {
	if msg.Surface != nil {
		if _, err := msg.Surface.Buffer(); err != nil {
			return errors.Wrap(err, "invalid transferred surface")
		}
		s.surface = msg.Surface
	} else {
		off, err := surface.NewOffscreen(msg.Width, msg.Height)
		if err != nil {
			return errors.Wrap(err, "could not create offscreen surface")
		}
		s.surface = off
	}
	width, height := s.surface.Size()

	s.notify(fmt.Sprintf("[%s] - building the scene", s.name), false)
	scene, err := s.backend.CreateScene(msg.SceneName)
	if err != nil {
		return errors.Wrap(err, "could not build the scene")
	}

	s.notify(fmt.Sprintf("[%s] - building the renderer", s.name), false)
	renderer, err := s.backend.CreateRenderer(s.surface)
	if err != nil {
		return errors.Wrap(err, "could not build the renderer")
	}

	s.notify(fmt.Sprintf("[%s] - building the camera", s.name), false)
	camera, err := s.backend.CreateCamera(width, height, scene)
	if err != nil {
		renderer.Close()
		return errors.Wrap(err, "could not build the camera")
	}

	s.scene, s.renderer, s.camera = scene, renderer, camera
	return nil
}

// HandleRequestBitmaps renders one frame and sends one bitmap per requested
// resolution.
func (s *Session) HandleRequestBitmaps(msg worker.RequestBitmaps) {
	s.tick(msg.Resolutions)
}

// HandleStartRenderLoop starts the worker's own render loop. Starting a
// running loop does nothing.
func (s *Session) HandleStartRenderLoop(msg worker.StartRenderLoop) {
	if state := s.State(); state != Ready && state != Rendering {
		jww.WARN.Printf("[WW] [%s] Ignoring %s in state %s.",
			s.name, msg.Action(), state)
		return
	}
	if err := validateResolutions(msg.Resolutions); err != nil {
		s.notify(fmt.Sprintf("[%s] - %v", s.name, err), true)
		return
	}
	s.loopResolutions = msg.Resolutions
	if s.loop.Start() {
		jww.INFO.Printf("[WW] [%s] Started worker render loop.", s.name)
	}
}

// HandleStopRenderLoop stops the worker's own render loop. Stopping a stopped
// loop does nothing.
func (s *Session) HandleStopRenderLoop() {
	if s.loop.Stop() {
		jww.INFO.Printf("[WW] [%s] Stopped worker render loop.", s.name)
	}
}

// Close releases the session's resources after the main thread destroyed the
// worker. No further messages are processed or sent.
func (s *Session) Close() {
	s.setState(Terminating)
	s.loop.Stop()
	if s.renderer != nil {
		s.renderer.Close()
		s.renderer = nil
	}
	s.surface = nil
	s.secondary = make(map[worker.Resolution]*surface.Offscreen)
	jww.INFO.Printf("[WW] [%s] Session closed.", s.name)
}

// tick is one iteration of the render loop, triggered by a request or by the
// worker's own loop.
func (s *Session) tick(resolutions []worker.Resolution) {
	if s.State() == Terminating {
		return
	}

	if err := validateResolutions(resolutions); err != nil {
		jww.WARN.Printf("[WW] [%s] Ignoring request: %+v", s.name, err)
		s.notify(fmt.Sprintf("[%s] - %v", s.name, err), true)
		return
	}

	s.mux.Lock()
	s.frameCounter++
	n := s.frameCounter
	s.mux.Unlock()

	if n > s.params.MaxFrames {
		jww.INFO.Printf("[WW] [%s] Rendered %d frames; asking to be "+
			"terminated.", s.name, s.params.MaxFrames)
		s.terminate()
		return
	}

	if err := s.renderFrame(resolutions); err != nil {
		s.fail(err)
		return
	}
	s.setState(Rendering)
}

// renderFrame rolls the camera, renders the scene, commits it to the
// placeholder canvas if there is one and sends the requested bitmaps.
func (s *Session) renderFrame(resolutions []worker.Resolution) error {
	switch {
	case s.renderer == nil:
		return errors.New("cannot render without a renderer")
	case s.surface == nil:
		return errors.New("cannot render without a surface")
	case s.camera == nil:
		return errors.New("cannot render without a camera")
	case s.scene == nil:
		return errors.New("cannot render without a scene")
	}

	s.camera.RotateZ(s.params.RotationStep)
	if err := s.renderer.Render(s.scene, s.camera); err != nil {
		return errors.Wrap(err, "render failed")
	}

	if s.surface.HasPlaceholder() {
		if err := s.surface.Commit(); err != nil {
			return errors.Wrap(err, "could not commit frame")
		}
	}

	bitmaps, err := s.extractBitmaps(resolutions)
	if err != nil {
		return err
	} else if len(bitmaps) == 0 {
		return nil
	}

	transfer := make([]surface.Transferable, len(bitmaps))
	for i, b := range bitmaps {
		transfer[i] = b
	}
	err = s.sender.SendMessage(worker.Bitmaps{Bitmaps: bitmaps}, transfer...)
	if err != nil {
		for _, b := range bitmaps {
			b.Close()
		}
		return errors.Wrap(err, "could not send bitmaps")
	}
	return nil
}

// extractBitmaps returns one bitmap per resolution, resampled from the primary
// surface. A surface without a placeholder and no requested resolution yields
// one bitmap of the primary surface.
func (s *Session) extractBitmaps(
	resolutions []worker.Resolution) ([]*surface.Bitmap, error) {
	if len(resolutions) == 0 {
		if s.surface.HasPlaceholder() {
			return nil, nil
		}
		b, err := s.surface.TransferToImageBitmap()
		if err != nil {
			return nil, errors.Wrap(err, "could not extract bitmap")
		}
		return []*surface.Bitmap{b}, nil
	}

	bitmaps := make([]*surface.Bitmap, 0, len(resolutions))
	for _, res := range resolutions {
		sec, exists := s.secondary[res]
		if !exists {
			var err error
			if sec, err = surface.NewOffscreen(res.Width, res.Height); err != nil {
				return nil, err
			}
			s.secondary[res] = sec
		}

		err := surface.Resample(sec, s.surface)
		if err == nil {
			var b *surface.Bitmap
			if b, err = sec.TransferToImageBitmap(); err == nil {
				bitmaps = append(bitmaps, b)
				continue
			}
		}

		for _, b := range bitmaps {
			b.Close()
		}
		return nil, errors.Wrapf(err, "could not extract %dx%d bitmap",
			res.Width, res.Height)
	}
	return bitmaps, nil
}

// fail sets the error flag, reports the error and asks for termination. Ticks
// already scheduled do nothing afterwards.
func (s *Session) fail(err error) {
	jww.ERROR.Printf("[WW] [%s] Frame failed: %+v", s.name, err)
	s.mux.Lock()
	s.errorFlag = true
	s.lastError = err
	s.mux.Unlock()
	s.notify(fmt.Sprintf("[%s] - %v", s.name, err), true)
	s.terminate()
}

// terminate sends TERMINATE_ME once and stops all scheduling.
func (s *Session) terminate() {
	s.setState(Terminating)
	s.loop.Stop()
	if s.terminateSent {
		return
	}
	s.terminateSent = true
	if err := s.sender.SendMessage(worker.TerminateMe{}); err != nil {
		jww.ERROR.Printf("[WW] [%s] Failed to send %s: %+v",
			s.name, worker.TerminateMeTag, err)
	}
}

// notify sends a NOTIFY message. Failures are only logged.
func (s *Session) notify(info string, isErr bool) {
	if err := s.sender.SendMessage(worker.Notify{Info: info, Err: isErr}); err != nil {
		jww.ERROR.Printf("[WW] [%s] Failed to send %s %q: %+v",
			s.name, worker.NotifyTag, info, err)
	}
}

// validateResolutions returns an error if any resolution is not positive.
func validateResolutions(resolutions []worker.Resolution) error {
	for _, res := range resolutions {
		if res.Width <= 0 || res.Height <= 0 {
			return errors.Errorf("invalid resolution %dx%d",
				res.Width, res.Height)
		}
	}
	return nil
}
