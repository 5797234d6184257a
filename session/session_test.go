////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package session

import (
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/offscreen-wasm/frame"
	"gitlab.com/elixxir/offscreen-wasm/render"
	"gitlab.com/elixxir/offscreen-wasm/surface"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// recorder is a Sender that keeps every sent message.
type recorder struct {
	msgs []worker.Message
	mux  sync.Mutex
}

func (r *recorder) SendMessage(
	msg worker.Message, _ ...surface.Transferable) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// take returns the recorded messages and clears the record.
func (r *recorder) take() []worker.Message {
	r.mux.Lock()
	defer r.mux.Unlock()
	msgs := r.msgs
	r.msgs = nil
	return msgs
}

// count returns the number of messages with each tag.
func count(msgs []worker.Message) map[worker.Tag]int {
	c := make(map[worker.Tag]int)
	for _, m := range msgs {
		c[m.Action()]++
	}
	return c
}

// errorNotifications returns the info of every error NOTIFY.
func errorNotifications(msgs []worker.Message) []string {
	var infos []string
	for _, m := range msgs {
		if n, ok := m.(worker.Notify); ok && n.Err {
			infos = append(infos, n.Info)
		}
	}
	return infos
}

func newTestSession(t *testing.T, backend render.Backend,
	p Params) (*Session, *recorder, *frame.ManualRequester) {
	r := &recorder{}
	mr := frame.NewManualRequester()
	s := New(t.Name(), r, backend, mr, p)
	t.Cleanup(s.Close)
	return s, r, mr
}

func initMsg() worker.InitWorkerState {
	return worker.InitWorkerState{Width: 100, Height: 100, SceneName: "t"}
}

// Tests that a successful initialization makes the session Ready and reports
// its progress.
func TestSession_HandleInit(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewSoftware(), DefaultParams())
	require.Equal(t, Uninitialized, s.State())

	s.HandleInit(initMsg())
	if s.State() != Ready {
		t.Errorf("Unexpected state.\nexpected: %s\nreceived: %s",
			Ready, s.State())
	}

	msgs := r.take()
	if errs := errorNotifications(msgs); len(errs) != 0 {
		t.Errorf("Unexpected error notifications: %v", errs)
	}
	var infos []string
	for _, m := range msgs {
		infos = append(infos, m.(worker.Notify).Info)
	}
	expected := []string{"building the scene", "building the renderer",
		"building the camera", "ready"}
	require.Len(t, infos, len(expected))
	for i, info := range infos {
		if !strings.HasSuffix(info, expected[i]) {
			t.Errorf("Unexpected notification %d.\nexpected: %q\nreceived: %q",
				i, expected[i], info)
		}
	}
}

// Tests that a second INIT_WORKER_STATE is ignored with an error notification.
func TestSession_HandleInit_Twice(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewSoftware(), DefaultParams())
	s.HandleInit(initMsg())
	r.take()

	s.HandleInit(initMsg())
	require.Equal(t, Ready, s.State())
	require.Len(t, errorNotifications(r.take()), 1)
}

// Tests that initializing without a usable backend reports an error and asks
// for termination.
func TestSession_HandleInit_Unsupported(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewUnsupported(), DefaultParams())
	s.HandleInit(initMsg())

	require.Equal(t, Terminating, s.State())
	require.Error(t, s.LastError())

	msgs := r.take()
	require.Len(t, errorNotifications(msgs), 1)
	last := msgs[len(msgs)-1]
	if last.Action() != worker.TerminateMeTag {
		t.Errorf("Unexpected last message.\nexpected: %s\nreceived: %s",
			worker.TerminateMeTag, last.Action())
	}

	// Nothing is sent once terminating
	s.HandleRequestBitmaps(worker.RequestBitmaps{})
	require.Empty(t, r.take())
}

// Tests that every request increments the frame counter and yields one bitmap
// per resolution.
func TestSession_HandleRequestBitmaps(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewSoftware(), DefaultParams())
	s.HandleInit(initMsg())
	r.take()

	resolutions := []worker.Resolution{{Width: 50, Height: 50},
		{Width: 20, Height: 10}}
	for i := uint64(1); i <= 3; i++ {
		s.HandleRequestBitmaps(worker.RequestBitmaps{Resolutions: resolutions})
		if s.FrameCounter() != i {
			t.Errorf("Unexpected frame counter.\nexpected: %d\nreceived: %d",
				i, s.FrameCounter())
		}

		msgs := r.take()
		require.Len(t, msgs, 1)
		bitmaps := msgs[0].(worker.Bitmaps).Bitmaps
		require.Len(t, bitmaps, len(resolutions))
		for j, b := range bitmaps {
			if b.Width() != resolutions[j].Width ||
				b.Height() != resolutions[j].Height {
				t.Errorf("Unexpected bitmap %d size.\nexpected: %dx%d"+
					"\nreceived: %dx%d", j, resolutions[j].Width,
					resolutions[j].Height, b.Width(), b.Height())
			}
		}
	}
	require.Equal(t, Rendering, s.State())
}

// Tests that a request without resolutions and without a placeholder yields
// one bitmap of the primary surface.
func TestSession_HandleRequestBitmaps_Primary(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewSoftware(), DefaultParams())
	s.HandleInit(worker.InitWorkerState{Width: 40, Height: 30})
	r.take()

	s.HandleRequestBitmaps(worker.RequestBitmaps{})
	msgs := r.take()
	require.Len(t, msgs, 1)
	bitmaps := msgs[0].(worker.Bitmaps).Bitmaps
	require.Len(t, bitmaps, 1)
	require.Equal(t, 40, bitmaps[0].Width())
	require.Equal(t, 30, bitmaps[0].Height())
}

// Tests that an invalid resolution is reported and the request is not
// counted.
func TestSession_HandleRequestBitmaps_InvalidResolution(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewSoftware(), DefaultParams())
	s.HandleInit(initMsg())
	r.take()

	s.HandleRequestBitmaps(worker.RequestBitmaps{
		Resolutions: []worker.Resolution{{Width: 0, Height: 10}}})
	require.Equal(t, uint64(0), s.FrameCounter())
	msgs := r.take()
	require.Len(t, msgs, 1)
	require.Len(t, errorNotifications(msgs), 1)
	require.Equal(t, Ready, s.State())
}

// Tests that exactly one TERMINATE_ME is sent once the frame ceiling is
// passed and that no bitmaps follow it.
func TestSession_MaxFrames(t *testing.T) {
	p := DefaultParams()
	p.MaxFrames = 3
	s, r, _ := newTestSession(t, render.NewSoftware(), p)
	s.HandleInit(initMsg())
	r.take()

	req := worker.RequestBitmaps{
		Resolutions: []worker.Resolution{{Width: 8, Height: 8}}}
	for i := 0; i < 6; i++ {
		s.HandleRequestBitmaps(req)
	}

	msgs := r.take()
	c := count(msgs)
	if c[worker.BitmapsTag] != 3 {
		t.Errorf("Unexpected number of %s.\nexpected: %d\nreceived: %d",
			worker.BitmapsTag, 3, c[worker.BitmapsTag])
	}
	if c[worker.TerminateMeTag] != 1 {
		t.Errorf("Unexpected number of %s.\nexpected: %d\nreceived: %d",
			worker.TerminateMeTag, 1, c[worker.TerminateMeTag])
	}
	require.Equal(t, worker.TerminateMeTag, msgs[len(msgs)-1].Action())
	require.Equal(t, Terminating, s.State())
}

// Tests that a request before initialization fails the frame, reports the
// error and then asks for termination without waiting for another request.
func TestSession_RequestBeforeInit(t *testing.T) {
	s, r, _ := newTestSession(t, render.NewSoftware(), DefaultParams())

	s.HandleRequestBitmaps(worker.RequestBitmaps{})
	require.Equal(t, uint64(1), s.FrameCounter())
	require.Error(t, s.LastError())
	require.True(t, s.Failed())
	require.Equal(t, Terminating, s.State())

	msgs := r.take()
	require.Len(t, msgs, 2)
	require.Len(t, errorNotifications(msgs[:1]), 1)
	require.Equal(t, worker.TerminateMeTag, msgs[1].Action())

	s.HandleRequestBitmaps(worker.RequestBitmaps{})
	require.Empty(t, r.take())
	require.Equal(t, uint64(1), s.FrameCounter())
}

// failingBackend creates renderers whose every frame fails.
type failingBackend struct{ *render.Software }

func (failingBackend) CreateRenderer(render.Target) (render.Renderer, error) {
	return failingRenderer{}, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(*render.Scene, *render.PerspectiveCamera) error {
	return errors.New("context lost")
}
func (failingRenderer) Close() {}

// Tests that a failed frame in the worker's own loop reports the error, asks
// for termination at once and stops the loop.
func TestSession_RenderError(t *testing.T) {
	s, r, mr := newTestSession(
		t, failingBackend{render.NewSoftware()}, DefaultParams())
	s.HandleInit(initMsg())
	require.Equal(t, Ready, s.State())
	r.take()

	s.HandleStartRenderLoop(worker.StartRenderLoop{})
	require.Equal(t, 1, mr.Flush())

	msgs := r.take()
	expected := []worker.Tag{worker.NotifyTag, worker.TerminateMeTag}
	if len(msgs) != len(expected) {
		t.Fatalf("Unexpected number of messages.\nexpected: %d\nreceived: %d",
			len(expected), len(msgs))
	}
	for i, tag := range expected {
		if msgs[i].Action() != tag {
			t.Errorf("Unexpected message %d.\nexpected: %s\nreceived: %s",
				i, tag, msgs[i].Action())
		}
	}
	require.True(t, s.Failed())
	require.Equal(t, Terminating, s.State())
	require.False(t, s.LoopRunning())
	require.Equal(t, 0, mr.Pending())

	s.HandleRequestBitmaps(worker.RequestBitmaps{})
	require.Empty(t, r.take())
}

// Tests that the worker's own render loop sends bitmaps on every frame until
// stopped.
func TestSession_RenderLoop(t *testing.T) {
	s, r, mr := newTestSession(t, render.NewSoftware(), DefaultParams())

	// Ignored before initialization
	s.HandleStartRenderLoop(worker.StartRenderLoop{})
	require.False(t, s.LoopRunning())

	s.HandleInit(initMsg())
	r.take()

	s.HandleStartRenderLoop(worker.StartRenderLoop{
		Resolutions: []worker.Resolution{{Width: 25, Height: 25}}})
	require.True(t, s.LoopRunning())
	for i := 0; i < 3; i++ {
		require.Equal(t, 1, mr.Flush())
	}
	require.Equal(t, map[worker.Tag]int{worker.BitmapsTag: 3}, count(r.take()))
	require.Equal(t, uint64(3), s.FrameCounter())

	s.HandleStopRenderLoop()
	require.False(t, s.LoopRunning())
	require.Equal(t, 0, mr.Pending())
	require.Equal(t, 0, mr.Flush())
	require.Empty(t, r.take())
}
