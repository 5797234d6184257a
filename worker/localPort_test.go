////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// receiveEnvelope waits for the next message on the channel.
func receiveEnvelope(t *testing.T, events <-chan MessageEvent) Envelope {
	t.Helper()
	select {
	case e, ok := <-events:
		if !ok {
			t.Fatal("Event channel closed.")
		}
		env, err := e.Data()
		require.NoError(t, err)
		return env
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for message.")
	}
	return Envelope{}
}

// Tests that messages posted on a LocalPort are received in order on the
// other end with the sender's name as the source.
func TestLocalPort_PostMessage(t *testing.T) {
	main, w := NewLocalPipe("main", "worker")
	defer main.Close()

	const n = 20
	for i := 0; i < n; i++ {
		err := w.PostMessage(Notify{Info: strconv.Itoa(i)})
		require.NoError(t, err)
	}

	events, err := main.Listen(context.Background())
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		env := receiveEnvelope(t, events)
		if env.Source != "worker" {
			t.Errorf("Unexpected source.\nexpected: %s\nreceived: %s",
				"worker", env.Source)
		}
		if info := env.Message.(Notify).Info; info != strconv.Itoa(i) {
			t.Errorf("Message out of order.\nexpected: %d\nreceived: %s",
				i, info)
		}
	}
}

// Tests that a bitmap transferred over a LocalPort is readable by the
// receiver and detached for the sender.
func TestLocalPort_PostMessage_Transfer(t *testing.T) {
	main, w := NewLocalPipe("main", "worker")
	defer main.Close()
	events, err := main.Listen(context.Background())
	require.NoError(t, err)

	b := newTestBitmap(t, 3, 3)
	require.NoError(t, w.PostMessage(Bitmaps{Bitmaps: []*surface.Bitmap{b}}, b))

	if _, err = b.Image(); !errors.Is(err, surface.ErrDetached) {
		t.Errorf("Sender can still read the transferred bitmap: %v", err)
	}

	env := receiveEnvelope(t, events)
	received := env.Message.(Bitmaps).Bitmaps[0]
	_, err = received.Image()
	require.NoError(t, err)
}

// Tests that an invalid transfer returns an error and sends nothing.
func TestLocalPort_PostMessage_InvalidTransfer(t *testing.T) {
	main, w := NewLocalPipe("main", "worker")
	defer main.Close()

	b := newTestBitmap(t, 1, 1)
	err := w.PostMessage(Bitmaps{}, b)
	if !errors.Is(err, ErrNotReachable) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			ErrNotReachable, err)
	}
	if main.inbox.Len() != 0 {
		t.Errorf("Message queued after failed post: %d", main.inbox.Len())
	}
}

// Tests that closing one end discards queued messages, releases their
// bitmaps, closes the listener of the other end and silently drops later
// posts.
func TestLocalPort_Close(t *testing.T) {
	main, w := NewLocalPipe("main", "worker")

	queued := newTestBitmap(t, 1, 1)
	require.NoError(t, main.PostMessage(RequestBitmaps{}))
	moved, err := transferMessage(
		Bitmaps{Bitmaps: []*surface.Bitmap{queued}},
		[]surface.Transferable{queued})
	require.NoError(t, err)
	main.inbox.Push(Envelope{Message: moved})
	inFlight := moved.(Bitmaps).Bitmaps[0]

	events, err := w.Listen(context.Background())
	require.NoError(t, err)

	main.Close()

	if !inFlight.Detached() {
		t.Error("Bitmap in discarded message was not released.")
	}

	// The listener may deliver the message popped before Close; it must then
	// close the channel
	timeout := time.After(time.Second)
	for done := false; !done; {
		select {
		case _, ok := <-events:
			done = !ok
		case <-timeout:
			t.Fatal("Timed out waiting for event channel to close.")
		}
	}

	b := newTestBitmap(t, 1, 1)
	if err = w.PostMessage(Bitmaps{Bitmaps: []*surface.Bitmap{b}}, b); err != nil {
		t.Errorf("Post on closed pipe returned an error: %+v", err)
	}
	require.True(t, b.Detached())
}

// Tests that a port can only be listened on once.
func TestLocalPort_Listen_Twice(t *testing.T) {
	main, _ := NewLocalPipe("main", "worker")
	defer main.Close()

	_, err := main.Listen(context.Background())
	require.NoError(t, err)
	if _, err = main.Listen(context.Background()); !errors.Is(err, ErrAlreadyListening) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			ErrAlreadyListening, err)
	}
}
