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

	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/offscreen-wasm/internal/fifo"
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Tests that forwardEvents delivers every queued event in order, even when
// far more events arrive than are read before the reader starts.
func Test_forwardEvents(t *testing.T) {
	const n = 1000
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := fifo.New[MessageEvent]()
	for i := 0; i < n; i++ {
		require.True(t, queue.Push(MessageEvent{data: Envelope{
			Source:  "worker",
			Message: Notify{Info: strconv.Itoa(i)},
		}}))
	}
	require.True(t, queue.Push(MessageEvent{data: Envelope{
		Source: "worker", Message: TerminateMe{}}}))

	events := forwardEvents(ctx, queue, nil)
	for i := 0; i < n; i++ {
		env := receiveEnvelope(t, events)
		info := env.Message.(Notify).Info
		if info != strconv.Itoa(i) {
			t.Fatalf("Received event out of order.\nexpected: %d\nreceived: %s",
				i, info)
		}
	}
	env := receiveEnvelope(t, events)
	if env.Message.Action() != TerminateMeTag {
		t.Errorf("Unexpected last message.\nexpected: %s\nreceived: %s",
			TerminateMeTag, env.Message.Action())
	}
}

// Tests that once the context is done, events still queued are discarded with
// their bitmaps, cleanup is called and the channel is closed.
func Test_forwardEvents_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := fifo.New[MessageEvent]()

	cleaned := make(chan struct{})
	events := forwardEvents(ctx, queue, func() { close(cleaned) })

	b, err := surface.NewBitmapFromPixels(1, 1, make([]byte, 4))
	require.NoError(t, err)

	// The first event is taken by the forwarding goroutine; the second stays
	// queued until the context is cancelled
	require.True(t, queue.Push(MessageEvent{data: Envelope{
		Message: Notify{Info: "first"}}}))
	require.True(t, queue.Push(MessageEvent{data: Envelope{
		Message: Bitmaps{Bitmaps: []*surface.Bitmap{b}}}}))
	require.Eventually(t, func() bool { return queue.Len() == 1 },
		time.Second, time.Millisecond)
	cancel()

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for cleanup.")
	}
	for range events {
	}
	if !b.Detached() {
		t.Error("Bitmap of a discarded event was not released.")
	}
	if queue.Push(MessageEvent{}) {
		t.Error("Queue accepted an event after forwarding stopped.")
	}
}
