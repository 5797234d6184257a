////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// echoEntry is a worker entry point that answers every REQUEST_BITMAPS with a
// NOTIFY containing the number of requested resolutions. It reports on closed
// when the main thread destroys the channel.
func echoEntry(closed chan<- struct{}) EntryPoint {
	return func(port Port, name string) {
		tm := NewThreadManager(name, port, DefaultParams())
		tm.RegisterCallback(RequestBitmapsTag, func(env Envelope) {
			n := len(env.Message.(RequestBitmaps).Resolutions)
			_ = tm.SendMessage(Notify{Info: fmt.Sprintf("%d", n)})
		})
		tm.OnClose(func() {
			tm.Stop()
			closed <- struct{}{}
		})
		if err := tm.Start(); err != nil {
			panic(err)
		}
	}
}

// Tests that a Manager and ThreadManager connected by a LocalSpawner exchange
// messages and deliver them in order.
func TestManager_SendMessage(t *testing.T) {
	closed := make(chan struct{}, 1)
	m, err := NewManager(
		LocalSpawner{Entry: echoEntry(closed)}, "echo", DefaultParams())
	require.NoError(t, err)

	received := make(chan string, 10)
	m.RegisterCallback(NotifyTag, func(env Envelope) {
		received <- env.Message.(Notify).Info
	})
	require.NoError(t, m.Start())

	for i := 0; i < 3; i++ {
		err = m.SendMessage(RequestBitmaps{Resolutions: make([]Resolution, i)})
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		select {
		case info := <-received:
			if info != fmt.Sprintf("%d", i) {
				t.Errorf("Unexpected notification.\nexpected: %d\nreceived: %s",
					i, info)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for notification %d.", i)
		}
	}

	require.True(t, m.Terminate())
	require.False(t, m.Terminate())

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Error("Worker was not notified of termination.")
	}

	if err = m.SendMessage(RequestBitmaps{}); !errors.Is(err, ErrStopped) {
		t.Errorf("Unexpected error after terminate."+
			"\nexpected: %v\nreceived: %v", ErrStopped, err)
	}
}

// Tests that sending a tag in the wrong direction fails.
func TestManager_SendMessage_WrongDirection(t *testing.T) {
	main, _ := NewLocalPipe("main", "worker")
	m := NewManagerFromPort(main, "worker", DefaultParams())
	defer m.Terminate()

	err := m.SendMessage(Notify{Info: "hello"})
	if !errors.Is(err, ErrWrongDirection) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			ErrWrongDirection, err)
	}

	tm := NewThreadManager("worker", main, DefaultParams())
	err = tm.SendMessage(RequestBitmaps{})
	if !errors.Is(err, ErrWrongDirection) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			ErrWrongDirection, err)
	}
}

// Tests that messages with unknown tags, wrong-direction tags or no callback
// are ignored and that processing continues.
func TestThreadManager_handle_Ignored(t *testing.T) {
	main, w := NewLocalPipe("main", "worker")
	tm := NewThreadManager("worker", w, DefaultParams())
	defer tm.Stop()

	called := make(chan Tag, 10)
	for _, tag := range []Tag{NotifyTag, InitWorkerStateTag} {
		tag := tag
		tm.RegisterCallback(tag, func(Envelope) { called <- tag })
	}
	require.NoError(t, tm.Start())

	// Posted directly to bypass the direction check of the sender
	require.NoError(t, main.PostMessage(Unknown{Tag: "bogus"}))
	require.NoError(t, main.PostMessage(Notify{Info: "wrong way"}))
	require.NoError(t, main.PostMessage(StopRenderLoop{}))
	require.NoError(t, main.PostMessage(InitWorkerState{Width: 1, Height: 1}))

	select {
	case tag := <-called:
		if tag != InitWorkerStateTag {
			t.Errorf("Unexpected callback.\nexpected: %q\nreceived: %q",
				InitWorkerStateTag, tag)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for callback.")
	}
}

// Tests that tasks passed to Post run in order with received messages and
// that Post fails once stopped.
func TestThreadManager_Post(t *testing.T) {
	_, w := NewLocalPipe("main", "worker")
	tm := NewThreadManager("worker", w, DefaultParams())
	require.NoError(t, tm.Start())

	results := make(chan int, 5)
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, tm.Post(func() { results <- i }))
	}
	for i := 0; i < 5; i++ {
		select {
		case r := <-results:
			require.Equal(t, i, r)
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for task %d.", i)
		}
	}

	tm.Stop()
	require.False(t, tm.Post(func() {}))
	require.ErrorIs(t, tm.Start(), ErrAlreadyStarted)
}
