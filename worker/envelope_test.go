////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Tests that a Bitmaps message survives EncodeMessage and DecodeMessage with
// its pixels, and that encoding moves the pixels out of the sent bitmaps.
func TestEncodeMessage_Bitmaps(t *testing.T) {
	pix := make([]byte, 4*2*3)
	pix[5] = 99
	b, err := surface.NewBitmapFromPixels(2, 3, pix)
	require.NoError(t, err)

	header, buffers, err := EncodeMessage(Envelope{
		Source:  "worker",
		Message: Bitmaps{Bitmaps: []*surface.Bitmap{b}},
	})
	require.NoError(t, err)
	require.Len(t, buffers, 1)
	require.True(t, b.Detached())

	env, err := DecodeMessage(header, buffers)
	require.NoError(t, err)
	require.Equal(t, "worker", env.Source)

	received := env.Message.(Bitmaps).Bitmaps
	require.Len(t, received, 1)
	if received[0].Width() != 2 || received[0].Height() != 3 {
		t.Errorf("Unexpected bitmap size.\nexpected: %dx%d\nreceived: %dx%d",
			2, 3, received[0].Width(), received[0].Height())
	}
	img, err := received[0].Image()
	require.NoError(t, err)
	if img.Pix[5] != 99 {
		t.Errorf("Unexpected pixel value: %d", img.Pix[5])
	}
}

// Tests that messages without bitmaps are decoded to the value that was
// encoded.
func TestDecodeMessage(t *testing.T) {
	messages := []Message{
		InitWorkerState{Width: 100, Height: 100, SceneName: "t"},
		RequestBitmaps{Resolutions: []Resolution{{50, 50}, {25, 20}}},
		StartRenderLoop{Resolutions: []Resolution{{8, 8}}},
		StopRenderLoop{},
		Notify{Info: "Created camera", Err: true},
		TerminateMe{},
	}

	for _, msg := range messages {
		header, _, err := EncodeMessage(Envelope{Source: "s", Message: msg})
		require.NoError(t, err)
		env, err := DecodeMessage(header, nil)
		require.NoError(t, err)
		if !reflect.DeepEqual(msg, env.Message) {
			t.Errorf("Unexpected decoded message.\nexpected: %+v\nreceived: %+v",
				msg, env.Message)
		}
	}
}

// Tests that a message with a tag outside the vocabulary decodes to Unknown.
func TestDecodeMessage_UnknownTag(t *testing.T) {
	header, err := json.Marshal(map[string]any{
		"action": "do-a-barrel-roll", "payload": map[string]int{"n": 1}})
	require.NoError(t, err)

	env, err := DecodeMessage(header, nil)
	require.NoError(t, err)
	unknown, ok := env.Message.(Unknown)
	if !ok {
		t.Fatalf("Unexpected message type: %T", env.Message)
	}
	require.Equal(t, Tag("do-a-barrel-roll"), unknown.Tag)
}

// Tests that EncodeMessage refuses to encode an offscreen surface.
func TestEncodeMessage_Surface(t *testing.T) {
	off, err := surface.NewOffscreen(2, 2)
	require.NoError(t, err)

	_, _, err = EncodeMessage(Envelope{Message: InitWorkerState{Surface: off}})
	if !errors.Is(err, ErrDataClone) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			ErrDataClone, err)
	}
}

// Tests that DecodeMessage rejects a bitmap that references a missing buffer.
func TestDecodeMessage_MissingBuffer(t *testing.T) {
	header := []byte(`{"action":"bitmaps","payload":{"bitmaps":` +
		`[{"width":1,"height":1,"buffer":2}]}}`)
	if _, err := DecodeMessage(header, [][]byte{make([]byte, 4)}); err == nil {
		t.Error("No error for missing buffer.")
	}
}
