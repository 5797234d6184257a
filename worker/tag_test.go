////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"testing"
)

// Tests that every tag is valid for exactly one direction and that the
// direction matches the one reported by Tag.Direction.
func TestTag_ValidFor(t *testing.T) {
	tests := map[Tag]Direction{
		InitWorkerStateTag: MainToWorker,
		RequestBitmapsTag:  MainToWorker,
		StartRenderLoopTag: MainToWorker,
		StopRenderLoopTag:  MainToWorker,
		BitmapsTag:         WorkerToMain,
		NotifyTag:          WorkerToMain,
		TerminateMeTag:     WorkerToMain,
	}

	for tag, expected := range tests {
		d, known := tag.Direction()
		if !known || d != expected {
			t.Errorf("Unexpected direction for %q.\nexpected: %s\nreceived: %s",
				tag, expected, d)
		}
		if !tag.ValidFor(expected) {
			t.Errorf("Tag %q not valid for %s.", tag, expected)
		}
		other := MainToWorker
		if expected == MainToWorker {
			other = WorkerToMain
		}
		if tag.ValidFor(other) {
			t.Errorf("Tag %q valid for %s.", tag, other)
		}
	}
}

// Tests that a tag outside the vocabulary is valid for no direction.
func TestTag_ValidFor_Unknown(t *testing.T) {
	tag := Tag("unknown-action")
	if _, known := tag.Direction(); known {
		t.Errorf("Tag %q reported as known.", tag)
	}
	if tag.ValidFor(MainToWorker) || tag.ValidFor(WorkerToMain) {
		t.Errorf("Tag %q is valid for a direction.", tag)
	}
}

// Tests that each Message returns its matching tag.
func TestMessage_Action(t *testing.T) {
	tests := []struct {
		msg Message
		tag Tag
	}{
		{InitWorkerState{}, InitWorkerStateTag},
		{RequestBitmaps{}, RequestBitmapsTag},
		{StartRenderLoop{}, StartRenderLoopTag},
		{StopRenderLoop{}, StopRenderLoopTag},
		{Bitmaps{}, BitmapsTag},
		{Notify{}, NotifyTag},
		{TerminateMe{}, TerminateMeTag},
		{Unknown{Tag: "x"}, "x"},
	}

	for i, tt := range tests {
		if tt.msg.Action() != tt.tag {
			t.Errorf("Unexpected tag for %T (%d).\nexpected: %q\nreceived: %q",
				tt.msg, i, tt.tag, tt.msg.Action())
		}
	}
}
