////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

// Tag describes how a message sent to or from the worker should be handled.
type Tag string

// List of tags that can be used when sending a message or registering a
// handler to receive a message. Each tag is only valid in one direction.
const (
	// Sent from the main thread to the worker.
	InitWorkerStateTag Tag = "initialize-worker-state"
	RequestBitmapsTag  Tag = "request-bitmaps"
	StartRenderLoopTag Tag = "start-render-loop"
	StopRenderLoopTag  Tag = "stop-render-loop"

	// Sent from the worker to the main thread.
	BitmapsTag     Tag = "bitmaps"
	NotifyTag      Tag = "notify"
	TerminateMeTag Tag = "terminate-me"
)

// Direction is the direction a message travels in.
type Direction uint8

const (
	MainToWorker Direction = iota + 1
	WorkerToMain
)

// String returns a human-readable name of the Direction. This functions
// satisfies the fmt.Stringer interface.
func (d Direction) String() string {
	switch d {
	case MainToWorker:
		return "main→worker"
	case WorkerToMain:
		return "worker→main"
	default:
		return "invalid direction"
	}
}

// tagDirections maps every known tag to the only direction it is valid for.
var tagDirections = map[Tag]Direction{
	InitWorkerStateTag: MainToWorker,
	RequestBitmapsTag:  MainToWorker,
	StartRenderLoopTag: MainToWorker,
	StopRenderLoopTag:  MainToWorker,
	BitmapsTag:         WorkerToMain,
	NotifyTag:          WorkerToMain,
	TerminateMeTag:     WorkerToMain,
}

// Direction returns the direction the tag is valid for. Returns false if the
// tag is not part of the vocabulary.
func (t Tag) Direction() (Direction, bool) {
	d, exists := tagDirections[t]
	return d, exists
}

// ValidFor returns true if the tag is known and may be sent in the given
// direction.
func (t Tag) ValidFor(d Direction) bool {
	td, exists := tagDirections[t]
	return exists && td == d
}
