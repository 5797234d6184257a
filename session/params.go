////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package session

import (
	"time"
)

// Params are parameters used by a [Session].
type Params struct {
	// MaxFrames is the number of frames a session renders before it asks to
	// be terminated.
	MaxFrames uint64 `toml:"maxFrames"`

	// RotationStep is the angle, in radians, the camera is rolled by before
	// each frame.
	RotationStep float32 `toml:"rotationStep"`

	// FrameInterval is the time between ticks of the worker's own render
	// loop.
	FrameInterval time.Duration `toml:"frameInterval"`
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return Params{
		MaxFrames:     300,
		RotationStep:  0.2,
		FrameInterval: time.Second / 60,
	}
}
