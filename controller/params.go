////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package controller

import (
	"github.com/pkg/errors"

	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// Mode selects how rendered frames reach the page.
type Mode string

const (
	// BitmapMode has the worker render on its own surface and send bitmaps
	// that are presented on bitmap canvases.
	BitmapMode Mode = "bitmaps"

	// TransferMode hands control of a page canvas to the worker, which
	// commits every frame directly to it.
	TransferMode Mode = "transfer"
)

// LoopOwner selects which thread schedules render ticks.
type LoopOwner string

const (
	// MainLoop has the main thread request a frame on every host frame.
	MainLoop LoopOwner = "main"

	// WorkerLoop has the worker run its own render loop.
	WorkerLoop LoopOwner = "worker"
)

// Default canvas IDs.
const (
	LowResCanvasID      = "low-res-bitmap-canvas"
	MediumResCanvasID   = "medium-res-bitmap-canvas"
	HighResCanvasID     = "high-res-bitmap-canvas"
	TransferCanvasID    = "transfer-control-canvas"
	DefaultWorkerPrefix = "render-worker"
)

// Target is a bitmap canvas that presents one resolution of every frame.
type Target struct {
	CanvasID string `toml:"canvasId"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
}

// Params configures a Controller.
type Params struct {
	Mode      Mode      `toml:"mode"`
	LoopOwner LoopOwner `toml:"loopOwner"`

	// Width and Height are the size of the worker-created surface in bitmap
	// mode.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	SceneName string `toml:"sceneName"`

	// TransferCanvasID is the canvas whose control is transferred in
	// transfer mode.
	TransferCanvasID string `toml:"transferCanvasId"`

	// Targets are the bitmap canvases. The worker sends one bitmap per
	// target on every frame, in order.
	Targets []Target `toml:"targets"`

	// WorkerPrefix starts the name of every spawned worker.
	WorkerPrefix string `toml:"workerPrefix"`
}

// DefaultParams returns the default parameters of the demo page.
func DefaultParams() Params {
	return Params{
		Mode:             BitmapMode,
		LoopOwner:        MainLoop,
		Width:            1024,
		Height:           768,
		SceneName:        "my-scene",
		TransferCanvasID: TransferCanvasID,
		Targets: []Target{
			{CanvasID: LowResCanvasID, Width: 256, Height: 192},
			{CanvasID: MediumResCanvasID, Width: 512, Height: 384},
			{CanvasID: HighResCanvasID, Width: 1024, Height: 768},
		},
		WorkerPrefix: DefaultWorkerPrefix,
	}
}

// Resolutions returns the resolution of every target.
func (p Params) Resolutions() []worker.Resolution {
	if len(p.Targets) == 0 {
		return nil
	}
	res := make([]worker.Resolution, len(p.Targets))
	for i, t := range p.Targets {
		res[i] = worker.Resolution{Width: t.Width, Height: t.Height}
	}
	return res
}

// Validate returns an error if the parameters cannot drive a session.
func (p Params) Validate() error {
	switch p.Mode {
	case BitmapMode:
		if p.Width <= 0 || p.Height <= 0 {
			return errors.Errorf("invalid surface size %dx%d",
				p.Width, p.Height)
		}
	case TransferMode:
		if p.TransferCanvasID == "" {
			return errors.New("transfer mode requires a transfer canvas ID")
		}
	default:
		return errors.Errorf("unknown mode %q", p.Mode)
	}

	if p.LoopOwner != MainLoop && p.LoopOwner != WorkerLoop {
		return errors.Errorf("unknown loop owner %q", p.LoopOwner)
	}

	for _, t := range p.Targets {
		if t.CanvasID == "" {
			return errors.New("target has no canvas ID")
		} else if t.Width <= 0 || t.Height <= 0 {
			return errors.Errorf("invalid size %dx%d for target %q",
				t.Width, t.Height, t.CanvasID)
		}
	}
	return nil
}
