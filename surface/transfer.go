////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package surface contains the drawable resources that are exchanged between
// the main thread and a render worker: on-screen canvases, offscreen surfaces
// and bitmaps. Offscreen surfaces and bitmaps have a single owner. Handing
// one to another thread moves it: the old handle is invalidated and every
// later use of it fails with ErrDetached.
package surface

import (
	"github.com/pkg/errors"
)

// Errors returned when using surfaces.
var (
	// ErrDetached is returned when using a handle whose resource has been
	// transferred to another owner or closed.
	ErrDetached = errors.New("resource has been transferred or closed")

	// ErrControlTransferred is returned when drawing on, or acquiring a
	// context for, a canvas whose control was transferred offscreen.
	ErrControlTransferred = errors.New(
		"canvas control has been transferred to an offscreen surface")

	// ErrContextAcquired is returned when transferring control of a canvas
	// that already has a rendering context.
	ErrContextAcquired = errors.New(
		"cannot transfer control from a canvas that has a rendering context")

	// ErrContextMismatch is returned when requesting a context of a different
	// type than the one already acquired on a canvas.
	ErrContextMismatch = errors.New(
		"canvas already has a rendering context of another type")

	// ErrInvalidSize is returned when a width or height is not positive.
	ErrInvalidSize = errors.New("width and height must be positive")
)

// Transferable is a resource that can be moved to another owner without
// copying. Detach returns a new handle that owns the resource and invalidates
// the receiver. Detaching an already detached handle returns ErrDetached.
type Transferable interface {
	Detach() (Transferable, error)
	Detached() bool
}

// Cloneable is a Transferable that can be copied when it is sent without
// being listed for transfer.
type Cloneable interface {
	Transferable
	StructuredClone() (Transferable, error)
}

// checkSize returns ErrInvalidSize if either dimension is not positive.
func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidSize, "%dx%d", width, height)
	}
	return nil
}
