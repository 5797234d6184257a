////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package surface

import (
	"image"
	"sync"

	"github.com/pkg/errors"
)

// contextType is the type of rendering context acquired on a Canvas.
type contextType uint8

const (
	noContext contextType = iota
	drawingContext
	bitmapRendererContext
)

// DisplaySink is called with the new contents of a canvas every time what it
// displays changes. The image must not be modified or retained.
type DisplaySink func(id string, img *image.RGBA)

// Canvas is an on-screen canvas element owned by the main thread. Its control
// can be transferred once to an Offscreen surface, after which the main thread
// can no longer draw on it; the canvas then only displays what the owner of
// the Offscreen commits.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/HTMLCanvasElement
type Canvas struct {
	id            string
	width, height int

	// display is what the canvas currently shows.
	display *image.RGBA

	context     contextType
	transferred bool
	sink        DisplaySink

	mux sync.Mutex
}

// NewCanvas returns a new blank canvas element with the given ID and size.
func NewCanvas(id string, width, height int) (*Canvas, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &Canvas{
		id:      id,
		width:   width,
		height:  height,
		display: image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// ID returns the element ID of the canvas.
func (c *Canvas) ID() string { return c.id }

// Width returns the width of the canvas in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the height of the canvas in pixels.
func (c *Canvas) Height() int { return c.height }

// SetDisplaySink registers a function that is called every time the displayed
// contents change. Passing nil removes it.
func (c *Canvas) SetDisplaySink(sink DisplaySink) {
	c.mux.Lock()
	c.sink = sink
	c.mux.Unlock()
}

// ControlTransferred returns true if control of the canvas has been
// transferred to an Offscreen surface.
func (c *Canvas) ControlTransferred() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.transferred
}

// Draw acquires the canvas's drawing context and calls fn with the canvas
// pixels. Returns ErrControlTransferred once control has been transferred.
func (c *Canvas) Draw(fn func(img *image.RGBA)) error {
	c.mux.Lock()
	if err := c.acquire(drawingContext); err != nil {
		c.mux.Unlock()
		return err
	}
	fn(c.display)
	img, sink := c.display, c.sink
	c.mux.Unlock()

	if sink != nil {
		sink(c.id, img)
	}
	return nil
}

// BitmapRenderer returns the canvas's bitmap rendering context, acquiring it
// on the first call.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/ImageBitmapRenderingContext
func (c *Canvas) BitmapRenderer() (*BitmapRenderer, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if err := c.acquire(bitmapRendererContext); err != nil {
		return nil, err
	}
	return &BitmapRenderer{canvas: c}, nil
}

// acquire sets the context type of the canvas. This function is not thread
// safe.
func (c *Canvas) acquire(ct contextType) error {
	if c.transferred {
		return errors.Wrapf(ErrControlTransferred, "canvas %q", c.id)
	} else if c.context != noContext && c.context != ct {
		return errors.Wrapf(ErrContextMismatch, "canvas %q", c.id)
	}
	c.context = ct
	return nil
}

// TransferControlToOffscreen hands control of the canvas to a new Offscreen
// surface of the same size. It can only be done once and only before a
// rendering context has been acquired. Whatever the Offscreen commits is
// displayed by the canvas.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/HTMLCanvasElement/transferControlToOffscreen
func (c *Canvas) TransferControlToOffscreen() (*Offscreen, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.transferred {
		return nil, errors.Wrapf(ErrControlTransferred, "canvas %q", c.id)
	} else if c.context != noContext {
		return nil, errors.Wrapf(ErrContextAcquired, "canvas %q", c.id)
	}
	c.transferred = true

	return &Offscreen{
		width:       c.width,
		height:      c.height,
		buf:         image.NewRGBA(image.Rect(0, 0, c.width, c.height)),
		placeholder: c,
	}, nil
}

// Image returns a copy of what the canvas currently displays.
func (c *Canvas) Image() *image.RGBA {
	c.mux.Lock()
	defer c.mux.Unlock()
	img := image.NewRGBA(c.display.Rect)
	copy(img.Pix, c.display.Pix)
	return img
}

// Clone returns a fresh canvas with the same ID, size and display sink, with
// no context and untransferred control. It is used to replace a canvas whose
// control has been transferred to a worker that no longer exists.
func (c *Canvas) Clone() *Canvas {
	c.mux.Lock()
	defer c.mux.Unlock()
	return &Canvas{
		id:      c.id,
		width:   c.width,
		height:  c.height,
		display: image.NewRGBA(image.Rect(0, 0, c.width, c.height)),
		sink:    c.sink,
	}
}

// show replaces the displayed image and notifies the sink. The canvas takes
// ownership of img.
func (c *Canvas) show(img *image.RGBA) {
	c.mux.Lock()
	c.display = img
	sink := c.sink
	c.mux.Unlock()

	if sink != nil {
		sink(c.id, img)
	}
}

// BitmapRenderer is the bitmap rendering context of a Canvas. It displays
// bitmaps without copying them.
type BitmapRenderer struct {
	canvas *Canvas
}

// Canvas returns the canvas the context belongs to.
func (r *BitmapRenderer) Canvas() *Canvas { return r.canvas }

// TransferFromImageBitmap displays the bitmap on the canvas. The canvas takes
// ownership of the bitmap's pixels and the bitmap is detached.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/ImageBitmapRenderingContext/transferFromImageBitmap
func (r *BitmapRenderer) TransferFromImageBitmap(b *Bitmap) error {
	img, err := b.Release()
	if err != nil {
		return errors.Wrapf(err, "could not present bitmap on canvas %q",
			r.canvas.id)
	}
	r.canvas.show(img)
	return nil
}
