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
	"golang.org/x/image/draw"
)

// Offscreen is a drawable surface that is not attached to the DOM. It is
// either created directly by a worker or obtained from
// Canvas.TransferControlToOffscreen, in which case the canvas is its
// placeholder and displays every committed frame.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/OffscreenCanvas
type Offscreen struct {
	width, height int

	// buf is the backing pixel buffer. It is nil once detached.
	buf *image.RGBA

	placeholder *Canvas

	mux sync.Mutex
}

// NewOffscreen returns a new blank Offscreen surface of the given size.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/OffscreenCanvas/OffscreenCanvas
func NewOffscreen(width, height int) (*Offscreen, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &Offscreen{
		width:  width,
		height: height,
		buf:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Width returns the width of the surface in pixels.
func (o *Offscreen) Width() int { return o.width }

// Height returns the height of the surface in pixels.
func (o *Offscreen) Height() int { return o.height }

// Size returns the width and height of the surface in pixels.
func (o *Offscreen) Size() (width, height int) { return o.width, o.height }

// HasPlaceholder returns true if the surface came from a transferred canvas.
func (o *Offscreen) HasPlaceholder() bool { return o.placeholder != nil }

// Buffer returns the backing buffer to draw on. Returns ErrDetached if the
// surface has been transferred.
func (o *Offscreen) Buffer() (*image.RGBA, error) {
	o.mux.Lock()
	defer o.mux.Unlock()
	if o.buf == nil {
		return nil, ErrDetached
	}
	return o.buf, nil
}

// Detached returns true if the surface was transferred.
func (o *Offscreen) Detached() bool {
	o.mux.Lock()
	defer o.mux.Unlock()
	return o.buf == nil
}

// Detach moves the surface into a new handle and invalidates this one.
func (o *Offscreen) Detach() (Transferable, error) {
	o.mux.Lock()
	defer o.mux.Unlock()
	if o.buf == nil {
		return nil, ErrDetached
	}

	moved := &Offscreen{
		width:       o.width,
		height:      o.height,
		buf:         o.buf,
		placeholder: o.placeholder,
	}
	o.buf = nil
	return moved, nil
}

// Commit pushes a copy of the current buffer to the placeholder canvas. It
// does nothing for a surface without a placeholder.
func (o *Offscreen) Commit() error {
	o.mux.Lock()
	if o.buf == nil {
		o.mux.Unlock()
		return ErrDetached
	} else if o.placeholder == nil {
		o.mux.Unlock()
		return nil
	}
	frame := image.NewRGBA(o.buf.Rect)
	copy(frame.Pix, o.buf.Pix)
	o.mux.Unlock()

	o.placeholder.show(frame)
	return nil
}

// TransferToImageBitmap moves the current buffer into a new Bitmap and
// replaces it with a blank buffer of the same size.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/OffscreenCanvas/transferToImageBitmap
func (o *Offscreen) TransferToImageBitmap() (*Bitmap, error) {
	o.mux.Lock()
	defer o.mux.Unlock()
	if o.buf == nil {
		return nil, ErrDetached
	}

	b := NewBitmap(o.buf)
	o.buf = image.NewRGBA(image.Rect(0, 0, o.width, o.height))
	return b, nil
}

// Resample scales the contents of src into dst using bilinear interpolation.
func Resample(dst, src *Offscreen) error {
	srcBuf, err := src.Buffer()
	if err != nil {
		return errors.Wrap(err, "could not read source surface")
	}
	dstBuf, err := dst.Buffer()
	if err != nil {
		return errors.Wrap(err, "could not write destination surface")
	}

	if srcBuf.Rect.Eq(dstBuf.Rect) {
		copy(dstBuf.Pix, srcBuf.Pix)
		return nil
	}
	draw.ApproxBiLinear.Scale(
		dstBuf, dstBuf.Rect, srcBuf, srcBuf.Rect, draw.Src, nil)
	return nil
}
