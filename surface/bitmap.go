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

// Bitmap is an opaque, move-only pixel buffer produced by rendering. It is the
// equivalent of a Javascript ImageBitmap.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/ImageBitmap
type Bitmap struct {
	width, height int

	// img is nil once the bitmap is detached or closed.
	img *image.RGBA

	mux sync.Mutex
}

// NewBitmap wraps the image in a new Bitmap. The Bitmap takes ownership of the
// image; the caller must not use it afterwards.
func NewBitmap(img *image.RGBA) *Bitmap {
	size := img.Bounds().Size()
	return &Bitmap{width: size.X, height: size.Y, img: img}
}

// NewBitmapFromPixels creates a Bitmap from RGBA pixel data of the given size.
// The Bitmap takes ownership of pix.
func NewBitmapFromPixels(width, height int, pix []byte) (*Bitmap, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if len(pix) != 4*width*height {
		return nil, errors.Errorf("expected %d bytes of pixel data for "+
			"%dx%d bitmap, received %d", 4*width*height, width, height, len(pix))
	}

	img := &image.RGBA{
		Pix:    pix,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
	return NewBitmap(img), nil
}

// Width returns the width of the bitmap in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the height of the bitmap in pixels.
func (b *Bitmap) Height() int { return b.height }

// Image returns the pixels of the bitmap. Returns ErrDetached if the bitmap was
// transferred or closed. The image remains owned by the bitmap.
func (b *Bitmap) Image() (*image.RGBA, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	if b.img == nil {
		return nil, ErrDetached
	}
	return b.img, nil
}

// Detached returns true if the bitmap was transferred or closed.
func (b *Bitmap) Detached() bool {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.img == nil
}

// Detach moves the pixels into a new Bitmap and invalidates this one.
func (b *Bitmap) Detach() (Transferable, error) {
	img, err := b.Release()
	if err != nil {
		return nil, err
	}
	return &Bitmap{width: b.width, height: b.height, img: img}, nil
}

// StructuredClone returns a copy of the bitmap. The receiver remains valid.
func (b *Bitmap) StructuredClone() (Transferable, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	if b.img == nil {
		return nil, ErrDetached
	}

	img := image.NewRGBA(b.img.Rect)
	copy(img.Pix, b.img.Pix)
	return &Bitmap{width: b.width, height: b.height, img: img}, nil
}

// Release moves the pixels out of the bitmap, leaving it detached. The caller
// becomes the owner of the returned image.
func (b *Bitmap) Release() (*image.RGBA, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	if b.img == nil {
		return nil, ErrDetached
	}
	img := b.img
	b.img = nil
	return img, nil
}

// Close releases the pixel buffer. Closing a detached bitmap does nothing.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/ImageBitmap/close
func (b *Bitmap) Close() {
	b.mux.Lock()
	b.img = nil
	b.mux.Unlock()
}
