////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package host

import (
	"image"
	"sync"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/surface"
	"gitlab.com/elixxir/wasm-utils/utils"
)

// Browser is the host of the main thread of a web page. Each canvas is an
// in-memory surface mirrored into the DOM canvas element with the same ID.
type Browser struct {
	window, document safejs.Value

	// messageListID is the ID of the DOM list that log lines are appended to.
	messageListID string

	canvases map[string]*surface.Canvas
	frames   map[uint64]safejs.Func
	mux      sync.Mutex
}

// NewBrowser returns the host for the current page. Log lines are appended to
// the list element with the given ID.
func NewBrowser(messageListID string) (*Browser, error) {
	window := safejs.Global()
	document, err := window.Get("document")
	if err != nil {
		return nil, errors.Wrap(err, "no document")
	}
	return &Browser{
		window:        window,
		document:      document,
		messageListID: messageListID,
		canvases:      make(map[string]*surface.Canvas),
		frames:        make(map[uint64]safejs.Func),
	}, nil
}

// Canvas returns the surface mirrored into the DOM canvas with the ID,
// creating it on first use.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Document/getElementById
func (b *Browser) Canvas(id string) (*surface.Canvas, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	if c, exists := b.canvases[id]; exists {
		return c, nil
	}

	el, err := b.element(id)
	if err != nil {
		return nil, err
	}
	return b.mirror(id, el)
}

// CloneCanvas replaces the DOM canvas with the ID by a deep clone of itself and
// returns a fresh surface mirrored into it.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Node/cloneNode
func (b *Browser) CloneCanvas(id string) (*surface.Canvas, error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	el, err := b.element(id)
	if err != nil {
		return nil, err
	}
	clone, err := el.Call("cloneNode", true)
	if err != nil {
		return nil, errors.Wrapf(err, "could not clone canvas %q", id)
	}
	parent, err := el.Get("parentNode")
	if err != nil {
		return nil, err
	}
	if _, err = parent.Call("replaceChild", clone, el); err != nil {
		return nil, errors.Wrapf(err, "could not replace canvas %q", id)
	}
	return b.mirror(id, clone)
}

// element returns the DOM element with the ID. This function is not thread
// safe.
func (b *Browser) element(id string) (safejs.Value, error) {
	el, err := b.document.Call("getElementById", id)
	if err != nil {
		return safejs.Value{}, err
	} else if el.IsNull() || el.IsUndefined() {
		return safejs.Value{}, errors.Wrapf(ErrCanvasNotFound, "id %q", id)
	}
	return el, nil
}

// mirror creates a surface the size of the DOM canvas that paints every
// displayed image into it. This function is not thread safe.
func (b *Browser) mirror(id string, el safejs.Value) (*surface.Canvas, error) {
	width, err := intProperty(el, "width")
	if err != nil {
		return nil, err
	}
	height, err := intProperty(el, "height")
	if err != nil {
		return nil, err
	}
	c, err := surface.NewCanvas(id, width, height)
	if err != nil {
		return nil, err
	}

	ctx, err := el.Call("getContext", "2d")
	if err != nil {
		return nil, errors.Wrapf(err, "could not get context of canvas %q", id)
	}
	c.SetDisplaySink(func(id string, img *image.RGBA) {
		if err := putImage(ctx, img); err != nil {
			jww.ERROR.Printf("[HOST] Failed to paint canvas %q: %+v", id, err)
		}
	})
	b.canvases[id] = c
	return c, nil
}

// putImage copies the image into the 2D context.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/CanvasRenderingContext2D/putImageData
func putImage(ctx safejs.Value, img *image.RGBA) error {
	pix, err := safejs.ValueOf(utils.CopyBytesToJS(img.Pix))
	if err != nil {
		return err
	}
	buffer, err := pix.Get("buffer")
	if err != nil {
		return err
	}
	clamped, err := newGlobal("Uint8ClampedArray", buffer)
	if err != nil {
		return err
	}
	data, err := newGlobal("ImageData", clamped, img.Rect.Dx(), img.Rect.Dy())
	if err != nil {
		return err
	}
	_, err = ctx.Call("putImageData", data, 0, 0)
	return err
}

// RequestFrame calls cb before the next repaint.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/window/requestAnimationFrame
func (b *Browser) RequestFrame(cb func()) uint64 {
	b.mux.Lock()
	defer b.mux.Unlock()

	var id uint64
	fn, err := safejs.FuncOf(func(safejs.Value, []safejs.Value) any {
		b.mux.Lock()
		f, exists := b.frames[id]
		delete(b.frames, id)
		b.mux.Unlock()
		if exists {
			f.Release()
			cb()
		}
		return nil
	})
	if err != nil {
		jww.ERROR.Printf("[HOST] Failed to create frame callback: %+v", err)
		return 0
	}

	v, err := b.window.Call("requestAnimationFrame", fn)
	if err != nil {
		fn.Release()
		jww.ERROR.Printf("[HOST] requestAnimationFrame failed: %+v", err)
		return 0
	}
	n, err := v.Int()
	if err != nil {
		fn.Release()
		jww.ERROR.Printf("[HOST] Invalid animation frame ID: %+v", err)
		return 0
	}
	id = uint64(n)
	b.frames[id] = fn
	return id
}

// CancelFrame cancels the frame callback with the ID.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Window/cancelAnimationFrame
func (b *Browser) CancelFrame(id uint64) {
	b.mux.Lock()
	defer b.mux.Unlock()
	fn, exists := b.frames[id]
	if !exists {
		return
	}
	delete(b.frames, id)
	if _, err := b.window.Call("cancelAnimationFrame", int(id)); err != nil {
		jww.ERROR.Printf("[HOST] cancelAnimationFrame failed: %+v", err)
	}
	fn.Release()
}

// Alert shows the message in a browser alert dialog.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Window/alert
func (b *Browser) Alert(msg string) {
	jww.WARN.Printf("[HOST] Alert: %s", msg)
	if _, err := b.window.Call("alert", msg); err != nil {
		jww.ERROR.Printf("[HOST] alert failed: %+v", err)
	}
}

// Log appends the line to the page's message list.
func (b *Browser) Log(line string) {
	jww.INFO.Printf("[HOST] %s", line)
	list, err := b.element(b.messageListID)
	if err != nil {
		return
	}
	item, err := b.document.Call("createElement", "li")
	if err != nil {
		return
	}
	if err = item.Set("textContent", line); err != nil {
		return
	}
	_, _ = list.Call("appendChild", item)
}

// SupportsOffscreen returns true if the browser has OffscreenCanvas and canvas
// elements can transfer their control to it.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/OffscreenCanvas
func (b *Browser) SupportsOffscreen() bool {
	offscreen, err := b.window.Get("OffscreenCanvas")
	if err != nil || offscreen.IsUndefined() {
		return false
	}
	element, err := b.window.Get("HTMLCanvasElement")
	if err != nil || element.IsUndefined() {
		return false
	}
	proto, err := element.Get("prototype")
	if err != nil {
		return false
	}
	transfer, err := proto.Get("transferControlToOffscreen")
	return err == nil && transfer.Type() == safejs.TypeFunction
}

// newGlobal constructs a new instance of the global Javascript class.
func newGlobal(class string, args ...any) (safejs.Value, error) {
	constructor, err := safejs.Global().Get(class)
	if err != nil {
		return safejs.Value{}, err
	}
	return constructor.New(args...)
}

// intProperty returns the integer property of the value.
func intProperty(v safejs.Value, name string) (int, error) {
	p, err := v.Get(name)
	if err != nil {
		return 0, err
	}
	n, err := p.Int()
	return n, errors.Wrapf(err, "invalid %s", name)
}
