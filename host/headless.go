////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package host

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/frame"
	"gitlab.com/elixxir/offscreen-wasm/logging"
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Headless is a host without a display. Canvases live in memory, frames come
// from the injected requester, alerts are recorded and log lines go to a
// MessageLog.
type Headless struct {
	frame.Requester

	canvases  map[string]*surface.Canvas
	alerts    []string
	log       *logging.MessageLog
	offscreen bool
	sink      surface.DisplaySink
	mux       sync.Mutex
}

// NewHeadless returns a Headless host that schedules frames on the requester
// and appends log lines to the message log. Offscreen transfer is supported
// by default.
func NewHeadless(
	requester frame.Requester, log *logging.MessageLog) *Headless {
	return &Headless{
		Requester: requester,
		canvases:  make(map[string]*surface.Canvas),
		log:       log,
		offscreen: true,
	}
}

// AddCanvas creates a canvas with the ID and size, replacing any canvas with
// the same ID.
func (h *Headless) AddCanvas(id string, width, height int) (*surface.Canvas, error) {
	c, err := surface.NewCanvas(id, width, height)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create canvas %q", id)
	}

	h.mux.Lock()
	defer h.mux.Unlock()
	if h.sink != nil {
		c.SetDisplaySink(h.sink)
	}
	h.canvases[id] = c
	return c, nil
}

// Canvas returns the canvas with the ID.
func (h *Headless) Canvas(id string) (*surface.Canvas, error) {
	h.mux.Lock()
	defer h.mux.Unlock()
	c, exists := h.canvases[id]
	if !exists {
		return nil, errors.Wrapf(ErrCanvasNotFound, "id %q", id)
	}
	return c, nil
}

// CloneCanvas replaces the canvas with the ID by a fresh clone and returns the
// clone.
func (h *Headless) CloneCanvas(id string) (*surface.Canvas, error) {
	h.mux.Lock()
	defer h.mux.Unlock()
	c, exists := h.canvases[id]
	if !exists {
		return nil, errors.Wrapf(ErrCanvasNotFound, "id %q", id)
	}
	clone := c.Clone()
	h.canvases[id] = clone
	jww.DEBUG.Printf("[HOST] Replaced canvas %q with a clone.", id)
	return clone, nil
}

// Canvases returns every canvas, sorted by ID.
func (h *Headless) Canvases() []*surface.Canvas {
	h.mux.Lock()
	defer h.mux.Unlock()
	list := make([]*surface.Canvas, 0, len(h.canvases))
	for _, c := range h.canvases {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// SetDisplaySink sets the sink of every current and future canvas.
func (h *Headless) SetDisplaySink(sink surface.DisplaySink) {
	h.mux.Lock()
	defer h.mux.Unlock()
	h.sink = sink
	for _, c := range h.canvases {
		c.SetDisplaySink(sink)
	}
}

// Alert records the message.
func (h *Headless) Alert(msg string) {
	jww.WARN.Printf("[HOST] Alert: %s", msg)
	h.mux.Lock()
	h.alerts = append(h.alerts, msg)
	h.mux.Unlock()
}

// Alerts returns every recorded alert.
func (h *Headless) Alerts() []string {
	h.mux.Lock()
	defer h.mux.Unlock()
	return append([]string(nil), h.alerts...)
}

// Log appends the line to the message log.
func (h *Headless) Log(line string) {
	jww.INFO.Printf("[HOST] %s", line)
	if h.log != nil {
		h.log.Append(line)
	}
}

// MessageLog returns the message log, which may be nil.
func (h *Headless) MessageLog() *logging.MessageLog { return h.log }

// SupportsOffscreen returns true if canvases can be transferred to workers.
func (h *Headless) SupportsOffscreen() bool {
	h.mux.Lock()
	defer h.mux.Unlock()
	return h.offscreen
}

// SetSupportsOffscreen sets whether canvases can be transferred to workers.
func (h *Headless) SetSupportsOffscreen(supported bool) {
	h.mux.Lock()
	h.offscreen = supported
	h.mux.Unlock()
}
