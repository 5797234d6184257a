////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Message is a message exchanged between the main thread and a worker. There
// is one implementation per Tag; the set is closed to this package. Messages
// are immutable once sent.
type Message interface {
	// Action returns the tag of the message.
	Action() Tag

	// transferables returns every transferable value reachable from the
	// payload, in payload order.
	transferables() []surface.Transferable

	// rebind returns a copy of the message with each transferable replaced by
	// the value returned by fn.
	rebind(fn func(surface.Transferable) surface.Transferable) Message
}

// Envelope is a received message along with the name of its sender.
type Envelope struct {
	Source  string
	Message Message
}

// Resolution is the size of a bitmap requested from the worker.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// InitWorkerState establishes a render session on the worker. Surface is the
// offscreen surface the main thread transferred control of; when it is nil,
// the worker creates its own surface of Width×Height.
type InitWorkerState struct {
	Surface   *surface.Offscreen
	Width     int
	Height    int
	SceneName string
}

// RequestBitmaps asks the worker to render one frame and return one bitmap per
// resolution.
type RequestBitmaps struct {
	Resolutions []Resolution
}

// StartRenderLoop starts the worker's own render loop. Each tick renders the
// given resolutions.
type StartRenderLoop struct {
	Resolutions []Resolution
}

// StopRenderLoop stops the worker's own render loop.
type StopRenderLoop struct{}

// Bitmaps delivers the bitmaps of one rendered frame. Ownership of every
// bitmap moves to the receiver.
type Bitmaps struct {
	Bitmaps []*surface.Bitmap
}

// Notify is a human-readable progress or error line from the worker.
type Notify struct {
	Info string
	Err  bool
}

// TerminateMe is sent by a worker asking to be destroyed.
type TerminateMe struct{}

// Unknown is a message whose tag is not part of the vocabulary. It is only
// produced when decoding; receivers log and ignore it.
type Unknown struct {
	Tag     Tag
	Payload any
}

func (InitWorkerState) Action() Tag { return InitWorkerStateTag }
func (RequestBitmaps) Action() Tag  { return RequestBitmapsTag }
func (StartRenderLoop) Action() Tag { return StartRenderLoopTag }
func (StopRenderLoop) Action() Tag  { return StopRenderLoopTag }
func (Bitmaps) Action() Tag         { return BitmapsTag }
func (Notify) Action() Tag          { return NotifyTag }
func (TerminateMe) Action() Tag     { return TerminateMeTag }
func (m Unknown) Action() Tag       { return m.Tag }

func (m InitWorkerState) transferables() []surface.Transferable {
	if m.Surface == nil {
		return nil
	}
	return []surface.Transferable{m.Surface}
}

func (m InitWorkerState) rebind(
	fn func(surface.Transferable) surface.Transferable) Message {
	if m.Surface != nil {
		m.Surface = fn(m.Surface).(*surface.Offscreen)
	}
	return m
}

func (m Bitmaps) transferables() []surface.Transferable {
	list := make([]surface.Transferable, 0, len(m.Bitmaps))
	for _, b := range m.Bitmaps {
		if b != nil {
			list = append(list, b)
		}
	}
	return list
}

func (m Bitmaps) rebind(
	fn func(surface.Transferable) surface.Transferable) Message {
	bitmaps := make([]*surface.Bitmap, len(m.Bitmaps))
	for i, b := range m.Bitmaps {
		if b != nil {
			bitmaps[i] = fn(b).(*surface.Bitmap)
		}
	}
	return Bitmaps{Bitmaps: bitmaps}
}

func (m RequestBitmaps) transferables() []surface.Transferable  { return nil }
func (m StartRenderLoop) transferables() []surface.Transferable { return nil }
func (m StopRenderLoop) transferables() []surface.Transferable  { return nil }
func (m Notify) transferables() []surface.Transferable          { return nil }
func (m TerminateMe) transferables() []surface.Transferable     { return nil }
func (m Unknown) transferables() []surface.Transferable         { return nil }

func (m RequestBitmaps) rebind(func(surface.Transferable) surface.Transferable) Message {
	m.Resolutions = append([]Resolution(nil), m.Resolutions...)
	return m
}

func (m StartRenderLoop) rebind(func(surface.Transferable) surface.Transferable) Message {
	m.Resolutions = append([]Resolution(nil), m.Resolutions...)
	return m
}

func (m StopRenderLoop) rebind(func(surface.Transferable) surface.Transferable) Message { return m }
func (m Notify) rebind(func(surface.Transferable) surface.Transferable) Message         { return m }
func (m TerminateMe) rebind(func(surface.Transferable) surface.Transferable) Message    { return m }
func (m Unknown) rebind(func(surface.Transferable) surface.Transferable) Message        { return m }

// closeMessage releases every bitmap owned by a message that will never be
// delivered.
func closeMessage(msg Message) {
	if msg == nil {
		return
	}
	for _, t := range msg.transferables() {
		if b, ok := t.(*surface.Bitmap); ok {
			b.Close()
		}
	}
}
