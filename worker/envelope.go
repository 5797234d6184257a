////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

import (
	"encoding/json"

	"github.com/pkg/errors"

	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// wireMessage is the outer message that is transmitted as JSON when a message
// leaves the WASM instance. Bitmap pixels are not part of it; they travel as
// separate buffers referenced by index.
type wireMessage struct {
	Action  Tag             `json:"action"`
	Source  string          `json:"source,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type initWorkerStatePayload struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SceneName string `json:"sceneName"`
}

type resolutionsPayload struct {
	Resolutions []Resolution `json:"resolutions"`
}

type wireBitmap struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Buffer int `json:"buffer"`
}

type bitmapsPayload struct {
	Bitmaps []wireBitmap `json:"bitmaps"`
}

type notifyPayload struct {
	Info string `json:"info"`
	Err  bool   `json:"err,omitempty"`
}

// EncodeMessage serialises the envelope into a JSON header and the pixel
// buffers of its bitmaps. The pixels of every bitmap are moved out of it, so
// the message must already have been through transfer. Returns an error for
// messages carrying an offscreen surface, which cannot leave the WASM
// instance.
func EncodeMessage(env Envelope) (header []byte, buffers [][]byte, err error) {
	if env.Message == nil {
		return nil, nil, ErrNilMessage
	}

	var payload any
	switch m := env.Message.(type) {
	case InitWorkerState:
		if m.Surface != nil {
			return nil, nil, errors.Wrap(ErrDataClone,
				"offscreen surfaces cannot be sent outside the WASM instance")
		}
		payload = initWorkerStatePayload{m.Width, m.Height, m.SceneName}
	case RequestBitmaps:
		payload = resolutionsPayload{m.Resolutions}
	case StartRenderLoop:
		payload = resolutionsPayload{m.Resolutions}
	case Bitmaps:
		p := bitmapsPayload{Bitmaps: make([]wireBitmap, len(m.Bitmaps))}
		for i, b := range m.Bitmaps {
			if b == nil {
				return nil, nil, errors.Errorf("bitmap %d is nil", i)
			}
			img, err := b.Release()
			if err != nil {
				return nil, nil, errors.Wrapf(err, "bitmap %d", i)
			}
			p.Bitmaps[i] = wireBitmap{b.Width(), b.Height(), len(buffers)}
			buffers = append(buffers, img.Pix)
		}
		payload = p
	case Notify:
		payload = notifyPayload{m.Info, m.Err}
	case StopRenderLoop, TerminateMe:
	case Unknown:
		payload = m.Payload
	default:
		return nil, nil, errors.Errorf("unsupported message type %T", m)
	}

	msg := wireMessage{Action: env.Message.Action(), Source: env.Source}
	if payload != nil {
		if msg.Payload, err = json.Marshal(payload); err != nil {
			return nil, nil, errors.Wrapf(err,
				"failed to marshal %q payload", msg.Action)
		}
	}

	header, err = json.Marshal(msg)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to marshal %T", msg)
	}
	return header, buffers, nil
}

// DecodeMessage deserializes a header and pixel buffers produced by
// EncodeMessage. The returned bitmaps take ownership of the buffers. A tag
// that is not part of the vocabulary decodes to an Unknown message.
func DecodeMessage(header []byte, buffers [][]byte) (Envelope, error) {
	var msg wireMessage
	if err := json.Unmarshal(header, &msg); err != nil {
		return Envelope{}, errors.Wrap(err, "failed to unmarshal message")
	}

	env := Envelope{Source: msg.Source}
	unmarshal := func(v any) error {
		if len(msg.Payload) == 0 {
			return nil
		}
		return errors.Wrapf(json.Unmarshal(msg.Payload, v),
			"failed to unmarshal %q payload", msg.Action)
	}

	switch msg.Action {
	case InitWorkerStateTag:
		var p initWorkerStatePayload
		if err := unmarshal(&p); err != nil {
			return Envelope{}, err
		}
		env.Message = InitWorkerState{
			Width: p.Width, Height: p.Height, SceneName: p.SceneName}
	case RequestBitmapsTag:
		var p resolutionsPayload
		if err := unmarshal(&p); err != nil {
			return Envelope{}, err
		}
		env.Message = RequestBitmaps{Resolutions: p.Resolutions}
	case StartRenderLoopTag:
		var p resolutionsPayload
		if err := unmarshal(&p); err != nil {
			return Envelope{}, err
		}
		env.Message = StartRenderLoop{Resolutions: p.Resolutions}
	case StopRenderLoopTag:
		env.Message = StopRenderLoop{}
	case BitmapsTag:
		var p bitmapsPayload
		if err := unmarshal(&p); err != nil {
			return Envelope{}, err
		}
		bitmaps := make([]*surface.Bitmap, len(p.Bitmaps))
		for i, wb := range p.Bitmaps {
			if wb.Buffer < 0 || wb.Buffer >= len(buffers) {
				return Envelope{}, errors.Errorf(
					"bitmap %d references missing buffer %d", i, wb.Buffer)
			}
			b, err := surface.NewBitmapFromPixels(
				wb.Width, wb.Height, buffers[wb.Buffer])
			if err != nil {
				return Envelope{}, errors.Wrapf(err, "bitmap %d", i)
			}
			bitmaps[i] = b
		}
		env.Message = Bitmaps{Bitmaps: bitmaps}
	case NotifyTag:
		var p notifyPayload
		if err := unmarshal(&p); err != nil {
			return Envelope{}, err
		}
		env.Message = Notify{Info: p.Info, Err: p.Err}
	case TerminateMeTag:
		env.Message = TerminateMe{}
	default:
		env.Message = Unknown{Tag: msg.Action, Payload: msg.Payload}
	}

	return env, nil
}
