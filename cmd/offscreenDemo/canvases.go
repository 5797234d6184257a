////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/controller"
	"gitlab.com/elixxir/offscreen-wasm/host"
	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// addCanvases creates the canvases the controller presents on: one per target
// and, in transfer mode, the transfer canvas.
func addCanvases(h *host.Headless, p controller.Params) error {
	for _, t := range p.Targets {
		if _, err := h.AddCanvas(t.CanvasID, t.Width, t.Height); err != nil {
			return err
		}
	}
	if p.Mode == controller.TransferMode {
		_, err := h.AddCanvas(p.TransferCanvasID, p.Width, p.Height)
		return err
	}
	return nil
}

// writeCanvases writes what each canvas displays to <dir>/<canvas ID>.png.
func writeCanvases(dir string, canvases []*surface.Canvas) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "could not create %s", dir)
	}

	for _, c := range canvases {
		path := filepath.Join(dir, c.ID()+".png")
		if err := writePNG(path, c); err != nil {
			return err
		}
		jww.DEBUG.Printf("Wrote canvas %q to %s", c.ID(), path)
	}
	return nil
}

func writePNG(path string, c *surface.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	if err = png.Encode(f, c.Image()); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "could not encode canvas %q", c.ID())
	}
	return errors.Wrapf(f.Close(), "could not close %s", path)
}
