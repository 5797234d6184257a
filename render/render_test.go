////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package render

import (
	"image/color"
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/offscreen-wasm/surface"
)

// Tests that DefaultScene contains the expected named nodes and is the same
// for every call.
func TestDefaultScene(t *testing.T) {
	s := DefaultScene("t")
	require.Equal(t, "t", s.Name)

	cube, ok := s.ObjectByName("Cube").(*Box)
	if !ok {
		t.Fatalf("Scene has no cube: %+v", s.Nodes)
	}
	if cube.Position != V3(0, 15, 0) || cube.Side != 30 {
		t.Errorf("Unexpected cube.\nexpected: side %d at %v\nreceived: %+v",
			30, V3(0, 15, 0), cube)
	}

	light, ok := s.ObjectByName("Directional Light").(*DirectionalLight)
	require.True(t, ok)
	require.Equal(t, V3(120, 30, -200), light.Position)
	require.Equal(t, Hex(0x4682b4), light.Color)

	require.Nil(t, s.ObjectByName("missing"))
	require.Equal(t, s, DefaultScene("t"))
}

// Tests that the default camera projects the origin to the center of the
// viewport and that rolling it keeps the origin centered.
func TestPerspectiveCamera_Project(t *testing.T) {
	c, err := createCamera(100, 50, nil)
	require.NoError(t, err)

	x, y, depth, ok := c.Project(V3(0, 0, 0), 100, 50)
	require.True(t, ok)
	if math32.Abs(x-50) > 1e-3 || math32.Abs(y-25) > 1e-3 {
		t.Errorf("Origin not centered.\nexpected: (50, 25)\nreceived: (%f, %f)",
			x, y)
	}
	if expected := DefaultCameraPosition.Length(); math32.Abs(depth-expected) > 1e-3 {
		t.Errorf("Unexpected depth.\nexpected: %f\nreceived: %f", expected, depth)
	}

	// A point above the origin is drawn above the center
	_, yUp, _, ok := c.Project(V3(0, 10, 0), 100, 50)
	require.True(t, ok)
	require.Less(t, yUp, y)

	// Half a turn puts it below
	c.RotateZ(math32.Pi)
	x, y, _, _ = c.Project(V3(0, 0, 0), 100, 50)
	if math32.Abs(x-50) > 1e-3 || math32.Abs(y-25) > 1e-3 {
		t.Errorf("Origin moved after roll: (%f, %f)", x, y)
	}
	_, yUp, _, _ = c.Project(V3(0, 10, 0), 100, 50)
	require.Greater(t, yUp, y)

	// Points behind the camera are not projected
	_, _, _, ok = c.Project(V3(200, 200, 200), 100, 50)
	require.False(t, ok)
}

// Tests that RotateZ keeps the camera basis orthonormal.
func TestPerspectiveCamera_RotateZ(t *testing.T) {
	c, err := createCamera(4, 3, nil)
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		c.RotateZ(0.2)
	}
	if d := c.Up().Dot(c.Forward()); math32.Abs(d) > 1e-4 {
		t.Errorf("Up is not perpendicular to forward: %f", d)
	}
	if l := c.Up().Length(); math32.Abs(l-1) > 1e-4 {
		t.Errorf("Up is not a unit vector: %f", l)
	}
}

// closeTo returns true if each channel differs by at most one.
func closeTo(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return x-y <= 1 || y-x <= 1 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && a.A == b.A
}

// Tests that the software renderer clears to the background and draws the
// cube in the middle of the target.
func TestSoftware_Render(t *testing.T) {
	target, err := surface.NewOffscreen(100, 100)
	require.NoError(t, err)

	b := NewSoftware()
	scene, err := b.CreateScene("t")
	require.NoError(t, err)
	camera, err := b.CreateCamera(100, 100, scene)
	require.NoError(t, err)
	r, err := b.CreateRenderer(target)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Render(scene, camera))

	buf, err := target.Buffer()
	require.NoError(t, err)
	bg := color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	if got := buf.RGBAAt(0, 0); !closeTo(got, bg) {
		t.Errorf("Unexpected background.\nexpected: %v\nreceived: %v", bg, got)
	}

	drawn := 0
	for y := 45; y < 55; y++ {
		for x := 45; x < 55; x++ {
			if !closeTo(buf.RGBAAt(x, y), bg) {
				drawn++
			}
		}
	}
	if drawn == 0 {
		t.Error("Nothing drawn in the center of the target.")
	}
}

// Tests that rendering fails once the target has been transferred.
func TestSoftware_Render_DetachedTarget(t *testing.T) {
	target, err := surface.NewOffscreen(10, 10)
	require.NoError(t, err)
	r, err := NewSoftware().CreateRenderer(target)
	require.NoError(t, err)
	_, _ = target.Detach()

	err = r.Render(DefaultScene("t"), NewPerspectiveCamera(75, 1, 0.1, 100))
	if !errors.Is(err, surface.ErrDetached) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			surface.ErrDetached, err)
	}
	require.Error(t, r.Render(nil, nil))
}

// Tests that the unsupported backend fails to create a renderer.
func TestNewUnsupported(t *testing.T) {
	target, err := surface.NewOffscreen(10, 10)
	require.NoError(t, err)
	_, err = NewUnsupported().CreateRenderer(target)
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %v",
			ErrUnsupportedBackend, err)
	}
}
