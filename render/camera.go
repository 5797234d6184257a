////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package render

import (
	"github.com/chewxy/math32"
)

// Default camera parameters.
const (
	DefaultFov  = 75
	DefaultNear = 0.1
	DefaultFar  = 10000
)

// DefaultCameraPosition is where the default camera is placed. It looks at
// the origin.
var DefaultCameraPosition = V3(100, 100, 100)

// worldUp is the up direction used when aiming the camera.
var worldUp = V3(0, 1, 0)

// PerspectiveCamera is a pinhole camera. Fov is the vertical field of view in
// degrees.
type PerspectiveCamera struct {
	Name     string
	Fov      float32
	Aspect   float32
	Near     float32
	Far      float32
	Position Vec3

	// Orthonormal camera basis in world space. The camera looks along
	// forward.
	forward, up, right Vec3
}

// NewPerspectiveCamera returns a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	return &PerspectiveCamera{
		Fov:     fov,
		Aspect:  aspect,
		Near:    near,
		Far:     far,
		forward: V3(0, 0, -1),
		up:      V3(0, 1, 0),
		right:   V3(1, 0, 0),
	}
}

// LookAt turns the camera to face the target, keeping it upright.
func (c *PerspectiveCamera) LookAt(target Vec3) {
	f := target.Sub(c.Position).Normal()
	r := f.Cross(worldUp)
	if r.Length() < 1e-6 {
		// Looking straight up or down
		r = V3(1, 0, 0)
	}
	r = r.Normal()
	c.forward, c.right, c.up = f, r, r.Cross(f)
}

// RotateZ rolls the camera by angle radians around its viewing axis.
func (c *PerspectiveCamera) RotateZ(angle float32) {
	s, co := math32.Sincos(angle)
	r := c.right.MulScalar(co).Add(c.up.MulScalar(s))
	u := c.up.MulScalar(co).Sub(c.right.MulScalar(s))
	c.right, c.up = r.Normal(), u.Normal()
}

// Up returns the camera's up direction in world space.
func (c *PerspectiveCamera) Up() Vec3 { return c.up }

// Forward returns the camera's viewing direction in world space.
func (c *PerspectiveCamera) Forward() Vec3 { return c.forward }

// toView returns the point in camera space: x right, y up and z the distance
// in front of the camera.
func (c *PerspectiveCamera) toView(p Vec3) Vec3 {
	d := p.Sub(c.Position)
	return Vec3{d.Dot(c.right), d.Dot(c.up), d.Dot(c.forward)}
}

// viewToScreen projects a camera space point in front of the near plane onto
// a width×height viewport.
func (c *PerspectiveCamera) viewToScreen(v Vec3, width, height int) (x, y float32) {
	t := math32.Tan(c.Fov * math32.Pi / 360)
	nx := v.X / (v.Z * t * c.Aspect)
	ny := v.Y / (v.Z * t)
	return (nx + 1) / 2 * float32(width), (1 - ny) / 2 * float32(height)
}

// Project returns the viewport coordinates of the world point and its
// distance along the viewing axis. Returns false if the point is outside the
// near and far planes.
func (c *PerspectiveCamera) Project(
	p Vec3, width, height int) (x, y, depth float32, ok bool) {
	v := c.toView(p)
	if v.Z < c.Near || v.Z > c.Far {
		return 0, 0, v.Z, false
	}
	x, y = c.viewToScreen(v, width, height)
	return x, y, v.Z, true
}

// projectSegment projects the segment from a to b, clipped to the near plane.
// Returns false if it is entirely behind the camera.
func (c *PerspectiveCamera) projectSegment(
	a, b Vec3, width, height int) (x1, y1, x2, y2 float32, ok bool) {
	va, vb := c.toView(a), c.toView(b)
	if va.Z < c.Near && vb.Z < c.Near {
		return 0, 0, 0, 0, false
	}
	if va.Z < c.Near {
		va = va.Lerp(vb, (c.Near-va.Z)/(vb.Z-va.Z))
	} else if vb.Z < c.Near {
		vb = vb.Lerp(va, (c.Near-vb.Z)/(va.Z-vb.Z))
	}
	x1, y1 = c.viewToScreen(va, width, height)
	x2, y2 = c.viewToScreen(vb, width, height)
	return x1, y1, x2, y2, true
}
