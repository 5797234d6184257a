////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package render builds and draws the demo scene. A Backend creates the
// scene, the camera and a Renderer bound to a drawing target.
package render

import (
	"image"

	"github.com/pkg/errors"
)

// ErrUnsupportedBackend is returned when a renderer cannot acquire a rendering
// context for its target.
var ErrUnsupportedBackend = errors.New("no compatible rendering backend")

// Target is the surface a Renderer draws on.
type Target interface {
	Size() (width, height int)
	Buffer() (*image.RGBA, error)
}

// Renderer draws a scene as seen by a camera onto its target.
type Renderer interface {
	Render(scene *Scene, camera *PerspectiveCamera) error
	Close()
}

// Backend creates the objects needed to render.
type Backend interface {
	CreateScene(name string) (*Scene, error)
	CreateCamera(width, height int, scene *Scene) (*PerspectiveCamera, error)
	CreateRenderer(target Target) (Renderer, error)
}

// createScene builds the default scene.
func createScene(name string) (*Scene, error) {
	return DefaultScene(name), nil
}

// createCamera builds the default camera for a viewport of the given size,
// looking at the origin of the scene.
func createCamera(width, height int, _ *Scene) (*PerspectiveCamera, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid viewport %dx%d", width, height)
	}
	c := NewPerspectiveCamera(DefaultFov,
		float32(width)/float32(height), DefaultNear, DefaultFar)
	c.Name = "my-camera"
	c.Position = DefaultCameraPosition
	c.LookAt(V3(0, 0, 0))
	return c, nil
}

// unsupported is a Backend that cannot create renderers.
type unsupported struct{}

// NewUnsupported returns a Backend whose CreateRenderer always fails with
// ErrUnsupportedBackend. It stands in for an environment with no rendering
// context.
func NewUnsupported() Backend { return unsupported{} }

func (unsupported) CreateScene(name string) (*Scene, error) { return createScene(name) }

func (unsupported) CreateCamera(
	width, height int, scene *Scene) (*PerspectiveCamera, error) {
	return createCamera(width, height, scene)
}

func (unsupported) CreateRenderer(Target) (Renderer, error) {
	return nil, ErrUnsupportedBackend
}
