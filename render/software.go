////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package render

import (
	"image"
	"sort"

	"github.com/gogpu/gg"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/image/draw"
)

// Software is a Backend that rasterizes on the CPU with gg.
type Software struct{}

// NewSoftware returns a new software Backend.
func NewSoftware() *Software { return &Software{} }

// CreateScene returns the default scene with the given name.
func (*Software) CreateScene(name string) (*Scene, error) { return createScene(name) }

// CreateCamera returns the default camera for a viewport of the given size.
func (*Software) CreateCamera(
	width, height int, scene *Scene) (*PerspectiveCamera, error) {
	return createCamera(width, height, scene)
}

// CreateRenderer returns a renderer that draws on the target.
func (*Software) CreateRenderer(target Target) (Renderer, error) {
	if target == nil {
		return nil, errors.Wrap(ErrUnsupportedBackend, "nil target")
	}
	w, h := target.Size()
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrUnsupportedBackend,
			"cannot create context of size %dx%d", w, h)
	}
	return &softwareRenderer{
		target: target,
		dc:     gg.NewContext(w, h),
		width:  w,
		height: h,
	}, nil
}

type softwareRenderer struct {
	target        Target
	dc            *gg.Context
	width, height int
	closed        bool
}

// face is a projected polygon of a mesh waiting to be painted.
type face struct {
	points [][2]float32
	depth  float32
	color  Color
}

// Render clears the context to the scene background, draws every node and
// copies the result onto the target.
func (r *softwareRenderer) Render(scene *Scene, camera *PerspectiveCamera) error {
	if r.closed {
		return errors.New("renderer is closed")
	} else if scene == nil {
		return errors.New("cannot render without a scene")
	} else if camera == nil {
		return errors.New("cannot render without a camera")
	}

	r.dc.ClearWithColor(toGG(scene.Background))
	ambient, lights := collectLights(scene)

	var faces []face
	for _, n := range scene.Nodes {
		switch node := n.(type) {
		case *Grid:
			r.drawGrid(node, camera)
		case *Box:
			faces = append(faces, r.projectBox(node, camera, ambient, lights)...)
		}
	}

	// Painter's algorithm: farthest faces first
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].depth > faces[j].depth
	})
	for _, f := range faces {
		r.fillFace(f)
	}

	for _, n := range scene.Nodes {
		if axes, ok := n.(*Axes); ok {
			r.drawAxes(axes, camera)
		}
	}

	return r.flush()
}

// Close releases the drawing context.
func (r *softwareRenderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if err := r.dc.Close(); err != nil {
		jww.WARN.Printf("[RENDER] Failed to close drawing context: %+v", err)
	}
}

// flush copies the context's pixels onto the target's current buffer.
func (r *softwareRenderer) flush() error {
	buf, err := r.target.Buffer()
	if err != nil {
		return errors.Wrap(err, "could not get render target buffer")
	}
	draw.Draw(buf, buf.Rect, r.dc.Image(), image.Point{}, draw.Src)
	return nil
}

func (r *softwareRenderer) line(camera *PerspectiveCamera, a, b Vec3, c Color) {
	x1, y1, x2, y2, ok := camera.projectSegment(a, b, r.width, r.height)
	if !ok {
		return
	}
	r.dc.SetColor(toGG(c).Color())
	r.dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
	if err := r.dc.Stroke(); err != nil {
		jww.TRACE.Printf("[RENDER] Failed to stroke line: %+v", err)
	}
}

func (r *softwareRenderer) drawGrid(g *Grid, camera *PerspectiveCamera) {
	if g.Divisions <= 0 {
		return
	}
	half := g.Size / 2
	step := g.Size / float32(g.Divisions)
	r.dc.SetLineWidth(1)
	for i := 0; i <= g.Divisions; i++ {
		k := -half + float32(i)*step
		c := g.LineColor
		if i == g.Divisions/2 {
			c = g.CenterColor
		}
		r.line(camera, V3(-half, 0, k), V3(half, 0, k), c)
		r.line(camera, V3(k, 0, -half), V3(k, 0, half), c)
	}
}

func (r *softwareRenderer) drawAxes(a *Axes, camera *PerspectiveCamera) {
	r.dc.SetLineWidth(2)
	origin := V3(0, 0, 0)
	r.line(camera, origin, V3(a.Size, 0, 0), Color{1, 0, 0})
	r.line(camera, origin, V3(0, a.Size, 0), Color{0, 1, 0})
	r.line(camera, origin, V3(0, 0, a.Size), Color{0, 0, 1})
}

// boxFaces lists the corner indexes of each face of a cube, counterclockwise
// when seen from outside, with the face's outward normal.
var boxFaces = []struct {
	corners [4]int
	normal  Vec3
}{
	{[4]int{1, 5, 7, 3}, V3(1, 0, 0)},
	{[4]int{4, 0, 2, 6}, V3(-1, 0, 0)},
	{[4]int{2, 3, 7, 6}, V3(0, 1, 0)},
	{[4]int{4, 5, 1, 0}, V3(0, -1, 0)},
	{[4]int{5, 4, 6, 7}, V3(0, 0, 1)},
	{[4]int{0, 1, 3, 2}, V3(0, 0, -1)},
}

// projectBox returns the visible faces of the box, shaded with Lambert
// lighting.
func (r *softwareRenderer) projectBox(b *Box, camera *PerspectiveCamera,
	ambient Color, lights []*DirectionalLight) []face {
	h := b.Side / 2
	var corners [8]Vec3
	for i := range corners {
		d := V3(-h, -h, -h)
		if i&1 != 0 {
			d.X = h
		}
		if i&2 != 0 {
			d.Y = h
		}
		if i&4 != 0 {
			d.Z = h
		}
		corners[i] = b.Position.Add(d)
	}

	var faces []face
	for _, bf := range boxFaces {
		center := b.Position.Add(bf.normal.MulScalar(h))
		if bf.normal.Dot(camera.Position.Sub(center)) <= 0 {
			continue
		}

		f := face{color: shade(b.Color, bf.normal, ambient, lights)}
		visible := true
		for _, ci := range bf.corners {
			x, y, depth, ok := camera.Project(corners[ci], r.width, r.height)
			if !ok {
				visible = false
				break
			}
			f.points = append(f.points, [2]float32{x, y})
			f.depth += depth / 4
		}
		if visible {
			faces = append(faces, f)
		}
	}
	return faces
}

func (r *softwareRenderer) fillFace(f face) {
	r.dc.SetColor(toGG(f.color).Color())
	for i, p := range f.points {
		if i == 0 {
			r.dc.MoveTo(float64(p[0]), float64(p[1]))
		} else {
			r.dc.LineTo(float64(p[0]), float64(p[1]))
		}
	}
	r.dc.ClosePath()
	if err := r.dc.Fill(); err != nil {
		jww.TRACE.Printf("[RENDER] Failed to fill face: %+v", err)
	}
}

// collectLights returns the total ambient light and the directional lights of
// the scene.
func collectLights(scene *Scene) (Color, []*DirectionalLight) {
	var ambient Color
	var lights []*DirectionalLight
	for _, n := range scene.Nodes {
		switch l := n.(type) {
		case *AmbientLight:
			ambient = ambient.Add(l.Color.Scale(l.Intensity))
		case *DirectionalLight:
			lights = append(lights, l)
		}
	}
	return ambient, lights
}

// shade returns the Lambert reflected color of a surface with the given
// normal. Directional lights shine from their position towards the origin.
func shade(base Color, normal Vec3, ambient Color,
	lights []*DirectionalLight) Color {
	light := ambient
	for _, l := range lights {
		if d := normal.Dot(l.Position.Normal()); d > 0 {
			light = light.Add(l.Color.Scale(l.Intensity * d))
		}
	}
	return base.Mul(light)
}

// toGG converts the color to an opaque gg color, clamping each component.
func toGG(c Color) gg.RGBA {
	clamp := func(v float32) float64 {
		if v < 0 {
			return 0
		} else if v > 1 {
			return 1
		}
		return float64(v)
	}
	return gg.RGB(clamp(c.R), clamp(c.G), clamp(c.B))
}
