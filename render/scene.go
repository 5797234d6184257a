////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package render

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// Hex returns the Color for a 0xRRGGBB value.
func Hex(v uint32) Color {
	return Color{
		R: float32(v>>16&0xff) / 255,
		G: float32(v>>8&0xff) / 255,
		B: float32(v&0xff) / 255,
	}
}

// Mul returns the component-wise product of the colors.
func (c Color) Mul(o Color) Color { return Color{c.R * o.R, c.G * o.G, c.B * o.B} }

// Add returns the component-wise sum of the colors.
func (c Color) Add(o Color) Color { return Color{c.R + o.R, c.G + o.G, c.B + o.B} }

// Scale returns the color with every component multiplied by s.
func (c Color) Scale(s float32) Color { return Color{c.R * s, c.G * s, c.B * s} }

// Node is an object in a Scene.
type Node interface {
	NodeName() string
}

// Box is a cube mesh with a Lambert material, centered on Position.
type Box struct {
	Name     string
	Position Vec3
	Side     float32
	Color    Color
}

// Grid is a square grid of lines on the y = 0 plane, centered on the origin.
type Grid struct {
	Name        string
	Size        float32
	Divisions   int
	CenterColor Color
	LineColor   Color
}

// Axes draws the X, Y and Z axes from the origin in red, green and blue.
type Axes struct {
	Name string
	Size float32
}

// DirectionalLight lights the scene from Position towards the origin.
type DirectionalLight struct {
	Name      string
	Color     Color
	Intensity float32
	Position  Vec3
}

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Name      string
	Color     Color
	Intensity float32
}

func (b *Box) NodeName() string              { return b.Name }
func (g *Grid) NodeName() string             { return g.Name }
func (a *Axes) NodeName() string             { return a.Name }
func (l *DirectionalLight) NodeName() string { return l.Name }
func (l *AmbientLight) NodeName() string     { return l.Name }

// Scene is the graph of objects to render.
type Scene struct {
	Name       string
	Background Color
	Nodes      []Node
}

// NewScene returns an empty scene with the given name and background.
func NewScene(name string, background Color) *Scene {
	return &Scene{Name: name, Background: background}
}

// Add appends the nodes to the scene.
func (s *Scene) Add(nodes ...Node) {
	s.Nodes = append(s.Nodes, nodes...)
}

// ObjectByName returns the first node with the given name or nil if there is
// none.
func (s *Scene) ObjectByName(name string) Node {
	for _, n := range s.Nodes {
		if n.NodeName() == name {
			return n
		}
	}
	return nil
}

// Default scene contents.
const (
	DefaultBackground = 0x222222
	DefaultCubeSide   = 30
	DefaultCubeColor  = 0xfbbc05
	DefaultGridSize   = 200
	DefaultGridDivs   = 16
	DefaultAxesSize   = 75
	DefaultLightColor = 0x4682b4
	DefaultAmbient    = 0.2
)

// DefaultScene builds the demo scene: a cube resting on a floor grid, the
// world axes, a steel-blue directional light and a dim white ambient light.
// The result only depends on the name.
func DefaultScene(name string) *Scene {
	s := NewScene(name, Hex(DefaultBackground))
	s.Add(
		&Box{
			Name:     "Cube",
			Position: V3(0, DefaultCubeSide/2, 0),
			Side:     DefaultCubeSide,
			Color:    Hex(DefaultCubeColor),
		},
		&Grid{
			Name:        "Floor GridHelper",
			Size:        DefaultGridSize,
			Divisions:   DefaultGridDivs,
			CenterColor: Hex(0x444444),
			LineColor:   Hex(0x888888),
		},
		&Axes{Name: "XYZ AxesHelper", Size: DefaultAxesSize},
		&DirectionalLight{
			Name:      "Directional Light",
			Color:     Hex(DefaultLightColor),
			Intensity: 1,
			Position:  V3(120, 30, -200),
		},
		&AmbientLight{
			Name:      "Ambient Light",
			Color:     Hex(0xffffff),
			Intensity: DefaultAmbient,
		},
	)
	return s
}
