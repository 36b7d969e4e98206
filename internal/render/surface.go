// Package render defines the rendering collaborator the dispatcher drives and
// a software implementation of it. Every Surface method must be called from
// the designated thread.
package render

import (
	"image/color"

	"github.com/atomicstack/staircase-viewer/internal/step"
)

// Platinum is the viewer's background colour.
var Platinum = color.RGBA{R: 0xE5, G: 0xE4, B: 0xE2, A: 0xFF}

// Program is a compiled shader pair.
type Program struct {
	ID       int
	Vertex   []byte
	Fragment []byte
}

// Valid reports whether the program was produced by CreateProgram.
func (p Program) Valid() bool {
	return p.ID > 0
}

// Indicator describes one frame of the loading animation.
type Indicator struct {
	Phase    int
	Segments int
	Radius   float64
	Color    color.RGBA
}

// DefaultIndicator returns the parameters used for the loading spinner.
func DefaultIndicator() Indicator {
	return Indicator{
		Segments: 12,
		Radius:   0.18,
		Color:    color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xFF},
	}
}

// Surface is the rendering subsystem.
type Surface interface {
	Clear(c color.RGBA)
	InitScene()
	BindDocument(doc *step.Document)
	UpdateView()
	FitAll()
	DrawIndicator(p Indicator, program Program)
	DrawError(message string)
	DrawSplash(program Program)
	CreateProgram(vertexSrc, fragmentSrc string) (Program, error)
}

// VertexShader and FragmentShader are the flat-colour program used for the
// splash and loading screens.
const (
	VertexShader = `@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}
`
	FragmentShader = `@group(0) @binding(0) var<uniform> color: vec4<f32>;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return color;
}
`
)
