package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/atomicstack/staircase-viewer/internal/step"
	"github.com/gogpu/gg"
	"github.com/gogpu/naga"
)

var (
	cos30 = math.Cos(math.Pi / 6)
	sin30 = math.Sin(math.Pi / 6)

	edgeColour  = gg.Hex("#4A4A4A")
	pointColour = gg.Hex("#1F5F8B")
	gridColour  = gg.Hex("#CFCDCA")
	errorColour = gg.Hex("#C0392B")
)

// Raster is a Surface drawing into an offscreen gg context.
type Raster struct {
	dc       *gg.Context
	doc      *step.Document
	center   step.Point
	scale    float64
	programs int
	active   int
	ready    bool
	frames   uint64
}

// NewRaster allocates a width×height surface.
func NewRaster(width, height int) *Raster {
	return &Raster{dc: gg.NewContext(width, height), scale: 1}
}

// Image exposes the current frame.
func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

// Frames reports how many draw operations have completed.
func (r *Raster) Frames() uint64 {
	return r.frames
}

// SavePNG writes the current frame to path.
func (r *Raster) SavePNG(path string) error {
	return r.dc.SavePNG(path)
}

// Close releases the drawing context.
func (r *Raster) Close() error {
	return r.dc.Close()
}

func (r *Raster) Clear(c color.RGBA) {
	r.dc.ClearWithColor(gg.FromColor(c))
	r.frames++
}

func (r *Raster) InitScene() {
	r.ready = true
	r.center = step.Point{}
	r.scale = 1
	r.drawScene()
}

// BindDocument makes doc the scene and draws it framed, whatever was on the
// surface before.
func (r *Raster) BindDocument(doc *step.Document) {
	r.doc = doc
	r.ready = true
	r.FitAll()
}

func (r *Raster) UpdateView() {
	if r.ready {
		r.drawScene()
	}
}

// FitAll centres the bound document and scales it to fill the surface.
func (r *Raster) FitAll() {
	if r.doc == nil || !r.doc.Bounds.Valid {
		r.center = step.Point{}
		r.scale = 1
		r.UpdateView()
		return
	}
	r.center = r.doc.Bounds.Center()
	extent := r.doc.Bounds.Extent()
	if extent <= 0 {
		r.scale = 1
	} else {
		// isometric projection widens a unit cube by up to 2·cos30
		r.scale = 0.8 * float64(min(r.dc.Width(), r.dc.Height())) / (extent * 2 * cos30)
	}
	r.UpdateView()
}

func (r *Raster) DrawIndicator(p Indicator, program Program) {
	r.active = program.ID
	if p.Segments <= 0 {
		p.Segments = DefaultIndicator().Segments
	}
	w, h := float64(r.dc.Width()), float64(r.dc.Height())
	cx, cy := w/2, h/2
	radius := p.Radius * math.Min(w, h)
	r.dc.SetLineWidth(math.Max(2, radius/5))
	r.dc.SetLineCap(gg.LineCapRound)
	base := gg.FromColor(p.Color)
	head := p.Phase % p.Segments
	arc := 2 * math.Pi / float64(p.Segments)
	for i := 0; i < p.Segments; i++ {
		age := (head - i + p.Segments) % p.Segments
		alpha := 1 - float64(age)/float64(p.Segments)
		r.dc.SetRGBA(base.R, base.G, base.B, math.Max(0.12, alpha))
		a := float64(i)*arc - math.Pi/2
		r.dc.DrawLine(cx+math.Cos(a)*radius*0.55, cy+math.Sin(a)*radius*0.55, cx+math.Cos(a)*radius, cy+math.Sin(a)*radius)
		_ = r.dc.Stroke()
	}
	r.frames++
}

func (r *Raster) DrawError(message string) {
	w, h := float64(r.dc.Width()), float64(r.dc.Height())
	size := math.Min(w, h) * 0.15
	cx, cy := w/2, h/2
	r.dc.SetColor(errorColour.Color())
	r.dc.SetLineWidth(math.Max(2, size/6))
	r.dc.DrawCircle(cx, cy, size)
	_ = r.dc.Stroke()
	r.dc.DrawLine(cx-size/2, cy-size/2, cx+size/2, cy+size/2)
	r.dc.DrawLine(cx+size/2, cy-size/2, cx-size/2, cy+size/2)
	_ = r.dc.Stroke()
	r.ready = false
	r.frames++
}

// DrawSplash paints the start-up checkerboard.
func (r *Raster) DrawSplash(program Program) {
	const cells = 8
	w, h := float64(r.dc.Width()), float64(r.dc.Height())
	cw, ch := w/cells, h/cells
	r.active = program.ID
	r.dc.ClearWithColor(gg.FromColor(Platinum))
	r.dc.SetColor(gridColour.Color())
	for y := 0; y < cells; y++ {
		for x := 0; x < cells; x++ {
			if (x+y)%2 == 0 {
				continue
			}
			r.dc.DrawRectangle(float64(x)*cw, float64(y)*ch, cw, ch)
		}
	}
	_ = r.dc.Fill()
	r.frames++
}

// CreateProgram compiles the WGSL pair to SPIR-V.
func (r *Raster) CreateProgram(vertexSrc, fragmentSrc string) (Program, error) {
	if vertexSrc == "" || fragmentSrc == "" {
		return Program{}, errors.New("render: empty shader source")
	}
	vs, err := naga.Compile(vertexSrc)
	if err != nil {
		return Program{}, fmt.Errorf("compile vertex shader: %w", err)
	}
	fs, err := naga.Compile(fragmentSrc)
	if err != nil {
		return Program{}, fmt.Errorf("compile fragment shader: %w", err)
	}
	r.programs++
	return Program{ID: r.programs, Vertex: vs, Fragment: fs}, nil
}

func (r *Raster) drawScene() {
	r.dc.ClearWithColor(gg.FromColor(Platinum))
	r.drawGrid()
	if r.doc != nil && r.doc.Bounds.Valid {
		r.drawBounds(r.doc.Bounds)
		r.dc.SetColor(pointColour.Color())
		for _, p := range r.doc.Points {
			x, y := r.project(p)
			r.dc.DrawCircle(x, y, 2.5)
		}
		_ = r.dc.Fill()
	}
	r.frames++
}

func (r *Raster) drawGrid() {
	w, h := float64(r.dc.Width()), float64(r.dc.Height())
	r.dc.SetColor(gridColour.Color())
	r.dc.SetLineWidth(1)
	spacing := math.Max(16, math.Min(w, h)/12)
	for x := math.Mod(w/2, spacing); x < w; x += spacing {
		r.dc.DrawLine(x, 0, x, h)
	}
	for y := math.Mod(h/2, spacing); y < h; y += spacing {
		r.dc.DrawLine(0, y, w, y)
	}
	_ = r.dc.Stroke()
}

func (r *Raster) drawBounds(b step.Bounds) {
	corners := [8]step.Point{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z}, {X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z}, {X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	r.dc.SetColor(edgeColour.Color())
	r.dc.SetLineWidth(1.5)
	for _, e := range edges {
		x1, y1 := r.project(corners[e[0]])
		x2, y2 := r.project(corners[e[1]])
		r.dc.DrawLine(x1, y1, x2, y2)
	}
	_ = r.dc.Stroke()
}

// project maps model space to surface pixels with an isometric camera.
func (r *Raster) project(p step.Point) (float64, float64) {
	dx, dy, dz := p.X-r.center.X, p.Y-r.center.Y, p.Z-r.center.Z
	sx := (dx - dy) * cos30
	sy := (dx+dy)*sin30 - dz
	return float64(r.dc.Width())/2 + sx*r.scale, float64(r.dc.Height())/2 + sy*r.scale
}
