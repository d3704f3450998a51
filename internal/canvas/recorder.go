package canvas

import (
	"image"
	"image/color"
)

// Op is one recorded draw call.
type Op struct {
	Kind   string
	X, Y   float64
	X2, Y2 float64
	Size   float64
	Text   string
	Color  color.Color
}

// Recorder is a Canvas that records draw calls instead of painting. Useful in tests and for
// counting what a frame would draw.
type Recorder struct {
	W, H int
	Ops  []Op
}

// NewRecorder returns a recorder for a w x h surface.
func NewRecorder(w, h int) *Recorder { return &Recorder{W: w, H: h} }

// Reset drops recorded ops.
func (r *Recorder) Reset() { r.Ops = r.Ops[:0] }

// Count returns the number of ops of the given kind.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns ops of the given kind, in draw order.
func (r *Recorder) Filter(kind string) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) Clear(c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "clear", Color: c})
}

func (r *Recorder) DrawLayer(layer *image.RGBA) {
	if layer == nil {
		return
	}
	r.Ops = append(r.Ops, Op{Kind: "layer"})
}

func (r *Recorder) FillCircle(x, y, radius float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "circle", X: x, Y: y, Size: radius, Color: c})
}

func (r *Recorder) StrokeLine(x1, y1, x2, y2, width float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "line", X: x1, Y: y1, X2: x2, Y2: y2, Size: width, Color: c})
}

func (r *Recorder) Text(x, y float64, s string, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "text", X: x, Y: y, Text: s, Color: c})
}

// TextWidth uses the 7px advance of the raster face.
func (r *Recorder) TextWidth(s string) float64 { return float64(7 * len([]rune(s))) }
