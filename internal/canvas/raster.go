package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Raster is a Canvas backed by an in-memory RGBA image. Shapes are anti-aliased with
// golang.org/x/image/vector; text uses the fixed 7x13 bitmap face.
type Raster struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	face font.Face
}

// NewRaster allocates a w x h transparent surface.
func NewRaster(w, h int) *Raster {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return FromImage(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// FromImage wraps an existing image. Drawing mutates img.
func FromImage(img *image.RGBA) *Raster {
	return &Raster{img: img, z: vector.NewRasterizer(0, 0), face: basicfont.Face7x13}
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

// Size implements Canvas.
func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear implements Canvas.
func (r *Raster) Clear(c color.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawLayer implements Canvas.
func (r *Raster) DrawLayer(layer *image.RGBA) {
	if layer == nil {
		return
	}
	draw.Draw(r.img, r.img.Bounds(), layer, image.Point{}, draw.Over)
}

// FillCircle implements Canvas.
func (r *Raster) FillCircle(x, y, radius float64, c color.Color) {
	if !(radius > 0) || !finite(x, y) {
		return
	}
	box, ok := r.clip(x-radius, y-radius, x+radius, y+radius)
	if !ok {
		return
	}
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	segs := int(math.Min(64, math.Max(12, radius*4)))
	r.begin(box)
	for i := 0; i <= segs; i++ {
		a := 2 * math.Pi * float64(i) / float64(segs)
		px := float32(x + radius*math.Cos(a) - ox)
		py := float32(y + radius*math.Sin(a) - oy)
		if i == 0 {
			r.z.MoveTo(px, py)
		} else {
			r.z.LineTo(px, py)
		}
	}
	r.z.ClosePath()
	r.z.Draw(r.img, box, image.NewUniform(c), image.Point{})
}

// StrokeLine implements Canvas.
func (r *Raster) StrokeLine(x1, y1, x2, y2, width float64, c color.Color) {
	if !(width > 0) || !finite(x1, y1) || !finite(x2, y2) {
		return
	}
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	hw := width / 2
	nx, ny := -dy/length*hw, dx/length*hw
	box, ok := r.clip(math.Min(x1, x2)-hw, math.Min(y1, y2)-hw, math.Max(x1, x2)+hw, math.Max(y1, y2)+hw)
	if !ok {
		return
	}
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	r.begin(box)
	r.z.MoveTo(float32(x1+nx-ox), float32(y1+ny-oy))
	r.z.LineTo(float32(x2+nx-ox), float32(y2+ny-oy))
	r.z.LineTo(float32(x2-nx-ox), float32(y2-ny-oy))
	r.z.LineTo(float32(x1-nx-ox), float32(y1-ny-oy))
	r.z.ClosePath()
	r.z.Draw(r.img, box, image.NewUniform(c), image.Point{})
}

// Text implements Canvas.
func (r *Raster) Text(x, y float64, s string, c color.Color) {
	if s == "" || !finite(x, y) {
		return
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

// TextWidth implements Canvas.
func (r *Raster) TextWidth(s string) float64 {
	return float64(font.MeasureString(r.face, s).Ceil())
}

// begin resets the rasterizer to the clipped box.
func (r *Raster) begin(box image.Rectangle) {
	r.z.Reset(box.Dx(), box.Dy())
	r.z.DrawOp = draw.Over
}

// clip returns the integer pixel box covering the given bounds, intersected with the image.
func (r *Raster) clip(x0, y0, x1, y1 float64) (image.Rectangle, bool) {
	box := image.Rect(int(math.Floor(x0))-1, int(math.Floor(y0))-1, int(math.Ceil(x1))+1, int(math.Ceil(y1))+1)
	box = box.Intersect(r.img.Bounds())
	return box, !box.Empty()
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
