// Package canvas defines the drawing surface the render loop paints onto, with a raster
// implementation for headless hosts and a recording implementation for tests and diagnostics.
package canvas

import (
	"image"
	"image/color"

	"github.com/hyperjump/starmap/pkg/utils"
)

// Canvas is a 2D drawing surface in screen pixels.
type Canvas interface {
	// Size returns the surface size in pixels.
	Size() (w, h int)
	Clear(c color.Color)
	// DrawLayer composites a prerendered layer at the origin.
	DrawLayer(layer *image.RGBA)
	FillCircle(x, y, r float64, c color.Color)
	StrokeLine(x1, y1, x2, y2, width float64, c color.Color)
	// Text draws s with its baseline starting at (x, y).
	Text(x, y float64, s string, c color.Color)
	// TextWidth returns the advance width of s in pixels.
	TextWidth(s string) float64
}

// Fade applies an opacity in [0,1] to an opaque color.
func Fade(c color.RGBA, opacity float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(utils.Clamp(opacity, 0, 1)*255 + 0.5)}
}
