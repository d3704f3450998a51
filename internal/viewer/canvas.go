package viewer

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// screenCanvas paints onto the ebiten screen. The target changes every Draw; the converted
// background layer is kept until the renderer hands over a different one.
type screenCanvas struct {
	target   *ebiten.Image
	face     *text.GoXFace
	layerSrc *image.RGBA
	layerImg *ebiten.Image
}

func newScreenCanvas() *screenCanvas {
	return &screenCanvas{face: text.NewGoXFace(basicfont.Face7x13)}
}

func (c *screenCanvas) Size() (int, int) {
	b := c.target.Bounds()
	return b.Dx(), b.Dy()
}

func (c *screenCanvas) Clear(col color.Color) { c.target.Fill(col) }

func (c *screenCanvas) DrawLayer(layer *image.RGBA) {
	if layer == nil {
		return
	}
	if layer != c.layerSrc {
		if c.layerImg != nil {
			c.layerImg.Deallocate()
		}
		c.layerSrc = layer
		c.layerImg = ebiten.NewImageFromImage(layer)
	}
	c.target.DrawImage(c.layerImg, nil)
}

func (c *screenCanvas) FillCircle(x, y, r float64, col color.Color) {
	vector.DrawFilledCircle(c.target, float32(x), float32(y), float32(r), col, true)
}

func (c *screenCanvas) StrokeLine(x1, y1, x2, y2, width float64, col color.Color) {
	vector.StrokeLine(c.target, float32(x1), float32(y1), float32(x2), float32(y2), float32(width), col, true)
}

// Text draws with the baseline at y, matching the raster canvas.
func (c *screenCanvas) Text(x, y float64, s string, col color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y-float64(basicfont.Face7x13.Ascent))
	op.ColorScale.ScaleWithColor(col)
	text.Draw(c.target, s, c.face, op)
}

func (c *screenCanvas) TextWidth(s string) float64 { return text.Advance(s, c.face) }
