// Package camera holds the pan/zoom state of a view and the world<->screen transforms.
//
// World space is the normalized [0,1]x[0,1] square produced by the projection service.
// It is first mapped onto the viewport rectangle inset by a fixed margin ("padded" space),
// then zoomed about the viewport centre and shifted by the pan offset:
//
//	screen = (padded - center) * zoom + center - pan * zoom
//
// Pan is expressed in padded-space pixels, so a drag of d screen pixels moves it by d/zoom.
package camera

import (
	"math"

	"github.com/hyperjump/starmap/pkg/utils"
)

// Viewport is the drawing surface size and the margin that pads the world rectangle.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
}

// Center returns the surface centre in screen pixels.
func (v Viewport) Center() (float64, float64) {
	return v.Width / 2, v.Height / 2
}

func (v Viewport) spanX() float64 { return v.Width - 2*v.Margin }
func (v Viewport) spanY() float64 { return v.Height - 2*v.Margin }

// Limits bounds the zoom factor.
type Limits struct {
	ZoomMin float64 `json:"zoom_min"`
	ZoomMax float64 `json:"zoom_max"`
}

// DefaultLimits is the [0.5, 10] zoom range.
var DefaultLimits = Limits{ZoomMin: 0.5, ZoomMax: 10}

// State is a copyable snapshot of the camera.
type State struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Camera is the single mutable view transform of one session. It is not safe for concurrent use.
type Camera struct {
	x, y     float64
	zoom     float64
	viewport Viewport
	limits   Limits
}

// New returns a camera with identity pan and zoom 1 (clamped into limits).
func New(vp Viewport, limits Limits) *Camera {
	if limits.ZoomMin <= 0 || limits.ZoomMax < limits.ZoomMin {
		limits = DefaultLimits
	}
	c := &Camera{viewport: vp, limits: limits}
	c.SetZoom(1)
	return c
}

// State returns the current pan and zoom.
func (c *Camera) State() State {
	return State{X: c.x, Y: c.y, Zoom: c.zoom}
}

// Restore sets pan and zoom from a snapshot; zoom is clamped.
func (c *Camera) Restore(s State) {
	c.x, c.y = s.X, s.Y
	c.SetZoom(s.Zoom)
}

// Zoom returns the current zoom factor.
func (c *Camera) Zoom() float64 { return c.zoom }

// Limits returns the zoom bounds.
func (c *Camera) Limits() Limits { return c.limits }

// Viewport returns the current surface.
func (c *Camera) Viewport() Viewport { return c.viewport }

// SetViewport replaces the surface, e.g. after a resize. Pan and zoom are kept.
func (c *Camera) SetViewport(vp Viewport) { c.viewport = vp }

// SetZoom sets the zoom factor clamped to the limits. Non-finite values are ignored.
func (c *Camera) SetZoom(z float64) {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return
	}
	c.zoom = utils.Clamp(z, c.limits.ZoomMin, c.limits.ZoomMax)
}

// ZoomBy multiplies the zoom factor, clamped to the limits.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.zoom * factor)
}

// PanBy shifts the pan offset. Panning is unbounded.
func (c *Camera) PanBy(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	c.x += dx
	c.y += dy
}

// SetPan sets the pan offset.
func (c *Camera) SetPan(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	c.x, c.y = x, y
}

// CenterOn pans so the world point projects onto the surface centre. Zoom is unchanged.
func (c *Camera) CenterOn(wx, wy float64) {
	px, py := c.padded(wx, wy)
	cx, cy := c.viewport.Center()
	c.SetPan(px-cx, py-cy)
}

// WorldToScreen maps a world coordinate to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	px, py := c.padded(wx, wy)
	cx, cy := c.viewport.Center()
	sx := (px-cx)*c.zoom + cx - c.x*c.zoom
	sy := (py-cy)*c.zoom + cy - c.y*c.zoom
	return sx, sy
}

// ScreenToWorld is the exact inverse of WorldToScreen. An axis whose padded span is zero maps to 0.
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	cx, cy := c.viewport.Center()
	px := (sx-cx+c.x*c.zoom)/c.zoom + cx
	py := (sy-cy+c.y*c.zoom)/c.zoom + cy
	var wx, wy float64
	if span := c.viewport.spanX(); span != 0 {
		wx = (px - c.viewport.Margin) / span
	}
	if span := c.viewport.spanY(); span != 0 {
		wy = (py - c.viewport.Margin) / span
	}
	return wx, wy
}

// Visible reports whether a screen position lies on the surface, extended by pad pixels on every side.
func (c *Camera) Visible(sx, sy, pad float64) bool {
	return sx >= -pad && sy >= -pad && sx <= c.viewport.Width+pad && sy <= c.viewport.Height+pad
}

func (c *Camera) padded(wx, wy float64) (float64, float64) {
	return c.viewport.Margin + wx*c.viewport.spanX(), c.viewport.Margin + wy*c.viewport.spanY()
}
