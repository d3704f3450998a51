// Package starfield renders the decorative background layer and caches it per surface size.
package starfield

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/hyperjump/starmap/internal/canvas"
)

// Options controls how the starfield looks.
type Options struct {
	Count      int
	Seed       int64
	MinRadius  float64
	MaxRadius  float64
	MinOpacity float64
	MaxOpacity float64
	Tint       color.RGBA
}

// DefaultOptions returns a faint white starfield.
func DefaultOptions() Options {
	return Options{
		Count:      200,
		Seed:       42,
		MinRadius:  0.3,
		MaxRadius:  1.2,
		MinOpacity: 0.1,
		MaxOpacity: 0.5,
		Tint:       color.RGBA{R: 200, G: 210, B: 255, A: 255},
	}
}

// Render draws a fresh starfield layer of the given size. Same options and size give the same image.
func Render(w, h int, opts Options) *image.RGBA {
	r := canvas.NewRaster(w, h)
	if w <= 0 || h <= 0 {
		return r.Image()
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	for i := 0; i < opts.Count; i++ {
		x := rng.Float64() * float64(w)
		y := rng.Float64() * float64(h)
		radius := opts.MinRadius + rng.Float64()*(opts.MaxRadius-opts.MinRadius)
		alpha := opts.MinOpacity + rng.Float64()*(opts.MaxOpacity-opts.MinOpacity)
		r.FillCircle(x, y, radius, canvas.Fade(opts.Tint, alpha))
	}
	return r.Image()
}

// Cache holds the rendered layer for the current surface size.
type Cache struct {
	opts   Options
	w, h   int
	layer  *image.RGBA
	builds int
}

// NewCache returns an empty cache; the first Layer call renders.
func NewCache(opts Options) *Cache {
	return &Cache{opts: opts}
}

// Layer returns the layer for a w x h surface, re-rendering only when the size changed.
func (c *Cache) Layer(w, h int) *image.RGBA {
	if c.layer == nil || w != c.w || h != c.h {
		c.layer = Render(w, h, c.opts)
		c.w, c.h = w, h
		c.builds++
	}
	return c.layer
}

// Builds returns how many times the layer has been rendered.
func (c *Cache) Builds() int { return c.builds }

// Invalidate forces the next Layer call to re-render.
func (c *Cache) Invalidate() { c.layer = nil }
