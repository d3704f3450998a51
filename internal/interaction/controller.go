// Package interaction turns pointer and wheel events into camera changes and
// hover/click queries against the scene's spatial index.
package interaction

import (
	"math"

	"github.com/hyperjump/starmap/internal/camera"
	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/render"
	"go.uber.org/zap"
)

// Options tunes the controller.
type Options struct {
	ZoomInStep     float64
	ZoomOutStep    float64
	HitThreshold   float64
	DragSlop       float64
	AutoCenterTopK int
	MidThreshold   float64
}

// OptionsFromConfig collects controller settings from the camera, interaction and similarity sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ZoomInStep:     cfg.Camera.ZoomInStep,
		ZoomOutStep:    cfg.Camera.ZoomOutStep,
		HitThreshold:   cfg.Interaction.HitThreshold,
		DragSlop:       cfg.Interaction.DragSlop,
		AutoCenterTopK: cfg.Interaction.AutoCenterTopK,
		MidThreshold:   cfg.Similarity.MidThreshold,
	}
}

// DefaultOptions returns the options of the default config.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// Controller is bound to one Scene and must be used from the goroutine that owns it.
type Controller struct {
	scene  *render.Scene
	opts   Options
	logger *zap.Logger

	// OnHover receives the hovered point index, or -1, after every non-drag pointer move.
	OnHover func(int)
	// OnClick receives the clicked point index; it is only called for real hits.
	OnClick func(int)

	dragging   bool
	dragged    bool
	startX     float64
	startY     float64
	startState camera.State
}

// New creates a controller for scene.
func New(scene *render.Scene, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{scene: scene, opts: opts, logger: logger}
}

// Dragging reports whether a pointer is held down.
func (c *Controller) Dragging() bool { return c.dragging }

// Wheel zooms in for dy < 0 and out otherwise. Zoom stays within the camera limits.
func (c *Controller) Wheel(dy float64) {
	if math.IsNaN(dy) {
		return
	}
	step := c.opts.ZoomOutStep
	if dy < 0 {
		step = c.opts.ZoomInStep
	}
	c.scene.Camera().ZoomBy(step)
}

// PointerDown starts a drag gesture at (x, y).
func (c *Controller) PointerDown(x, y float64) {
	c.dragging = true
	c.dragged = false
	c.startX, c.startY = x, y
	c.startState = c.scene.Camera().State()
}

// PointerMove pans while dragging; otherwise it hit-tests and reports the hover result.
func (c *Controller) PointerMove(x, y float64) int {
	if c.dragging {
		dx, dy := x-c.startX, y-c.startY
		if math.Hypot(dx, dy) > c.opts.DragSlop {
			c.dragged = true
		}
		cam := c.scene.Camera()
		zoom := cam.Zoom()
		cam.SetPan(c.startState.X-dx/zoom, c.startState.Y-dy/zoom)
		return c.scene.Hovered()
	}
	idx := c.hit(x, y)
	c.scene.SetHovered(idx)
	if c.OnHover != nil {
		c.OnHover(idx)
	}
	return idx
}

// PointerUp ends the drag gesture.
func (c *Controller) PointerUp(x, y float64) {
	if !c.dragging {
		return
	}
	c.dragging = false
}

// Click reports the point under (x, y) unless the pointer is still down or the gesture that
// just ended was a drag. Returns the clicked index or -1.
func (c *Controller) Click(x, y float64) int {
	if c.dragging {
		return -1
	}
	if c.dragged {
		c.dragged = false
		return -1
	}
	idx := c.hit(x, y)
	if idx < 0 {
		return -1
	}
	if c.OnClick != nil {
		c.OnClick(idx)
	}
	return idx
}

// Leave cancels any drag and clears hover.
func (c *Controller) Leave() {
	c.dragging = false
	c.dragged = false
	c.scene.SetHovered(-1)
	if c.OnHover != nil {
		c.OnHover(-1)
	}
}

// SetSimilarities replaces the scene's similarity map. A non-empty map centres the camera on the
// centroid of the best matches; zoom is left alone and nothing moves when no point matches.
func (c *Controller) SetSimilarities(sims models.SimilarityMap) {
	c.scene.SetSimilarities(sims)
	if !sims.Active() {
		return
	}
	wx, wy, ok := c.matchCentroid(c.scene.Similarities())
	if !ok {
		c.logger.Debug("no match above threshold, camera unchanged")
		return
	}
	c.scene.Camera().CenterOn(wx, wy)
}

func (c *Controller) matchCentroid(sims models.SimilarityMap) (float64, float64, bool) {
	ds := c.scene.Dataset()
	var sx, sy float64
	k := c.opts.AutoCenterTopK
	if k <= 0 {
		k = 5
	}
	n := 0
	for _, m := range sims.Top(-1, c.opts.MidThreshold) {
		if n == k {
			break
		}
		i := ds.IndexOf(m.ID)
		if i < 0 || !ds.Points[i].Valid() {
			continue
		}
		sx += ds.Points[i].X
		sy += ds.Points[i].Y
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}

func (c *Controller) hit(x, y float64) int {
	return c.scene.Index().HitTest(x, y, c.opts.HitThreshold)
}
