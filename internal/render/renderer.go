package render

import (
	"time"

	"github.com/hyperjump/starmap/internal/canvas"
	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/similarity"
	"github.com/hyperjump/starmap/internal/spatial"
	"github.com/hyperjump/starmap/internal/starfield"
	"github.com/hyperjump/starmap/pkg/utils"
	"go.uber.org/zap"
)

// Options are the render heuristics. The edge thresholds are tuning values, not contracts.
type Options struct {
	EdgeZoomThreshold float64
	EdgeMaxPoints     int
	Neighbors         int
	LabelMaxLen       int
	Stars             starfield.Options
}

// OptionsFromConfig maps the render section of the config.
func OptionsFromConfig(cfg *config.RenderConfig) Options {
	stars := starfield.DefaultOptions()
	stars.Count = cfg.StarCount
	stars.Seed = cfg.StarSeed
	return Options{
		EdgeZoomThreshold: cfg.EdgeZoomThreshold,
		EdgeMaxPoints:     cfg.EdgeMaxPoints,
		Neighbors:         cfg.Neighbors,
		LabelMaxLen:       cfg.LabelMaxLen,
		Stars:             stars,
	}
}

// FrameStats summarizes one frame.
type FrameStats struct {
	Points   int           `json:"points"`
	Drawn    int           `json:"drawn"`
	Culled   int           `json:"culled"`
	Skipped  int           `json:"skipped"`
	Edges    int           `json:"edges"`
	Labels   int           `json:"labels"`
	Duration time.Duration `json:"duration_ns"`
}

// Renderer draws a Scene onto a Canvas. It keeps the starfield cache between frames.
type Renderer struct {
	opts    Options
	encoder *similarity.Encoder
	stars   *starfield.Cache
	logger  *zap.Logger
}

// NewRenderer creates a renderer. A nil logger is replaced by a no-op logger.
func NewRenderer(opts Options, enc *similarity.Encoder, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		opts:    opts,
		encoder: enc,
		stars:   starfield.NewCache(opts.Stars),
		logger:  logger,
	}
}

// Encoder returns the similarity encoder used for styling.
func (r *Renderer) Encoder() *similarity.Encoder { return r.encoder }

// BackgroundBuilds reports how many times the starfield layer was rendered.
func (r *Renderer) BackgroundBuilds() int { return r.stars.Builds() }

// Frame draws one complete frame: background, edges, cluster labels, then points.
// The canvas size is authoritative; the camera viewport follows it.
func (r *Renderer) Frame(s *Scene, c canvas.Canvas) FrameStats {
	start := time.Now()
	w, h := c.Size()
	s.Resize(float64(w), float64(h))

	c.Clear(r.encoder.Palette.Background)
	c.DrawLayer(r.stars.Layer(w, h))

	s.Project()
	screen := s.Projections()
	stats := FrameStats{Points: len(screen)}

	stats.Edges = r.drawEdges(s, c)
	stats.Labels = r.drawLabels(s, c)
	r.drawPoints(s, c, &stats)

	stats.Duration = time.Since(start)
	if stats.Skipped > 0 {
		r.logger.Debug("skipped malformed points", zap.Int("count", stats.Skipped))
	}
	return stats
}

func (r *Renderer) edgesEnabled(s *Scene) bool {
	return s.Camera().Zoom() >= r.opts.EdgeZoomThreshold &&
		len(s.Points()) < r.opts.EdgeMaxPoints &&
		r.opts.Neighbors > 0
}

func (r *Renderer) drawEdges(s *Scene, c canvas.Canvas) int {
	if !r.edgesEnabled(s) {
		return 0
	}
	pts := s.Points()
	screen := s.Projections()
	sims := s.Similarities()
	cam := s.Camera()
	type pair struct{ a, b int }
	seen := make(map[pair]struct{})
	n := 0
	for i, sp := range screen {
		if !sp.OK || !cam.Visible(sp.X, sp.Y, 0) {
			continue
		}
		for _, j := range spatial.FindNearest(pts, i, r.opts.Neighbors) {
			key := pair{i, j}
			if j < i {
				key = pair{j, i}
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			style, ok := r.encoder.Edge(pts[i], pts[j], sims)
			if !ok {
				continue
			}
			to := screen[j]
			c.StrokeLine(sp.X, sp.Y, to.X, to.Y, style.Width, canvas.Fade(style.Color, style.Opacity))
			n++
		}
	}
	return n
}

func (r *Renderer) drawLabels(s *Scene, c canvas.Canvas) int {
	cam := s.Camera()
	sims := s.Similarities()
	n := 0
	for _, cl := range s.Clusters() {
		if !cl.Valid() || cl.Label == "" {
			continue
		}
		sx, sy := cam.WorldToScreen(cl.X, cl.Y)
		text := utils.Truncate(cl.Label, r.opts.LabelMaxLen)
		tw := c.TextWidth(text)
		if !cam.Visible(sx, sy, tw) {
			continue
		}
		style := r.encoder.Label(cl, sims)
		c.Text(sx-tw/2, sy, text, canvas.Fade(style.Color, style.Opacity))
		n++
	}
	return n
}

// drawPoints paints in three passes so highlighted points sit on top:
// everything else, then partial and full matches, then the hovered point.
func (r *Renderer) drawPoints(s *Scene, c canvas.Canvas, stats *FrameStats) {
	pts := s.Points()
	screen := s.Projections()
	sims := s.Similarities()
	hovered := s.Hovered()
	cam := s.Camera()

	var raised []int
	for pass := 0; pass < 3; pass++ {
		var order []int
		switch pass {
		case 0:
			order = make([]int, 0, len(pts))
			for i := range pts {
				order = append(order, i)
			}
		case 1:
			order = raised
		case 2:
			if hovered >= 0 && hovered < len(pts) {
				order = []int{hovered}
			}
		}
		for _, i := range order {
			sp := screen[i]
			if !sp.OK {
				if pass == 0 {
					stats.Skipped++
				}
				continue
			}
			isHover := i == hovered
			style := r.encoder.Encode(pts[i], sims, isHover)
			if pass == 0 {
				if isHover {
					continue
				}
				if style.Tier == similarity.TierMatch || style.Tier == similarity.TierPartial {
					raised = append(raised, i)
					continue
				}
			}
			if !cam.Visible(sp.X, sp.Y, style.Radius*2) {
				stats.Culled++
				continue
			}
			r.drawPoint(c, sp.X, sp.Y, style)
			stats.Drawn++
		}
	}
}

func (r *Renderer) drawPoint(c canvas.Canvas, x, y float64, style similarity.Style) {
	c.FillCircle(x, y, style.Radius*2, canvas.Fade(style.Color, style.Opacity*0.2))
	c.FillCircle(x, y, style.Radius, canvas.Fade(style.Color, style.Opacity))
}
