// Package similarity maps search similarity scores to point, edge and label styling.
// Everything here is a pure function of its inputs.
package similarity

import (
	"image/color"
	"math"

	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/pkg/utils"
)

// Tier classifies how a point is drawn.
type Tier int

const (
	TierBase    Tier = iota // no active search
	TierGhost               // active search, score at or below the mid threshold
	TierPartial             // between mid and high, interpolated
	TierMatch               // above the high threshold
	TierHover               // pointer is over the point
)

func (t Tier) String() string {
	switch t {
	case TierBase:
		return "base"
	case TierGhost:
		return "ghost"
	case TierPartial:
		return "partial"
	case TierMatch:
		return "match"
	case TierHover:
		return "hover"
	}
	return "unknown"
}

// Style is how one point is drawn.
type Style struct {
	Color   color.RGBA
	Opacity float64
	Radius  float64
	Tier    Tier
}

// Palette holds the render colors.
type Palette struct {
	Background color.RGBA
	Base       color.RGBA
	Match      color.RGBA
	Ghost      color.RGBA
	Hover      color.RGBA
	Edge       color.RGBA
	Label      color.RGBA
}

// DefaultPalette is the dark-sky theme.
var DefaultPalette = Palette{
	Background: color.RGBA{R: 8, G: 10, B: 24, A: 255},
	Base:       color.RGBA{R: 110, G: 160, B: 255, A: 255},
	Match:      color.RGBA{R: 255, G: 204, B: 92, A: 255},
	Ghost:      color.RGBA{R: 90, G: 96, B: 128, A: 255},
	Hover:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Edge:       color.RGBA{R: 120, G: 140, B: 200, A: 255},
	Label:      color.RGBA{R: 220, G: 225, B: 240, A: 255},
}

// Encoder turns scores into styles.
type Encoder struct {
	HighThreshold    float64
	MidThreshold     float64
	BaseRadius       float64
	MatchRadiusScale float64
	HoverRadiusScale float64
	BaseOpacity      float64
	GhostOpacity     float64
	MatchOpacity     float64
	Palette          Palette
}

// NewEncoder builds an encoder from config, using the default palette.
func NewEncoder(cfg *config.SimilarityConfig) *Encoder {
	return &Encoder{
		HighThreshold:    cfg.HighThreshold,
		MidThreshold:     cfg.MidThreshold,
		BaseRadius:       cfg.BaseRadius,
		MatchRadiusScale: cfg.MatchRadiusScale,
		HoverRadiusScale: cfg.HoverRadiusScale,
		BaseOpacity:      cfg.BaseOpacity,
		GhostOpacity:     cfg.GhostOpacity,
		MatchOpacity:     1,
		Palette:          DefaultPalette,
	}
}

// Default returns an encoder with the default thresholds (0.3 / 0.6) and styling.
func Default() *Encoder {
	return NewEncoder(&config.Default().Similarity)
}

// Encode styles p given the current similarity map (nil or empty means no search) and hover state.
func (e *Encoder) Encode(p models.Point, sims models.SimilarityMap, hovered bool) Style {
	s := e.encodeScore(p, sims)
	if hovered {
		s.Color = e.Palette.Hover
		s.Opacity = 1
		s.Radius *= e.HoverRadiusScale
		s.Tier = TierHover
	}
	return s
}

func (e *Encoder) encodeScore(p models.Point, sims models.SimilarityMap) Style {
	base := e.radiusFor(p)
	if !sims.Active() {
		return Style{Color: e.Palette.Base, Opacity: e.BaseOpacity, Radius: base, Tier: TierBase}
	}
	score, _ := sims.Score(p.ID)
	switch {
	case score > e.HighThreshold:
		return Style{Color: e.Palette.Match, Opacity: e.MatchOpacity, Radius: base * e.MatchRadiusScale, Tier: TierMatch}
	case score > e.MidThreshold:
		t := (score - e.MidThreshold) / (e.HighThreshold - e.MidThreshold)
		return Style{
			Color:   lerpColor(e.Palette.Ghost, e.Palette.Match, t),
			Opacity: utils.Lerp(e.GhostOpacity, e.MatchOpacity, t),
			Radius:  utils.Lerp(base, base*e.MatchRadiusScale, t),
			Tier:    TierPartial,
		}
	default:
		return Style{Color: e.Palette.Ghost, Opacity: e.GhostOpacity, Radius: base, Tier: TierGhost}
	}
}

// radiusFor grows the base radius slowly with the point's token count.
func (e *Encoder) radiusFor(p models.Point) float64 {
	if p.TokenCount <= 0 {
		return e.BaseRadius
	}
	return e.BaseRadius + math.Min(math.Log2(1+float64(p.TokenCount))/4, e.BaseRadius)
}

// IsMatch reports whether id scores above the mid threshold in an active search.
func (e *Encoder) IsMatch(id string, sims models.SimilarityMap) bool {
	s, ok := sims.Score(id)
	return ok && s > e.MidThreshold
}

// ClusterMatched reports whether any member of c is a match.
func (e *Encoder) ClusterMatched(c models.Cluster, sims models.SimilarityMap) bool {
	if !sims.Active() {
		return false
	}
	for _, id := range c.PointIDs {
		if e.IsMatch(id, sims) {
			return true
		}
	}
	return false
}

// EdgeStyle is how a connection edge is drawn.
type EdgeStyle struct {
	Color   color.RGBA
	Opacity float64
	Width   float64
}

// Edge styles the connection between a and b. The second result is false when the edge
// should not be drawn: during a search, edges are only kept between two matches.
func (e *Encoder) Edge(a, b models.Point, sims models.SimilarityMap) (EdgeStyle, bool) {
	if !sims.Active() {
		return EdgeStyle{Color: e.Palette.Edge, Opacity: 0.15, Width: 0.6}, true
	}
	if e.IsMatch(a.ID, sims) && e.IsMatch(b.ID, sims) {
		return EdgeStyle{Color: e.Palette.Match, Opacity: 0.45, Width: 1}, true
	}
	return EdgeStyle{}, false
}

// LabelStyle is how a cluster label is drawn.
type LabelStyle struct {
	Color   color.RGBA
	Opacity float64
}

// Label styles a cluster label: highlighted when it holds a match, dimmed when a search is active
// without one, neutral otherwise.
func (e *Encoder) Label(c models.Cluster, sims models.SimilarityMap) LabelStyle {
	switch {
	case !sims.Active():
		return LabelStyle{Color: e.Palette.Label, Opacity: 0.6}
	case e.ClusterMatched(c, sims):
		return LabelStyle{Color: e.Palette.Match, Opacity: 1}
	default:
		return LabelStyle{Color: e.Palette.Label, Opacity: 0.2}
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: utils.LerpU8(a.R, b.R, t),
		G: utils.LerpU8(a.G, b.G, t),
		B: utils.LerpU8(a.B, b.B, t),
		A: 255,
	}
}
