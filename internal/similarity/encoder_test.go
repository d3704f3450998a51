package similarity

import (
	"fmt"
	"testing"

	"github.com/hyperjump/starmap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_noSearchBaseline(t *testing.T) {
	e := Default()
	var want Style
	for i := 0; i < 50; i++ {
		p := models.Point{ID: fmt.Sprintf("id_%d", i), X: float64(i) / 50, Y: 0.5}
		for _, sims := range []models.SimilarityMap{nil, {}} {
			got := e.Encode(p, sims, false)
			if i == 0 {
				want = got
			}
			require.Equal(t, want, got, "point %s", p.ID)
		}
	}
	assert.Equal(t, TierBase, want.Tier)
	assert.Equal(t, e.Palette.Base, want.Color)
	assert.Equal(t, 0.7, want.Opacity)
}

func TestEncode_matchAndGhostScenario(t *testing.T) {
	e := Default()
	sims := models.SimilarityMap{"id_7": 0.9}
	match := e.Encode(models.Point{ID: "id_7"}, sims, false)
	assert.Equal(t, TierMatch, match.Tier)
	assert.Equal(t, 1.0, match.Opacity)
	assert.Greater(t, match.Radius, e.BaseRadius)
	assert.Equal(t, e.Palette.Match, match.Color)

	for i := 0; i < 20; i++ {
		if i == 7 {
			continue
		}
		ghost := e.Encode(models.Point{ID: fmt.Sprintf("id_%d", i)}, sims, false)
		assert.Equal(t, TierGhost, ghost.Tier)
		assert.InDelta(t, 0.15, ghost.Opacity, 1e-12)
		assert.Equal(t, e.BaseRadius, ghost.Radius)
	}
}

func TestEncode_tiers(t *testing.T) {
	e := Default()
	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierGhost},
		{0.3, TierGhost},
		{0.31, TierPartial},
		{0.6, TierPartial},
		{0.61, TierMatch},
		{1, TierMatch},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score %.2f", tt.score), func(t *testing.T) {
			got := e.Encode(models.Point{ID: "p"}, models.SimilarityMap{"p": tt.score}, false)
			assert.Equal(t, tt.want, got.Tier)
		})
	}
}

func TestEncode_partialInterpolates(t *testing.T) {
	e := Default()
	mid := e.Encode(models.Point{ID: "p"}, models.SimilarityMap{"p": 0.45}, false)
	assert.InDelta(t, (0.15+1)/2, mid.Opacity, 1e-9)
	assert.InDelta(t, e.BaseRadius*(1+e.MatchRadiusScale)/2, mid.Radius, 1e-9)

	top := e.Encode(models.Point{ID: "p"}, models.SimilarityMap{"p": 0.6}, false)
	assert.Equal(t, e.Palette.Match, top.Color, "t=1 reaches the match color")
}

func TestEncode_monotonicAboveMid(t *testing.T) {
	e := Default()
	p := models.Point{ID: "p", TokenCount: 40}
	prev := e.Encode(p, models.SimilarityMap{"p": 0.3001}, false)
	for s := 0.301; s <= 1.0; s += 0.001 {
		cur := e.Encode(p, models.SimilarityMap{"p": s}, false)
		require.GreaterOrEqual(t, cur.Opacity, prev.Opacity, "opacity at %.3f", s)
		require.GreaterOrEqual(t, cur.Radius, prev.Radius, "radius at %.3f", s)
		prev = cur
	}
}

func TestEncode_hoverOverrides(t *testing.T) {
	e := Default()
	for _, sims := range []models.SimilarityMap{nil, {"p": 0.1}, {"p": 0.95}} {
		plain := e.Encode(models.Point{ID: "p"}, sims, false)
		hov := e.Encode(models.Point{ID: "p"}, sims, true)
		assert.Equal(t, TierHover, hov.Tier)
		assert.Equal(t, 1.0, hov.Opacity)
		assert.Equal(t, e.Palette.Hover, hov.Color)
		assert.InDelta(t, plain.Radius*e.HoverRadiusScale, hov.Radius, 1e-12)
	}
}

func TestEncode_tokenCountGrowsRadius(t *testing.T) {
	e := Default()
	small := e.Encode(models.Point{ID: "a", TokenCount: 1}, nil, false)
	large := e.Encode(models.Point{ID: "a", TokenCount: 4000}, nil, false)
	assert.Greater(t, large.Radius, small.Radius)
	assert.LessOrEqual(t, large.Radius, 2*e.BaseRadius)
}

func TestEncode_unknownIDsIgnored(t *testing.T) {
	e := Default()
	sims := models.SimilarityMap{"ghost-id": 0.99}
	got := e.Encode(models.Point{ID: "real"}, sims, false)
	assert.Equal(t, TierGhost, got.Tier)
}

func TestEdge(t *testing.T) {
	e := Default()
	a, b, c := models.Point{ID: "a"}, models.Point{ID: "b"}, models.Point{ID: "c"}

	_, ok := e.Edge(a, b, nil)
	assert.True(t, ok, "edges draw when no search is active")

	sims := models.SimilarityMap{"a": 0.9, "b": 0.5, "c": 0.1}
	style, ok := e.Edge(a, b, sims)
	assert.True(t, ok)
	assert.Equal(t, e.Palette.Match, style.Color)
	_, ok = e.Edge(a, c, sims)
	assert.False(t, ok, "edge to a non-match is suppressed")
}

func TestLabel(t *testing.T) {
	e := Default()
	cl := models.Cluster{Label: "x", PointIDs: []string{"a", "b"}}
	assert.Equal(t, 0.6, e.Label(cl, nil).Opacity)
	assert.Equal(t, e.Palette.Match, e.Label(cl, models.SimilarityMap{"b": 0.7}).Color)
	assert.Equal(t, 0.2, e.Label(cl, models.SimilarityMap{"z": 0.7}).Opacity)
	assert.False(t, e.ClusterMatched(cl, models.SimilarityMap{"a": 0.3}), "mid threshold is exclusive")
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "match", TierMatch.String())
	assert.Equal(t, "unknown", Tier(99).String())
}
