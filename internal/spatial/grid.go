// Package spatial provides the uniform-grid index used for pointer hit-testing, plus the
// brute-force neighbour search used for decorative connection edges.
package spatial

import (
	"math"

	"github.com/hyperjump/starmap/internal/models"
)

// DefaultCellSize is the grid cell edge in screen pixels.
const DefaultCellSize = 20.0

type cellKey struct {
	cx, cy int
}

// Grid buckets screen-space points into square cells. It is rebuilt from fresh
// projections every frame and never updated incrementally.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]int
	points   []models.ScreenPoint
}

// Build indexes every projected point with OK set. O(n).
// The points slice is retained (not copied); callers must not mutate it while the grid is in use.
func Build(points []models.ScreenPoint, cellSize float64) *Grid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	g := &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int, len(points)/2+1),
		points:   points,
	}
	for i, p := range points {
		if !p.OK {
			continue
		}
		k := g.key(p.X, p.Y)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

// CellSize returns the cell edge length.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Len returns the number of indexed points.
func (g *Grid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// HitTest returns the index of the point nearest to (mx, my) within threshold pixels, or -1.
// The scan covers the 3x3 cell neighbourhood, widened when threshold exceeds the cell size,
// so the answer always equals a linear scan. Ties go to the lower index.
func (g *Grid) HitTest(mx, my, threshold float64) int {
	if g == nil || threshold < 0 || math.IsNaN(mx) || math.IsNaN(my) || math.IsNaN(threshold) {
		return -1
	}
	best := -1
	bestD := threshold * threshold
	g.visit(mx, my, threshold, func(i int) {
		p := g.points[i]
		dx, dy := p.X-mx, p.Y-my
		d := dx*dx + dy*dy
		if d > bestD {
			return
		}
		if best == -1 || d < bestD || (d == bestD && i < best) {
			best, bestD = i, d
		}
	})
	return best
}

// Within returns the indices of every point within radius pixels of (mx, my), nearest first.
func (g *Grid) Within(mx, my, radius float64) []int {
	if g == nil || radius < 0 || math.IsNaN(mx) || math.IsNaN(my) {
		return nil
	}
	r2 := radius * radius
	var hits []neighbor
	g.visit(mx, my, radius, func(i int) {
		p := g.points[i]
		dx, dy := p.X-mx, p.Y-my
		if d := dx*dx + dy*dy; d <= r2 {
			hits = append(hits, neighbor{idx: i, dist: d})
		}
	})
	sortNeighbors(hits)
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.idx
	}
	return out
}

// visit calls fn for every indexed point in the cells that can hold a point within radius of (mx, my).
func (g *Grid) visit(mx, my, radius float64, fn func(i int)) {
	if math.IsInf(mx, 0) || math.IsInf(my, 0) {
		return
	}
	r := 1.0
	if radius > g.cellSize {
		r = math.Ceil(radius / g.cellSize)
	}
	// A huge radius turns the neighbourhood walk into a full scan; walk the map instead.
	// The bound is checked in float so an infinite or huge radius never reaches int conversion.
	if span := 2*r + 1; math.IsInf(r, 0) || span*span >= float64(len(g.cells)) {
		for _, idxs := range g.cells {
			for _, i := range idxs {
				fn(i)
			}
		}
		return
	}
	reach := int(r)
	center := g.key(mx, my)
	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for _, i := range g.cells[cellKey{center.cx + dx, center.cy + dy}] {
				fn(i)
			}
		}
	}
}

func (g *Grid) key(x, y float64) cellKey {
	return cellKey{int(math.Floor(x / g.cellSize)), int(math.Floor(y / g.cellSize))}
}
