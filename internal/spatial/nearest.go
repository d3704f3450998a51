package spatial

import (
	"sort"

	"github.com/hyperjump/starmap/internal/models"
)

type neighbor struct {
	idx  int
	dist float64
}

func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].dist != ns[j].dist {
			return ns[i].dist < ns[j].dist
		}
		return ns[i].idx < ns[j].idx
	})
}

// FindNearest returns up to k indices nearest to points[idx] by world-space squared distance,
// nearest first, ties by index. The point itself and malformed points are excluded.
// This is a linear scan; callers only use it below the edge-rendering density cap.
func FindNearest(points []models.Point, idx, k int) []int {
	if k <= 0 || idx < 0 || idx >= len(points) || !points[idx].Valid() {
		return nil
	}
	src := points[idx]
	best := make([]neighbor, 0, k+1)
	for i, p := range points {
		if i == idx || !p.Valid() {
			continue
		}
		dx, dy := p.X-src.X, p.Y-src.Y
		n := neighbor{idx: i, dist: dx*dx + dy*dy}
		if len(best) == k && !less(n, best[k-1]) {
			continue
		}
		// insertion into the small sorted window
		pos := sort.Search(len(best), func(j int) bool { return less(n, best[j]) })
		best = append(best, neighbor{})
		copy(best[pos+1:], best[pos:])
		best[pos] = n
		if len(best) > k {
			best = best[:k]
		}
	}
	out := make([]int, len(best))
	for i, n := range best {
		out[i] = n.idx
	}
	return out
}

func less(a, b neighbor) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.idx < b.idx
}
