// Package render owns the per-session view state and produces frames from it.
//
// A Scene is owned by exactly one goroutine. The Loop type runs that goroutine for headless
// hosts and funnels every host mutation through it between frames; the desktop host owns its
// Scene on the ebiten game goroutine instead.
package render

import (
	"github.com/hyperjump/starmap/internal/camera"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/spatial"
)

// Scene is the mutable state of one visualization session. Not safe for concurrent use.
type Scene struct {
	cam      *camera.Camera
	dataset  *models.Dataset
	sims     models.SimilarityMap
	hovered  int
	cellSize float64
	rev      uint64

	// per-frame projection cache, valid only for the recorded camera/viewport/revision
	screen    []models.ScreenPoint
	grid      *spatial.Grid
	projected bool
	projCam   camera.State
	projVP    camera.Viewport
	projRev   uint64
}

// NewScene returns an empty scene viewed through cam.
func NewScene(cam *camera.Camera, cellSize float64) *Scene {
	return &Scene{cam: cam, cellSize: cellSize, hovered: -1}
}

// Camera returns the scene camera.
func (s *Scene) Camera() *camera.Camera { return s.cam }

// SetDataset replaces points and clusters wholesale. Hover is cleared.
func (s *Scene) SetDataset(ds *models.Dataset) {
	s.dataset = ds
	s.hovered = -1
	s.rev++
}

// Dataset returns the current dataset, possibly nil.
func (s *Scene) Dataset() *models.Dataset { return s.dataset }

// Points returns the current points (nil when no dataset is loaded).
func (s *Scene) Points() []models.Point {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.Points
}

// Clusters returns the current clusters.
func (s *Scene) Clusters() []models.Cluster {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.Clusters
}

// SetSimilarities replaces the similarity map. nil or empty clears the search.
func (s *Scene) SetSimilarities(m models.SimilarityMap) {
	s.sims = m.Clone()
}

// Similarities returns the active similarity map, possibly nil.
func (s *Scene) Similarities() models.SimilarityMap { return s.sims }

// Hovered returns the hovered point index, or -1.
func (s *Scene) Hovered() int { return s.hovered }

// SetHovered records the hovered point index; out-of-range values clear it.
func (s *Scene) SetHovered(i int) {
	if i < 0 || i >= len(s.Points()) {
		i = -1
	}
	s.hovered = i
}

// Resize changes the surface size, keeping the margin.
func (s *Scene) Resize(w, h float64) {
	vp := s.cam.Viewport()
	if vp.Width == w && vp.Height == h {
		return
	}
	vp.Width, vp.Height = w, h
	s.cam.SetViewport(vp)
}

// Project recomputes every screen position and rebuilds the spatial index.
// Malformed points get OK=false and are left out of the index.
func (s *Scene) Project() {
	pts := s.Points()
	if cap(s.screen) < len(pts) {
		s.screen = make([]models.ScreenPoint, len(pts))
	}
	s.screen = s.screen[:len(pts)]
	for i, p := range pts {
		if !p.Valid() {
			s.screen[i] = models.ScreenPoint{}
			continue
		}
		sx, sy := s.cam.WorldToScreen(p.X, p.Y)
		s.screen[i] = models.ScreenPoint{X: sx, Y: sy, OK: true}
	}
	s.grid = spatial.Build(s.screen, s.cellSize)
	s.projected = true
	s.projCam = s.cam.State()
	s.projVP = s.cam.Viewport()
	s.projRev = s.rev
}

// Index returns a spatial index consistent with the current camera and dataset,
// re-projecting first if either changed since the last pass.
func (s *Scene) Index() *spatial.Grid {
	s.ensureFresh()
	return s.grid
}

// Projections returns the screen positions of all points, fresh for the current camera.
// The slice is reused by the next projection pass.
func (s *Scene) Projections() []models.ScreenPoint {
	s.ensureFresh()
	return s.screen
}

func (s *Scene) ensureFresh() {
	if !s.projected || s.projRev != s.rev || s.projCam != s.cam.State() || s.projVP != s.cam.Viewport() {
		s.Project()
	}
}
