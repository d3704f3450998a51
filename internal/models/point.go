// Package models defines the data structures shared by the viewer: points, clusters,
// datasets and similarity maps.
package models

import (
	"math"
	"time"
)

// Point is one projected embedding in normalized world space [0,1]x[0,1].
// X and Y are assigned by the projection collaborator and never modified afterwards.
type Point struct {
	ID         string  `json:"id" yaml:"id"`
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
	TokenCount int     `json:"token_count,omitempty" yaml:"token_count,omitempty"`
	Label      string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Valid reports whether the point has usable coordinates.
func (p Point) Valid() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Cluster is a decorative label anchored at a cluster centroid. Clusters never take part in hit-testing.
type Cluster struct {
	Label    string   `json:"label" yaml:"label"`
	X        float64  `json:"x" yaml:"x"`
	Y        float64  `json:"y" yaml:"y"`
	PointIDs []string `json:"point_ids" yaml:"point_ids"`
}

// Valid reports whether the cluster centroid has usable coordinates.
func (c Cluster) Valid() bool {
	return isFinite(c.X) && isFinite(c.Y)
}

// Dataset is one load of points and clusters. It is replaced wholesale on reload.
type Dataset struct {
	ID       string    `json:"id"`
	Points   []Point   `json:"points"`
	Clusters []Cluster `json:"clusters"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of points, valid or not. Safe on a nil dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Points)
}

// IndexOf returns the index of the point with the given id, or -1.
func (d *Dataset) IndexOf(id string) int {
	if d == nil {
		return -1
	}
	for i := range d.Points {
		if d.Points[i].ID == id {
			return i
		}
	}
	return -1
}

// ScreenPoint is the per-frame projection of a Point. OK is false for points that were
// skipped (malformed) in the current frame.
type ScreenPoint struct {
	X  float64
	Y  float64
	OK bool
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
