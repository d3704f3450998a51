package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hyperjump/starmap/internal/models"
)

// JSONSource reads {"points": [...], "clusters": [...]} files.
type JSONSource struct {
	path string
}

// NewJSONSource returns a source for the JSON file at path.
func NewJSONSource(path string) *JSONSource { return &JSONSource{path: path} }

type jsonPoint struct {
	ID         string   `json:"id"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	TokenCount int      `json:"token_count"`
	Label      string   `json:"label"`
}

type jsonCluster struct {
	Label    string   `json:"label"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	PointIDs []string `json:"point_ids"`
}

type jsonFile struct {
	Points   []jsonPoint   `json:"points"`
	Clusters []jsonCluster `json:"clusters"`
}

// Path returns the file path.
func (s *JSONSource) Path() string { return s.path }

// Load reads and decodes the file. Points with missing coordinates are kept with NaN coordinates.
func (s *JSONSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return decodeJSON(data, s.path, started)
}

// DecodeJSON decodes dataset JSON. path only feeds the dataset ID.
func DecodeJSON(data []byte, path string) (*models.Dataset, error) {
	return decodeJSON(data, path, time.Now())
}

func decodeJSON(data []byte, path string, started time.Time) (*models.Dataset, error) {
	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	ds := &models.Dataset{
		Points:   make([]models.Point, 0, len(f.Points)),
		Clusters: make([]models.Cluster, 0, len(f.Clusters)),
	}
	for _, p := range f.Points {
		ds.Points = append(ds.Points, models.Point{
			ID:         p.ID,
			X:          coord(p.X),
			Y:          coord(p.Y),
			TokenCount: p.TokenCount,
			Label:      p.Label,
		})
	}
	for _, c := range f.Clusters {
		ds.Clusters = append(ds.Clusters, models.Cluster{
			Label:    c.Label,
			X:        coord(c.X),
			Y:        coord(c.Y),
			PointIDs: c.PointIDs,
		})
	}
	return finish(ds, path, started), nil
}
