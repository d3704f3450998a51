// Package dataset loads projected points and clusters from the files the projection
// collaborator writes, and watches those files for changes.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/starmap/internal/models"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

const idPrefix = "dataset:"

// Source loads a complete dataset. Every call returns a fresh dataset; nothing is shared
// between loads.
type Source interface {
	Load(ctx context.Context) (*models.Dataset, error)
	Path() string
}

// Open picks a source for path by its extension.
func Open(path string) (Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dataset path: %w", err)
	}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".json":
		return &JSONSource{path: abs}, nil
	case ".db", ".sqlite", ".sqlite3":
		return &SQLiteSource{path: abs}, nil
	case ".xlsx":
		return &XLSXSource{path: abs}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(abs))
}

// ID returns a stable dataset ID for the given path. Same cleaned path, same ID.
func ID(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return idPrefix + hex.EncodeToString(hash[:])
}

// finish stamps the dataset. started is when the read began, so a slow load of older file
// contents never looks newer than a quicker load that started after it.
func finish(ds *models.Dataset, path string, started time.Time) *models.Dataset {
	ds.ID = ID(path)
	ds.LoadedAt = started
	return ds
}

// coord turns an optional value into a coordinate; missing values become NaN so the
// point is skipped at render time instead of drawn at the origin.
func coord(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
