package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/starmap/internal/models"
)

func TestWatcher_reloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	writeFile(t, path, `{"points":[{"id":"a","x":0.1,"y":0.1}]}`)

	loaded := make(chan *models.Dataset, 4)
	w := NewWatcher(NewJSONSource(path), func(ds *models.Dataset) { loaded <- ds },
		WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, path, `{"points":[{"id":"a","x":0.1,"y":0.1},{"id":"b","x":0.2,"y":0.2}]}`)

	select {
	case ds := <-loaded:
		if len(ds.Points) != 2 {
			t.Errorf("expected 2 points after reload, got %d", len(ds.Points))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dataset was not reloaded")
	}
}

func TestWatcher_ignoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.json")
	writeFile(t, path, `{"points":[]}`)

	loaded := make(chan *models.Dataset, 1)
	w := NewWatcher(NewJSONSource(path), func(ds *models.Dataset) { loaded <- ds },
		WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.json"), `{}`)
	select {
	case <-loaded:
		t.Error("unrelated file triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_stopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	writeFile(t, path, `{}`)
	w := NewWatcher(NewJSONSource(path), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
