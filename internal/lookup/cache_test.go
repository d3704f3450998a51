package lookup

import (
	"testing"

	"github.com/hyperjump/starmap/internal/models"
)

func TestResultCache(t *testing.T) {
	c := newResultCache(2)
	c.Set("a", models.SimilarityMap{"x": 1})
	c.Set("b", models.SimilarityMap{"y": 1})

	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	// a is now most recent, so b is evicted
	c.Set("c", models.SimilarityMap{"z": 1})
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}
}

func TestResultCache_disabled(t *testing.T) {
	c := newResultCache(0)
	c.Set("a", models.SimilarityMap{"x": 1})
	if _, ok := c.Get("a"); ok {
		t.Error("zero capacity cache should not store")
	}
}
