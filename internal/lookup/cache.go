package lookup

import (
	"container/list"
	"sync"

	"github.com/hyperjump/starmap/internal/models"
)

// resultCache is an LRU cache of similarity maps keyed by query.
type resultCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value models.SimilarityMap
}

// newResultCache creates a cache holding at most capacity results. capacity <= 0 disables caching.
func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns a copy of the cached result for key if present.
func (c *resultCache) Get(key string) (models.SimilarityMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value.Clone(), true
	}
	return nil, false
}

// Set stores the result for key, evicting the least recently used entry if at capacity.
func (c *resultCache) Set(key string, value models.SimilarityMap) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Purge drops every entry.
func (c *resultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached entries.
func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
