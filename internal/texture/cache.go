package texture

import (
	"image"
	"sync"
)

// Cache is a concurrency-safe image cache keyed by file path. A failed
// load is cached as nil so a missing file is only stat'd once.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
}

type cacheEntry struct {
	img *image.NRGBA
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]*cacheEntry)}
}

// Resolve loads and caches an image by path. Returns nil if the file
// could not be read or decoded.
func (c *Cache) Resolve(path string) *image.NRGBA {
	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, _ := Load(path)

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		return entry.img
	}
	c.items[path] = &cacheEntry{img: img}
	c.mu.Unlock()

	return img
}
