package texture

import (
	"fmt"
	"image"
	"sync"
)

// Resolver resolves a texture reference to a decoded image.
type Resolver interface {
	Load(texName string) (*image.NRGBA, error)
}

// Cache is a concurrency-safe texture cache. Failed loads are cached too, so
// a broken file is read once.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	if index == nil {
		index = BuildIndex("")
	}
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Load resolves and decodes a texture, caching the outcome by path.
func (c *Cache) Load(texName string) (*image.NRGBA, error) {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil, fmt.Errorf("texture: not found: %s", texName)
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := LoadTexture(path)

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	c.mu.Unlock()

	return img, err
}

// Resolve is Load without the error. Returns nil if the texture is missing
// or unreadable.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	img, _ := c.Load(texName)
	return img
}

// Len returns the number of cached entries, including failures.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
