package tile

import (
	"fmt"
	"image"
	"sync"
)

// DefaultCacheSize is the tile capacity used when none is configured.
const DefaultCacheSize = 100

// Key addresses one tile in the consumer's level/column/row numbering.
type Key struct {
	Level, X, Y int
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%d-%d", k.Level, k.X, k.Y)
}

// Cache is a bounded key to raster mapping with first-in-first-out
// eviction.  Insertion order alone determines eviction order: a Get
// does not refresh an entry's priority.  See DESIGN.md before changing
// the FIFO policy.
type Cache struct {
	mu      sync.Mutex
	max     int
	rasters map[Key]*image.RGBA
	order   []Key // insertion order, oldest first
}

// NewCache returns a cache holding at most max tiles, DefaultCacheSize
// if max is not positive.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		max:     max,
		rasters: make(map[Key]*image.RGBA, max),
	}
}

// Get is a pure lookup with no effect on eviction order.
func (c *Cache) Get(k Key) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raster, found := c.rasters[k]
	return raster, found
}

// Put inserts a raster, evicting the single oldest-inserted entry first
// if the cache is full.  Re-inserting a present key replaces its raster
// without changing its position in the eviction order.
func (c *Cache) Put(k Key, raster *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.rasters[k]; found {
		c.rasters[k] = raster
		return
	}
	if len(c.rasters) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.rasters, oldest)
	}
	c.rasters[k] = raster
	c.order = append(c.order, k)
}

// Len returns the number of cached tiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rasters)
}
