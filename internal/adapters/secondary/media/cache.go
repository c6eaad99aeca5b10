package media

import (
	"image"
	"sync"
	"time"
)

// CacheStats is a snapshot of cache counters. HitRate is a percentage.
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize"`
	HitRate   float64 `json:"hitRate"`
}

// ImageCache keeps decoded images by reference so repeated exports do not
// fetch the same background again
type ImageCache struct {
	mu      sync.Mutex
	images  map[string]*cachedImage
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits, misses, evictions int64
}

type cachedImage struct {
	img       image.Image
	expiresAt time.Time
	lastHit   time.Time
}

// NewImageCache creates a cache holding at most maxSize images for ttl.
// A ttl of 0 never expires entries.
func NewImageCache(maxSize int, ttl time.Duration) *ImageCache {
	return &ImageCache{
		images:  make(map[string]*cachedImage),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a cached image
func (c *ImageCache) Get(ref string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.images[ref]
	if !ok {
		c.misses++
		return nil, false
	}
	now := c.now()
	if c.ttl > 0 && now.After(cached.expiresAt) {
		delete(c.images, ref)
		c.evictions++
		c.misses++
		return nil, false
	}

	c.hits++
	cached.lastHit = now
	return cached.img, true
}

// Set stores an image, evicting the least recently used one when full
func (c *ImageCache) Set(ref string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.images[ref]; !exists && c.maxSize > 0 && len(c.images) >= c.maxSize {
		c.evictLRU()
	}

	now := c.now()
	entry := &cachedImage{img: img, lastHit: now}
	if c.ttl > 0 {
		entry.expiresAt = now.Add(c.ttl)
	}
	c.images[ref] = entry
}

// Clear drops every cached image
func (c *ImageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = make(map[string]*cachedImage)
}

func (c *ImageCache) evictLRU() {
	var (
		evictRef string
		oldest   time.Time
	)
	for ref, cached := range c.images {
		if evictRef == "" || cached.lastHit.Before(oldest) {
			evictRef, oldest = ref, cached.lastHit
		}
	}
	if evictRef != "" {
		delete(c.images, evictRef)
		c.evictions++
	}
}

// Stats returns cache statistics
func (c *ImageCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.images),
		MaxSize:   c.maxSize,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total) * 100
	}
	return stats
}
