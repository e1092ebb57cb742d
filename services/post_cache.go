package services

import (
	"context"
	"sync"
	"time"

	"github.com/rpupo63/collage-backend/models"
)

// ListingCache holds the full reconciled listing (hidden posts included)
// for a TTL. A zero TTL disables caching.
type ListingCache struct {
	mu      sync.RWMutex
	posts   []models.PostSummary
	fetched time.Time
	ttl     time.Duration
	load    func(ctx context.Context) ([]models.PostSummary, error)
}

// NewListingCache creates a ListingCache filled by load.
func NewListingCache(ttl time.Duration, load func(ctx context.Context) ([]models.PostSummary, error)) *ListingCache {
	return &ListingCache{ttl: ttl, load: load}
}

func (c *ListingCache) valid() bool {
	return c.ttl > 0 && c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// Get returns the cached listing, reloading it when stale. Callers must not
// modify the returned slice.
func (c *ListingCache) Get(ctx context.Context) ([]models.PostSummary, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	if c.ttl <= 0 {
		return c.load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}

	posts, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.PostSummary{}
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}
