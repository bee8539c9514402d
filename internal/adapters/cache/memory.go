// Package cache provides metadata caches keyed by source identity.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// MemoryCache is an in-memory cache with TTL support.
type MemoryCache struct {
	entries sync.Map
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// cacheEntry holds cached metadata with expiration.
type cacheEntry struct {
	metadata  domain.Metadata
	expiresAt time.Time // zero means never
}

// NewMemoryCache creates a new in-memory cache with the specified TTL.
// A TTL of zero keeps entries for the lifetime of the process.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{ttl: ttl, stop: make(chan struct{})}
	if ttl > 0 {
		go cache.cleanup()
	}
	return cache
}

// Key returns the cache key for an identity: {kind}:{value}
func Key(id domain.Identity) string {
	return id.String()
}

// Get retrieves metadata from the cache.
// Returns the metadata and true if found and not expired.
func (c *MemoryCache) Get(_ context.Context, id domain.Identity) (*domain.Metadata, bool, error) {
	key := Key(id)
	value, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}

	entry := value.(*cacheEntry)
	if entry.expired(time.Now()) {
		c.entries.Delete(key)
		return nil, false, nil
	}

	m := entry.metadata.Clone()
	return &m, true, nil
}

// Put stores metadata in the cache with the configured TTL.
func (c *MemoryCache) Put(_ context.Context, id domain.Identity, m domain.Metadata) error {
	now := time.Now()
	m = m.Clone()
	m.Touch(now)

	entry := &cacheEntry{metadata: m}
	if c.ttl > 0 {
		entry.expiresAt = now.Add(c.ttl)
	}
	c.entries.Store(Key(id), entry)
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// cleanup periodically removes expired entries from the cache.
func (c *MemoryCache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.entries.Range(func(key, value interface{}) bool {
				if value.(*cacheEntry).expired(now) {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}
