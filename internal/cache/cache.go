// Package cache stores the account's plan features between checks.
package cache

import (
	"context"
	"sync"
	"time"

	"ecomsync/internal/logger"
)

// FeatureCache keeps plan feature flags for a limited time.
type FeatureCache interface {
	// Get returns the cached flag. found is false on a miss.
	Get(ctx context.Context, name string) (enabled, found bool, err error)
	Set(ctx context.Context, name string, enabled bool, ttl time.Duration) error
	Delete(ctx context.Context, name string) error
}

type memoryEntry struct {
	enabled bool
	expires time.Time
}

// MemoryFeatureCache is a process-local FeatureCache, used when no Redis is
// configured.
type MemoryFeatureCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryFeatureCache() *MemoryFeatureCache {
	return &MemoryFeatureCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryFeatureCache) Get(ctx context.Context, name string) (bool, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return false, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		delete(c.entries, name)
		c.mu.Unlock()
		return false, false, nil
	}
	return e.enabled, true, nil
}

// Set stores the flag. A zero ttl keeps it until deleted.
func (c *MemoryFeatureCache) Set(ctx context.Context, name string, enabled bool, ttl time.Duration) error {
	e := memoryEntry{enabled: enabled}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[name] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryFeatureCache) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
	return nil
}

// New returns a Redis-backed cache when url is set, else a memory cache.
func New(ctx context.Context, url string, logger *logger.Logger) (FeatureCache, error) {
	if url == "" {
		logger.Warn("REDIS_URL not set, plan features are cached in memory")
		return NewMemoryFeatureCache(), nil
	}
	return NewRedisFeatureCache(ctx, url, logger)
}
