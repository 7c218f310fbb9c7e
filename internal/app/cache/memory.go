package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tessara/linkgate/internal/app/model"
)

// MemoryCache is a process-local resolution cache with the same semantics as
// RedisCache. Used for single-instance deployments and deterministic tests.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   map[string]model.CacheEntry
	horizon   time.Duration
	retention time.Duration
}

// NewMemory builds an in-memory cache with the given freshness horizon and
// retention window.
func NewMemory(horizon, retention time.Duration) *MemoryCache {
	if retention < horizon {
		retention = horizon
	}
	return &MemoryCache{
		entries:   make(map[string]model.CacheEntry),
		horizon:   horizon,
		retention: retention,
	}
}

func (c *MemoryCache) Lookup(ctx context.Context, code string) (*model.CacheEntry, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[code]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	age := time.Since(entry.FetchedAt)
	if age >= c.retention {
		// Past retention the entry is gone for all purposes.
		c.mu.Lock()
		delete(c.entries, code)
		c.mu.Unlock()
		return nil, false, nil
	}

	return &entry, age < c.horizon, nil
}

func (c *MemoryCache) Populate(ctx context.Context, code, destination string) error {
	c.mu.Lock()
	c.entries[code] = model.CacheEntry{
		Destination: destination,
		FetchedAt:   time.Now(),
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, code string) error {
	c.mu.Lock()
	delete(c.entries, code)
	c.mu.Unlock()
	return nil
}

// Len reports the number of retained entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
