package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tessara/linkgate/internal/app/model"
)

// RedisCache is the Redis-backed resolution cache shared by all edge
// instances. Entries are stored as JSON with a retention TTL longer than the
// freshness horizon, leaving a stale window for origin-outage fallback.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	horizon   time.Duration
	retention time.Duration
}

// NewRedis builds a RedisCache. retention must be at least horizon;
// anything shorter is raised to it.
func NewRedis(client *redis.Client, keyPrefix string, horizon, retention time.Duration) *RedisCache {
	if retention < horizon {
		retention = horizon
	}
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		horizon:   horizon,
		retention: retention,
	}
}

func (c *RedisCache) key(code string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, code)
}

func (c *RedisCache) Lookup(ctx context.Context, code string) (*model.CacheEntry, bool, error) {
	data, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}

	var entry model.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// A corrupt entry is treated as a miss; the next populate replaces it.
		return nil, false, nil
	}

	return &entry, time.Since(entry.FetchedAt) < c.horizon, nil
}

func (c *RedisCache) Populate(ctx context.Context, code, destination string) error {
	entry := model.CacheEntry{
		Destination: destination,
		FetchedAt:   time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}

	if err := c.client.Set(ctx, c.key(code), data, c.retention).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}
