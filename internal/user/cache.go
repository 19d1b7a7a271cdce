package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// NameCache memoizes display names. Implementations must be safe for
// concurrent use.
type NameCache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Set(ctx context.Context, userID, name string)
	Invalidate(ctx context.Context, userID string)
	Clear(ctx context.Context)
}

// MemoryNameCache is an in-process NameCache with TTL and an entry cap.
type MemoryNameCache struct {
	items      *cache.Cache
	maxEntries int
}

// NewMemoryNameCache creates a bounded in-process cache. maxEntries <= 0
// disables the cap.
func NewMemoryNameCache(ttl time.Duration, maxEntries int) *MemoryNameCache {
	return &MemoryNameCache{
		items:      cache.New(ttl, 2*ttl),
		maxEntries: maxEntries,
	}
}

func (c *MemoryNameCache) Get(_ context.Context, userID string) (string, bool) {
	v, ok := c.items.Get(userID)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// Set stores a name. A full cache is first purged of expired entries and
// flushed when that frees nothing.
func (c *MemoryNameCache) Set(_ context.Context, userID, name string) {
	if c.maxEntries > 0 && c.items.ItemCount() >= c.maxEntries {
		if _, exists := c.items.Get(userID); !exists {
			c.items.DeleteExpired()
			if c.items.ItemCount() >= c.maxEntries {
				c.items.Flush()
			}
		}
	}
	c.items.SetDefault(userID, name)
}

func (c *MemoryNameCache) Invalidate(_ context.Context, userID string) {
	c.items.Delete(userID)
}

func (c *MemoryNameCache) Clear(context.Context) {
	c.items.Flush()
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryNameCache) Len() int {
	return c.items.ItemCount()
}

// RedisNameCache shares display names between instances through Redis.
// Redis failures degrade to cache misses.
type RedisNameCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// DefaultRedisPrefix namespaces display name keys.
const DefaultRedisPrefix = "foodlog:name:"

// NewRedisNameCache creates a Redis backed cache.
func NewRedisNameCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisNameCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNameCache{
		client: client,
		prefix: DefaultRedisPrefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisNameCache) Get(ctx context.Context, userID string) (string, bool) {
	name, err := c.client.Get(ctx, c.prefix+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis name cache get failed", "user_id", userID, "error", err)
		}
		return "", false
	}
	return name, true
}

func (c *RedisNameCache) Set(ctx context.Context, userID, name string) {
	if err := c.client.Set(ctx, c.prefix+userID, name, c.ttl).Err(); err != nil {
		c.logger.Warn("redis name cache set failed", "user_id", userID, "error", err)
	}
}

func (c *RedisNameCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, c.prefix+userID).Err(); err != nil {
		c.logger.Warn("redis name cache delete failed", "user_id", userID, "error", err)
	}
}

// Clear removes every key under the cache prefix.
func (c *RedisNameCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("redis name cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis name cache clear failed", "error", err)
	}
}

// NewRedisClient creates a Redis client from a URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
