package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"badgehub/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is the read cache for award and credential lookups. Values are
// JSON-serialized; Get deserializes into dest and reports whether the key
// was present.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Health(ctx context.Context) error
	Close() error
}

// NewCache creates a cache for the configured provider
func NewCache(cfg *config.CacheConfig, logger *zap.Logger) (Cache, error) {
	switch cfg.Provider {
	case "redis":
		return newRedisCache(cfg, logger)
	case "memory":
		return newMemoryCache(logger), nil
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.Provider)
	}
}

// ===============================
// REDIS PROVIDER
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

func newRedisCache(cfg *config.CacheConfig, logger *zap.Logger) (*redisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache connected", zap.String("addr", cfg.RedisURL))

	return &redisCache{client: client, logger: logger}, nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache get failed", zap.Error(err), zap.String("key", key))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Cache value decode failed", zap.Error(err), zap.String("key", key))
		return false
	}
	return true
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// ===============================
// MEMORY PROVIDER
// ===============================

// memoryCache is the development/test provider; the service must function
// without a Redis deployment.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	logger  *zap.Logger
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func newMemoryCache(logger *zap.Logger) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		logger:  logger,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false
	}
	return json.Unmarshal(entry.data, dest) == nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Health(ctx context.Context) error {
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}
