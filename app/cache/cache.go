// Package cache is the small key/value layer behind the models list and the
// health probe. The process-local implementation is the default; Redis is
// used when repositories.redis.url is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes a cached value into dst. A corrupt entry is deleted and
// reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		_ = c.Delete(ctx, key)
		return ErrMiss
	}
	return nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// RoundTrip writes and reads back a short-lived key. The health endpoint uses
// it as its cache probe.
func RoundTrip(ctx context.Context, c Cache) error {
	const key = "health_check"
	if err := c.Set(ctx, key, []byte("ok"), time.Second); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	v, err := c.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	if string(v) != "ok" {
		return fmt.Errorf("cache returned %q", v)
	}
	return nil
}

// MemoryCache wraps go-cache.
type MemoryCache struct {
	c *gocache.Cache
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemoryCache) Close() error {
	m.c.Flush()
	return nil
}

// New picks the implementation for the configured redis URL.
func New(ctx context.Context, redisURL string, logger *slog.Logger) (Cache, error) {
	if redisURL == "" {
		logger.Info("Using in-process cache")
		return NewMemoryCache(5*time.Minute, 10*time.Minute), nil
	}
	rc, err := NewRedisCache(ctx, redisURL, "multigenqa")
	if err != nil {
		return nil, err
	}
	logger.Info("Using redis cache")
	return rc, nil
}
