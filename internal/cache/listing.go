// Package cache keeps serialized upcoming-event listings in Redis.
//
// Entries are keyed by a generation number. Invalidate bumps the generation,
// which orphans every entry at once; orphans expire with their TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Priya8975/event-registration-service/internal/metrics"
)

const (
	DefaultTTL    = 30 * time.Second
	defaultPrefix = "events:listing"
)

type ListingCache struct {
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

type Option func(*ListingCache)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ListingCache) { c.metrics = m }
}

// WithPrefix namespaces keys, mostly so tests can share a server.
func WithPrefix(prefix string) Option {
	return func(c *ListingCache) { c.prefix = prefix }
}

func NewListingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger, opts ...Option) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ListingCache{
		client: client,
		ttl:    ttl,
		prefix: defaultPrefix,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ListingCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *ListingCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key)
}

// GetOrLoad returns the cached bytes for key, or calls load and caches its
// result. Concurrent misses for the same key share one load. Redis failures
// fall through to load; only load errors are returned.
func (c *ListingCache) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("listing cache unavailable", "error", err)
		c.metrics.ObserveCache("error")
		return load(ctx)
	}

	full := c.entryKey(gen, key)
	data, err := c.client.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		c.metrics.ObserveCache("hit")
		return data, nil
	case errors.Is(err, redis.Nil):
		c.metrics.ObserveCache("miss")
	default:
		c.logger.Warn("listing cache read failed", "key", full, "error", err)
		c.metrics.ObserveCache("error")
		return load(ctx)
	}

	v, err, _ := c.group.Do(full, func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(context.WithoutCancel(ctx), full, data, c.ttl).Err(); err != nil {
			c.logger.Warn("listing cache write failed", "key", full, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate makes every cached listing stale.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bumping listing cache generation: %w", err)
	}
	return nil
}

func (c *ListingCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading listing cache generation: %w", err)
	}
	return gen, nil
}
