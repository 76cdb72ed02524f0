// Package cache is the read-through result cache in front of the search
// engine. Lookups fail open: any store error is treated as a miss so the
// search path never depends on cache availability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/classima/searchd/internal/db"
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Cache caches JSON-encoded results in a key-value store.
type Cache struct {
	store           store
	lookupsTotal    *prometheus.CounterVec
	invalidatedKeys prometheus.Counter
	logger          *zap.Logger
}

// New creates a result cache.
// lookupsTotal is a counter vec with label "result" ("hit"/"miss"),
// invalidatedKeys counts keys dropped by Invalidate; both passed explicitly.
func New(
	s store,
	lookupsTotal *prometheus.CounterVec,
	invalidatedKeys prometheus.Counter,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:           s,
		lookupsTotal:    lookupsTotal,
		invalidatedKeys: invalidatedKeys,
		logger:          logger,
	}
}

// Get decodes a cached value into v. Missing keys, store errors and decode
// failures all report a miss.
func (c *Cache) Get(ctx context.Context, key string, v any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cache", zap.String("key", key), zap.Error(err))
		}
		c.incLookup("miss")
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Failed to decode cached value", zap.String("key", key), zap.Error(err))
		c.incLookup("miss")
		return false
	}

	c.incLookup("hit")
	return true
}

// Set stores a value with a TTL. Write failures are logged and swallowed;
// the result was already computed and a stale cache heals on expiry.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every key matching the pattern.
func (c *Cache) Invalidate(ctx context.Context, pattern string) error {
	keys, err := c.store.Scan(ctx, pattern)
	if err != nil {
		return fmt.Errorf("scan %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate %q: %w", pattern, err)
	}
	if c.invalidatedKeys != nil {
		c.invalidatedKeys.Add(float64(len(keys)))
	}
	return nil
}

func (c *Cache) incLookup(result string) {
	if c.lookupsTotal != nil {
		c.lookupsTotal.WithLabelValues(result).Inc()
	}
}
