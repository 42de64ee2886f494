// Package cache implements the cache-aside layer in front of the event
// store. The backend is optional infrastructure: every failure degrades to
// computing the value directly, never to a failed request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// versionKey holds the listing data version. Every event mutation bumps it,
// which changes all listing cache keys and so invalidates stale entries.
const versionKey = "events:ver"

// Store is the backing key/value store with TTL support.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache wraps a Store with logging and the listing data version.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// New returns a Cache over the given store. A nil store disables caching.
func New(store Store, logger *slog.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// Version returns the current listing data version (0 when never bumped).
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.store == nil {
		return 0, ErrMiss
	}
	raw, err := c.store.Get(ctx, versionKey)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// BumpVersion invalidates all listing cache entries. Best effort: failures
// are logged and swallowed, since a cache outage must not fail mutations.
func (c *Cache) BumpVersion(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	if _, err := c.store.Incr(ctx, versionKey); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "cache version bump failed", "err", err)
	}
}

// GetOrCompute returns the cached value under key, or computes, stores, and
// returns it. Backend errors fall back to compute and the result is returned
// uncached. A computed value serializing to JSON null is not stored.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	var zero T
	if c == nil || c.store == nil {
		return compute()
	}

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		// Unreadable entry: treat as a miss and recompute.
	} else if !errors.Is(err, ErrMiss) && c.logger != nil {
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
	}

	v, err := compute()
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return v, nil
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
	return v, nil
}
