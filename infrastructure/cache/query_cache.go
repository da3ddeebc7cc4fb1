package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
)

// DefaultTTL bounds how long a cached query result stays valid when no
// explicit TTL is configured.
const DefaultTTL = 30 * time.Minute

// QueryCache implements cache-aside over the cache port. A nil backing
// cache disables caching entirely: every read goes to the factory.
// Cache failures degrade to a recompute and never fail the caller.
type QueryCache struct {
	cache  ports.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewQueryCache creates a query cache. Pass a nil cache to bypass caching.
func NewQueryCache(cache ports.Cache, ttl time.Duration, logger *zap.Logger) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache{cache: cache, ttl: ttl, logger: logger}
}

// Enabled reports whether a backing cache is configured.
func (q *QueryCache) Enabled() bool {
	return q != nil && q.cache != nil
}

// Invalidate drops the given keys so the next read recomputes.
func (q *QueryCache) Invalidate(ctx context.Context, keys ...string) error {
	if !q.Enabled() {
		return nil
	}
	return q.cache.Delete(ctx, keys...)
}

// GetOrCompute returns the cached value under key, or runs factory and
// caches its result under the cache's configured TTL. A corrupted cache
// entry is dropped and recomputed. Factory failures are returned as-is
// and never cached.
func GetOrCompute[T any](ctx context.Context, q *QueryCache, key string, factory func(ctx context.Context) (T, error)) (T, error) {
	return GetOrComputeTTL(ctx, q, key, 0, factory)
}

// GetOrComputeTTL is GetOrCompute with a per-call TTL. A ttl <= 0 falls
// back to the cache's configured TTL.
func GetOrComputeTTL[T any](ctx context.Context, q *QueryCache, key string, ttl time.Duration, factory func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !q.Enabled() {
		return factory(ctx)
	}
	if ttl <= 0 {
		ttl = q.ttl
	}

	raw, ok, err := q.cache.Get(ctx, key)
	if err != nil {
		q.logger.Warn("cache read failed, recomputing", zap.String("key", key), zap.Error(err))
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		q.logger.Warn("dropping corrupted cache entry", zap.String("key", key))
		if err := q.cache.Delete(ctx, key); err != nil {
			q.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := factory(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		q.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := q.cache.Set(ctx, key, encoded, ttl); err != nil {
		q.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
