package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/redis/go-redis/v9"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
)

// ErrCacheMiss is returned by a Cache that holds no value for a key.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores resolved coordinates.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	Client *redis.Client
}

// Get implements Cache.
func (c RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

// Set implements Cache.
func (c RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

type cachingResolver struct {
	cache  Cache
	next   location.Resolver
	ttl    time.Duration
	logger log.Logger
}

// NewCachingResolver returns a resolver that remembers the coordinates next
// resolves for ttl. Cache failures are logged and never fail a resolution.
func NewCachingResolver(cache Cache, next location.Resolver, ttl time.Duration, logger log.Logger) location.Resolver {
	return &cachingResolver{cache: cache, next: next, ttl: ttl, logger: logger}
}

func cacheKey(name string) string {
	return "geocode:" + location.NormalizeName(name)
}

func (r *cachingResolver) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	key := cacheKey(name)

	v, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c geo.Coordinate
		if err := json.Unmarshal([]byte(v), &c); err == nil {
			return c, nil
		}
		level.Warn(r.logger).Log("msg", "discarding malformed cache entry", "key", key)
	case !errors.Is(err, ErrCacheMiss):
		level.Warn(r.logger).Log("msg", "geocode cache read failed", "key", key, "err", err)
	}

	c, err := r.next.Resolve(ctx, name)
	if err != nil {
		return geo.Coordinate{}, err
	}

	b, err := json.Marshal(c)
	if err != nil {
		level.Warn(r.logger).Log("msg", "geocode not cached", "key", key, "err", err)
		return c, nil
	}
	if err := r.cache.Set(ctx, key, string(b), r.ttl); err != nil {
		level.Warn(r.logger).Log("msg", "geocode cache write failed", "key", key, "err", err)
	}
	return c, nil
}
