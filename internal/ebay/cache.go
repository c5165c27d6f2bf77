package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raine/listing-generator/internal/listing"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "listing-generator:comparables:"

// Cache stores comparable search results. Get reports a miss with ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (comparables []listing.Comparable, ok bool, err error)
	Set(ctx context.Context, key string, comparables []listing.Comparable, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL, which may be a redis:// URL or a bare
// host:port address, and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]listing.Comparable, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var comparables []listing.Comparable
	if err := json.Unmarshal(data, &comparables); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached comparables: %w", err)
	}
	return comparables, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, comparables []listing.Comparable, ttl time.Duration) error {
	data, err := json.Marshal(comparables)
	if err != nil {
		return fmt.Errorf("failed to encode comparables: %w", err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// CachedSearcher wraps a Searcher with a result cache. Cache errors are
// logged and ignored; live errors are never cached.
type CachedSearcher struct {
	inner Searcher
	cache Cache
	ttl   time.Duration
}

func NewCachedSearcher(inner Searcher, cache Cache, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{inner: inner, cache: cache, ttl: ttl}
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%s%d:%s", cacheKeyPrefix, limit, strings.ToLower(strings.TrimSpace(query)))
}

func (c *CachedSearcher) Search(ctx context.Context, query string, limit int) ([]listing.Comparable, error) {
	key := cacheKey(query, limit)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("failed to check comparables cache")
	} else if ok {
		log.Debug().Str("query", query).Msg("comparables cache hit")
		return cached, nil
	}

	comparables, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, comparables, c.ttl); err != nil {
		log.Warn().Err(err).Str("query", query).Msg("failed to cache comparables")
	}
	return comparables, nil
}
