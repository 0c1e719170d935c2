// Package cache memoizes search responses in Redis so repeated queries
// skip ranking entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/model"
)

const keyPrefix = "websearch:query:"

// QueryCache stores JSON-encoded search responses in Redis with a
// configured TTL. Concurrent identical queries are collapsed into one
// computation through singleflight.
//
// A nil *QueryCache is valid: every method degrades to a no-op or a
// miss, so callers without a configured cache need no branching.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New connects to Redis and verifies the connection with a PING. An
// empty address means the cache is not configured and returns (nil, nil).
func New(cfg config.CacheConfig, logger *slog.Logger) (*QueryCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &QueryCache{
		client: rdb,
		ttl:    cfg.TTL.Std(),
		logger: logger.With("component", "query-cache"),
	}, nil
}

// Get returns the cached response for the query, if any. Redis failures
// are logged and reported as misses rather than propagated: the cache
// never makes a search fail.
func (c *QueryCache) Get(ctx context.Context, tokens []string, limit, offset int) (*model.SearchResponse, bool) {
	if c == nil {
		return nil, false
	}

	key := buildKey(tokens, limit, offset)
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}

	var resp model.SearchResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return &resp, true
}

// Set stores the response for the query. Failures are logged, not
// propagated.
func (c *QueryCache) Set(ctx context.Context, tokens []string, limit, offset int, resp *model.SearchResponse) {
	if c == nil {
		return
	}

	key := buildKey(tokens, limit, offset)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response or computes and caches it.
// Concurrent calls for the same key share one computation. The returned
// bool reports whether the response came from the cache.
func (c *QueryCache) GetOrCompute(ctx context.Context, tokens []string, limit, offset int,
	compute func() (*model.SearchResponse, error),
) (*model.SearchResponse, bool, error) {
	if c == nil {
		resp, err := compute()
		return resp, false, err
	}

	if resp, ok := c.Get(ctx, tokens, limit, offset); ok {
		return resp, true, nil
	}

	key := buildKey(tokens, limit, offset)
	val, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have filled the cache while we queued.
		if resp, ok := c.Get(ctx, tokens, limit, offset); ok {
			return resp, nil
		}
		resp, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, tokens, limit, offset, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*model.SearchResponse), false, nil
}

// Invalidate removes every cached query response. Called after a crawl
// changes the index.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}

	var deleted int64
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counts since construction.
func (c *QueryCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// Close closes the Redis connection.
func (c *QueryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// buildKey derives the cache key from the query shape. Token order
// participates deliberately: ranking is order-sensitive, so differently
// ordered queries must not share an entry.
func buildKey(tokens []string, limit, offset int) string {
	raw := fmt.Sprintf("%s:limit=%d:offset=%d", strings.Join(tokens, " "), limit, offset)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
