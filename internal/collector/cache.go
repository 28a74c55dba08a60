package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachingProvider decorates a Provider with a short-lived Redis cache of raw
// info blobs, so bursts of questions about the same ticker share one upstream call.
type CachingProvider struct {
	inner     Provider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ Provider = (*CachingProvider)(nil)

// NewCachingProvider wraps inner. If ttl is 0 it defaults to 30 seconds; an
// empty namespace becomes "quote".
func NewCachingProvider(rdb *redis.Client, ttl time.Duration, inner Provider, namespace string) *CachingProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if namespace == "" {
		namespace = "quote"
	}
	return &CachingProvider{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

func (c *CachingProvider) Name() string { return c.inner.Name() + "+redis" }

// FetchInfo checks the cache first, then falls back to the wrapped provider.
// Cache failures never fail the call.
func (c *CachingProvider) FetchInfo(ctx context.Context, symbol string) (Info, error) {
	if c.rdb == nil {
		return c.inner.FetchInfo(ctx, symbol)
	}

	key := c.cacheKey(symbol)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out Info
		if err := json.Unmarshal(b, &out); err == nil && len(out) > 0 {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.FetchInfo(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingProvider) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, c.inner.Name(), safe(symbol))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return strings.ToUpper(s)
}
