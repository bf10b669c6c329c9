package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/buildsight/marksearch/pkg/observability"
)

// SuggestionCache is a two-tier cache for suggestion lookups: an in-process
// expirable LRU (L1) and an optional shared Redis tier (L2). Suggestions are
// derived data, so staleness up to the TTL is acceptable.
type SuggestionCache struct {
	l1      *lru.LRU[string, []string]
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewSuggestionCache creates a suggestion cache. redisClient and metrics
// may be nil.
func NewSuggestionCache(size int, ttl time.Duration, redisClient *redis.Client, metrics *observability.Metrics) *SuggestionCache {
	if size < 16 {
		size = 16
	}
	return &SuggestionCache{
		l1:      lru.NewLRU[string, []string](size, nil, ttl),
		redis:   redisClient,
		ttl:     ttl,
		metrics: metrics,
	}
}

func cacheKey(prefix string, limit int) string {
	return fmt.Sprintf("suggest:%s:%d", prefix, limit)
}

// Get returns cached suggestions for (prefix, limit), promoting L2 hits
// into L1.
func (c *SuggestionCache) Get(ctx context.Context, prefix string, limit int) ([]string, bool) {
	key := cacheKey(prefix, limit)

	if suggestions, ok := c.l1.Get(key); ok {
		c.hit("l1")
		return suggestions, true
	}
	c.miss("l1")

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		c.miss("l2")
		return nil, false
	}
	var suggestions []string
	if err := json.Unmarshal(data, &suggestions); err != nil {
		c.miss("l2")
		return nil, false
	}
	c.hit("l2")
	c.l1.Add(key, suggestions)
	return suggestions, true
}

// Set stores suggestions in both tiers. Redis failures are ignored; the
// cache is best-effort.
func (c *SuggestionCache) Set(ctx context.Context, prefix string, limit int, suggestions []string) {
	key := cacheKey(prefix, limit)
	c.l1.Add(key, suggestions)

	if c.redis == nil {
		return
	}
	if data, err := json.Marshal(suggestions); err == nil {
		c.redis.Set(ctx, key, data, c.ttl)
	}
}

// Purge drops all L1 entries. Called after a suggestion refresh so new
// terms become visible without waiting out the TTL.
func (c *SuggestionCache) Purge() {
	c.l1.Purge()
}

func (c *SuggestionCache) hit(tier string) {
	if c.metrics != nil {
		c.metrics.SuggestCacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *SuggestionCache) miss(tier string) {
	if c.metrics != nil {
		c.metrics.SuggestCacheMissesTotal.WithLabelValues(tier).Inc()
	}
}
