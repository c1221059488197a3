package predict

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"emotionapi/internal/metrics"
)

// ResultCache is an LRU cache with TTL for prediction results, keyed by the exact input text.
type ResultCache struct {
	lru *expirable.LRU[string, Result]
}

// NewResultCache returns a cache holding at most maxSize results. A ttl of zero disables expiry.
func NewResultCache(maxSize int, ttl time.Duration) *ResultCache {
	onEvict := func(string, Result) {
		metrics.CacheEvictions.WithLabelValues("prediction").Inc()
	}
	return &ResultCache{lru: expirable.NewLRU[string, Result](maxSize, onEvict, ttl)}
}

// Get returns the cached result for text and counts the hit or miss.
func (c *ResultCache) Get(text string) (Result, bool) {
	res, ok := c.lru.Get(text)
	if ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}
	return res, ok
}

// Set stores res under text, evicting the least recently used entry when full.
func (c *ResultCache) Set(text string, res Result) {
	c.lru.Add(text, res)
}

// Size is the number of cached results.
func (c *ResultCache) Size() int {
	return c.lru.Len()
}

// Clear drops every cached result.
func (c *ResultCache) Clear() {
	c.lru.Purge()
}
