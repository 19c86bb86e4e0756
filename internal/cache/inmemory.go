package cache

import (
	"context"
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache *goCache.Cache
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		cache: goCache.New(DefaultExpiration, DefaultCleanupInterval),
	}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration == 0 {
		expiration = DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) {
	c.cache.Delete(key)
}

func (c *InMemoryCache) DeleteByPrefix(ctx context.Context, prefix string) {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *InMemoryCache) Flush(ctx context.Context) {
	c.cache.Flush()
}
