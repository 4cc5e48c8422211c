package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultExpiration uses the expiration the cache was created with.
const DefaultExpiration = cache.DefaultExpiration

type Cache interface {
	Set(key string, value interface{}, duration time.Duration)
	Get(key string) (interface{}, bool)
	ItemCount() int
}

type goCache struct {
	internal *cache.Cache
}

// NewCache returns an in-memory cache with the given default expiration and
// cleanup interval.
func NewCache(defaultExpiration, cleanupInterval time.Duration) Cache {
	return &goCache{
		internal: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *goCache) Set(key string, value interface{}, duration time.Duration) {
	c.internal.Set(key, value, duration)
}

func (c *goCache) Get(key string) (interface{}, bool) {
	return c.internal.Get(key)
}

func (c *goCache) ItemCount() int {
	return c.internal.ItemCount()
}

// Get returns the value stored under key when it has type T.
func Get[T any](c Cache, key string) (T, bool) {
	val, found := c.Get(key)
	if !found {
		var zero T
		return zero, false
	}
	typedVal, ok := val.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typedVal, true
}
