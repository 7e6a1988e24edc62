package cache

import (
	"context"
	"time"

	"github.com/ReneKroon/ttlcache"

	"github.com/code-payments/iap-sandwich/settings"
)

// Cache is a read-through cache in front of a settings.Store. Diagnostics
// read the integration keys far more often than they change.
type Cache struct {
	db    settings.Store
	cache *ttlcache.Cache
}

func NewInCache(db settings.Store, ttl time.Duration) settings.Store {
	cache := ttlcache.NewCache()
	cache.SetTTL(ttl)
	return &Cache{
		db:    db,
		cache: cache,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	cached, ok := c.cache.Get(key)
	if ok {
		return cached.(string), nil
	}

	value, err := c.db.Get(ctx, key)
	if err != nil {
		return "", err
	}

	c.cache.Set(key, value)
	return value, nil
}

func (c *Cache) Set(ctx context.Context, key, value string) error {
	c.cache.Remove(key)
	return c.db.Set(ctx, key, value)
}
