package storage

import (
	"context"
	"fmt"

	"github.com/coocood/freecache"
	"github.com/kephale/copick-server/copick"
)

// CachedStore is a Store whose Get results are held in a freecache.  It is meant
// for read-only roots, e.g., a static copick project, where cached values
// cannot go stale through this process.  Writes through the CachedStore evict
// the written key.
type CachedStore struct {
	Store
	cache *freecache.Cache
}

// NewCachedStore wraps store with a cache of roughly numBytes.  Values larger
// than 1/1024 of the cache size are not cached.
func NewCachedStore(store Store, numBytes int) *CachedStore {
	copick.Infof("Created freecache of ~ %d MB for store %s.\n", numBytes/copick.Mega, store)
	return &CachedStore{Store: store, cache: freecache.NewCache(numBytes)}
}

func (c *CachedStore) String() string {
	return fmt.Sprintf("cached %s", c.Store)
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.cache.Get([]byte(key))
	if err == nil {
		return value, nil
	}
	if err != freecache.ErrNotFound {
		copick.Errorf("freecache get failed for key %q: %v\n", key, err)
	}
	value, err = c.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set([]byte(key), value, 0); err != nil && err != freecache.ErrLargeEntry {
		copick.Errorf("freecache set failed for key %q: %v\n", key, err)
	}
	return value, nil
}

func (c *CachedStore) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.cache.Get([]byte(key)); err == nil {
		return true, nil
	}
	return c.Store.Exists(ctx, key)
}

func (c *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	c.cache.Del([]byte(key))
	return c.Store.Put(ctx, key, value)
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.cache.Del([]byte(key))
	return c.Store.Delete(ctx, key)
}

// HitRate returns the fraction of cache lookups that were hits.
func (c *CachedStore) HitRate() float64 {
	return c.cache.HitRate()
}
