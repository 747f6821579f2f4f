package cache

import (
	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(keys ...string)
	Clear()
}

var _ Cache = (*FreeCache)(nil)

// FreeCache is an in-process byte cache with a fixed memory budget and a
// single expiry applied to every entry.
type FreeCache struct {
	cache         *freecache.Cache
	expireSeconds int
}

func NewFreeCache(sizeMB, expireSeconds int) *FreeCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &FreeCache{
		// freecache enforces 512KB as the minimum size
		cache:         freecache.NewCache(sizeMB * megabyte),
		expireSeconds: expireSeconds,
	}
}

func (c *FreeCache) Get(key string) ([]byte, bool) {
	value, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *FreeCache) Set(key string, value []byte) error {
	return c.cache.Set([]byte(key), value, c.expireSeconds)
}

func (c *FreeCache) Delete(keys ...string) {
	for _, key := range keys {
		c.cache.Del([]byte(key))
	}
}

func (c *FreeCache) Clear() {
	c.cache.Clear()
}

func (c *FreeCache) EntryCount() int64 {
	return c.cache.EntryCount()
}
