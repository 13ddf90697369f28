// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Thin wrapper over go-cache used for simulation results and planning sessions

package cache

import (
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores values with a default TTL and periodic cleanup of expired entries
type Cache struct {
	data *gocache.Cache
	ttl  time.Duration
}

// New creates a cache whose cleanup runs at twice the default TTL
func New(ttl time.Duration) *Cache {
	cleanup := ttl * 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &Cache{
		data: gocache.New(ttl, cleanup),
		ttl:  ttl,
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	val, ok := c.data.Get(key)
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return nil, false
	}

	slog.Debug("Cache hit", "key", key)
	return val, true
}

func (c *Cache) Set(key string, value interface{}) {
	c.data.Set(key, value, gocache.DefaultExpiration)
	slog.Debug("Cache set", "key", key, "ttl", c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.data.Set(key, value, ttl)
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

// Clear removes a single key
func (c *Cache) Clear(key string) {
	c.data.Delete(key)
}

// Len returns the number of entries, including expired ones not yet cleaned up
func (c *Cache) Len() int {
	return c.data.ItemCount()
}

// Keys returns the keys of all unexpired entries with the given prefix
func (c *Cache) Keys(prefix string) []string {
	var keys []string
	for key := range c.data.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}
