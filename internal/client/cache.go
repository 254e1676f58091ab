package client

import (
	"strings"
	"sync"
)

// Cache stores raw response bodies keyed by request path and query.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
	// Invalidate drops the key and everything nested under it, so
	// "/portfolios/p1" also drops "/portfolios/p1/buckets" and
	// "/portfolios/p1?x=1" but not "/portfolios/p10".
	Invalidate(prefix string)
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.entries[key]
	return body, ok
}

func (c *MemoryCache) Set(key string, body []byte) {
	c.mu.Lock()
	c.entries[key] = body
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if nested(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func nested(key, prefix string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	if len(key) == len(prefix) {
		return true
	}
	switch key[len(prefix)] {
	case '/', '?':
		return true
	}
	return false
}

// NoCache always misses.
type NoCache struct{}

func (NoCache) Get(string) ([]byte, bool) { return nil, false }
func (NoCache) Set(string, []byte)        {}
func (NoCache) Invalidate(string)         {}
