// Package memo is an explicit, run-scoped memoization cache.  Entries are
// keyed by a hash of the inputs, so a hit always returns what a fresh
// computation would.
package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache holds memoized results until Invalidate is called.
type Cache struct {
	mu      sync.Mutex
	entries map[string]any
	hits    int
	misses  int
}

// Stats reports cache effectiveness since the last Invalidate
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

// New creates an empty cache
func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Key hashes a namespace and its arguments into a cache key.  Arguments are
// MessagePack-encoded, so any value msgpack can encode may be used.
func Key(namespace string, args ...any) (string, error) {
	encoded, err := msgpack.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("unable to encode %s cache key: %w", namespace, err)
	}
	sum := sha256.Sum256(encoded)
	return namespace + ":" + hex.EncodeToString(sum[:]), nil
}

// Memoize returns the cached value for key, or calls fn and caches its result.
// Errors are never cached.  A nil cache always calls fn.
func Memoize[T any](c *Cache, key string, fn func() (T, error)) (T, error) {
	if c == nil {
		return fn()
	}

	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return v.(T), nil
	}
	c.misses++
	c.mu.Unlock()

	v, err := fn()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops every entry and resets the counters.
func (c *Cache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
	c.hits = 0
	c.misses = 0
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
