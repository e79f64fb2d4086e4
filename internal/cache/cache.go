// Package cache keeps recently parsed filters so identical filter strings are
// not re-parsed on every request.
package cache

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/nlstn/go-scimfilter/internal/ast"
)

// DefaultSize is the capacity used when a non-positive size is requested.
const DefaultSize = 256

type entry struct {
	key    string
	filter ast.Filter
}

// Cache is a bounded map from (mode, version, filter text) to a parsed tree.
//
// When the cache is full the entire map is replaced rather than tracking entry
// ages; callers typically repeat a small set of filter templates.
//
// Cached trees are shared between goroutines. This is safe because AST nodes
// are immutable.
type Cache struct {
	mu    sync.RWMutex
	items map[uint64]entry
	max   int
}

// New returns an empty cache holding at most size entries.
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{
		items: make(map[uint64]entry, size),
		max:   size,
	}
}

// Key builds the lookup key for a filter parsed under mode and version.
func Key(mode, version int, text string) string {
	return strconv.Itoa(mode) + "|" + strconv.Itoa(version) + "|" + text
}

// Get returns the cached tree for key.
func (c *Cache) Get(key string) (ast.Filter, bool) {
	h := xxhash.Sum64String(key)

	c.mu.RLock()
	e, ok := c.items[h]
	c.mu.RUnlock()

	// a hash collision must not return another filter's tree
	if !ok || e.key != key {
		return nil, false
	}
	return e.filter, true
}

// Put stores filter under key.
func (c *Cache) Put(key string, filter ast.Filter) {
	h := xxhash.Sum64String(key)

	c.mu.Lock()
	if _, exists := c.items[h]; !exists && len(c.items) >= c.max {
		c.items = make(map[uint64]entry, c.max)
	}
	c.items[h] = entry{key: key, filter: filter}
	c.mu.Unlock()
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
