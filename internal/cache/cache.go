// Package cache provides the process-wide geocode result cache. It maps a
// normalized address to its canonical result, bounding memory with LRU
// eviction and per-entry TTLs. All methods are safe for concurrent use.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/Houeta/batch-geocoder/internal/models"
)

// Cache is a bounded LRU cache with per-entry expiry. The zero value is not
// usable; create instances with New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
}

type entry struct {
	key       string
	result    models.GeocodeResult
	expiresAt time.Time // zero means no expiry
}

// New creates a cache holding at most maxSize entries. A maxSize of zero or
// less means unbounded.
func New(maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached result for key, if present and not expired. The
// returned value is a snapshot: later eviction cannot invalidate it.
func (c *Cache) Get(key string) (models.GeocodeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return models.GeocodeResult{}, false
	}

	ent := elem.Value.(*entry)
	if ent.expired(time.Now()) {
		c.remove(elem)
		return models.GeocodeResult{}, false
	}

	c.order.MoveToFront(elem)
	return ent.result, true
}

// PutIfAbsent stores the result for key unless a live entry already exists,
// and reports whether the write took effect. The first writer's value is
// canonical: a concurrent duplicate resolution keeps the existing entry.
// A ttl of zero or less means the entry never expires.
func (c *Cache) PutIfAbsent(key string, result models.GeocodeResult, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if elem, ok := c.entries[key]; ok {
		if !elem.Value.(*entry).expired(now) {
			return false
		}
		c.remove(elem)
	}

	ent := &entry{key: key, result: result}
	if ttl > 0 {
		ent.expiresAt = now.Add(ttl)
	}
	c.entries[key] = c.order.PushFront(ent)

	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
	}

	return true
}

// Len returns the number of entries currently held, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove drops an element from both structures. Callers must hold c.mu.
func (c *Cache) remove(elem *list.Element) {
	if elem == nil {
		return
	}
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*entry).key)
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
