// Package cache is a small bounded TTL cache used for upstream
// response payloads and team-membership answers. Entries expire after
// a fixed TTL (evicted lazily on Get) and the map is capped: when
// full, the least recently used entry is dropped.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const DefaultMaxEntries = 512

type entry struct {
	key   string
	value any
	at    time.Time
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	nowFunc func() time.Time
}

func New(ttl time.Duration, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		ttl:     ttl,
		max:     maxEntries,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		nowFunc: time.Now,
	}
}

// Get returns the cached value for key, or false when the key is
// absent or its entry has outlived the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*entry)
	if c.nowFunc().Sub(ent.at) > c.ttl {
		c.remove(el)
		return nil, false
	}
	c.order.MoveToFront(el)
	return ent.value, true
}

// Set stores value under key, refreshing the entry's timestamp. When
// the cache is at capacity the least recently used entry is evicted.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry)
		ent.value = value
		ent.at = c.nowFunc()
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.max {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	el := c.order.PushFront(&entry{key: key, value: value, at: c.nowFunc()})
	c.items[key] = el
}

// InvalidatePrefix drops every entry whose key starts with prefix.
// Called after mutations so list views cannot serve stale pages.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if strings.HasPrefix(el.Value.(*entry).key, prefix) {
			c.remove(el)
		}
		el = next
	}
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) remove(el *list.Element) {
	delete(c.items, el.Value.(*entry).key)
	c.order.Remove(el)
}
