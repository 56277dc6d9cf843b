package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU bounds a cache by entry count and age. Reads refresh recency but not
// age, so a hot summary is still recomputed once its TTL passes.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	index map[K]*list.Element
	order *list.List // front is most recently used
}

type lruEntry[K comparable, V any] struct {
	key    K
	value  V
	stored time.Time
}

// NewLRU returns a cache holding at most capacity values for ttl each.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		index:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*lruEntry[K, V])
	if c.expired(e) {
		c.drop(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return
	}

	if elem, ok := c.index[key]; ok {
		e := elem.Value.(*lruEntry[K, V])
		e.value, e.stored = value, c.now()
		c.order.MoveToFront(elem)
		return
	}

	c.index[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value, stored: c.now()})
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
	}
}

func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.index)
	c.order.Init()
}

// Len counts stored values, including expired ones not yet read.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[K, V]) expired(e *lruEntry[K, V]) bool {
	return c.now().Sub(e.stored) >= c.ttl
}

func (c *LRU[K, V]) drop(elem *list.Element) {
	delete(c.index, elem.Value.(*lruEntry[K, V]).key)
	c.order.Remove(elem)
}
