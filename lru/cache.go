// Package lru is a size-bounded map evicting the least recently used key.
package lru

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key K
	val V
}

type Cache[K comparable, V any] struct {
	mx       sync.Mutex
	order    *list.List // front is the most recently used
	items    map[K]*list.Element
	capacity int
}

func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
		capacity: capacity,
	}
}

func (c *Cache[K, V]) evict() {
	back := c.order.Back()
	c.order.Remove(back)
	delete(c.items, back.Value.(*entry[K, V]).key) //nolint:forcetypeassert // only entries are stored
}

func (c *Cache[K, V]) add(k K, v V) {
	if len(c.items) >= c.capacity {
		c.evict()
	}
	c.items[k] = c.order.PushFront(&entry[K, V]{key: k, val: v})
}

func (c *Cache[K, V]) Put(k K, v V) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if el, ok := c.items[k]; ok {
		el.Value.(*entry[K, V]).val = v //nolint:forcetypeassert // only entries are stored
		c.order.MoveToFront(el)
		return
	}
	c.add(k, v)
}

func (c *Cache[K, V]) Get(k K) (v V, ok bool) { //nolint:ireturn // returns generic interface (V) of type param any
	c.mx.Lock()
	defer c.mx.Unlock()

	el, ok := c.items[k]
	if !ok {
		return v, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).val, true //nolint:forcetypeassert // only entries are stored
}

// GetOrCreate returns the cached value or stores the one made by create.
// The lookup and the insert happen under one lock.
func (c *Cache[K, V]) GetOrCreate(k K, create func() V) V { //nolint:ireturn // returns generic interface (V) of type param any
	c.mx.Lock()
	defer c.mx.Unlock()

	if el, ok := c.items[k]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).val //nolint:forcetypeassert // only entries are stored
	}
	v := create()
	c.add(k, v)
	return v
}

func (c *Cache[K, V]) Len() int {
	c.mx.Lock()
	defer c.mx.Unlock()

	return len(c.items)
}
