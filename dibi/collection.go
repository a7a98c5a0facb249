package dibi

import "sync"

// Collection is an insertion-ordered set of items that are also addressable by a key.
// The key of an item is computed once, when it is added.
type Collection[T comparable] struct {
	mu    sync.RWMutex
	key   func(T) string
	keys  []string
	items map[string]T
}

// NewCollection creates a Collection using key to identify items.
func NewCollection[T comparable](key func(T) string, items ...T) *Collection[T] {
	c := &Collection[T]{
		key:   key,
		items: make(map[string]T),
	}

	for _, item := range items {
		c.Add(item, true)
	}

	return c
}

// Add stores item and returns the item now held under its key.
// With replace set, an existing item with the same key is overwritten in place.
// Otherwise the existing item is kept and returned.
func (c *Collection[T]) Add(item T, replace bool) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(item)
	if existing, ok := c.items[k]; ok {
		if !replace {
			return existing
		}
		c.items[k] = item

		return item
	}

	c.keys = append(c.keys, k)
	c.items[k] = item

	return item
}

// Get returns the item stored under key.
func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]

	return item, ok
}

// Has reports whether an item is stored under key.
func (c *Collection[T]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Contains reports whether item itself, not just an item with the same key, is in the collection.
func (c *Collection[T]) Contains(item T) bool {
	stored, ok := c.Get(c.key(item))
	return ok && stored == item
}

// Discard removes the item stored under key. Missing keys are ignored.
func (c *Collection[T]) Discard(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return
	}

	delete(c.items, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.keys)
}

// Keys returns the keys in insertion order.
func (c *Collection[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, len(c.keys))
	copy(keys, c.keys)

	return keys
}

// Items returns the items in insertion order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		items = append(items, c.items[k])
	}

	return items
}
