package ffd

import (
	"reflect"
	"sync"
)

// cache is a cache of values derived from reflect.Types.
//
// Lookups of completed entries are lock-free. Construction happens
// under a lock, and constructors may look up other types with
// getLocked, which reports recursive types as a TypeError.
type cache[V any] struct {
	build func(reflect.Type) (V, error)

	mu       sync.Mutex
	building map[reflect.Type]bool
	done     sync.Map // reflect.Type -> cacheResult[V]
}

type cacheResult[V any] struct {
	val V
	err error
}

// Init sets the constructor for cache entries.
func (c *cache[V]) Init(build func(reflect.Type) (V, error)) {
	c.build = build
	c.building = map[reflect.Type]bool{}
}

// Get returns the cached value for t, constructing it if necessary.
func (c *cache[V]) Get(t reflect.Type) (V, error) {
	if r, ok := c.done.Load(t); ok {
		r := r.(cacheResult[V])
		return r.val, r.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(t)
}

// getLocked is Get for use by constructors, which already hold c.mu.
func (c *cache[V]) getLocked(t reflect.Type) (V, error) {
	if r, ok := c.done.Load(t); ok {
		r := r.(cacheResult[V])
		return r.val, r.err
	}
	if c.building[t] {
		var zero V
		return zero, typeErr(t, "recursive type")
	}
	c.building[t] = true
	defer delete(c.building, t)

	val, err := c.build(t)
	c.done.Store(t, cacheResult[V]{val, err})
	return val, err
}
