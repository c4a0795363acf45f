package reactive

import (
	"fmt"

	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// Family is a set of caches keyed by argument, one per distinct key, held in
// a bounded ARC cache. An evicted key is recomputed from scratch the next
// time it is read; its dependents are unaffected because they hold the
// evicted cache's tag, not the cache.
type Family[K comparable, V any] struct {
	tc     *TrackingContext
	label  string
	recipe func(K) (V, error)
	caches *arc.ARCCache[K, *Cache[V]]
}

// NewFamily creates a family holding at most size caches.
func NewFamily[K comparable, V any](tc *TrackingContext, size int, recipe func(K) (V, error), opts ...CacheOption) (*Family[K, V], error) {
	caches, err := arc.NewARC[K, *Cache[V]](size)
	if err != nil {
		return nil, fmt.Errorf("reactive: new family: %w", err)
	}
	o := applyCacheOptions(opts)
	return &Family[K, V]{
		tc:     orDefault(tc),
		label:  o.label,
		recipe: recipe,
		caches: caches,
	}, nil
}

// Read returns the value for key, computing it on first use or after the
// key's dependencies changed. The key's tag is consumed into the current
// frame.
func (f *Family[K, V]) Read(key K) (V, error) {
	if c, ok := f.caches.Get(key); ok {
		return c.Read()
	}

	c, err := NewCache(f.tc, func() (V, error) {
		return f.recipe(key)
	}, WithLabel(f.keyLabel(key)))
	f.caches.Add(key, c)
	if err != nil {
		var zero V
		return zero, err
	}
	// The first run was detached; this read is a hit that consumes its tag.
	return c.Read()
}

// Get is Read for recipes that cannot fail.
func (f *Family[K, V]) Get(key K) V {
	v, err := f.Read(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Cache returns the cache currently held for key, if any.
func (f *Family[K, V]) Cache(key K) (*Cache[V], bool) {
	return f.caches.Peek(key)
}

// Forget drops the cache for key.
func (f *Family[K, V]) Forget(key K) {
	f.caches.Remove(key)
}

// Purge drops every cache.
func (f *Family[K, V]) Purge() {
	f.caches.Purge()
}

// Len returns the number of caches held.
func (f *Family[K, V]) Len() int {
	return f.caches.Len()
}

func (f *Family[K, V]) keyLabel(key K) string {
	if f.label == "" {
		return ""
	}
	return fmt.Sprintf("%s(%v)", f.label, key)
}
