package tracked

import (
	"iter"

	"github.com/vango-dev/tracking/pkg/reactive"
)

// Set is a tracked set. Membership lookups consume the member's tag; size
// and iteration consume the collection tag.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet creates a tracked set holding members.
func NewSet[K comparable](tc *reactive.TrackingContext, members []K, opts ...Option) *Set[K] {
	m := NewMap[K, struct{}](tc, append([]Option{WithLabel("set")}, opts...)...)
	for _, k := range members {
		m.entries[k] = struct{}{}
	}
	return &Set[K]{m: m}
}

// Add inserts key. Adding a present member does nothing.
func (s *Set[K]) Add(key K) {
	s.m.Set(key, struct{}{})
}

// Has reports whether key is a member, consuming the member's tag.
func (s *Set[K]) Has(key K) bool {
	return s.m.Has(key)
}

// Delete removes key and reports whether it was a member.
func (s *Set[K]) Delete(key K) bool {
	return s.m.Delete(key)
}

// Clear removes every member.
func (s *Set[K]) Clear() {
	s.m.Clear()
}

// Len returns the number of members, consuming the collection tag.
func (s *Set[K]) Len() int {
	return s.m.Len()
}

// Values returns the members in unspecified order, consuming the collection
// tag.
func (s *Set[K]) Values() []K {
	return s.m.Keys()
}

// All iterates over the members in unspecified order.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.m.tc.Consume(s.m.collection)
		for k := range s.m.entries {
			if !yield(k) {
				return
			}
		}
	}
}
