package tracked

import (
	"fmt"
	"iter"

	"github.com/vango-dev/tracking/pkg/reactive"
)

// Map is a tracked map.
type Map[K comparable, V any] struct {
	tc      *reactive.TrackingContext
	label   string
	entries map[K]V

	// keyTags holds a tag for every key read inside a frame, present or
	// not. Delete and Clear drop the tags of removed keys.
	keyTags    map[K]*reactive.UpdatableTag
	collection *reactive.UpdatableTag

	// equal decides whether a write changed a value.
	// If nil, uses reactive.DefaultEquals.
	equal func(V, V) bool
}

// NewMap creates an empty tracked map bound to tc (the default context when
// nil).
func NewMap[K comparable, V any](tc *reactive.TrackingContext, opts ...Option) *Map[K, V] {
	if tc == nil {
		tc = reactive.Default()
	}
	o := applyOptions("map", opts)
	m := &Map[K, V]{
		tc:      tc,
		label:   o.label,
		entries: make(map[K]V),
		keyTags: make(map[K]*reactive.UpdatableTag),
	}
	m.collection = tc.NewUpdatableTag(m.collectionLabel())
	return m
}

// FromMap creates a tracked map holding a copy of entries.
func FromMap[K comparable, V any](tc *reactive.TrackingContext, entries map[K]V, opts ...Option) *Map[K, V] {
	m := NewMap[K, V](tc, opts...)
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

// WithEquals returns the map configured with a custom value equality.
func (m *Map[K, V]) WithEquals(fn func(V, V) bool) *Map[K, V] {
	m.equal = fn
	return m
}

// Get returns the value for key and whether it is present, consuming the
// key's tag.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.tc.Consume(m.readTag(key))
	v, ok := m.entries[key]
	return v, ok
}

// Has reports whether key is present, consuming the key's tag.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. A write of a value equal to the present one
// does nothing.
func (m *Map[K, V]) Set(key K, value V) {
	old, present := m.entries[key]
	if present && m.equals(old, value) {
		return
	}
	m.entries[key] = value

	tags := make([]reactive.Mutable, 0, 2)
	if t, ok := m.keyTags[key]; ok {
		tags = append(tags, t)
	}
	if !present {
		tags = append(tags, m.collection)
	}
	m.tc.Dirty(tags...)
}

// Update replaces the value under key with fn applied to it. It does nothing
// if key is absent. The read of the current value is not tracked.
func (m *Map[K, V]) Update(key K, fn func(V) V) {
	if v, ok := m.entries[key]; ok {
		m.Set(key, fn(v))
	}
}

// Delete removes key and reports whether it was present. The key's tag is
// dropped, so a later lookup starts a fresh one.
func (m *Map[K, V]) Delete(key K) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)

	tags := []reactive.Mutable{m.collection}
	if t, ok := m.keyTags[key]; ok {
		tags = append(tags, t)
		delete(m.keyTags, key)
	}
	m.tc.Dirty(tags...)
	return true
}

// Clear removes every key. Clearing an empty map does nothing.
func (m *Map[K, V]) Clear() {
	if len(m.entries) == 0 {
		return
	}
	tags := make([]reactive.Mutable, 0, len(m.entries)+1)
	tags = append(tags, m.collection)
	for k := range m.entries {
		if t, ok := m.keyTags[k]; ok {
			tags = append(tags, t)
			delete(m.keyTags, k)
		}
	}
	clear(m.entries)
	m.tc.Dirty(tags...)
}

// Len returns the number of keys, consuming the collection tag.
func (m *Map[K, V]) Len() int {
	m.tc.Consume(m.collection)
	return len(m.entries)
}

// Keys returns the keys in unspecified order, consuming the collection tag.
func (m *Map[K, V]) Keys() []K {
	m.tc.Consume(m.collection)
	keys := make([]K, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the values in unspecified order, consuming the collection
// tag and every key's tag.
func (m *Map[K, V]) Values() []V {
	m.tc.Consume(m.collection)
	values := make([]V, 0, len(m.entries))
	for k, v := range m.entries {
		m.tc.Consume(m.readTag(k))
		values = append(values, v)
	}
	return values
}

// All iterates over the entries in unspecified order. Ranging consumes the
// collection tag and the tag of every key visited.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.tc.Consume(m.collection)
		for k, v := range m.entries {
			m.tc.Consume(m.readTag(k))
			if !yield(k, v) {
				return
			}
		}
	}
}

// readTag returns the tag a read of key consumes. Outside any frame nothing
// records the read, so no tag is created and ConstantTag is returned.
func (m *Map[K, V]) readTag(key K) reactive.Tag {
	if t, ok := m.keyTags[key]; ok {
		return t
	}
	if m.tc.Depth() == 0 {
		return reactive.ConstantTag
	}
	t := m.tc.NewUpdatableTag(m.keyLabel(key))
	m.keyTags[key] = t
	return t
}

// Labels are formatted only in strict mode, where violations report them.
func (m *Map[K, V]) keyLabel(key K) string {
	if !m.tc.Strict() {
		return ""
	}
	return fmt.Sprintf("%s[%v]", m.label, key)
}

func (m *Map[K, V]) collectionLabel() string {
	if !m.tc.Strict() {
		return ""
	}
	return m.label
}

func (m *Map[K, V]) equals(a, b V) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return reactive.DefaultEquals(a, b)
}
