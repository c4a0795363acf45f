package reactive

// Cell is a tracked value container.
// Reading a Cell inside a frame consumes its tag, so the enclosing cache
// recomputes after the next write that actually changes the value.
type Cell[T any] struct {
	tag *DirtyableTag

	// value is the current cell value.
	value T

	// equal decides whether a write changed the value.
	// If nil, uses DefaultEquals.
	equal func(T, T) bool
}

// NewCell creates a cell holding initial. Its tag starts at Initial.
func NewCell[T any](tc *TrackingContext, initial T) *Cell[T] {
	return &Cell[T]{
		tag:   orDefault(tc).NewDirtyableTag(""),
		value: initial,
	}
}

// Get returns the current value and consumes the cell's tag.
func (c *Cell[T]) Get() T {
	c.tag.tc.Consume(c.tag)
	return c.value
}

// Peek returns the current value without consuming the tag.
func (c *Cell[T]) Peek() T {
	return c.value
}

// Set stores value and dirties the tag if the value changed under the
// cell's equality function. Writes of an equal value are ignored.
func (c *Cell[T]) Set(value T) {
	if c.equals(c.value, value) {
		return
	}
	c.value = value
	c.tag.Dirty()
}

// Update replaces the value with fn applied to the current one.
// The read of the current value is not tracked.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// WithEquals returns the cell configured with a custom equality function.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// WithLabel names the cell's tag in diagnostics.
func (c *Cell[T]) WithLabel(label string) *Cell[T] {
	c.tag.label = label
	return c
}

// Tag returns the cell's tag.
func (c *Cell[T]) Tag() Tag {
	return c.tag
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return DefaultEquals(a, b)
}
