package reactive

import (
	"context"
	"log/slog"
	"time"

	trackerr "github.com/vango-dev/tracking/internal/errors"
)

// CacheState is the lifecycle state of a Cache.
type CacheState uint8

const (
	// CacheUninitialized means no run of the recipe has succeeded yet.
	CacheUninitialized CacheState = iota

	// CacheValid means no consumed tag moved since the last run.
	CacheValid

	// CacheStale means the next read will re-run the recipe.
	CacheStale
)

// String returns a human-readable name for the state.
func (s CacheState) String() string {
	switch s {
	case CacheUninitialized:
		return "uninitialized"
	case CacheValid:
		return "valid"
	case CacheStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Snapshot is the result of one successful recipe run.
type Snapshot[T any] struct {
	// Value is what the recipe returned.
	Value T

	// Tag combines every tag the recipe consumed.
	Tag Tag

	// Revision is the clock value when the run committed. The snapshot is
	// valid while Tag's revision does not exceed it.
	Revision Revision
}

func (s *Snapshot[T]) valid() bool {
	return s.Revision >= s.Tag.Revision()
}

// Cache memoizes a computation against the tags it reads.
//
// A read returns the last value if nothing the recipe consumed has been
// dirtied since, and otherwise re-runs the recipe inside a new frame. Either
// way the cache's tag is consumed into the enclosing frame, so a computation
// reading a cache depends on everything the cache depends on.
type Cache[T any] struct {
	tc     *TrackingContext
	label  string
	recipe func() (T, error)

	// snap is the last successful run; nil until one succeeds.
	snap *Snapshot[T]

	// computing guards against a recipe reading its own cache.
	computing bool
}

// NewCache creates a cache and runs recipe once. The returned cache is
// usable even when the first run fails: its state stays CacheUninitialized
// and the next Read retries.
//
// The first run is recorded but not consumed into an open frame, because
// nothing observes its value until Read.
func NewCache[T any](tc *TrackingContext, recipe func() (T, error), opts ...CacheOption) (*Cache[T], error) {
	o := applyCacheOptions(opts)
	c := &Cache[T]{
		tc:     orDefault(tc),
		label:  o.label,
		recipe: recipe,
	}
	_, err := c.compute(frameDetached)
	return c, err
}

// NewMemo creates a cache for a recipe that cannot fail.
func NewMemo[T any](tc *TrackingContext, compute func() T, opts ...CacheOption) *Cache[T] {
	c, _ := NewCache(tc, func() (T, error) {
		return compute(), nil
	}, opts...)
	return c
}

// Read returns the cached value, re-running the recipe if any tag it
// consumed has been dirtied since the last run. Recipe errors are returned
// unchanged and leave the cache stale, so the next Read retries.
func (c *Cache[T]) Read() (T, error) {
	if s := c.snap; s != nil && !c.computing && s.valid() {
		c.tc.Consume(s.Tag)
		c.tc.observer.CacheHit(c.label)
		return s.Value, nil
	}
	return c.compute(frameTracked)
}

// Get is Read for caches whose recipe cannot fail. It panics with the
// recipe's error otherwise.
func (c *Cache[T]) Get() T {
	v, err := c.Read()
	if err != nil {
		panic(err)
	}
	return v
}

// Peek returns the value of the last successful run without consuming the
// cache's tag or recomputing. The caller is responsible for consuming
// Snapshot().Tag if it depends on the result; otherwise the enclosing
// computation will not invalidate when the value changes.
func (c *Cache[T]) Peek() (T, bool) {
	if c.snap == nil {
		var zero T
		return zero, false
	}
	return c.snap.Value, true
}

// Snapshot returns a copy of the last successful run.
func (c *Cache[T]) Snapshot() (Snapshot[T], bool) {
	if c.snap == nil {
		return Snapshot[T]{}, false
	}
	return *c.snap, true
}

// State reports the cache's state without consuming or recomputing.
func (c *Cache[T]) State() CacheState {
	switch {
	case c.snap == nil:
		return CacheUninitialized
	case c.snap.valid():
		return CacheValid
	default:
		return CacheStale
	}
}

// IsConstant reports whether the last run consumed no tags, in which case
// the cache will never recompute.
func (c *Cache[T]) IsConstant() bool {
	return c.snap != nil && c.snap.Tag == ConstantTag
}

// Tag returns the tag of the last successful run, or ConstantTag before one.
// It does not consume.
func (c *Cache[T]) Tag() Tag {
	if c.snap == nil {
		return ConstantTag
	}
	return c.snap.Tag
}

// Label returns the cache's label.
func (c *Cache[T]) Label() string {
	return c.label
}

func (c *Cache[T]) compute(mode frameMode) (value T, err error) {
	if c.computing {
		err = newError(trackerr.CodeCycle).
			WithSubject(c.label).
			WithDepth(c.tc.Depth())
		return value, err
	}
	c.computing = true
	defer func() { c.computing = false }()

	start := time.Now()
	tag := c.tc.run(mode, func() {
		value, err = c.recipe()
	})
	elapsed := time.Since(start)

	if err == nil {
		c.snap = &Snapshot[T]{
			Value:    value,
			Tag:      tag,
			Revision: c.tc.clock.Now(),
		}
	}

	c.tc.observer.CacheComputed(c.label, elapsed, err)
	if c.tc.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.tc.logger.Debug("tracking: recomputed cache",
			"cache", c.label,
			"elapsed", elapsed,
			"revision", c.tc.clock.Now(),
			"error", err)
	}
	return value, err
}
