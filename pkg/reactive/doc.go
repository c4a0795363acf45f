// Package reactive provides the tracking core: a revision clock, tags, nested
// tracking frames and memoized caches.
//
// The engine is pull-based. Writes never notify anyone; they only advance a
// tag's revision past the clock. Reads compare the revision a cache captured
// when it last ran against the current revision of everything it consumed,
// and recompute only when something moved.
//
// # Core Types
//
// A Cell[T] is a tracked value backed by a DirtyableTag:
//
//	tc := reactive.NewTrackingContext()
//	count := reactive.NewCell(tc, 1)
//	count.Get()  // Read (consumes the cell's tag)
//	count.Set(2) // Write (dirties the tag if the value changed)
//
// A Cache[T] memoizes a computation against the tags it read:
//
//	doubled := reactive.NewMemo(tc, func() int { return count.Get() * 2 })
//	doubled.Get() // Recomputes only if count changed since the last run
//
// Caches compose. A recipe that reads another cache inherits its
// dependencies because every committed frame consumes its combined tag into
// the enclosing frame.
//
// # Frames
//
// Begin and Commit bracket a recording scope. Track and Pass wrap them with
// deferred balancing; Pass additionally turns engine violations into returned
// errors:
//
//	tag, err := tc.Pass(ctx, "render", func(ctx context.Context) error {
//	    return render(ctx)
//	})
//
// # Strict Mode
//
// With strict mode enabled (WithStrict, or the DevMode default) the engine
// panics with an *Error when a tag is written while a frame is open, when a
// value read earlier in the same pass is observed at a newer revision, and
// when the frame stack is unbalanced. Production mode skips these checks.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A TrackingContext is
// meant to be owned by a single goroutine, such as a session's render loop.
package reactive
