package reactive

import (
	trackerr "github.com/vango-dev/tracking/internal/errors"
)

// Error is the structured error raised for engine violations. Inspect it with
// errors.As; match categories with errors.Is against the sentinels below.
type Error = trackerr.Error

// Sentinel errors. They compare by code, so
//
//	errors.Is(err, reactive.ErrBacktracking)
//
// matches any backtracking violation regardless of the tag involved.
var (
	// ErrDirtyDuringTracking: a tag was written while a frame was open
	// (strict mode only).
	ErrDirtyDuringTracking = trackerr.New(trackerr.CodeDirtyDuringTracking)

	// ErrBacktracking: a value read earlier in the pass changed before the
	// pass finished. It also matches ErrDirtyDuringTracking when raised by a
	// write.
	ErrBacktracking = trackerr.New(trackerr.CodeBacktracking)

	// ErrUnbalancedFrame: Commit without Begin, or a pass that left frames open.
	ErrUnbalancedFrame = trackerr.New(trackerr.CodeUnbalancedFrame)

	// ErrCycle: a cache was read from inside its own recipe.
	ErrCycle = trackerr.New(trackerr.CodeCycle)

	// ErrRevisionRegression: UpdatableTag.Update was given an older revision.
	ErrRevisionRegression = trackerr.New(trackerr.CodeRevisionRegression)

	// ErrEngineInvariant: a committed tag is older than something it consumed.
	ErrEngineInvariant = trackerr.New(trackerr.CodeEngineInvariant)
)

func newError(code string) *Error {
	return trackerr.New(code)
}
