package reactive

import (
	"log/slog"
	"sync"

	trackerr "github.com/vango-dev/tracking/internal/errors"
)

// frameMode controls what a frame does with the tags it sees.
type frameMode uint8

const (
	// frameTracked records reads and consumes its result into the parent.
	frameTracked frameMode = iota

	// frameDetached records reads but does not propagate its result.
	// Used for a cache's first run, whose value is not returned to anyone.
	frameDetached

	// frameUntracked ignores reads entirely.
	frameUntracked
)

// frame is one recording scope on the stack.
type frame struct {
	consumed []Tag

	// max is the newest revision consumed so far. A committed frame's tag
	// must never be older than this.
	max Revision

	mode frameMode
}

// TrackingContext holds the clock and the frame stack.
// Tags, caches and collections are bound to the context that created them,
// and must not be mixed across contexts.
type TrackingContext struct {
	clock  *Clock
	frames []*frame

	// strict enables the consistency checks; see DevMode.
	strict bool

	// ledger records, per tag ID, the revision at which each tag was first
	// consumed during the current pass. Only maintained in strict mode while
	// at least one frame is open.
	ledger map[uint64]Revision

	logger   *slog.Logger
	observer Observer
}

// NewTrackingContext creates a context with a fresh clock and an empty
// frame stack.
func NewTrackingContext(opts ...Option) *TrackingContext {
	o := options{strict: DevMode}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}
	return &TrackingContext{
		clock:    NewClock(),
		strict:   o.strict,
		logger:   o.logger,
		observer: o.observer,
	}
}

var (
	defaultContext     *TrackingContext
	defaultContextOnce sync.Once
)

// Default returns the process-wide context, created on first use with the
// DevMode setting in effect at that moment.
func Default() *TrackingContext {
	defaultContextOnce.Do(func() {
		defaultContext = NewTrackingContext()
	})
	return defaultContext
}

// orDefault lets constructors accept a nil context.
func orDefault(tc *TrackingContext) *TrackingContext {
	if tc == nil {
		return Default()
	}
	return tc
}

// Clock returns the context's clock.
func (tc *TrackingContext) Clock() *Clock {
	return tc.clock
}

// Now returns the current clock revision.
func (tc *TrackingContext) Now() Revision {
	return tc.clock.Now()
}

// Strict reports whether strict checks are enabled.
func (tc *TrackingContext) Strict() bool {
	return tc.strict
}

// SetStrict toggles strict checks. Changing the mode while frames are open
// leaves the current pass without a ledger.
func (tc *TrackingContext) SetStrict(strict bool) {
	tc.strict = strict
	if !strict {
		tc.ledger = nil
	}
}

// Depth returns the number of open frames.
func (tc *TrackingContext) Depth() int {
	return len(tc.frames)
}

// Logger returns the context's logger.
func (tc *TrackingContext) Logger() *slog.Logger {
	return tc.logger
}

// Begin opens a new tracking frame nested in the current one.
func (tc *TrackingContext) Begin() {
	tc.push(frameTracked)
}

func (tc *TrackingContext) push(mode frameMode) {
	if len(tc.frames) == 0 && tc.strict {
		tc.ledger = make(map[uint64]Revision)
	}
	tc.frames = append(tc.frames, &frame{mode: mode})
}

// Consume records that the current computation depends on tag. Outside any
// frame it does nothing.
//
// In strict mode a tag consumed earlier in the same pass at an older
// revision panics with ErrBacktracking: whatever was computed from the
// earlier read has already been handed out and is now stale.
func (tc *TrackingContext) Consume(tag Tag) {
	n := len(tc.frames)
	if n == 0 || tag == nil || tag == ConstantTag {
		return
	}
	f := tc.frames[n-1]
	if f.mode == frameUntracked {
		return
	}
	rev := tag.Revision()
	if tc.ledger != nil {
		tc.checkRead(tag, rev)
	}
	f.consumed = append(f.consumed, tag)
	if rev > f.max {
		f.max = rev
	}
}

// checkRead compares rev with the revision tag had when the pass first saw it.
func (tc *TrackingContext) checkRead(tag Tag, rev Revision) {
	id, ok := tag.(identified)
	if !ok {
		return
	}
	first, seen := tc.ledger[id.tagID()]
	if !seen {
		tc.ledger[id.tagID()] = rev
		return
	}
	if rev > first {
		tc.violation(newError(trackerr.CodeBacktracking).
			WithSubject(describe(tag)).
			WithDepth(len(tc.frames)).
			WithDetail("The tag was first read at an older revision in this pass. " +
				"Values computed from that read were returned before the tag changed."))
	}
}

// Commit closes the current frame and returns the combination of the tags it
// consumed. If a parent frame is open, the result is consumed into it.
//
// Commit with no open frame panics with ErrUnbalancedFrame in strict mode; in
// production it logs a warning and returns ConstantTag.
func (tc *TrackingContext) Commit() Tag {
	n := len(tc.frames)
	if n == 0 {
		err := newError(trackerr.CodeUnbalancedFrame).
			WithDetail("Commit was called with no open frame.")
		if tc.strict {
			tc.violation(err)
		}
		tc.logger.Warn("tracking: commit without begin", "error", err)
		return ConstantTag
	}

	f := tc.frames[n-1]
	tc.frames[n-1] = nil
	tc.frames = tc.frames[:n-1]

	tag := Combine(tc.clock, dedupe(f.consumed)...)

	if tc.strict {
		if rev := tag.Revision(); rev < f.max {
			tc.violation(newError(trackerr.CodeEngineInvariant).
				WithSubject(describe(tag)).
				WithDepth(n))
		}
	}

	if len(tc.frames) == 0 {
		tc.ledger = nil
	} else if f.mode == frameTracked {
		tc.Consume(tag)
	}
	return tag
}

// Track runs fn inside a new frame and returns the frame's tag. The frame is
// committed even if fn panics, and any frames fn left open are closed first.
func (tc *TrackingContext) Track(fn func()) Tag {
	return tc.run(frameTracked, fn)
}

// Untrack runs fn with reads ignored: nothing fn consumes becomes a
// dependency of the enclosing computation.
func (tc *TrackingContext) Untrack(fn func()) {
	tc.run(frameUntracked, fn)
}

func (tc *TrackingContext) run(mode frameMode, fn func()) (tag Tag) {
	depth := len(tc.frames)
	tc.push(mode)
	defer func() {
		tc.closeStray(depth + 1)
		tag = tc.Commit()
	}()
	fn()
	return tag
}

// closeStray commits frames above depth, left open by a missing Commit.
// It reports how many were closed.
func (tc *TrackingContext) closeStray(depth int) int {
	stray := len(tc.frames) - depth
	if stray <= 0 {
		return 0
	}
	tc.logger.Warn("tracking: closing stray frames", "count", stray, "depth", depth)
	for len(tc.frames) > depth {
		tc.Commit()
	}
	return stray
}

// Dirty writes all tags with a single clock tick. In strict mode a write
// while any frame is open panics after the write is applied, with
// ErrBacktracking if one of the tags was already read in the current pass and
// ErrDirtyDuringTracking otherwise.
func (tc *TrackingContext) Dirty(tags ...Mutable) {
	if len(tags) == 0 {
		return
	}
	rev := tc.clock.Tick()
	for _, t := range tags {
		t.mutable().rev = rev
		tc.observer.TagDirtied(t)
	}
	if tc.strict && len(tc.frames) > 0 {
		tc.rejectWrite(tags...)
	}
}

func (tc *TrackingContext) update(s *slot, rev Revision) {
	if rev < s.rev {
		err := newError(trackerr.CodeRevisionRegression).
			WithSubject(s.String()).
			WithDepth(len(tc.frames))
		if tc.strict {
			tc.violation(err)
		}
		tc.logger.Warn("tracking: ignoring revision regression", "error", err)
		rev = s.rev
	}
	if now := tc.clock.Tick(); rev > now {
		rev = now
	}
	s.rev = rev
	tc.observer.TagDirtied(s)
	if tc.strict && len(tc.frames) > 0 {
		tc.rejectWrite(s)
	}
}

func (tc *TrackingContext) rejectWrite(tags ...Mutable) {
	for _, t := range tags {
		if _, seen := tc.ledger[t.mutable().id]; seen {
			tc.violation(newError(trackerr.CodeBacktracking).
				Refines(trackerr.CodeDirtyDuringTracking).
				WithSubject(describe(t)).
				WithDepth(len(tc.frames)))
		}
	}
	tc.violation(newError(trackerr.CodeDirtyDuringTracking).
		WithSubject(describe(tags[0])).
		WithDepth(len(tc.frames)))
}

// violation reports err to the observer and panics with it. The pass ledger
// is dropped first: the frames unwinding above the panic consume tags that
// were already checked, and the pass is failing anyway.
func (tc *TrackingContext) violation(err *Error) {
	tc.ledger = nil
	tc.observer.Violation(err)
	panic(err)
}
