package reactive

// Revision is a point on a Clock. Revisions are totally ordered; a larger
// revision is newer.
type Revision uint64

const (
	// Constant is the revision of tags that never change. It is older than
	// every real revision, so it never wins a max comparison.
	Constant Revision = 0

	// Initial is the revision of a mutable tag that has never been written.
	Initial Revision = 1

	// clockStart is the first value of a fresh clock. It is strictly newer
	// than Initial, so a cache captured at any clock value treats unwritten
	// tags as current.
	clockStart Revision = Initial + 1
)

// Clock is a monotonically increasing revision counter.
// Advancing it is the only way revisions move forward.
type Clock struct {
	now Revision
}

// NewClock returns a clock positioned at its first revision.
func NewClock() *Clock {
	return &Clock{now: clockStart}
}

// Now returns the current revision without advancing the clock.
func (c *Clock) Now() Revision {
	return c.now
}

// Tick advances the clock and returns the new current revision.
func (c *Clock) Tick() Revision {
	c.now++
	return c.now
}
