package reactive

import "fmt"

// Tag identifies a dependency. Its revision advances whenever the value it
// stands for may have changed.
//
// Tags are used as map keys when a frame deduplicates its reads, so
// implementations must be comparable (pointer types are).
type Tag interface {
	Revision() Revision
}

// identified is implemented by every tag this package creates.
// The pass ledger keys on the ID because the same slot can be reached
// through different wrapper types.
type identified interface {
	tagID() uint64
}

type constantTag struct{}

func (constantTag) Revision() Revision { return Constant }
func (constantTag) String() string     { return "constant" }

// ConstantTag never invalidates. Combine drops it, and a frame that consumed
// nothing commits to it.
var ConstantTag Tag = constantTag{}

// slot is the revision storage shared by DirtyableTag and UpdatableTag.
type slot struct {
	tc    *TrackingContext
	id    uint64
	label string
	rev   Revision
}

func (s *slot) tagID() uint64 { return s.id }

// Revision returns the revision of the last write, or Initial.
func (s *slot) Revision() Revision { return s.rev }

// Dirty marks the tag as changed by moving its revision to a fresh clock
// tick. In strict mode, dirtying while a frame is open panics after the
// write has been applied.
func (s *slot) Dirty() {
	s.tc.Dirty(s)
}

func (s *slot) mutable() *slot { return s }

// String returns the tag's label, or a generated name when it has none.
func (s *slot) String() string {
	if s.label != "" {
		return s.label
	}
	return fmt.Sprintf("tag#%d", s.id)
}

// Mutable is a tag that its owner can dirty.
// It is implemented by *DirtyableTag and *UpdatableTag.
type Mutable interface {
	Tag
	Dirty()
	mutable() *slot
}

// DirtyableTag is the tag of a primitive mutable cell.
// Only the cell's owner should call Dirty.
type DirtyableTag struct {
	slot
}

// UpdatableTag is a mutable tag whose revision can also be replaced outright,
// for dependencies whose membership changes rather than their value.
type UpdatableTag struct {
	slot
}

// Update sets the tag's revision to rev. A revision older than the current
// one is rejected: strict mode panics with ErrRevisionRegression, production
// keeps the newer revision. A revision ahead of the clock is clamped to the
// clock. Update advances the clock so combined tags re-evaluate their
// children.
func (t *UpdatableTag) Update(rev Revision) {
	t.tc.update(&t.slot, rev)
}

// NewDirtyableTag creates a tag at Initial revision bound to this context's
// clock. The label is used in diagnostics only.
func (tc *TrackingContext) NewDirtyableTag(label string) *DirtyableTag {
	return &DirtyableTag{slot: slot{tc: tc, id: nextID(), label: label, rev: Initial}}
}

// NewUpdatableTag creates an updatable tag at Initial revision.
func (tc *TrackingContext) NewUpdatableTag(label string) *UpdatableTag {
	return &UpdatableTag{slot: slot{tc: tc, id: nextID(), label: label, rev: Initial}}
}

// describe names a tag for error messages.
func describe(t Tag) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", t)
}
