package reactive

import (
	"fmt"
	"strings"
)

// combinator is a tag whose revision is the maximum of its children.
// The maximum is recomputed at most once per clock value.
type combinator struct {
	clock *Clock
	id    uint64
	tags  []Tag

	// last is the maximum computed when the clock read checked.
	last    Revision
	checked Revision
}

func (c *combinator) tagID() uint64 { return c.id }

// Revision returns the newest revision among the children.
func (c *combinator) Revision() Revision {
	now := c.clock.Now()
	if c.checked == now {
		return c.last
	}
	max := Constant
	for _, t := range c.tags {
		if r := t.Revision(); r > max {
			max = r
		}
	}
	c.last = max
	c.checked = now
	return max
}

func (c *combinator) String() string {
	names := make([]string, len(c.tags))
	for i, t := range c.tags {
		names[i] = describe(t)
	}
	return fmt.Sprintf("combine(%s)", strings.Join(names, ", "))
}

// Combine returns a tag whose revision is the maximum of tags. ConstantTag
// members and nils are dropped. No remaining members yields ConstantTag and
// a single member is returned unchanged. Children are borrowed and must
// outlive the result.
func Combine(clock *Clock, tags ...Tag) Tag {
	var (
		first Tag
		live  []Tag
	)
	for _, t := range tags {
		if t == nil || t == ConstantTag {
			continue
		}
		if first == nil {
			first = t
			continue
		}
		if live == nil {
			live = make([]Tag, 0, len(tags))
			live = append(live, first)
		}
		live = append(live, t)
	}
	switch {
	case first == nil:
		return ConstantTag
	case live == nil:
		return first
	}
	return &combinator{clock: clock, id: nextID(), tags: live}
}

// Combine combines tags against this context's clock.
func (tc *TrackingContext) Combine(tags ...Tag) Tag {
	return Combine(tc.clock, tags...)
}

// dedupe removes repeated tags in place, keeping first occurrences.
func dedupe(tags []Tag) []Tag {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[Tag]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
