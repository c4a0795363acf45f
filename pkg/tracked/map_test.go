package tracked

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/tracking/pkg/reactive"
)

func newStrict() *reactive.TrackingContext {
	return reactive.NewTrackingContext(
		reactive.WithStrict(true),
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// counted wraps a memo and counts recipe runs.
type counted[T any] struct {
	*reactive.Cache[T]
	runs int
}

func memo[T any](tc *reactive.TrackingContext, fn func() T) *counted[T] {
	c := &counted[T]{}
	c.Cache = reactive.NewMemo(tc, func() T {
		c.runs++
		return fn()
	})
	return c
}

func TestMapAbsentKeyObservesInsert(t *testing.T) {
	tc := newStrict()
	m := NewMap[string, int](tc)

	x := memo(tc, func() int {
		v, ok := m.Get("x")
		if !ok {
			return -1
		}
		return v
	})
	size := memo(tc, m.Len)

	if x.Get() != -1 || size.Get() != 0 {
		t.Fatalf("expected (-1, 0), got (%d, %d)", x.Get(), size.Get())
	}

	m.Set("x", 1)

	if x.State() != reactive.CacheStale {
		t.Errorf("expected key reader stale after insert, got %v", x.State())
	}
	if size.State() != reactive.CacheStale {
		t.Errorf("expected size reader stale after insert, got %v", size.State())
	}
	if x.Get() != 1 || size.Get() != 1 {
		t.Errorf("expected (1, 1), got (%d, %d)", x.Get(), size.Get())
	}
}

func TestMapEqualWriteIsSilent(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"x": 1})
	x := memo(tc, func() int {
		v, _ := m.Get("x")
		return v
	})

	m.Set("x", 1)
	x.Get()
	if x.runs != 1 {
		t.Errorf("expected no recomputation after equal write, got %d runs", x.runs)
	}
}

func TestMapKeyAndCollectionSeparation(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"x": 1, "y": 2})
	x := memo(tc, func() int { v, _ := m.Get("x"); return v })
	y := memo(tc, func() int { v, _ := m.Get("y"); return v })
	size := memo(tc, m.Len)
	keys := memo(tc, m.Keys)

	m.Set("x", 5)

	if x.State() != reactive.CacheStale {
		t.Errorf("expected x stale, got %v", x.State())
	}
	for name, c := range map[string]reactive.CacheState{
		"y":    y.State(),
		"size": size.State(),
		"keys": keys.State(),
	} {
		if c != reactive.CacheValid {
			t.Errorf("expected %s valid after value change, got %v", name, c)
		}
	}
}

func TestMapNewKeyDirtiesProbeAndCollectionTogether(t *testing.T) {
	tc := newStrict()
	m := NewMap[string, int](tc)

	probe := tc.Track(func() { m.Has("k") })
	size := tc.Track(func() { m.Len() })
	m.Set("k", 1)

	if probe.Revision() != size.Revision() {
		t.Errorf("expected one tick for key and collection, got %d and %d",
			probe.Revision(), size.Revision())
	}
}

func TestMapDelete(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"x": 1, "y": 2})
	x := memo(tc, func() int {
		v, ok := m.Get("x")
		if !ok {
			return -1
		}
		return v
	})
	size := memo(tc, m.Len)

	if !m.Delete("x") {
		t.Fatal("expected Delete to report a present key")
	}
	if m.Delete("x") {
		t.Error("expected second Delete to report absence")
	}
	if x.Get() != -1 || size.Get() != 1 {
		t.Errorf("expected (-1, 1), got (%d, %d)", x.Get(), size.Get())
	}

	// The absent read holds a fresh tag that must see the key return.
	m.Set("x", 3)
	if x.Get() != 3 {
		t.Errorf("expected re-added key to be observed, got %d", x.Get())
	}
	if x.runs != 3 {
		t.Errorf("expected 3 runs, got %d", x.runs)
	}
}

func TestMapUntrackedLookupsKeepNoTags(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[int]int{1: 1})

	for k := 0; k < 100; k++ {
		m.Get(k)
		m.Has(k)
	}
	m.Values()
	if len(m.keyTags) != 0 {
		t.Fatalf("expected no key tags after untracked reads, got %d", len(m.keyTags))
	}

	missing := memo(tc, func() int { v, _ := m.Get(7); return v })
	if len(m.keyTags) != 1 {
		t.Errorf("expected one key tag for the tracked read, got %d", len(m.keyTags))
	}
	m.Set(7, 70)
	if missing.Get() != 70 {
		t.Errorf("expected tracked absent read to see the insert, got %d", missing.Get())
	}
}

func TestMapClear(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"x": 1, "y": 2})
	x := memo(tc, func() int { v, _ := m.Get("x"); return v })
	size := memo(tc, m.Len)
	sizeTag := tc.Track(func() { m.Len() })
	before := sizeTag.Revision()

	m.Clear()
	if x.State() != reactive.CacheStale || size.State() != reactive.CacheStale {
		t.Errorf("expected all readers stale, got x=%v size=%v", x.State(), size.State())
	}
	if x.Get() != 0 || size.Get() != 0 {
		t.Errorf("expected (0, 0), got (%d, %d)", x.Get(), size.Get())
	}

	rev := sizeTag.Revision()
	if rev <= before {
		t.Errorf("expected collection tag to advance")
	}
	m.Clear()
	if sizeTag.Revision() != rev || size.State() != reactive.CacheValid {
		t.Error("expected clearing an empty map not to dirty")
	}
}

func TestMapValuesTrackValueChanges(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"a": 1, "b": 2})
	sum := memo(tc, func() int {
		total := 0
		for _, v := range m.Values() {
			total += v
		}
		return total
	})
	ranged := memo(tc, func() int {
		total := 0
		for _, v := range m.All() {
			total += v
		}
		return total
	})

	if sum.Get() != 3 || ranged.Get() != 3 {
		t.Fatalf("expected 3, got %d and %d", sum.Get(), ranged.Get())
	}

	m.Set("b", 10)
	if sum.Get() != 11 || ranged.Get() != 11 {
		t.Errorf("expected 11, got %d and %d", sum.Get(), ranged.Get())
	}
}

func TestMapAllStopsEarly(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[int]string{1: "a", 2: "b", 3: "c"})

	seen := 0
	for range m.All() {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("expected 1 iteration, got %d", seen)
	}
}

func TestMapKeys(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"b": 2, "a": 1, "c": 3})

	got := m.Keys()
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestMapUpdate(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"n": 1})

	m.Update("n", func(v int) int { return v + 1 })
	m.Update("missing", func(v int) int { return v + 1 })

	if v, _ := m.Get("n"); v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
	if m.Has("missing") {
		t.Error("expected Update not to insert")
	}
}

func TestMapCustomEquals(t *testing.T) {
	tc := newStrict()
	m := NewMap[string, []int](tc).WithEquals(func(a, b []int) bool { return len(a) == len(b) })
	m.Set("k", []int{1})
	tag := tc.Track(func() { m.Get("k") })
	before := tag.Revision()

	m.Set("k", []int{2})
	if tag.Revision() != before {
		t.Error("expected equal-length write to be ignored")
	}
}

func TestMapStrictLabels(t *testing.T) {
	tc := newStrict()
	m := FromMap(tc, map[string]int{"x": 1}, WithLabel("users"))

	_, err := tc.Pass(context.Background(), "render", func(context.Context) error {
		m.Get("x")
		m.Set("x", 2)
		return nil
	})

	var te *reactive.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *reactive.Error, got %v", err)
	}
	if !errors.Is(err, reactive.ErrBacktracking) {
		t.Errorf("expected backtracking, got %v", err)
	}
	if te.Subject != "users[x]" {
		t.Errorf("expected subject users[x], got %q", te.Subject)
	}
}

func TestMapProductionAllowsWritesInPass(t *testing.T) {
	tc := reactive.NewTrackingContext(
		reactive.WithStrict(false),
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	m := NewMap[string, int](tc)

	_, err := tc.Pass(context.Background(), "render", func(context.Context) error {
		m.Len()
		m.Set("x", 1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := m.Get("x"); !ok || v != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", v, ok)
	}
}
