package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/vango-dev/tracking/internal/config"
	"github.com/vango-dev/tracking/pkg/reactive"
	"github.com/vango-dev/tracking/pkg/tracked"
)

// Scenarios select what happens inside a pass.
const (
	// scenarioSteady renders and leaves all writes to the gaps between passes.
	scenarioSteady = "steady"

	// scenarioBacktrack writes a row the pass already read. Strict mode
	// rejects every such pass.
	scenarioBacktrack = "backtrack"
)

// workload is a synthetic component tree.
//
//	rows, selected, scale
//	    └── row(i)         = rows[i] × (2 if selected) × scale
//	        └── layerN(i)  = layerN-1(i) + layerN-1(i+1)
//	            └── total  = Σ top(k) over present rows
type workload struct {
	tc       *reactive.TrackingContext
	bench    config.BenchConfig
	scenario string
	rng      *rand.Rand

	rows     *tracked.Map[int, int]
	selected *tracked.Set[int]
	scale    *reactive.Cell[int]
	layers   []*reactive.Family[int, int]
	total    *reactive.Cache[int]
}

func newWorkload(tc *reactive.TrackingContext, bench config.BenchConfig, scenario string) (*workload, error) {
	switch scenario {
	case "", scenarioSteady:
		scenario = scenarioSteady
	case scenarioBacktrack:
	default:
		return nil, fmt.Errorf("unknown scenario %q (want %s or %s)", scenario, scenarioSteady, scenarioBacktrack)
	}

	w := &workload{
		tc:       tc,
		bench:    bench,
		scenario: scenario,
		rng:      rand.New(rand.NewPCG(uint64(bench.Seed), uint64(bench.Width))),
	}

	initial := make(map[int]int, bench.Width)
	for i := 0; i < bench.Width; i++ {
		initial[i] = i
	}
	w.rows = tracked.FromMap(tc, initial, tracked.WithLabel("rows"))
	w.selected = tracked.NewSet[int](tc, nil, tracked.WithLabel("selected"))
	w.scale = reactive.NewCell(tc, 1).WithLabel("scale")

	base, err := reactive.NewFamily(tc, bench.FamilySize, w.row, reactive.WithLabel("row"))
	if err != nil {
		return nil, err
	}
	w.layers = append(w.layers, base)

	for d := 1; d < bench.Depth; d++ {
		below := w.layers[d-1]
		layer, err := reactive.NewFamily(tc, bench.FamilySize, func(i int) (int, error) {
			a, err := below.Read(i)
			if err != nil {
				return 0, err
			}
			b, err := below.Read((i + 1) % bench.Width)
			return a + b, err
		}, reactive.WithLabel(fmt.Sprintf("layer%d", d)))
		if err != nil {
			return nil, err
		}
		w.layers = append(w.layers, layer)
	}

	w.total, err = reactive.NewCache(tc, w.sum, reactive.WithLabel("total"))
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (w *workload) row(i int) (int, error) {
	v, ok := w.rows.Get(i)
	if !ok {
		return 0, nil
	}
	if w.selected.Has(i) {
		v *= 2
	}
	return v * w.scale.Get(), nil
}

func (w *workload) sum() (int, error) {
	top := w.top()
	total := 0
	for _, k := range w.rows.Keys() {
		v, err := top.Read(k)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func (w *workload) top() *reactive.Family[int, int] {
	return w.layers[len(w.layers)-1]
}

// render reads every row of the top layer and the total.
func (w *workload) render(context.Context) error {
	top := w.top()
	for i := 0; i < w.bench.Width; i++ {
		if _, err := top.Read(i); err != nil {
			return err
		}
	}
	if _, err := w.total.Read(); err != nil {
		return err
	}

	if w.scenario == scenarioBacktrack {
		w.rows.Update(w.rng.IntN(w.bench.Width), func(v int) int { return v + 1 })
	}
	return nil
}

// pass runs one render pass.
func (w *workload) pass(ctx context.Context) error {
	_, err := w.tc.Pass(ctx, "render", w.render)
	return err
}

// mutate applies the configured number of random writes.
func (w *workload) mutate() {
	for n := 0; n < w.bench.Mutations; n++ {
		i := w.rng.IntN(w.bench.Width)
		switch w.rng.IntN(10) {
		case 0:
			w.scale.Update(func(s int) int { return s%3 + 1 })
		case 1:
			if !w.selected.Delete(i) {
				w.selected.Add(i)
			}
		case 2:
			if !w.rows.Delete(i) {
				w.rows.Set(i, i)
			}
		default:
			w.rows.Update(i, func(v int) int { return v + 1 })
		}
	}
}

// Total returns the last computed total without tracking.
func (w *workload) Total() int {
	v, _ := w.total.Peek()
	return v
}
