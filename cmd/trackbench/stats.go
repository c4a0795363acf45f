package main

import (
	"context"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/vango-dev/tracking/pkg/reactive"
)

// latencyWindow is how many recent pass latencies the report covers.
const latencyWindow = 1024

// stats is a reactive.Observer that counts engine activity for the report.
// The mutex lets the serve command read a snapshot while passes run.
type stats struct {
	mu sync.Mutex

	passes     int
	failed     int
	hits       int
	recomputes int
	dirties    int
	violations map[string]int

	// latencies is a ring of the last latencyWindow pass durations; next is
	// the slot the following pass overwrites once the ring is full.
	latencies []time.Duration
	next      int
}

var _ reactive.Observer = (*stats)(nil)

func newStats() *stats {
	return &stats{violations: make(map[string]int)}
}

func (s *stats) PassStarted(ctx context.Context, _ string) (context.Context, func(error)) {
	start := time.Now()
	return ctx, func(err error) {
		elapsed := time.Since(start)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.passes++
		if err != nil {
			s.failed++
		}
		s.record(elapsed)
	}
}

// record stores a latency. Callers hold s.mu.
func (s *stats) record(d time.Duration) {
	if len(s.latencies) < latencyWindow {
		s.latencies = append(s.latencies, d)
		return
	}
	s.latencies[s.next] = d
	s.next = (s.next + 1) % latencyWindow
}

func (s *stats) CacheComputed(string, time.Duration, error) {
	s.mu.Lock()
	s.recomputes++
	s.mu.Unlock()
}

func (s *stats) CacheHit(string) {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *stats) TagDirtied(reactive.Tag) {
	s.mu.Lock()
	s.dirties++
	s.mu.Unlock()
}

func (s *stats) Violation(err *reactive.Error) {
	s.mu.Lock()
	s.violations[err.Code]++
	s.mu.Unlock()
}

// report summarizes the counters.
type report struct {
	Scenario   string         `json:"scenario"`
	Strict     bool           `json:"strict"`
	Passes     int            `json:"passes"`
	Failed     int            `json:"failed_passes"`
	Hits       int            `json:"cache_hits"`
	Recomputes int            `json:"recomputes"`
	HitRatio   float64        `json:"hit_ratio"`
	Dirties    int            `json:"tag_dirties"`
	Violations map[string]int `json:"violations,omitempty"`
	Total      int            `json:"total"`
	LatencyMS  latencyInfo    `json:"latency_ms"` // last latencyWindow passes
	ElapsedMS  int64          `json:"elapsed_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

func (s *stats) report() report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := report{
		Passes:     s.passes,
		Failed:     s.failed,
		Hits:       s.hits,
		Recomputes: s.recomputes,
		Dirties:    s.dirties,
		Violations: maps.Clone(s.violations),
	}
	if reads := s.hits + s.recomputes; reads > 0 {
		r.HitRatio = float64(s.hits) / float64(reads)
	}

	if len(s.latencies) > 0 {
		sorted := slices.Clone(s.latencies)
		slices.Sort(sorted)
		r.LatencyMS = latencyInfo{
			Min: ms(sorted[0]),
			P50: ms(percentile(sorted, 0.50)),
			P95: ms(percentile(sorted, 0.95)),
			P99: ms(percentile(sorted, 0.99)),
			Max: ms(sorted[len(sorted)-1]),
		}
	}
	return r
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
