package instrument

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/tracking/pkg/reactive"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func newContext(obs reactive.Observer) *reactive.TrackingContext {
	return reactive.NewTrackingContext(
		reactive.WithStrict(true),
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		reactive.WithObserver(obs),
	)
}

func TestPrometheusRecordsEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))
	tc := newContext(m)

	count := reactive.NewCell(tc, 1).WithLabel("count")
	double := reactive.NewMemo(tc, func() int { return count.Get() * 2 }, reactive.WithLabel("double"))

	ctx := context.Background()
	if _, err := tc.Pass(ctx, "render", func(context.Context) error {
		double.Get()
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count.Set(2)

	if _, err := tc.Pass(ctx, "render", func(context.Context) error {
		double.Get()
		count.Set(3)
		return nil
	}); err == nil {
		t.Fatal("expected write during pass to fail")
	}

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"passes success", m.passesTotal.WithLabelValues("render", "success"), 1},
		{"passes error", m.passesTotal.WithLabelValues("render", "error"), 1},
		{"recomputes", m.recomputesTotal.WithLabelValues("double", "success"), 2},
		{"hits", m.hitsTotal.WithLabelValues("double"), 1},
		{"dirties", m.dirtiesTotal, 2},
		{"violations", m.violationsTotal.WithLabelValues("T002"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metricCounterValue(t, tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got := metricHistogramCount(t, m.passDuration.WithLabelValues("render")); got != 2 {
		t.Errorf("pass_duration_seconds count=%d, want 2", got)
	}
	if got := metricHistogramCount(t, m.recomputeDuration.WithLabelValues("double")); got != 2 {
		t.Errorf("cache_recompute_duration_seconds count=%d, want 2", got)
	}
	if got := metricGaugeValue(t, m.passesInFlight); got != 0 {
		t.Errorf("passes_in_flight=%v, want 0", got)
	}
}

func TestPrometheusFailedRecipe(t *testing.T) {
	m := Prometheus(WithRegistry(prometheus.NewRegistry()), WithNamespace("app"))
	tc := newContext(m)

	_, _ = reactive.NewCache(tc, func() (int, error) {
		return 0, io.ErrUnexpectedEOF
	}, reactive.WithLabel("loader"))

	if got := metricCounterValue(t, m.recomputesTotal.WithLabelValues("loader", "error")); got != 1 {
		t.Errorf("recomputes(error)=%v, want 1", got)
	}
}

func TestPrometheusRegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithNamespace("app"), WithSubsystem("ui"))
	m.TagDirtied(reactive.ConstantTag)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_ui_tag_dirties_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected app_ui_tag_dirties_total to be registered")
	}
}

func TestCacheFamily(t *testing.T) {
	tests := map[string]string{
		"":           "unlabeled",
		"double":     "double",
		"row(42)":    "row",
		"row(a(b))":  "row",
		"(weird)":    "(weird)",
		"plain name": "plain name",
	}
	for in, want := range tests {
		if got := CacheFamily(in); got != want {
			t.Errorf("CacheFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithCacheLabel(t *testing.T) {
	m := Prometheus(
		WithRegistry(prometheus.NewRegistry()),
		WithCacheLabel(func(string) string { return "all" }),
	)
	m.CacheHit("anything")

	if got := metricCounterValue(t, m.hitsTotal.WithLabelValues("all")); got != 1 {
		t.Errorf("hits(all)=%v, want 1", got)
	}
}
