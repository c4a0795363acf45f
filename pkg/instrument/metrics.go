package instrument

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/tracking/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "tracking").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass and recompute duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// CacheLabel maps a cache label to the value of the "cache" metric
	// label. Default: CacheFamily.
	CacheLabel func(string) string
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithCacheLabel sets the function mapping cache labels to metric labels.
func WithCacheLabel(fn func(string) string) MetricsOption {
	return func(c *MetricsConfig) {
		c.CacheLabel = fn
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:  "tracking",
		Buckets:    prometheus.DefBuckets,
		Registry:   prometheus.DefaultRegisterer,
		CacheLabel: CacheFamily,
	}
}

// CacheFamily collapses family member labels such as "row(42)" to "row",
// keeping the cache label's cardinality bounded. Unlabeled caches map to
// "unlabeled".
func CacheFamily(label string) string {
	if i := strings.IndexByte(label, '('); i > 0 {
		label = label[:i]
	}
	if label == "" {
		return "unlabeled"
	}
	return label
}

// Metrics is a reactive.Observer that records Prometheus metrics.
type Metrics struct {
	cacheLabel func(string) string

	passesTotal       *prometheus.CounterVec
	passDuration      *prometheus.HistogramVec
	passesInFlight    prometheus.Gauge
	recomputesTotal   *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	hitsTotal         *prometheus.CounterVec
	dirtiesTotal      prometheus.Counter
	violationsTotal   *prometheus.CounterVec
}

var _ reactive.Observer = (*Metrics)(nil)

// Prometheus creates an observer that records engine metrics. The metrics
// are registered with the configured registry, so each registry can hold
// one observer per namespace and subsystem.
//
// Metrics collected:
//   - tracking_passes_total: Counter of passes by name and status
//   - tracking_pass_duration_seconds: Histogram of pass duration by name
//   - tracking_passes_in_flight: Gauge of open passes
//   - tracking_cache_recomputes_total: Counter of recipe runs by cache and status
//   - tracking_cache_recompute_duration_seconds: Histogram of recipe duration by cache
//   - tracking_cache_hits_total: Counter of reads served from a snapshot by cache
//   - tracking_tag_dirties_total: Counter of tag writes
//   - tracking_violations_total: Counter of strict-mode violations by error code
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	tc := reactive.NewTrackingContext(
//	    reactive.WithObserver(instrument.Prometheus(instrument.WithRegistry(reg))),
//	)
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.CacheLabel == nil {
		config.CacheLabel = CacheFamily
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		cacheLabel: config.CacheLabel,

		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of render passes",
			ConstLabels: config.ConstLabels,
		}, []string{"pass", "status"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"pass"}),

		passesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_in_flight",
			Help:        "Number of render passes currently open",
			ConstLabels: config.ConstLabels,
		}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_recomputes_total",
			Help:        "Total number of cache recipe runs",
			ConstLabels: config.ConstLabels,
		}, []string{"cache", "status"}),

		recomputeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_recompute_duration_seconds",
			Help:        "Cache recipe duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"cache"}),

		hitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_hits_total",
			Help:        "Total number of cache reads served without recomputing",
			ConstLabels: config.ConstLabels,
		}, []string{"cache"}),

		dirtiesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tag_dirties_total",
			Help:        "Total number of tag writes",
			ConstLabels: config.ConstLabels,
		}),

		violationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "violations_total",
			Help:        "Total strict-mode violations by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// PassStarted implements reactive.Observer.
func (m *Metrics) PassStarted(ctx context.Context, name string) (context.Context, func(error)) {
	start := time.Now()
	m.passesInFlight.Inc()
	return ctx, func(err error) {
		m.passesInFlight.Dec()
		m.passDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.passesTotal.WithLabelValues(name, status(err)).Inc()
	}
}

// CacheComputed implements reactive.Observer.
func (m *Metrics) CacheComputed(label string, elapsed time.Duration, err error) {
	cache := m.cacheLabel(label)
	m.recomputeDuration.WithLabelValues(cache).Observe(elapsed.Seconds())
	m.recomputesTotal.WithLabelValues(cache, status(err)).Inc()
}

// CacheHit implements reactive.Observer.
func (m *Metrics) CacheHit(label string) {
	m.hitsTotal.WithLabelValues(m.cacheLabel(label)).Inc()
}

// TagDirtied implements reactive.Observer.
func (m *Metrics) TagDirtied(reactive.Tag) {
	m.dirtiesTotal.Inc()
}

// Violation implements reactive.Observer.
func (m *Metrics) Violation(err *reactive.Error) {
	m.violationsTotal.WithLabelValues(err.Code).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
