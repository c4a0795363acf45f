package instrument

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/tracking/pkg/reactive"
)

// Default tracer name for the tracking engine.
const defaultTracerName = "tracking"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "tracking").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Attributes are added to every pass span.
	Attributes []attribute.KeyValue

	// RecordHits adds an event per cache hit. Hits are always counted in the
	// tracking.cache_hits attribute; events for each one are disabled by
	// default.
	RecordHits bool
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithAttributes adds attributes to every pass span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// WithRecordHits enables an event per cache hit.
func WithRecordHits(record bool) OTelOption {
	return func(c *OTelConfig) {
		c.RecordHits = record
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// passSpan is a pass in progress and its counters.
type passSpan struct {
	span       trace.Span
	hits       int
	recomputes int
	dirties    int
}

// Tracer is a reactive.Observer that traces render passes.
type Tracer struct {
	tracer     trace.Tracer
	attrs      []attribute.KeyValue
	recordHits bool

	// open holds the spans of nested passes, innermost last.
	open []*passSpan
}

var _ reactive.Observer = (*Tracer)(nil)

// OpenTelemetry creates an observer that traces every render pass.
//
// The observer:
//   - Creates a span named "tracking.<pass>" for each pass, nested under any
//     span already in the pass context
//   - Passes the span context to the pass body
//   - Adds a "tracking.recompute" event for each recipe run
//   - Records violations and failed passes as span errors
//   - Sets hit, recompute and dirty counts as span attributes
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	tc := reactive.NewTrackingContext(
//	    reactive.WithObserver(instrument.OpenTelemetry()),
//	)
func OpenTelemetry(opts ...OTelOption) *Tracer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}

	return &Tracer{
		tracer:     config.TracerProvider.Tracer(config.TracerName),
		attrs:      config.Attributes,
		recordHits: config.RecordHits,
	}
}

// PassStarted implements reactive.Observer.
func (t *Tracer) PassStarted(ctx context.Context, name string) (context.Context, func(error)) {
	attrs := append([]attribute.KeyValue{
		attribute.String("tracking.pass", name),
	}, t.attrs...)

	spanCtx, span := t.tracer.Start(ctx, "tracking."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
	p := &passSpan{span: span}
	t.open = append(t.open, p)

	return spanCtx, func(err error) {
		if n := len(t.open); n > 0 && t.open[n-1] == p {
			t.open[n-1] = nil
			t.open = t.open[:n-1]
		}

		span.SetAttributes(
			attribute.Int("tracking.cache_hits", p.hits),
			attribute.Int("tracking.recomputes", p.recomputes),
			attribute.Int("tracking.dirties", p.dirties),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// CacheComputed implements reactive.Observer.
func (t *Tracer) CacheComputed(label string, elapsed time.Duration, err error) {
	p := t.current()
	if p == nil {
		return
	}
	p.recomputes++

	attrs := []attribute.KeyValue{
		attribute.String("tracking.cache", label),
		attribute.Int64("tracking.elapsed_us", elapsed.Microseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("tracking.error", err.Error()))
	}
	p.span.AddEvent("tracking.recompute", trace.WithAttributes(attrs...))
}

// CacheHit implements reactive.Observer.
func (t *Tracer) CacheHit(label string) {
	p := t.current()
	if p == nil {
		return
	}
	p.hits++
	if t.recordHits {
		p.span.AddEvent("tracking.hit", trace.WithAttributes(
			attribute.String("tracking.cache", label),
		))
	}
}

// TagDirtied implements reactive.Observer.
func (t *Tracer) TagDirtied(reactive.Tag) {
	if p := t.current(); p != nil {
		p.dirties++
	}
}

// Violation implements reactive.Observer.
func (t *Tracer) Violation(err *reactive.Error) {
	p := t.current()
	if p == nil {
		return
	}
	p.span.RecordError(err, trace.WithAttributes(
		attribute.String("tracking.code", err.Code),
		attribute.String("tracking.subject", err.Subject),
	))
}

func (t *Tracer) current() *passSpan {
	if n := len(t.open); n > 0 {
		return t.open[n-1]
	}
	return nil
}
