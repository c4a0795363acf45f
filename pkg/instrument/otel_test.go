package instrument

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/tracking/pkg/reactive"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func eventNames(span sdktrace.ReadOnlySpan) []string {
	var names []string
	for _, e := range span.Events() {
		names = append(names, e.Name)
	}
	return names
}

func TestOpenTelemetrySpanPerPass(t *testing.T) {
	sr, tp := newRecorder()
	tr := OpenTelemetry(WithTracerProvider(tp), WithAttributes(attribute.String("app", "bench")))
	tc := newContext(tr)

	count := reactive.NewCell(tc, 1).WithLabel("count")
	double := reactive.NewMemo(tc, func() int { return count.Get() * 2 }, reactive.WithLabel("double"))
	count.Set(2)

	_, err := tc.Pass(context.Background(), "render", func(context.Context) error {
		double.Get()
		double.Get()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "tracking.render" {
		t.Errorf("expected span tracking.render, got %q", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", span.Status().Code)
	}

	for key, want := range map[attribute.Key]int64{
		"tracking.recomputes": 1,
		"tracking.cache_hits": 1,
		"tracking.dirties":    0,
	} {
		v, ok := spanAttr(span, key)
		if !ok || v.AsInt64() != want {
			t.Errorf("%s = %v (present %v), want %d", key, v.AsInt64(), ok, want)
		}
	}
	if v, ok := spanAttr(span, "app"); !ok || v.AsString() != "bench" {
		t.Errorf("expected app=bench attribute, got %v", v.AsString())
	}

	names := eventNames(span)
	if len(names) != 1 || names[0] != "tracking.recompute" {
		t.Errorf("expected one recompute event, got %v", names)
	}
}

func TestOpenTelemetryRecordsViolations(t *testing.T) {
	sr, tp := newRecorder()
	tc := newContext(OpenTelemetry(WithTracerProvider(tp)))
	count := reactive.NewCell(tc, 1).WithLabel("count")

	_, err := tc.Pass(context.Background(), "render", func(context.Context) error {
		count.Get()
		count.Set(2)
		return nil
	})
	if !errors.Is(err, reactive.ErrBacktracking) {
		t.Fatalf("expected backtracking, got %v", err)
	}

	span := sr.Ended()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", span.Status().Code)
	}
	if v, _ := spanAttr(span, "tracking.dirties"); v.AsInt64() != 1 {
		t.Errorf("expected 1 dirty, got %d", v.AsInt64())
	}

	exceptions := 0
	for _, e := range span.Events() {
		if e.Name == "exception" {
			exceptions++
		}
	}
	// One for the violation, one for the failed pass.
	if exceptions != 2 {
		t.Errorf("expected 2 exception events, got %d", exceptions)
	}
}

func TestOpenTelemetryNestedPasses(t *testing.T) {
	sr, tp := newRecorder()
	tc := newContext(OpenTelemetry(WithTracerProvider(tp), WithRecordHits(true)))
	c := reactive.NewMemo(tc, func() int { return 1 }, reactive.WithLabel("one"))

	_, err := tc.Pass(context.Background(), "outer", func(ctx context.Context) error {
		_, err := tc.Pass(ctx, "inner", func(context.Context) error {
			c.Get()
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	inner, outer := spans[0], spans[1]
	if inner.Name() != "tracking.inner" || outer.Name() != "tracking.outer" {
		t.Fatalf("unexpected span order %q, %q", inner.Name(), outer.Name())
	}
	if inner.Parent().SpanID() != outer.SpanContext().SpanID() {
		t.Error("expected inner span to be a child of the outer span")
	}
	if names := eventNames(inner); len(names) != 1 || names[0] != "tracking.hit" {
		t.Errorf("expected one hit event on the inner span, got %v", names)
	}
	if v, _ := spanAttr(outer, "tracking.cache_hits"); v.AsInt64() != 0 {
		t.Errorf("expected hits to be counted on the innermost pass only, got %d", v.AsInt64())
	}
}

func TestOpenTelemetryIgnoresEventsOutsidePasses(t *testing.T) {
	sr, tp := newRecorder()
	tr := OpenTelemetry(WithTracerProvider(tp))

	tr.CacheHit("x")
	tr.CacheComputed("x", 0, nil)
	tr.TagDirtied(reactive.ConstantTag)

	if n := len(sr.Ended()); n != 0 {
		t.Errorf("expected no spans, got %d", n)
	}
}
