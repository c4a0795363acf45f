package reactive

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStrict() *TrackingContext {
	return NewTrackingContext(WithStrict(true), WithLogger(quietLogger()))
}

func newProduction() *TrackingContext {
	return NewTrackingContext(WithStrict(false), WithLogger(quietLogger()))
}

// catch runs fn and returns the *Error it panicked with, or nil.
func catch(t *testing.T, fn func()) (caught *Error) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			te, ok := r.(*Error)
			if !ok {
				t.Fatalf("expected *Error panic, got %T: %v", r, r)
			}
			caught = te
		}
	}()
	fn()
	return nil
}

func expectViolation(t *testing.T, target error, fn func()) *Error {
	t.Helper()
	err := catch(t, fn)
	if err == nil {
		t.Fatalf("expected panic matching %v, got none", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
	return err
}

// countingTag counts Revision calls.
type countingTag struct {
	rev   Revision
	calls int
}

func (c *countingTag) Revision() Revision {
	c.calls++
	return c.rev
}
