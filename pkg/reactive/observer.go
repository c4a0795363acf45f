package reactive

import (
	"context"
	"time"
)

// Observer receives engine events. Implementations must be cheap: CacheHit
// and TagDirtied run on every read and write.
//
// See the instrument package for Prometheus and OpenTelemetry observers.
type Observer interface {
	// PassStarted is called when Pass begins. The returned context is passed
	// to the pass body; done is called exactly once when the pass ends.
	PassStarted(ctx context.Context, name string) (_ context.Context, done func(err error))

	// CacheComputed is called after every recipe run, including failed ones.
	CacheComputed(label string, elapsed time.Duration, err error)

	// CacheHit is called when a read is served from the snapshot.
	CacheHit(label string)

	// TagDirtied is called once per tag written.
	TagDirtied(tag Tag)

	// Violation is called before a strict-mode panic.
	Violation(err *Error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) PassStarted(ctx context.Context, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (NopObserver) CacheComputed(string, time.Duration, error) {}
func (NopObserver) CacheHit(string)                            {}
func (NopObserver) TagDirtied(Tag)                             {}
func (NopObserver) Violation(*Error)                           {}

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return NopObserver{}
	case 1:
		return list[0]
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) PassStarted(ctx context.Context, name string) (context.Context, func(error)) {
	dones := make([]func(error), len(m))
	for i, o := range m {
		ctx, dones[i] = o.PassStarted(ctx, name)
	}
	return ctx, func(err error) {
		// End in reverse so nested spans close inside-out.
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](err)
		}
	}
}

func (m multiObserver) CacheComputed(label string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.CacheComputed(label, elapsed, err)
	}
}

func (m multiObserver) CacheHit(label string) {
	for _, o := range m {
		o.CacheHit(label)
	}
}

func (m multiObserver) TagDirtied(tag Tag) {
	for _, o := range m {
		o.TagDirtied(tag)
	}
}

func (m multiObserver) Violation(err *Error) {
	for _, o := range m {
		o.Violation(err)
	}
}
