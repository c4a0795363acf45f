package reactive

import "log/slog"

// DevMode is the default for strict mode in contexts created without
// WithStrict. When true:
//   - dirtying a tag while a frame is open panics
//   - reading a value at a newer revision than earlier in the same pass panics
//   - Commit without Begin panics
//
// When false (production), the checks are skipped and unbalanced frames are
// repaired with a logged warning.
//
// Set this at application startup:
//
//	func main() {
//	    reactive.DevMode = os.Getenv("TRACKING_DEV") == "1"
//	    // ...
//	}
var DevMode = false

// Option configures a TrackingContext.
type Option func(*options)

type options struct {
	strict   bool
	logger   *slog.Logger
	observer Observer
}

// WithStrict enables or disables strict consistency checks, overriding DevMode.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithLogger sets the logger used for recompute debug output and self-healing
// warnings. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver installs an Observer. Use Observers to install several.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// CacheOption configures a Cache or Family.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	label string
}

// WithLabel names a cache in logs, metrics and error messages.
func WithLabel(label string) CacheOption {
	return func(o *cacheOptions) {
		o.label = label
	}
}

func applyCacheOptions(opts []CacheOption) cacheOptions {
	var o cacheOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
