package tracked

// Option configures a Map or Set.
type Option func(*options)

type options struct {
	label string
}

// WithLabel names the collection's tags in strict-mode diagnostics. Key tags
// are named label[key].
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

func applyOptions(defaultLabel string, opts []Option) options {
	o := options{label: defaultLabel}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
