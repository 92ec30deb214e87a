package filter

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithSkipFunc registers a callback for malformed events.
func WithSkipFunc(fn SkipFunc) Option {
	return func(f *Filter) {
		if fn != nil {
			f.onSkip = fn
		}
	}
}
