package clog

// Options holds configuration options for a clog logger instance.
type Options struct {
	// Namespace is the root namespace, typically the service name.
	Namespace string
}

// Option defines a function type for configuring clog options.
type Option func(*Options)

// WithNamespace sets the root namespace for the logger.
//
// Example:
//
//	logger, err := clog.New(ctx, config, clog.WithNamespace("idleased"))
func WithNamespace(namespace string) Option {
	return func(opts *Options) {
		opts.Namespace = namespace
	}
}

// ParseOptions applies the provided options and returns a configured Options struct.
func ParseOptions(opts ...Option) *Options {
	result := &Options{}
	for _, opt := range opts {
		opt(result)
	}
	return result
}
