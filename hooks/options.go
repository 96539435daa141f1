package hooks

import (
	"log/slog"
	"time"

	"github.com/brahma-adshonor/overhook/hook"
	"github.com/brahma-adshonor/overhook/pipeline"
)

const (
	DefaultTeardownRetries  = 50
	DefaultTeardownInterval = 20 * time.Millisecond
)

type options struct {
	registry *hook.Registry
	log      *slog.Logger
	retries  int
	interval time.Duration
	pipeline []pipeline.Option
}

type Option func(*options)

// WithRegistry patches through r instead of hook.Default().
func WithRegistry(r *hook.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTeardown bounds how long Uninstall waits for running detours.
func WithTeardown(retries int, interval time.Duration) Option {
	return func(o *options) {
		if retries > 0 {
			o.retries = retries
		}
		if interval > 0 {
			o.interval = interval
		}
	}
}

// WithPipelineOptions is passed to pipeline.New when the pipeline is built.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) { o.pipeline = append(o.pipeline, opts...) }
}

func newOptions(opts []Option) options {
	o := options{
		log:      slog.Default(),
		retries:  DefaultTeardownRetries,
		interval: DefaultTeardownInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = hook.Default()
	}
	o.pipeline = append([]pipeline.Option{pipeline.WithLogger(o.log)}, o.pipeline...)
	return o
}
