package pipeline

import (
	"log/slog"
	"time"

	"github.com/brahma-adshonor/overhook/ui"
)

const DefaultQueueSize = 1024

type options struct {
	ws        WindowSystem
	queueSize int
	log       *slog.Logger
	clock     func() time.Time
	fonts     *ui.FontAtlas
}

type Option func(*options)

func WithWindowSystem(ws WindowSystem) Option {
	return func(o *options) { o.ws = ws }
}

// WithQueueSize bounds the messages held between two frames.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithFontAtlas shares an already built atlas instead of rasterizing one.
func WithFontAtlas(a *ui.FontAtlas) Option {
	return func(o *options) { o.fonts = a }
}

func newOptions(opts []Option) options {
	o := options{
		ws:        defaultWindowSystem(),
		queueSize: DefaultQueueSize,
		log:       slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
