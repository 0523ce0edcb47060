package window

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/sarstore/resource"
)

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	workers        int
	logger         *slog.Logger
	rc             *resource.Controller
	allowOverwrite bool
}

func defaultOptions() options {
	return options{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithWorkers bounds the number of concurrent span reads. Values below one
// mean sequential reads.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = max(n, 1)
	}
}

// WithLogger sets the logger for debug events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResourceController throttles positioned I/O through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithAllowOverwrite disables duplicate-write detection. Completeness is
// still enforced by Finalize.
func WithAllowOverwrite(allow bool) Option {
	return func(o *options) {
		o.allowOverwrite = allow
	}
}
