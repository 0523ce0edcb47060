package wideband

import (
	"log/slog"

	"github.com/hupe1980/sarstore/resource"
)

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	logger *slog.Logger
	rc     *resource.Controller
}

func defaultOptions() options {
	return options{logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger for debug events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResourceController throttles positioned I/O and accounts scratch
// buffers against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
