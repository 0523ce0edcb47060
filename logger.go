package sarstore

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/sarstore/raster"
)

// Logger wraps slog.Logger with sarstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithContainer adds the container name to the logger.
func (l *Logger) WithContainer(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("container", name),
	}
}

// WithChannel adds a channel field to the logger.
func (l *Logger) WithChannel(ch int) *Logger {
	return &Logger{
		Logger: l.Logger.With("channel", ch),
	}
}

// LogWindowRead logs a window read.
func (l *Logger) LogWindowRead(ctx context.Context, w raster.Window, err error) {
	if err != nil {
		l.ErrorContext(ctx, "window read failed",
			"window", w.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "window read completed",
			"window", w.String(),
		)
	}
}

// LogWindowWrite logs a window write.
func (l *Logger) LogWindowWrite(ctx context.Context, w raster.Window, err error) {
	if err != nil {
		l.WarnContext(ctx, "window write rejected",
			"window", w.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "window write completed",
			"window", w.String(),
		)
	}
}

// LogFinalize logs the end of an image write session.
func (l *Logger) LogFinalize(ctx context.Context, segments int, err error) {
	if err != nil {
		l.WarnContext(ctx, "finalize failed",
			"segments", segments,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "image finalized",
			"segments", segments,
		)
	}
}

// LogCompress logs a block coding pass.
func (l *Logger) LogCompress(ctx context.Context, codec string, rawBytes, codedBytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compression failed",
			"codec", codec,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "compression completed",
			"codec", codec,
			"raw_bytes", rawBytes,
			"coded_bytes", codedBytes,
		)
	}
}

// LogWidebandRead logs a threaded signal read.
func (l *Logger) LogWidebandRead(ctx context.Context, ch int, vectors int64, threads int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "wideband read failed",
			"channel", ch,
			"vectors", vectors,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "wideband read completed",
			"channel", ch,
			"vectors", vectors,
			"threads", threads,
		)
	}
}
