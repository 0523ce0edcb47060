package sarstore

import (
	"log/slog"

	"github.com/hupe1980/sarstore/codec"
	"github.com/hupe1980/sarstore/compression"
	"github.com/hupe1980/sarstore/config"
	"github.com/hupe1980/sarstore/resource"
	"github.com/hupe1980/sarstore/segment"
)

type options struct {
	profile          *config.Profile
	manifestCodec    codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller
	blobCache        bool
	blobCacheBlock   int64
}

// Option configures Open.
type Option func(*options)

// WithProfile replaces the whole configuration with p. Later options
// override individual fields.
func WithProfile(p *config.Profile) Option {
	return func(o *options) {
		if p != nil {
			cp := *p
			o.profile = &cp
		}
	}
}

// WithLimits sets the per-segment ceilings used to plan new images.
func WithLimits(l segment.Limits) Option {
	return func(o *options) {
		o.profile.Segments = l
	}
}

// WithCodec enables block coding of finalized images with codec id, using
// blocks of blockRows image rows. An empty id disables coding.
//
// Example:
//
//	db, _ := sarstore.Open(store, sarstore.WithCodec(compression.ZSTD, 256))
func WithCodec(id compression.ID, blockRows int64) Option {
	return func(o *options) {
		o.profile.Compression.Codec = id
		o.profile.Compression.BlockRows = blockRows
	}
}

// WithThreads sets the default worker count for window and wideband reads.
func WithThreads(n int) Option {
	return func(o *options) {
		o.profile.Threads = n
	}
}

// WithAllowOverwrite disables duplicate-write detection in image write
// sessions. Finalize still requires every cell to be written.
func WithAllowOverwrite(allow bool) Option {
	return func(o *options) {
		o.profile.AllowOverwrite = allow
	}
}

// WithCacheBytes sizes the decoded block cache shared by image readers.
func WithCacheBytes(n int64) Option {
	return func(o *options) {
		o.profile.CacheBytes = n
	}
}

// WithCachingStore serves blob reads through the block cache in blocks of
// blockSize bytes, or blobstore.DefaultCacheBlockSize when blockSize <= 0.
// It suits remote backends such as S3 and MinIO, where window reads revisit
// the same segment rows. The cache must be sized with WithCacheBytes.
func WithCachingStore(blockSize int64) Option {
	return func(o *options) {
		o.blobCache = true
		o.blobCacheBlock = blockSize
	}
}

// WithResourceController shares rc with every reader and writer. Without
// it, Open builds one from the profile's resource limits.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithManifestCodec configures the codec new manifests are written with.
//
// If nil is passed, the profile's codec is used.
func WithManifestCodec(c codec.Codec) Option {
	return func(o *options) {
		o.manifestCodec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sarstore.BasicMetricsCollector{}
//	db, _ := sarstore.Open(store, sarstore.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Window reads: %d, avg latency: %dns\n", stats.WindowReads, stats.WindowReadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := sarstore.NewJSONLogger(slog.LevelInfo)
//	db, _ := sarstore.Open(store, sarstore.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		profile:          config.Default(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.manifestCodec == nil {
		o.manifestCodec = o.profile.Codec()
	}
	return o
}
