// Package compression defines the block codec plugin boundary used when
// image data is written as a sequence of independently coded blocks.
//
// A codec implements Compressor and Decompressor. Callers never drive a
// Compressor directly; they wrap it in a Session, which enforces the
// Start, WriteBlock, End, Destroy lifecycle and converts every codec
// failure (including panics) into an errs.ErrCodecFailure carrying only a
// message.
package compression

import (
	"io"
	"log/slog"

	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/internal/cache"
)

// ID identifies a codec in the registry.
type ID string

// Built-in codec identifiers.
const (
	None ID = "none"
	ZSTD ID = "zstd"
	LZ4  ID = "lz4"
	S2   ID = "s2"
	Zlib ID = "zlib"
)

// Compressor codes one data region as a sequence of blocks.
type Compressor interface {
	// Start computes the block layout for dataLength bytes beginning at
	// offset and returns the block and pad masks that WriteBlock fills in.
	Start(offset, dataLength uint64) (blockMask, padMask *block.Mask, err error)
	// WriteBlock writes one block to w. A pad or no-data block writes nothing.
	WriteBlock(w io.Writer, data []byte, isPad, isNoData bool) error
	// End flushes trailing state.
	End(w io.Writer) error
	// Destroy releases codec resources.
	Destroy()
}

// Decompressor reverses the block coding of one codec.
type Decompressor interface {
	// Decode decodes src into dst, which has the block's raw length.
	Decode(dst, src []byte) error
	Destroy()
}

// Config is handed to a plugin when a compressor is created.
type Config struct {
	// BlockSize is the raw size of every block but the last.
	BlockSize uint64
	// Level is a codec-specific effort level; 0 selects the codec default.
	Level int
}

// Plugin registers one codec.
type Plugin struct {
	ID              ID
	NewCompressor   func(cfg Config) (Compressor, error)
	NewDecompressor func() (Decompressor, error)
}

// Option configures a Session, Pack or BlockReader.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	cache     cache.BlockCache
	cacheName string
	pad       byte
}

func defaultOptions() options {
	return options{logger: slog.New(slog.DiscardHandler)}
}

// WithBlockCache makes a BlockReader keep decoded blocks in c under name.
func WithBlockCache(c cache.BlockCache, name string) Option {
	return func(o *options) {
		o.cache = c
		o.cacheName = name
	}
}

// WithPadValue sets the byte a BlockReader synthesizes for pad blocks.
func WithPadValue(v byte) Option {
	return func(o *options) { o.pad = v }
}

// WithLogger sets the logger used for session lifecycle debug events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
