package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var errSizeMismatch = errors.New("decompressed size mismatch")

// none

type noneCompressor struct{ blockWriter }

func nonePlugin() Plugin {
	return Plugin{
		ID: None,
		NewCompressor: func(cfg Config) (Compressor, error) {
			bw, err := newBlockWriter(cfg, func([]byte) ([]byte, error) { return nil, nil })
			if err != nil {
				return nil, err
			}
			return &noneCompressor{blockWriter: bw}, nil
		},
		NewDecompressor: func() (Decompressor, error) { return noneDecompressor{}, nil },
	}
}

type noneDecompressor struct{}

func (noneDecompressor) Decode(dst, src []byte) error {
	if len(src) != len(dst) {
		return errSizeMismatch
	}
	copy(dst, src)
	return nil
}

func (noneDecompressor) Destroy() {}

// zstd

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

type zstdCompressor struct {
	blockWriter
	enc    *zstd.Encoder
	pooled bool
}

func zstdPlugin() Plugin {
	return Plugin{
		ID: ZSTD,
		NewCompressor: func(cfg Config) (Compressor, error) {
			c := &zstdCompressor{}
			if cfg.Level == 0 {
				c.enc, c.pooled = getZstdEncoder(), true
			} else {
				enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.Level)))
				if err != nil {
					return nil, err
				}
				c.enc = enc
			}
			bw, err := newBlockWriter(cfg, func(src []byte) ([]byte, error) {
				return c.enc.EncodeAll(src, nil), nil
			})
			if err != nil {
				c.Destroy()
				return nil, err
			}
			c.blockWriter = bw
			return c, nil
		},
		NewDecompressor: func() (Decompressor, error) {
			return &zstdDecompressor{dec: getZstdDecoder()}, nil
		},
	}
}

func (c *zstdCompressor) Destroy() {
	c.blockWriter.Destroy()
	if c.enc == nil {
		return
	}
	if c.pooled {
		zstdEncoderPool.Put(c.enc)
	} else {
		_ = c.enc.Close()
	}
	c.enc = nil
}

type zstdDecompressor struct{ dec *zstd.Decoder }

func (d *zstdDecompressor) Decode(dst, src []byte) error {
	out, err := d.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return err
	}
	if len(out) != len(dst) {
		return errSizeMismatch
	}
	return nil
}

func (d *zstdDecompressor) Destroy() {
	if d.dec != nil {
		zstdDecoderPool.Put(d.dec)
		d.dec = nil
	}
}

// lz4

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

type lz4Compressor struct {
	blockWriter
	fast lz4.Compressor
	hc   *lz4.CompressorHC
}

func lz4Plugin() Plugin {
	return Plugin{
		ID: LZ4,
		NewCompressor: func(cfg Config) (Compressor, error) {
			if cfg.Level < 0 || cfg.Level > len(lz4Levels) {
				return nil, fmt.Errorf("lz4 level %d outside 0..%d", cfg.Level, len(lz4Levels))
			}
			c := &lz4Compressor{}
			if cfg.Level > 0 {
				c.hc = &lz4.CompressorHC{Level: lz4Levels[cfg.Level-1]}
			}
			bw, err := newBlockWriter(cfg, c.encode)
			if err != nil {
				return nil, err
			}
			c.blockWriter = bw
			return c, nil
		},
		NewDecompressor: func() (Decompressor, error) { return lz4Decompressor{}, nil },
	}
}

func (c *lz4Compressor) encode(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var (
		n   int
		err error
	)
	if c.hc != nil {
		n, err = c.hc.CompressBlock(src, dst)
	} else {
		n, err = c.fast.CompressBlock(src, dst)
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return dst[:n], nil
}

type lz4Decompressor struct{}

func (lz4Decompressor) Decode(dst, src []byte) error {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return err
	}
	if n != len(dst) {
		return errSizeMismatch
	}
	return nil
}

func (lz4Decompressor) Destroy() {}

// s2

type s2Compressor struct{ blockWriter }

func s2Plugin() Plugin {
	return Plugin{
		ID: S2,
		NewCompressor: func(cfg Config) (Compressor, error) {
			enc := s2.Encode
			switch {
			case cfg.Level >= 3:
				enc = s2.EncodeBest
			case cfg.Level == 2:
				enc = s2.EncodeBetter
			}
			bw, err := newBlockWriter(cfg, func(src []byte) ([]byte, error) {
				return enc(nil, src), nil
			})
			if err != nil {
				return nil, err
			}
			return &s2Compressor{blockWriter: bw}, nil
		},
		NewDecompressor: func() (Decompressor, error) { return s2Decompressor{}, nil },
	}
}

type s2Decompressor struct{}

func (s2Decompressor) Decode(dst, src []byte) error {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return err
	}
	if n != len(dst) {
		return errSizeMismatch
	}
	_, err = s2.Decode(dst, src)
	return err
}

func (s2Decompressor) Destroy() {}

// zlib

type zlibCompressor struct {
	blockWriter
	buf bytes.Buffer
	zw  *zlib.Writer
}

func zlibPlugin() Plugin {
	return Plugin{
		ID: Zlib,
		NewCompressor: func(cfg Config) (Compressor, error) {
			level := zlib.DefaultCompression
			if cfg.Level != 0 {
				level = cfg.Level
			}
			c := &zlibCompressor{}
			zw, err := zlib.NewWriterLevel(&c.buf, level)
			if err != nil {
				return nil, err
			}
			c.zw = zw
			bw, err := newBlockWriter(cfg, c.encode)
			if err != nil {
				return nil, err
			}
			c.blockWriter = bw
			return c, nil
		},
		NewDecompressor: func() (Decompressor, error) { return zlibDecompressor{}, nil },
	}
}

func (c *zlibCompressor) encode(src []byte) ([]byte, error) {
	c.buf.Reset()
	c.zw.Reset(&c.buf)
	if _, err := c.zw.Write(src); err != nil {
		return nil, err
	}
	if err := c.zw.Close(); err != nil {
		return nil, err
	}
	return bytes.Clone(c.buf.Bytes()), nil
}

func (c *zlibCompressor) Destroy() {
	c.blockWriter.Destroy()
	c.zw = nil
}

type zlibDecompressor struct{}

func (zlibDecompressor) Decode(dst, src []byte) error {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return err
	}
	defer zr.Close()
	if _, err := io.ReadFull(zr, dst); err != nil {
		return err
	}
	// Trailing output means the frame header lied about the raw size.
	var one [1]byte
	if n, _ := zr.Read(one[:]); n != 0 {
		return errSizeMismatch
	}
	return nil
}

func (zlibDecompressor) Destroy() {}
