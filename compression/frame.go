package compression

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/errs"
)

// FrameHeaderSize is the size of the header in front of every stored block.
// Format: [RawLen uint32][StoredLen uint32][Data...]
// If StoredLen == 0 the block is stored uncoded.
const FrameHeaderSize = 8

// encodeFunc codes src and returns the coded bytes. A nil result means the
// codec could not shrink the block.
type encodeFunc func(src []byte) ([]byte, error)

// blockWriter is the layout and mask bookkeeping every codec shares. Codecs
// embed it and supply encode.
type blockWriter struct {
	blockSize uint64
	encode    encodeFunc

	layout    block.Layout
	blockMask *block.Mask
	padMask   *block.Mask
	next      int
	pos       uint64
}

// framingError marks a failure raised by blockWriter rather than by the
// codec. It describes the caller's input or writer and keeps its kind when
// a Session reports it.
type framingError struct{ err error }

func (e framingError) Error() string { return e.err.Error() }

func (e framingError) Unwrap() error { return e.err }

func newBlockWriter(cfg Config, encode encodeFunc) (blockWriter, error) {
	if cfg.BlockSize == 0 {
		return blockWriter{}, framingError{errs.InvalidDimension("compressor", "block size must be positive")}
	}
	if cfg.BlockSize > 1<<31 {
		return blockWriter{}, framingError{errs.InvalidDimension("compressor", "block size %d does not fit a frame header", cfg.BlockSize)}
	}
	return blockWriter{blockSize: cfg.BlockSize, encode: encode}, nil
}

func (b *blockWriter) Start(offset, dataLength uint64) (*block.Mask, *block.Mask, error) {
	l, err := block.NewLayout(offset, dataLength, b.blockSize)
	if err != nil {
		return nil, nil, framingError{err}
	}
	b.layout = l
	b.blockMask = block.NewMask(l.NumBlocks())
	b.padMask = block.NewMask(l.NumBlocks())
	b.next = 0
	b.pos = offset
	return b.blockMask, b.padMask, nil
}

func (b *blockWriter) WriteBlock(w io.Writer, data []byte, isPad, isNoData bool) error {
	const op = "compression write block"
	if b.next >= b.layout.NumBlocks() {
		return framingError{errs.OutOfRange(op, "block %d past layout of %d blocks", b.next, b.layout.NumBlocks())}
	}
	i := b.next
	switch {
	case isNoData:
	case isPad:
		b.padMask.Set(i, block.Offset(b.pos))
	default:
		if want := b.layout.BlockLen(i); uint64(len(data)) != want {
			return framingError{errs.InvalidDimension(op, "block %d has %d bytes, want %d", i, len(data), want)}
		}
		frame, err := b.frame(data)
		if err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return framingError{errs.IO(op, err)}
		}
		b.blockMask.Set(i, block.Offset(b.pos))
		b.pos += uint64(len(frame))
	}
	b.next++
	return nil
}

func (b *blockWriter) End(io.Writer) error { return nil }

func (b *blockWriter) Destroy() {
	b.blockMask, b.padMask = nil, nil
}

func (b *blockWriter) frame(data []byte) ([]byte, error) {
	coded, err := b.encode(data)
	if err != nil {
		return nil, err
	}
	// Store raw when coding does not help (ratio > 0.9).
	if len(coded) == 0 || float64(len(coded)) > float64(len(data))*0.9 {
		out := make([]byte, FrameHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[FrameHeaderSize:], data)
		return out, nil
	}
	out := make([]byte, FrameHeaderSize+len(coded))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(coded)))
	copy(out[FrameHeaderSize:], coded)
	return out, nil
}

// FrameHeader is the decoded header of a stored block.
type FrameHeader struct {
	RawLen    uint32
	StoredLen uint32 // 0 means raw
}

// Payload returns the number of bytes that follow the header.
func (h FrameHeader) Payload() int {
	if h.StoredLen == 0 {
		return int(h.RawLen)
	}
	return int(h.StoredLen)
}

// ParseFrameHeader decodes the first FrameHeaderSize bytes of p.
func ParseFrameHeader(p []byte) (FrameHeader, error) {
	if len(p) < FrameHeaderSize {
		return FrameHeader{}, fmt.Errorf("block too small for header")
	}
	return FrameHeader{
		RawLen:    binary.LittleEndian.Uint32(p[0:]),
		StoredLen: binary.LittleEndian.Uint32(p[4:]),
	}, nil
}
