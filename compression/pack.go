package compression

import (
	"context"
	"io"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/errs"
)

// Classifier reports whether a raw block is padding or carries no data.
type Classifier func(data []byte) (isPad, isNoData bool)

// ZeroIsNoData marks all-zero blocks as no-data.
func ZeroIsNoData(data []byte) (isPad, isNoData bool) {
	return false, uniform(data, 0)
}

// PadValue marks blocks made up entirely of v as pad blocks.
func PadValue(v byte) Classifier {
	return func(data []byte) (bool, bool) { return uniform(data, v), false }
}

func uniform(data []byte, v byte) bool {
	for _, b := range data {
		if b != v {
			return false
		}
	}
	return true
}

// Region maps one run of uncoded bytes onto the blocks that store it.
type Region struct {
	// Offset is the uncoded offset of the first byte.
	Offset int64 `json:"offset" cbor:"offset"`
	Length int64 `json:"length" cbor:"length"`
	// Blocks and Pads hold absolute offsets in the coded blob.
	Blocks *block.Mask `json:"blocks" cbor:"blocks"`
	Pads   *block.Mask `json:"pads,omitempty" cbor:"pads,omitempty"`
}

// End returns the uncoded offset just past the region.
func (r Region) End() int64 { return r.Offset + r.Length }

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// Pack codes length uncoded bytes of src, starting at offset, as a block
// sequence appended to dst. outOff is the coded offset dst's next byte will
// land at. It returns the region and the number of bytes written. A nil
// classify codes every block.
func Pack(ctx context.Context, id ID, cfg Config, src blobstore.ReaderAt, offset, length int64, dst io.Writer, outOff uint64, classify Classifier, opts ...Option) (Region, uint64, error) {
	const op = "compression pack"
	s, err := NewSession(id, cfg, opts...)
	if err != nil {
		return Region{}, 0, err
	}
	defer s.Destroy()

	blocks, pads, err := s.Start(outOff, uint64(length))
	if err != nil {
		return Region{}, 0, err
	}
	layout, err := block.NewLayout(0, uint64(length), cfg.BlockSize)
	if err != nil {
		return Region{}, 0, err
	}

	cw := &countingWriter{w: dst}
	buf := make([]byte, cfg.BlockSize)
	for i := range layout.NumBlocks() {
		if err := ctx.Err(); err != nil {
			return Region{}, 0, errs.IO(op, err)
		}
		raw := buf[:layout.BlockLen(i)]
		if err := blobstore.ReadFull(ctx, src, raw, offset+int64(layout.BlockStart(i))); err != nil {
			return Region{}, 0, errs.Wrap(err, op, "block %d of region at %d", i, offset)
		}
		var isPad, isNoData bool
		if classify != nil {
			isPad, isNoData = classify(raw)
		}
		if err := s.WriteBlock(cw, raw, isPad, isNoData); err != nil {
			return Region{}, 0, err
		}
	}
	if err := s.End(cw); err != nil {
		return Region{}, 0, err
	}

	r := Region{Offset: offset, Length: length, Blocks: blocks}
	if pads.Present() > 0 {
		r.Pads = pads
	}
	return r, cw.n, nil
}
