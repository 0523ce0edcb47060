package window

import (
	"context"
	"log/slog"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/internal/parallel"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/resource"
	"github.com/hupe1980/sarstore/segment"
)

// Reader serves window reads from a segmented image. It is safe for
// concurrent use when src is.
type Reader struct {
	g       geometry
	src     blobstore.ReaderAt
	workers int
	logger  *slog.Logger
}

// NewReader returns a Reader over src, which must support stateless
// positioned reads.
func NewReader(plan *segment.Plan, img raster.Image, src blobstore.ReaderAt, opts ...Option) (*Reader, error) {
	g, err := newGeometry(plan, img)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Reader{
		g:       g,
		src:     resource.NewThrottledReaderAt(src, o.rc),
		workers: o.workers,
		logger:  o.logger,
	}, nil
}

// Image returns the image the reader serves.
func (r *Reader) Image() raster.Image { return r.g.img }

// Plan returns the segment plan.
func (r *Reader) Plan() *segment.Plan { return r.g.plan }

// ReadWindow reads w into a new buffer.
func (r *Reader) ReadWindow(ctx context.Context, w raster.Window) ([]byte, error) {
	if err := w.Within(r.g.img.Rows, r.g.img.Cols); err != nil {
		return nil, err
	}
	dst := make([]byte, w.Bytes(r.g.img))
	if err := r.ReadWindowInto(ctx, w, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// ReadWindowInto reads w into dst, which must hold w.Bytes(img) bytes.
// Segments are read concurrently; every read is awaited before returning
// and the first failure is reported.
func (r *Reader) ReadWindowInto(ctx context.Context, w raster.Window, dst []byte) error {
	const op = "window read"
	parts, err := r.g.parts(w)
	if err != nil {
		return err
	}
	if need := w.Bytes(r.g.img); int64(len(dst)) < need {
		return errs.InvalidDimension(op, "buffer holds %d bytes, window needs %d", len(dst), need)
	}

	r.logger.Debug("window read", "window", w.String(), "parts", len(parts), "workers", r.workers)

	return parallel.Run(len(parts), r.workers, func(i int) error {
		return r.readPart(ctx, w, parts[i], dst)
	})
}

func (r *Reader) readPart(ctx context.Context, w raster.Window, pt part, dst []byte) error {
	const op = "window read"
	g := r.g
	s := pt.span
	rowLen := w.Cols * g.img.ElementSize()
	first := s.Row() - w.Row

	// Full-width rows are contiguous both in the file and in dst.
	if w.Cols == g.img.Cols {
		off := g.fileOffset(s.Segment, pt.plane, s.FirstRow, 0)
		start := g.bufOffset(w, pt.plane, first)
		buf := dst[start : start+s.NumRows*rowLen]
		if err := blobstore.ReadFull(ctx, r.src, buf, off); err != nil {
			return errs.Wrap(err, op, "segment %d rows [%d,%d) plane %d", s.Segment.Index, s.Row(), s.Row()+s.NumRows, pt.plane)
		}
		return nil
	}

	for i := int64(0); i < s.NumRows; i++ {
		off := g.fileOffset(s.Segment, pt.plane, s.FirstRow+i, w.Col)
		start := g.bufOffset(w, pt.plane, first+i)
		if err := blobstore.ReadFull(ctx, r.src, dst[start:start+rowLen], off); err != nil {
			return errs.Wrap(err, op, "segment %d row %d plane %d", s.Segment.Index, s.Row()+i, pt.plane)
		}
	}
	return nil
}
