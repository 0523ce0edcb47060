package window

import (
	"context"
	"log/slog"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/resource"
	"github.com/hupe1980/sarstore/segment"
)

// Writer is a single-writer session that places windows into a segmented
// image. Windows may arrive in any order. Each cell must be written exactly
// once before Finalize succeeds, unless overwrites are allowed.
//
// Writer is not safe for concurrent use.
type Writer struct {
	g              geometry
	dst            blobstore.WriterAt
	cov            *Coverage
	closed         bool
	allowOverwrite bool
	logger         *slog.Logger
}

// NewWriter starts a write session against dst.
func NewWriter(plan *segment.Plan, img raster.Image, dst blobstore.WriterAt, opts ...Option) (*Writer, error) {
	g, err := newGeometry(plan, img)
	if err != nil {
		return nil, err
	}
	cov, err := NewCoverage(img.Rows, img.Cols)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Writer{
		g:              g,
		dst:            resource.NewThrottledWriterAt(dst, o.rc),
		cov:            cov,
		allowOverwrite: o.allowOverwrite,
		logger:         o.logger,
	}, nil
}

// Coverage exposes the session's written-cell bookkeeping.
func (w *Writer) Coverage() *Coverage { return w.cov }

// Closed reports whether Finalize succeeded or the session was abandoned.
func (w *Writer) Closed() bool { return w.closed }

// WriteWindow writes data, laid out as ReadWindow returns it, into win.
// The whole window is checked for previously written cells before any
// byte reaches dst.
func (w *Writer) WriteWindow(ctx context.Context, win raster.Window, data []byte) error {
	const op = "window write"
	if w.closed {
		return errs.InvalidState(op, "write session is closed")
	}
	parts, err := w.g.parts(win)
	if err != nil {
		return err
	}
	if need := win.Bytes(w.g.img); int64(len(data)) != need {
		return errs.InvalidDimension(op, "data has %d bytes, window %s needs %d", len(data), win, need)
	}
	if !w.allowOverwrite {
		if row, col, dup := w.cov.Overlap(win); dup {
			return errs.DuplicateWrite(op, "cell (%d,%d) of %s was already written", row, col, win)
		}
	}

	for _, pt := range parts {
		if err := w.writePart(ctx, win, pt, data); err != nil {
			return err
		}
	}
	w.cov.Mark(win)

	w.logger.Debug("window write", "window", win.String(), "parts", len(parts))
	return nil
}

func (w *Writer) writePart(ctx context.Context, win raster.Window, pt part, data []byte) error {
	const op = "window write"
	g := w.g
	s := pt.span
	rowLen := win.Cols * g.img.ElementSize()
	first := s.Row() - win.Row

	if win.Cols == g.img.Cols {
		off := g.fileOffset(s.Segment, pt.plane, s.FirstRow, 0)
		start := g.bufOffset(win, pt.plane, first)
		if err := blobstore.WriteFull(ctx, w.dst, data[start:start+s.NumRows*rowLen], off); err != nil {
			return errs.Wrap(err, op, "segment %d rows [%d,%d) plane %d", s.Segment.Index, s.Row(), s.Row()+s.NumRows, pt.plane)
		}
		return nil
	}

	for i := int64(0); i < s.NumRows; i++ {
		off := g.fileOffset(s.Segment, pt.plane, s.FirstRow+i, win.Col)
		start := g.bufOffset(win, pt.plane, first+i)
		if err := blobstore.WriteFull(ctx, w.dst, data[start:start+rowLen], off); err != nil {
			return errs.Wrap(err, op, "segment %d row %d plane %d", s.Segment.Index, s.Row()+i, pt.plane)
		}
	}
	return nil
}

// Finalize closes the session once every cell has been written. On
// ErrIncompleteWrite the session stays open so the caller can write the
// missing cells and finalize again.
func (w *Writer) Finalize() error {
	const op = "window finalize"
	if w.closed {
		return errs.InvalidState(op, "write session is closed")
	}
	if row, incomplete := w.cov.FirstIncomplete(); incomplete {
		return errs.IncompleteWrite(op, "row %d is incomplete, %d cells never written", row, w.cov.Missing())
	}
	w.closed = true
	w.cov = nil
	w.logger.Debug("window session finalized")
	return nil
}

// Abandon discards the session. Bytes already written stay in dst.
func (w *Writer) Abandon() {
	w.closed = true
	w.cov = nil
}
