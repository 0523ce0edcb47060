package wideband

import (
	"context"
	"log/slog"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/resource"
)

// Writer places whole vectors, parameter records and support arrays at
// their computed offsets. Writer is not safe for concurrent use.
type Writer struct {
	layout  *Layout
	pvp     *PVPLayout
	support *SupportLayout
	dst     blobstore.WriterAt
	logger  *slog.Logger
}

// NewWriter returns a Writer. pvp and support may be nil.
func NewWriter(layout *Layout, pvp *PVPLayout, support *SupportLayout, dst blobstore.WriterAt, opts ...Option) (*Writer, error) {
	if layout == nil {
		return nil, errs.InvalidDimension("wideband writer", "missing signal layout")
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Writer{
		layout:  layout,
		pvp:     pvp,
		support: support,
		dst:     resource.NewThrottledWriterAt(dst, o.rc),
		logger:  o.logger,
	}, nil
}

// WriteVectors writes data, which must hold a whole number of vectors of
// ch, starting at startVector.
func (w *Writer) WriteVectors(ctx context.Context, ch int, startVector int64, data []byte) error {
	const op = "wideband write"
	if err := w.layout.checkChannel(op, ch); err != nil {
		return err
	}
	return w.writeRows(ctx, op, w.layout.grid(ch), startVector, data, channelLabel(ch))
}

// WritePVP writes whole parameter records of ch starting at startVector.
func (w *Writer) WritePVP(ctx context.Context, ch int, startVector int64, data []byte) error {
	const op = "pvp write"
	if w.pvp == nil {
		return errs.OutOfRange(op, "container has no per-vector parameter block")
	}
	if ch < 0 || ch >= len(w.pvp.Vectors) {
		return errs.OutOfRange(op, "channel %d outside [0,%d)", ch, len(w.pvp.Vectors))
	}
	return w.writeRows(ctx, op, w.pvp.grid(ch), startVector, data, "pvp "+channelLabel(ch))
}

// WriteSupport writes the complete support array id.
func (w *Writer) WriteSupport(ctx context.Context, id string, data []byte) error {
	const op = "support write"
	if w.support == nil {
		return errs.OutOfRange(op, "container has no support block")
	}
	a, err := w.support.Array(id)
	if err != nil {
		return err
	}
	if int64(len(data)) != a.Size() {
		return errs.InvalidDimension(op, "support array %q needs %d bytes, got %d", id, a.Size(), len(data))
	}
	if err := blobstore.WriteFull(ctx, w.dst, data, w.support.Offset+a.Offset); err != nil {
		return errs.Wrap(err, op, "support array %q", id)
	}
	return nil
}

func (w *Writer) writeRows(ctx context.Context, op string, g grid, start int64, data []byte, label string) error {
	rowBytes := g.rowBytes()
	if rowBytes <= 0 || len(data) == 0 || int64(len(data))%rowBytes != 0 {
		return errs.InvalidDimension(op, "%s: %d bytes is not a whole number of %d-byte vectors", label, len(data), rowBytes)
	}
	n := int64(len(data)) / rowBytes
	if start < 0 || start+n > g.rows {
		return errs.OutOfRange(op, "%s vectors [%d,%d) outside [0,%d)", label, start, start+n, g.rows)
	}
	if err := blobstore.WriteFull(ctx, w.dst, data, g.offset(start, 0)); err != nil {
		return errs.Wrap(err, op, "%s vectors [%d,%d)", label, start, start+n)
	}
	w.logger.Debug(op, "target", label, "start", start, "vectors", n)
	return nil
}
