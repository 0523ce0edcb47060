package wideband

import (
	"context"
	"log/slog"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/resource"
)

// Reader reads signal, per-vector parameter and support data. It is safe
// for concurrent use when src is.
type Reader struct {
	layout  *Layout
	pvp     *PVPLayout
	support *SupportLayout
	src     blobstore.ReaderAt
	rc      *resource.Controller
	logger  *slog.Logger
}

// NewReader returns a Reader for the signal block described by layout.
// pvp and support may be nil when the container has no such block.
func NewReader(layout *Layout, pvp *PVPLayout, support *SupportLayout, src blobstore.ReaderAt, opts ...Option) (*Reader, error) {
	if layout == nil {
		return nil, errs.InvalidDimension("wideband reader", "missing signal layout")
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Reader{
		layout:  layout,
		pvp:     pvp,
		support: support,
		src:     resource.NewThrottledReaderAt(src, o.rc),
		rc:      o.rc,
		logger:  o.logger,
	}, nil
}

// Layout returns the signal layout.
func (r *Reader) Layout() *Layout { return r.layout }

// PVP returns the per-vector parameter layout, or nil.
func (r *Reader) PVP() *PVPLayout { return r.pvp }

// Support returns the support block layout, or nil.
func (r *Reader) Support() *SupportLayout { return r.support }

func (r *Reader) parts(threads int, label string) partReader {
	return partReader{src: r.src, rc: r.rc, threads: max(threads, 1), label: label}
}

// Read reads numVectors vectors starting at startVector, and from each the
// samples [startSample, startSample+numSamples). Either count may be All.
// The vector range is split across up to threads partitions; the result is
// identical for any thread count.
//
// out is reused when it is large enough; otherwise a buffer is allocated.
// The returned slice holds exactly the requested bytes in vector-major
// order.
func (r *Reader) Read(ctx context.Context, ch int, startVector, numVectors, startSample, numSamples int64, threads int, out []byte) ([]byte, error) {
	const op = "wideband read"
	if err := r.layout.checkChannel(op, ch); err != nil {
		return nil, err
	}
	g := r.layout.grid(ch)
	sel, err := g.resolve(op, startVector, numVectors, startSample, numSamples)
	if err != nil {
		return nil, errs.Wrap(err, op, "channel %d", ch)
	}
	out = ensure(out, sel.bytes(g.elem))

	r.logger.Debug("wideband read", "channel", ch, "vectors", sel.rows, "samples", sel.cols, "threads", threads)

	if err := r.parts(threads, channelLabel(ch)).read(ctx, g, sel, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadChannel reads a whole channel.
func (r *Reader) ReadChannel(ctx context.Context, ch int, threads int) ([]byte, error) {
	return r.Read(ctx, ch, 0, All, 0, All, threads, nil)
}

// ReadPVP reads the parameter records of numVectors vectors (or All)
// starting at startVector.
func (r *Reader) ReadPVP(ctx context.Context, ch int, startVector, numVectors int64, threads int, out []byte) ([]byte, error) {
	const op = "pvp read"
	if r.pvp == nil {
		return nil, errs.OutOfRange(op, "container has no per-vector parameter block")
	}
	if ch < 0 || ch >= len(r.pvp.Vectors) {
		return nil, errs.OutOfRange(op, "channel %d outside [0,%d)", ch, len(r.pvp.Vectors))
	}
	g := r.pvp.grid(ch)
	sel, err := g.resolve(op, startVector, numVectors, 0, All)
	if err != nil {
		return nil, errs.Wrap(err, op, "channel %d", ch)
	}
	out = ensure(out, sel.bytes(g.elem))
	if err := r.parts(threads, "pvp "+channelLabel(ch)).read(ctx, g, sel, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadSupport reads the support array id, splitting its rows across up
// to threads partitions.
func (r *Reader) ReadSupport(ctx context.Context, id string, threads int) ([]byte, error) {
	const op = "support read"
	if r.support == nil {
		return nil, errs.OutOfRange(op, "container has no support block")
	}
	a, err := r.support.Array(id)
	if err != nil {
		return nil, err
	}
	g := r.support.grid(a)
	sel := selection{rows: a.Rows, cols: a.Cols}
	out := make([]byte, a.Size())
	if err := r.parts(threads, "support array "+id).read(ctx, g, sel, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAllSupport reads every support array.
func (r *Reader) ReadAllSupport(ctx context.Context, threads int) (map[string][]byte, error) {
	if r.support == nil {
		return map[string][]byte{}, nil
	}
	out := make(map[string][]byte, len(r.support.Arrays))
	for _, a := range r.support.Arrays {
		b, err := r.ReadSupport(ctx, a.ID, threads)
		if err != nil {
			return nil, err
		}
		out[a.ID] = b
	}
	return out, nil
}
