package wideband

import (
	"context"
	"fmt"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/internal/parallel"
	"github.com/hupe1980/sarstore/resource"
)

// grid is a row-major rows x cols array of elem-byte elements at base.
type grid struct {
	base, rows, cols, elem int64
}

func (g grid) offset(r, c int64) int64 { return g.base + (r*g.cols+c)*g.elem }

func (g grid) rowBytes() int64 { return g.cols * g.elem }

// selection is a resolved sub-rectangle of a grid.
type selection struct {
	row, rows, col, cols int64
}

func (s selection) bytes(elem int64) int64 { return s.rows * s.cols * elem }

// resolve replaces All sentinels and checks the result against g.
func (g grid) resolve(op string, row, rows, col, cols int64) (selection, error) {
	if row < 0 || row >= g.rows {
		return selection{}, errs.OutOfRange(op, "start vector %d outside [0,%d)", row, g.rows)
	}
	if col < 0 || col >= g.cols {
		return selection{}, errs.OutOfRange(op, "start sample %d outside [0,%d)", col, g.cols)
	}
	if rows == All {
		rows = g.rows - row
	}
	if cols == All {
		cols = g.cols - col
	}
	if rows <= 0 || row+rows > g.rows {
		return selection{}, errs.OutOfRange(op, "vectors [%d,%d) outside [0,%d)", row, row+rows, g.rows)
	}
	if cols <= 0 || col+cols > g.cols {
		return selection{}, errs.OutOfRange(op, "samples [%d,%d) outside [0,%d)", col, col+cols, g.cols)
	}
	return selection{row: row, rows: rows, col: col, cols: cols}, nil
}

// partReader runs partitioned reads of a grid selection.
type partReader struct {
	src     blobstore.ReaderAt
	rc      *resource.Controller
	threads int
	label   string
}

// read fills out with sel. The rows of sel are split into up to threads
// near-equal partitions; each partition issues one positioned read into its
// own region of out. All partitions finish before read returns.
func (pr partReader) read(ctx context.Context, g grid, sel selection, out []byte) error {
	const op = "wideband read"
	parts := parallel.Partition(sel.row, sel.rows, pr.threads)
	outRow := sel.cols * g.elem
	full := sel.col == 0 && sel.cols == g.cols

	return parallel.Run(len(parts), pr.threads, func(i int) error {
		p := parts[i]
		dst := out[(p.Start-sel.row)*outRow : (p.End()-sel.row)*outRow]
		if err := pr.readPart(ctx, g, sel, p, full, dst); err != nil {
			return errs.Wrap(err, op, "%s vectors [%d,%d)", pr.label, p.Start, p.End())
		}
		return nil
	})
}

func (pr partReader) readPart(ctx context.Context, g grid, sel selection, p parallel.Range, full bool, dst []byte) error {
	off := g.offset(p.Start, sel.col)
	if full {
		return blobstore.ReadFull(ctx, pr.src, dst, off)
	}

	// Read the covering span once and compact it: every row but the last
	// carries a stride of unwanted samples.
	stride := g.rowBytes()
	want := sel.cols * g.elem
	span := (p.Count-1)*stride + want
	if err := pr.rc.AcquireMemory(ctx, span); err != nil {
		return err
	}
	defer pr.rc.ReleaseMemory(span)

	scratch := make([]byte, span)
	if err := blobstore.ReadFull(ctx, pr.src, scratch, off); err != nil {
		return err
	}
	for r := int64(0); r < p.Count; r++ {
		copy(dst[r*want:(r+1)*want], scratch[r*stride:r*stride+want])
	}
	return nil
}

func ensure(out []byte, n int64) []byte {
	if int64(len(out)) >= n {
		return out[:n]
	}
	return make([]byte, n)
}

func channelLabel(ch int) string { return fmt.Sprintf("channel %d", ch) }
