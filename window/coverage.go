package window

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/raster"
)

// Coverage records which (row, col) cells of an image a write session has
// written. Each row keeps a bitmap of written columns, allocated on first
// write; fully written rows collapse to a single run.
//
// Coverage is not safe for concurrent use.
type Coverage struct {
	rows, cols int64
	written    []*roaring.Bitmap
}

// NewCoverage returns an empty coverage for a rows x cols image.
func NewCoverage(rows, cols int64) (*Coverage, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errs.InvalidDimension("coverage", "extent %dx%d", rows, cols)
	}
	if cols > math.MaxUint32 {
		return nil, errs.InvalidDimension("coverage", "%d columns exceed the per-row bitmap range", cols)
	}
	return &Coverage{rows: rows, cols: cols, written: make([]*roaring.Bitmap, rows)}, nil
}

// Overlap returns the first cell of w, in row-major order, that is already
// marked.
func (c *Coverage) Overlap(w raster.Window) (row, col int64, found bool) {
	probe := roaring.New()
	probe.AddRange(uint64(w.Col), uint64(w.EndCol()))
	for r := w.Row; r < w.EndRow(); r++ {
		bm := c.written[r]
		if bm == nil || !bm.Intersects(probe) {
			continue
		}
		hit := roaring.And(bm, probe)
		return r, int64(hit.Minimum()), true
	}
	return 0, 0, false
}

// Mark records every cell of w as written. w must lie inside the extent.
func (c *Coverage) Mark(w raster.Window) {
	for r := w.Row; r < w.EndRow(); r++ {
		bm := c.written[r]
		if bm == nil {
			bm = roaring.New()
			c.written[r] = bm
		}
		bm.AddRange(uint64(w.Col), uint64(w.EndCol()))
		bm.RunOptimize()
	}
}

// Contains reports whether cell (row, col) is marked.
func (c *Coverage) Contains(row, col int64) bool {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return false
	}
	bm := c.written[row]
	return bm != nil && bm.Contains(uint32(col))
}

// Covered returns the number of marked cells.
func (c *Coverage) Covered() int64 {
	var n int64
	for _, bm := range c.written {
		if bm != nil {
			n += int64(bm.GetCardinality())
		}
	}
	return n
}

// Missing returns the number of unmarked cells.
func (c *Coverage) Missing() int64 {
	return c.rows*c.cols - c.Covered()
}

// FirstIncomplete returns the lowest row with an unmarked cell.
func (c *Coverage) FirstIncomplete() (int64, bool) {
	for r, bm := range c.written {
		if bm == nil || int64(bm.GetCardinality()) < c.cols {
			return int64(r), true
		}
	}
	return 0, false
}

// Complete reports whether every cell is marked.
func (c *Coverage) Complete() bool {
	_, incomplete := c.FirstIncomplete()
	return !incomplete
}

func (c *Coverage) String() string {
	return fmt.Sprintf("coverage %d/%d cells", c.Covered(), c.rows*c.cols)
}
