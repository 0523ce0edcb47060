// Package window reconciles rectangular read and write requests against a
// segmented image.
//
// A window may cross any number of segments. Each request is split with
// segment.Plan.Spans into per-segment row ranges, and every row range is
// served by positioned I/O at offsets computed from the plan.
//
// Buffers hold a window in logical order: row-major cells for interleaved
// images, and band-major planes for band-sequential images. Inside a
// segment, a band-sequential image stores each band's rows for that segment
// contiguously.
package window

import (
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/segment"
)

type geometry struct {
	img  raster.Image
	plan *segment.Plan
}

func newGeometry(plan *segment.Plan, img raster.Image) (geometry, error) {
	if err := img.Validate(); err != nil {
		return geometry{}, err
	}
	if plan == nil || plan.NumSegments() == 0 {
		return geometry{}, errs.InvalidDimension("window", "empty segment plan")
	}
	if plan.TotalRows != img.Rows || plan.TotalCols != img.Cols || plan.BytesPerRow != img.RowBytes() {
		return geometry{}, errs.InvalidDimension("window",
			"plan %dx%d (%d bytes/row) does not match image %dx%d (%d bytes/row)",
			plan.TotalRows, plan.TotalCols, plan.BytesPerRow, img.Rows, img.Cols, img.RowBytes())
	}
	return geometry{img: img, plan: plan}, nil
}

// part is one contiguous run of rows of one plane inside one segment.
type part struct {
	span  segment.Span
	plane int64
}

func (g geometry) parts(w raster.Window) ([]part, error) {
	if err := w.Within(g.img.Rows, g.img.Cols); err != nil {
		return nil, err
	}
	spans, err := g.plan.Spans(w.Row, w.Rows)
	if err != nil {
		return nil, err
	}
	planes := g.img.Planes()
	out := make([]part, 0, len(spans)*int(planes))
	for _, s := range spans {
		for p := int64(0); p < planes; p++ {
			out = append(out, part{span: s, plane: p})
		}
	}
	return out, nil
}

// fileOffset returns the file position of cell (localRow, col) of plane p
// within segment s.
func (g geometry) fileOffset(s segment.Segment, p, localRow, col int64) int64 {
	rowBytes := g.img.PlaneRowBytes()
	planeOffset := p * s.Rows() * rowBytes
	return s.FileOffset + planeOffset + localRow*rowBytes + col*g.img.ElementSize()
}

// bufOffset returns the buffer position of window row r (relative to w.Row)
// of plane p.
func (g geometry) bufOffset(w raster.Window, p, r int64) int64 {
	rowLen := w.Cols * g.img.ElementSize()
	return p*w.Rows*rowLen + r*rowLen
}

// FileOffset returns the file position of cell (row, col) in plane band.
// For interleaved images band must be 0.
func FileOffset(plan *segment.Plan, img raster.Image, row, col, band int64) (int64, error) {
	g, err := newGeometry(plan, img)
	if err != nil {
		return 0, err
	}
	if band < 0 || band >= img.Planes() {
		return 0, errs.OutOfRange("window offset", "plane %d outside [0,%d)", band, img.Planes())
	}
	if col < 0 || col >= img.Cols {
		return 0, errs.OutOfRange("window offset", "col %d outside [0,%d)", col, img.Cols)
	}
	i, err := plan.Locate(row)
	if err != nil {
		return 0, err
	}
	s := plan.Segments[i]
	return g.fileOffset(s, band, row-s.StartRow, col), nil
}
