// Package segment splits a logical image into row-range segments that
// respect the per-segment row and byte ceilings of a container format.
//
// A Plan is derived once per image and never mutated. Read and write paths
// share Plan.Spans to map a row range onto the segments it touches.
package segment

import (
	"sort"

	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/raster"
)

// Segment is a contiguous row range [StartRow, EndRow) stored at
// FileOffset with Size bytes.
type Segment struct {
	Index      int   `json:"index"`
	StartRow   int64 `json:"start_row"`
	EndRow     int64 `json:"end_row"`
	FileOffset int64 `json:"file_offset"`
	Size       int64 `json:"size"`
}

// Rows returns the number of rows in the segment.
func (s Segment) Rows() int64 { return s.EndRow - s.StartRow }

// Plan is an ordered partition of [0, TotalRows) into segments.
type Plan struct {
	TotalRows   int64     `json:"total_rows"`
	TotalCols   int64     `json:"total_cols"`
	BytesPerRow int64     `json:"bytes_per_row"`
	Segments    []Segment `json:"segments"`
}

// Build computes the segment plan. Each segment receives the largest whole
// row count r with r <= maxRowsPerSegment and r*bytesPerRow <=
// maxBytesPerSegment; the final segment takes the remainder. Offsets are
// contiguous from zero.
//
// Build is a pure function of its arguments.
func Build(totalRows, totalCols, bytesPerRow, maxBytesPerSegment, maxRowsPerSegment int64) (*Plan, error) {
	const op = "segment plan"

	switch {
	case totalRows <= 0:
		return nil, errs.InvalidDimension(op, "total rows must be positive, got %d", totalRows)
	case totalCols <= 0:
		return nil, errs.InvalidDimension(op, "total cols must be positive, got %d", totalCols)
	case bytesPerRow <= 0:
		return nil, errs.InvalidDimension(op, "bytes per row must be positive, got %d", bytesPerRow)
	case maxBytesPerSegment <= 0:
		return nil, errs.InvalidDimension(op, "max bytes per segment must be positive, got %d", maxBytesPerSegment)
	case maxRowsPerSegment <= 0:
		return nil, errs.InvalidDimension(op, "max rows per segment must be positive, got %d", maxRowsPerSegment)
	}

	if bytesPerRow > maxBytesPerSegment {
		return nil, errs.CapacityExceeded(op, "a row needs %d bytes but a segment holds at most %d", bytesPerRow, maxBytesPerSegment)
	}

	rowsPerSegment := min(maxRowsPerSegment, maxBytesPerSegment/bytesPerRow)
	n := (totalRows + rowsPerSegment - 1) / rowsPerSegment

	p := &Plan{
		TotalRows:   totalRows,
		TotalCols:   totalCols,
		BytesPerRow: bytesPerRow,
		Segments:    make([]Segment, 0, n),
	}

	var offset int64
	for start := int64(0); start < totalRows; start += rowsPerSegment {
		end := min(start+rowsPerSegment, totalRows)
		size := (end - start) * bytesPerRow
		p.Segments = append(p.Segments, Segment{
			Index:      len(p.Segments),
			StartRow:   start,
			EndRow:     end,
			FileOffset: offset,
			Size:       size,
		})
		offset += size
	}

	return p, nil
}

// ForImage plans img under the given limits.
func ForImage(img raster.Image, l Limits) (*Plan, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return Build(img.Rows, img.Cols, img.RowBytes(), l.MaxBytes, l.MaxRows)
}

// NumSegments returns the number of segments.
func (p *Plan) NumSegments() int { return len(p.Segments) }

// TotalBytes returns the sum of all segment sizes.
func (p *Plan) TotalBytes() int64 {
	var n int64
	for _, s := range p.Segments {
		n += s.Size
	}
	return n
}

// End returns the file offset just past the last segment.
func (p *Plan) End() int64 {
	if len(p.Segments) == 0 {
		return 0
	}
	last := p.Segments[len(p.Segments)-1]
	return last.FileOffset + last.Size
}

// Rebase returns a new plan whose segments start at base and are each
// preceded by headerLen bytes of per-segment subheader. The receiver is
// left unchanged.
func (p *Plan) Rebase(base, headerLen int64) *Plan {
	q := &Plan{
		TotalRows:   p.TotalRows,
		TotalCols:   p.TotalCols,
		BytesPerRow: p.BytesPerRow,
		Segments:    make([]Segment, len(p.Segments)),
	}
	offset := base
	for i, s := range p.Segments {
		offset += headerLen
		s.FileOffset = offset
		q.Segments[i] = s
		offset += s.Size
	}
	return q
}

// Locate returns the index of the segment containing row.
func (p *Plan) Locate(row int64) (int, error) {
	if row < 0 || row >= p.TotalRows {
		return 0, errs.OutOfRange("segment locate", "row %d outside [0,%d)", row, p.TotalRows)
	}
	i := sort.Search(len(p.Segments), func(i int) bool {
		return p.Segments[i].EndRow > row
	})
	return i, nil
}

// Span is the part of one segment touched by a row range.
type Span struct {
	Segment Segment
	// FirstRow is relative to Segment.StartRow.
	FirstRow int64
	NumRows  int64
}

// Row returns the absolute image row of the first row in the span.
func (s Span) Row() int64 { return s.Segment.StartRow + s.FirstRow }

// Spans returns, in row order, the segments intersecting
// [startRow, startRow+numRows) and the row sub-range of each.
func (p *Plan) Spans(startRow, numRows int64) ([]Span, error) {
	if numRows <= 0 || startRow < 0 || startRow+numRows > p.TotalRows {
		return nil, errs.OutOfRange("segment spans", "rows [%d,%d) outside [0,%d)", startRow, startRow+numRows, p.TotalRows)
	}
	first, err := p.Locate(startRow)
	if err != nil {
		return nil, err
	}
	end := startRow + numRows

	var spans []Span
	for i := first; i < len(p.Segments) && p.Segments[i].StartRow < end; i++ {
		s := p.Segments[i]
		lo := max(startRow, s.StartRow)
		hi := min(end, s.EndRow)
		spans = append(spans, Span{Segment: s, FirstRow: lo - s.StartRow, NumRows: hi - lo})
	}
	return spans, nil
}

// Equal reports whether two plans describe the same segmentation.
func (p *Plan) Equal(o *Plan) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.TotalRows != o.TotalRows || p.TotalCols != o.TotalCols || p.BytesPerRow != o.BytesPerRow {
		return false
	}
	if len(p.Segments) != len(o.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != o.Segments[i] {
			return false
		}
	}
	return true
}

// Validate checks the partition invariants against the given limits.
func (p *Plan) Validate(l Limits) error {
	const op = "segment plan validate"
	if len(p.Segments) == 0 {
		return errs.InvalidDimension(op, "plan has no segments")
	}
	var next int64
	for i, s := range p.Segments {
		if s.Index != i {
			return errs.InvalidDimension(op, "segment %d has index %d", i, s.Index)
		}
		if s.StartRow != next || s.EndRow <= s.StartRow {
			return errs.InvalidDimension(op, "segment %d covers [%d,%d), expected start %d", i, s.StartRow, s.EndRow, next)
		}
		if s.Rows() > l.MaxRows || s.Size > l.MaxBytes {
			return errs.CapacityExceeded(op, "segment %d has %d rows / %d bytes", i, s.Rows(), s.Size)
		}
		if s.Size != s.Rows()*p.BytesPerRow {
			return errs.InvalidDimension(op, "segment %d size %d does not match %d rows", i, s.Size, s.Rows())
		}
		next = s.EndRow
	}
	if next != p.TotalRows {
		return errs.InvalidDimension(op, "segments end at row %d, image has %d", next, p.TotalRows)
	}
	return nil
}
