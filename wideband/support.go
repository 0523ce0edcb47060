package wideband

import (
	"cmp"
	"slices"

	"github.com/hupe1980/sarstore/errs"
)

// SupportArray is one named two-dimensional array in the support block.
type SupportArray struct {
	ID              string `json:"id"`
	Rows            int64  `json:"rows"`
	Cols            int64  `json:"cols"`
	BytesPerElement int64  `json:"bytes_per_element"`
	// Offset is relative to the start of the support block.
	Offset int64 `json:"offset"`
}

// Size returns the byte size of the array.
func (a SupportArray) Size() int64 { return a.Rows * a.Cols * a.BytesPerElement }

// SupportLayout addresses the support block.
type SupportLayout struct {
	Offset int64          `json:"offset"`
	Arrays []SupportArray `json:"arrays"`
}

// NewSupportLayout validates the arrays: unique ids, positive dimensions
// and no two arrays sharing a byte.
func NewSupportLayout(offset int64, arrays []SupportArray) (*SupportLayout, error) {
	const op = "support layout"
	if offset < 0 {
		return nil, errs.InvalidDimension(op, "negative offset %d", offset)
	}
	seen := make(map[string]bool, len(arrays))
	for _, a := range arrays {
		if a.ID == "" {
			return nil, errs.InvalidDimension(op, "support array without id")
		}
		if seen[a.ID] {
			return nil, errs.InvalidDimension(op, "duplicate support array %q", a.ID)
		}
		seen[a.ID] = true
		if a.Rows <= 0 || a.Cols <= 0 || a.BytesPerElement <= 0 || a.Offset < 0 {
			return nil, errs.InvalidDimension(op, "support array %q has %dx%d elements of %d bytes at %d", a.ID, a.Rows, a.Cols, a.BytesPerElement, a.Offset)
		}
	}

	sorted := slices.Clone(arrays)
	slices.SortFunc(sorted, func(a, b SupportArray) int { return cmp.Compare(a.Offset, b.Offset) })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.Offset+prev.Size() > sorted[i].Offset {
			return nil, errs.InvalidDimension(op, "support arrays %q and %q overlap", prev.ID, sorted[i].ID)
		}
	}
	return &SupportLayout{Offset: offset, Arrays: slices.Clone(arrays)}, nil
}

// Array returns the array with the given id.
func (s *SupportLayout) Array(id string) (SupportArray, error) {
	for _, a := range s.Arrays {
		if a.ID == id {
			return a, nil
		}
	}
	return SupportArray{}, errs.OutOfRange("support array", "unknown id %q", id)
}

// Size returns the extent of the block up to the end of its last array.
func (s *SupportLayout) Size() int64 {
	var end int64
	for _, a := range s.Arrays {
		end = max(end, a.Offset+a.Size())
	}
	return end
}

// FileOffset returns the position of element (row, col) of array id.
func (s *SupportLayout) FileOffset(id string, row, col int64) (int64, error) {
	a, err := s.Array(id)
	if err != nil {
		return 0, err
	}
	if row < 0 || row >= a.Rows || col < 0 || col >= a.Cols {
		return 0, errs.OutOfRange("support offset", "element (%d,%d) outside %q [%d x %d]", row, col, id, a.Rows, a.Cols)
	}
	return s.Offset + a.Offset + (row*a.Cols+col)*a.BytesPerElement, nil
}

func (s *SupportLayout) grid(a SupportArray) grid {
	return grid{base: s.Offset + a.Offset, rows: a.Rows, cols: a.Cols, elem: a.BytesPerElement}
}
