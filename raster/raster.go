// Package raster holds the value types that describe a logical image and
// the rectangular windows callers read and write.
package raster

import (
	"fmt"

	"github.com/hupe1980/sarstore/errs"
)

// Layout is the pixel layout of a multi-band image.
type Layout uint8

const (
	// Interleaved stores all bands of a pixel next to each other (BIP).
	Interleaved Layout = iota
	// BandSequential stores each band as its own plane (BSQ).
	BandSequential
)

func (l Layout) String() string {
	switch l {
	case Interleaved:
		return "interleaved"
	case BandSequential:
		return "band-sequential"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// Image describes a logical raster. Dimensions are fixed for the lifetime
// of any operation that uses them.
type Image struct {
	Rows          int64  `json:"rows"`
	Cols          int64  `json:"cols"`
	Bands         int64  `json:"bands"`
	BytesPerPixel int64  `json:"bytes_per_pixel"`
	Layout        Layout `json:"layout"`
}

// Validate reports ErrInvalidDimension when any dimension is not positive.
func (img Image) Validate() error {
	switch {
	case img.Rows <= 0:
		return errs.InvalidDimension("image", "rows must be positive, got %d", img.Rows)
	case img.Cols <= 0:
		return errs.InvalidDimension("image", "cols must be positive, got %d", img.Cols)
	case img.Bands <= 0:
		return errs.InvalidDimension("image", "bands must be positive, got %d", img.Bands)
	case img.BytesPerPixel <= 0:
		return errs.InvalidDimension("image", "bytes per pixel must be positive, got %d", img.BytesPerPixel)
	case img.Layout != Interleaved && img.Layout != BandSequential:
		return errs.InvalidDimension("image", "unknown layout %d", img.Layout)
	}
	return nil
}

// Planes returns the number of separately stored planes: one for
// interleaved images, one per band for band-sequential images.
func (img Image) Planes() int64 {
	if img.Layout == BandSequential {
		return img.Bands
	}
	return 1
}

// ElementSize is the size in bytes of one (row, col) cell within a plane.
func (img Image) ElementSize() int64 {
	if img.Layout == BandSequential {
		return img.BytesPerPixel
	}
	return img.Bands * img.BytesPerPixel
}

// PlaneRowBytes is the size of one full row within a single plane.
func (img Image) PlaneRowBytes() int64 {
	return img.Cols * img.ElementSize()
}

// RowBytes is the size of one full image row across all bands.
func (img Image) RowBytes() int64 {
	return img.Cols * img.Bands * img.BytesPerPixel
}

// Size is the size of the whole image in bytes.
func (img Image) Size() int64 {
	return img.Rows * img.RowBytes()
}

// Full returns the window covering the whole image.
func (img Image) Full() Window {
	return Window{Rows: img.Rows, Cols: img.Cols}
}

// Window is a rectangular region of an image in row/column coordinates.
type Window struct {
	Row  int64 `json:"row"`
	Col  int64 `json:"col"`
	Rows int64 `json:"rows"`
	Cols int64 `json:"cols"`
}

// Empty reports whether the window covers no cells.
func (w Window) Empty() bool {
	return w.Rows <= 0 || w.Cols <= 0
}

// EndRow is the exclusive last row.
func (w Window) EndRow() int64 { return w.Row + w.Rows }

// EndCol is the exclusive last column.
func (w Window) EndCol() int64 { return w.Col + w.Cols }

// Area is the number of cells in the window.
func (w Window) Area() int64 { return w.Rows * w.Cols }

// Bytes is the size of a buffer holding the window for img.
func (w Window) Bytes(img Image) int64 {
	return w.Area() * img.Bands * img.BytesPerPixel
}

// Within reports ErrOutOfRange unless w lies inside [0,rows) x [0,cols).
// Empty windows are rejected too.
func (w Window) Within(rows, cols int64) error {
	if w.Rows <= 0 || w.Cols <= 0 {
		return errs.OutOfRange("window", "empty window %s", w)
	}
	if w.Row < 0 || w.Col < 0 || w.EndRow() > rows || w.EndCol() > cols {
		return errs.OutOfRange("window", "%s outside [0,%d) x [0,%d)", w, rows, cols)
	}
	return nil
}

// Intersect returns the overlap of two windows.
func (w Window) Intersect(o Window) (Window, bool) {
	r0, c0 := max(w.Row, o.Row), max(w.Col, o.Col)
	r1, c1 := min(w.EndRow(), o.EndRow()), min(w.EndCol(), o.EndCol())
	if r1 <= r0 || c1 <= c0 {
		return Window{}, false
	}
	return Window{Row: r0, Col: c0, Rows: r1 - r0, Cols: c1 - c0}, true
}

func (w Window) String() string {
	return fmt.Sprintf("rows [%d,%d) cols [%d,%d)", w.Row, w.EndRow(), w.Col, w.EndCol())
}
