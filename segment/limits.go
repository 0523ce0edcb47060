package segment

import "github.com/hupe1980/sarstore/errs"

const (
	// NITFMaxRows is the NITF 2.1 image location (ILOC) row ceiling per
	// image segment.
	NITFMaxRows int64 = 99_999

	// NITFMaxBytes is the NITF 2.1 ceiling on the length of one image
	// segment's data (LI field, ten digits, minus the reserved value).
	NITFMaxBytes int64 = 9_999_999_998
)

// Limits are the per-segment ceilings imposed by a container format.
type Limits struct {
	MaxRows  int64 `json:"max_rows" yaml:"max_rows"`
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// NITFLimits returns the NITF 2.1 image segment ceilings.
func NITFLimits() Limits {
	return Limits{MaxRows: NITFMaxRows, MaxBytes: NITFMaxBytes}
}

// Validate reports ErrInvalidDimension when a ceiling is not positive.
func (l Limits) Validate() error {
	if l.MaxRows <= 0 {
		return errs.InvalidDimension("segment limits", "max rows must be positive, got %d", l.MaxRows)
	}
	if l.MaxBytes <= 0 {
		return errs.InvalidDimension("segment limits", "max bytes must be positive, got %d", l.MaxBytes)
	}
	return nil
}
