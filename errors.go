package sarstore

import (
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/manifest"
)

// Error kinds. Every error returned by this module matches exactly one of
// them with errors.Is.
var (
	ErrInvalidDimension       = errs.ErrInvalidDimension
	ErrCapacityExceeded       = errs.ErrCapacityExceeded
	ErrOutOfRange             = errs.ErrOutOfRange
	ErrDuplicateWrite         = errs.ErrDuplicateWrite
	ErrIncompleteWrite        = errs.ErrIncompleteWrite
	ErrInvalidStateTransition = errs.ErrInvalidStateTransition
	ErrCodecFailure           = errs.ErrCodecFailure
	ErrIOFailure              = errs.ErrIOFailure
)

// ErrNotFound is returned by OpenImage and OpenPhaseHistory when the
// container has no manifest. It is also an ErrIOFailure.
var ErrNotFound = manifest.ErrNotFound

// Error is the concrete error type.
type Error = errs.Error
