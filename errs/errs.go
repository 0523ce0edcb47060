// Package errs defines the error taxonomy shared by every sarstore layer.
//
// Each failure is an *Error whose Kind is one of the sentinel values below.
// Callers match on the kind with errors.Is:
//
//	if errors.Is(err, errs.ErrOutOfRange) { ... }
//
// The Layer field tells which side of an operation failed: the caller
// (misuse, bad arguments), a compression codec, or the storage backend.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimension is returned when a declared dimension or ceiling is zero or negative.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrCapacityExceeded is returned when no legal segmentation exists for the requested image.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrOutOfRange is returned when an address or window lies outside the declared extents.
	ErrOutOfRange = errors.New("out of range")
	// ErrDuplicateWrite is returned when a write session touches an already-written cell.
	ErrDuplicateWrite = errors.New("duplicate write")
	// ErrIncompleteWrite is returned by Finalize when some cells were never written.
	ErrIncompleteWrite = errors.New("incomplete write")
	// ErrInvalidStateTransition is returned when a lifecycle method is called out of order.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrCodecFailure is returned when a compression codec fails.
	ErrCodecFailure = errors.New("codec failure")
	// ErrIOFailure is returned when the storage backend fails a read or write.
	ErrIOFailure = errors.New("io failure")
)

// Layer identifies which side of an operation produced an error.
type Layer uint8

const (
	// LayerCaller marks misuse: bad arguments or lifecycle violations.
	LayerCaller Layer = iota
	// LayerCodec marks failures raised inside a compression codec.
	LayerCodec
	// LayerIO marks failures raised by the storage backend.
	LayerIO
)

func (l Layer) String() string {
	switch l {
	case LayerCaller:
		return "caller"
	case LayerCodec:
		return "codec"
	case LayerIO:
		return "io"
	default:
		return fmt.Sprintf("layer(%d)", uint8(l))
	}
}

// Error is the concrete error type returned by sarstore packages.
//
// The original underlying error (if any) can be accessed via errors.Unwrap
// semantics; errors.Is matches both the Kind sentinel and the cause.
type Error struct {
	Kind  error
	Layer Layer
	Op    string
	Msg   string
	cause error
}

func (e *Error) Error() string {
	s := e.Kind.Error()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

// Cause returns the wrapped error, or nil.
func (e *Error) Cause() error { return e.cause }

func newf(kind error, layer Layer, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Layer: layer, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InvalidDimension builds an ErrInvalidDimension error.
func InvalidDimension(op, format string, args ...any) error {
	return newf(ErrInvalidDimension, LayerCaller, op, format, args...)
}

// CapacityExceeded builds an ErrCapacityExceeded error.
func CapacityExceeded(op, format string, args ...any) error {
	return newf(ErrCapacityExceeded, LayerCaller, op, format, args...)
}

// OutOfRange builds an ErrOutOfRange error.
func OutOfRange(op, format string, args ...any) error {
	return newf(ErrOutOfRange, LayerCaller, op, format, args...)
}

// DuplicateWrite builds an ErrDuplicateWrite error.
func DuplicateWrite(op, format string, args ...any) error {
	return newf(ErrDuplicateWrite, LayerCaller, op, format, args...)
}

// IncompleteWrite builds an ErrIncompleteWrite error.
func IncompleteWrite(op, format string, args ...any) error {
	return newf(ErrIncompleteWrite, LayerCaller, op, format, args...)
}

// InvalidState builds an ErrInvalidStateTransition error.
func InvalidState(op, format string, args ...any) error {
	return newf(ErrInvalidStateTransition, LayerCaller, op, format, args...)
}

// Codec builds an ErrCodecFailure error. Only the message crosses the
// boundary; the codec's own error value is not retained.
func Codec(op, msg string) error {
	return &Error{Kind: ErrCodecFailure, Layer: LayerCodec, Op: op, Msg: msg}
}

// IO wraps a storage failure. Errors that already carry a kind are returned
// unchanged so that annotations from lower layers survive.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: ErrIOFailure, Layer: LayerIO, Op: op, cause: err}
}

// Wrap annotates err with op and a message while keeping its kind. A plain
// error is classified as an IO failure.
func Wrap(err error, op, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Layer: e.Layer, Op: op, Msg: msg, cause: err}
	}
	return &Error{Kind: ErrIOFailure, Layer: LayerIO, Op: op, Msg: msg, cause: err}
}

// LayerOf reports the layer of the first *Error in err's chain.
func LayerOf(err error) (Layer, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Layer, true
	}
	return 0, false
}
