package errs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsMatch(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid dimension", InvalidDimension("plan", "rows=%d", 0), ErrInvalidDimension},
		{"capacity", CapacityExceeded("plan", "row too wide"), ErrCapacityExceeded},
		{"out of range", OutOfRange("read", "row %d", 9), ErrOutOfRange},
		{"duplicate", DuplicateWrite("write", "row 1"), ErrDuplicateWrite},
		{"incomplete", IncompleteWrite("finalize", "row 1"), ErrIncompleteWrite},
		{"state", InvalidState("end", "twice"), ErrInvalidStateTransition},
		{"codec", Codec("start", "boom"), ErrCodecFailure},
		{"io", IO("read", io.ErrUnexpectedEOF), ErrIOFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
		})
	}
}

func TestIOKeepsCause(t *testing.T) {
	err := IO("read", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	layer, ok := LayerOf(err)
	require.True(t, ok)
	assert.Equal(t, LayerIO, layer)
}

func TestIOPreservesExistingKind(t *testing.T) {
	inner := OutOfRange("locate", "row 10")
	err := IO("read", inner)
	assert.Same(t, inner, err)
	assert.False(t, errors.Is(err, ErrIOFailure))
}

func TestWrapKeepsKind(t *testing.T) {
	err := Wrap(OutOfRange("offset", "vector 12"), "wideband read", "channel %d", 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "channel 2")

	plain := Wrap(io.EOF, "wideband read", "channel %d", 0)
	assert.ErrorIs(t, plain, ErrIOFailure)
	assert.ErrorIs(t, plain, io.EOF)

	assert.NoError(t, Wrap(nil, "op", "x"))
}

func TestCodecDropsCause(t *testing.T) {
	err := Codec("write block", "zstd: frame too large")
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Nil(t, e.Cause())
	assert.Equal(t, LayerCodec, e.Layer)
	assert.Equal(t, "write block: codec failure: zstd: frame too large", err.Error())
}
