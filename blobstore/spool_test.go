package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpoolBlob(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var uploaded []byte
	s, err := NewSpoolBlob(dir, func(_ context.Context, r io.ReaderAt, size int64) error {
		uploaded = make([]byte, size)
		_, err := r.ReadAt(uploaded, 0)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, WriteFull(ctx, s, []byte("tail"), 6))
	require.NoError(t, WriteFull(ctx, s, []byte("head"), 0))
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())
	assert.Equal(t, []byte("head\x00\x00tail"), uploaded)
	assert.ErrorIs(t, s.Close(), ErrClosed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "spool file removed")
}

func TestSpoolBlobAbortAndFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	calls := 0
	errUpload := errors.New("upload failed")
	upload := func(context.Context, io.ReaderAt, int64) error {
		calls++
		return errUpload
	}

	s, err := NewSpoolBlob(dir, upload)
	require.NoError(t, err)
	require.NoError(t, WriteFull(ctx, s, []byte("x"), 0))
	require.NoError(t, s.Abort())
	require.NoError(t, s.Abort())
	assert.Zero(t, calls)
	_, err = s.WriteAt(ctx, []byte("y"), 0)
	assert.ErrorIs(t, err, ErrClosed)

	s, err = NewSpoolBlob(dir, upload)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Close(), errUpload)
	assert.Equal(t, 1, calls)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
