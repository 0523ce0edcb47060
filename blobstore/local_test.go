package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/sarstore/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreLifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	w, err := store.Create(ctx, "scenes/data-001.ntf")
	require.NoError(t, err)

	// Out-of-order positioned writes, as a window writer issues them.
	require.NoError(t, WriteFull(ctx, w, []byte("this is a test blob"), 13))
	require.NoError(t, WriteFull(ctx, w, []byte("hello world, "), 0))

	_, err = os.Stat(filepath.Join(tmpDir, "scenes", "data-001.ntf"))
	assert.True(t, os.IsNotExist(err), "not visible before Close")
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrClosed)

	blob, err := store.Open(ctx, "scenes/data-001.ntf")
	require.NoError(t, err)
	defer blob.Close()

	want := "hello world, this is a test blob"
	require.Equal(t, int64(len(want)), blob.Size())

	buf := make([]byte, 5)
	require.NoError(t, ReadFull(ctx, blob, buf, 6))
	assert.Equal(t, "world", string(buf))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, want, string(b))

	rc, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "this", string(content))

	require.NoError(t, store.Put(ctx, "scenes/data-002.ntf", []byte("x")))
	require.NoError(t, store.Put(ctx, "other.ntf", []byte("y")))

	names, err = store.List(ctx, "scenes/")
	require.NoError(t, err)
	assert.Equal(t, []string{"scenes/data-001.ntf", "scenes/data-002.ntf"}, names)

	require.NoError(t, store.Delete(ctx, "scenes/data-001.ntf"))
	require.NoError(t, store.Delete(ctx, "scenes/data-001.ntf"))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"other.ntf", "scenes/data-002.ntf"}, names)

	_, err = store.Open(ctx, "scenes/data-001.ntf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreReadRangeBoundaries(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "boundary.bin", []byte("0123456789")))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, 10)
	require.NoError(t, err)
	content, _ := io.ReadAll(r)
	assert.Equal(t, "0123456789", string(content))

	r, err = blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, _ = io.ReadAll(r)
	assert.Equal(t, "89", string(content))

	_, err = blob.ReadRange(ctx, 20, 5)
	assert.ErrorIs(t, err, io.EOF)

	err = ReadFull(ctx, blob, make([]byte, 4), 8)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestLocalStoreAbort(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	w, err := store.Create(ctx, "abandoned.ntf")
	require.NoError(t, err)
	require.NoError(t, WriteFull(ctx, w, []byte("partial"), 0))
	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = w.WriteAt(ctx, []byte("x"), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLocalStoreInjectedFaults(t *testing.T) {
	ctx := context.Background()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("full", fs.Fault{FailAfterBytes: 8})
	ffs.AddRule("nosync", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	store := NewLocalStore(t.TempDir(), WithFileSystem(ffs))

	w, err := store.Create(ctx, "full.ntf")
	require.NoError(t, err)
	require.NoError(t, WriteFull(ctx, w, make([]byte, 8), 0))
	err = WriteFull(ctx, w, make([]byte, 1), 8)
	assert.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, w.Abort())

	err = store.Put(ctx, "nosync.ntf", []byte("data"))
	assert.ErrorIs(t, err, fs.ErrInjected)
	_, err = store.Open(ctx, "nosync.ntf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewLocalStore(t.TempDir())
	_, err := store.Create(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Open(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
