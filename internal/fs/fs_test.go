package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStagesAndPublishes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "containers")
	require.NoError(t, Default.MkdirAll(dir, 0o755))

	tmp := filepath.Join(dir, "scene.tmp")
	f, err := Default.OpenFile(tmp, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	// Segments may arrive out of order.
	_, err = f.WriteAt([]byte("world"), 5)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	final := filepath.Join(dir, "scene")
	require.NoError(t, Default.Rename(tmp, final))
	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(data))

	entries, err := Default.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scene", entries[0].Name())

	require.NoError(t, Default.Remove(final))
	_, err = os.Stat(final)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFaultyFSGlobalLimit(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.SetLimit(5)

	f, err := ffs.OpenFile(filepath.Join(t.TempDir(), "segment.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.WriteAt([]byte("!"), 5)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(5), ffs.Written())
}

func TestFaultyFSRules(t *testing.T) {
	tmp := t.TempDir()
	errBoom := errors.New("boom")
	ffs := NewFaultyFS(Default)
	ffs.AddRule("image", Fault{FailAfterBytes: 3, FailOnSync: true, Err: errBoom})
	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "image.ntf"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("abc"), 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("d"), 3)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, f.Sync(), errBoom)
	assert.NoError(t, f.Close())

	// Files matching no rule never fail.
	g, err := ffs.OpenFile(filepath.Join(tmp, "other.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = g.WriteAt(make([]byte, 64), 0)
	require.NoError(t, err)
	assert.NoError(t, g.Sync())
	assert.NoError(t, g.Close())

	h, err := ffs.OpenFile(filepath.Join(tmp, "close.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, h.Close(), ErrInjected)

	// Directory operations pass through.
	require.NoError(t, ffs.Rename(filepath.Join(tmp, "other.bin"), filepath.Join(tmp, "renamed.bin")))
	entries, err := ffs.ReadDir(tmp)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.NoError(t, ffs.Remove(filepath.Join(tmp, "renamed.bin")))
}
