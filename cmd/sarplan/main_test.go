package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hupe1980/sarstore"
	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SARSTORE_CONFIG", "")
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestPlanTable(t *testing.T) {
	out, err := runArgs(t, "--rows", "250000", "--cols", "1000", "--max-rows", "100000")
	require.NoError(t, err)
	assert.Contains(t, out, "limits: 100000 rows")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3+1+3) // header, blank, column row, 3 segments
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "2 "))
}

func TestPlanJSON(t *testing.T) {
	out, err := runArgs(t, "--rows", "120", "--cols", "10", "--bands", "2", "--max-rows", "50", "--json")
	require.NoError(t, err)

	var p segment.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, int64(120), p.TotalRows)
	assert.Equal(t, int64(20), p.BytesPerRow)
	require.Len(t, p.Segments, 3)
	assert.Equal(t, int64(100*20), p.Segments[2].FileOffset)
}

func TestPlanFromProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segments:\n  max_rows: 10\n  max_bytes: 1000\n"), 0o600))

	out, err := runArgs(t, "--config", path, "--rows", "25", "--cols", "4", "--json")
	require.NoError(t, err)
	var p segment.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Len(t, p.Segments, 3)
}

func TestPlanRowTooWide(t *testing.T) {
	_, err := runArgs(t, "--rows", "10", "--cols", "100", "--max-bytes", "50")
	assert.ErrorIs(t, err, sarstore.ErrCapacityExceeded)
}

func TestInspectStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := sarstore.Open(blobstore.NewLocalStore(dir))
	require.NoError(t, err)

	img := raster.Image{Rows: 4, Cols: 3, Bands: 1, BytesPerPixel: 1}
	w, err := db.CreateImage(ctx, "scene", img)
	require.NoError(t, err)
	require.NoError(t, w.WriteWindow(ctx, img.Full(), make([]byte, img.Size())))
	require.NoError(t, w.Finalize(ctx))
	require.NoError(t, db.Close())

	out, err := runArgs(t, "--store", dir, "--list")
	require.NoError(t, err)
	assert.Equal(t, "scene\n", out)

	out, err = runArgs(t, "--store", dir, "--show", "scene")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind":"image"`)

	_, err = runArgs(t, "--store", dir, "--show", "missing")
	assert.ErrorIs(t, err, sarstore.ErrNotFound)

	_, err = runArgs(t, "--store", dir)
	assert.Error(t, err)
}
