package compression

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	padByte   = 0xEE
	blockSize = 100
)

// mixedSource is 950 bytes: text blocks, a zero block (2), a pad block (5)
// and a short final block.
func mixedSource() []byte {
	raw := compressible(950)
	for i := 200; i < 300; i++ {
		raw[i] = 0
	}
	for i := 500; i < 600; i++ {
		raw[i] = padByte
	}
	return raw
}

func classify(data []byte) (bool, bool) {
	if _, noData := ZeroIsNoData(data); noData {
		return false, true
	}
	return PadValue(padByte)(data)
}

func packAll(t *testing.T, id ID, raw []byte, lengths ...int64) ([]byte, []Region) {
	t.Helper()
	src := blobstore.FromReaderAt(bytes.NewReader(raw))
	var (
		out     bytes.Buffer
		regions []Region
		offset  int64
	)
	out.Write([]byte("HDR!"))
	for _, n := range lengths {
		r, _, err := Pack(context.Background(), id, Config{BlockSize: blockSize}, src, offset, n, &out, uint64(out.Len()), classify)
		require.NoError(t, err)
		assert.Equal(t, r.Blocks.Len(), int((n+blockSize-1)/blockSize))
		regions = append(regions, r)
		offset += n
	}
	return out.Bytes(), regions
}

func TestPackAndBlockReaderAllCodecs(t *testing.T) {
	raw := mixedSource()
	for _, id := range IDs() {
		t.Run(string(id), func(t *testing.T) {
			coded, regions := packAll(t, id, raw, 950)
			r := regions[0]
			assert.False(t, r.Blocks.At(2).Present(), "zero block is absent")
			assert.False(t, r.Pads.At(2).Present(), "zero block is absent from the pad mask too")
			assert.False(t, r.Blocks.At(5).Present(), "pad block is absent")
			assert.True(t, r.Pads.At(5).Present(), "pad block is recorded in the pad mask")

			br, err := NewBlockReader(blobstore.FromReaderAt(bytes.NewReader(coded)), id, blockSize, regions, WithPadValue(padByte))
			require.NoError(t, err)
			assert.Equal(t, int64(950), br.Size())

			got := make([]byte, 950)
			n, err := br.ReadAt(context.Background(), got, 0)
			require.NoError(t, err)
			assert.Equal(t, 950, n)
			assert.Equal(t, raw, got)
		})
	}
}

func TestPackWrittenMatchesOutput(t *testing.T) {
	raw := compressible(400)
	var out bytes.Buffer
	_, written, err := Pack(context.Background(), ZSTD, Config{BlockSize: blockSize}, blobstore.FromReaderAt(bytes.NewReader(raw)), 0, 400, &out, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(out.Len()), written)
}

func TestBlockReaderPartialRanges(t *testing.T) {
	raw := mixedSource()
	coded, regions := packAll(t, S2, raw, 450, 500)
	require.Len(t, regions, 2)
	assert.Equal(t, int64(450), regions[1].Offset)

	br, err := NewBlockReader(blobstore.FromReaderAt(bytes.NewReader(coded)), S2, blockSize, regions, WithPadValue(padByte))
	require.NoError(t, err)

	ctx := context.Background()
	for _, tc := range []struct{ off, n int64 }{
		{0, 1}, {99, 2}, {150, 200}, {440, 20}, {449, 1}, {450, 100}, {590, 30}, {0, 950},
	} {
		got := make([]byte, tc.n)
		_, err := br.ReadAt(ctx, got, tc.off)
		require.NoError(t, err, "off=%d n=%d", tc.off, tc.n)
		assert.Equal(t, raw[tc.off:tc.off+tc.n], got, "off=%d n=%d", tc.off, tc.n)
	}

	got := make([]byte, 20)
	n, err := br.ReadAt(ctx, got, 940)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 10, n)
	assert.Equal(t, raw[940:], got[:n])
}

func TestBlockReaderCache(t *testing.T) {
	raw := mixedSource()
	coded, regions := packAll(t, LZ4, raw, 950)
	c := cache.NewLRUBlockCache(1<<20, nil)

	br, err := NewBlockReader(blobstore.FromReaderAt(bytes.NewReader(coded)), LZ4, blockSize, regions,
		WithPadValue(padByte), WithBlockCache(c, "scene"))
	require.NoError(t, err)

	ctx := context.Background()
	buf := make([]byte, 950)
	_, err = br.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	// Eight stored blocks; the zero and pad blocks are synthesized.
	assert.Equal(t, 8, c.Len())

	_, err = br.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	hits, misses := c.Stats()
	assert.Equal(t, int64(8), hits)
	assert.Equal(t, int64(8), misses)
	assert.Equal(t, raw, buf)

	c.Invalidate(cache.ForPath("scene"))
	assert.Equal(t, 0, c.Len())
}

func TestNewBlockReaderValidation(t *testing.T) {
	raw := compressible(300)
	_, regions := packAll(t, None, raw, 300)
	src := blobstore.FromReaderAt(bytes.NewReader(nil))

	_, err := NewBlockReader(src, "jpeg2000", blockSize, regions)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)

	_, err = NewBlockReader(src, None, 0, regions)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)

	_, err = NewBlockReader(src, None, 50, regions)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)

	overlap := []Region{regions[0], regions[0]}
	_, err = NewBlockReader(src, None, blockSize, overlap)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestBlockReaderGapIsOutOfRange(t *testing.T) {
	raw := compressible(300)
	coded, regions := packAll(t, None, raw, 100, 200)
	regions[1].Offset += 50

	br, err := NewBlockReader(blobstore.FromReaderAt(bytes.NewReader(coded)), None, blockSize, regions)
	require.NoError(t, err)
	_, err = br.ReadAt(context.Background(), make([]byte, 10), 120)
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestPackSourceFailureIsIO(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Pack(context.Background(), None, Config{BlockSize: blockSize}, blobstore.FromReaderAt(bytes.NewReader(make([]byte, 50))), 0, 300, &out, 0, nil)
	assert.ErrorIs(t, err, errs.ErrIOFailure)
}
