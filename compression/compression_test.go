package compression

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressible(n int) []byte {
	return bytes.Repeat([]byte("sar phase history "), n/18+1)[:n]
}

func TestRegistryBuiltins(t *testing.T) {
	assert.Equal(t, []ID{LZ4, None, S2, Zlib, ZSTD}, IDs())
	_, ok := Lookup("jpeg2000")
	assert.False(t, ok)

	_, err := NewSession("jpeg2000", Config{BlockSize: 16})
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestRegistryRejectsIncompletePlugin(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Plugin{}))
	assert.Error(t, r.Register(Plugin{ID: "x"}))
}

func TestRoundTripAllCodecs(t *testing.T) {
	const (
		prefix    = 16
		blockSize = 1024
		length    = 4000
	)
	data := compressible(length)

	for _, id := range IDs() {
		t.Run(string(id), func(t *testing.T) {
			s, err := NewSession(id, Config{BlockSize: blockSize})
			require.NoError(t, err)
			defer s.Destroy()

			var buf bytes.Buffer
			buf.Write(make([]byte, prefix))

			bm, pm, err := s.Start(prefix, length)
			require.NoError(t, err)
			require.Equal(t, 4, bm.Len())

			require.NoError(t, s.WriteBlock(&buf, data[0:1024], false, false))
			require.NoError(t, s.WriteBlock(&buf, nil, false, true))
			require.NoError(t, s.WriteBlock(&buf, nil, true, false))
			require.NoError(t, s.WriteBlock(&buf, data[3072:], false, false))
			require.NoError(t, s.End(&buf))
			assert.Equal(t, Ended, s.State())
			assert.Equal(t, 4, s.Blocks())

			off, ok := bm.At(0).Offset()
			require.True(t, ok)
			assert.Equal(t, uint64(prefix), off)
			assert.False(t, bm.At(1).Present())
			assert.False(t, bm.At(2).Present())
			assert.True(t, bm.At(3).Present())

			assert.False(t, pm.At(1).Present(), "no-data blocks have no pad entry")
			assert.True(t, pm.At(2).Present(), "pad blocks record their position")

			dec, err := NewDecompressor(id)
			require.NoError(t, err)
			defer dec.Destroy()

			src := blobstore.FromReaderAt(bytes.NewReader(buf.Bytes()))
			got, ok, err := ReadBlock(context.Background(), src, bm, 0, dec)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, data[0:1024], got)

			got, ok, err = ReadBlock(context.Background(), src, bm, 3, dec)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, data[3072:], got)

			got, ok, err = ReadBlock(context.Background(), src, bm, 1, dec)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestCompressionShrinksRepetitiveBlocks(t *testing.T) {
	data := compressible(8192)
	for _, id := range []ID{ZSTD, LZ4, S2, Zlib} {
		s, err := NewSession(id, Config{BlockSize: 8192})
		require.NoError(t, err)
		var buf bytes.Buffer
		_, _, err = s.Start(0, 8192)
		require.NoError(t, err)
		require.NoError(t, s.WriteBlock(&buf, data, false, false))
		require.NoError(t, s.End(&buf))
		s.Destroy()
		assert.Less(t, buf.Len(), len(data)/2, "codec %s", id)
	}
}

func TestIncompressibleBlockStoredRaw(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 17 % 256)
	}
	s, err := NewSession(LZ4, Config{BlockSize: 1000})
	require.NoError(t, err)
	defer s.Destroy()

	var buf bytes.Buffer
	_, _, err = s.Start(0, 1000)
	require.NoError(t, err)
	require.NoError(t, s.WriteBlock(&buf, data, false, false))

	h, err := ParseFrameHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), h.RawLen)
	assert.Equal(t, uint32(0), h.StoredLen)
}

func TestCodecLevels(t *testing.T) {
	data := compressible(4096)
	for _, tc := range []struct {
		id    ID
		level int
	}{{ZSTD, 3}, {LZ4, 9}, {S2, 2}, {S2, 3}, {Zlib, 9}} {
		s, err := NewSession(tc.id, Config{BlockSize: 4096, Level: tc.level})
		require.NoError(t, err)

		var buf bytes.Buffer
		bm, _, err := s.Start(0, 4096)
		require.NoError(t, err)
		require.NoError(t, s.WriteBlock(&buf, data, false, false))
		require.NoError(t, s.End(&buf))
		s.Destroy()

		dec, err := NewDecompressor(tc.id)
		require.NoError(t, err)
		got, _, err := ReadBlock(context.Background(), blobstore.FromReaderAt(bytes.NewReader(buf.Bytes())), bm, 0, dec)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		dec.Destroy()
	}

	_, err := NewSession(LZ4, Config{BlockSize: 16, Level: 42})
	assert.ErrorIs(t, err, errs.ErrCodecFailure)
}

func TestSessionStateMachine(t *testing.T) {
	var buf bytes.Buffer

	s, err := NewSession(None, Config{BlockSize: 4})
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, s.State())

	err = s.WriteBlock(&buf, []byte("abcd"), false, false)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	assert.ErrorIs(t, s.End(&buf), errs.ErrInvalidStateTransition)

	_, _, err = s.Start(0, 8)
	require.NoError(t, err)
	assert.Equal(t, Started, s.State())
	_, _, err = s.Start(0, 8)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)

	require.NoError(t, s.WriteBlock(&buf, []byte("abcd"), false, false))
	assert.Equal(t, WritingBlocks, s.State())

	require.NoError(t, s.End(&buf))
	assert.ErrorIs(t, s.End(&buf), errs.ErrInvalidStateTransition)
	assert.ErrorIs(t, s.WriteBlock(&buf, []byte("efgh"), false, false), errs.ErrInvalidStateTransition)

	s.Destroy()
	s.Destroy()
	assert.Equal(t, Destroyed, s.State())
	_, _, err = s.Start(0, 8)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
}

func TestDestroyNeverStarted(t *testing.T) {
	for _, id := range IDs() {
		s, err := NewSession(id, Config{BlockSize: 64})
		require.NoError(t, err)
		assert.NotPanics(t, s.Destroy)
		assert.NotPanics(t, s.Destroy)
	}
}

func TestTooManyBlocks(t *testing.T) {
	s, err := NewSession(None, Config{BlockSize: 4})
	require.NoError(t, err)
	defer s.Destroy()

	var buf bytes.Buffer
	_, _, err = s.Start(0, 8)
	require.NoError(t, err)
	require.NoError(t, s.WriteBlock(&buf, nil, false, true))
	require.NoError(t, s.WriteBlock(&buf, nil, true, false))
	err = s.WriteBlock(&buf, nil, false, true)
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
	assert.Zero(t, buf.Len())
}

func TestWrongBlockLength(t *testing.T) {
	s, err := NewSession(None, Config{BlockSize: 4})
	require.NoError(t, err)
	defer s.Destroy()

	_, _, err = s.Start(0, 6)
	require.NoError(t, err)
	var buf bytes.Buffer
	assert.ErrorIs(t, s.WriteBlock(&buf, []byte("abc"), false, false), errs.ErrInvalidDimension)
	require.NoError(t, s.WriteBlock(&buf, []byte("abcd"), false, false))
	assert.ErrorIs(t, s.WriteBlock(&buf, []byte("abcd"), false, false), errs.ErrInvalidDimension)
	require.NoError(t, s.WriteBlock(&buf, []byte("ef"), false, false))
}

func TestStartRejectsEmptyRegion(t *testing.T) {
	s, err := NewSession(None, Config{BlockSize: 4})
	require.NoError(t, err)
	_, _, err = s.Start(0, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
	assert.Equal(t, Uninitialized, s.State())
}

var errInternal = errors.New("codec internal: huffman table overflow")

type faultyCompressor struct {
	startErr error
	panicOn  string
}

func (f *faultyCompressor) Start(_, _ uint64) (*block.Mask, *block.Mask, error) {
	if f.panicOn == "start" {
		panic("start exploded")
	}
	if f.startErr != nil {
		return nil, nil, f.startErr
	}
	return block.NewMask(1), block.NewMask(1), nil
}

func (f *faultyCompressor) WriteBlock(io.Writer, []byte, bool, bool) error {
	if f.panicOn == "write" {
		panic(errInternal)
	}
	return errInternal
}

func (f *faultyCompressor) End(io.Writer) error {
	if f.panicOn == "end" {
		panic(42)
	}
	return nil
}

func (f *faultyCompressor) Destroy() {
	if f.panicOn == "destroy" {
		panic("destroy exploded")
	}
}

func TestCodecFailureTranslation(t *testing.T) {
	var buf bytes.Buffer

	s := Wrap("faulty", &faultyCompressor{startErr: errInternal})
	_, _, err := s.Start(0, 1)
	require.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.NotErrorIs(t, err, errInternal, "codec error values must not cross the boundary")
	assert.Contains(t, err.Error(), "huffman table overflow")
	layer, ok := errs.LayerOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.LayerCodec, layer)

	s = Wrap("faulty", &faultyCompressor{})
	_, _, err = s.Start(0, 1)
	require.NoError(t, err)
	err = s.WriteBlock(&buf, []byte{1}, false, false)
	assert.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.NotErrorIs(t, err, errInternal)
}

type codecState struct{ table int }

func (*codecState) Error() string { return "codec state corrupt" }

func TestCodecTaxonomyErrorsBecomeFailures(t *testing.T) {
	s := Wrap("faulty", &faultyCompressor{startErr: errs.IO("jpeg2000", &codecState{table: 3})})
	_, _, err := s.Start(0, 1)
	require.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.NotErrorIs(t, err, errs.ErrIOFailure)
	var internal *codecState
	assert.False(t, errors.As(err, &internal), "codec error values must not cross the boundary")
	assert.Contains(t, err.Error(), "codec state corrupt")

	s = Wrap("faulty", &faultyCompressor{startErr: errs.InvalidDimension("jpeg2000", "tile grid")})
	_, _, err = s.Start(0, 1)
	assert.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.NotErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestFramingErrorsKeepTheirKind(t *testing.T) {
	s, err := NewSession(None, Config{BlockSize: 4})
	require.NoError(t, err)
	defer s.Destroy()

	_, _, err = s.Start(0, 4)
	require.NoError(t, err)
	err = s.WriteBlock(io.Discard, []byte("abc"), false, false)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
	assert.NotErrorIs(t, err, errs.ErrCodecFailure)

	_, err = NewSession(None, Config{})
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestCodecPanicsBecomeFailures(t *testing.T) {
	var buf bytes.Buffer

	s := Wrap("faulty", &faultyCompressor{panicOn: "start"})
	_, _, err := s.Start(0, 1)
	require.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.Contains(t, err.Error(), "start exploded")

	s = Wrap("faulty", &faultyCompressor{panicOn: "write"})
	_, _, err = s.Start(0, 1)
	require.NoError(t, err)
	err = s.WriteBlock(&buf, nil, false, false)
	require.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.NotErrorIs(t, err, errInternal)

	s = Wrap("faulty", &faultyCompressor{panicOn: "end"})
	_, _, err = s.Start(0, 1)
	require.NoError(t, err)
	err = s.End(&buf)
	require.ErrorIs(t, err, errs.ErrCodecFailure)
	assert.Contains(t, err.Error(), "unknown error")

	s = Wrap("faulty", &faultyCompressor{panicOn: "destroy"})
	assert.NotPanics(t, s.Destroy)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterFailureIsIO(t *testing.T) {
	s, err := NewSession(None, Config{BlockSize: 4})
	require.NoError(t, err)
	defer s.Destroy()

	_, _, err = s.Start(0, 4)
	require.NoError(t, err)
	err = s.WriteBlock(failingWriter{}, []byte("abcd"), false, false)
	assert.ErrorIs(t, err, errs.ErrIOFailure)
	assert.Equal(t, Started, s.State())
}

type corruptDecompressor struct{}

func (corruptDecompressor) Decode([]byte, []byte) error { return errInternal }
func (corruptDecompressor) Destroy()                   {}

func TestReadBlockDecodeFailure(t *testing.T) {
	s, err := NewSession(ZSTD, Config{BlockSize: 4096})
	require.NoError(t, err)
	defer s.Destroy()

	var buf bytes.Buffer
	bm, _, err := s.Start(0, 4096)
	require.NoError(t, err)
	require.NoError(t, s.WriteBlock(&buf, compressible(4096), false, false))

	_, _, err = ReadBlock(context.Background(), blobstore.FromReaderAt(bytes.NewReader(buf.Bytes())), bm, 0, corruptDecompressor{})
	assert.ErrorIs(t, err, errs.ErrCodecFailure)

	_, _, err = ReadBlock(context.Background(), blobstore.FromReaderAt(bytes.NewReader(buf.Bytes()[:10])), bm, 0, corruptDecompressor{})
	assert.ErrorIs(t, err, errs.ErrIOFailure)
}

func TestTableFromSessionMasks(t *testing.T) {
	s, err := NewSession(None, Config{BlockSize: 8})
	require.NoError(t, err)
	defer s.Destroy()

	const base = 100
	var buf bytes.Buffer
	bm, pm, err := s.Start(base, 24)
	require.NoError(t, err)
	require.NoError(t, s.WriteBlock(&buf, []byte("01234567"), false, false))
	require.NoError(t, s.WriteBlock(&buf, nil, true, false))
	require.NoError(t, s.WriteBlock(&buf, []byte("89abcdef"), false, false))
	require.NoError(t, s.End(&buf))

	tbl := block.Table{BlockMask: bm.Relative(base), PadMask: pm.Relative(base), PadCode: []byte{0}}
	data, err := tbl.MarshalBinary()
	require.NoError(t, err)
	back, err := block.DecodeTable(data, 3)
	require.NoError(t, err)
	assert.True(t, back.BlockMask.Equal(block.MaskOf(block.Offset(0), block.Absent(), block.Offset(16))))
	assert.True(t, back.PadMask.Equal(block.MaskOf(block.Absent(), block.Offset(16), block.Absent())))
}
