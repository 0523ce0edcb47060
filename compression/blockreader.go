package compression

import (
	"context"
	"io"
	"sort"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/internal/cache"
)

// BlockReader presents the uncoded byte space of packed regions as a
// positioned reader. Pad blocks read back as the pad value and no-data
// blocks as zeros. It is safe for concurrent use.
type BlockReader struct {
	src       blobstore.ReaderAt
	id        ID
	blockSize int64
	regions   []Region
	opts      options
}

// NewBlockReader validates the regions against blockSize and the codec id.
func NewBlockReader(src blobstore.ReaderAt, id ID, blockSize int64, regions []Region, opts ...Option) (*BlockReader, error) {
	const op = "block reader"
	if _, ok := Lookup(id); !ok {
		return nil, errs.InvalidDimension(op, "unknown codec %q", id)
	}
	if blockSize <= 0 {
		return nil, errs.InvalidDimension(op, "block size must be positive")
	}
	sorted := append([]Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for i, r := range sorted {
		want := int((r.Length + blockSize - 1) / blockSize)
		if r.Length <= 0 || r.Blocks == nil || r.Blocks.Len() != want {
			return nil, errs.InvalidDimension(op, "region at %d: %d bytes need %d blocks", r.Offset, r.Length, want)
		}
		if r.Pads != nil && r.Pads.Len() != want {
			return nil, errs.InvalidDimension(op, "region at %d: pad mask has %d entries, want %d", r.Offset, r.Pads.Len(), want)
		}
		if i > 0 && sorted[i-1].End() > r.Offset {
			return nil, errs.InvalidDimension(op, "regions at %d and %d overlap", sorted[i-1].Offset, r.Offset)
		}
	}

	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &BlockReader{src: src, id: id, blockSize: blockSize, regions: sorted, opts: o}, nil
}

// Size returns the uncoded offset just past the last region.
func (b *BlockReader) Size() int64 {
	if len(b.regions) == 0 {
		return 0
	}
	return b.regions[len(b.regions)-1].End()
}

func (b *BlockReader) region(off int64) (Region, bool) {
	i := sort.Search(len(b.regions), func(i int) bool { return b.regions[i].End() > off })
	if i == len(b.regions) || b.regions[i].Offset > off {
		return Region{}, false
	}
	return b.regions[i], true
}

// ReadAt fills p with uncoded bytes starting at off. Reading past the last
// region returns the available bytes and io.EOF; a gap between regions is
// out of range.
func (b *BlockReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= b.Size() {
			return n, io.EOF
		}
		r, ok := b.region(pos)
		if !ok {
			return n, errs.OutOfRange("block reader", "offset %d lies outside every coded region", pos)
		}
		rel := pos - r.Offset
		i := int(rel / b.blockSize)
		within := rel - int64(i)*b.blockSize
		blockLen := min(b.blockSize, r.Length-int64(i)*b.blockSize)
		dst := p[n:min(len(p), n+int(blockLen-within))]

		if err := b.fillBlock(ctx, r, i, blockLen, within, dst); err != nil {
			return n, err
		}
		n += len(dst)
	}
	return n, nil
}

func (b *BlockReader) fillBlock(ctx context.Context, r Region, i int, blockLen, within int64, dst []byte) error {
	if !r.Blocks.At(i).Present() {
		fill := byte(0)
		if r.Pads != nil && r.Pads.At(i).Present() {
			fill = b.opts.pad
		}
		for k := range dst {
			dst[k] = fill
		}
		return nil
	}

	key := cache.CacheKey{Kind: cache.CacheKindDecoded, Path: b.opts.cacheName, Offset: uint64(r.Offset) + uint64(i)*uint64(b.blockSize)}
	if b.opts.cache != nil {
		if data, ok := b.opts.cache.Get(ctx, key); ok {
			copy(dst, data[within:])
			return nil
		}
	}

	data, err := b.decode(ctx, r.Blocks, i)
	if err != nil {
		return err
	}
	if int64(len(data)) != blockLen {
		return errs.Codec("block reader", "block decoded to the wrong size")
	}
	if b.opts.cache != nil {
		b.opts.cache.Set(ctx, key, data)
	}
	copy(dst, data[within:])
	return nil
}

func (b *BlockReader) decode(ctx context.Context, mask *block.Mask, i int) ([]byte, error) {
	dec, err := NewDecompressor(b.id)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()
	data, _, err := ReadBlock(ctx, b.src, mask, i, dec)
	return data, err
}
