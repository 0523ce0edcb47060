package compression

import (
	"context"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/errs"
)

// ReadBlock reads and decodes block i. An Absent entry returns
// (nil, false, nil); the caller synthesizes zero or pad bytes.
func ReadBlock(ctx context.Context, r blobstore.ReaderAt, mask *block.Mask, i int, dec Decompressor) ([]byte, bool, error) {
	const op = "read block"
	off, ok := mask.At(i).Offset()
	if !ok {
		return nil, false, nil
	}

	var hdr [FrameHeaderSize]byte
	if err := blobstore.ReadFull(ctx, r, hdr[:], int64(off)); err != nil {
		return nil, false, errs.Wrap(err, op, "block %d header", i)
	}
	h, err := ParseFrameHeader(hdr[:])
	if err != nil {
		return nil, false, errs.Wrap(err, op, "block %d", i)
	}

	payload := make([]byte, h.Payload())
	if err := blobstore.ReadFull(ctx, r, payload, int64(off)+FrameHeaderSize); err != nil {
		return nil, false, errs.Wrap(err, op, "block %d payload", i)
	}
	if h.StoredLen == 0 {
		return payload, true, nil
	}

	out := make([]byte, h.RawLen)
	if err := guard(func() error { return dec.Decode(out, payload) }); err != nil {
		return nil, false, errs.Codec(op, err.Error())
	}
	return out, true, nil
}
