package wideband

import (
	"github.com/hupe1980/sarstore/errs"
)

// PVPLayout addresses the per-vector parameter block: one fixed-size
// record per vector, channels stored one after another.
type PVPLayout struct {
	// Offset is the file position of the block.
	Offset int64 `json:"offset"`
	// RecordSize is the byte size of one vector's parameter record.
	RecordSize int64 `json:"record_size"`
	// Vectors holds the vector count of each channel.
	Vectors []int64 `json:"vectors"`
}

// NewPVPLayout validates and returns a PVP layout.
func NewPVPLayout(offset, recordSize int64, vectors []int64) (*PVPLayout, error) {
	const op = "pvp layout"
	if recordSize <= 0 {
		return nil, errs.InvalidDimension(op, "record size must be positive, got %d", recordSize)
	}
	if len(vectors) == 0 {
		return nil, errs.InvalidDimension(op, "no channels")
	}
	if offset < 0 {
		return nil, errs.InvalidDimension(op, "negative offset %d", offset)
	}
	p := &PVPLayout{
		Offset:     offset,
		RecordSize: recordSize,
		Vectors:    append([]int64(nil), vectors...),
	}
	for i, n := range vectors {
		if n <= 0 {
			return nil, errs.InvalidDimension(op, "channel %d has %d vectors", i, n)
		}
	}
	return p, nil
}

// PVPFor derives a PVP layout whose channels match l.
func PVPFor(l *Layout, offset, recordSize int64) (*PVPLayout, error) {
	vectors := make([]int64, len(l.Channels))
	for i, c := range l.Channels {
		vectors[i] = c.NumVectors
	}
	return NewPVPLayout(offset, recordSize, vectors)
}

// Size returns the byte size of the block.
func (p *PVPLayout) Size() int64 {
	var n int64
	for _, v := range p.Vectors {
		n += v * p.RecordSize
	}
	return n
}

// FileOffset returns the position of the record of vector v of ch.
func (p *PVPLayout) FileOffset(ch int, v int64) (int64, error) {
	const op = "pvp offset"
	if ch < 0 || ch >= len(p.Vectors) {
		return 0, errs.OutOfRange(op, "channel %d outside [0,%d)", ch, len(p.Vectors))
	}
	if v < 0 || v >= p.Vectors[ch] {
		return 0, errs.OutOfRange(op, "channel %d vector %d outside [0,%d)", ch, v, p.Vectors[ch])
	}
	return p.base(ch) + v*p.RecordSize, nil
}

func (p *PVPLayout) base(ch int) int64 {
	b := p.Offset
	for _, n := range p.Vectors[:ch] {
		b += n * p.RecordSize
	}
	return b
}

func (p *PVPLayout) grid(ch int) grid {
	return grid{base: p.base(ch), rows: p.Vectors[ch], cols: 1, elem: p.RecordSize}
}
