package block

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/sarstore/errs"
)

// NoBlock is the 32-bit sentinel the NITF mask table uses for an omitted
// block or a block without pad pixels.
const NoBlock uint32 = 0xFFFFFFFF

// Table is the masked-image record that precedes blocked image data:
//
//	IMDATOFF  uint32  size of this table (offset to the first block)
//	BMRLNTH   uint16  block mask record length (0 or 4)
//	TMRLNTH   uint16  pad pixel mask record length (0 or 4)
//	TPXCDLNTH uint16  pad pixel code length in bits
//	TPXCD     [ceil(TPXCDLNTH/8)]byte
//	BMR       [n]uint32 when BMRLNTH == 4
//	TMR       [n]uint32 when TMRLNTH == 4
//
// All fields are big-endian. Offsets are relative to the first block.
type Table struct {
	BlockMask *Mask
	PadMask   *Mask
	// PadCode is the pad pixel value; its bit length is 8*len(PadCode).
	PadCode []byte
}

// Size returns the encoded length of the table.
func (t Table) Size() int {
	n := 4 + 2 + 2 + 2 + len(t.PadCode)
	if t.BlockMask != nil {
		n += 4 * t.BlockMask.Len()
	}
	if t.PadMask != nil {
		n += 4 * t.PadMask.Len()
	}
	return n
}

// MarshalBinary encodes the table.
func (t Table) MarshalBinary() ([]byte, error) {
	const op = "mask table encode"
	if t.BlockMask != nil && t.PadMask != nil && t.BlockMask.Len() != t.PadMask.Len() {
		return nil, errs.InvalidDimension(op, "block mask has %d entries, pad mask %d", t.BlockMask.Len(), t.PadMask.Len())
	}
	if len(t.PadCode)*8 > math.MaxUint16 {
		return nil, errs.InvalidDimension(op, "pad code of %d bytes is too long", len(t.PadCode))
	}

	size := t.Size()
	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(size))
	buf = binary.BigEndian.AppendUint16(buf, recordLen(t.BlockMask))
	buf = binary.BigEndian.AppendUint16(buf, recordLen(t.PadMask))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(t.PadCode)*8))
	buf = append(buf, t.PadCode...)

	var err error
	if buf, err = appendRecords(buf, t.BlockMask); err != nil {
		return nil, errs.OutOfRange(op, "block mask: %v", err)
	}
	if buf, err = appendRecords(buf, t.PadMask); err != nil {
		return nil, errs.OutOfRange(op, "pad mask: %v", err)
	}
	return buf, nil
}

func recordLen(m *Mask) uint16 {
	if m == nil {
		return 0
	}
	return 4
}

func appendRecords(buf []byte, m *Mask) ([]byte, error) {
	if m == nil {
		return buf, nil
	}
	for i, e := range m.entries {
		if !e.present {
			buf = binary.BigEndian.AppendUint32(buf, NoBlock)
			continue
		}
		if e.off >= uint64(NoBlock) {
			return nil, fmt.Errorf("block %d offset %d does not fit a 32-bit record", i, e.off)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(e.off))
	}
	return buf, nil
}

// DecodeTable parses a table describing numBlocks blocks.
func DecodeTable(data []byte, numBlocks int) (Table, error) {
	const op = "mask table decode"
	if len(data) < 10 {
		return Table{}, errs.IO(op, fmt.Errorf("table header needs 10 bytes, got %d", len(data)))
	}
	size := int(binary.BigEndian.Uint32(data[0:4]))
	bmrLen := binary.BigEndian.Uint16(data[4:6])
	tmrLen := binary.BigEndian.Uint16(data[6:8])
	padBits := int(binary.BigEndian.Uint16(data[8:10]))

	if (bmrLen != 0 && bmrLen != 4) || (tmrLen != 0 && tmrLen != 4) {
		return Table{}, errs.IO(op, fmt.Errorf("unsupported record lengths %d/%d", bmrLen, tmrLen))
	}
	padBytes := (padBits + 7) / 8
	want := 10 + padBytes + numBlocks*int(bmrLen) + numBlocks*int(tmrLen)
	if size != want || len(data) < want {
		return Table{}, errs.IO(op, fmt.Errorf("table declares %d bytes, layout needs %d, have %d", size, want, len(data)))
	}

	var t Table
	pos := 10
	if padBytes > 0 {
		t.PadCode = append([]byte(nil), data[pos:pos+padBytes]...)
		pos += padBytes
	}
	if bmrLen == 4 {
		t.BlockMask, pos = readRecords(data, pos, numBlocks)
	}
	if tmrLen == 4 {
		t.PadMask, _ = readRecords(data, pos, numBlocks)
	}
	return t, nil
}

func readRecords(data []byte, pos, n int) (*Mask, int) {
	m := NewMask(n)
	for i := 0; i < n; i++ {
		v := binary.BigEndian.Uint32(data[pos:])
		if v != NoBlock {
			m.entries[i] = Offset(uint64(v))
		}
		pos += 4
	}
	return m, pos
}

// Relative returns a copy of m with base subtracted from every present
// offset, for tables whose offsets count from the first block.
func (m *Mask) Relative(base uint64) *Mask {
	out := NewMask(m.Len())
	for i, e := range m.entries {
		if e.present {
			out.entries[i] = Offset(e.off - base)
		}
	}
	return out
}
