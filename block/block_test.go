package block

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/hupe1980/sarstore/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryDistinguishesZeroFromAbsent(t *testing.T) {
	zero := Offset(0)
	off, ok := zero.Offset()
	assert.True(t, ok)
	assert.Equal(t, uint64(0), off)

	_, ok = Absent().Offset()
	assert.False(t, ok)
	assert.NotEqual(t, zero, Absent())
}

func TestMaskBasics(t *testing.T) {
	m := NewMask(4)
	assert.True(t, m.AllAbsent())
	m.Set(1, Offset(0))
	m.Set(3, Offset(512))
	assert.Equal(t, 2, m.Present())
	assert.False(t, m.At(0).Present())
	assert.False(t, m.At(99).Present())

	c := m.Clone()
	assert.True(t, m.Equal(c))
	c.Set(0, Offset(7))
	assert.False(t, m.Equal(c))
}

func TestMaskFlat(t *testing.T) {
	m := MaskOf(Offset(0), Absent(), Offset(10))
	flat, err := m.Flat(^uint64(0))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, ^uint64(0), 10}, flat)
	assert.True(t, m.Equal(FromFlat(flat, ^uint64(0))))

	_, err = MaskOf(Offset(5)).Flat(5)
	assert.Error(t, err)
}

func TestMaskJSONAndCBOR(t *testing.T) {
	m := MaskOf(Offset(0), Absent(), Offset(4096))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `[0,null,4096]`, string(data))

	var back Mask
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(&back))

	cb, err := cbor.Marshal(m)
	require.NoError(t, err)
	var back2 Mask
	require.NoError(t, cbor.Unmarshal(cb, &back2))
	assert.True(t, m.Equal(&back2))
}

func TestLayout(t *testing.T) {
	l, err := NewLayout(100, 1000, 256)
	require.NoError(t, err)
	assert.Equal(t, 4, l.NumBlocks())
	assert.Equal(t, uint64(256), l.BlockLen(0))
	assert.Equal(t, uint64(1000-768), l.BlockLen(3))
	assert.Equal(t, uint64(0), l.BlockLen(4))
	assert.Equal(t, uint64(512), l.BlockStart(2))

	_, err = NewLayout(0, 0, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
	_, err = NewLayout(0, 1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestTableRoundTrip(t *testing.T) {
	tbl := Table{
		BlockMask: MaskOf(Offset(0), Absent(), Offset(300), Absent()),
		PadMask:   MaskOf(Absent(), Offset(150), Absent(), Absent()),
		PadCode:   []byte{0x00, 0x00},
	}
	data, err := tbl.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, tbl.Size())
	assert.Equal(t, 10+2+16+16, len(data))

	back, err := DecodeTable(data, 4)
	require.NoError(t, err)
	assert.True(t, tbl.BlockMask.Equal(back.BlockMask))
	assert.True(t, tbl.PadMask.Equal(back.PadMask))
	assert.Equal(t, tbl.PadCode, back.PadCode)
}

func TestTableWithoutPadMask(t *testing.T) {
	tbl := Table{BlockMask: MaskOf(Offset(8), Offset(16))}
	data, err := tbl.MarshalBinary()
	require.NoError(t, err)

	back, err := DecodeTable(data, 2)
	require.NoError(t, err)
	assert.Nil(t, back.PadMask)
	assert.True(t, tbl.BlockMask.Equal(back.BlockMask))

	_, err = DecodeTable(data, 3)
	assert.ErrorIs(t, err, errs.ErrIOFailure)
}

func TestTableRejectsWideOffsets(t *testing.T) {
	_, err := Table{BlockMask: MaskOf(Offset(1 << 33))}.MarshalBinary()
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestRelative(t *testing.T) {
	m := MaskOf(Offset(1000), Absent(), Offset(1500))
	r := m.Relative(1000)
	assert.True(t, r.Equal(MaskOf(Offset(0), Absent(), Offset(500))))
}
