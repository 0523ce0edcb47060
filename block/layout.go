package block

import "github.com/hupe1980/sarstore/errs"

// Layout describes how a data region of DataLength bytes beginning at
// Offset is cut into blocks of at most BlockSize bytes.
type Layout struct {
	Offset     uint64 `json:"offset"`
	DataLength uint64 `json:"data_length"`
	BlockSize  uint64 `json:"block_size"`
}

// NewLayout validates and returns a layout.
func NewLayout(offset, dataLength, blockSize uint64) (Layout, error) {
	if dataLength == 0 {
		return Layout{}, errs.InvalidDimension("block layout", "data length must be positive")
	}
	if blockSize == 0 {
		return Layout{}, errs.InvalidDimension("block layout", "block size must be positive")
	}
	return Layout{Offset: offset, DataLength: dataLength, BlockSize: blockSize}, nil
}

// NumBlocks returns the number of blocks; the last may be short.
func (l Layout) NumBlocks() int {
	if l.BlockSize == 0 {
		return 0
	}
	return int((l.DataLength + l.BlockSize - 1) / l.BlockSize)
}

// BlockLen returns the uncompressed length of block i.
func (l Layout) BlockLen(i int) uint64 {
	start := uint64(i) * l.BlockSize
	if start >= l.DataLength {
		return 0
	}
	return min(l.BlockSize, l.DataLength-start)
}

// BlockStart returns the uncompressed byte position of block i within the
// data region.
func (l Layout) BlockStart(i int) uint64 {
	return uint64(i) * l.BlockSize
}
