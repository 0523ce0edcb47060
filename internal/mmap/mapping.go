package mmap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"
)

// ErrClosed is returned by reads on a closed Mapping.
var ErrClosed = errors.New("mmap: mapping is closed")

// Mapping is a container file mapped read-only. It owns the mapped slice.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path read-only. Window reads jump between segments
// and band planes, so the kernel is told not to read ahead. The descriptor
// is closed before Open returns; the mapping stays valid until Close.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("mmap: %s is %d bytes, larger than the address space", path, size)
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	// Advisory only; failure costs nothing but read-ahead.
	_ = osAdviseRandom(data)
	return &Mapping{data: data, unmap: unmap}, nil
}

// Close unmaps the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Size returns the mapped length in bytes.
func (m *Mapping) Size() int64 { return int64(len(m.data)) }

// Bytes returns the whole mapping, or nil once closed. The slice must not
// be used after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// ReadAt copies mapped bytes into p with io.ReaderAt semantics.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("mmap: negative offset %d", off)
	}
	if off >= m.Size() {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Section returns the mapped bytes [off, off+length) without copying,
// clamped to the end of the file. An off at or past the end gives io.EOF.
func (m *Mapping) Section(off, length int64) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("mmap: invalid section [%d,+%d)", off, length)
	}
	if off >= m.Size() {
		return nil, io.EOF
	}
	return m.data[off : off+min(length, m.Size()-off)], nil
}
