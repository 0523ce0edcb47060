package testutil

import (
	"context"
	"io"
	"sync"
)

// MemFile is an in-memory file with positioned reads and writes. Writes
// past the end grow the file. It is safe for concurrent use.
type MemFile struct {
	mu     sync.RWMutex
	data   []byte
	reads  int
	writes int
}

// NewMemFile returns a zero-filled file of size bytes.
func NewMemFile(size int64) *MemFile {
	return &MemFile{data: make([]byte, size)}
}

// ReadAt implements a context-aware io.ReaderAt.
func (f *MemFile) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()

	f.mu.RLock()
	defer f.mu.RUnlock()
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements a context-aware io.WriterAt.
func (f *MemFile) WriteAt(_ context.Context, p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if end := off + int64(len(p)); end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}
	return copy(f.data[off:], p), nil
}

// Bytes returns a copy of the contents.
func (f *MemFile) Bytes() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// Size returns the current length.
func (f *MemFile) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.data))
}

// Calls returns the number of ReadAt and WriteAt calls so far.
func (f *MemFile) Calls() (reads, writes int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.reads, f.writes
}
