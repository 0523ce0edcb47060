package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned by a WritableBlob after Close or Abort.
var ErrClosed = errors.New("blobstore: blob closed")

// BlobStore is an abstraction for reading and writing container blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for positioned writes. The blob becomes visible
	// to Open once Close succeeds.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReaderAt is a stateless positioned reader. Concurrent calls never share
// position state.
type ReaderAt interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
}

// WriterAt is a positioned writer.
type WriterAt interface {
	WriteAt(ctx context.Context, p []byte, off int64) (int, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob receives positioned writes.
type WritableBlob interface {
	WriterAt
	// Sync flushes written data to durable storage where supported.
	Sync() error
	// Close publishes the blob.
	Close() error
	// Abort discards everything written.
	Abort() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// FromReaderAt adapts an io.ReaderAt such as *os.File.
func FromReaderAt(r io.ReaderAt) ReaderAt { return readerAt{r} }

type readerAt struct{ r io.ReaderAt }

func (a readerAt) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.r.ReadAt(p, off)
}

// FromWriterAt adapts an io.WriterAt such as *os.File.
func FromWriterAt(w io.WriterAt) WriterAt { return writerAt{w} }

type writerAt struct{ w io.WriterAt }

func (a writerAt) WriteAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.w.WriteAt(p, off)
}

// ReadFull reads exactly len(p) bytes at off. A short read is an error even
// when the reader reports io.EOF.
func ReadFull(ctx context.Context, r ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(ctx, p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("short read at offset %d: got %d of %d bytes: %w", off, n, len(p), io.ErrUnexpectedEOF)
	}
	return err
}

// WriteFull writes all of p at off.
func WriteFull(ctx context.Context, w WriterAt, p []byte, off int64) error {
	n, err := w.WriteAt(ctx, p, off)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("short write at offset %d: wrote %d of %d bytes: %w", off, n, len(p), io.ErrShortWrite)
	}
	return nil
}

// SequentialWriter turns a WriterAt into an io.Writer that appends from a
// starting offset.
type SequentialWriter struct {
	ctx context.Context
	w   WriterAt
	off int64
}

// NewSequentialWriter returns a writer whose first byte lands at off.
func NewSequentialWriter(ctx context.Context, w WriterAt, off int64) *SequentialWriter {
	return &SequentialWriter{ctx: ctx, w: w, off: off}
}

func (s *SequentialWriter) Write(p []byte) (int, error) {
	if err := WriteFull(s.ctx, s.w, p, s.off); err != nil {
		return 0, err
	}
	s.off += int64(len(p))
	return len(p), nil
}

// Offset returns where the next byte will land.
func (s *SequentialWriter) Offset() int64 { return s.off }
