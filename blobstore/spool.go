package blobstore

import (
	"context"
	"io"
	"os"
	"sync"
)

// UploadFunc publishes size bytes read from r.
type UploadFunc func(ctx context.Context, r io.ReaderAt, size int64) error

// SpoolBlob is a WritableBlob for object stores that cannot accept
// positioned writes. Writes land in a local temporary file; Close hands the
// file to upload and removes it.
type SpoolBlob struct {
	upload UploadFunc

	mu     sync.Mutex
	f      *os.File
	size   int64
	closed bool
}

// NewSpoolBlob creates the temporary file in dir (os.TempDir if empty).
func NewSpoolBlob(dir string, upload UploadFunc) (*SpoolBlob, error) {
	f, err := os.CreateTemp(dir, "sarstore-spool-*")
	if err != nil {
		return nil, err
	}
	return &SpoolBlob{upload: upload, f: f}, nil
}

func (s *SpoolBlob) WriteAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	n, err := s.f.WriteAt(p, off)
	s.size = max(s.size, off+int64(n))
	return n, err
}

// Sync is a no-op: nothing is durable before Close uploads.
func (s *SpoolBlob) Sync() error { return nil }

// Close uploads the spooled bytes and removes the temporary file.
func (s *SpoolBlob) Close() error {
	return s.CloseContext(context.Background())
}

// CloseContext is Close with a context for the upload.
func (s *SpoolBlob) CloseContext(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	defer s.discard()
	return s.upload(ctx, s.f, s.size)
}

// Abort removes the temporary file without uploading.
func (s *SpoolBlob) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.discard()
}

func (s *SpoolBlob) discard() error {
	name := s.f.Name()
	_ = s.f.Close()
	return os.Remove(name)
}
