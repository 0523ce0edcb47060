package resource

import (
	"context"
)

// ReaderAt matches blobstore.ReaderAt.
type ReaderAt interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
}

// WriterAt matches blobstore.WriterAt.
type WriterAt interface {
	WriteAt(ctx context.Context, p []byte, off int64) (int, error)
}

// ThrottledReaderAt charges every positioned read against the IO limit.
type ThrottledReaderAt struct {
	r  ReaderAt
	rc *Controller
}

// NewThrottledReaderAt wraps r. A nil controller returns r unchanged.
func NewThrottledReaderAt(r ReaderAt, rc *Controller) ReaderAt {
	if rc == nil {
		return r
	}
	return &ThrottledReaderAt{r: r, rc: rc}
}

func (t *ThrottledReaderAt) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := t.rc.AcquireIO(ctx, len(p)); err != nil {
		return 0, err
	}
	return t.r.ReadAt(ctx, p, off)
}

// ThrottledWriterAt charges every positioned write against the IO limit.
type ThrottledWriterAt struct {
	w  WriterAt
	rc *Controller
}

// NewThrottledWriterAt wraps w. A nil controller returns w unchanged.
func NewThrottledWriterAt(w WriterAt, rc *Controller) WriterAt {
	if rc == nil {
		return w
	}
	return &ThrottledWriterAt{w: w, rc: rc}
}

func (t *ThrottledWriterAt) WriteAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := t.rc.AcquireIO(ctx, len(p)); err != nil {
		return 0, err
	}
	return t.w.WriteAt(ctx, p, off)
}
