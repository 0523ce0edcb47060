package sarstore

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/compression"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/manifest"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/resource"
	"github.com/hupe1980/sarstore/segment"
	"github.com/hupe1980/sarstore/window"
)

// StagingSuffix names the uncoded blob a coded image is written to before
// Finalize packs it into blocks.
const StagingSuffix = ".staging"

// maxBlockSize is the largest block a frame header can describe.
const maxBlockSize = 1 << 31

// ImageWriter is the write session of one image container. Windows may be
// written in any order; Finalize publishes the container once every cell
// has been written.
//
// ImageWriter is not safe for concurrent use.
type ImageWriter struct {
	db     *DB
	name   string
	img    raster.Image
	limits segment.Limits
	plan   *segment.Plan
	blob   blobstore.WritableBlob
	ww     *window.Writer
	coded  bool
	done   bool
	logger *Logger
}

// CreateImage plans img with the configured segment ceilings and opens a
// write session for container name.
func (db *DB) CreateImage(ctx context.Context, name string, img raster.Image) (*ImageWriter, error) {
	const op = "create image"
	limits := db.opts.profile.Segments
	plan, err := segment.ForImage(img, limits)
	if err != nil {
		return nil, err
	}

	coded := db.opts.profile.Compression.Codec != ""
	target := name
	if coded {
		target = name + StagingSuffix
	}
	blob, err := db.store.Create(ctx, target)
	if err != nil {
		return nil, errs.IO(op, err)
	}

	logger := db.opts.logger.WithContainer(name)
	ww, err := window.NewWriter(plan, img, blob,
		window.WithAllowOverwrite(db.opts.profile.AllowOverwrite),
		window.WithLogger(logger.Logger),
		window.WithResourceController(db.rc),
	)
	if err != nil {
		_ = blob.Abort()
		return nil, err
	}
	logger.DebugContext(ctx, "image session started", "segments", plan.NumSegments(), "coded", coded)

	return &ImageWriter{
		db:     db,
		name:   name,
		img:    img,
		limits: limits,
		plan:   plan,
		blob:   blob,
		ww:     ww,
		coded:  coded,
		logger: logger,
	}, nil
}

// Plan returns the segment plan of the image.
func (w *ImageWriter) Plan() *segment.Plan { return w.plan }

// Image returns the image dimensions.
func (w *ImageWriter) Image() raster.Image { return w.img }

// Coverage exposes which cells have been written so far. It is nil once the
// session is closed.
func (w *ImageWriter) Coverage() *window.Coverage { return w.ww.Coverage() }

// WriteWindow writes data, laid out as ReadWindow returns it, into win.
func (w *ImageWriter) WriteWindow(ctx context.Context, win raster.Window, data []byte) error {
	start := time.Now()
	err := w.ww.WriteWindow(ctx, win, data)
	w.db.opts.metricsCollector.RecordWindowWrite(int64(len(data)), time.Since(start), err)
	w.logger.LogWindowWrite(ctx, win, err)
	return err
}

// Finalize checks that every cell was written, publishes the container,
// runs the compression pass when a codec is configured and writes the
// manifest. On ErrIncompleteWrite the session stays open: write the
// missing cells and call Finalize again.
func (w *ImageWriter) Finalize(ctx context.Context) error {
	if w.done {
		return errs.InvalidState("image finalize", "image %q is already finalized or aborted", w.name)
	}
	start := time.Now()
	err := w.finalize(ctx)
	w.db.opts.metricsCollector.RecordFinalize(w.plan.NumSegments(), time.Since(start), err)
	w.logger.LogFinalize(ctx, w.plan.NumSegments(), err)
	return err
}

func (w *ImageWriter) finalize(ctx context.Context) error {
	const op = "image finalize"
	if err := w.ww.Finalize(); err != nil {
		return err
	}
	w.done = true
	if err := w.blob.Close(); err != nil {
		return errs.IO(op, err)
	}

	m := &manifest.ImageManifest{Image: w.img, Limits: w.limits, Plan: w.plan}
	if w.coded {
		c, err := w.compress(ctx)
		if err != nil {
			_ = w.db.store.Delete(ctx, w.name+StagingSuffix)
			return err
		}
		m.Compression = c
	}
	return w.db.manifests.SaveImage(ctx, w.name, m)
}

// blockSize returns the coded block size for rows image rows.
func blockSize(img raster.Image, rows int64) int64 {
	if rows <= 0 || img.RowBytes() > maxBlockSize/rows {
		return maxBlockSize
	}
	return rows * img.RowBytes()
}

// compress packs every segment of the staging blob into the container,
// one coded region per segment, then removes the staging blob.
func (w *ImageWriter) compress(ctx context.Context) (*manifest.Compression, error) {
	const op = "image compress"
	cfg := w.db.opts.profile.Compression
	rc := w.db.rc
	start := time.Now()

	if err := rc.AcquireWorker(ctx); err != nil {
		return nil, errs.IO(op, err)
	}
	defer rc.ReleaseWorker()

	staging := w.name + StagingSuffix
	src, err := w.db.store.Open(ctx, staging)
	if err != nil {
		return nil, errs.IO(op, err)
	}
	defer src.Close()

	dst, err := w.db.store.Create(ctx, w.name)
	if err != nil {
		return nil, errs.IO(op, err)
	}

	bs := blockSize(w.img, cfg.BlockRows)
	out := blobstore.NewSequentialWriter(ctx, dst, 0)
	in := resource.NewThrottledReaderAt(src, rc)
	regions := make([]compression.Region, 0, w.plan.NumSegments())
	for _, s := range w.plan.Segments {
		r, _, err := compression.Pack(ctx, cfg.Codec, compression.Config{BlockSize: uint64(bs), Level: cfg.Level},
			in, s.FileOffset, s.Size, out, uint64(out.Offset()), cfg.Classifier(),
			compression.WithLogger(w.logger.Logger))
		if err != nil {
			_ = dst.Abort()
			w.db.opts.metricsCollector.RecordCompress(string(cfg.Codec), w.plan.TotalBytes(), out.Offset(), time.Since(start), err)
			w.logger.LogCompress(ctx, string(cfg.Codec), w.plan.TotalBytes(), out.Offset(), err)
			return nil, errs.Wrap(err, op, "segment %d", s.Index)
		}
		regions = append(regions, r)
	}
	if err := dst.Close(); err != nil {
		return nil, errs.IO(op, err)
	}
	if err := w.db.store.Delete(ctx, staging); err != nil {
		return nil, errs.IO(op, err)
	}

	w.db.opts.metricsCollector.RecordCompress(string(cfg.Codec), w.plan.TotalBytes(), out.Offset(), time.Since(start), nil)
	w.logger.LogCompress(ctx, string(cfg.Codec), w.plan.TotalBytes(), out.Offset(), nil)

	c := &manifest.Compression{Codec: cfg.Codec, BlockSize: bs, Regions: regions}
	if cfg.PadValue != nil {
		c.PadValue = *cfg.PadValue
	}
	return c, nil
}

// Abort discards the session and everything it wrote. It is a no-op after
// a successful Finalize.
func (w *ImageWriter) Abort(ctx context.Context) error {
	if w.done {
		return nil
	}
	w.done = true
	w.ww.Abandon()
	if err := w.blob.Abort(); err != nil && !errors.Is(err, blobstore.ErrClosed) {
		return errs.IO("image abort", err)
	}
	w.logger.DebugContext(ctx, "image session aborted")
	return nil
}

// ImageReader reads windows of a finalized image. It is safe for
// concurrent use.
type ImageReader struct {
	db       *DB
	name     string
	manifest *manifest.ImageManifest
	blob     blobstore.Blob
	wr       *window.Reader
	logger   *Logger
}

// OpenImage loads the manifest of container name and opens it for window
// reads. Coded images are decoded block by block through the shared cache.
func (db *DB) OpenImage(ctx context.Context, name string) (*ImageReader, error) {
	m, err := db.manifests.LoadImage(ctx, name)
	if err != nil {
		return nil, err
	}
	blob, err := db.store.Open(ctx, name)
	if err != nil {
		return nil, errs.IO("open image", err)
	}

	var src blobstore.ReaderAt = blob
	if c := m.Compression; c != nil {
		opts := []compression.Option{compression.WithPadValue(c.PadValue)}
		if db.cache != nil {
			opts = append(opts, compression.WithBlockCache(db.cache, name))
		}
		br, err := compression.NewBlockReader(blob, c.Codec, c.BlockSize, c.Regions, opts...)
		if err != nil {
			_ = blob.Close()
			return nil, err
		}
		src = br
	}

	logger := db.opts.logger.WithContainer(name)
	wr, err := window.NewReader(m.Plan, m.Image, src,
		window.WithWorkers(db.opts.profile.Threads),
		window.WithLogger(logger.Logger),
		window.WithResourceController(db.rc),
	)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return &ImageReader{db: db, name: name, manifest: m, blob: blob, wr: wr, logger: logger}, nil
}

// Image returns the image dimensions.
func (r *ImageReader) Image() raster.Image { return r.manifest.Image }

// Plan returns the segment plan the image was written with.
func (r *ImageReader) Plan() *segment.Plan { return r.manifest.Plan }

// Manifest returns the loaded manifest. It must not be modified.
func (r *ImageReader) Manifest() *manifest.ImageManifest { return r.manifest }

// ReadWindow returns the bytes of w, row-major for interleaved images and
// band-major for band-sequential ones.
func (r *ImageReader) ReadWindow(ctx context.Context, w raster.Window) ([]byte, error) {
	start := time.Now()
	data, err := r.wr.ReadWindow(ctx, w)
	r.db.opts.metricsCollector.RecordWindowRead(int64(len(data)), time.Since(start), err)
	r.logger.LogWindowRead(ctx, w, err)
	return data, err
}

// ReadWindowInto is ReadWindow into a caller-provided buffer of exactly
// w.Bytes(img) bytes.
func (r *ImageReader) ReadWindowInto(ctx context.Context, w raster.Window, dst []byte) error {
	start := time.Now()
	err := r.wr.ReadWindowInto(ctx, w, dst)
	r.db.opts.metricsCollector.RecordWindowRead(int64(len(dst)), time.Since(start), err)
	r.logger.LogWindowRead(ctx, w, err)
	return err
}

// Close releases the container blob.
func (r *ImageReader) Close() error {
	return r.blob.Close()
}
