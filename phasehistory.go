package sarstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/manifest"
	"github.com/hupe1980/sarstore/wideband"
)

// PhaseHistoryMeta declares the shape of a phase-history container.
type PhaseHistoryMeta struct {
	Format   wideband.SampleFormat
	Channels []wideband.Channel
	// PVPRecordSize is the byte size of one per-vector parameter record.
	// 0 means the container has no PVP block.
	PVPRecordSize int64
	// SupportArrays are laid out at the start of the container. Array
	// offsets are relative to the support block.
	SupportArrays []wideband.SupportArray
}

// layouts places the support block first, the PVP block after it and the
// signal block last.
func (m PhaseHistoryMeta) layouts() (*wideband.Layout, *wideband.PVPLayout, *wideband.SupportLayout, error) {
	var (
		support *wideband.SupportLayout
		pvp     *wideband.PVPLayout
		next    int64
		err     error
	)
	if len(m.SupportArrays) > 0 {
		if support, err = wideband.NewSupportLayout(0, m.SupportArrays); err != nil {
			return nil, nil, nil, err
		}
		next = support.Size()
	}
	if m.PVPRecordSize > 0 {
		vectors := make([]int64, len(m.Channels))
		for i, c := range m.Channels {
			vectors[i] = c.NumVectors
		}
		if pvp, err = wideband.NewPVPLayout(next, m.PVPRecordSize, vectors); err != nil {
			return nil, nil, nil, err
		}
		next += pvp.Size()
	}
	layout, err := wideband.ForFormat(m.Channels, m.Format, next)
	if err != nil {
		return nil, nil, nil, err
	}
	return layout, pvp, support, nil
}

// PhaseHistoryWriter fills a phase-history container. It is not safe for
// concurrent use.
type PhaseHistoryWriter struct {
	db       *DB
	name     string
	manifest *manifest.PhaseHistoryManifest
	layout   *wideband.Layout
	blob     blobstore.WritableBlob
	ww       *wideband.Writer
	done     bool
	logger   *Logger
}

// CreatePhaseHistory opens a write session for container name.
func (db *DB) CreatePhaseHistory(ctx context.Context, name string, meta PhaseHistoryMeta) (*PhaseHistoryWriter, error) {
	layout, pvp, support, err := meta.layouts()
	if err != nil {
		return nil, err
	}
	blob, err := db.store.Create(ctx, name)
	if err != nil {
		return nil, errs.IO("create phase history", err)
	}

	logger := db.opts.logger.WithContainer(name)
	ww, err := wideband.NewWriter(layout, pvp, support, blob,
		wideband.WithLogger(logger.Logger),
		wideband.WithResourceController(db.rc),
	)
	if err != nil {
		_ = blob.Abort()
		return nil, err
	}

	m := &manifest.PhaseHistoryManifest{
		Format:   meta.Format,
		Channels: layout.Channels,
		Offset:   layout.Offset,
	}
	if pvp != nil {
		m.PVP = &manifest.PVP{Offset: pvp.Offset, RecordSize: pvp.RecordSize, Vectors: pvp.Vectors}
	}
	if support != nil {
		m.Support = &manifest.Support{Offset: support.Offset, Arrays: support.Arrays}
	}
	logger.DebugContext(ctx, "phase history session started", "channels", layout.NumChannels(), "bytes", layout.End())

	return &PhaseHistoryWriter{
		db:       db,
		name:     name,
		manifest: m,
		layout:   layout,
		blob:     blob,
		ww:       ww,
		logger:   logger,
	}, nil
}

// Layout returns the signal layout.
func (w *PhaseHistoryWriter) Layout() *wideband.Layout { return w.layout }

func (w *PhaseHistoryWriter) check(op string) error {
	if w.done {
		return errs.InvalidState(op, "phase history %q is closed", w.name)
	}
	return nil
}

// WriteVectors writes whole vectors of channel ch starting at startVector.
func (w *PhaseHistoryWriter) WriteVectors(ctx context.Context, ch int, startVector int64, data []byte) error {
	if err := w.check("write vectors"); err != nil {
		return err
	}
	err := w.ww.WriteVectors(ctx, ch, startVector, data)
	if err != nil {
		w.logger.WithChannel(ch).ErrorContext(ctx, "vector write failed", "start_vector", startVector, "error", err)
	}
	return err
}

// WritePVP writes whole parameter records of channel ch.
func (w *PhaseHistoryWriter) WritePVP(ctx context.Context, ch int, startVector int64, data []byte) error {
	if err := w.check("write pvp"); err != nil {
		return err
	}
	return w.ww.WritePVP(ctx, ch, startVector, data)
}

// WriteSupport writes the whole support array id.
func (w *PhaseHistoryWriter) WriteSupport(ctx context.Context, id string, data []byte) error {
	if err := w.check("write support"); err != nil {
		return err
	}
	return w.ww.WriteSupport(ctx, id, data)
}

// Close publishes the container and writes its manifest.
func (w *PhaseHistoryWriter) Close(ctx context.Context) error {
	if err := w.check("close phase history"); err != nil {
		return err
	}
	w.done = true
	if err := w.blob.Close(); err != nil {
		return errs.IO("close phase history", err)
	}
	err := w.db.manifests.SavePhaseHistory(ctx, w.name, w.manifest)
	w.logger.LogFinalize(ctx, w.layout.NumChannels(), err)
	return err
}

// Abort discards the container. It is a no-op after Close.
func (w *PhaseHistoryWriter) Abort(ctx context.Context) error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.blob.Abort(); err != nil && !errors.Is(err, blobstore.ErrClosed) {
		return errs.IO("abort phase history", err)
	}
	w.logger.DebugContext(ctx, "phase history session aborted")
	return nil
}

// PhaseHistoryReader reads signal, PVP and support data of a finalized
// phase-history container. It is safe for concurrent use.
type PhaseHistoryReader struct {
	db       *DB
	name     string
	manifest *manifest.PhaseHistoryManifest
	blob     blobstore.Blob
	wr       *wideband.Reader
	logger   *Logger
}

// OpenPhaseHistory loads the manifest of container name and opens it.
func (db *DB) OpenPhaseHistory(ctx context.Context, name string) (*PhaseHistoryReader, error) {
	m, err := db.manifests.LoadPhaseHistory(ctx, name)
	if err != nil {
		return nil, err
	}
	layout, pvp, support, err := m.Layouts()
	if err != nil {
		return nil, err
	}
	blob, err := db.store.Open(ctx, name)
	if err != nil {
		return nil, errs.IO("open phase history", err)
	}
	if blob.Size() < layout.End() {
		_ = blob.Close()
		return nil, errs.IO("open phase history", fmt.Errorf("container %q holds %d bytes, layout needs %d: %w",
			name, blob.Size(), layout.End(), io.ErrUnexpectedEOF))
	}

	logger := db.opts.logger.WithContainer(name)
	wr, err := wideband.NewReader(layout, pvp, support, blob,
		wideband.WithLogger(logger.Logger),
		wideband.WithResourceController(db.rc),
	)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return &PhaseHistoryReader{db: db, name: name, manifest: m, blob: blob, wr: wr, logger: logger}, nil
}

// Manifest returns the loaded manifest. It must not be modified.
func (r *PhaseHistoryReader) Manifest() *manifest.PhaseHistoryManifest { return r.manifest }

// Layout returns the signal layout.
func (r *PhaseHistoryReader) Layout() *wideband.Layout { return r.wr.Layout() }

func (r *PhaseHistoryReader) threads(n int) int {
	if n > 0 {
		return n
	}
	return r.db.opts.profile.Threads
}

// Read reads numVectors x numSamples samples of channel ch. wideband.All
// selects the rest of a range. threads <= 0 uses the configured default.
// When out has the exact size it is filled and returned.
func (r *PhaseHistoryReader) Read(ctx context.Context, ch int, startVector, numVectors, startSample, numSamples int64, threads int, out []byte) ([]byte, error) {
	n := r.threads(threads)
	start := time.Now()
	data, err := r.wr.Read(ctx, ch, startVector, numVectors, startSample, numSamples, n, out)
	r.db.opts.metricsCollector.RecordWidebandRead(int64(len(data)), n, time.Since(start), err)
	var vectors int64
	if bpv, verr := r.wr.Layout().VectorBytes(ch); verr == nil && bpv > 0 {
		vectors = int64(len(data)) / bpv
	}
	r.logger.LogWidebandRead(ctx, ch, vectors, n, err)
	return data, err
}

// ReadChannel reads every sample of channel ch.
func (r *PhaseHistoryReader) ReadChannel(ctx context.Context, ch int, threads int) ([]byte, error) {
	return r.Read(ctx, ch, 0, wideband.All, 0, wideband.All, threads, nil)
}

// ReadPVP reads numVectors parameter records of channel ch.
func (r *PhaseHistoryReader) ReadPVP(ctx context.Context, ch int, startVector, numVectors int64, threads int, out []byte) ([]byte, error) {
	return r.wr.ReadPVP(ctx, ch, startVector, numVectors, r.threads(threads), out)
}

// ReadSupport reads the whole support array id.
func (r *PhaseHistoryReader) ReadSupport(ctx context.Context, id string, threads int) ([]byte, error) {
	return r.wr.ReadSupport(ctx, id, r.threads(threads))
}

// ReadAllSupport reads every support array keyed by id.
func (r *PhaseHistoryReader) ReadAllSupport(ctx context.Context, threads int) (map[string][]byte, error) {
	return r.wr.ReadAllSupport(ctx, r.threads(threads))
}

// Close releases the container blob.
func (r *PhaseHistoryReader) Close() error {
	return r.blob.Close()
}
