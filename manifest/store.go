package manifest

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/codec"
	"github.com/hupe1980/sarstore/errs"
)

// ErrNotFound is returned when a container has no manifest.
var ErrNotFound = errors.New("manifest not found")

// Store reads and writes manifests in a blob store.
type Store struct {
	store blobstore.BlobStore
	codec codec.Codec
	now   func() time.Time
}

// NewStore creates a manifest store. A nil codec selects codec.Default.
func NewStore(store blobstore.BlobStore, c codec.Codec) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{store: store, codec: c, now: time.Now}
}

// Name returns the manifest blob name for a container.
func Name(container string) string { return container + Suffix }

// SaveImage validates m, stamps its header and writes it atomically.
func (s *Store) SaveImage(ctx context.Context, container string, m *ImageManifest) error {
	m.Header = Header{Kind: KindImage, Container: container, CreatedAt: s.now().UTC()}
	if err := m.Validate(); err != nil {
		return err
	}
	return s.put(ctx, container, m)
}

// SavePhaseHistory validates m, stamps its header and writes it atomically.
func (s *Store) SavePhaseHistory(ctx context.Context, container string, m *PhaseHistoryManifest) error {
	m.Header = Header{Kind: KindPhaseHistory, Container: container, CreatedAt: s.now().UTC()}
	if _, _, _, err := m.Layouts(); err != nil {
		return err
	}
	return s.put(ctx, container, m)
}

func (s *Store) put(ctx context.Context, container string, v any) error {
	data, err := Encode(s.codec, v)
	if err != nil {
		return errs.IO("manifest save", err)
	}
	if err := s.store.Put(ctx, Name(container), data); err != nil {
		return errs.IO("manifest save", err)
	}
	return nil
}

// LoadImage reads and validates the manifest of an image container.
func (s *Store) LoadImage(ctx context.Context, container string) (*ImageManifest, error) {
	var m ImageManifest
	if err := s.load(ctx, container, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errs.Wrap(err, "manifest load", "%s", container)
	}
	return &m, nil
}

// LoadPhaseHistory reads the manifest of a phase-history container.
func (s *Store) LoadPhaseHistory(ctx context.Context, container string) (*PhaseHistoryManifest, error) {
	var m PhaseHistoryManifest
	if err := s.load(ctx, container, &m); err != nil {
		return nil, err
	}
	if _, _, _, err := m.Layouts(); err != nil {
		return nil, errs.Wrap(err, "manifest load", "%s", container)
	}
	return &m, nil
}

func (s *Store) load(ctx context.Context, container string, v any) error {
	const op = "manifest load"
	b, err := s.store.Open(ctx, Name(container))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return errs.IO(op, ErrNotFound)
		}
		return errs.IO(op, err)
	}
	defer b.Close()

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return errs.IO(op, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return errs.IO(op, err)
	}
	return Decode(data, v)
}

// Delete removes a container's manifest.
func (s *Store) Delete(ctx context.Context, container string) error {
	return s.store.Delete(ctx, Name(container))
}

// List returns the names of containers under prefix that have a manifest.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if c, ok := strings.CutSuffix(n, Suffix); ok {
			out = append(out, c)
		}
	}
	return out, nil
}
