// Package manifest persists the metadata needed to reopen a container: the
// segment table and block masks of an image, or the channel, PVP and
// support layouts of a phase history.
//
// Manifests are stored next to their container as name + Suffix inside a
// self-describing envelope (codec name plus BLAKE3 digest), so a manifest
// written with one codec is readable after the default changes.
package manifest

import (
	"time"

	"github.com/hupe1980/sarstore/block"
	"github.com/hupe1980/sarstore/compression"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/segment"
	"github.com/hupe1980/sarstore/wideband"
)

// Suffix is appended to a container name to form its manifest name.
const Suffix = ".manifest"

// Kind distinguishes the manifest types sharing the suffix.
type Kind string

const (
	KindImage        Kind = "image"
	KindPhaseHistory Kind = "phase-history"
)

// Header is the part common to every manifest.
type Header struct {
	Kind      Kind      `json:"kind"`
	Container string    `json:"container"`
	CreatedAt time.Time `json:"created_at"`
}

// Compression records how an image's segments were block coded.
type Compression struct {
	Codec     compression.ID       `json:"codec"`
	BlockSize int64                `json:"block_size"`
	PadValue  byte                 `json:"pad_value"`
	Regions   []compression.Region `json:"regions"`
}

// MaskTable returns the NITF masked-image table of segment i, with
// offsets counted from the segment's first coded byte.
func (c *Compression) MaskTable(i int) (block.Table, error) {
	if i < 0 || i >= len(c.Regions) {
		return block.Table{}, errs.OutOfRange("mask table", "segment %d outside [0,%d)", i, len(c.Regions))
	}
	r := c.Regions[i]
	base, ok := firstOffset(r.Blocks, r.Pads)
	if !ok {
		base = 0
	}
	t := block.Table{BlockMask: r.Blocks.Relative(base)}
	if r.Pads != nil {
		t.PadMask = r.Pads.Relative(base)
		t.PadCode = []byte{c.PadValue}
	}
	return t, nil
}

// firstOffset returns the smallest present offset across masks.
func firstOffset(masks ...*block.Mask) (uint64, bool) {
	var (
		first uint64
		found bool
	)
	for _, m := range masks {
		if m == nil {
			continue
		}
		for _, e := range m.Entries() {
			if off, ok := e.Offset(); ok && (!found || off < first) {
				first, found = off, true
			}
		}
	}
	return first, found
}

// ImageManifest describes a finalized image container.
type ImageManifest struct {
	Header
	Image  raster.Image   `json:"image"`
	Limits segment.Limits `json:"limits"`
	Plan   *segment.Plan  `json:"plan"`
	// Compression is nil for uncoded containers.
	Compression *Compression `json:"compression,omitempty"`
}

// Validate checks the image and that the plan partitions it within limits.
func (m *ImageManifest) Validate() error {
	const op = "image manifest"
	if m.Kind != KindImage {
		return errs.InvalidDimension(op, "kind is %q", m.Kind)
	}
	if err := m.Image.Validate(); err != nil {
		return err
	}
	if m.Plan == nil {
		return errs.InvalidDimension(op, "no segment plan")
	}
	if m.Plan.TotalRows != m.Image.Rows || m.Plan.BytesPerRow != m.Image.RowBytes() {
		return errs.InvalidDimension(op, "plan does not describe a %dx%d image", m.Image.Rows, m.Image.Cols)
	}
	if err := m.Plan.Validate(m.Limits); err != nil {
		return err
	}
	if c := m.Compression; c != nil {
		if _, ok := compression.Lookup(c.Codec); !ok {
			return errs.InvalidDimension(op, "unknown codec %q", c.Codec)
		}
		if len(c.Regions) != m.Plan.NumSegments() {
			return errs.InvalidDimension(op, "%d coded regions for %d segments", len(c.Regions), m.Plan.NumSegments())
		}
	}
	return nil
}

// PVP mirrors wideband.PVPLayout.
type PVP struct {
	Offset     int64   `json:"offset"`
	RecordSize int64   `json:"record_size"`
	Vectors    []int64 `json:"vectors"`
}

// Support mirrors wideband.SupportLayout.
type Support struct {
	Offset int64                   `json:"offset"`
	Arrays []wideband.SupportArray `json:"arrays"`
}

// PhaseHistoryManifest describes a signal container.
type PhaseHistoryManifest struct {
	Header
	Format   wideband.SampleFormat `json:"format"`
	Channels []wideband.Channel    `json:"channels"`
	Offset   int64                 `json:"offset"`
	PVP      *PVP                  `json:"pvp,omitempty"`
	Support  *Support              `json:"support,omitempty"`
}

// Layouts rebuilds and validates the wideband layouts. pvp and support
// are nil when the manifest has no such block.
func (m *PhaseHistoryManifest) Layouts() (layout *wideband.Layout, pvp *wideband.PVPLayout, support *wideband.SupportLayout, err error) {
	if m.Kind != KindPhaseHistory {
		return nil, nil, nil, errs.InvalidDimension("phase history manifest", "kind is %q", m.Kind)
	}
	layout, err = wideband.ForFormat(m.Channels, m.Format, m.Offset)
	if err != nil {
		return nil, nil, nil, err
	}
	if m.PVP != nil {
		if pvp, err = wideband.NewPVPLayout(m.PVP.Offset, m.PVP.RecordSize, m.PVP.Vectors); err != nil {
			return nil, nil, nil, err
		}
	}
	if m.Support != nil {
		if support, err = wideband.NewSupportLayout(m.Support.Offset, m.Support.Arrays); err != nil {
			return nil, nil, nil, err
		}
	}
	return layout, pvp, support, nil
}
