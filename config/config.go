// Package config loads storage profiles from YAML.
//
// A profile is loaded from a single file named either by the
// SARSTORE_CONFIG environment variable or passed explicitly. Fields the
// file leaves out keep the values from Default, which carries the NITF 2.1
// segment ceilings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/sarstore/codec"
	"github.com/hupe1980/sarstore/compression"
	"github.com/hupe1980/sarstore/resource"
	"github.com/hupe1980/sarstore/segment"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads the profile path from.
const EnvVar = "SARSTORE_CONFIG"

// Profile is the deployment configuration of a store.
type Profile struct {
	// Segments are the per-segment container ceilings.
	Segments segment.Limits `yaml:"segments"`

	// Compression configures the block coding pass run when an image is
	// finalized.
	Compression CompressionConfig `yaml:"compression"`

	// Resources bounds memory, background workers and I/O bandwidth.
	Resources resource.Config `yaml:"resources"`

	// Threads is the default worker count for window and wideband reads.
	// Default: 4
	Threads int `yaml:"threads"`

	// CacheBytes sizes the decoded block cache. 0 disables it.
	CacheBytes int64 `yaml:"cache_bytes"`

	// AllowOverwrite disables duplicate-write detection in write sessions.
	// Default: false
	AllowOverwrite bool `yaml:"allow_overwrite"`

	// ManifestCodec names the codec new manifests are written with.
	// Values: "cbor", "go-json", "json". Default: cbor
	ManifestCodec string `yaml:"manifest_codec"`
}

// CompressionConfig configures block coding.
type CompressionConfig struct {
	// Codec is a registered codec id. Empty leaves images uncoded.
	Codec compression.ID `yaml:"codec"`

	// Level is the codec effort level; 0 selects the codec default.
	Level int `yaml:"level"`

	// BlockRows is the number of image rows per coded block.
	// Default: 256
	BlockRows int64 `yaml:"block_rows"`

	// PadValue, when set, marks blocks made up entirely of this byte as
	// pad blocks.
	PadValue *uint8 `yaml:"pad_value,omitempty"`

	// SkipZeroBlocks stores all-zero blocks as no-data blocks.
	SkipZeroBlocks bool `yaml:"skip_zero_blocks"`
}

// Default returns a profile with the NITF 2.1 ceilings and no compression.
func Default() *Profile {
	return &Profile{
		Segments: segment.NITFLimits(),
		Compression: CompressionConfig{
			BlockRows: 256,
		},
		Resources: resource.Config{
			MaxWorkers: 1,
		},
		Threads:       4,
		ManifestCodec: codec.Default.Name(),
	}
}

// Load loads the profile named by SARSTORE_CONFIG.
func Load() (*Profile, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; set it to the path of a profile or pass one explicitly", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads and validates the profile at path.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	if len(data) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("parse profile: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports every invalid field.
func (p *Profile) Validate() error {
	var problems []error
	if err := p.Segments.Validate(); err != nil {
		problems = append(problems, err)
	}
	if c := p.Compression.Codec; c != "" {
		if _, ok := compression.Lookup(c); !ok {
			problems = append(problems, fmt.Errorf("compression.codec: unknown codec %q (have %v)", c, compression.IDs()))
		}
	}
	if p.Compression.BlockRows <= 0 {
		problems = append(problems, fmt.Errorf("compression.block_rows must be positive, got %d", p.Compression.BlockRows))
	}
	if p.Threads <= 0 {
		problems = append(problems, fmt.Errorf("threads must be positive, got %d", p.Threads))
	}
	if p.CacheBytes < 0 {
		problems = append(problems, fmt.Errorf("cache_bytes must not be negative, got %d", p.CacheBytes))
	}
	if p.Resources.MemoryLimitBytes < 0 || p.Resources.IOLimitBytesPerSec < 0 {
		problems = append(problems, errors.New("resources: limits must not be negative"))
	}
	if _, ok := codec.ByName(p.ManifestCodec); !ok {
		problems = append(problems, fmt.Errorf("manifest_codec: unknown codec %q (have %v)", p.ManifestCodec, codec.Names()))
	}
	return errors.Join(problems...)
}

// Codec returns the manifest codec. Validate guarantees it exists.
func (p *Profile) Codec() codec.Codec {
	c, ok := codec.ByName(p.ManifestCodec)
	if !ok {
		return codec.Default
	}
	return c
}

// Classifier returns the block classifier implied by the compression
// settings, or nil when every block is coded.
func (c CompressionConfig) Classifier() compression.Classifier {
	var pad compression.Classifier
	if c.PadValue != nil {
		pad = compression.PadValue(*c.PadValue)
	}
	switch {
	case c.SkipZeroBlocks && pad != nil:
		return func(data []byte) (bool, bool) {
			if _, noData := compression.ZeroIsNoData(data); noData {
				return false, true
			}
			return pad(data)
		}
	case c.SkipZeroBlocks:
		return compression.ZeroIsNoData
	default:
		return pad
	}
}
