package wideband

import (
	"fmt"

	"github.com/hupe1980/sarstore/errs"
)

// SampleFormat is the storage format of one complex signal sample.
type SampleFormat uint8

const (
	// RE08I_IM08I is a pair of signed 8-bit integers.
	RE08I_IM08I SampleFormat = iota + 1 //nolint:revive // format names as they appear in metadata
	// RE16I_IM16I is a pair of signed 16-bit integers.
	RE16I_IM16I //nolint:revive
	// RE32F_IM32F is a pair of 32-bit floats.
	RE32F_IM32F //nolint:revive
)

var formatNames = map[SampleFormat]string{
	RE08I_IM08I: "RE08I_IM08I",
	RE16I_IM16I: "RE16I_IM16I",
	RE32F_IM32F: "RE32F_IM32F",
}

// BytesPerSample returns 2, 4 or 8, or 0 for an unknown format.
func (f SampleFormat) BytesPerSample() int64 {
	switch f {
	case RE08I_IM08I:
		return 2
	case RE16I_IM16I:
		return 4
	case RE32F_IM32F:
		return 8
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("SampleFormat(%d)", uint8(f))
}

// ParseSampleFormat parses a format name such as "RE16I_IM16I".
func ParseSampleFormat(s string) (SampleFormat, error) {
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, errs.InvalidDimension("sample format", "unknown signal format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f SampleFormat) MarshalText() ([]byte, error) {
	if _, ok := formatNames[f]; !ok {
		return nil, errs.InvalidDimension("sample format", "unknown signal format %d", uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *SampleFormat) UnmarshalText(b []byte) error {
	v, err := ParseSampleFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
