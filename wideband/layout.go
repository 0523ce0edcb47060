// Package wideband addresses phase-history signal data by channel, vector
// and sample, and reads it with partitioned positioned I/O.
//
// Channels are stored one after another. Inside a channel, vectors are
// stored in order and each vector holds NumSamples samples:
//
//	FileOffset(ch, v, s) = ChannelBase(ch) + v*NumSamples(ch)*BytesPerSample + s*BytesPerSample
//
// The per-vector parameter block and the support block use the same
// row-major addressing and are read through the same partitioned reader.
package wideband

import (
	"github.com/hupe1980/sarstore/errs"
)

// All selects the full remaining extent of a vector or sample range.
const All int64 = -1

// Channel declares the extent of one channel.
type Channel struct {
	NumVectors int64 `json:"num_vectors"`
	NumSamples int64 `json:"num_samples"`
}

// Layout is the addressing of a signal block.
type Layout struct {
	Channels       []Channel `json:"channels"`
	BytesPerSample int64     `json:"bytes_per_sample"`
	// Offset is the file position of the first byte of channel 0.
	Offset int64 `json:"offset"`
}

// NewLayout validates the declared extents and returns the layout.
func NewLayout(channels []Channel, bytesPerSample, offset int64) (*Layout, error) {
	const op = "wideband layout"
	if len(channels) == 0 {
		return nil, errs.InvalidDimension(op, "no channels")
	}
	if bytesPerSample <= 0 {
		return nil, errs.InvalidDimension(op, "bytes per sample must be positive, got %d", bytesPerSample)
	}
	if offset < 0 {
		return nil, errs.InvalidDimension(op, "negative offset %d", offset)
	}
	l := &Layout{
		Channels:       append([]Channel(nil), channels...),
		BytesPerSample: bytesPerSample,
		Offset:         offset,
	}
	for i, c := range channels {
		if c.NumVectors <= 0 || c.NumSamples <= 0 {
			return nil, errs.InvalidDimension(op, "channel %d has %d vectors x %d samples", i, c.NumVectors, c.NumSamples)
		}
	}
	return l, nil
}

// ForFormat is NewLayout with the sample size taken from f.
func ForFormat(channels []Channel, f SampleFormat, offset int64) (*Layout, error) {
	if f.BytesPerSample() == 0 {
		return nil, errs.InvalidDimension("wideband layout", "unknown sample format %s", f)
	}
	return NewLayout(channels, f.BytesPerSample(), offset)
}

// NumChannels returns the number of channels.
func (l *Layout) NumChannels() int { return len(l.Channels) }

func (l *Layout) checkChannel(op string, ch int) error {
	if ch < 0 || ch >= len(l.Channels) {
		return errs.OutOfRange(op, "channel %d outside [0,%d)", ch, len(l.Channels))
	}
	return nil
}

// ChannelBase returns the file position of the first sample of ch.
func (l *Layout) ChannelBase(ch int) (int64, error) {
	if err := l.checkChannel("channel base", ch); err != nil {
		return 0, err
	}
	return l.base(ch), nil
}

// base sums the sizes of the channels stored before ch. ch must be valid.
func (l *Layout) base(ch int) int64 {
	b := l.Offset
	for _, c := range l.Channels[:ch] {
		b += c.NumVectors * c.NumSamples * l.BytesPerSample
	}
	return b
}

// ChannelSize returns the byte size of ch.
func (l *Layout) ChannelSize(ch int) (int64, error) {
	if err := l.checkChannel("channel size", ch); err != nil {
		return 0, err
	}
	c := l.Channels[ch]
	return c.NumVectors * c.NumSamples * l.BytesPerSample, nil
}

// VectorBytes returns the byte size of one vector of ch.
func (l *Layout) VectorBytes(ch int) (int64, error) {
	if err := l.checkChannel("vector bytes", ch); err != nil {
		return 0, err
	}
	return l.Channels[ch].NumSamples * l.BytesPerSample, nil
}

// TotalSize returns the byte size of all channels.
func (l *Layout) TotalSize() int64 {
	var n int64
	for _, c := range l.Channels {
		n += c.NumVectors * c.NumSamples * l.BytesPerSample
	}
	return n
}

// End returns the file position just past the last channel.
func (l *Layout) End() int64 { return l.Offset + l.TotalSize() }

// FileOffset returns the file position of sample s of vector v of ch.
func (l *Layout) FileOffset(ch int, v, s int64) (int64, error) {
	const op = "wideband offset"
	if err := l.checkChannel(op, ch); err != nil {
		return 0, err
	}
	c := l.Channels[ch]
	if v < 0 || v >= c.NumVectors {
		return 0, errs.OutOfRange(op, "channel %d vector %d outside [0,%d)", ch, v, c.NumVectors)
	}
	if s < 0 || s >= c.NumSamples {
		return 0, errs.OutOfRange(op, "channel %d sample %d outside [0,%d)", ch, s, c.NumSamples)
	}
	return l.base(ch) + v*c.NumSamples*l.BytesPerSample + s*l.BytesPerSample, nil
}

// grid returns the addressing of ch as a vectors x samples array.
func (l *Layout) grid(ch int) grid {
	c := l.Channels[ch]
	return grid{base: l.base(ch), rows: c.NumVectors, cols: c.NumSamples, elem: l.BytesPerSample}
}

// Equal reports whether two layouts address the same bytes.
func (l *Layout) Equal(o *Layout) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.BytesPerSample != o.BytesPerSample || l.Offset != o.Offset || len(l.Channels) != len(o.Channels) {
		return false
	}
	for i := range l.Channels {
		if l.Channels[i] != o.Channels[i] {
			return false
		}
	}
	return true
}
