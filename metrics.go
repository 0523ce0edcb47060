package sarstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordWindowRead is called after each image window read.
	// bytes is the size of the returned window, err is nil if successful.
	RecordWindowRead(bytes int64, duration time.Duration, err error)

	// RecordWindowWrite is called after each image window write.
	RecordWindowWrite(bytes int64, duration time.Duration, err error)

	// RecordFinalize is called after each Finalize attempt of an image
	// write session, including the compression pass and manifest write.
	RecordFinalize(segments int, duration time.Duration, err error)

	// RecordCompress is called after each block coding pass.
	// rawBytes is the uncoded image size, codedBytes what was stored.
	RecordCompress(codec string, rawBytes, codedBytes int64, duration time.Duration, err error)

	// RecordWidebandRead is called after each phase-history read.
	RecordWidebandRead(bytes int64, threads int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWindowRead(int64, time.Duration, error)              {}
func (NoopMetricsCollector) RecordWindowWrite(int64, time.Duration, error)             {}
func (NoopMetricsCollector) RecordFinalize(int, time.Duration, error)                  {}
func (NoopMetricsCollector) RecordCompress(string, int64, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordWidebandRead(int64, int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WindowReads        atomic.Int64
	WindowReadErrors   atomic.Int64
	WindowReadBytes    atomic.Int64
	WindowReadNanos    atomic.Int64
	WindowWrites       atomic.Int64
	WindowWriteErrors  atomic.Int64
	WindowWriteBytes   atomic.Int64
	Finalizes          atomic.Int64
	FinalizeErrors     atomic.Int64
	Compressions       atomic.Int64
	CompressRawBytes   atomic.Int64
	CompressCodedBytes atomic.Int64
	WidebandReads      atomic.Int64
	WidebandErrors     atomic.Int64
	WidebandBytes      atomic.Int64
}

// RecordWindowRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWindowRead(bytes int64, duration time.Duration, err error) {
	b.WindowReads.Add(1)
	b.WindowReadNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WindowReadErrors.Add(1)
		return
	}
	b.WindowReadBytes.Add(bytes)
}

// RecordWindowWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWindowWrite(bytes int64, _ time.Duration, err error) {
	b.WindowWrites.Add(1)
	if err != nil {
		b.WindowWriteErrors.Add(1)
		return
	}
	b.WindowWriteBytes.Add(bytes)
}

// RecordFinalize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFinalize(_ int, _ time.Duration, err error) {
	b.Finalizes.Add(1)
	if err != nil {
		b.FinalizeErrors.Add(1)
	}
}

// RecordCompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompress(_ string, rawBytes, codedBytes int64, _ time.Duration, err error) {
	if err != nil {
		return
	}
	b.Compressions.Add(1)
	b.CompressRawBytes.Add(rawBytes)
	b.CompressCodedBytes.Add(codedBytes)
}

// RecordWidebandRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWidebandRead(bytes int64, _ int, _ time.Duration, err error) {
	b.WidebandReads.Add(1)
	if err != nil {
		b.WidebandErrors.Add(1)
		return
	}
	b.WidebandBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		WindowReads:        b.WindowReads.Load(),
		WindowReadErrors:   b.WindowReadErrors.Load(),
		WindowReadBytes:    b.WindowReadBytes.Load(),
		WindowReadAvgNanos: b.getAvgReadNanos(),
		WindowWrites:       b.WindowWrites.Load(),
		WindowWriteErrors:  b.WindowWriteErrors.Load(),
		WindowWriteBytes:   b.WindowWriteBytes.Load(),
		Finalizes:          b.Finalizes.Load(),
		FinalizeErrors:     b.FinalizeErrors.Load(),
		Compressions:       b.Compressions.Load(),
		CompressRawBytes:   b.CompressRawBytes.Load(),
		CompressCodedBytes: b.CompressCodedBytes.Load(),
		WidebandReads:      b.WidebandReads.Load(),
		WidebandErrors:     b.WidebandErrors.Load(),
		WidebandBytes:      b.WidebandBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgReadNanos() int64 {
	count := b.WindowReads.Load()
	if count == 0 {
		return 0
	}
	return b.WindowReadNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	WindowReads        int64
	WindowReadErrors   int64
	WindowReadBytes    int64
	WindowReadAvgNanos int64
	WindowWrites       int64
	WindowWriteErrors  int64
	WindowWriteBytes   int64
	Finalizes          int64
	FinalizeErrors     int64
	Compressions       int64
	CompressRawBytes   int64
	CompressCodedBytes int64
	WidebandReads      int64
	WidebandErrors     int64
	WidebandBytes      int64
}
