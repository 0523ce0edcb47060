// Package prommetrics exports store metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/hupe1980/sarstore"
	"github.com/prometheus/client_golang/prometheus"
)

var _ sarstore.MetricsCollector = (*Collector)(nil)

// Collector implements sarstore.MetricsCollector with Prometheus vectors.
type Collector struct {
	opLatency     *prometheus.HistogramVec
	bytes         *prometheus.CounterVec
	segments      prometheus.Counter
	codedBytes    *prometheus.CounterVec
	rawBytes      *prometheus.CounterVec
	widebandCalls *prometheus.HistogramVec
}

// New creates a Collector and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sarstore_operation_latency_seconds",
			Help:    "Latency of store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sarstore_bytes_total",
			Help: "Bytes moved by successful window and wideband operations",
		}, []string{"op"}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sarstore_finalized_segments_total",
			Help: "Segments published by successful finalizes",
		}),
		rawBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sarstore_compress_raw_bytes_total",
			Help: "Uncoded bytes fed to the compression pass",
		}, []string{"codec"}),
		codedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sarstore_compress_coded_bytes_total",
			Help: "Coded bytes written by the compression pass",
		}, []string{"codec"}),
		widebandCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sarstore_wideband_read_threads",
			Help:    "Worker count of wideband reads",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}, []string{"status"}),
	}
	for _, col := range []prometheus.Collector{c.opLatency, c.bytes, c.segments, c.rawBytes, c.codedBytes, c.widebandCalls} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, bytes int64, err error) {
	c.opLatency.WithLabelValues(op, status(err)).Observe(d.Seconds())
	if err == nil && bytes > 0 {
		c.bytes.WithLabelValues(op).Add(float64(bytes))
	}
}

func (c *Collector) RecordWindowRead(bytes int64, d time.Duration, err error) {
	c.observe("window_read", d, bytes, err)
}

func (c *Collector) RecordWindowWrite(bytes int64, d time.Duration, err error) {
	c.observe("window_write", d, bytes, err)
}

func (c *Collector) RecordFinalize(segments int, d time.Duration, err error) {
	c.observe("finalize", d, 0, err)
	if err == nil {
		c.segments.Add(float64(segments))
	}
}

func (c *Collector) RecordCompress(codec string, raw, coded int64, d time.Duration, err error) {
	c.observe("compress", d, 0, err)
	if err == nil {
		c.rawBytes.WithLabelValues(codec).Add(float64(raw))
		c.codedBytes.WithLabelValues(codec).Add(float64(coded))
	}
}

func (c *Collector) RecordWidebandRead(bytes int64, threads int, d time.Duration, err error) {
	c.observe("wideband_read", d, bytes, err)
	c.widebandCalls.WithLabelValues(status(err)).Observe(float64(threads))
}
