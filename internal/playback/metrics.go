// ABOUTME: Prometheus metrics for the playback pipeline
// ABOUTME: Counts packets by kind, skipped packets, seeks and decode errors
package playback

import (
	"errors"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/decode"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for pipeline runs. A nil *Metrics
// records nothing.
type Metrics struct {
	packetsTotal      *prometheus.CounterVec
	skippedTotal      *prometheus.CounterVec
	samplesTotal      prometheus.Counter
	rawBytesTotal     prometheus.Counter
	seeksTotal        *prometheus.CounterVec
	decodeErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers pipeline metrics
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.packetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_packets_total",
			Help: "Total number of packets pulled from the decoder",
		},
		[]string{"kind"}, // kind: samples, raw
	)

	m.skippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_packets_skipped_total",
			Help: "Total number of packets no configured sink could take",
		},
		[]string{"kind"},
	)

	m.samplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_samples_total",
			Help: "Total number of interleaved samples written to the output",
		},
	)

	m.rawBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_raw_bytes_total",
			Help: "Total number of raw page bytes forwarded",
		},
	)

	m.seeksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_seeks_total",
			Help: "Total number of decoder seeks",
		},
		[]string{"status"}, // status: success, error
	)

	m.decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_decode_errors_total",
			Help: "Total number of decoder failures by backend kind",
		},
		[]string{"backend"}, // backend: passthrough, full, other
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.packetsTotal.Describe(ch)
	m.skippedTotal.Describe(ch)
	m.samplesTotal.Describe(ch)
	m.rawBytesTotal.Describe(ch)
	m.seeksTotal.Describe(ch)
	m.decodeErrorsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.packetsTotal.Collect(ch)
	m.skippedTotal.Collect(ch)
	m.samplesTotal.Collect(ch)
	m.rawBytesTotal.Collect(ch)
	m.seeksTotal.Collect(ch)
	m.decodeErrorsTotal.Collect(ch)
}

// RecordPacket counts a packet pulled from the decoder
func (m *Metrics) RecordPacket(kind decode.PacketKind) {
	if m == nil {
		return
	}
	m.packetsTotal.WithLabelValues(kind.String()).Inc()
}

// RecordSkipped counts a packet that was dropped
func (m *Metrics) RecordSkipped(kind decode.PacketKind) {
	if m == nil {
		return
	}
	m.skippedTotal.WithLabelValues(kind.String()).Inc()
}

// RecordSamples adds to the written sample count
func (m *Metrics) RecordSamples(n int) {
	if m == nil {
		return
	}
	m.samplesTotal.Add(float64(n))
}

// RecordRawBytes adds to the forwarded byte count
func (m *Metrics) RecordRawBytes(n int) {
	if m == nil {
		return
	}
	m.rawBytesTotal.Add(float64(n))
}

// RecordSeek counts a seek attempt
func (m *Metrics) RecordSeek(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.seeksTotal.WithLabelValues(status).Inc()
}

// RecordDecodeError counts a decoder failure under its backend kind
func (m *Metrics) RecordDecodeError(err error) {
	if m == nil || err == nil {
		return
	}
	m.decodeErrorsTotal.WithLabelValues(backendLabel(err)).Inc()
}

func backendLabel(err error) string {
	var decErr *decode.DecoderError
	if errors.As(err, &decErr) {
		return decErr.Kind.String()
	}
	return "other"
}
