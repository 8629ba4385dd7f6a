package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the counters/gauges the server updates as it processes
// segments. It is never registered against the global default registry so
// that running the server never requires an HTTP listener; callers that
// want a /metrics endpoint register Registry themselves.
type Metrics struct {
	Registry *prometheus.Registry

	SegmentsReceived  prometheus.Counter
	SegmentsSent      prometheus.Counter
	SegmentsDropped   *prometheus.CounterVec // labeled by faultinjector.Outcome.String(), or "checksum" for a corrupt segment under NONE
	SegmentsCorrupted prometheus.Counter
	ConnectionsActive prometheus.Gauge
}

// NewMetrics builds a fresh, independently-registered metrics bundle.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		SegmentsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sdtp_segments_received_total",
			Help: "Segments received by the server socket, before fault injection.",
		}),
		SegmentsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sdtp_segments_sent_total",
			Help: "Segments actually written to the socket.",
		}),
		SegmentsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sdtp_segments_dropped_total",
			Help: "Segments dropped, by reason.",
		}, []string{"reason"}),
		SegmentsCorrupted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sdtp_segments_corrupted_total",
			Help: "Outbound replies corrupted by the fault injector.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdtp_connections_active",
			Help: "Connection records currently in the server's table.",
		}),
	}
	reg.MustRegister(m.SegmentsReceived, m.SegmentsSent, m.SegmentsDropped, m.SegmentsCorrupted, m.ConnectionsActive)
	return m
}
