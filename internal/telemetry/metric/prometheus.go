package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatecam"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Capture metrics
	CapturesTotal    *prometheus.CounterVec
	CaptureDuration  prometheus.Histogram
	ChunksTotal      prometheus.Counter
	StaleMessages    prometheus.Counter
	DecodeFailures   prometheus.Counter
	LengthMismatches prometheus.Counter
	CaptureInFlight  prometheus.Gauge

	// Storage metrics
	AuditWriteFailures prometheus.Counter
	ExportRuns         *prometheus.CounterVec

	// Access metrics
	AccessDecisions *prometheus.CounterVec
}

// NewRegistry creates a registry with every gatecam collector plus the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		CapturesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "total",
			Help:      "Capture attempts by outcome.",
		}, []string{"outcome"}),
		CaptureDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "duration_seconds",
			Help:      "Time from capture command to outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}),
		ChunksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "chunks_total",
			Help:      "Chunk messages accepted into an active capture.",
		}),
		StaleMessages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "stale_messages_total",
			Help:      "Inbound messages discarded for a foreign or absent correlation id.",
		}),
		DecodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "decode_failures_total",
			Help:      "Fragments skipped because they did not decode.",
		}),
		LengthMismatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "length_mismatch_total",
			Help:      "Captures whose assembled length differed from the announced total.",
		}),
		CaptureInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "in_flight",
			Help:      "1 while a capture attempt holds the capture slot.",
		}),
		AuditWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Audit records that could not be persisted.",
		}),
		ExportRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Audit export runs by result.",
		}, []string{"result"}),
		AccessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "decisions_total",
			Help:      "Card authorization decisions.",
		}, []string{"decision"}),
	}
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
