// File: metrics/registry.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the process-wide Prometheus registry with the
// specific metrics each subsystem increments, so every component
// shares one registration point instead of each owning a global.
type Registry struct {
	reg *prometheus.Registry

	RingFull        *prometheus.CounterVec
	FrameDecodeErr  *prometheus.CounterVec
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	CircuitState    *prometheus.GaugeVec
	CacheTierHits   *prometheus.CounterVec
	IndexQueryTime  prometheus.Histogram
	QueueDepth      *prometheus.GaugeVec
	QueueRejected   *prometheus.CounterVec
}

// New builds a fresh registry with every metric registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		RingFull: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coderuntime",
			Subsystem: "ring",
			Name:      "full_total",
			Help:      "TryWrite calls that found the ring full.",
		}, []string{"connection"}),
		FrameDecodeErr: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coderuntime",
			Subsystem: "protocol",
			Name:      "decode_errors_total",
			Help:      "Frame decode failures by rejection reason.",
		}, []string{"reason"}),
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coderuntime",
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Provider calls by provider name and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coderuntime",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		CircuitState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "coderuntime",
			Subsystem: "provider",
			Name:      "circuit_state",
			Help:      "0=closed 1=half_open 2=open, per provider.",
		}, []string{"provider"}),
		CacheTierHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coderuntime",
			Subsystem: "embedding",
			Name:      "cache_hits_total",
			Help:      "Embedding cache hits by tier (l1/l2/l3/miss).",
		}, []string{"tier"}),
		IndexQueryTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coderuntime",
			Subsystem: "vectorindex",
			Name:      "query_duration_seconds",
			Help:      "Vector index query latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "coderuntime",
			Subsystem: "lsp",
			Name:      "admission_queue_depth",
			Help:      "Admission queue depth by priority.",
		}, []string{"priority"}),
		QueueRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coderuntime",
			Subsystem: "lsp",
			Name:      "admission_rejected_total",
			Help:      "Admission queue rejections by priority.",
		}, []string{"priority"}),
	}
}

// Gatherer exposes the underlying registry for an HTTP /metrics
// handler (promhttp.HandlerFor(reg.Gatherer(), ...)).
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
