package lsp

import (
	"sync"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/metrics"
	"github.com/sony/gobreaker"
)

// AdmissionConfig bounds concurrent in-flight requests per priority
// tier (spec.md §4.10 "Backpressure"): Interactive may use the full
// budget; Background and Bulk get progressively smaller shares so a
// burst of low-priority work can never starve interactive requests.
type AdmissionConfig struct {
	MaxInFlight      int
	MaxBackground    int
	MaxBulk          int
	FailureThreshold uint32        // min requests in a window before ReadyToTrip considers tripping
	FailureRatio     float64       // trip when failures/requests reaches or exceeds this ratio
	Window           time.Duration // sliding window the breaker's counts reset over
	OpenTimeout      time.Duration

	// RequestTimeout, if positive, auto-cancels a request's token this
	// long after admission, bounding how long one slow handler can hold
	// an admission slot; zero disables the auto-cancel.
	RequestTimeout time.Duration
}

// DefaultAdmissionConfig returns the spec's suggested defaults.
func DefaultAdmissionConfig() AdmissionConfig {
	return AdmissionConfig{
		MaxInFlight:      256,
		MaxBackground:    128,
		MaxBulk:          64,
		FailureThreshold: 10,
		FailureRatio:     0.5,
		Window:           30 * time.Second,
		OpenTimeout:      15 * time.Second,
		RequestTimeout:   30 * time.Second,
	}
}

// admissionQueue enforces per-tier concurrency caps and trips a
// shared circuit breaker when the gateway's overall failure rate
// exceeds the configured threshold (spec.md §4.10 "Backpressure").
type admissionQueue struct {
	cfg AdmissionConfig
	m   *metrics.Registry // nil if the gateway was built without metrics

	mu       sync.Mutex
	inFlight int

	breaker *gobreaker.CircuitBreaker
}

func newAdmissionQueue(cfg AdmissionConfig) *admissionQueue {
	settings := gobreaker.Settings{
		Name:     "lsp-gateway",
		Interval: cfg.Window,
		Timeout:  cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.FailureThreshold {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
	}
	return &admissionQueue{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// tryAdmit reserves one in-flight slot for p, or returns
// api.ErrQueueFull if p's tier is at capacity, or api.ErrCircuitOpen
// if the breaker has tripped on the recent failure rate.
func (q *admissionQueue) tryAdmit(p api.Priority) error {
	if q.breaker.State() == gobreaker.StateOpen {
		return api.ErrCircuitOpen
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	limit := q.cfg.MaxInFlight
	switch p {
	case api.PriorityBackground:
		limit = q.cfg.MaxBackground
	case api.PriorityBulk:
		limit = q.cfg.MaxBulk
	}
	if q.inFlight >= limit {
		if q.m != nil {
			q.m.QueueRejected.WithLabelValues(priorityLabel(p)).Inc()
		}
		return api.ErrQueueFull
	}
	q.inFlight++
	if q.m != nil {
		q.m.QueueDepth.WithLabelValues(priorityLabel(p)).Set(float64(q.inFlight))
	}
	return nil
}

func priorityLabel(p api.Priority) string {
	switch p {
	case api.PriorityBackground:
		return "background"
	case api.PriorityBulk:
		return "bulk"
	default:
		return "interactive"
	}
}

// count reports the number of currently in-flight requests across all
// tiers, for the coordinator's shutdown drain (spec.md §4.11).
func (q *admissionQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// release returns the slot reserved by a prior tryAdmit for p and
// records the request's outcome with the breaker.
func (q *admissionQueue) release(p api.Priority, err error) {
	q.mu.Lock()
	q.inFlight--
	inFlight := q.inFlight
	q.mu.Unlock()
	if q.m != nil {
		q.m.QueueDepth.WithLabelValues(priorityLabel(p)).Set(float64(inFlight))
	}

	_, _ = q.breaker.Execute(func() (interface{}, error) {
		return nil, err
	})
}
