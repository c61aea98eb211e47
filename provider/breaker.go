// File: provider/breaker.go
//
// breaker wraps sony/gobreaker's three-state machine
// (Closed/Open/HalfOpen) around one provider's calls, per spec.md
// §4.6: Closed counts failures; at the configured threshold it trips
// to Open for a cooldown; the first call after cooldown is let
// through in HalfOpen to probe recovery.
package provider

import (
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/sony/gobreaker"
)

// BreakerConfig controls when a provider's breaker trips.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures (Closed state) that trip to Open
	OpenTimeout      time.Duration // how long Open holds before HalfOpen
	HalfOpenMaxCalls uint32        // probe calls allowed while HalfOpen
}

// DefaultBreakerConfig returns the spec's suggested defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// breakerWrap adapts gobreaker's interface{}-typed Execute to the
// typed call sites in registry.go.
type breakerWrap struct {
	cb *gobreaker.CircuitBreaker
}

func newBreakerWrap(name string, cfg BreakerConfig) *breakerWrap {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	return &breakerWrap{cb: gobreaker.NewCircuitBreaker(settings)}
}

// execute runs fn through the breaker, failing fast with
// api.ErrCircuitOpen when the breaker is Open.
func (b *breakerWrap) execute(fn func() (*api.ChatResponse, error)) (*api.ChatResponse, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, api.ErrCircuitOpen
	}
	if err != nil {
		return nil, err
	}
	return result.(*api.ChatResponse), nil
}

// allow reports whether the breaker would currently admit a call,
// without recording an attempt.
func (b *breakerWrap) allow() bool {
	return b.cb.State() != gobreaker.StateOpen
}

// state returns the breaker's current state as metrics.Registry's
// CircuitState gauge encodes it: 0=closed 1=half_open 2=open.
func (b *breakerWrap) state() float64 {
	return float64(b.cb.State())
}

// record reports a call's outcome to the breaker outside of Execute,
// used for CompleteStream where the breaker must react to whether the
// stream could be *started*, not to however the stream later ends.
func (b *breakerWrap) record(err error) {
	_, _ = b.cb.Execute(func() (interface{}, error) {
		return nil, err
	})
}
