// File: provider/ratelimiter.go
//
// AIMDLimiter wraps golang.org/x/time/rate with the additive-increase/
// multiplicative-decrease recovery policy spec.md §4.6 calls for:
// a 429 halves the effective rate for a cooling period, then the rate
// slowly climbs back toward its configured baseline.
package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig sizes one provider's token bucket.
type RateLimiterConfig struct {
	BaselineRPS float64       // steady-state refill rate
	Burst       int           // bucket capacity, sized from the provider's tier
	CoolDown    time.Duration // how long a halved rate holds before recovery starts
	RecoverStep time.Duration // interval between additive recovery ticks
}

// DefaultRateLimiterConfig returns reasonable defaults for a
// mid-tier provider.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		BaselineRPS: 10,
		Burst:       20,
		CoolDown:    30 * time.Second,
		RecoverStep: 5 * time.Second,
	}
}

// AIMDLimiter is a token bucket whose refill rate is additively
// restored after a multiplicative cut triggered by a 429 response.
type AIMDLimiter struct {
	cfg RateLimiterConfig

	mu          sync.Mutex
	limiter     *rate.Limiter
	baseline    rate.Limit
	current     rate.Limit
	cooldownEnd time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewAIMDLimiter builds a limiter at its baseline rate and starts the
// background recovery loop.
func NewAIMDLimiter(cfg RateLimiterConfig) *AIMDLimiter {
	baseline := rate.Limit(cfg.BaselineRPS)
	l := &AIMDLimiter{
		cfg:      cfg,
		limiter:  rate.NewLimiter(baseline, cfg.Burst),
		baseline: baseline,
		current:  baseline,
		stop:     make(chan struct{}),
	}
	go l.recoveryLoop()
	return l
}

// Allow acquires one token without blocking, reporting whether the
// call may proceed immediately.
func (l *AIMDLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until a token is available or ctx ends.
func (l *AIMDLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// OnRateLimited is called when a provider responds 429: it halves the
// current rate (never below a small floor) and starts a cooldown
// window during which no further recovery ticks apply.
func (l *AIMDLimiter) OnRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()
	floor := l.baseline / 16
	if floor <= 0 {
		floor = 1
	}
	next := l.current / 2
	if next < floor {
		next = floor
	}
	l.current = next
	l.limiter.SetLimit(next)
	l.cooldownEnd = time.Now().Add(l.cfg.CoolDown)
}

// recoveryLoop additively nudges the current rate back toward
// baseline once the cooldown window has elapsed.
func (l *AIMDLimiter) recoveryLoop() {
	ticker := time.NewTicker(l.cfg.RecoverStep)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			if time.Now().Before(l.cooldownEnd) {
				l.mu.Unlock()
				continue
			}
			if l.current < l.baseline {
				step := l.baseline / 10
				if step <= 0 {
					step = l.baseline
				}
				next := l.current + step
				if next > l.baseline {
					next = l.baseline
				}
				l.current = next
				l.limiter.SetLimit(next)
			}
			l.mu.Unlock()
		}
	}
}

// Close stops the recovery loop.
func (l *AIMDLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}
