// File: provider/retry.go
//
// retryNonStreaming retries a non-streaming provider call on transient
// failures (timeouts, 5xx, 429) with exponential backoff, a capped
// delay, and ±25% jitter, per spec.md §4.6. Streaming calls never use
// this: a mid-stream failure must restart the whole stream, never
// retry in place.
package provider

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/hioload-ai/coderuntime/api"
)

// RetryConfig bounds the backoff schedule.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the spec's suggested defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// isTransient reports whether err is worth retrying. Providers return
// the bare api.ErrProviderInvalidResp for a 5xx status; wrapped forms
// of it (4xx statuses, undecodable bodies) are not retried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, api.ErrProviderTimeout) ||
		errors.Is(err, api.ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded) ||
		err == api.ErrProviderInvalidResp
}

// retryNonStreaming calls fn up to cfg.MaxAttempts times, backing off
// exponentially with jitter between attempts, stopping early on a
// non-transient error or ctx cancellation.
func retryNonStreaming(ctx context.Context, cfg RetryConfig, fn func() (*api.ChatResponse, error)) (*api.ChatResponse, error) {
	var lastErr error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		jittered := jitter(delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jittered):
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return nil, lastErr
}

// jitter randomizes d by ±25%.
func jitter(d time.Duration) time.Duration {
	spread := float64(d) * 0.25
	offset := (rand.Float64()*2 - 1) * spread
	return time.Duration(float64(d) + offset)
}
