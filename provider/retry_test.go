// File: provider/retry_test.go
package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hioload-ai/coderuntime/api"
)

func TestRetryNonStreaming_StopsOnNonTransientError(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0
	_, err := retryNonStreaming(context.Background(), cfg, func() (*api.ChatResponse, error) {
		calls++
		return nil, errors.New("permanent failure")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on non-transient error)", calls)
	}
}

func TestRetryNonStreaming_RetriesTransientThenSucceeds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0
	resp, err := retryNonStreaming(context.Background(), cfg, func() (*api.ChatResponse, error) {
		calls++
		if calls < 3 {
			return nil, api.ErrProviderTimeout
		}
		return &api.ChatResponse{Model: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Model != "ok" {
		t.Fatalf("resp = %+v", resp)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryNonStreaming_GivesUpAfterMaxAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0
	_, err := retryNonStreaming(context.Background(), cfg, func() (*api.ChatResponse, error) {
		calls++
		return nil, api.ErrRateLimited
	})
	if err != api.ErrRateLimited {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
