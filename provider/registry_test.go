// File: provider/registry_test.go
package provider

import (
	"context"
	"testing"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeProvider struct {
	name    string
	healthy bool
	resp    *api.ChatResponse
	err     error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) HealthCheck(ctx context.Context) error {
	if f.healthy {
		return nil
	}
	return api.ErrNotSupported
}
func (f *fakeProvider) Complete(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.resp
	resp.Provider = f.name
	return &resp, nil
}
func (f *fakeProvider) CompleteStream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamToken, error) {
	ch := make(chan api.StreamToken, 1)
	ch <- api.StreamToken{Kind: api.StreamDone}
	close(ch)
	return ch, nil
}
func (f *fakeProvider) ListModels(ctx context.Context) ([]api.ModelInfo, error) { return nil, nil }
func (f *fakeProvider) CountTokens(ctx context.Context, model, text string) (int, error) {
	return len(text), nil
}
func (f *fakeProvider) Capabilities() api.Capabilities { return api.Capabilities{} }

func fastConfig() RegistryConfig {
	cfg := DefaultRegistryConfig()
	cfg.RateLimiter.BaselineRPS = 1000
	cfg.RateLimiter.Burst = 1000
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestRegistry_NamespacedModelRoutesToNamedProvider(t *testing.T) {
	r := NewRegistry(fastConfig())
	r.Register(&fakeProvider{name: "openai", healthy: true, resp: &api.ChatResponse{Model: "gpt-4"}})
	r.Register(&fakeProvider{name: "anthropic", healthy: true, resp: &api.ChatResponse{Model: "claude"}})
	r.SetDefault("openai")

	resp, err := r.Complete(context.Background(), &api.ChatRequest{Model: "anthropic/claude-3-opus"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "anthropic" {
		t.Fatalf("provider = %q, want anthropic", resp.Provider)
	}
}

func TestRegistry_FallsBackToDefaultWhenUnnamespaced(t *testing.T) {
	r := NewRegistry(fastConfig())
	r.Register(&fakeProvider{name: "openai", healthy: true, resp: &api.ChatResponse{Model: "gpt-4"}})
	r.SetDefault("openai")

	resp, err := r.Complete(context.Background(), &api.ChatRequest{Model: "gpt-4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "openai" {
		t.Fatalf("provider = %q, want openai", resp.Provider)
	}
}

func TestRegistry_FallsBackToAnyHealthyProvider(t *testing.T) {
	r := NewRegistry(fastConfig())
	r.Register(&fakeProvider{name: "openai", healthy: false})
	r.Register(&fakeProvider{name: "anthropic", healthy: true, resp: &api.ChatResponse{Model: "claude"}})
	r.SetDefault("openai")

	resp, err := r.Complete(context.Background(), &api.ChatRequest{Model: "gpt-4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "anthropic" {
		t.Fatalf("provider = %q, want anthropic", resp.Provider)
	}
}

func TestRegistry_NoHealthyProviderFails(t *testing.T) {
	r := NewRegistry(fastConfig())
	r.Register(&fakeProvider{name: "openai", healthy: false})

	_, err := r.Complete(context.Background(), &api.ChatRequest{Model: "gpt-4"})
	if err != api.ErrNoHealthyProvider {
		t.Fatalf("err = %v, want ErrNoHealthyProvider", err)
	}
}

func TestRegistry_CompleteStreamDeliversDone(t *testing.T) {
	r := NewRegistry(fastConfig())
	r.Register(&fakeProvider{name: "openai", healthy: true})
	r.SetDefault("openai")

	ch, err := r.CompleteStream(context.Background(), &api.ChatRequest{Model: "gpt-4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, ok := <-ch
	if !ok || tok.Kind != api.StreamDone {
		t.Fatalf("tok=%+v ok=%v", tok, ok)
	}
}

func TestRegistry_CompleteRecordsMetrics(t *testing.T) {
	m := metrics.New()
	r := NewRegistry(fastConfig()).WithMetrics(m)
	r.Register(&fakeProvider{name: "openai", healthy: true, resp: &api.ChatResponse{}})
	r.SetDefault("openai")

	if _, err := r.Complete(context.Background(), &api.ChatRequest{Model: "gpt-4"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(m.ProviderCalls.WithLabelValues("openai", "ok")); got != 1 {
		t.Fatalf("ProviderCalls(openai,ok) = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.ProviderLatency); got != 1 {
		t.Fatalf("ProviderLatency series count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CircuitState.WithLabelValues("openai")); got != 0 {
		t.Fatalf("CircuitState(openai) = %v, want 0 (closed)", got)
	}
}

func TestRegistry_CompleteRecordsFailureOutcome(t *testing.T) {
	m := metrics.New()
	r := NewRegistry(fastConfig()).WithMetrics(m)
	r.Register(&fakeProvider{name: "openai", healthy: true, err: api.ErrNotSupported})
	r.SetDefault("openai")

	if _, err := r.Complete(context.Background(), &api.ChatRequest{Model: "gpt-4"}); err == nil {
		t.Fatal("expected an error")
	}

	if got := testutil.ToFloat64(m.ProviderCalls.WithLabelValues("openai", "error")); got != 1 {
		t.Fatalf("ProviderCalls(openai,error) = %v, want 1", got)
	}
}
