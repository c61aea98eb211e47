// File: provider/registry.go
//
// Registry is the provider manager of spec.md §4.6: a name-keyed
// registry applying namespace/default/any-healthy routing, with each
// provider wrapped in its own rate limiter and circuit breaker.
package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/internal/logging"
	"github.com/hioload-ai/coderuntime/metrics"
	"go.uber.org/zap"
)

// entry bundles one registered provider with its own throttling and
// fault-isolation state.
type entry struct {
	provider api.Provider
	limiter  *AIMDLimiter
	breaker  *breakerWrap
}

// RegistryConfig tunes per-provider rate limiting, circuit breaking,
// and retry behavior applied uniformly across the registry.
type RegistryConfig struct {
	RateLimiter RateLimiterConfig
	Breaker     BreakerConfig
	Retry       RetryConfig
}

// DefaultRegistryConfig returns the spec's suggested defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		RateLimiter: DefaultRateLimiterConfig(),
		Breaker:     DefaultBreakerConfig(),
		Retry:       DefaultRetryConfig(),
	}
}

// Registry routes chat requests to registered providers per spec.md
// §4.6's namespace/default/any-healthy rules.
type Registry struct {
	cfg     RegistryConfig
	log     *zap.Logger
	m       *metrics.Registry // nil if the registry was built without metrics
	mu      sync.RWMutex
	entries map[string]*entry
	def     string
}

// NewRegistry builds an empty registry. Call Register to add providers
// and SetDefault to name the fallback provider.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		cfg:     cfg,
		log:     logging.New("provider.registry"),
		entries: make(map[string]*entry),
	}
}

// WithMetrics attaches m so call counts, call latency, and circuit
// state are reported to it; it returns r for chaining at construction
// time. A Registry built without calling this records no metrics.
func (r *Registry) WithMetrics(m *metrics.Registry) *Registry {
	r.m = m
	return r
}

// Register adds p to the registry, wrapping it in a fresh rate
// limiter and circuit breaker.
func (r *Registry) Register(p api.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.Name()] = &entry{
		provider: p,
		limiter:  NewAIMDLimiter(r.cfg.RateLimiter),
		breaker:  newBreakerWrap(p.Name(), r.cfg.Breaker),
	}
}

// SetDefault names the provider routing falls back to when a model id
// carries no namespace prefix.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = name
}

// HealthCheckAll runs HealthCheck against every registered provider,
// keyed by provider name. Used by the coordinator's health-check
// scheduler (spec.md §4.11 step 3) to detect a provider recovering or
// failing outside of the request path.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	providers := make([]api.Provider, 0, len(r.entries))
	for name, e := range r.entries {
		names = append(names, name)
		providers = append(providers, e.provider)
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(names))
	for i, name := range names {
		results[name] = providers[i].HealthCheck(ctx)
	}
	return results
}

// splitModel splits a "provider/model" identifier. ok is false when
// model carries no namespace.
func splitModel(model string) (providerName, bareModel string, ok bool) {
	i := strings.IndexByte(model, '/')
	if i < 0 {
		return "", model, false
	}
	return model[:i], model[i+1:], true
}

// route picks the entry to use for req per spec.md §4.6's four-step
// rule, returning the possibly-rewritten model id (namespace stripped).
func (r *Registry) route(ctx context.Context, req *api.ChatRequest) (*entry, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, bare, ok := splitModel(req.Model); ok {
		if e, found := r.entries[name]; found && e.provider.HealthCheck(ctx) == nil {
			return e, bare, nil
		}
	}
	if r.def != "" {
		if e, found := r.entries[r.def]; found && e.provider.HealthCheck(ctx) == nil {
			return e, req.Model, nil
		}
	}
	for _, e := range r.entries {
		if e.provider.HealthCheck(ctx) == nil {
			return e, req.Model, nil
		}
	}
	return nil, "", api.ErrNoHealthyProvider
}

// Complete routes req to a healthy provider and performs a
// non-streaming call, subject to rate limiting, circuit breaking, and
// retry with backoff.
func (r *Registry) Complete(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	e, model, err := r.route(ctx, req)
	if err != nil {
		return nil, err
	}
	routed := *req
	routed.Model = model

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := retryNonStreaming(ctx, r.cfg.Retry, func() (*api.ChatResponse, error) {
		return e.breaker.execute(func() (*api.ChatResponse, error) {
			resp, err := e.provider.Complete(ctx, &routed)
			if err != nil {
				if isRateLimitedErr(err) {
					e.limiter.OnRateLimited()
				}
				return nil, err
			}
			return resp, nil
		})
	})
	r.recordCall(e, start, err)
	if err != nil {
		r.log.Warn("provider call failed", zap.String("provider", e.provider.Name()), zap.Error(err))
	}
	return resp, err
}

// recordCall reports one completed call's latency, outcome, and the
// provider's resulting circuit state, a no-op if r has no metrics
// registry attached (spec.md §4.6, §5 "metrics/memory accounting").
func (r *Registry) recordCall(e *entry, start time.Time, err error) {
	if r.m == nil {
		return
	}
	name := e.provider.Name()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.m.ProviderCalls.WithLabelValues(name, outcome).Inc()
	r.m.ProviderLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	r.m.CircuitState.WithLabelValues(name).Set(e.breaker.state())
}

// CompleteStream routes req to a healthy provider and starts a
// streaming call. Per spec.md §4.6, streaming calls never retry
// mid-stream: a failure here is terminal for this call.
func (r *Registry) CompleteStream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamToken, error) {
	e, model, err := r.route(ctx, req)
	if err != nil {
		return nil, err
	}
	routed := *req
	routed.Model = model

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if !e.breaker.allow() {
		return nil, api.ErrCircuitOpen
	}
	start := time.Now()
	ch, err := e.provider.CompleteStream(ctx, &routed)
	e.breaker.record(err)
	r.recordCall(e, start, err)
	if err != nil {
		if isRateLimitedErr(err) {
			e.limiter.OnRateLimited()
		}
		return nil, err
	}
	return ch, nil
}

func isRateLimitedErr(err error) bool {
	return err != nil && (err == api.ErrRateLimited || strings.Contains(err.Error(), "429"))
}
