// File: provider/stub.go
//
// stubProvider satisfies api.Provider for provider kinds that have no
// concrete HTTP adapter wired yet (spec.md §1 scopes concrete
// third-party endpoints out; SPEC_FULL.md §4.6 still names them as
// capability-set wiring points). It always reports unhealthy so the
// registry's routing never selects it over a real adapter, and every
// call fails with api.ErrNotSupported.
package provider

import (
	"context"

	"github.com/hioload-ai/coderuntime/api"
)

type stubProvider struct {
	kind Kind
	caps api.Capabilities
}

// NewStubProvider returns a capability-set-only placeholder for kind,
// useful for wiring a provider name into configuration ahead of a real
// adapter being written.
func NewStubProvider(kind Kind, caps api.Capabilities) api.Provider {
	return &stubProvider{kind: kind, caps: caps}
}

func (s *stubProvider) Name() string { return string(s.kind) }

func (s *stubProvider) HealthCheck(ctx context.Context) error {
	return api.ErrNotSupported
}

func (s *stubProvider) Complete(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return nil, api.ErrNotSupported
}

func (s *stubProvider) CompleteStream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamToken, error) {
	return nil, api.ErrNotSupported
}

func (s *stubProvider) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	return nil, api.ErrNotSupported
}

func (s *stubProvider) CountTokens(ctx context.Context, model string, text string) (int, error) {
	return 0, api.ErrNotSupported
}

func (s *stubProvider) Capabilities() api.Capabilities { return s.caps }
