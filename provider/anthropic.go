// File: provider/anthropic.go
//
// AnthropicProvider implements api.Provider against the Anthropic
// Messages API, decoding streaming responses with
// stream.AnthropicAdapter.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/stream"
	"github.com/hioload-ai/coderuntime/transport/pool"
)

const anthropicAPIVersion = "2023-06-01"

// AnthropicProvider is an api.Provider backed by the Anthropic
// Messages API.
type AnthropicProvider struct {
	name    string
	baseURL string
	apiKey  string
	pool    *pool.Pool
	caps    api.Capabilities
}

// NewAnthropicProvider builds a provider named name, hitting baseURL
// (e.g. "https://api.anthropic.com/v1") through p.
func NewAnthropicProvider(name, baseURL, apiKey string, p *pool.Pool, caps api.Capabilities) *AnthropicProvider {
	return &AnthropicProvider{name: name, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, pool: p, caps: caps}
}

func (a *AnthropicProvider) Name() string { return a.name }

func (a *AnthropicProvider) Capabilities() api.Capabilities { return a.caps }

func (a *AnthropicProvider) authorize(req *http.Request) {
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")
}

func (a *AnthropicProvider) HealthCheck(ctx context.Context) error {
	// Anthropic has no unauthenticated health endpoint; a minimal
	// zero-token message request is the cheapest authenticated probe.
	req := &api.ChatRequest{
		Model:    "claude-3-haiku-20240307",
		Messages: []api.ChatMessage{{Role: api.RoleUser, Content: api.MessageContent{Text: "ping"}}},
		Sampling: api.SamplingParams{MaxTokens: 1},
	}
	_, err := a.Complete(ctx, req)
	if err != nil && (err == api.ErrProviderAuth || err == api.ErrProviderTimeout) {
		return err
	}
	return nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequestBody struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
	TopP        float32            `json:"top_p,omitempty"`
	StopSeqs    []string           `json:"stop_sequences,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

func toAnthropicBody(req *api.ChatRequest, streaming bool) anthropicRequestBody {
	body := anthropicRequestBody{
		Model:       req.Model,
		MaxTokens:   req.Sampling.MaxTokens,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		StopSeqs:    req.Sampling.StopSequences,
		Stream:      streaming,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 1024
	}
	for _, m := range req.Messages {
		if m.Role == api.RoleSystem {
			body.System = m.Content.Text
			continue
		}
		body.Messages = append(body.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content.Text})
	}
	return body
}

func (a *AnthropicProvider) Complete(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	payload, err := json.Marshal(toAnthropicBody(req, false))
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	a.authorize(httpReq)

	resp, err := a.pool.Do(httpReq)
	if err != nil {
		return nil, api.ErrProviderTimeout
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, api.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, api.ErrProviderInvalidResp
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, api.ErrProviderAuth
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", api.ErrProviderInvalidResp, resp.StatusCode)
	}

	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrProviderInvalidResp, err)
	}
	out := &api.ChatResponse{
		Provider: a.name,
		Model:    req.Model,
		Usage: api.TokenUsage{
			PromptTokens:     decoded.Usage.InputTokens,
			CompletionTokens: decoded.Usage.OutputTokens,
			TotalTokens:      decoded.Usage.InputTokens + decoded.Usage.OutputTokens,
		},
	}
	for _, block := range decoded.Content {
		if block.Type == "text" {
			out.Content.Text += block.Text
		}
	}
	return out, nil
}

func (a *AnthropicProvider) CompleteStream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamToken, error) {
	payload, err := json.Marshal(toAnthropicBody(req, true))
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	a.authorize(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := a.pool.Do(httpReq)
	if err != nil {
		return nil, api.ErrProviderTimeout
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, api.ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", api.ErrProviderInvalidResp, resp.StatusCode)
	}

	out := make(chan api.StreamToken, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		adapter := stream.NewAnthropicAdapter(resp.Body)
		for {
			tok, ok, err := adapter.Next()
			if err != nil {
				if err != io.EOF {
					select {
					case out <- api.StreamToken{Kind: api.StreamError, Err: err}:
					case <-ctx.Done():
					}
				}
				return
			}
			if !ok {
				return
			}
			select {
			case out <- tok:
			case <-ctx.Done():
				return
			}
			if tok.Kind == api.StreamDone {
				return
			}
		}
	}()
	return out, nil
}

func (a *AnthropicProvider) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	// Anthropic has no public list-models endpoint; the known set is
	// returned statically so callers still get ModelInfo entries to
	// populate a picker, per spec.md's uniform capability set.
	return []api.ModelInfo{
		{ID: "claude-3-5-sonnet-20241022", ContextSize: 200000, SupportsTool: true},
		{ID: "claude-3-haiku-20240307", ContextSize: 200000, SupportsTool: true},
		{ID: "claude-3-opus-20240229", ContextSize: 200000, SupportsTool: true},
	}, nil
}

// CountTokens estimates token count at roughly 4 bytes per token;
// Anthropic's tokenizer is proprietary and out of scope here.
func (a *AnthropicProvider) CountTokens(ctx context.Context, model string, text string) (int, error) {
	return (len(text) + 3) / 4, nil
}
