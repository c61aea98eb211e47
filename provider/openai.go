// File: provider/openai.go
//
// OpenAIProvider implements api.Provider against the OpenAI chat
// completions API, decoding streaming responses with
// stream.OpenAIAdapter.
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

// OpenAIProvider is an api.Provider backed by an OpenAI-compatible
// chat completions endpoint (also used by Azure/xAI/local gateways
// that mirror the OpenAI wire format).
type OpenAIProvider struct {
	name    string
	baseURL string
	apiKey  string
	pool    *pool.Pool
	caps    api.Capabilities
}

// NewOpenAIProvider builds a provider named name, hitting baseURL
// (e.g. "https://api.openai.com/v1") through p.
func NewOpenAIProvider(name, baseURL, apiKey string, p *pool.Pool, caps api.Capabilities) *OpenAIProvider {
	return &OpenAIProvider{name: name, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, pool: p, caps: caps}
}

func (o *OpenAIProvider) Name() string { return o.name }

func (o *OpenAIProvider) Capabilities() api.Capabilities { return o.caps }

func (o *OpenAIProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	o.authorize(req)
	resp, err := o.pool.Do(req)
	if err != nil {
		return api.ErrProviderTimeout
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return api.ErrProviderInvalidResp
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return api.ErrProviderAuth
	}
	return nil
}

type openAIRequestBody struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
	TopP        float32         `json:"top_p,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	Tools       []openAITool    `json:"tools,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

func toOpenAIBody(req *api.ChatRequest, streaming bool) openAIRequestBody {
	body := openAIRequestBody{
		Model:       req.Model,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		MaxTokens:   req.Sampling.MaxTokens,
		Stop:        req.Sampling.StopSequences,
		Stream:      streaming,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openAIMessage{Role: string(m.Role), Content: m.Content.Text})
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, openAITool{
			Type: "function",
			Function: openAIToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.ParamsJSON),
			},
		})
	}
	return body
}

func (o *OpenAIProvider) authorize(req *http.Request) {
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

func (o *OpenAIProvider) Complete(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	payload, err := json.Marshal(toOpenAIBody(req, false))
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	o.authorize(httpReq)

	resp, err := o.pool.Do(httpReq)
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
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, api.ErrProviderAuth
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", api.ErrProviderInvalidResp, resp.StatusCode)
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrProviderInvalidResp, err)
	}
	out := &api.ChatResponse{
		Provider: o.name,
		Model:    req.Model,
		Usage: api.TokenUsage{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
		},
	}
	if len(decoded.Choices) > 0 {
		out.Content.Text = decoded.Choices[0].Message.Content
	}
	return out, nil
}

func (o *OpenAIProvider) CompleteStream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamToken, error) {
	payload, err := json.Marshal(toOpenAIBody(req, true))
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	o.authorize(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := o.pool.Do(httpReq)
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
		adapter := stream.NewOpenAIAdapter(resp.Body)
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

func (o *OpenAIProvider) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	o.authorize(req)
	resp, err := o.pool.Do(req)
	if err != nil {
		return nil, api.ErrProviderTimeout
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", api.ErrProviderInvalidResp, resp.StatusCode)
	}
	var decoded struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	models := make([]api.ModelInfo, 0, len(decoded.Data))
	for _, m := range decoded.Data {
		models = append(models, api.ModelInfo{ID: m.ID})
	}
	return models, nil
}

// CountTokens estimates token count at roughly 4 bytes per token, the
// GPT-family rule of thumb. A real tokenizer is out of scope here;
// this is used only to budget prompts, not to bill them.
func (o *OpenAIProvider) CountTokens(ctx context.Context, model string, text string) (int, error) {
	return (len(text) + 3) / 4, nil
}
