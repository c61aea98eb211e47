// File: stream/openai.go
//
// OpenAIAdapter decodes an OpenAI-style chat-completion SSE stream
// ("data: {...}" chunks terminated by "data: [DONE]") into
// api.StreamToken.
package stream

import (
	"encoding/json"
	"io"

	"github.com/hioload-ai/coderuntime/api"
)

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIAdapter turns raw SSE events into api.StreamToken values.
type OpenAIAdapter struct {
	dec *SSEDecoder
}

// NewOpenAIAdapter wraps body, an HTTP response body streaming
// OpenAI-format SSE chunks.
func NewOpenAIAdapter(body io.Reader) *OpenAIAdapter {
	return &OpenAIAdapter{dec: NewSSEDecoder(body)}
}

// Next returns the next token: a StreamDone token for "[DONE]" or a
// chunk carrying a finish_reason, and ok=false once the body hits EOF.
func (a *OpenAIAdapter) Next() (api.StreamToken, bool, error) {
	ev, ok, err := a.dec.Next()
	if err != nil {
		return api.StreamToken{}, false, err
	}
	if !ok {
		return api.StreamToken{}, false, nil
	}
	if ev.Data == "[DONE]" {
		return api.StreamToken{Kind: api.StreamDone}, true, nil
	}

	var chunk openAIChunk
	if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
		return api.StreamToken{}, false, err
	}

	if chunk.Usage != nil {
		return api.StreamToken{
			Kind: api.StreamUsage,
			Usage: api.TokenUsage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			},
		}, true, nil
	}
	if len(chunk.Choices) == 0 {
		return api.StreamToken{Kind: api.StreamDelta}, true, nil
	}

	choice := chunk.Choices[0]
	if len(choice.Delta.ToolCalls) > 0 {
		tc := choice.Delta.ToolCalls[0]
		return api.StreamToken{
			Kind: api.StreamToolCall,
			ToolCall: api.ToolCallPart{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}, true, nil
	}
	if choice.FinishReason != nil {
		return api.StreamToken{Kind: api.StreamDone}, true, nil
	}
	return api.StreamToken{Kind: api.StreamDelta, Content: choice.Delta.Content}, true, nil
}
