// File: stream/anthropic.go
//
// AnthropicAdapter decodes an Anthropic Messages-API SSE stream
// (named "event: ..." / "data: {...}" pairs) into api.StreamToken.
package stream

import (
	"encoding/json"
	"io"

	"github.com/hioload-ai/coderuntime/api"
)

type anthropicEventBody struct {
	Type  string `json:"type"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Message struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// AnthropicAdapter turns raw SSE events into api.StreamToken values.
type AnthropicAdapter struct {
	dec         *SSEDecoder
	toolUseID   string
	toolUseName string
}

// NewAnthropicAdapter wraps body, an HTTP response body streaming
// Anthropic Messages-API SSE events.
func NewAnthropicAdapter(body io.Reader) *AnthropicAdapter {
	return &AnthropicAdapter{dec: NewSSEDecoder(body)}
}

// Next returns the next token, or ok=false once the stream ends.
// Events this adapter has no token for (ping, a message_start with no
// input-token count, content_block_start, content_block_stop) are
// consumed and skipped transparently by looping to the next event.
func (a *AnthropicAdapter) Next() (api.StreamToken, bool, error) {
	for {
		ev, ok, err := a.dec.Next()
		if err != nil {
			return api.StreamToken{}, false, err
		}
		if !ok {
			return api.StreamToken{}, false, nil
		}

		var body anthropicEventBody
		if len(ev.Data) > 0 {
			if err := json.Unmarshal([]byte(ev.Data), &body); err != nil {
				return api.StreamToken{}, false, err
			}
		}

		switch ev.Event {
		case "content_block_start":
			if body.ContentBlock.Type == "tool_use" {
				a.toolUseID = body.ContentBlock.ID
				a.toolUseName = body.ContentBlock.Name
			}
			continue
		case "content_block_delta":
			switch body.Delta.Type {
			case "text_delta":
				return api.StreamToken{Kind: api.StreamDelta, Content: body.Delta.Text}, true, nil
			case "input_json_delta":
				return api.StreamToken{
					Kind: api.StreamToolCall,
					ToolCall: api.ToolCallPart{
						ID:        a.toolUseID,
						Name:      a.toolUseName,
						Arguments: body.Delta.PartialJSON,
					},
				}, true, nil
			}
			continue
		case "message_delta":
			return api.StreamToken{
				Kind: api.StreamUsage,
				Usage: api.TokenUsage{
					CompletionTokens: body.Usage.OutputTokens,
				},
			}, true, nil
		case "message_start":
			if body.Message.Usage.InputTokens > 0 {
				return api.StreamToken{
					Kind: api.StreamUsage,
					Usage: api.TokenUsage{
						PromptTokens: body.Message.Usage.InputTokens,
					},
				}, true, nil
			}
			continue
		case "message_stop":
			return api.StreamToken{Kind: api.StreamDone}, true, nil
		case "error":
			return api.StreamToken{Kind: api.StreamError, Err: &anthropicStreamError{Body: ev.Data}}, true, nil
		default:
			// ping, content_block_stop: nothing to surface
			continue
		}
	}
}

type anthropicStreamError struct {
	Body string
}

func (e *anthropicStreamError) Error() string {
	return "anthropic stream error: " + e.Body
}
