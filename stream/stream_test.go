// File: stream/stream_test.go
package stream

import (
	"strings"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
)

func TestSSEDecoder_MultiLineData(t *testing.T) {
	raw := "event: message\ndata: line one\ndata: line two\n\n"
	dec := NewSSEDecoder(strings.NewReader(raw))

	ev, ok, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected an event, got none")
	}
	if ev.Event != "message" {
		t.Fatalf("event = %q, want %q", ev.Event, "message")
	}
	if ev.Data != "line one\nline two" {
		t.Fatalf("data = %q, want joined lines", ev.Data)
	}

	if _, ok, err := dec.Next(); ok || err != nil {
		t.Fatalf("expected end of stream, got ok=%v err=%v", ok, err)
	}
}

func TestSSEDecoder_IgnoresComments(t *testing.T) {
	raw := ": heartbeat\ndata: hi\n\n"
	dec := NewSSEDecoder(strings.NewReader(raw))
	ev, ok, err := dec.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if ev.Data != "hi" {
		t.Fatalf("data = %q", ev.Data)
	}
}

func TestOpenAIAdapter_DeltaAndDone(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		"data: [DONE]\n\n"
	a := NewOpenAIAdapter(strings.NewReader(raw))

	var out strings.Builder
	for {
		tok, ok, err := a.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("stream ended before StreamDone")
		}
		if tok.Kind == api.StreamDone {
			break
		}
		if tok.Kind != api.StreamDelta {
			t.Fatalf("unexpected kind %v", tok.Kind)
		}
		out.WriteString(tok.Content)
	}
	if out.String() != "hello" {
		t.Fatalf("content = %q, want %q", out.String(), "hello")
	}
}

func TestOpenAIAdapter_ToolCallAndUsage(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"function\":{\"name\":\"search\",\"arguments\":\"{\\\"q\\\":1}\"}}]}}]}\n\n" +
		"data: {\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":5,\"total_tokens\":8}}\n\n"
	a := NewOpenAIAdapter(strings.NewReader(raw))

	tok, ok, err := a.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if tok.Kind != api.StreamToolCall || tok.ToolCall.Name != "search" || tok.ToolCall.ID != "call_1" {
		t.Fatalf("unexpected tool call token: %+v", tok)
	}

	tok, ok, err = a.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if tok.Kind != api.StreamUsage || tok.Usage.TotalTokens != 8 {
		t.Fatalf("unexpected usage token: %+v", tok)
	}
}

func TestAnthropicAdapter_TextDeltaAndStop(t *testing.T) {
	raw := "event: content_block_start\n" +
		"data: {\"type\":\"content_block_start\",\"content_block\":{\"type\":\"text\"}}\n\n" +
		"event: content_block_delta\n" +
		"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\n" +
		"event: message_stop\n" +
		"data: {\"type\":\"message_stop\"}\n\n"
	a := NewAnthropicAdapter(strings.NewReader(raw))

	tok, ok, err := a.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if tok.Kind != api.StreamDelta || tok.Content != "hi" {
		t.Fatalf("unexpected delta token: %+v", tok)
	}

	tok, ok, err = a.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if tok.Kind != api.StreamDone {
		t.Fatalf("expected StreamDone, got %+v", tok)
	}
}

func TestAnthropicAdapter_ToolUseDelta(t *testing.T) {
	raw := "event: content_block_start\n" +
		"data: {\"type\":\"content_block_start\",\"content_block\":{\"type\":\"tool_use\",\"id\":\"toolu_1\",\"name\":\"search\"}}\n\n" +
		"event: content_block_delta\n" +
		"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"input_json_delta\",\"partial_json\":\"{\\\"q\\\":\"}}\n\n"
	a := NewAnthropicAdapter(strings.NewReader(raw))

	tok, ok, err := a.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if tok.Kind != api.StreamToolCall || tok.ToolCall.ID != "toolu_1" || tok.ToolCall.Name != "search" {
		t.Fatalf("unexpected tool call token: %+v", tok)
	}
}

func TestNDJSONDecoder_RoundTrip(t *testing.T) {
	raw := "{\"n\":1}\n{\"n\":2}\n"
	dec := NewNDJSONDecoder(strings.NewReader(raw))

	var v struct {
		N int `json:"n"`
	}
	ok, err := dec.Next(&v)
	if err != nil || !ok || v.N != 1 {
		t.Fatalf("first decode: ok=%v err=%v v=%+v", ok, err, v)
	}
	ok, err = dec.Next(&v)
	if err != nil || !ok || v.N != 2 {
		t.Fatalf("second decode: ok=%v err=%v v=%+v", ok, err, v)
	}
	if ok, err := dec.Next(&v); ok || err != nil {
		t.Fatalf("expected end of stream, got ok=%v err=%v", ok, err)
	}
}

func TestJSONArrayDecoder_RoundTrip(t *testing.T) {
	raw := "[{\"n\":1},{\"n\":2}]"
	dec := NewJSONArrayDecoder(strings.NewReader(raw))

	var v struct {
		N int `json:"n"`
	}
	var got []int
	for {
		ok, err := dec.Next(&v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, v.N)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestJSONArrayDecoder_RejectsNonArray(t *testing.T) {
	dec := NewJSONArrayDecoder(strings.NewReader("{\"n\":1}"))
	var v struct{ N int }
	if _, err := dec.Next(&v); err == nil {
		t.Fatal("expected an error for a non-array top-level value")
	}
}
