// File: coordinator/router.go
//
// Router maps wire message type (spec.md §6.1) to the subsystem that
// owns it: textDocument/workspace requests and notifications go to
// the LSP gateway (C10); Complete/Stream go to the provider registry
// (C6); Cancel trips whichever of the two owns the referenced message
// id; ToolStatus is stateless pass-through (spec.md §4.12).
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/internal/logging"
	"github.com/hioload-ai/coderuntime/provider"
	"github.com/hioload-ai/coderuntime/toolmsg"
	"go.uber.org/zap"
)

type lspRequestPayload struct {
	Method   string          `json:"method"`
	Params   json.RawMessage `json:"params"`
	Priority int             `json:"priority"`
}

type lspNotificationPayload struct {
	Kind     string `json:"kind"` // "didOpen" | "didChange" | "didClose"
	URI      string `json:"uri"`
	Text     string `json:"text,omitempty"`
	Version  int    `json:"version,omitempty"`
	Language string `json:"language,omitempty"`
}

type cancelPayload struct {
	ID uint64 `json:"id"`
}

// Router dispatches decoded frames to the gateway or provider
// registry and emits the resulting response frame(s) via emit. A
// single Complete/Stream message id may be outstanding at once; a
// subsequent Cancel for that id trips its context.
type Router struct {
	gateway   api.Gateway
	providers *provider.Registry
	log       *zap.Logger

	mu      sync.Mutex
	streams map[uint64]context.CancelFunc
}

// NewRouter builds a Router. providers may be nil if no remote-model
// backends are configured; Complete/Stream then fail with
// api.ErrNoHealthyProvider.
func NewRouter(gateway api.Gateway, providers *provider.Registry) *Router {
	return &Router{
		gateway:   gateway,
		providers: providers,
		log:       logging.New("coordinator.router"),
		streams:   make(map[uint64]context.CancelFunc),
	}
}

// Dispatch routes one decoded frame to its handler. Streaming
// responses are delivered via repeated emit calls rather than a
// single return value, since one request can produce many frames.
func (r *Router) Dispatch(ctx context.Context, f *api.Frame, emit func(*api.Frame) error) error {
	switch f.Type {
	case api.MsgHeartbeat:
		return emit(&api.Frame{Version: f.Version, Type: api.MsgHeartbeat, MessageID: f.MessageID})
	case api.MsgLspRequest:
		return r.dispatchLspRequest(ctx, f, emit)
	case api.MsgLspNotification:
		return r.dispatchLspNotification(ctx, f)
	case api.MsgCancel:
		return r.dispatchCancel(f)
	case api.MsgComplete:
		return r.dispatchComplete(ctx, f, emit)
	case api.MsgStream:
		return r.dispatchStream(ctx, f, emit)
	case api.MsgToolStatus:
		return r.dispatchToolStatus(f, emit)
	default:
		return fmt.Errorf("coordinator: no handler for message type %s", f.Type)
	}
}

// dispatchToolStatus validates the envelope through toolmsg before
// forwarding it, so a malformed origin/kind/correlation id is rejected
// at the router rather than silently relayed to the other side
// (spec.md §4.12).
func (r *Router) dispatchToolStatus(f *api.Frame, emit func(*api.Frame) error) error {
	msg, err := toolmsg.Unmarshal(f.Payload)
	if err != nil {
		return fmt.Errorf("coordinator: decode ToolStatus: %w", err)
	}
	payload, err := toolmsg.Marshal(msg)
	if err != nil {
		return fmt.Errorf("coordinator: re-encode ToolStatus: %w", err)
	}
	return emit(&api.Frame{Version: f.Version, Type: api.MsgToolStatus, MessageID: f.MessageID, Payload: payload})
}

func (r *Router) dispatchLspRequest(ctx context.Context, f *api.Frame, emit func(*api.Frame) error) error {
	var p lspRequestPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return fmt.Errorf("coordinator: decode LspRequest: %w", err)
	}
	resp := r.gateway.Handle(ctx, &api.LspRequest{
		ID:       f.MessageID,
		Method:   p.Method,
		Params:   p.Params,
		Priority: api.Priority(p.Priority),
	})
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("coordinator: encode LspResponse: %w", err)
	}
	return emit(&api.Frame{Version: f.Version, Type: api.MsgLspResponse, MessageID: f.MessageID, Payload: payload})
}

func (r *Router) dispatchLspNotification(ctx context.Context, f *api.Frame) error {
	var p lspNotificationPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return fmt.Errorf("coordinator: decode LspNotification: %w", err)
	}
	switch p.Kind {
	case "didOpen":
		return r.gateway.DidOpen(ctx, p.URI, p.Text, p.Version, p.Language)
	case "didChange":
		return r.gateway.DidChange(ctx, p.URI, p.Text, p.Version)
	case "didClose":
		return r.gateway.DidClose(ctx, p.URI)
	default:
		return fmt.Errorf("coordinator: unknown LspNotification kind %q", p.Kind)
	}
}

func (r *Router) dispatchCancel(f *api.Frame) error {
	var p cancelPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return fmt.Errorf("coordinator: decode Cancel: %w", err)
	}
	r.gateway.Cancel(p.ID)

	r.mu.Lock()
	cancel, ok := r.streams[p.ID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (r *Router) dispatchComplete(ctx context.Context, f *api.Frame, emit func(*api.Frame) error) error {
	if r.providers == nil {
		return api.ErrNoHealthyProvider
	}
	var req api.ChatRequest
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		return fmt.Errorf("coordinator: decode ChatRequest: %w", err)
	}
	completeCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.streams[f.MessageID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.streams, f.MessageID)
		r.mu.Unlock()
		cancel()
	}()

	resp, err := r.providers.Complete(completeCtx, &req)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return emit(&api.Frame{Version: f.Version, Type: api.MsgCompleteResponse, MessageID: f.MessageID, Payload: payload})
}

func (r *Router) dispatchStream(ctx context.Context, f *api.Frame, emit func(*api.Frame) error) error {
	if r.providers == nil {
		return api.ErrNoHealthyProvider
	}
	var req api.ChatRequest
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		return fmt.Errorf("coordinator: decode ChatRequest: %w", err)
	}
	streamCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.streams[f.MessageID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.streams, f.MessageID)
		r.mu.Unlock()
		cancel()
	}()

	tokens, err := r.providers.CompleteStream(streamCtx, &req)
	if err != nil {
		return err
	}
	for tok := range tokens {
		payload, err := json.Marshal(tok)
		if err != nil {
			r.log.Warn("failed to encode stream token", zap.Error(err))
			continue
		}
		msgType := api.MsgStreamToken
		if tok.Kind == api.StreamDone || tok.Kind == api.StreamError {
			msgType = api.MsgStreamEnd
		}
		if err := emit(&api.Frame{Version: f.Version, Type: msgType, MessageID: f.MessageID, Payload: payload}); err != nil {
			return err
		}
	}
	return nil
}
