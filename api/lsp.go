// File: api/lsp.go
// Package api
//
// LSP gateway contract (spec.md §4.10): the minimum method set, the
// document store shape, and request priority tiers used by the
// admission queue.

package api

import "context"

// Priority orders admission into the LSP gateway's bounded task pool.
type Priority int

const (
	PriorityInteractive Priority = iota
	PriorityBackground
	PriorityBulk
)

// Document is one open editor buffer tracked by the gateway.
type Document struct {
	URI     string
	Text    string
	Version int
	Tree    *Tree
}

// LspRequest carries a method name and raw JSON params, as received
// over the IPC transport (MsgLspRequest).
type LspRequest struct {
	ID       uint64
	Method   string
	Params   []byte // raw JSON
	Priority Priority
}

// LspResponse pairs a request id with either a JSON result or an LSP
// error code/message (spec.md §7 "LSP" taxonomy).
type LspResponse struct {
	ID        uint64
	Result    []byte // raw JSON, nil on error
	ErrorCode int
	ErrorMsg  string
}

// Gateway dispatches LSP-style requests against the parse cache and
// document store.
type Gateway interface {
	// Handle routes req to the method handler and returns its
	// response. Handlers check ctx for cancellation at suspension
	// points (spec.md §5).
	Handle(ctx context.Context, req *LspRequest) *LspResponse

	// DidOpen/DidChange/DidClose serialize per-URI so version order
	// is preserved (spec.md §4.10 "Concurrency").
	DidOpen(ctx context.Context, uri string, text string, version int, language string) error
	DidChange(ctx context.Context, uri string, text string, version int) error
	DidClose(ctx context.Context, uri string) error

	// Cancel trips the cancellation token for an in-flight request id.
	Cancel(id uint64)
}
