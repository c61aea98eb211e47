// File: internal/session/cancel.go
// Package session
//
// CancellationToken backs cooperative cancellation for individual LSP
// requests (spec.md §4.10): unlike a Session, a token's lifetime is
// scoped to one request, not a whole connection.

package session

import (
	"sync"

	"github.com/hioload-ai/coderuntime/api"
)

// CancellationToken implements api.Cancelable for a single unit of
// work (an LSP request, a provider call).
type CancellationToken struct {
	once sync.Once
	done chan struct{}
	err  error
	mu   sync.Mutex
}

// Ensure compile-time API compliance.
var _ api.Cancelable = (*CancellationToken)(nil)

// NewCancellationToken returns a token in the not-yet-canceled state.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

// Cancel marks the token canceled; idempotent, always returns nil.
func (t *CancellationToken) Cancel() error {
	t.once.Do(func() {
		t.mu.Lock()
		t.err = api.ErrCancelled
		t.mu.Unlock()
		close(t.done)
	})
	return nil
}

// Complete marks the token done without an error, for callers that
// need Done() to fire on normal completion too.
func (t *CancellationToken) Complete() {
	t.once.Do(func() {
		close(t.done)
	})
}

// Done returns a channel closed on Cancel or Complete.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.done
}

// Err returns api.ErrCancelled once Cancel has run, else nil.
func (t *CancellationToken) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
