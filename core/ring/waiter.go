// File: core/ring/waiter.go
//
// Waiter is the blocking complement to Ring's wait-free TryWrite/
// TryRead (spec.md §4.1): a producer calls WakeOne after a TryWrite
// that may have a consumer parked; a consumer calls WaitUntil only
// after TryRead has reported empty. Neither call participates in the
// hot path — a busy ring never touches a Waiter at all.
package ring

import (
	"context"
	"sync"
)

// Waiter is a cross-process-capable wakeup channel. The Linux
// implementation (waiter_linux.go) is backed by an eventfd whose
// descriptor core/listener hands to the peer process over the
// rendezvous control channel; other platforms fall back to an
// in-process condition variable (waiter_other.go), which only wakes
// goroutines within the same process.
type Waiter interface {
	// WakeOne signals at least one blocked WaitUntil call to return.
	WakeOne() error
	// WaitUntil blocks until WakeOne has been observed since the call
	// started, or ctx is done. A spurious return is always safe: the
	// caller must re-attempt TryRead/TryWrite and call WaitUntil again
	// if it still finds nothing to do.
	WaitUntil(ctx context.Context) error
	// Fd returns the underlying OS descriptor for handoff to a peer
	// process, or 0 on platforms with no such descriptor.
	Fd() uintptr
	Close() error
}

// genCond is the shared generation-counter/condvar bookkeeping used by
// both the eventfd-backed and in-process Waiter implementations: the
// platform-specific half only has to turn its native wakeup signal
// into a bump() call.
type genCond struct {
	mu   sync.Mutex
	cond *sync.Cond
	gen  uint64
}

func newGenCond() *genCond {
	g := &genCond{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *genCond) bump() {
	g.mu.Lock()
	g.gen++
	g.mu.Unlock()
	g.cond.Broadcast()
}

// wait blocks until gen advances past the value observed when wait
// was entered, or ctx is done.
func (g *genCond) wait(ctx context.Context) error {
	g.mu.Lock()
	start := g.gen
	g.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			g.cond.Broadcast()
		case <-done:
		}
	}()

	g.mu.Lock()
	defer g.mu.Unlock()
	for g.gen == start {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.cond.Wait()
	}
	return nil
}
