// File: core/listener/connection.go
package listener

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/core/ring"
)

// Connection is one established C3 peer: a pair of rings (one per
// direction) plus their waiters. recv/send use the ring pair named
// from this side's point of view — inRing/inWaiter receive,
// outRing/outWaiter send.
type Connection struct {
	ID string

	inRing    *ring.Ring
	inWaiter  ring.Waiter
	inRegion  *ring.Region
	outRing   *ring.Ring
	outWaiter ring.Waiter
	outRegion *ring.Region

	state atomic.Int32
}

func newConnection(inRing *ring.Ring, inWaiter ring.Waiter, inRegion *ring.Region,
	outRing *ring.Ring, outWaiter ring.Waiter, outRegion *ring.Region) *Connection {
	c := &Connection{
		ID:        uuid.NewString(),
		inRing:    inRing,
		inWaiter:  inWaiter,
		inRegion:  inRegion,
		outRing:   outRing,
		outWaiter: outWaiter,
		outRegion: outRegion,
	}
	c.state.Store(int32(api.StateConnected))
	return c
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() api.ConnectionState {
	return api.ConnectionState(c.state.Load())
}

// Send enqueues one framed message. It never blocks: a full ring
// reports api.ErrRingFull rather than waiting, matching TryWrite's
// wait-free contract.
func (c *Connection) Send(msg []byte) error {
	if c.State() == api.StateClosed {
		return api.ErrTimeout
	}
	if !c.outRing.TryWrite(msg) {
		return api.ErrRingFull
	}
	return c.outWaiter.WakeOne()
}

// Recv returns the next framed message, blocking via the waiter when
// the ring is momentarily empty. It returns ctx.Err() if ctx is done
// before a message arrives.
func (c *Connection) Recv(ctx context.Context) ([]byte, error) {
	for {
		if msg, ok := c.inRing.TryRead(); ok {
			return msg, nil
		}
		if c.State() == api.StateClosed {
			return nil, api.ErrTimeout
		}
		if err := c.inWaiter.WaitUntil(ctx); err != nil {
			return nil, err
		}
	}
}

// Close releases both rings' waiters and shared-memory regions. It is
// safe to call more than once.
func (c *Connection) Close() error {
	if !c.state.CompareAndSwap(int32(api.StateConnected), int32(api.StateClosed)) {
		c.state.Store(int32(api.StateClosed))
	}
	var firstErr error
	if err := c.inWaiter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.outWaiter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if c.inRegion != nil {
		if err := c.inRegion.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.outRegion != nil {
		if err := c.outRegion.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
