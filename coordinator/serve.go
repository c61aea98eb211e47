// File: coordinator/serve.go
//
// Serve assembles the primary data flow spec.md §2 describes: editor
// → core/listener (C3) rendezvous connection → core/protocol (C2)
// frame decode → Router (C11) dispatch → core/protocol encode →
// connection send. One goroutine accepts rendezvous connections on
// cfg.ControlRing; each accepted Connection gets its own read loop,
// grounded on the accept-loop shape this package already mined from
// the teacher's server package before that package was deleted as
// dead weight (see DESIGN.md's final adaptation pass).
package coordinator

import (
	"context"
	"errors"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/core/listener"
	"github.com/hioload-ai/coderuntime/core/protocol"
	"go.uber.org/zap"
)

// Serve binds cfg.ControlRing and accepts rendezvous connections until
// ctx is cancelled or Shutdown closes c.stop. It blocks; callers that
// want Start's non-blocking contract should run it in its own
// goroutine.
func (c *Coordinator) Serve(ctx context.Context) error {
	ln, err := listener.Bind(c.cfg.ControlRing)
	if err != nil {
		return err
	}
	defer ln.Close()

	// serveCtx folds c.stop into ctx so a blocked Accept/Recv unblocks
	// promptly on Shutdown rather than waiting for the next message or
	// the caller's own ctx to end.
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-c.stop:
			cancel()
		case <-serveCtx.Done():
		}
		// Accept blocks in a syscall unaffected by ctx cancellation on
		// its own; closing the listener is what actually unblocks it.
		ln.Close()
	}()

	for {
		conn, err := ln.Accept(serveCtx)
		if err != nil {
			select {
			case <-c.stop:
				return nil
			case <-serveCtx.Done():
				return ctx.Err()
			default:
			}
			c.log.Warn("rendezvous accept failed", zap.Error(err))
			continue
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.serveConnection(serveCtx, conn)
		}()
	}
}

// serveConnection runs the read-decode-dispatch-encode-write loop for
// one Connection until it closes or ctx/c.stop end the run.
func (c *Coordinator) serveConnection(ctx context.Context, conn *listener.Connection) {
	defer conn.Close()
	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		raw, err := conn.Recv(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				c.log.Debug("connection closed", zap.String("conn", conn.ID), zap.Error(err))
			}
			return
		}
		frame, err := protocol.Decode(raw)
		if err != nil {
			if c.metrics != nil {
				c.metrics.FrameDecodeErr.WithLabelValues(decodeErrorReason(err)).Inc()
			}
			c.log.Warn("dropping malformed frame", zap.String("conn", conn.ID), zap.Error(err))
			continue
		}

		emit := func(resp *api.Frame) error {
			if err := conn.Send(protocol.Encode(resp)); err != nil {
				if c.metrics != nil && errors.Is(err, api.ErrRingFull) {
					c.metrics.RingFull.WithLabelValues(conn.ID).Inc()
				}
				return err
			}
			return nil
		}
		// Dispatch runs on the shared C11 worker pool rather than inline
		// on this goroutine, so CPU-heavy handlers (parse, embed, vector
		// search) don't stall this connection's own read loop from
		// draining the ring. done blocks until the submitted task
		// finishes, preserving this connection's frame ordering.
		done := make(chan struct{})
		submitErr := c.dispatch.Submit(func() {
			defer close(done)
			if err := c.router.Dispatch(ctx, frame, emit); err != nil {
				c.log.Warn("dispatch failed", zap.String("conn", conn.ID), zap.Uint64("messageID", frame.MessageID), zap.Error(err))
			}
		})
		if submitErr != nil {
			c.log.Warn("dispatch pool closed, dropping frame", zap.String("conn", conn.ID), zap.Error(submitErr))
			return
		}
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// decodeErrorReason labels a frame decode failure for FrameDecodeErr,
// falling back to "other" for an error protocol.Decode doesn't sentinel.
func decodeErrorReason(err error) string {
	switch {
	case errors.Is(err, api.ErrShortHeader):
		return "short_header"
	case errors.Is(err, api.ErrBadMagic):
		return "bad_magic"
	case errors.Is(err, api.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, api.ErrOversizeLength):
		return "oversize_length"
	case errors.Is(err, api.ErrShortBody):
		return "short_body"
	case errors.Is(err, api.ErrCrcMismatch):
		return "crc_mismatch"
	default:
		return "other"
	}
}
