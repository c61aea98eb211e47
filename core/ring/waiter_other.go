//go:build !linux
// +build !linux

// File: core/ring/waiter_other.go
//
// Non-Linux fallback Waiter: an in-process condition variable. It
// correctly wakes goroutines sharing a Ring within one process, but
// has no cross-process descriptor to hand off, so Fd returns 0 and
// OpenWaiter always fails on these platforms.
package ring

import (
	"context"
	"errors"
)

type condWaiter struct {
	gc *genCond
}

// NewWaiter creates the condition-variable-backed Waiter.
func NewWaiter() (Waiter, error) {
	return &condWaiter{gc: newGenCond()}, nil
}

func (w *condWaiter) WakeOne() error {
	w.gc.bump()
	return nil
}

func (w *condWaiter) WaitUntil(ctx context.Context) error {
	return w.gc.wait(ctx)
}

func (w *condWaiter) Fd() uintptr { return 0 }

// OpenWaiter is unsupported on this platform: there is no descriptor
// to wrap.
func OpenWaiter(fd int) (Waiter, error) {
	return nil, errors.New("ring: cross-process waiters are not supported on this platform")
}

func (w *condWaiter) Close() error { return nil }
