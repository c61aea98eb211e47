// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the core poll-mode event reactor abstraction
// and cross-platform implementations for epoll (Linux) and IOCP
// (Windows). It backs the cross-process wakeup primitive used by
// core/ring's Linux waiter (spec.md §4.1); the LSP gateway's admission
// queue does not use it.
package reactor

import "fmt"

// FDEventType is a bitmask of readiness conditions a registered file
// descriptor can be polled for.
type FDEventType int

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// FDCallback is invoked by Poll for each ready file descriptor, from
// the goroutine that called Poll. It must not block.
type FDCallback func(fd uintptr, ev FDEventType)

// Reactor multiplexes readiness notifications over a set of raw file
// descriptors (eventfd, socket, pipe). Register/Unregister may be
// called concurrently with Poll; Poll itself is meant to be driven
// from a single goroutine per Reactor instance.
type Reactor interface {
	Register(fd uintptr, events FDEventType, cb FDCallback) error
	Unregister(fd uintptr) error
	// Poll blocks until at least one registered fd is ready or
	// timeoutMs elapses (timeoutMs < 0 blocks indefinitely), invoking
	// cb for each one. It returns nil on a plain timeout.
	Poll(timeoutMs int) error
	Close() error
}

// New constructs the platform-appropriate Reactor.
func New() (Reactor, error) {
	r, err := newReactor()
	if err != nil {
		return nil, fmt.Errorf("reactor: %w", err)
	}
	return r, nil
}
