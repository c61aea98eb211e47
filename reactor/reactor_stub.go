//go:build !linux && !windows
// +build !linux,!windows

// File: reactor/reactor_stub.go
// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>
//
// Fallback reactor for platforms without epoll/IOCP. Poll busy-waits
// with a bounded sleep instead of blocking on the fd directly; callers
// on these platforms get correct but higher-latency wakeups.

package reactor

import (
	"sync"
	"time"
)

type stubReactor struct {
	mu        sync.Mutex
	callbacks map[uintptr]FDCallback
	closed    chan struct{}
}

func newReactor() (Reactor, error) {
	return &stubReactor{
		callbacks: make(map[uintptr]FDCallback),
		closed:    make(chan struct{}),
	}, nil
}

func (r *stubReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[fd] = cb
	return nil
}

func (r *stubReactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.callbacks, fd)
	return nil
}

// Poll sleeps a fixed quantum then invokes every registered callback
// with EventRead, letting the callback itself decide whether there is
// anything to do. This keeps the fallback path lock-free on the hot
// read/write side at the cost of wakeup latency.
func (r *stubReactor) Poll(timeoutMs int) error {
	quantum := 1 * time.Millisecond
	if timeoutMs >= 0 {
		quantum = time.Duration(timeoutMs) * time.Millisecond
	}
	select {
	case <-r.closed:
		return nil
	case <-time.After(quantum):
	}

	r.mu.Lock()
	cbs := make([]FDCallback, 0, len(r.callbacks))
	fds := make([]uintptr, 0, len(r.callbacks))
	for fd, cb := range r.callbacks {
		fds = append(fds, fd)
		cbs = append(cbs, cb)
	}
	r.mu.Unlock()

	for i, cb := range cbs {
		func() {
			defer func() { _ = recover() }()
			cb(fds[i], EventRead)
		}()
	}
	return nil
}

func (r *stubReactor) Close() error {
	close(r.closed)
	return nil
}
