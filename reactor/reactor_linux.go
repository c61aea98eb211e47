//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation.

package reactor

import (
	"fmt"
	"sync"
	"syscall"
)

// epollReactor implements Reactor using Linux epoll.
type epollReactor struct {
	epfd      int
	callbacks sync.Map // map[uintptr]FDCallback
}

func newReactor() (Reactor, error) {
	epfd, err := syscall.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollReactor{epfd: epfd}, nil
}

// Register adds a file descriptor to the epoll watch list.
func (r *epollReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	var ev syscall.EpollEvent
	if events&EventRead != 0 {
		ev.Events |= syscall.EPOLLIN
	}
	if events&EventWrite != 0 {
		ev.Events |= syscall.EPOLLOUT
	}
	ev.Fd = int32(fd)

	if err := syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	r.callbacks.Store(fd, cb)
	return nil
}

// Unregister removes a file descriptor from the epoll watch list.
func (r *epollReactor) Unregister(fd uintptr) error {
	if err := syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	r.callbacks.Delete(fd)
	return nil
}

// Poll blocks and waits for events on registered file descriptors.
// timeoutMs < 0 means block indefinitely.
func (r *epollReactor) Poll(timeoutMs int) error {
	const maxEvents = 128
	var events [maxEvents]syscall.EpollEvent

	n, err := syscall.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == syscall.EINTR {
			return nil
		}
		return fmt.Errorf("epoll wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		fd := uintptr(ev.Fd)

		val, ok := r.callbacks.Load(fd)
		if !ok {
			continue
		}

		var eventType FDEventType
		if ev.Events&syscall.EPOLLIN != 0 {
			eventType |= EventRead
		}
		if ev.Events&syscall.EPOLLOUT != 0 {
			eventType |= EventWrite
		}
		if ev.Events&(syscall.EPOLLERR|syscall.EPOLLHUP) != 0 {
			eventType |= EventError
		}

		cb := val.(FDCallback)
		func() {
			defer func() { _ = recover() }()
			cb(fd, eventType)
		}()
	}
	return nil
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	return syscall.Close(r.epfd)
}
