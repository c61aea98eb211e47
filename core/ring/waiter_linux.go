//go:build linux
// +build linux

// File: core/ring/waiter_linux.go
//
// Linux Waiter backed by an eventfd (cross-process: the fd is shared
// with the peer via SCM_RIGHTS during core/listener's rendezvous, the
// shared-memory region itself carries no wakeup primitive). A single
// background goroutine drives the epoll-based reactor and converts
// eventfd readiness into genCond generation bumps, so concurrent
// WaitUntil callers never drive Poll themselves.
package ring

import (
	"context"
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/hioload-ai/coderuntime/reactor"
)

const pollQuantumMs = 50

type eventfdWaiter struct {
	fd   int
	r    reactor.Reactor
	gc   *genCond
	stop chan struct{}
}

// NewWaiter creates an eventfd-backed Waiter.
func NewWaiter() (Waiter, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("ring: eventfd: %w", err)
	}
	return newEventfdWaiter(fd)
}

// OpenWaiter wraps an eventfd descriptor received from a peer process
// (e.g. over core/listener's rendezvous SCM_RIGHTS handoff).
func OpenWaiter(fd int) (Waiter, error) {
	return newEventfdWaiter(fd)
}

func newEventfdWaiter(fd int) (Waiter, error) {
	r, err := reactor.New()
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	w := &eventfdWaiter{fd: fd, r: r, gc: newGenCond(), stop: make(chan struct{})}
	if err := r.Register(uintptr(fd), reactor.EventRead, w.onReadable); err != nil {
		_ = r.Close()
		_ = unix.Close(fd)
		return nil, err
	}
	go w.pollLoop()
	return w, nil
}

func (w *eventfdWaiter) onReadable(fd uintptr, ev reactor.FDEventType) {
	var buf [8]byte
	// Drain the counter; EAGAIN just means another waiter drained it
	// first between epoll reporting readiness and us reading.
	_, _ = unix.Read(int(fd), buf[:])
	w.gc.bump()
}

func (w *eventfdWaiter) pollLoop() {
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		_ = w.r.Poll(pollQuantumMs)
	}
}

// WakeOne increments the eventfd counter, waking one blocked reader.
func (w *eventfdWaiter) WakeOne() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func (w *eventfdWaiter) WaitUntil(ctx context.Context) error {
	return w.gc.wait(ctx)
}

func (w *eventfdWaiter) Fd() uintptr { return uintptr(w.fd) }

func (w *eventfdWaiter) Close() error {
	close(w.stop)
	err := w.r.Close()
	if cerr := unix.Close(w.fd); err == nil {
		err = cerr
	}
	return err
}
