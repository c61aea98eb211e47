//go:build !linux
// +build !linux

// File: core/listener/rendezvous_other.go
//
// Cross-process rendezvous requires descriptor passing, which this
// repo only implements for Linux (SCM_RIGHTS over a Unix domain
// socket, see rendezvous_linux.go). Other platforms get a same-process
// in-memory rendezvous useful for tests and single-process embedding,
// not genuine IPC.
package listener

import (
	"context"
	"errors"
	"sync"

	"github.com/hioload-ai/coderuntime/core/ring"
)

const DefaultRingCapacity = 1 << 20

// Listener is an in-process rendezvous point keyed by name.
type Listener struct {
	mu      sync.Mutex
	pending chan *Connection
	closed  bool
}

var registry sync.Map // map[string]*Listener

func Bind(name string) (*Listener, error) {
	l := &Listener{pending: make(chan *Connection, 16)}
	if _, loaded := registry.LoadOrStore(SanitizeName(name), l); loaded {
		return nil, errors.New("listener: name already bound")
	}
	return l, nil
}

func (l *Listener) Addr() string { return "" }

func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.pending)
	}
	return nil
}

func (l *Listener) Accept(ctx context.Context) (*Connection, error) {
	select {
	case c, ok := <-l.pending:
		if !ok {
			return nil, errors.New("listener: closed")
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dial connects to an in-process Listener bound with the same name.
func Dial(ctx context.Context, name string) (*Connection, error) {
	v, ok := registry.Load(SanitizeName(name))
	if !ok {
		return nil, errors.New("listener: no such bound name")
	}
	l := v.(*Listener)

	c2sRing, c2sWaiter, err := newLoopbackRing()
	if err != nil {
		return nil, err
	}
	s2cRing, s2cWaiter, err := newLoopbackRing()
	if err != nil {
		return nil, err
	}

	serverSide := newConnection(c2sRing, c2sWaiter, nil, s2cRing, s2cWaiter, nil)
	clientSide := newConnection(s2cRing, s2cWaiter, nil, c2sRing, c2sWaiter, nil)

	select {
	case l.pending <- serverSide:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return clientSide, nil
}

func newLoopbackRing() (*ring.Ring, ring.Waiter, error) {
	region, err := ring.NewRegion(int(ring.HeaderSize) + DefaultRingCapacity)
	if err != nil {
		return nil, nil, err
	}
	r := ring.New(region.Bytes, DefaultRingCapacity)
	w, err := ring.NewWaiter()
	if err != nil {
		return nil, nil, err
	}
	return r, w, nil
}
