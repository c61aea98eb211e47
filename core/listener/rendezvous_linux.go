//go:build linux
// +build linux

// File: core/listener/rendezvous_linux.go
//
// Linux rendezvous: a Unix domain socket used purely to hand the peer
// four descriptors (two memfd regions, two eventfds) via SCM_RIGHTS.
// Once the handoff completes the socket is not touched again; all
// traffic flows over the ring pair directly.
package listener

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/hioload-ai/coderuntime/core/ring"
)

// DefaultRingCapacity is the data-region size (bytes) used for each
// half of a rendezvous-negotiated ring pair.
const DefaultRingCapacity = 1 << 20 // 1 MiB

// Listener accepts rendezvous connections over a Unix domain socket.
type Listener struct {
	ln           *net.UnixListener
	ringCapacity uint32
}

// Bind creates the rendezvous socket at a sanitized path derived from
// name, removing any stale socket file left by a prior crashed run.
func Bind(name string) (*Listener, error) {
	path := SanitizeName(name) + ".sock"
	_ = os.Remove(path)

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listener: resolve addr: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("listener: listen: %w", err)
	}
	return &Listener{ln: ln, ringCapacity: DefaultRingCapacity}, nil
}

// Addr returns the filesystem path of the rendezvous socket.
func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Close stops accepting new connections. Established Connections are
// unaffected.
func (l *Listener) Close() error { return l.ln.Close() }

// Accept completes one rendezvous: it allocates a fresh ring pair,
// hands the client its descriptors, and returns the server-side
// Connection.
func (l *Listener) Accept(ctx context.Context) (*Connection, error) {
	uc, err := l.ln.AcceptUnix()
	if err != nil {
		return nil, fmt.Errorf("listener: accept: %w", err)
	}
	defer uc.Close()

	c2sRegion, c2sRing, c2sWaiter, err := newRingTriple(l.ringCapacity)
	if err != nil {
		return nil, err
	}
	s2cRegion, s2cRing, s2cWaiter, err := newRingTriple(l.ringCapacity)
	if err != nil {
		closeTriple(c2sRegion, c2sWaiter)
		return nil, err
	}

	if err := sendHandoff(uc, l.ringCapacity, c2sRegion, c2sWaiter, s2cRegion, s2cWaiter); err != nil {
		closeTriple(c2sRegion, c2sWaiter)
		closeTriple(s2cRegion, s2cWaiter)
		return nil, err
	}

	return newConnection(c2sRing, c2sWaiter, c2sRegion, s2cRing, s2cWaiter, s2cRegion), nil
}

// Dial connects to a rendezvous socket bound with Bind and completes
// the handoff from the client side.
func Dial(ctx context.Context, name string) (*Connection, error) {
	path := SanitizeName(name) + ".sock"
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listener: resolve addr: %w", err)
	}
	uc, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("listener: dial: %w", err)
	}
	defer uc.Close()

	capacity, c2sFd, s2cFd, err := recvHandoff(uc)
	if err != nil {
		return nil, err
	}

	c2sRegion, err := ring.OpenRegion(c2sFd.region, int(ring.HeaderSize)+int(capacity))
	if err != nil {
		return nil, err
	}
	c2sRingHandle, err := ring.Open(c2sRegion.Bytes)
	if err != nil {
		return nil, err
	}
	c2sWaiter, err := ring.OpenWaiter(c2sFd.waiter)
	if err != nil {
		return nil, err
	}

	s2cRegion, err := ring.OpenRegion(s2cFd.region, int(ring.HeaderSize)+int(capacity))
	if err != nil {
		return nil, err
	}
	s2cRingHandle, err := ring.Open(s2cRegion.Bytes)
	if err != nil {
		return nil, err
	}
	s2cWaiter, err := ring.OpenWaiter(s2cFd.waiter)
	if err != nil {
		return nil, err
	}

	// From the client's point of view it writes to c2s and reads from s2c.
	return newConnection(s2cRingHandle, s2cWaiter, s2cRegion, c2sRingHandle, c2sWaiter, c2sRegion), nil
}

func newRingTriple(capacity uint32) (*ring.Region, *ring.Ring, ring.Waiter, error) {
	region, err := ring.NewRegion(int(ring.HeaderSize) + int(capacity))
	if err != nil {
		return nil, nil, nil, err
	}
	r := ring.New(region.Bytes, capacity)
	w, err := ring.NewWaiter()
	if err != nil {
		_ = region.Close()
		return nil, nil, nil, err
	}
	return region, r, w, nil
}

func closeTriple(region *ring.Region, w ring.Waiter) {
	if w != nil {
		_ = w.Close()
	}
	if region != nil {
		_ = region.Close()
	}
}

type fdPair struct {
	region int
	waiter int
}

// sendHandoff writes an 8-byte capacity prefix as the message body and
// four descriptors (c2s region, c2s waiter, s2c region, s2c waiter) as
// SCM_RIGHTS ancillary data.
func sendHandoff(uc *net.UnixConn, capacity uint32, c2sRegion *ring.Region, c2sWaiter ring.Waiter,
	s2cRegion *ring.Region, s2cWaiter ring.Waiter) error {
	var body [8]byte
	binary.LittleEndian.PutUint32(body[0:4], capacity)

	fds := []int{
		int(c2sRegion.Fd()), int(c2sWaiter.Fd()),
		int(s2cRegion.Fd()), int(s2cWaiter.Fd()),
	}
	oob := unix.UnixRights(fds...)
	_, _, err := uc.WriteMsgUnix(body[:], oob, nil)
	if err != nil {
		return fmt.Errorf("listener: handoff write: %w", err)
	}
	return nil
}

func recvHandoff(uc *net.UnixConn) (capacity uint32, c2s, s2c fdPair, err error) {
	body := make([]byte, 8)
	oob := make([]byte, unix.CmsgSpace(4*4))

	n, oobn, _, _, rerr := uc.ReadMsgUnix(body, oob)
	if rerr != nil {
		return 0, fdPair{}, fdPair{}, fmt.Errorf("listener: handoff read: %w", rerr)
	}
	if n < 8 {
		return 0, fdPair{}, fdPair{}, fmt.Errorf("listener: short handoff body")
	}
	capacity = binary.LittleEndian.Uint32(body[0:4])

	cmsgs, perr := unix.ParseSocketControlMessage(oob[:oobn])
	if perr != nil || len(cmsgs) == 0 {
		return 0, fdPair{}, fdPair{}, fmt.Errorf("listener: parse control message: %w", perr)
	}
	fds, rerr2 := unix.ParseUnixRights(&cmsgs[0])
	if rerr2 != nil || len(fds) != 4 {
		return 0, fdPair{}, fdPair{}, fmt.Errorf("listener: expected 4 descriptors, got %d", len(fds))
	}
	return capacity, fdPair{region: fds[0], waiter: fds[1]}, fdPair{region: fds[2], waiter: fds[3]}, nil
}
