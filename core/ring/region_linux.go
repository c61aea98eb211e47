//go:build linux
// +build linux

// File: core/ring/region_linux.go
//
// Shared-memory region allocation for cross-process Ring pairs,
// backed by memfd_create + mmap (the advanced buffer-pool memory
// technique the rest of this repo only stubs out as a TODO). The
// memfd is sealed after sizing so a compromised peer cannot grow or
// shrink the mapping out from under the other side.
package ring

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region is a shared-memory-backed byte slice plus the descriptor
// needed to hand the mapping to a peer process over the rendezvous
// control channel.
type Region struct {
	Bytes []byte
	fd    int
}

// Fd returns the memfd descriptor backing this region.
func (r *Region) Fd() uintptr { return uintptr(r.fd) }

// NewRegion allocates a fresh anonymous shared-memory region of at
// least size bytes, sized and sealed for cross-process use.
func NewRegion(size int) (*Region, error) {
	fd, err := unix.MemfdCreate("hioload-ring", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("ring: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("ring: ftruncate: %w", err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_GROW|unix.F_SEAL_SHRINK); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("ring: seal: %w", err)
	}
	return mapRegion(fd, size)
}

// OpenRegion maps a region previously created with NewRegion from a
// descriptor received from a peer process (e.g. via SCM_RIGHTS).
func OpenRegion(fd int, size int) (*Region, error) {
	return mapRegion(fd, size)
}

func mapRegion(fd int, size int) (*Region, error) {
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("ring: mmap: %w", err)
	}
	return &Region{Bytes: data, fd: fd}, nil
}

// Close unmaps the region and releases the descriptor.
func (r *Region) Close() error {
	err := unix.Munmap(r.Bytes)
	if cerr := unix.Close(r.fd); err == nil {
		err = cerr
	}
	return err
}
