//go:build !linux
// +build !linux

// File: core/ring/region_other.go
//
// Fallback Region for platforms without memfd_create: a plain
// heap-allocated buffer. It supports same-process Ring pairs (e.g. in
// tests) but cannot be shared with a peer process.
package ring

import "errors"

type Region struct {
	Bytes []byte
}

func (r *Region) Fd() uintptr { return 0 }

// NewRegion allocates a heap-backed region of at least size bytes.
func NewRegion(size int) (*Region, error) {
	return &Region{Bytes: make([]byte, size)}, nil
}

// OpenRegion is unsupported on this platform: there is no descriptor
// to map from.
func OpenRegion(fd int, size int) (*Region, error) {
	return nil, errors.New("ring: cross-process regions are not supported on this platform")
}

func (r *Region) Close() error { return nil }
