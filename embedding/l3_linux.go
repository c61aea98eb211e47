//go:build linux
// +build linux

// File: embedding/l3_linux.go
package embedding

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func openL3Snapshot(path string, index map[Key]l3Segment) (*l3Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("embedding: l3 open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(info.Size())
	if size == 0 {
		return &l3Snapshot{path: path, data: nil, index: index}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("embedding: l3 mmap: %w", err)
	}
	return &l3Snapshot{
		path:  path,
		data:  data,
		index: index,
		closer: func() error {
			return unix.Munmap(data)
		},
	}, nil
}
