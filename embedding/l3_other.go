//go:build !linux
// +build !linux

// File: embedding/l3_other.go
//
// Non-Linux platforms have no portable mmap surface in this repo's
// dependency set (same limitation already recorded for core/ring's
// region allocator), so L3 falls back to loading the packed file into
// a regular heap buffer. Reads are still zero-copy relative to that
// buffer; only the OS-level page-cache sharing is lost.
package embedding

import (
	"fmt"
	"os"
)

func openL3Snapshot(path string, index map[Key]l3Segment) (*l3Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("embedding: l3 read: %w", err)
	}
	return &l3Snapshot{path: path, data: data, index: index}, nil
}
