//go:build linux && !cgo
// +build linux,!cgo

// Package concurrency
// Author: momentics <momentics@gmail.com>
//
// Stub implementation of PinCurrentThread for Linux when CGO is disabled.
// The real CGO-based version (pin_linux.go) uses sched_setaffinity/libnuma,
// but its import "C" means the go tool drops that file entirely when cgo
// is disabled, which previously left PinCurrentThread undefined on pure-Go
// builds. This no-op variant fills that gap.
//
// A CGO-enabled production build keeps using the full pin_linux.go
// implementation; the build tags select between the two.

package concurrency

import "runtime"

// PinCurrentThread no-op stub for Linux without CGO.
func PinCurrentThread(numaNode int, cpuID int) {
	runtime.LockOSThread()
}