//go:build windows && !cgo
// +build windows,!cgo

// Package concurrency
// Author: momentics <momentics@gmail.com>
//
// Stub implementation of PinCurrentThread for Windows when CGO is disabled
// (or on targets where syscall-level access is unavailable, e.g. tinygo,
// wasm). The full pin_windows.go implementation calls into Kernel32, but
// some CGO/syscall configurations can exclude it; this stub guarantees the
// symbol still exists with the same signature.

package concurrency

import "runtime"

// PinCurrentThread no-op stub for Windows without CGO.
func PinCurrentThread(numaNode int, cpuID int) {
	runtime.LockOSThread()
}