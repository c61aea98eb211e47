// File: internal/session/doc.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// High-performance, cross-platform session and context management.
// Provides thread-safe, NUMA-aware, zero-copy context storage with explicit
// cancellation, TTLs, and key/value propagation. Works on Linux and Windows.
package session
