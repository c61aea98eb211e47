// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides the dial function transport/pool's HostPool
// uses to open outbound connections to provider hosts, with optional
// CPU pinning of the dialing goroutine's OS thread (spec.md §4.4 /
// SPEC_FULL.md's C4 "outbound connection pool" expansion).
package tcp

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/hioload-ai/coderuntime/internal/concurrency"
)

// DialerConfig tunes the dial function New returns.
type DialerConfig struct {
	Timeout time.Duration
	TLS     *tls.Config

	// PinCPU, when >= 0, pins the OS thread performing the dial to this
	// CPU (and PinNUMANode, if also >= 0, to that NUMA node) via
	// internal/concurrency.PinCurrentThread. Most deployments leave this
	// at -1: dial is infrequent enough that pinning only pays off for a
	// host pool issuing many short-lived connections under load.
	PinCPU     int
	PinNUMANode int
}

// DefaultDialerConfig returns a DialerConfig with pinning disabled.
func DefaultDialerConfig() DialerConfig {
	return DialerConfig{Timeout: 10 * time.Second, PinCPU: -1, PinNUMANode: -1}
}

// DialFunc matches http.Transport.DialContext's signature so New's
// result can be assigned directly to it.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// New builds a DialFunc that dials plain TCP when cfg.TLS is nil, and
// dials through tls.Dialer with cfg.TLS whenever it is set, whatever
// network/addr the caller passes.
func New(cfg DialerConfig) DialFunc {
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	var tlsDialer *tls.Dialer
	if cfg.TLS != nil {
		tlsDialer = &tls.Dialer{NetDialer: dialer, Config: cfg.TLS}
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cfg.PinCPU >= 0 {
			concurrency.PinCurrentThread(cfg.PinNUMANode, cfg.PinCPU)
		}
		if tlsDialer != nil {
			return tlsDialer.DialContext(ctx, network, addr)
		}
		return dialer.DialContext(ctx, network, addr)
	}
}
