// File: transport/pool/pool.go
package pool

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hioload-ai/coderuntime/internal/logging"
)

// Config tunes one HostPool's adaptive sizing and health checking.
type Config struct {
	MinConns            int           // floor for MaxIdleConnsPerHost
	MaxConns            int           // ceiling for MaxIdleConnsPerHost
	IdleTimeout         time.Duration // connection idle timeout
	DialTimeout         time.Duration
	HealthCheckPath     string        // empty disables active health checks
	HealthCheckInterval time.Duration
	ScaleCheckInterval  time.Duration

	// DialerPinCPU, when >= 0, pins each outbound dial's OS thread to
	// that CPU (see transport/tcp.DialerConfig.PinCPU). -1 disables
	// pinning, the right default for a handful of provider hosts where
	// dial frequency is low.
	DialerPinCPU int
}

// DefaultConfig returns conservative defaults suitable for a handful
// of AI-provider hosts.
func DefaultConfig() Config {
	return Config{
		MinConns:            2,
		MaxConns:            64,
		IdleTimeout:         90 * time.Second,
		DialTimeout:         10 * time.Second,
		HealthCheckInterval: 30 * time.Second,
		ScaleCheckInterval:  5 * time.Second,
		DialerPinCPU:        -1,
	}
}

// Pool manages one HostPool per origin (scheme://host:port), so each
// provider host gets independently adaptive sizing and TLS failure
// tracking rather than sharing one global *http.Client.
type Pool struct {
	cfg Config
	log *zap.Logger

	mu    sync.RWMutex
	hosts map[string]*HostPool
}

// New constructs a Pool. A nil logger falls back to a no-op logger.
func New(cfg Config, log *zap.Logger) *Pool {
	if log == nil {
		log = logging.Nop()
	}
	return &Pool{cfg: cfg, log: log, hosts: make(map[string]*HostPool)}
}

// Do routes req through the HostPool for req.URL's origin, creating
// one on first use.
func (p *Pool) Do(req *http.Request) (*http.Response, error) {
	return p.hostPool(req.URL.Scheme + "://" + req.URL.Host).client.Do(req)
}

// HostPool returns (creating if necessary) the pool for origin.
func (p *Pool) HostPool(origin string) *HostPool {
	return p.hostPool(origin)
}

func (p *Pool) hostPool(origin string) *HostPool {
	p.mu.RLock()
	hp, ok := p.hosts[origin]
	p.mu.RUnlock()
	if ok {
		return hp
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if hp, ok := p.hosts[origin]; ok {
		return hp
	}
	hp = newHostPool(origin, p.cfg, p.log.Named(origin))
	p.hosts[origin] = hp
	return hp
}

// Close stops every HostPool's background loops and closes idle
// connections.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, hp := range p.hosts {
		hp.Close()
	}
}

// Stats reports a snapshot per origin.
func (p *Pool) Stats() map[string]HostStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]HostStats, len(p.hosts))
	for origin, hp := range p.hosts {
		out[origin] = hp.Stats()
	}
	return out
}

// Shutdown runs Close (stopping every host's background loops and
// closing idle connections), returning ctx's error if ctx ends first.
// It does not wait for in-flight requests to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
