// File: transport/pool/hostpool.go
package pool

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hioload-ai/coderuntime/transport/tcp"
	"go.uber.org/zap"
)

// HostStats is a point-in-time snapshot of one HostPool's health.
type HostStats struct {
	Origin         string
	MaxIdleConns   int
	InFlight       int64
	TLSFailures    int64
	Healthy        bool
	LastHealthChk  time.Time
}

// HostPool is a single origin's pooled *http.Client plus the
// adaptive-sizing and health-check loops that tune it.
type HostPool struct {
	origin string
	cfg    Config
	log    *zap.Logger

	client    *http.Client
	transport *http.Transport

	inFlight    atomic.Int64
	tlsFailures atomic.Int64
	healthy     atomic.Bool
	lastCheck   atomic.Int64 // unix nanos

	stopOnce sync.Once
	stop     chan struct{}
}

func newHostPool(origin string, cfg Config, log *zap.Logger) *HostPool {
	if log == nil {
		log = zap.NewNop()
	}
	hp := &HostPool{origin: origin, cfg: cfg, log: log, stop: make(chan struct{})}
	hp.healthy.Store(true)

	dialCfg := tcp.DefaultDialerConfig()
	dialCfg.Timeout = cfg.DialTimeout
	dialCfg.PinCPU = cfg.DialerPinCPU
	hp.transport = &http.Transport{
		DialContext:         tcp.New(dialCfg),
		MaxIdleConnsPerHost: cfg.MinConns,
		MaxConnsPerHost:     cfg.MaxConns,
		IdleConnTimeout:     cfg.IdleTimeout,
	}
	hp.client = &http.Client{
		Transport: &countingRoundTripper{next: hp.transport, hp: hp},
		Timeout:   0, // callers set per-request deadlines via context
	}

	go hp.scaleLoop()
	if cfg.HealthCheckPath != "" {
		go hp.healthLoop()
	}
	return hp
}

// Client returns the pooled *http.Client for direct use by callers
// that need header/body control beyond Pool.Do.
func (hp *HostPool) Client() *http.Client { return hp.client }

// Healthy reports the HostPool's last observed health state.
func (hp *HostPool) Healthy() bool { return hp.healthy.Load() }

// Stats returns a snapshot of this HostPool.
func (hp *HostPool) Stats() HostStats {
	return HostStats{
		Origin:        hp.origin,
		MaxIdleConns:  hp.transport.MaxIdleConnsPerHost,
		InFlight:      hp.inFlight.Load(),
		TLSFailures:   hp.tlsFailures.Load(),
		Healthy:       hp.healthy.Load(),
		LastHealthChk: time.Unix(0, hp.lastCheck.Load()),
	}
}

// scaleLoop adjusts MaxIdleConnsPerHost with an AIMD policy: scale up
// additively when in-flight requests are saturating the current
// ceiling, scale down multiplicatively when mostly idle. This mirrors
// the provider rate limiter's AIMD discipline (spec.md §4.6) applied
// to connection count instead of request rate.
func (hp *HostPool) scaleLoop() {
	ticker := time.NewTicker(hp.cfg.ScaleCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-hp.stop:
			return
		case <-ticker.C:
			inFlight := hp.inFlight.Load()
			cur := hp.transport.MaxIdleConnsPerHost
			switch {
			case inFlight >= int64(cur) && cur < hp.cfg.MaxConns:
				hp.transport.MaxIdleConnsPerHost = min(cur+2, hp.cfg.MaxConns)
			case inFlight < int64(cur)/4 && cur > hp.cfg.MinConns:
				hp.transport.MaxIdleConnsPerHost = max(cur/2, hp.cfg.MinConns)
			}
		}
	}
}

func (hp *HostPool) healthLoop() {
	ticker := time.NewTicker(hp.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-hp.stop:
			return
		case <-ticker.C:
			hp.probe()
		}
	}
}

func (hp *HostPool) probe() {
	req, err := http.NewRequest(http.MethodGet, hp.origin+hp.cfg.HealthCheckPath, nil)
	if err != nil {
		hp.healthy.Store(false)
		return
	}
	resp, err := hp.client.Do(req)
	hp.lastCheck.Store(time.Now().UnixNano())
	if err != nil {
		hp.healthy.Store(false)
		hp.log.Warn("health check failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	hp.healthy.Store(resp.StatusCode < http.StatusInternalServerError)
}

// Close stops the background loops. The underlying transport's idle
// connections are closed too.
func (hp *HostPool) Close() {
	hp.stopOnce.Do(func() { close(hp.stop) })
	hp.transport.CloseIdleConnections()
}
