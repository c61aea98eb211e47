// File: coordinator/coordinator.go
//
// Coordinator is the runtime's top-level facade (spec.md §4.11): one
// struct that owns the lifecycle of every subsystem (parse cache,
// embedding cache, vector index, LSP gateway, provider registry, wire
// router), the rendezvous accept loop that feeds them (serve.go), and
// the background schedulers that keep them consistent without sitting
// on the request path.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/embedding"
	"github.com/hioload-ai/coderuntime/internal/concurrency"
	"github.com/hioload-ai/coderuntime/internal/logging"
	"github.com/hioload-ai/coderuntime/lsp"
	"github.com/hioload-ai/coderuntime/metrics"
	"github.com/hioload-ai/coderuntime/parse"
	"github.com/hioload-ai/coderuntime/provider"
	"github.com/hioload-ai/coderuntime/vectorindex"
	"go.uber.org/zap"
)

// Coordinator owns every subsystem C1-C10 depend on and the three
// background schedulers spec.md §4.11 step 3 names: health-check,
// tier-migration, and index persistence.
type Coordinator struct {
	cfg Config
	log *zap.Logger

	parser   api.Parser
	embedder api.Embedder

	cache     *parse.Cache
	embedding *embedding.Cache
	index     *vectorindex.Index

	gateway   *lsp.Gateway
	router    *Router
	providers *provider.Registry
	metrics   *metrics.Registry
	dispatch  *concurrency.Executor

	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

var _ api.GracefulShutdown = (*Coordinator)(nil)

// New wires every subsystem together and rehydrates open documents
// from the last recovery snapshot, if one exists for cfg.WorkspaceDir
// (spec.md §4.11 step 1). parser and embedder are the opaque
// capabilities this module never implements (spec.md §1); providers
// may be nil if no remote-model backend is configured.
func New(cfg Config, parser api.Parser, embedder api.Embedder, providers *provider.Registry) (*Coordinator, error) {
	parseCache := parse.NewCache(parse.SegmentThreshold)

	embedCache, err := embedding.New(embedding.DefaultConfig(indexSubdir(cfg.WorkspaceDir, "embeddings")))
	if err != nil {
		return nil, fmt.Errorf("coordinator: open embedding cache: %w", err)
	}

	idx, err := vectorindex.Open(vectorindex.DefaultConfig(indexSubdir(cfg.WorkspaceDir, "vectors"), embedder.ModelID()))
	if err != nil {
		embedCache.Close()
		return nil, fmt.Errorf("coordinator: open vector index: %w", err)
	}

	c := &Coordinator{
		cfg:       cfg,
		log:       logging.New("coordinator"),
		parser:    parser,
		embedder:  embedder,
		cache:     parseCache,
		embedding: embedCache,
		index:     idx,
		providers: providers,
		metrics:   metrics.New(),
		stop:      make(chan struct{}),
	}

	c.gateway = lsp.NewGateway(parser, parseCache, c.embedNode, cfg.Admission).WithMetrics(c.metrics)
	if providers != nil {
		providers.WithMetrics(c.metrics)
	}
	c.router = NewRouter(c.gateway, providers)

	workers := cfg.DispatchWorkers
	if workers <= 0 {
		workers = 1
	}
	c.dispatch = concurrency.NewExecutor(workers, cfg.DispatchNUMANode)

	if err := c.rehydrate(); err != nil {
		c.log.Warn("snapshot rehydration failed", zap.Error(err))
	}

	return c, nil
}

// indexSubdir joins workspaceDir/index/<name>, the layout spec.md §6.3
// describes as "index/" under the workspace root.
func indexSubdir(workspaceDir, name string) string {
	if workspaceDir == "" {
		return "index/" + name
	}
	return workspaceDir + "/index/" + name
}

// Gateway exposes the wired LSP gateway, e.g. for a transport layer
// that decodes frames itself rather than going through Router.
func (c *Coordinator) Gateway() *lsp.Gateway { return c.gateway }

// Router exposes the wired frame router.
func (c *Coordinator) Router() *Router { return c.router }

// Metrics exposes the wired Prometheus registry, e.g. for an
// promhttp.HandlerFor(c.Metrics().Gatherer(), ...) endpoint.
func (c *Coordinator) Metrics() *metrics.Registry { return c.metrics }

// embedNode is the lsp.EmbedFunc this coordinator supplies to the
// gateway: it computes the vector via the injected Embedder, writes it
// through the tiered embedding cache, and stages it into the vector
// index for the next Flush (spec.md §4.7, §4.8).
func (c *Coordinator) embedNode(id parse.StableID, n *parse.Node, text, uri, language string) ([]float32, error) {
	vec, err := c.embedder.Embed(text, language)
	if err != nil {
		return nil, fmt.Errorf("coordinator: embed node: %w", err)
	}

	key := api.EmbeddingKey{StableID: id, ModelID: c.embedder.ModelID()}
	if err := c.embedding.Put(key, vec); err != nil {
		return nil, fmt.Errorf("coordinator: cache embedding: %w", err)
	}

	meta := api.SourceMetadata{FilePath: uri, StartLine: n.RowStart, EndLine: n.RowEnd, Language: language}
	if err := c.index.Add(context.Background(), key, vec, meta); err != nil {
		return nil, fmt.Errorf("coordinator: stage embedding: %w", err)
	}
	return vec, nil
}

// rehydrate replays the last recovery snapshot's open documents
// through DidOpen, so a restarted coordinator doesn't need the editor
// to resend every didOpen (spec.md §4.11 step 1).
func (c *Coordinator) rehydrate() error {
	snap, err := readSnapshot(c.cfg.WorkspaceDir)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	ctx := context.Background()
	for _, d := range snap.Documents {
		if err := c.gateway.DidOpen(ctx, d.URI, d.Text, d.Version, d.Language); err != nil {
			c.log.Warn("failed to rehydrate document", zap.String("uri", d.URI), zap.Error(err))
		}
	}
	c.log.Info("rehydrated snapshot", zap.Int("documents", len(snap.Documents)))
	return nil
}

// Start launches the background schedulers and the rendezvous accept
// loop that assembles spec.md §2's primary data flow (editor →
// core/listener → core/protocol decode → Router → core/protocol
// encode → editor). It does not block.
func (c *Coordinator) Start() {
	c.wg.Add(3)
	go c.runEvery(c.cfg.HealthCheckInterval, c.runHealthCheck)
	go c.runEvery(c.cfg.TierMigrationInterval, c.runTierMigration)
	go c.runEvery(c.cfg.IndexPersistInterval, c.runIndexPersist)
	go c.serveBackground()
}

// serveBackground runs Serve until Shutdown ends it, logging anything
// other than the expected cancellation error.
func (c *Coordinator) serveBackground() {
	if err := c.Serve(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn("rendezvous serve loop exited", zap.Error(err))
	}
}

// runEvery runs fn on every tick of a ticker sized to interval until
// Shutdown closes c.stop. Grounded on provider/ratelimiter.go's
// ticker+stop-channel loop rather than internal/concurrency.Scheduler.
func (c *Coordinator) runEvery(interval time.Duration, fn func()) {
	defer c.wg.Done()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-c.stop:
			return
		}
	}
}

// runHealthCheck probes every registered provider outside the request
// path, so a provider's recovery or failure is visible before the next
// request routes to it (spec.md §4.11 step 3).
func (c *Coordinator) runHealthCheck() {
	if c.providers == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for name, err := range c.providers.HealthCheckAll(ctx) {
		if err != nil {
			c.log.Warn("provider unhealthy", zap.String("provider", name), zap.Error(err))
		}
	}
}

// runTierMigration rebuilds the embedding cache's L3 snapshot from the
// current L2 records (spec.md §4.7 "Tier migration"): every on-disk L2
// record is copied into the new memory-mapped snapshot, and nothing is
// evicted from L1 or L2.
func (c *Coordinator) runTierMigration() {
	if err := c.embedding.Rebuild(); err != nil {
		c.log.Warn("embedding tier rebuild failed", zap.Error(err))
	}
}

// runIndexPersist flushes staged vector-index inserts/removals into a
// queryable, persisted snapshot (spec.md §4.8 "Flush").
func (c *Coordinator) runIndexPersist() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.index.Flush(ctx); err != nil {
		c.log.Warn("vector index flush failed", zap.Error(err))
	}
}

// Shutdown drains in-flight gateway requests within
// cfg.ShutdownDrainTimeout, persists a recovery snapshot of every open
// document, flushes the vector index, and releases owned resources
// (spec.md §4.11 step 4, implementing api.GracefulShutdown).
func (c *Coordinator) Shutdown() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	c.dispatch.Close()
	c.gateway.Close()

	c.drain(c.cfg.ShutdownDrainTimeout)

	if err := c.writeRecoverySnapshot(); err != nil {
		c.log.Warn("failed to write recovery snapshot", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownDrainTimeout)
	defer cancel()
	if err := c.index.Flush(ctx); err != nil {
		c.log.Warn("final vector index flush failed", zap.Error(err))
	}

	return c.embedding.Close()
}

// drain polls the gateway's in-flight count until it reaches zero or
// timeout elapses, giving outstanding requests a chance to finish
// before the snapshot below captures document state.
func (c *Coordinator) drain(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		if c.gateway.InFlight() == 0 {
			return
		}
		<-ticker.C
	}
	c.log.Warn("shutdown drain timed out with requests still in flight", zap.Int("inFlight", c.gateway.InFlight()))
}

func (c *Coordinator) writeRecoverySnapshot() error {
	open := c.gateway.OpenDocuments()
	docs := make([]documentSnapshot, 0, len(open))
	for _, d := range open {
		docs = append(docs, documentSnapshot{URI: d.URI, Text: d.Text, Version: d.Version, Language: d.Language})
	}
	return writeSnapshot(c.cfg.WorkspaceDir, &Snapshot{Workspace: c.cfg.WorkspaceDir, Documents: docs})
}
