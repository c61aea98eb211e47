// File: vectorindex/index.go
package vectorindex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hioload-ai/coderuntime/api"
)

// DefaultRebuildGrowthFactor is how much the corpus must grow, relative to
// the count at last training, before Flush re-trains centroids and
// codebooks from scratch instead of incrementally inserting new
// records into the existing structure.
const DefaultRebuildGrowthFactor = 1.5

// DefaultRefineFactor is the over-fetch multiplier applied to k before
// exact-reranking IVF-PQ candidates; api.VectorIndex.Query doesn't
// expose this directly, so it lives on Config instead.
const DefaultRefineFactor = 4

// Config controls one Index.
type Config struct {
	Dir                 string  // persistence directory; empty disables persistence
	ModelID             string  // embedding model id; a change forces a full retrain on next open
	RebuildGrowthFactor float64 // see DefaultRebuildGrowthFactor
	RefineFactor        int     // see DefaultRefineFactor
	QueryCacheSize      int
	QueryCacheTTL       time.Duration
	Seed                int64 // deterministic seed for k-means initialization; tests pin this
}

// DefaultConfig returns reasonable defaults for dir/modelID.
func DefaultConfig(dir, modelID string) Config {
	return Config{
		Dir:                 dir,
		ModelID:             modelID,
		RebuildGrowthFactor: DefaultRebuildGrowthFactor,
		RefineFactor:        DefaultRefineFactor,
		QueryCacheSize:      1024,
		QueryCacheTTL:       5 * time.Minute,
		Seed:                1,
	}
}

// Index is the top-level IVF-PQ vector index: a staging buffer for
// appends and removals, an atomically-swapped immutable snapshot for
// queries, and an invalidate-on-flush query cache. It implements
// api.VectorIndex. All exported methods are safe for concurrent use.
type Index struct {
	cfg Config

	snap atomic.Pointer[snapshot]

	stageMu        sync.Mutex
	staged         []record
	removed        map[api.EmbeddingKey]struct{}
	lastTrainCount int

	cache *queryCache
}

var _ api.VectorIndex = (*Index)(nil)

// Open constructs an Index, reopening a persisted snapshot from
// cfg.Dir if one exists and matches cfg.ModelID. A model id mismatch
// or missing snapshot starts the index empty; the first Flush will
// build it from scratch.
func Open(cfg Config) (*Index, error) {
	if cfg.RebuildGrowthFactor <= 1 {
		cfg.RebuildGrowthFactor = DefaultRebuildGrowthFactor
	}
	if cfg.RefineFactor < 1 {
		cfg.RefineFactor = DefaultRefineFactor
	}
	ix := &Index{
		cfg:     cfg,
		cache:   newQueryCache(cfg.QueryCacheSize, cfg.QueryCacheTTL),
		removed: make(map[api.EmbeddingKey]struct{}),
	}

	if cfg.Dir != "" {
		s, err := load(cfg.Dir, cfg.ModelID, cfg.Seed)
		if err != nil && err != errModelMismatch {
			return nil, err
		}
		if err == nil && s != nil {
			ix.snap.Store(s)
			ix.lastTrainCount = len(s.records)
		}
	}
	return ix, nil
}

// Add appends a record to the staging buffer. It is not visible to
// Query until the next Flush.
func (ix *Index) Add(_ context.Context, key api.EmbeddingKey, vec []float32, meta api.SourceMetadata) error {
	ix.stageMu.Lock()
	ix.staged = append(ix.staged, record{Key: key, Vector: vec, Meta: meta})
	delete(ix.removed, key)
	ix.stageMu.Unlock()
	return nil
}

// Remove marks key for removal on the next Flush. A key staged for
// addition but not yet flushed is dropped from the staging buffer
// directly.
func (ix *Index) Remove(_ context.Context, key api.EmbeddingKey) error {
	ix.stageMu.Lock()
	defer ix.stageMu.Unlock()
	kept := ix.staged[:0]
	for _, r := range ix.staged {
		if r.Key != key {
			kept = append(kept, r)
		}
	}
	ix.staged = kept
	ix.removed[key] = struct{}{}
	return nil
}

// Flush atomically publishes every staged change: it builds (or
// incrementally extends) a new snapshot and swaps it in, so concurrent
// Query calls see either the entire pre-flush or entire post-flush
// state, never a partial one.
func (ix *Index) Flush(_ context.Context) error {
	ix.stageMu.Lock()
	pending := ix.staged
	ix.staged = nil
	removedKeys := ix.removed
	ix.removed = make(map[api.EmbeddingKey]struct{})
	ix.stageMu.Unlock()

	prev := ix.snap.Load()
	if len(pending) == 0 && len(removedKeys) == 0 && prev != nil {
		return nil
	}

	var next *snapshot
	switch {
	case prev == nil:
		records := append([]record(nil), pending...)
		next = buildSnapshot(records, ix.cfg.Seed)
		if next.ivf != nil {
			ix.lastTrainCount = len(records)
		}

	case prev.ivf != nil && len(removedKeys) == 0 &&
		float64(len(prev.records)+len(pending)) < float64(ix.lastTrainCount)*ix.cfg.RebuildGrowthFactor:
		// Below the rebuild threshold and nothing removed: absorb new
		// records into the existing centroids/codebooks instead of
		// retraining.
		ivf := prev.ivf
		for _, r := range pending {
			ivf = ivf.withInserted(r)
		}
		next = &snapshot{
			dim:     prev.dim,
			records: append(append([]record(nil), prev.records...), pending...),
			ivf:     ivf,
		}

	case prev.ivf != nil && len(removedKeys) > 0 &&
		float64(len(prev.records)+len(pending)) < float64(ix.lastTrainCount)*ix.cfg.RebuildGrowthFactor:
		ivf := prev.ivf.withRemoved(removedKeys)
		for _, r := range pending {
			ivf = ivf.withInserted(r)
		}
		records := make([]record, 0, len(prev.records)+len(pending))
		for _, r := range prev.records {
			if _, gone := removedKeys[r.Key]; !gone {
				records = append(records, r)
			}
		}
		records = append(records, pending...)
		next = &snapshot{dim: prev.dim, records: records, ivf: ivf}

	default:
		records := make([]record, 0, len(prev.records)+len(pending))
		for _, r := range prev.records {
			if _, gone := removedKeys[r.Key]; !gone {
				records = append(records, r)
			}
		}
		records = append(records, pending...)
		next = buildSnapshot(records, ix.cfg.Seed)
		if next.ivf != nil {
			ix.lastTrainCount = len(records)
		}
	}

	ix.snap.Store(next)
	ix.cache.invalidate()

	if ix.cfg.Dir != "" {
		if err := save(ix.cfg.Dir, ix.cfg.ModelID, next); err != nil {
			return fmt.Errorf("vectorindex: persist after flush: %w", err)
		}
	}
	return nil
}

// Query returns up to k nearest matches to vec. Results are served
// from the query cache when available. The refine-factor over-fetch
// used for IVF-PQ reranking comes from Config, not from callers.
func (ix *Index) Query(_ context.Context, vec []float32, k, nprobes int) ([]api.Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("vectorindex: k must be positive, got %d", k)
	}
	if m, ok := ix.cache.get(vec, k, nprobes); ok {
		return m, nil
	}

	s := ix.snap.Load()
	if s == nil || len(s.records) == 0 {
		return nil, nil
	}
	if len(vec) != s.dim {
		return nil, fmt.Errorf("vectorindex: query vector has dim %d, index has dim %d", len(vec), s.dim)
	}

	opts := QueryOptions{K: k, NProbes: nprobes, RefineFactor: ix.cfg.RefineFactor}
	matches := s.search(vec, opts)
	ix.cache.put(vec, k, nprobes, matches)
	return matches, nil
}

// Count reports the number of records in the current snapshot
// (staged-but-unflushed changes are not counted).
func (ix *Index) Count() int {
	s := ix.snap.Load()
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Trained reports whether the current snapshot uses IVF-PQ (true) or
// the exact flat-scan fallback (false).
func (ix *Index) Trained() bool {
	s := ix.snap.Load()
	return s != nil && s.ivf != nil
}
