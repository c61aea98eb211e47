// File: vectorindex/querycache.go
package vectorindex

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hioload-ai/coderuntime/api"
)

// queryCacheKey identifies a query by the hash of its vector plus the
// parameters that affect its result set; two calls with the same
// vector but different k/nprobes are different cache entries.
type queryCacheKey struct {
	vecHash uint64
	k       int
	nprobes int
}

type queryCacheEntry struct {
	matches []api.Match
	expires time.Time
}

// queryCache is a TTL- and size-capped cache of recent Query results.
// It's invalidated wholesale on every index flush, since a flush can
// change which records exist and cached matches would otherwise
// silently go stale.
type queryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	order   []queryCacheKey // insertion order, for FIFO eviction once over maxSize
	entries map[queryCacheKey]queryCacheEntry
}

func newQueryCache(maxSize int, ttl time.Duration) *queryCache {
	return &queryCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[queryCacheKey]queryCacheEntry),
	}
}

func hashVector(vec []float32) uint64 {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return xxhash.Sum64(buf)
}

func (c *queryCache) get(vec []float32, k, nprobes int) ([]api.Match, bool) {
	key := queryCacheKey{vecHash: hashVector(vec), k: k, nprobes: nprobes}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.matches, true
}

func (c *queryCache) put(vec []float32, k, nprobes int, matches []api.Match) {
	key := queryCacheKey{vecHash: hashVector(vec), k: k, nprobes: nprobes}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = queryCacheEntry{matches: matches, expires: time.Now().Add(c.ttl)}

	for len(c.order) > c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// invalidate drops every cached entry. Called after a flush since a
// cached result set may reference records that no longer exist or
// miss ones that now do.
func (c *queryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[queryCacheKey]queryCacheEntry)
	c.order = nil
}
