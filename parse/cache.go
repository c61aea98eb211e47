// File: parse/cache.go
package parse

import (
	"sync"
	"time"
)

// Entry is one cached node: the data the spec's cache map associates
// with a stable id. Embedding is left as a raw vector rather than an
// embedding.Key/Cache reference so this package doesn't need to import
// the embedding layer — wiring the two together is the coordinator's
// job.
type Entry struct {
	Embedding []float32
	Text      string
	Kind      string
	Timestamp time.Time
	URI       string
}

// EmbedFunc produces the vector for a modified or newly-added node,
// given its already-sliced source text. Returning an error quarantines
// that one node (per spec.md §7's CorruptCache policy) without
// aborting the rest of the update.
type EmbedFunc func(id StableID, n *Node, text string) ([]float32, error)

// UpdateResult reports what Cache.Update did.
type UpdateResult struct {
	Changes ChangeSet
	Failed  []StableID // embed() errors; these nodes were left out of the cache, and a later Update re-embeds one only if it reports that node as modified or added
}

const defaultMaxRecentFiles = 64

// Cache is the incremental parse cache: a stable-id-keyed map of
// (embedding, text, kind, timestamp, uri), backed by a TreeStore that
// remembers the last parse of each file so Update can diff against it.
// It also tracks, per file, the stable ids touched by the most recent
// Update — RecentlyModified surfaces this so the embedding/index
// layers can prioritize files the user is actively editing (mirrors
// the "active file" tracking of file_context_tracker.rs, adapted from
// file-level to node-level).
type Cache struct {
	mu      sync.RWMutex
	entries map[StableID]Entry
	trees   *TreeStore

	recent         map[string][]StableID
	recentOrder    []string // MRU order, most recent first
	maxRecentFiles int
}

// NewCache builds an empty Cache. segmentThreshold configures the
// backing TreeStore's Segmented-tier cutoff (see SegmentThreshold).
func NewCache(segmentThreshold int) *Cache {
	return &Cache{
		entries:        make(map[StableID]Entry),
		trees:          NewTreeStore(segmentThreshold),
		recent:         make(map[string][]StableID),
		maxRecentFiles: defaultMaxRecentFiles,
	}
}

// Get returns the cached entry for a stable id, if any.
func (c *Cache) Get(id StableID) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Update assigns stable ids to t (via source and language), diffs it
// against the previously stored tree for t.URI (if any), re-embeds
// every modified/added node via embed, evicts removed nodes, and
// stores t as the new baseline for the next Update on the same file.
// Unchanged nodes are left untouched in the cache — their stable id
// didn't change, so their existing entry is still valid and is reused
// verbatim.
func (c *Cache) Update(t *Tree, language string, source []byte, now time.Time, embed EmbedFunc) (UpdateResult, error) {
	AssignStableIDs(t, language, source)

	old, err := c.trees.Get(t.URI)
	if err != nil {
		return UpdateResult{}, err
	}
	cs := DetectChanges(old, t)

	var result UpdateResult
	result.Changes = cs

	touched := make([]StableID, 0, len(cs.Modified)+len(cs.Added))
	idx := indexByStableID(t)

	c.mu.Lock()
	for _, id := range cs.Removed {
		delete(c.entries, id)
	}
	for _, id := range append(append([]StableID(nil), cs.Modified...), cs.Added...) {
		nodeIdx, ok := idx[id]
		if !ok {
			continue
		}
		n := Get(t, nodeIdx)
		text := Text(source, n)
		vec, embedErr := embed(id, n, text)
		if embedErr != nil {
			result.Failed = append(result.Failed, id)
			continue
		}
		c.entries[id] = Entry{Embedding: vec, Text: text, Kind: n.Kind, Timestamp: now, URI: t.URI}
		touched = append(touched, id)
	}
	c.recent[t.URI] = touched
	c.touchRecentOrder(t.URI)
	c.mu.Unlock()

	if err := c.trees.Put(t); err != nil {
		return result, err
	}
	return result, nil
}

// touchRecentOrder moves uri to the front of the MRU list, evicting
// the oldest tracked file's recent-ids entry once over the cap. Must
// be called with c.mu held.
func (c *Cache) touchRecentOrder(uri string) {
	for i, p := range c.recentOrder {
		if p == uri {
			c.recentOrder = append(c.recentOrder[:i], c.recentOrder[i+1:]...)
			break
		}
	}
	c.recentOrder = append([]string{uri}, c.recentOrder...)
	for len(c.recentOrder) > c.maxRecentFiles {
		oldest := c.recentOrder[len(c.recentOrder)-1]
		c.recentOrder = c.recentOrder[:len(c.recentOrder)-1]
		delete(c.recent, oldest)
	}
}

// RecentlyModified returns the stable ids touched by the most recent
// Update for uri, or nil if uri hasn't been updated (or has aged out
// of the MRU tracking window).
func (c *Cache) RecentlyModified(uri string) []StableID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]StableID(nil), c.recent[uri]...)
}

// EvictFile drops every cache entry and tree belonging to uri, e.g.
// when a file is deleted from the workspace.
func (c *Cache) EvictFile(uri string) error {
	old, err := c.trees.Get(uri)
	if err != nil {
		return err
	}
	if old != nil {
		cs := DetectChanges(old, nil)
		c.mu.Lock()
		for _, id := range cs.Removed {
			delete(c.entries, id)
		}
		c.mu.Unlock()
	}

	c.trees.Evict(uri)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.recent, uri)
	for i, p := range c.recentOrder {
		if p == uri {
			c.recentOrder = append(c.recentOrder[:i], c.recentOrder[i+1:]...)
			break
		}
	}
	return nil
}
