// File: api/vectorindex.go
// Package api
//
// Vector-index contract (spec.md §4.8): IVF-PQ with persistence and a
// query-result cache.

package api

import "context"

// Match is one query result: a similarity score plus the source
// embedding record's metadata.
type Match struct {
	Key        EmbeddingKey
	Score      float32
	Meta       SourceMetadata
	ContentSum [32]byte
}

// VectorIndex is queried with a vector and returns the k nearest
// matches, optionally over-fetching and re-ranking exactly via
// RefineFactor.
type VectorIndex interface {
	// Add stages a vector for the next flush; it does not block on
	// training or persistence.
	Add(ctx context.Context, key EmbeddingKey, vec []float32, meta SourceMetadata) error

	// Remove evicts a previously added vector by key.
	Remove(ctx context.Context, key EmbeddingKey) error

	// Query returns the k nearest matches, probing nprobes partitions.
	Query(ctx context.Context, vec []float32, k int, nprobes int) ([]Match, error)

	// Flush atomically publishes staged writes; concurrent readers
	// observe either the pre- or post-flush snapshot, never a torn
	// state (spec.md §4.8 "Consistency").
	Flush(ctx context.Context) error

	// Trained reports whether PQ training has run (spec.md requires
	// at least 256 vectors; fewer disables PQ and falls back to flat
	// scan).
	Trained() bool

	// Count returns the number of vectors currently indexed.
	Count() int
}
