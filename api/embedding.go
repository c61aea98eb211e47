// File: api/embedding.go
// Package api
//
// Embedding record model (spec.md §3.5) and the storage tier contract
// (spec.md §3.7) shared by the embedding cache (C7) and the parse
// cache (C9).

package api

import "time"

// Tier is the storage tier an embedding or compiled tree currently
// resides in. Tier moves never lose content (spec.md §3.7).
type Tier int

const (
	TierMemory Tier = iota
	TierMmap
	TierFrozen
	TierSegmented
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierMmap:
		return "mmap"
	case TierFrozen:
		return "frozen"
	case TierSegmented:
		return "segmented"
	default:
		return "unknown"
	}
}

// EmbeddingKey ties an embedding to the stable parse-node identity it
// was computed from, plus the embedding model that produced it
// (spec.md §4.7 "Keys").
type EmbeddingKey struct {
	StableID StableID
	ModelID  string
}

// SourceMetadata locates the source text an embedding was computed
// from.
type SourceMetadata struct {
	FilePath  string
	StartLine int
	EndLine   int
	Language  string
}

// EmbeddingRecord is a content fingerprint tied to a compressed
// fixed-dimension vector plus source metadata and timestamps
// (spec.md §3.5).
type EmbeddingRecord struct {
	Key        EmbeddingKey
	ContentSum [32]byte // content hash of the source node
	Dim        int
	Compressed []byte // zstd-compressed float32 vector
	Meta       SourceMetadata
	Tier       Tier
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Embedder computes a fixed-dimension embedding for a unit of source
// text. Concrete embedding models are out of scope (spec.md §1); this
// is the seam the embedding cache calls on an L1/L2/L3 miss.
type Embedder interface {
	Embed(text string, language string) ([]float32, error)
	Dim() int
	ModelID() string
}
