// File: vectorindex/types.go
package vectorindex

import "github.com/hioload-ai/coderuntime/api"

// record is one indexed vector plus the metadata returned alongside
// match results. It carries no content hash: api.VectorIndex.Add doesn't
// accept one, so this index tracks content identity purely
// through EmbeddingKey.StableID, set by whichever caller decided the
// node's content changed (the parse cache).
type record struct {
	Key    api.EmbeddingKey
	Vector []float32
	Meta   api.SourceMetadata
}

// QueryOptions controls one internal search call. The public
// api.VectorIndex.Query only exposes K and NProbes; RefineFactor is an
// index-wide Config default applied by Index.Query.
type QueryOptions struct {
	K            int
	NProbes      int
	RefineFactor int
}
