// File: vectorindex/index_test.go
package vectorindex

import (
	"context"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
)

func randomVector(rnd *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rnd.Float32()*2 - 1
	}
	return v
}

func testKey(n uint64) api.EmbeddingKey {
	var id api.StableID
	binary.LittleEndian.PutUint64(id[:8], n)
	return api.EmbeddingKey{StableID: id, ModelID: "model-a"}
}

func TestIndex_FlatFallbackBelowTrainingThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig("", "model-a")
	ix, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rnd := rand.New(rand.NewSource(42))
	const dim = 16
	wantKey := testKey(1)
	wantVec := randomVector(rnd, dim)
	if err := ix.Add(ctx, wantKey, wantVec, api.SourceMetadata{FilePath: "a.go"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	for i := 2; i <= 10; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, dim), api.SourceMetadata{})
	}
	if err := ix.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if ix.Trained() {
		t.Fatal("expected flat fallback below TrainingThreshold")
	}

	matches, err := ix.Query(ctx, wantVec, 1, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 || matches[0].Key != wantKey {
		t.Fatalf("Query = %+v, want exact match on key %+v", matches, wantKey)
	}
}

func TestIndex_TrainsAboveThresholdAndFindsExactVector(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig("", "model-a")
	ix, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rnd := rand.New(rand.NewSource(7))
	const dim = 32
	const n = 300
	targetKey := testKey(999)
	targetVec := randomVector(rnd, dim)
	for i := 0; i < n; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, dim), api.SourceMetadata{})
	}
	ix.Add(ctx, targetKey, targetVec, api.SourceMetadata{})
	if err := ix.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !ix.Trained() {
		t.Fatal("expected IVF-PQ training above TrainingThreshold")
	}

	nprobes := ix.snap.Load().ivf.nlist
	matches, err := ix.Query(ctx, targetVec, 5, nprobes)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	found := false
	for _, m := range matches {
		if m.Key == targetKey {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the queried-for vector's own key among top matches, got %+v", matches)
	}
}

func TestIndex_QueryCacheServesRepeatedQuery(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig("", "model-a")
	ix, _ := Open(cfg)
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, 8), api.SourceMetadata{})
	}
	ix.Flush(ctx)

	q := randomVector(rnd, 8)
	first, err := ix.Query(ctx, q, 2, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if _, ok := ix.cache.get(q, 2, 1); !ok {
		t.Fatal("expected the query result to be cached")
	}
	second, err := ix.Query(ctx, q, 2, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("cached result length mismatch: %d vs %d", len(first), len(second))
	}
}

func TestIndex_FlushInvalidatesQueryCache(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig("", "model-a")
	ix, _ := Open(cfg)
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 5; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, 8), api.SourceMetadata{})
	}
	ix.Flush(ctx)

	q := randomVector(rnd, 8)
	if _, err := ix.Query(ctx, q, 2, 1); err != nil {
		t.Fatalf("Query: %v", err)
	}
	ix.Add(ctx, testKey(100), randomVector(rnd, 8), api.SourceMetadata{})
	if err := ix.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, ok := ix.cache.get(q, 2, 1); ok {
		t.Fatal("expected the query cache to be invalidated after a flush")
	}
}

func TestIndex_RejectsMismatchedQueryDimension(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig("", "model-a")
	ix, _ := Open(cfg)
	rnd := rand.New(rand.NewSource(3))
	ix.Add(ctx, testKey(1), randomVector(rnd, 8), api.SourceMetadata{})
	ix.Flush(ctx)

	if _, err := ix.Query(ctx, randomVector(rnd, 4), 1, 1); err == nil {
		t.Fatal("expected an error for a dimension mismatch")
	}
}

func TestIndex_RemoveDropsRecordOnNextFlush(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig("", "model-a")
	ix, _ := Open(cfg)
	rnd := rand.New(rand.NewSource(4))
	key := testKey(1)
	vec := randomVector(rnd, 8)
	ix.Add(ctx, key, vec, api.SourceMetadata{})
	for i := 2; i <= 5; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, 8), api.SourceMetadata{})
	}
	ix.Flush(ctx)
	if ix.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", ix.Count())
	}

	if err := ix.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := ix.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if ix.Count() != 4 {
		t.Fatalf("Count() after remove = %d, want 4", ix.Count())
	}
	matches, err := ix.Query(ctx, vec, 5, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, m := range matches {
		if m.Key == key {
			t.Fatal("removed key still present in query results")
		}
	}
}
