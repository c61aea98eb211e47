// File: embedding/cache_test.go
package embedding

import (
	"encoding/binary"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
)

func testStableID(n uint64) api.StableID {
	var id api.StableID
	binary.LittleEndian.PutUint64(id[:8], n)
	return id
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := New(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	k := Key{StableID: testStableID(42), ModelID: "text-embedding-3-small"}
	vec := []float32{0.1, -0.2, 3.14159, float32(math.Inf(1)), float32(math.Inf(-1)), 0}

	if err := c.Put(k, vec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(k)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	assertVectorsBitExact(t, vec, got)
}

func TestCache_MissAfterL1EvictionStillHitsL2(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.L1Size = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	k1 := Key{StableID: testStableID(1), ModelID: "m"}
	k2 := Key{StableID: testStableID(2), ModelID: "m"}
	v1 := []float32{1, 2, 3}
	v2 := []float32{4, 5, 6}

	if err := c.Put(k1, v1); err != nil {
		t.Fatalf("Put k1: %v", err)
	}
	if err := c.Put(k2, v2); err != nil {
		t.Fatalf("Put k2: %v", err)
	}
	// k1 should have been evicted from L1 by k2 (size-1 LRU), but L2 is
	// write-through and authoritative.
	got, ok, err := c.Get(k1)
	if err != nil || !ok {
		t.Fatalf("Get k1 after eviction: ok=%v err=%v", ok, err)
	}
	assertVectorsBitExact(t, v1, got)
}

func TestCache_RebuildServesFromL3(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.L1Size = 1
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	k := Key{StableID: testStableID(7), ModelID: "m"}
	v := []float32{9, 8, 7}
	if err := c.Put(k, v); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// Evict k from L1 by putting a different key into the size-1 cache.
	if err := c.Put(Key{StableID: testStableID(99), ModelID: "m"}, []float32{0}); err != nil {
		t.Fatalf("Put filler: %v", err)
	}
	// Get probes L2 before L3; drop the L2 files so only L3 can serve k.
	if err := os.RemoveAll(filepath.Join(dir, "l2")); err != nil {
		t.Fatalf("remove l2: %v", err)
	}

	got, ok, err := c.Get(k)
	if err != nil || !ok {
		t.Fatalf("Get after rebuild: ok=%v err=%v", ok, err)
	}
	assertVectorsBitExact(t, v, got)
}

func TestCache_TrainIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	c, err := New(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	r := rand.New(rand.NewSource(1))
	for i := 0; i < DictTrainingSize; i++ {
		vec := make([]float32, 8)
		for j := range vec {
			vec[j] = r.Float32()
		}
		if err := c.Put(Key{StableID: testStableID(uint64(i)), ModelID: "m"}, vec); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	if err := c.Train(); err != nil {
		t.Fatalf("Train: %v", err)
	}
	dictAfterFirst := c.dict
	if err := c.Train(); err != nil {
		t.Fatalf("second Train: %v", err)
	}
	if &c.dict == nil || string(c.dict) != string(dictAfterFirst) {
		t.Fatal("second Train call should be a no-op")
	}

	// A vector written after Train must round-trip through the new codec.
	k := Key{StableID: testStableID(1000), ModelID: "m"}
	v := []float32{1.5, -2.5, 3.5}
	if err := c.Put(k, v); err != nil {
		t.Fatalf("Put post-train: %v", err)
	}
	got, ok, err := c.Get(k)
	if err != nil || !ok {
		t.Fatalf("Get post-train: ok=%v err=%v", ok, err)
	}
	assertVectorsBitExact(t, v, got)
}

func assertVectorsBitExact(t *testing.T, want, got []float32) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d got %d", len(want), len(got))
	}
	for i := range want {
		if math.Float32bits(want[i]) != math.Float32bits(got[i]) {
			t.Fatalf("index %d: want bits %x got %x (want=%v got=%v)",
				i, math.Float32bits(want[i]), math.Float32bits(got[i]), want[i], got[i])
		}
	}
}
