// File: parse/treestore_test.go
package parse

import "testing"

func TestTreeStore_SmallTreeStaysLive(t *testing.T) {
	ts := NewTreeStore(100)
	small := buildWideBlock(10)
	small.URI = "small.go"
	if err := ts.Put(small); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, segmented := ts.segmented[small.URI]; segmented {
		t.Fatal("a tree below the threshold should not be segmented")
	}
	got, err := ts.Get(small.URI)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != small {
		t.Fatal("expected the exact same *Tree back for a live entry")
	}
}

func TestTreeStore_LargeTreeIsSegmentedAndReifiesTransparently(t *testing.T) {
	ts := NewTreeStore(50)
	big := buildWideBlock(500)
	big.URI = "big.go"
	if err := ts.Put(big); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, live := ts.live[big.URI]; live {
		t.Fatal("a tree above the threshold should not stay live")
	}
	got, err := ts.Get(big.URI)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Nodes) != len(big.Nodes) {
		t.Fatalf("reified node count = %d, want %d", len(got.Nodes), len(big.Nodes))
	}
}

func TestTreeStore_EvictDropsBothTiers(t *testing.T) {
	ts := NewTreeStore(50)
	small := buildWideBlock(5)
	small.URI = "f.go"
	ts.Put(small)
	ts.Evict(small.URI)
	got, err := ts.Get(small.URI)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil after Evict")
	}
}
