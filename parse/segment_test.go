// File: parse/segment_test.go
package parse

import "testing"

func buildWideBlock(n int) *Tree {
	b := newTestBuilder("big.go")
	children := make([]NodeIndex, n)
	for i := 0; i < n; i++ {
		children[i] = b.leaf("stmt", "s")
	}
	b.tree.Root = b.node("block", children...)
	AssignStableIDs(b.tree, "go", b.source)
	return b.tree
}

func TestSegment_ReifyRoundTripsNodesAndIDs(t *testing.T) {
	orig := buildWideBlock(5000)
	st, err := Segment(orig)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	reified, err := st.Reify()
	if err != nil {
		t.Fatalf("Reify: %v", err)
	}
	if len(reified.Nodes) != len(orig.Nodes) {
		t.Fatalf("reified node count = %d, want %d", len(reified.Nodes), len(orig.Nodes))
	}
	for i := range orig.Nodes {
		if orig.Nodes[i].StableID != reified.Nodes[i].StableID {
			t.Fatalf("node %d stable id mismatch after segment round trip", i)
		}
		if orig.Nodes[i].ByteStart != reified.Nodes[i].ByteStart || orig.Nodes[i].ByteEnd != reified.Nodes[i].ByteEnd {
			t.Fatalf("node %d byte range mismatch after segment round trip", i)
		}
	}
	if reified.Root != orig.Root {
		t.Fatalf("Root = %v, want %v", reified.Root, orig.Root)
	}
	idx := indexByStableID(reified)
	got, ok := idx[Get(orig, orig.Root).StableID]
	if !ok || got != orig.Root {
		t.Fatalf("indexByStableID on reified tree = (%v, %v), want (%v, true)", got, ok, orig.Root)
	}
}
