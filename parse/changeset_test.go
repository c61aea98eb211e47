// File: parse/changeset_test.go
package parse

import "testing"

func buildBlock(language string, stmtTexts ...string) *Tree {
	b := newTestBuilder("f.go")
	children := make([]NodeIndex, len(stmtTexts))
	for i, txt := range stmtTexts {
		children[i] = b.leaf("stmt", txt)
	}
	root := b.node("block", children...)
	b.tree.Root = root
	AssignStableIDs(b.tree, language, b.source)
	return b.tree
}

func TestDetectChanges_NoChangeYieldsEmptySets(t *testing.T) {
	a := buildBlock("go", "x", "y")
	b := buildBlock("go", "x", "y")
	cs := DetectChanges(a, b)
	if len(cs.Modified)+len(cs.Added)+len(cs.Removed) != 0 {
		t.Fatalf("expected no changes, got %+v", cs)
	}
}

func TestDetectChanges_LeafEditMarksLeafAndAncestorsModified(t *testing.T) {
	a := buildBlock("go", "x", "y")
	b := buildBlock("go", "x", "z")
	cs := DetectChanges(a, b)

	if len(cs.Added) != 0 || len(cs.Removed) != 0 {
		t.Fatalf("a pure edit should only produce modifications, got %+v", cs)
	}
	// Root and the edited leaf should both appear modified; the
	// untouched first statement should not.
	root := Get(b, b.Root)
	wantModified := map[StableID]bool{
		root.StableID:                     true,
		Get(b, root.Children[1]).StableID: true,
	}
	if len(cs.Modified) != len(wantModified) {
		t.Fatalf("Modified = %v, want exactly %v", cs.Modified, wantModified)
	}
	for _, id := range cs.Modified {
		if !wantModified[id] {
			t.Fatalf("unexpected id %v in Modified", id)
		}
	}
}

func TestDetectChanges_AppendedChildIsAdded(t *testing.T) {
	a := buildBlock("go", "x", "y")
	b := buildBlock("go", "x", "y", "z")
	cs := DetectChanges(a, b)

	if len(cs.Removed) != 0 {
		t.Fatalf("expected no removals, got %+v", cs.Removed)
	}
	newLeaf := Get(b, Get(b, b.Root).Children[2]).StableID
	found := false
	for _, id := range cs.Added {
		if id == newLeaf {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the appended leaf's stable id in Added, got %+v", cs.Added)
	}
	// The root changed (gained a child) so it must be modified.
	foundRoot := false
	for _, id := range cs.Modified {
		if id == Get(b, b.Root).StableID {
			foundRoot = true
		}
	}
	if !foundRoot {
		t.Fatal("expected the root to be modified when a child is appended")
	}
}

func TestDetectChanges_RemovedChildIsRemoved(t *testing.T) {
	a := buildBlock("go", "x", "y", "z")
	b := buildBlock("go", "x", "y")
	cs := DetectChanges(a, b)

	if len(cs.Added) != 0 {
		t.Fatalf("expected no additions, got %+v", cs.Added)
	}
	removedLeaf := Get(a, Get(a, a.Root).Children[2]).StableID
	found := false
	for _, id := range cs.Removed {
		if id == removedLeaf {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the removed leaf's stable id in Removed, got %+v", cs.Removed)
	}
}

func TestDetectChanges_NilOldTreeAddsEverything(t *testing.T) {
	b := buildBlock("go", "x", "y")
	cs := DetectChanges(nil, b)
	if len(cs.Modified) != 0 || len(cs.Removed) != 0 {
		t.Fatalf("expected only additions for a nil old tree, got %+v", cs)
	}
	if len(cs.Added) != len(b.Nodes) {
		t.Fatalf("Added has %d ids, want %d (every node)", len(cs.Added), len(b.Nodes))
	}
}

func TestDetectChanges_NilNewTreeRemovesEverything(t *testing.T) {
	a := buildBlock("go", "x", "y")
	cs := DetectChanges(a, nil)
	if len(cs.Modified) != 0 || len(cs.Added) != 0 {
		t.Fatalf("expected only removals for a nil new tree, got %+v", cs)
	}
	if len(cs.Removed) != len(a.Nodes) {
		t.Fatalf("Removed has %d ids, want %d (every node)", len(cs.Removed), len(a.Nodes))
	}
}
