// File: parse/cache_test.go
package parse

import (
	"errors"
	"testing"
	"time"
)

func constEmbed(id StableID, n *Node, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

// buildBlockWithSource is buildBlock but also returns the source bytes
// the tree's leaves were sliced from, since Cache.Update now needs the
// source buffer to slice text itself.
func buildBlockWithSource(stmtTexts ...string) (*Tree, []byte) {
	b := newTestBuilder("f.go")
	children := make([]NodeIndex, len(stmtTexts))
	for i, txt := range stmtTexts {
		children[i] = b.leaf("stmt", txt)
	}
	b.tree.Root = b.node("block", children...)
	// AssignStableIDs is called by Cache.Update itself; leave ids unset here.
	return b.tree, b.source
}

func TestCache_UpdateEmbedsAddedAndModifiedOnly(t *testing.T) {
	c := NewCache(0)
	now := time.Now()

	a, srcA := buildBlockWithSource("x", "y")
	res, err := c.Update(a, "go", srcA, now, constEmbed)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(res.Changes.Added) != len(a.Nodes) {
		t.Fatalf("first Update should add every node, got %+v", res.Changes)
	}
	for _, n := range a.Nodes {
		if _, ok := c.Get(n.StableID); !ok {
			t.Fatalf("expected entry for stable id %v after first Update", n.StableID)
		}
	}

	b, srcB := buildBlockWithSource("x", "z")
	res2, err := c.Update(b, "go", srcB, now.Add(time.Second), constEmbed)
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if len(res2.Changes.Added) != 0 {
		t.Fatalf("second Update should not add anything new, got %+v", res2.Changes)
	}
	unchangedLeaf := Get(b, Get(b, b.Root).Children[0]).StableID
	entry, ok := c.Get(unchangedLeaf)
	if !ok {
		t.Fatal("unchanged leaf's entry should still be present")
	}
	if !entry.Timestamp.Equal(now) {
		t.Fatalf("unchanged leaf's entry should be reused verbatim (timestamp unchanged), got %v want %v", entry.Timestamp, now)
	}
}

func TestCache_UpdateEvictsRemovedNodes(t *testing.T) {
	c := NewCache(0)
	now := time.Now()
	a, srcA := buildBlockWithSource("x", "y", "z")
	if _, err := c.Update(a, "go", srcA, now, constEmbed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	removedID := Get(a, Get(a, a.Root).Children[2]).StableID

	b, srcB := buildBlockWithSource("x", "y")
	if _, err := c.Update(b, "go", srcB, now, constEmbed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := c.Get(removedID); ok {
		t.Fatal("removed node's entry should have been evicted")
	}
}

func TestCache_UpdateQuarantinesFailedEmbeds(t *testing.T) {
	c := NewCache(0)
	a, srcA := buildBlockWithSource("x", "y")
	failing := func(id StableID, n *Node, text string) ([]float32, error) {
		if text == "y" {
			return nil, errors.New("boom")
		}
		return []float32{1}, nil
	}
	res, err := c.Update(a, "go", srcA, time.Now(), failing)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("expected exactly one quarantined node, got %+v", res.Failed)
	}
	if _, ok := c.Get(res.Failed[0]); ok {
		t.Fatal("a quarantined node should not have a cache entry")
	}
}

func TestCache_RecentlyModifiedTracksLastUpdate(t *testing.T) {
	c := NewCache(0)
	a, srcA := buildBlockWithSource("x", "y")
	res, err := c.Update(a, "go", srcA, time.Now(), constEmbed)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	recent := c.RecentlyModified(a.URI)
	if len(recent) != len(res.Changes.Added) {
		t.Fatalf("RecentlyModified = %v, want len %d", recent, len(res.Changes.Added))
	}
}

func TestCache_EvictFileRemovesAllItsEntries(t *testing.T) {
	c := NewCache(0)
	a, srcA := buildBlockWithSource("x", "y")
	if _, err := c.Update(a, "go", srcA, time.Now(), constEmbed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := c.EvictFile(a.URI); err != nil {
		t.Fatalf("EvictFile: %v", err)
	}
	for _, n := range a.Nodes {
		if _, ok := c.Get(n.StableID); ok {
			t.Fatalf("expected stable id %v to be evicted with its file", n.StableID)
		}
	}
	if recent := c.RecentlyModified(a.URI); recent != nil {
		t.Fatalf("expected no recent tracking after EvictFile, got %v", recent)
	}
}
