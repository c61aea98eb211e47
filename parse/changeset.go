// File: parse/changeset.go
package parse

// ChangeSet is the result of comparing two parses of the same file.
// Added and Removed never share an id, but children are matched by
// position, so a sibling shift can list one id in both Modified and
// Removed.
type ChangeSet struct {
	Modified []StableID
	Added    []StableID
	Removed  []StableID
}

// DetectChanges walks old and newTree in lockstep from their roots,
// comparing the node at each matching structural position. Wherever
// the two stable ids agree, the whole subtree below is guaranteed
// identical (a node's id is a hash of everything beneath it) and the
// walk stops descending there — this is what keeps the cost close to
// O(N + k log k) rather than O(N) regardless of how small the edit
// was. Wherever they disagree, the position is recorded as Modified
// and the walk continues into both sides' children; any children
// present on only one side contribute their entire subtree to Added
// or Removed.
//
// Matching children positionally (by index, not by searching for a
// content match) means an insertion or deletion in the middle of a
// child list shifts every following sibling's position and so reports
// them as modified/added/removed even when their own content didn't
// change. Appends and pure leaf edits, the common case, are detected
// precisely.
func DetectChanges(old, newTree *Tree) ChangeSet {
	var cs ChangeSet
	if old == nil || old.Root == NoNode {
		if newTree != nil && newTree.Root != NoNode {
			addSubtree(newTree, newTree.Root, &cs.Added)
		}
		return cs
	}
	if newTree == nil || newTree.Root == NoNode {
		addSubtree(old, old.Root, &cs.Removed)
		return cs
	}
	walkPair(old, old.Root, newTree, newTree.Root, &cs)
	return cs
}

func walkPair(old *Tree, oldID NodeIndex, newTree *Tree, newID NodeIndex, cs *ChangeSet) {
	oldNode, newNode := Get(old, oldID), Get(newTree, newID)
	if oldNode.StableID == newNode.StableID {
		return // identical subtree, nothing to report
	}
	cs.Modified = append(cs.Modified, newNode.StableID)

	common := len(oldNode.Children)
	if len(newNode.Children) < common {
		common = len(newNode.Children)
	}
	for i := 0; i < common; i++ {
		walkPair(old, oldNode.Children[i], newTree, newNode.Children[i], cs)
	}
	for i := common; i < len(oldNode.Children); i++ {
		addSubtree(old, oldNode.Children[i], &cs.Removed)
	}
	for i := common; i < len(newNode.Children); i++ {
		addSubtree(newTree, newNode.Children[i], &cs.Added)
	}
}

func addSubtree(t *Tree, id NodeIndex, into *[]StableID) {
	n := Get(t, id)
	*into = append(*into, n.StableID)
	for _, c := range n.Children {
		addSubtree(t, c, into)
	}
}
