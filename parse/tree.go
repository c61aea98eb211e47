// File: parse/tree.go
package parse

import "github.com/hioload-ai/coderuntime/api"

// NodeIndex indexes into a Tree's arena.
type NodeIndex = api.NodeIndex

// NoNode is the sentinel "no node" index (e.g. for Parent on a root,
// or a not-yet-assigned child slot).
const NoNode = api.NoNode

// StableID is a content-derived node identity: hash(kind, normalized
// text, sorted child stable ids). Two nodes with the same StableID are
// considered the same node across parses, regardless of which Tree or
// byte offset they came from.
type StableID = api.StableID

// Node is one arena entry, as produced by an api.Parser. Source text
// isn't stored on the node itself; slice it out of the document's
// source buffer with Text.
type Node = api.Node

// Tree is a parsed document's node arena. Nodes are expected in
// post-order (a node's children exist in the arena before the node
// itself), though AssignStableIDs walks from Root explicitly rather
// than assuming arena order, since api.Parser is an opaque external
// capability.
type Tree = api.Tree

// NewTree starts an empty arena for uri.
func NewTree(uri string) *Tree {
	return &Tree{URI: uri, Root: NoNode}
}

// AddNode appends a node with the given children (already-added
// NodeIndexes) and returns its id. The caller is responsible for
// building bottom-up so every child id passed here already exists.
func AddNode(t *Tree, kind string, children ...NodeIndex) NodeIndex {
	id := NodeIndex(len(t.Nodes))
	childrenCopy := append([]NodeIndex(nil), children...)
	t.Nodes = append(t.Nodes, Node{Kind: kind, Parent: NoNode, Children: childrenCopy})
	for _, c := range children {
		t.Nodes[c].Parent = id
	}
	return id
}

// Get returns the node at id.
func Get(t *Tree, id NodeIndex) *Node {
	return &t.Nodes[id]
}

// Text slices a node's source text out of the document's full source
// buffer by byte offset.
func Text(source []byte, n *Node) string {
	return string(source[n.ByteStart:n.ByteEnd])
}

// indexByStableID builds a one-shot lookup from stable id to arena
// slot. Built fresh per call rather than cached on Tree, since
// api.Tree carries no index field of its own.
func indexByStableID(t *Tree) map[StableID]NodeIndex {
	idx := make(map[StableID]NodeIndex, len(t.Nodes))
	for i := range t.Nodes {
		idx[t.Nodes[i].StableID] = NodeIndex(i)
	}
	return idx
}
