// File: parse/stableid.go
package parse

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// AssignStableIDs computes every reachable node's StableID with a
// recursive post-order walk from t.Root: a node's children are always
// hashed before the node itself, so the hash covers everything beneath
// it. language selects the normalization table; source is the full
// document buffer nodes' byte ranges index into.
func AssignStableIDs(t *Tree, language string, source []byte) {
	if t.Root == NoNode {
		return
	}
	table := languageTable(language)
	visited := make([]bool, len(t.Nodes))

	var walk func(idx NodeIndex)
	walk = func(idx NodeIndex) {
		if visited[idx] {
			return
		}
		n := &t.Nodes[idx]
		childIDs := make([]StableID, len(n.Children))
		for i, c := range n.Children {
			walk(c)
			childIDs[i] = t.Nodes[c].StableID
		}
		n.StableID = computeStableID(table, n.Kind, Text(source, n), childIDs)
		visited[idx] = true
	}
	walk(t.Root)
}

// computeStableID hashes kind, the language-normalized text, and the
// sorted set of child stable ids. Sorting children means a pure
// reordering of otherwise-identical siblings doesn't change the
// parent's id. Two domain-separated xxhash passes over the same
// content fill the 16 bytes of a StableID; a single 64-bit hash would
// leave half of it always zero.
func computeStableID(table normTable, kind, text string, childIDs []StableID) StableID {
	sorted := append([]StableID(nil), childIDs...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })

	var buf bytes.Buffer
	buf.WriteString(kind)
	buf.WriteByte(0)
	buf.WriteString(table.normalize(kind, text))
	buf.WriteByte(0)
	for _, id := range sorted {
		buf.Write(id[:])
	}
	content := buf.Bytes()

	salted := make([]byte, len(content)+1)
	copy(salted, content)
	salted[len(content)] = 0x01

	var id StableID
	binary.LittleEndian.PutUint64(id[:8], xxhash.Sum64(content))
	binary.LittleEndian.PutUint64(id[8:], xxhash.Sum64(salted))
	return id
}
