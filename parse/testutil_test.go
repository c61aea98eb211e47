// File: parse/testutil_test.go
package parse

// testBuilder accumulates source bytes alongside tree nodes so leaf
// nodes get real byte ranges to slice text from, the way a real
// api.Parser would populate them.
type testBuilder struct {
	tree   *Tree
	source []byte
}

func newTestBuilder(uri string) *testBuilder {
	return &testBuilder{tree: NewTree(uri)}
}

// leaf appends text to the builder's source buffer and a node whose
// byte range covers exactly that text.
func (b *testBuilder) leaf(kind, text string) NodeIndex {
	start := len(b.source)
	b.source = append(b.source, text...)
	id := AddNode(b.tree, kind)
	b.tree.Nodes[id].ByteStart = start
	b.tree.Nodes[id].ByteEnd = len(b.source)
	return id
}

// node appends an interior node spanning no text of its own.
func (b *testBuilder) node(kind string, children ...NodeIndex) NodeIndex {
	return AddNode(b.tree, kind, children...)
}
