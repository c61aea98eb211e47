package lsp

import (
	"strings"

	"github.com/hioload-ai/coderuntime/parse"
)

// fakeParser implements Parser against a tiny test-only source format:
// one "kind:text" (or "kind:text:name") token per line, each becoming
// a named leaf under a single root "block" node. The optional third
// field adds a FieldName=="name" child so declaration-like kinds
// resolve a symbol name the way a real grammar's "name" field would.
type fakeParser struct{}

func (fakeParser) Parse(language string, source []byte, prevTree *parse.Tree) (*parse.Tree, error) {
	t := parse.NewTree("")
	lines := strings.Split(string(source), "\n")
	offset := 0
	var children []parse.NodeIndex

	for row, line := range lines {
		if line == "" {
			offset += 1
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		kind, text := parts[0], parts[1]

		leaf := parse.AddNode(t, kind)
		n := parse.Get(t, leaf)
		n.Named = true
		col := strings.Index(line, text)
		n.ByteStart = offset + col
		n.ByteEnd = n.ByteStart + len(text)
		n.RowStart, n.RowEnd = row, row
		n.ColStart, n.ColEnd = col, col+len(text)

		if len(parts) == 3 {
			name := parts[2]
			nameLeaf := parse.AddNode(t, "identifier")
			nn := parse.Get(t, nameLeaf)
			nn.Named = true
			nn.FieldName = "name"
			nameCol := strings.Index(line, name)
			nn.ByteStart = offset + nameCol
			nn.ByteEnd = nn.ByteStart + len(name)
			nn.RowStart, nn.RowEnd = row, row
			nn.ColStart, nn.ColEnd = nameCol, nameCol+len(name)
			n.Children = append(n.Children, nameLeaf)
			t.Nodes[nameLeaf].Parent = leaf
		}

		children = append(children, leaf)
		offset += len(line) + 1
	}

	root := parse.AddNode(t, "block", children...)
	rn := parse.Get(t, root)
	rn.Named = true
	if len(lines) > 0 {
		rn.RowEnd = len(lines) - 1
	}
	t.Root = root
	return t, nil
}
