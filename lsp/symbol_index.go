package lsp

import (
	"strings"
	"sync"

	"github.com/hioload-ai/coderuntime/parse"
)

// symbolKinds lists the node Kind substrings this gateway treats as
// declaring a named symbol. Grammars vary in naming (tree-sitter-go
// uses "function_declaration", tree-sitter-python uses
// "function_definition"), so this matches on either suffix rather than
// committing to one grammar's vocabulary.
var symbolKinds = []string{"declaration", "definition"}

func isSymbolKind(kind string) bool {
	for _, s := range symbolKinds {
		if strings.HasSuffix(kind, s) {
			return true
		}
	}
	return false
}

// symbolIndex maintains name -> []Location across every open and
// indexed file (spec.md §4.10 "State"). It is rebuilt per file on
// every didOpen/didChange so it never holds stale locations for an
// edited document.
type symbolIndex struct {
	mu sync.RWMutex
	// byName holds every symbol location, across all files.
	byName map[string][]Location
	// byURI holds the DocumentSymbol outline for one file, and the
	// names that file currently contributes to byName (so Update can
	// remove exactly those before re-adding).
	byURI     map[string][]DocumentSymbol
	namesByURI map[string][]string
}

func newSymbolIndex() *symbolIndex {
	return &symbolIndex{
		byName:     make(map[string][]Location),
		byURI:      make(map[string][]DocumentSymbol),
		namesByURI: make(map[string][]string),
	}
}

// update recomputes the symbols contributed by uri from t, replacing
// whatever that file previously contributed.
func (idx *symbolIndex) update(uri string, t *parse.Tree, source []byte) {
	var symbols []DocumentSymbol
	var names []string

	if t != nil && t.Root != parse.NoNode {
		var walk func(ni parse.NodeIndex)
		walk = func(ni parse.NodeIndex) {
			n := parse.Get(t, ni)
			if n.Named && isSymbolKind(n.Kind) {
				name := symbolName(t, source, n)
				if name != "" {
					symbols = append(symbols, DocumentSymbol{
						Name: name,
						Kind: n.Kind,
						Range: Range{
							Start: Position{Line: n.RowStart, Character: n.ColStart},
							End:   Position{Line: n.RowEnd, Character: n.ColEnd},
						},
					})
					names = append(names, name)
				}
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(t.Root)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, old := range idx.namesByURI[uri] {
		idx.byName[old] = removeLocationsForURI(idx.byName[old], uri)
		if len(idx.byName[old]) == 0 {
			delete(idx.byName, old)
		}
	}

	for _, s := range symbols {
		loc := Location{URI: uri, Range: s.Range}
		idx.byName[s.Name] = append(idx.byName[s.Name], loc)
	}
	idx.byURI[uri] = symbols
	idx.namesByURI[uri] = names
}

// remove drops every symbol uri contributed, e.g. on didClose.
func (idx *symbolIndex) remove(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, old := range idx.namesByURI[uri] {
		idx.byName[old] = removeLocationsForURI(idx.byName[old], uri)
		if len(idx.byName[old]) == 0 {
			delete(idx.byName, old)
		}
	}
	delete(idx.byURI, uri)
	delete(idx.namesByURI, uri)
}

func (idx *symbolIndex) documentSymbols(uri string) []DocumentSymbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]DocumentSymbol(nil), idx.byURI[uri]...)
}

func (idx *symbolIndex) locations(name string) []Location {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]Location(nil), idx.byName[name]...)
}

// search returns every symbol whose name contains query, for
// workspace/symbol (spec.md §4.10 "Contract").
func (idx *symbolIndex) search(query string) []DocumentSymbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []DocumentSymbol
	for uri, symbols := range idx.byURI {
		for _, s := range symbols {
			if query == "" || strings.Contains(strings.ToLower(s.Name), strings.ToLower(query)) {
				out = append(out, DocumentSymbol{Name: s.Name, Kind: s.Kind, Range: s.Range, Detail: uri})
			}
		}
	}
	return out
}

func removeLocationsForURI(locs []Location, uri string) []Location {
	out := locs[:0]
	for _, l := range locs {
		if l.URI != uri {
			out = append(out, l)
		}
	}
	return out
}

// symbolName extracts the declared name from a declaration node: the
// text of its first child whose FieldName is "name", falling back to
// the declaration node's own sliced text when the grammar doesn't tag
// a name field.
func symbolName(t *parse.Tree, source []byte, n *parse.Node) string {
	for _, c := range n.Children {
		child := parse.Get(t, c)
		if child.FieldName == "name" {
			return parse.Text(source, child)
		}
	}
	text := parse.Text(source, n)
	if len(text) > 64 {
		text = text[:64]
	}
	return strings.TrimSpace(text)
}
