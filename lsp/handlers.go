package lsp

import (
	"encoding/json"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/parse"
)

func (g *Gateway) handleDocumentSymbol(raw []byte) (any, error) {
	var p documentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidParams, err.Error())
	}
	return g.symbols.documentSymbols(p.TextDocument.URI), nil
}

func (g *Gateway) handleWorkspaceSymbol(raw []byte) (any, error) {
	var p workspaceSymbolParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidParams, err.Error())
	}
	return g.symbols.search(p.Query), nil
}

func (g *Gateway) handleHover(raw []byte) (any, error) {
	p, doc, err := g.resolvePosition(raw)
	if err != nil {
		return nil, err
	}
	n := nodeAtPosition(doc.Tree, p.Position)
	if n == nil {
		return hoverResult{}, nil
	}
	return hoverResult{
		Contents: n.Kind,
		Range: Range{
			Start: Position{Line: n.RowStart, Character: n.ColStart},
			End:   Position{Line: n.RowEnd, Character: n.ColEnd},
		},
	}, nil
}

func (g *Gateway) handleDefinition(raw []byte) (any, error) {
	p, doc, err := g.resolvePosition(raw)
	if err != nil {
		return nil, err
	}
	n := nodeAtPosition(doc.Tree, p.Position)
	if n == nil {
		return []Location{}, nil
	}
	name := symbolName(doc.Tree, []byte(doc.Text), n)
	return g.symbols.locations(name), nil
}

func (g *Gateway) handleReferences(raw []byte) (any, error) {
	var p referenceParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidParams, err.Error())
	}
	doc, ok := g.docs.get(p.TextDocument.URI)
	if !ok {
		return nil, api.ErrNotFound
	}
	n := nodeAtPosition(doc.Tree, p.Position)
	if n == nil {
		return []Location{}, nil
	}
	name := symbolName(doc.Tree, []byte(doc.Text), n)
	locs := g.symbols.locations(name)
	if !p.Context.IncludeDeclaration {
		locs = excludeDeclarationSite(locs, doc.URI, n)
	}
	return locs, nil
}

func (g *Gateway) handleFoldingRange(raw []byte) (any, error) {
	var p documentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidParams, err.Error())
	}
	doc, ok := g.docs.get(p.TextDocument.URI)
	if !ok {
		return nil, api.ErrNotFound
	}
	var out []FoldingRange
	if doc.Tree != nil && doc.Tree.Root != parse.NoNode {
		var walk func(ni parse.NodeIndex)
		walk = func(ni parse.NodeIndex) {
			n := parse.Get(doc.Tree, ni)
			if n.Named && len(n.Children) > 0 && n.RowEnd > n.RowStart {
				out = append(out, FoldingRange{StartLine: n.RowStart, EndLine: n.RowEnd, Kind: n.Kind})
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(doc.Tree.Root)
	}
	return out, nil
}

func (g *Gateway) handleSemanticTokens(raw []byte) (any, error) {
	var p documentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, api.NewError(api.ErrCodeInvalidParams, err.Error())
	}
	doc, ok := g.docs.get(p.TextDocument.URI)
	if !ok {
		return nil, api.ErrNotFound
	}
	var tokens []SemanticToken
	if doc.Tree != nil && doc.Tree.Root != parse.NoNode {
		for _, n := range doc.Tree.Nodes {
			if !n.Named || len(n.Children) > 0 {
				continue // only leaves carry meaningful tokens
			}
			tokens = append(tokens, SemanticToken{
				Line:      n.RowStart,
				Character: n.ColStart,
				Length:    n.ByteEnd - n.ByteStart,
				TokenType: tokenType(n.Kind),
			})
		}
	}
	return encodeSemanticTokens(tokens), nil
}

// resolvePosition unmarshals params common to hover/definition and
// fetches the target document.
func (g *Gateway) resolvePosition(raw []byte) (positionParams, *api.Document, error) {
	var p positionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, nil, api.NewError(api.ErrCodeInvalidParams, err.Error())
	}
	doc, ok := g.docs.get(p.TextDocument.URI)
	if !ok {
		return p, nil, api.ErrNotFound
	}
	return p, doc, nil
}

// nodeAtPosition returns the smallest (deepest) node whose range
// contains pos, or nil if none does.
func nodeAtPosition(t *parse.Tree, pos Position) *parse.Node {
	if t == nil {
		return nil
	}
	var best *parse.Node
	bestSpan := -1
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if !containsPosition(n, pos) {
			continue
		}
		span := (n.RowEnd-n.RowStart)*100000 + (n.ColEnd - n.ColStart)
		if best == nil || span < bestSpan {
			best = n
			bestSpan = span
		}
	}
	return best
}

func containsPosition(n *parse.Node, pos Position) bool {
	after := pos.Line > n.RowStart || (pos.Line == n.RowStart && pos.Character >= n.ColStart)
	before := pos.Line < n.RowEnd || (pos.Line == n.RowEnd && pos.Character <= n.ColEnd)
	return after && before
}

func excludeDeclarationSite(locs []Location, uri string, decl *parse.Node) []Location {
	out := locs[:0]
	for _, l := range locs {
		if l.URI == uri && l.Range.Start.Line == decl.RowStart && l.Range.Start.Character == decl.ColStart {
			continue
		}
		out = append(out, l)
	}
	return out
}

// tokenType maps a grammar-specific node kind to a coarse semantic
// token type index (LSP semanticTokens legend, simplified to a fixed
// small vocabulary: 0=other,1=keyword,2=identifier,3=literal,4=comment).
func tokenType(kind string) int {
	switch {
	case isSymbolKind(kind):
		return 2
	case kind == "comment":
		return 4
	case kind == "string" || kind == "number" || kind == "string_literal":
		return 3
	default:
		return 0
	}
}

// encodeSemanticTokens produces the LSP wire format: a flat array of
// 5-int groups (deltaLine, deltaStart, length, tokenType, modifiers),
// each token's position delta-encoded against the previous one.
func encodeSemanticTokens(tokens []SemanticToken) []int {
	data := make([]int, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0
	for _, t := range tokens {
		deltaLine := t.Line - prevLine
		deltaChar := t.Character
		if deltaLine == 0 {
			deltaChar = t.Character - prevChar
		}
		data = append(data, deltaLine, deltaChar, t.Length, t.TokenType, 0)
		prevLine, prevChar = t.Line, t.Character
	}
	return data
}
