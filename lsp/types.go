package lsp

// Position is a zero-based line/character pair, as in the LSP spec.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open [Start, End) span of Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pairs a document URI with a Range inside it.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// DocumentSymbol is one entry of a textDocument/documentSymbol result.
type DocumentSymbol struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Range    Range  `json:"range"`
	Detail   string `json:"detail,omitempty"`
}

// FoldingRange is one entry of a textDocument/foldingRange result.
type FoldingRange struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Kind      string `json:"kind,omitempty"`
}

// SemanticToken is one pre-delta-encoded token; the gateway encodes
// the final int array (line-delta, char-delta, length, type, modifiers)
// per the LSP semanticTokens/full wire format.
type SemanticToken struct {
	Line      int
	Character int
	Length    int
	TokenType int
}
