package lsp

// textDocumentIdentifier names the document a request targets.
type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

// positionParams is the common shape of hover/definition/references
// params: a document plus a cursor position inside it.
type positionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// referenceContext toggles whether the declaration itself is included
// in textDocument/references results.
type referenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

type referenceParams struct {
	positionParams
	Context referenceContext `json:"context"`
}

type documentParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

// didOpenParams mirrors the subset of textDocument/didOpen's
// TextDocumentItem this gateway needs.
type didOpenParams struct {
	TextDocument struct {
		URI        string `json:"uri"`
		LanguageID string `json:"languageId"`
		Version    int    `json:"version"`
		Text       string `json:"text"`
	} `json:"textDocument"`
}

// didChangeParams assumes full-document sync (no incremental text
// ranges): each change carries the complete new text, which is how
// the reference client in original_source/ drives re-parsing.
type didChangeParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int    `json:"version"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

// hoverResult is textDocument/hover's response shape.
type hoverResult struct {
	Contents string `json:"contents"`
	Range    Range  `json:"range"`
}
