// File: parse/normalize.go
package parse

import "strings"

// normTable is a per-language set of rules for what text contributes
// to a node's stable id. Trivia kinds (comments, bare whitespace) are
// collapsed to a constant so editing a comment or re-indenting a line
// never changes the stable id of anything, including ancestors.
type normTable struct {
	trivia             map[string]struct{}
	collapseWhitespace bool
}

func (n normTable) normalize(kind, text string) string {
	if _, trivia := n.trivia[kind]; trivia {
		return ""
	}
	if n.collapseWhitespace {
		return strings.Join(strings.Fields(text), " ")
	}
	return text
}

func triviaSet(kinds ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return m
}

// normTables is the per-language normalization table keyed by
// language id. languageTable falls back to a generic table (line
// comments plus whitespace collapsing) for unlisted languages.
var normTables = map[string]normTable{
	"go": {
		trivia:             triviaSet("comment", "line_comment", "block_comment"),
		collapseWhitespace: true,
	},
	"rust": {
		trivia:             triviaSet("line_comment", "block_comment", "doc_comment"),
		collapseWhitespace: true,
	},
	"typescript": {
		trivia:             triviaSet("comment", "jsx_text"),
		collapseWhitespace: true,
	},
	"javascript": {
		trivia:             triviaSet("comment"),
		collapseWhitespace: true,
	},
	"python": {
		trivia:             triviaSet("comment"),
		collapseWhitespace: false, // indentation is significant
	},
}

var genericTable = normTable{
	trivia:             triviaSet("comment", "line_comment", "block_comment", "whitespace"),
	collapseWhitespace: true,
}

func languageTable(language string) normTable {
	if t, ok := normTables[language]; ok {
		return t
	}
	return genericTable
}
