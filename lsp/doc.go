// Package lsp implements the in-process LSP-style gateway (spec.md
// §4.10): document store, symbol index, priority admission queue, and
// the method dispatch table serving textDocument/* and workspace/*
// requests against the parse cache (package parse).
package lsp
