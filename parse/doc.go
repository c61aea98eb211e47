// Package parse implements the incremental parse cache of spec.md
// §4.9: syntax trees stored in a flat node arena, each node carrying a
// stable id derived from its kind, normalized text, and its children's
// stable ids, so unchanged subtrees keep an identical id across
// re-parses. DetectChanges walks a before/after tree pair to produce
// the modified/added/removed changeset the embedding layer uses to
// decide what needs re-embedding.
package parse
