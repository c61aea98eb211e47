// Package embedding implements the tiered embedding cache of spec.md
// §4.7: an in-memory L1 LRU of decompressed vectors, a write-through
// on-disk L2 of zstd-compressed records, and a memory-mapped L3 for
// read-zero-copy access to the same compressed records. Keys are
// (stable_id, model_id) pairs, so semantically unchanged parse-tree
// nodes reuse prior embeddings across edits.
package embedding
