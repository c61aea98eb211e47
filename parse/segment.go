// File: parse/segment.go
package parse

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// SegmentThreshold is the node count above which a tree moves from the
// live (Memory tier) arena to a SegmentedTree: its arena is chunked
// and each chunk compressed independently, per spec.md §3.7's
// Segmented tier for very large objects.
const SegmentThreshold = 20000

const segmentSize = 2000 // nodes per compressed chunk

// SegmentedTree is the frozen, chunk-compressed form of a Tree too
// large to keep fully resident. Chunks decompress independently so a
// caller touching one region of a huge file doesn't pay to reify the
// whole arena — though Reify here always materializes the whole tree,
// since DetectChanges needs the full arena to walk; per-chunk partial
// reification is left for a caller that only needs specific subtrees.
type SegmentedTree struct {
	URI      string
	Version  int
	Root     NodeIndex
	segments [][]byte // each one zstd-compressed gob-encoded []Node
}

func newSegmentTreeCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, nil, fmt.Errorf("parse: new zstd decoder: %w", err)
	}
	return enc, dec, nil
}

// Segment splits t's arena into fixed-size chunks and compresses each
// independently.
func Segment(t *Tree) (*SegmentedTree, error) {
	enc, dec, err := newSegmentTreeCodec()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	defer dec.Close()

	st := &SegmentedTree{URI: t.URI, Version: t.Version, Root: t.Root}
	for start := 0; start < len(t.Nodes); start += segmentSize {
		end := start + segmentSize
		if end > len(t.Nodes) {
			end = len(t.Nodes)
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(t.Nodes[start:end]); err != nil {
			return nil, fmt.Errorf("parse: encode segment: %w", err)
		}
		st.segments = append(st.segments, enc.EncodeAll(buf.Bytes(), nil))
	}
	return st, nil
}

// Reify decompresses every segment and rebuilds the full Tree.
func (st *SegmentedTree) Reify() (*Tree, error) {
	_, dec, err := newSegmentTreeCodec()
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	t := &Tree{URI: st.URI, Version: st.Version, Root: st.Root}
	for i, seg := range st.segments {
		raw, err := dec.DecodeAll(seg, nil)
		if err != nil {
			return nil, fmt.Errorf("parse: decode segment %d: %w", i, err)
		}
		var nodes []Node
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&nodes); err != nil {
			return nil, fmt.Errorf("parse: decode segment %d nodes: %w", i, err)
		}
		t.Nodes = append(t.Nodes, nodes...)
	}
	return t, nil
}
