// File: vectorindex/persist.go
package vectorindex

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hioload-ai/coderuntime/api"
)

// persisted mirrors the fields of snapshot (and its embedded flat/ivf
// structures) needed to reopen an index without re-training. Reopen
// is then just a gob decode of this struct, not a k-means re-run, so
// the cost of a restart doesn't grow with how long training took.
type persisted struct {
	ModelID string
	Dim     int
	Records []record

	// Populated only when the index was trained (len(Records) >= TrainingThreshold).
	Trained   bool
	Nlist     int
	Centroids [][]float32
	SubDim    int
	NumSub    int
	Codebooks [][][]float32
	Lists     [][]pqEntry
}

const indexFileName = "index.gob"

// save atomically persists s under dir, tagged with modelID so a
// later reopen can detect a model change and force retraining
// instead of trusting stale codebooks.
func save(dir, modelID string, s *snapshot) error {
	p := persisted{
		ModelID: modelID,
		Dim:     s.dim,
		Records: s.records,
	}
	if s.ivf != nil {
		p.Trained = true
		p.Nlist = s.ivf.nlist
		p.Centroids = s.ivf.centroids
		p.SubDim = s.ivf.subDim
		p.NumSub = s.ivf.numSub
		p.Codebooks = s.ivf.codebooks
		p.Lists = s.ivf.lists
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&p); err != nil {
		return fmt.Errorf("vectorindex: encode snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vectorindex: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "index-*.tmp")
	if err != nil {
		return fmt.Errorf("vectorindex: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vectorindex: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vectorindex: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vectorindex: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, indexFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vectorindex: rename into place: %w", err)
	}
	return nil
}

// errModelMismatch signals that a persisted index was trained under a
// different embedding model id and must be rebuilt from scratch.
var errModelMismatch = errors.New("vectorindex: persisted index model id mismatch")

// load reopens a previously-saved index without re-training. It
// returns (nil, nil) if no snapshot exists yet (a fresh directory).
func load(dir, modelID string, seed int64) (*snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vectorindex: read snapshot: %w", err)
	}

	var p persisted
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("vectorindex: decode snapshot: %w", err)
	}
	if p.ModelID != modelID {
		return nil, errModelMismatch
	}

	s := &snapshot{dim: p.Dim, records: p.Records}
	if p.Trained {
		recordsByKey := make(map[api.EmbeddingKey]record, len(p.Records))
		for _, r := range p.Records {
			recordsByKey[r.Key] = r
		}
		s.ivf = &ivfpqIndex{
			dim:       p.Dim,
			nlist:     p.Nlist,
			centroids: p.Centroids,
			subDim:    p.SubDim,
			numSub:    p.NumSub,
			codebooks: p.Codebooks,
			lists:     p.Lists,
			records:   recordsByKey,
		}
	} else {
		s.flat = newFlatIndex(p.Records)
	}
	return s, nil
}
