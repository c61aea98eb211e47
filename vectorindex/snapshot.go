// File: vectorindex/snapshot.go
package vectorindex

import "github.com/hioload-ai/coderuntime/api"

// snapshot is one immutable generation of the index: either a flat
// scan (below TrainingThreshold) or a trained IVF-PQ structure.
// Index swaps its snapshot pointer atomically on Flush so that
// in-flight Query calls always see one consistent generation,
// pre-flush or post-flush, never a mix of the two.
type snapshot struct {
	dim     int
	records []record // retained verbatim so Flush can rebuild/retrain from the full corpus
	flat    *flatIndex
	ivf     *ivfpqIndex
}

func buildSnapshot(records []record, seed int64) *snapshot {
	s := &snapshot{records: records}
	if len(records) > 0 {
		s.dim = len(records[0].Vector)
	}
	if len(records) >= TrainingThreshold {
		s.ivf = buildIVFPQ(records, seed)
	} else {
		s.flat = newFlatIndex(records)
	}
	return s
}

func (s *snapshot) search(query []float32, opts QueryOptions) []api.Match {
	if s.ivf != nil {
		return s.ivf.search(query, opts.K, opts.NProbes, opts.RefineFactor)
	}
	if s.flat != nil {
		return s.flat.search(query, opts.K)
	}
	return nil
}
