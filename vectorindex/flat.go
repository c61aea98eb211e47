// File: vectorindex/flat.go
package vectorindex

import (
	"sort"

	"github.com/hioload-ai/coderuntime/api"
)

// flatIndex is an exact brute-force scan, used for snapshots built
// from fewer than TrainingThreshold records.
type flatIndex struct {
	records []record
}

func newFlatIndex(records []record) *flatIndex {
	return &flatIndex{records: records}
}

func (f *flatIndex) search(query []float32, k int) []api.Match {
	if k > len(f.records) {
		k = len(f.records)
	}
	matches := make([]api.Match, len(f.records))
	for i, r := range f.records {
		matches[i] = api.Match{Key: r.Key, Score: -sqDist(query, r.Vector), Meta: r.Meta}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}
