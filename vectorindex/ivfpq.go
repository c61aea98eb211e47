// File: vectorindex/ivfpq.go
package vectorindex

import (
	"math/rand"
	"sort"

	"github.com/hioload-ai/coderuntime/api"
)

// TrainingThreshold is the minimum corpus size before an IVF-PQ index
// is built; smaller corpora use flatIndex instead, per spec.md §4.8.
const TrainingThreshold = 256

const pqCodeCentroids = 256 // 8-bit codes

// ivfpqIndex partitions records into nlist inverted lists keyed by
// nearest coarse centroid, and product-quantizes each record's
// residual (vector minus its assigned centroid) into M sub-codes.
// Raw vectors are kept alongside the codes so Query can exact-rerank
// the refine_factor over-fetch instead of scoring off reconstructed
// (lossy) vectors.
type ivfpqIndex struct {
	dim       int
	nlist     int
	centroids [][]float32 // nlist x dim
	subDim    int
	numSub    int
	codebooks [][][]float32 // numSub x pqCodeCentroids x subDim
	lists     [][]pqEntry   // nlist inverted lists
	records   map[api.EmbeddingKey]record
}

type pqEntry struct {
	Key  api.EmbeddingKey
	Code []byte // numSub bytes
}

// chooseNlist picks a partition count in [16,256] scaled to corpus
// size so each cluster holds on the order of a few dozen vectors.
func chooseNlist(n int) int {
	nlist := n / 40
	if nlist < 16 {
		nlist = 16
	}
	if nlist > 256 {
		nlist = 256
	}
	if nlist > n {
		nlist = n
	}
	return nlist
}

// chooseNumSub picks the largest divisor of dim that is <= 8, so each
// sub-vector quantizer has a reasonably sized sub-space; falls back
// to 1 (the whole vector as one sub-vector) if dim is prime and >8.
func chooseNumSub(dim int) int {
	for m := 8; m >= 1; m-- {
		if dim%m == 0 {
			return m
		}
	}
	return 1
}

func buildIVFPQ(records []record, seed int64) *ivfpqIndex {
	dim := len(records[0].Vector)
	rnd := rand.New(rand.NewSource(seed))

	nlist := chooseNlist(len(records))
	vecs := make([][]float32, len(records))
	for i, r := range records {
		vecs[i] = r.Vector
	}
	centroids := kmeans(vecs, nlist, 25, rnd)
	nlist = len(centroids)

	numSub := chooseNumSub(dim)
	subDim := dim / numSub

	assigned := make([]int, len(records))
	residuals := make([][]float32, len(records))
	for i, r := range records {
		ci, _ := nearestCentroid(r.Vector, centroids)
		assigned[i] = ci
		res := make([]float32, dim)
		for d := 0; d < dim; d++ {
			res[d] = r.Vector[d] - centroids[ci][d]
		}
		residuals[i] = res
	}

	codebooks := make([][][]float32, numSub)
	for m := 0; m < numSub; m++ {
		sub := make([][]float32, len(residuals))
		for i, r := range residuals {
			sub[i] = r[m*subDim : (m+1)*subDim]
		}
		codebooks[m] = kmeans(sub, pqCodeCentroids, 15, rnd)
	}

	lists := make([][]pqEntry, nlist)
	recordsByKey := make(map[api.EmbeddingKey]record, len(records))
	for i, r := range records {
		code := make([]byte, numSub)
		for m := 0; m < numSub; m++ {
			sub := residuals[i][m*subDim : (m+1)*subDim]
			ci, _ := nearestCentroid(sub, codebooks[m])
			code[m] = byte(ci)
		}
		ci := assigned[i]
		lists[ci] = append(lists[ci], pqEntry{Key: r.Key, Code: code})
		recordsByKey[r.Key] = r
	}

	return &ivfpqIndex{
		dim:       dim,
		nlist:     nlist,
		centroids: centroids,
		subDim:    subDim,
		numSub:    numSub,
		codebooks: codebooks,
		lists:     lists,
		records:   recordsByKey,
	}
}

// withInserted returns a copy of ix with r added, encoded against the
// existing centroids and codebooks rather than retraining them. Used
// to absorb new records between full retrains; the copy shares the
// old entry slices structurally (append-or-copy-on-write) so a reader
// still holding the previous *ivfpqIndex is unaffected.
func (ix *ivfpqIndex) withInserted(r record) *ivfpqIndex {
	ci, _ := nearestCentroid(r.Vector, ix.centroids)
	residual := make([]float32, ix.dim)
	for d := 0; d < ix.dim; d++ {
		residual[d] = r.Vector[d] - ix.centroids[ci][d]
	}
	code := make([]byte, ix.numSub)
	for m := 0; m < ix.numSub; m++ {
		sub := residual[m*ix.subDim : (m+1)*ix.subDim]
		cc, _ := nearestCentroid(sub, ix.codebooks[m])
		code[m] = byte(cc)
	}

	lists := make([][]pqEntry, len(ix.lists))
	copy(lists, ix.lists)
	lists[ci] = append(append([]pqEntry(nil), lists[ci]...), pqEntry{Key: r.Key, Code: code})

	records := make(map[api.EmbeddingKey]record, len(ix.records)+1)
	for k, v := range ix.records {
		records[k] = v
	}
	records[r.Key] = r

	return &ivfpqIndex{
		dim:       ix.dim,
		nlist:     ix.nlist,
		centroids: ix.centroids,
		subDim:    ix.subDim,
		numSub:    ix.numSub,
		codebooks: ix.codebooks,
		lists:     lists,
		records:   records,
	}
}

// withRemoved returns a copy of ix with every record whose key is in
// keys dropped from its inverted lists and record map. Centroids and
// codebooks are unchanged; a key not present is a no-op.
func (ix *ivfpqIndex) withRemoved(keys map[api.EmbeddingKey]struct{}) *ivfpqIndex {
	lists := make([][]pqEntry, len(ix.lists))
	for i, l := range ix.lists {
		kept := make([]pqEntry, 0, len(l))
		for _, e := range l {
			if _, drop := keys[e.Key]; !drop {
				kept = append(kept, e)
			}
		}
		lists[i] = kept
	}
	records := make(map[api.EmbeddingKey]record, len(ix.records))
	for k, v := range ix.records {
		if _, drop := keys[k]; !drop {
			records[k] = v
		}
	}
	return &ivfpqIndex{
		dim:       ix.dim,
		nlist:     ix.nlist,
		centroids: ix.centroids,
		subDim:    ix.subDim,
		numSub:    ix.numSub,
		codebooks: ix.codebooks,
		lists:     lists,
		records:   records,
	}
}

// search probes the nprobes coarse clusters nearest the query,
// approximately scores every candidate via precomputed ADC distance
// tables, takes the top k*refineFactor candidates, then re-ranks them
// by exact L2 distance against the stored raw vectors.
func (ix *ivfpqIndex) search(query []float32, k, nprobes, refineFactor int) []api.Match {
	if nprobes <= 0 {
		nprobes = 1
	}
	if nprobes > ix.nlist {
		nprobes = ix.nlist
	}
	if refineFactor < 1 {
		refineFactor = 1
	}

	type scored struct {
		key    api.EmbeddingKey
		approx float32
	}
	clusterOrder := make([]int, ix.nlist)
	for i := range clusterOrder {
		clusterOrder[i] = i
	}
	sort.Slice(clusterOrder, func(i, j int) bool {
		return sqDist(query, ix.centroids[clusterOrder[i]]) < sqDist(query, ix.centroids[clusterOrder[j]])
	})

	distTables := make([][]float32, ix.numSub)
	for m := 0; m < ix.numSub; m++ {
		qSub := query[m*ix.subDim : (m+1)*ix.subDim]
		table := make([]float32, len(ix.codebooks[m]))
		for c, centroid := range ix.codebooks[m] {
			table[c] = sqDist(qSub, centroid)
		}
		distTables[m] = table
	}

	var candidates []scored
	for p := 0; p < nprobes; p++ {
		clusterID := clusterOrder[p]
		coarseDist := sqDist(query, ix.centroids[clusterID])
		for _, e := range ix.lists[clusterID] {
			var approx float32 = coarseDist
			for m := 0; m < ix.numSub; m++ {
				approx += distTables[m][e.Code[m]]
			}
			candidates = append(candidates, scored{key: e.Key, approx: approx})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].approx < candidates[j].approx })

	fetch := k * refineFactor
	if fetch > len(candidates) {
		fetch = len(candidates)
	}
	candidates = candidates[:fetch]

	matches := make([]api.Match, len(candidates))
	for i, c := range candidates {
		rec := ix.records[c.key]
		matches[i] = api.Match{Key: rec.Key, Score: -sqDist(query, rec.Vector), Meta: rec.Meta}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}
