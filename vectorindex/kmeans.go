// File: vectorindex/kmeans.go
//
// A small Lloyd's-algorithm k-means, shared by IVF partition training
// and PQ sub-quantizer training. Vectors it's given are always
// fixed-dimension float32 slices; it never mutates its input.
package vectorindex

import "math/rand"

// kmeans runs up to maxIters Lloyd iterations over vecs, returning k
// centroids. If len(vecs) < k, k is clamped to len(vecs), so only
// len(vecs) centroids are returned (callers needing an exact k avoid
// this by checking counts before calling).
func kmeans(vecs [][]float32, k, maxIters int, rnd *rand.Rand) [][]float32 {
	if len(vecs) == 0 || k <= 0 {
		return nil
	}
	dim := len(vecs[0])
	if k > len(vecs) {
		k = len(vecs)
	}

	centroids := make([][]float32, k)
	perm := rnd.Perm(len(vecs))
	for i := 0; i < k; i++ {
		centroids[i] = append([]float32(nil), vecs[perm[i]]...)
	}

	assignment := make([]int, len(vecs))
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for vi, v := range vecs {
			best, bestDist := 0, sqDist(v, centroids[0])
			for ci := 1; ci < k; ci++ {
				d := sqDist(v, centroids[ci])
				if d < bestDist {
					best, bestDist = ci, d
				}
			}
			if assignment[vi] != best {
				assignment[vi] = best
				changed = true
			}
		}

		sums := make([][]float32, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float32, dim)
		}
		for vi, v := range vecs {
			c := assignment[vi]
			counts[c]++
			for d := 0; d < dim; d++ {
				sums[c][d] += v[d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue // keep the previous centroid; an empty cluster contributes nothing to re-estimate it from
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float32(counts[c])
			}
		}
		if !changed {
			break
		}
	}
	return centroids
}

func sqDist(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func nearestCentroid(v []float32, centroids [][]float32) (idx int, dist float32) {
	idx, dist = 0, sqDist(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := sqDist(v, centroids[i])
		if d < dist {
			idx, dist = i, d
		}
	}
	return idx, dist
}
