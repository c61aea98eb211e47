// Package vectorindex implements the IVF-PQ nearest-neighbor index of
// spec.md §4.8: vectors are partitioned into inverted-file clusters
// and product-quantized to 8-bit codes, with a flat-scan fallback
// below the training threshold, a TTL/size-capped query cache, and
// atomic flush/copy-on-write snapshot consistency so concurrent
// readers never observe a torn index.
package vectorindex
