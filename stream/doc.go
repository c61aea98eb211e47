// Package stream decodes provider streaming responses (SSE or
// newline-delimited JSON) into the canonical api.StreamToken model
// (spec.md §4.5), so provider-specific wire formats never leak past
// this package's adapters.
package stream
