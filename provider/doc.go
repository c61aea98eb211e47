// Package provider implements the uniform dispatch layer over remote
// model providers (spec.md §4.6): a name-keyed registry with
// namespace/default/any-healthy routing, per-provider AIMD rate
// limiting, a three-state circuit breaker, and exponential-backoff
// retry for non-streaming calls.
package provider
