// Package metrics is the ambient observability layer carried across
// every component regardless of spec.md's feature-level Non-goals: a
// Prometheus registry for counters/histograms, and an OpenTelemetry
// tracer provider for request-scoped spans through the provider and
// coordinator call paths.
package metrics
