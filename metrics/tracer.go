// File: metrics/tracer.go
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerConfig names the service for resource attribution.
type TracerConfig struct {
	ServiceName string
}

// NewTracerProvider builds an SDK tracer provider and installs it as
// the global provider, returning a shutdown func callers should defer.
// No exporter is wired here: a caller adds one (OTLP, stdout, ...) via
// sdktrace.WithBatcher before spans are produced in anger; this
// provider is usable standalone for in-process span propagation and
// testing.
func NewTracerProvider(cfg TracerConfig) (trace.TracerProvider, func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider, the idiom
// every subsystem uses to start spans without threading a
// *TracerProvider through every constructor.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
