// File: metrics/tracer_test.go
package metrics

import (
	"context"
	"testing"
)

func TestNewTracerProvider_StartsAndEndsSpan(t *testing.T) {
	tp, shutdown, err := NewTracerProvider(TracerConfig{ServiceName: "test-service"})
	if err != nil {
		t.Fatalf("NewTracerProvider: %v", err)
	}
	defer shutdown(context.Background())

	tracer := tp.Tracer("test")
	_, span := tracer.Start(context.Background(), "op")
	span.End()
}
