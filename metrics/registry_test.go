// File: metrics/registry_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_CountersIncrement(t *testing.T) {
	r := New()
	r.ProviderCalls.WithLabelValues("openai", "success").Inc()
	r.ProviderCalls.WithLabelValues("openai", "success").Inc()

	got := testutil.ToFloat64(r.ProviderCalls.WithLabelValues("openai", "success"))
	if got != 2 {
		t.Fatalf("counter = %v, want 2", got)
	}
}

func TestRegistry_GathererExposesMetrics(t *testing.T) {
	r := New()
	r.QueueDepth.WithLabelValues("interactive").Set(5)

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "coderuntime_lsp_admission_queue_depth" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the admission queue depth metric to be registered")
	}
}
