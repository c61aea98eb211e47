// File: vectorindex/persist_test.go
package vectorindex

import (
	"context"
	"math/rand"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
)

func TestPersist_ReopenRestoresTrainedIndexWithoutRetraining(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := DefaultConfig(dir, "model-a")
	ix, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rnd := rand.New(rand.NewSource(11))
	const dim = 16
	for i := 0; i < 300; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, dim), api.SourceMetadata{})
	}
	if err := ix.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	wantNlist := ix.snap.Load().ivf.nlist

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Trained() {
		t.Fatal("expected the reopened index to already be trained")
	}
	if reopened.Count() != 300 {
		t.Fatalf("Count() = %d, want 300", reopened.Count())
	}
	if got := reopened.snap.Load().ivf.nlist; got != wantNlist {
		t.Fatalf("nlist after reopen = %d, want %d (centroids should be loaded, not retrained)", got, wantNlist)
	}
}

func TestPersist_ModelIDChangeStartsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	rnd := rand.New(rand.NewSource(12))

	ix, _ := Open(DefaultConfig(dir, "model-a"))
	for i := 0; i < 10; i++ {
		ix.Add(ctx, testKey(uint64(i)), randomVector(rnd, 8), api.SourceMetadata{})
	}
	ix.Flush(ctx)

	reopened, err := Open(DefaultConfig(dir, "model-b"))
	if err != nil {
		t.Fatalf("Open with different model id: %v", err)
	}
	if reopened.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after a model id change", reopened.Count())
	}
}
