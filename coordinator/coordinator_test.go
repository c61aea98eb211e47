package coordinator

import (
	"context"
	"testing"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/parse"
)

// fakeParser produces a single root node spanning the whole source, so
// coordinator tests exercise a real parse.Cache.Update / embedNode
// round trip without depending on a real grammar.
type fakeParser struct{}

func (fakeParser) Parse(language string, source []byte, prevTree *parse.Tree) (*parse.Tree, error) {
	t := parse.NewTree("")
	root := parse.AddNode(t, "source_file")
	n := parse.Get(t, root)
	n.ByteStart, n.ByteEnd = 0, len(source)
	n.Named = true
	t.Root = root
	return t, nil
}

var _ api.Parser = fakeParser{}

// fakeEmbedder returns a fixed-dimension vector derived from text
// length, enough to exercise the embedding cache and vector index
// without a real model.
type fakeEmbedder struct{ dim int }

func (e fakeEmbedder) Embed(text, language string) ([]float32, error) {
	v := make([]float32, e.dim)
	if e.dim > 0 {
		v[0] = float32(len(text))
	}
	return v, nil
}
func (e fakeEmbedder) Dim() int        { return e.dim }
func (e fakeEmbedder) ModelID() string { return "fake-model" }

var _ api.Embedder = fakeEmbedder{}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	c, err := New(cfg, fakeParser{}, fakeEmbedder{dim: 4}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCoordinator_DidOpenWiresEmbeddingAndIndex(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()
	if err := c.gateway.DidOpen(ctx, "f.go", "package main", 1, "go"); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	if err := c.index.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.index.Count() == 0 {
		t.Fatal("expected at least one record staged into the vector index after DidOpen")
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestCoordinator_ShutdownWritesRecoverableSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	c, err := New(cfg, fakeParser{}, fakeEmbedder{dim: 4}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := c.gateway.DidOpen(ctx, "f.go", "package main", 1, "go"); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	snap, err := readSnapshot(dir)
	if err != nil {
		t.Fatalf("readSnapshot: %v", err)
	}
	if snap == nil || len(snap.Documents) != 1 || snap.Documents[0].URI != "f.go" {
		t.Fatalf("got %+v, want one rehydratable document", snap)
	}

	c2, err := New(cfg, fakeParser{}, fakeEmbedder{dim: 4}, nil)
	if err != nil {
		t.Fatalf("New (rehydrate): %v", err)
	}
	reopened := false
	for _, d := range c2.gateway.OpenDocuments() {
		if d.URI == "f.go" {
			reopened = true
		}
	}
	if !reopened {
		t.Fatal("expected f.go to be reopened from the recovery snapshot")
	}
	if err := c2.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestCoordinator_StartStopRunsSchedulersWithoutPanicking(t *testing.T) {
	c := newTestCoordinator(t)
	c.cfg.HealthCheckInterval = 0
	c.cfg.TierMigrationInterval = 0
	c.cfg.IndexPersistInterval = 0
	c.cfg.ControlRing = "startstop-test-" + t.Name()
	c.Start()
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
