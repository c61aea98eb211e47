package coordinator

import "testing"

func TestSnapshot_WriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Snapshot{
		Workspace: dir,
		Documents: []documentSnapshot{
			{URI: "a.go", Text: "package a", Version: 1, Language: "go"},
			{URI: "b.go", Text: "package b", Version: 2, Language: "go"},
		},
	}
	if err := writeSnapshot(dir, want); err != nil {
		t.Fatalf("writeSnapshot: %v", err)
	}

	got, err := readSnapshot(dir)
	if err != nil {
		t.Fatalf("readSnapshot: %v", err)
	}
	if got == nil {
		t.Fatal("readSnapshot returned nil, want snapshot")
	}
	if len(got.Documents) != 2 || got.Documents[0].URI != "a.go" || got.Documents[1].URI != "b.go" {
		t.Fatalf("got %+v", got.Documents)
	}
}

func TestSnapshot_ReadMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	got, err := readSnapshot(dir)
	if err != nil {
		t.Fatalf("readSnapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for missing snapshot", got)
	}
}

func TestSnapshot_WorkspaceMismatchIgnored(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	if err := writeSnapshot(dir, &Snapshot{Workspace: other}); err != nil {
		t.Fatalf("writeSnapshot: %v", err)
	}
	got, err := readSnapshot(dir)
	if err != nil {
		t.Fatalf("readSnapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil when workspace field doesn't match", got)
	}
}
