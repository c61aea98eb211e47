// File: coordinator/snapshot.go
//
// Coordinator rehydration data (spec.md §6.3 "recovery/snapshot.json"):
// on startup, a matching snapshot restores open documents without
// requiring the editor to replay every didOpen. Written atomically
// (write *.tmp then rename) the same way vectorindex and embedding
// persist their tiers, so a crash mid-write never corrupts the file a
// later startup reads.
package coordinator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const snapshotFileName = "snapshot.json"

// documentSnapshot captures one open document well enough to
// re-didOpen it without the editor's help.
type documentSnapshot struct {
	URI      string `json:"uri"`
	Text     string `json:"text"`
	Version  int    `json:"version"`
	Language string `json:"language"`
}

// Snapshot is the full recovery payload. Workspace is checked against
// the configured workspace on load so a snapshot from a different
// workspace is never rehydrated by mistake.
//
// Diagnostics aren't carried yet: no handler in this tree currently
// produces textDocument/publishDiagnostics output, so there is
// nothing to round-trip. Add a Diagnostics field here once a
// diagnostics-producing component exists.
type Snapshot struct {
	Workspace string             `json:"workspace"`
	Documents []documentSnapshot `json:"documents"`
}

func recoveryDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, "recovery")
}

// writeSnapshot atomically persists s under workspaceDir/recovery/.
func writeSnapshot(workspaceDir string, s *Snapshot) error {
	dir := recoveryDir(workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("coordinator: mkdir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("coordinator: encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("coordinator: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("coordinator: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("coordinator: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("coordinator: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, snapshotFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("coordinator: rename into place: %w", err)
	}
	return nil
}

// readSnapshot loads the recovery snapshot for workspaceDir. It
// returns (nil, nil) if none exists yet, and a nil Snapshot plus no
// error if one exists but names a different workspace (spec.md §4.11
// step 1: "matches the workspace").
func readSnapshot(workspaceDir string) (*Snapshot, error) {
	path := filepath.Join(recoveryDir(workspaceDir), snapshotFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("coordinator: read snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("coordinator: decode snapshot: %w", err)
	}
	if s.Workspace != workspaceDir {
		return nil, nil
	}
	return &s, nil
}
