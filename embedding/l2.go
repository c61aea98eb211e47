// File: embedding/l2.go
//
// l2Store is the write-through on-disk tier: every Put lands here
// before Get returns, and it remains the authoritative copy for keys
// evicted from L1 or not yet folded into an L3 snapshot. Records are
// named by a sequence number rather than an escaped key, with a JSON
// manifest mapping Key -> filename reloaded at startup, so arbitrary
// model id strings never have to round-trip through a filesystem-safe
// encoding.
package embedding

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hioload-ai/coderuntime/api"
)

// manifestEntry mirrors one Key for JSON persistence. StableID is
// hex-encoded since a [16]byte array marshals as a JSON array of
// small ints otherwise, which is both noisy and fragile across gob/json
// boundary changes.
type manifestEntry struct {
	StableID string `json:"stable_id"`
	ModelID  string `json:"model_id"`
	File     string `json:"file"`
}

type l2Store struct {
	dir     string
	mu      sync.Mutex
	index   map[Key]string // Key -> filename
	nextSeq uint64
}

func newL2Store(dir string) (*l2Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("embedding: l2 mkdir: %w", err)
	}
	s := &l2Store{dir: dir, index: make(map[Key]string)}
	if err := s.loadManifest(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *l2Store) manifestPath() string { return filepath.Join(s.dir, "manifest.json") }

func (s *l2Store) loadManifest() error {
	data, err := os.ReadFile(s.manifestPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("embedding: l2 manifest decode: %w", err)
	}
	for _, e := range entries {
		raw, err := hex.DecodeString(e.StableID)
		if err != nil {
			return fmt.Errorf("embedding: l2 manifest stable id decode: %w", err)
		}
		var id api.StableID
		copy(id[:], raw)
		k := Key{StableID: id, ModelID: e.ModelID}
		s.index[k] = e.File
		s.nextSeq++
	}
	return nil
}

// saveManifest persists the current index atomically. Called under
// s.mu.
func (s *l2Store) saveManifest() error {
	entries := make([]manifestEntry, 0, len(s.index))
	for k, f := range s.index {
		entries = append(entries, manifestEntry{StableID: hex.EncodeToString(k.StableID[:]), ModelID: k.ModelID, File: f})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	tmp := s.manifestPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.manifestPath())
}

func (s *l2Store) get(k Key) (compressed []byte, ok bool, err error) {
	s.mu.Lock()
	name, found := s.index[k]
	s.mu.Unlock()
	if !found {
		return nil, false, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// put writes compressed atomically via a temp-file-then-rename, then
// records the key in the manifest, so a crash mid-write never leaves
// a torn record reachable.
func (s *l2Store) put(k Key, compressed []byte) error {
	s.mu.Lock()
	name, exists := s.index[k]
	if !exists {
		name = fmt.Sprintf("%d.zst", s.nextSeq)
		s.nextSeq++
	}
	s.mu.Unlock()

	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("embedding: l2 write: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("embedding: l2 rename: %w", err)
	}

	s.mu.Lock()
	s.index[k] = name
	err := s.saveManifest()
	s.mu.Unlock()
	return err
}

// snapshot returns every (Key, compressed-bytes) pair currently on
// disk, for building an L3 mmap snapshot.
func (s *l2Store) snapshot() (map[Key][]byte, error) {
	s.mu.Lock()
	index := make(map[Key]string, len(s.index))
	for k, v := range s.index {
		index[k] = v
	}
	s.mu.Unlock()

	out := make(map[Key][]byte, len(index))
	for k, name := range index {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = data
	}
	return out, nil
}
