package lsp

import (
	"sync"

	"github.com/hioload-ai/coderuntime/api"
)

// documentStore holds every open editor buffer (spec.md §4.10
// "State"), keyed by URI. Each URI gets its own mutex so
// didOpen/didChange/didClose are serialized per file without blocking
// unrelated files (spec.md §5 "Shared resources": "read-many/write-one
// lock per URI").
type documentStore struct {
	mu        sync.RWMutex
	docs      map[string]*api.Document
	languages map[string]string
	locks     map[string]*sync.Mutex
}

func newDocumentStore() *documentStore {
	return &documentStore{
		docs:      make(map[string]*api.Document),
		languages: make(map[string]string),
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockURI returns the per-URI serialization mutex, creating it on
// first use.
func (s *documentStore) lockURI(uri string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[uri]
	if !ok {
		l = &sync.Mutex{}
		s.locks[uri] = l
	}
	return l
}

func (s *documentStore) put(d *api.Document, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.URI] = d
	s.languages[d.URI] = language
}

// language returns the language tag recorded for a URI's last
// didOpen/didChange, or "" if unknown.
func (s *documentStore) language(uri string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.languages[uri]
}

func (s *documentStore) get(uri string) (*api.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

func (s *documentStore) delete(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
	delete(s.languages, uri)
	delete(s.locks, uri)
}

// all returns a snapshot of every currently open document.
func (s *documentStore) all() []*api.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*api.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out
}
