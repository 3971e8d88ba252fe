// Package docstore caches the plain-text rendering of notes in memory.
// Note content is stored as editor HTML; flattening it is done once per note
// version and the result is kept here until the note changes.
package docstore

import (
	"slices"
	"sync"
)

// Store maps note IDs to their flattened text.
// Thread-safe for concurrent access from WASM callbacks.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// Document is the plain-text form of one note version.
type Document struct {
	ID      string // Note ID
	Text    string // Plain text content
	Version int    // Note version the text was derived from
}

// New creates an empty document store.
func New() *Store {
	return &Store{
		docs: make(map[string]*Document),
	}
}

// Hydrate bulk-loads documents into the store.
// Called once at startup with all notes.
func (s *Store) Hydrate(docs []Document) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		d := doc
		s.docs[doc.ID] = &d
	}
	return len(docs)
}

// Upsert adds or replaces the text for a note.
// An older version never replaces a newer one.
func (s *Store) Upsert(id, text string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.docs[id]; ok && cur.Version > version {
		return
	}
	s.docs[id] = &Document{
		ID:      id,
		Text:    text,
		Version: version,
	}
}

// Lookup returns the cached text for id only if it was derived from version.
func (s *Store) Lookup(id string, version int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok || doc.Version != version {
		return "", false
	}
	return doc.Text, true
}

// Remove deletes a document from the store.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
}

// Get retrieves a copy of a document by ID.
// Returns nil if not found.
func (s *Store) Get(id string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	cp := *doc
	return &cp
}

// GetText retrieves just the text content by ID.
// Returns empty string if not found.
func (s *Store) GetText(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[id]; ok {
		return doc.Text
	}
	return ""
}

// Count returns the number of documents in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

// AllIDs returns all document IDs in sorted order.
func (s *Store) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clear removes all documents.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]*Document)
}
