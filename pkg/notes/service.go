// Package notes is the note repository used by the chat service, the CLI and
// the browser bridge. Notes are versioned in the store; every edit writes a
// new version.
package notes

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/docstore"
)

// ErrNotFound is returned when a note ID does not exist.
var ErrNotFound = errors.New("note not found")

const (
	// Untitled is shown for notes with an empty title.
	Untitled = "Untitled"
	// DefaultTitle is given to notes created without a title.
	DefaultTitle = "Untitled Note"
	// NoContent is the preview of an empty note.
	NoContent = "No content"
)

// Service manages notes.
type Service struct {
	store store.Storer
	docs  *docstore.Store
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logging.OrDiscard(l) }
}

// WithDocStore shares a preview cache.
func WithDocStore(d *docstore.Store) Option {
	return func(s *Service) { s.docs = d }
}

// NewService creates a note service over st.
func NewService(st store.Storer, opts ...Option) *Service {
	s := &Service{
		store: st,
		docs:  docstore.New(),
		now:   time.Now,
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DisplayTitle returns the title to show for n.
func DisplayTitle(n *store.Note) string {
	if strings.TrimSpace(n.Title) == "" {
		return Untitled
	}
	return n.Title
}

// Create stores a new note.
func (s *Service) Create(title, content string) (*store.Note, error) {
	now := s.now().UnixMilli()
	note := &store.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNote(note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	s.log.Debug("note created", "id", note.ID, "title", note.Title)
	return note, nil
}

// Patch lists the fields to change. Nil fields are left as they are.
type Patch struct {
	Title   *string
	Content *string
}

// Update applies p to the note and writes a new version.
// The updated timestamp is refreshed even when p changes nothing.
func (s *Service) Update(id string, p Patch) (*store.Note, error) {
	note, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		note.Title = *p.Title
	}
	if p.Content != nil {
		note.Content = *p.Content
	}
	note.UpdatedAt = s.now().UnixMilli()

	if err := s.store.UpdateNote(note, "edit"); err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	s.log.Debug("note updated", "id", id, "version", note.Version)
	return note, nil
}

// Delete removes a note and all its versions.
func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.store.DeleteNote(id); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	s.docs.Remove(id)
	s.log.Debug("note deleted", "id", id)
	return nil
}

// Get returns the current version of a note.
func (s *Service) Get(id string) (*store.Note, error) {
	note, err := s.store.GetNote(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	if note == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return note, nil
}

// List returns all notes in creation order.
func (s *Service) List() ([]*store.Note, error) {
	notes, err := s.store.ListNotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Search returns notes whose title or content contains query, ignoring case.
// An empty query matches every note.
func (s *Service) Search(query string) ([]*store.Note, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var found []*store.Note
	for _, n := range all {
		if strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle) {
			found = append(found, n)
		}
	}
	return found, nil
}

// History returns every version of a note, newest first.
func (s *Service) History(id string) ([]*store.Note, error) {
	versions, err := s.store.ListNoteVersions(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of note %s: %w", id, err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return versions, nil
}

// Restore makes an old version current again by writing it as a new version.
func (s *Service) Restore(id string, version int) (*store.Note, error) {
	old, err := s.store.GetNoteVersion(id, version)
	if err != nil {
		return nil, fmt.Errorf("failed to get version %d of note %s: %w", version, id, err)
	}
	if old == nil {
		return nil, fmt.Errorf("%w: %s version %d", ErrNotFound, id, version)
	}

	if err := s.store.RestoreNoteVersion(id, version, s.now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to restore note %s: %w", id, err)
	}
	s.log.Info("note restored", "id", id, "version", version)
	return s.Get(id)
}
