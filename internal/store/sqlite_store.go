// Package store provides SQLite-backed persistence for kiwii.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteStore is the SQLite-backed data store.
// Thread-safe for concurrent WASM callbacks and CLI use.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines all tables for the unified data layer with temporal versioning.
const schema = `
-- Notes (Temporal versioning pattern)
-- Composite primary key (id, version) enables full version history
CREATE TABLE IF NOT EXISTS notes (
    id TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    valid_from INTEGER NOT NULL,
    valid_to INTEGER,
    is_current INTEGER DEFAULT 1,
    change_reason TEXT,
    PRIMARY KEY (id, version)
);

-- Partial index for current versions (fast queries)
CREATE INDEX IF NOT EXISTS idx_notes_current ON notes(id) WHERE is_current = 1;
-- Index for history queries
CREATE INDEX IF NOT EXISTS idx_notes_history ON notes(id, valid_from);

-- Todos
CREATE TABLE IF NOT EXISTS todos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    completed INTEGER DEFAULT 0,
    due_date INTEGER,
    priority TEXT NOT NULL DEFAULT 'medium',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_todos_completed ON todos(completed);

-- Calendar events
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    start_at INTEGER NOT NULL,
    end_at INTEGER NOT NULL,
    color TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);

-- Chat history (single conversation)
CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Info reports the SQLite and sqlite-vec versions compiled into the driver.
func (s *SQLiteStore) Info() (*Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info Info
	if err := s.db.QueryRow(`SELECT sqlite_version()`).Scan(&info.SQLiteVersion); err != nil {
		return nil, fmt.Errorf("failed to read sqlite version: %w", err)
	}
	// vec_version() only exists when the sqlite-vec build is linked in.
	var vec sql.NullString
	if err := s.db.QueryRow(`SELECT vec_version()`).Scan(&vec); err == nil && vec.Valid {
		info.VecVersion = vec.String
	}
	return &info, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// =============================================================================
// Note CRUD
// =============================================================================

const noteColumns = `id, version, title, content, created_at, updated_at,
	valid_from, valid_to, is_current, change_reason`

func scanNote(row rowScanner) (*Note, error) {
	var note Note
	var isCurrent int
	var validTo sql.NullInt64
	var changeReason sql.NullString

	if err := row.Scan(
		&note.ID, &note.Version, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt,
		&note.ValidFrom, &validTo, &isCurrent, &changeReason,
	); err != nil {
		return nil, err
	}

	note.IsCurrent = isCurrent != 0
	if validTo.Valid {
		v := validTo.Int64
		note.ValidTo = &v
	}
	if changeReason.Valid {
		note.ChangeReason = changeReason.String
	}
	return &note, nil
}

func scanNotes(rows *sql.Rows) ([]*Note, error) {
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func insertNote(ex execer, note *Note) error {
	_, err := ex.Exec(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.Version, note.Title, note.Content, note.CreatedAt, note.UpdatedAt,
		note.ValidFrom, note.ValidTo, boolToInt(note.IsCurrent), note.ChangeReason)
	return err
}

// CreateNote creates a new note with version 1.
func (s *SQLiteStore) CreateNote(note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createNoteLocked(note)
}

func (s *SQLiteStore) createNoteLocked(note *Note) error {
	// Set version defaults
	if note.Version == 0 {
		note.Version = 1
	}
	if note.UpdatedAt < note.CreatedAt {
		note.UpdatedAt = note.CreatedAt
	}
	if note.ValidFrom == 0 {
		note.ValidFrom = note.CreatedAt
	}
	note.ValidTo = nil
	note.IsCurrent = true

	return insertNote(s.db, note)
}

// UpdateNote creates a new version of an existing note.
// UpdatedAt never moves backwards: it is clamped to the previous version's value.
func (s *SQLiteStore) UpdateNote(note *Note, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get current version info
	var currentVersion int
	var createdAt, updatedAt int64
	err := s.db.QueryRow(`
		SELECT version, created_at, updated_at FROM notes
		WHERE id = ? AND is_current = 1
	`, note.ID).Scan(&currentVersion, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		// Note doesn't exist, fall back to create
		return s.createNoteLocked(note)
	}
	if err != nil {
		return err
	}

	if note.UpdatedAt < updatedAt {
		note.UpdatedAt = updatedAt
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	// Close old current version
	_, err = tx.Exec(`
		UPDATE notes SET valid_to = ?, is_current = 0
		WHERE id = ? AND is_current = 1
	`, note.UpdatedAt, note.ID)
	if err != nil {
		return err
	}

	// Insert new version
	note.Version = currentVersion + 1
	note.CreatedAt = createdAt // Preserve original creation time
	note.ValidFrom = note.UpdatedAt
	note.ValidTo = nil
	note.IsCurrent = true
	note.ChangeReason = reason

	if err := insertNote(tx, note); err != nil {
		return err
	}
	return tx.Commit()
}

// GetNote retrieves the current version of a note by ID.
// Returns nil, nil when the note does not exist.
func (s *SQLiteStore) GetNote(id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, err := scanNote(s.db.QueryRow(`
		SELECT `+noteColumns+`
		FROM notes WHERE id = ? AND is_current = 1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return note, err
}

// GetNoteVersion retrieves a specific version of a note.
func (s *SQLiteStore) GetNoteVersion(id string, version int) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, err := scanNote(s.db.QueryRow(`
		SELECT `+noteColumns+`
		FROM notes WHERE id = ? AND version = ?
	`, id, version))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return note, err
}

// ListNoteVersions returns all versions of a note, newest first.
func (s *SQLiteStore) ListNoteVersions(id string) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+noteColumns+`
		FROM notes WHERE id = ? ORDER BY version DESC
	`, id)
	if err != nil {
		return nil, err
	}
	return scanNotes(rows)
}

// RestoreNoteVersion restores a previous version by creating a new version with the old content.
func (s *SQLiteStore) RestoreNoteVersion(id string, version int, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get the version to restore
	old, err := scanNote(s.db.QueryRow(`
		SELECT `+noteColumns+`
		FROM notes WHERE id = ? AND version = ?
	`, id, version))
	if err != nil {
		return fmt.Errorf("failed to load version %d of note %s: %w", version, id, err)
	}

	// Get current max version and timestamp
	var maxVersion int
	var lastUpdated int64
	err = s.db.QueryRow(`
		SELECT MAX(version), MAX(updated_at) FROM notes WHERE id = ?
	`, id).Scan(&maxVersion, &lastUpdated)
	if err != nil {
		return err
	}
	if now < lastUpdated {
		now = lastUpdated
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", err)
	}
	defer tx.Rollback()

	// Close current version
	_, err = tx.Exec(`
		UPDATE notes SET valid_to = ?, is_current = 0
		WHERE id = ? AND is_current = 1
	`, now, id)
	if err != nil {
		return err
	}

	// Insert restored version
	restored := &Note{
		ID:           old.ID,
		Version:      maxVersion + 1,
		Title:        old.Title,
		Content:      old.Content,
		CreatedAt:    old.CreatedAt,
		UpdatedAt:    now,
		ValidFrom:    now,
		IsCurrent:    true,
		ChangeReason: "restore",
	}
	if err := insertNote(tx, restored); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteNote removes all versions of a note.
func (s *SQLiteStore) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id)
	return err
}

// ListNotes returns current versions of all notes in creation order.
func (s *SQLiteStore) ListNotes() ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT ` + noteColumns + `
		FROM notes n WHERE is_current = 1
		ORDER BY created_at, (SELECT MIN(v.rowid) FROM notes v WHERE v.id = n.id)
	`)
	if err != nil {
		return nil, err
	}
	return scanNotes(rows)
}

// CountNotes returns the number of notes (current versions only).
func (s *SQLiteStore) CountNotes() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE is_current = 1").Scan(&count)
	return count, err
}

// =============================================================================
// Todo CRUD
// =============================================================================

const todoColumns = `id, title, completed, due_date, priority, created_at, updated_at`

func scanTodo(row rowScanner) (*Todo, error) {
	var todo Todo
	var completed int
	var dueDate sql.NullInt64

	if err := row.Scan(
		&todo.ID, &todo.Title, &completed, &dueDate, &todo.Priority, &todo.CreatedAt, &todo.UpdatedAt,
	); err != nil {
		return nil, err
	}

	todo.Completed = completed != 0
	if dueDate.Valid {
		d := dueDate.Int64
		todo.DueDate = &d
	}
	return &todo, nil
}

func insertTodo(ex execer, todo *Todo) error {
	_, err := ex.Exec(`
		INSERT INTO todos (`+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			completed = excluded.completed,
			due_date = excluded.due_date,
			priority = excluded.priority,
			updated_at = MAX(todos.updated_at, excluded.updated_at)
	`, todo.ID, todo.Title, boolToInt(todo.Completed), todo.DueDate, todo.Priority,
		todo.CreatedAt, todo.UpdatedAt)
	return err
}

// UpsertTodo inserts or updates a todo item. CreatedAt is preserved on update.
func (s *SQLiteStore) UpsertTodo(todo *Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if todo.Priority == "" {
		todo.Priority = PriorityMedium
	}
	if todo.UpdatedAt < todo.CreatedAt {
		todo.UpdatedAt = todo.CreatedAt
	}
	return insertTodo(s.db, todo)
}

// GetTodo retrieves a todo by ID.
// Returns nil, nil when the todo does not exist.
func (s *SQLiteStore) GetTodo(id string) (*Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, err := scanTodo(s.db.QueryRow(`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return todo, err
}

// DeleteTodo removes a todo.
func (s *SQLiteStore) DeleteTodo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM todos WHERE id = ?", id)
	return err
}

// ListTodos returns all todos in insertion order.
func (s *SQLiteStore) ListTodos() ([]*Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + todoColumns + ` FROM todos ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// CountTodos returns the number of todos.
func (s *SQLiteStore) CountTodos() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM todos").Scan(&count)
	return count, err
}

// =============================================================================
// Event CRUD
// =============================================================================

const eventColumns = `id, title, description, start_at, end_at, color, created_at, updated_at`

func scanEvent(row rowScanner) (*Event, error) {
	var event Event
	var description, color sql.NullString

	if err := row.Scan(
		&event.ID, &event.Title, &description, &event.Start, &event.End, &color,
		&event.CreatedAt, &event.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if description.Valid {
		event.Description = description.String
	}
	if color.Valid {
		event.Color = color.String
	}
	return &event, nil
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func insertEvent(ex execer, event *Event) error {
	_, err := ex.Exec(`
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			color = excluded.color,
			updated_at = MAX(events.updated_at, excluded.updated_at)
	`, event.ID, event.Title, event.Description, event.Start, event.End, event.Color,
		event.CreatedAt, event.UpdatedAt)
	return err
}

// UpsertEvent inserts or updates a calendar event. CreatedAt is preserved on update.
func (s *SQLiteStore) UpsertEvent(event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.UpdatedAt < event.CreatedAt {
		event.UpdatedAt = event.CreatedAt
	}
	return insertEvent(s.db, event)
}

// GetEvent retrieves an event by ID.
// Returns nil, nil when the event does not exist.
func (s *SQLiteStore) GetEvent(id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, err := scanEvent(s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

// DeleteEvent removes an event.
func (s *SQLiteStore) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM events WHERE id = ?", id)
	return err
}

// ListEvents returns all events in insertion order.
func (s *SQLiteStore) ListEvents() ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + eventColumns + ` FROM events ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListEventsBetween returns events overlapping the inclusive range [from, to], ordered by start.
func (s *SQLiteStore) ListEventsBetween(from, to int64) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+eventColumns+` FROM events
		WHERE start_at <= ? AND end_at >= ?
		ORDER BY start_at, rowid
	`, to, from)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// CountEvents returns the number of events.
func (s *SQLiteStore) CountEvents() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}

// =============================================================================
// Chat Messages
// =============================================================================

func insertMessage(ex execer, msg *ChatMessage) error {
	_, err := ex.Exec(`
		INSERT INTO chat_messages (id, role, content, timestamp)
		VALUES (?, ?, ?, ?)
	`, msg.ID, msg.Role, msg.Content, msg.Timestamp)
	return err
}

// AddMessage appends a message to the conversation.
func (s *SQLiteStore) AddMessage(msg *ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertMessage(s.db, msg)
}

// GetMessages returns the conversation in chronological order.
func (s *SQLiteStore) GetMessages() ([]*ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, role, content, timestamp
		FROM chat_messages ORDER BY timestamp ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}

// DeleteMessages clears the conversation.
func (s *SQLiteStore) DeleteMessages() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM chat_messages")
	return err
}

// =============================================================================
// Helpers
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// Export/Import
// =============================================================================

// ExportData is the serialized form of the whole store.
type ExportData struct {
	Notes    []*Note        `json:"notes" yaml:"notes"`
	Todos    []*Todo        `json:"todos" yaml:"todos"`
	Events   []*Event       `json:"events" yaml:"events"`
	Messages []*ChatMessage `json:"messages" yaml:"messages"`
}

// Export serializes all database tables to JSON bytes.
// Only current note versions are exported.
func (s *SQLiteStore) Export() ([]byte, error) {
	notes, err := s.ListNotes()
	if err != nil {
		return nil, fmt.Errorf("export notes: %w", err)
	}
	todos, err := s.ListTodos()
	if err != nil {
		return nil, fmt.Errorf("export todos: %w", err)
	}
	events, err := s.ListEvents()
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	messages, err := s.GetMessages()
	if err != nil {
		return nil, fmt.Errorf("export messages: %w", err)
	}

	data := ExportData{
		Notes:    notes,
		Todos:    todos,
		Events:   events,
		Messages: messages,
	}
	return json.Marshal(data)
}

// Import restores the database state from an exported JSON byte slice.
// Clears all existing data and re-inserts from the export in one transaction.
func (s *SQLiteStore) Import(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		return nil
	}

	var importData ExportData
	if err := json.Unmarshal(data, &importData); err != nil {
		return fmt.Errorf("import unmarshal: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("import begin: %w", err)
	}
	defer tx.Rollback()

	// Clear all tables
	for _, table := range []string{"chat_messages", "events", "todos", "notes"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	// Re-insert notes as their first current version
	for _, n := range importData.Notes {
		note := *n
		if note.Version == 0 {
			note.Version = 1
		}
		if note.ValidFrom == 0 {
			note.ValidFrom = note.CreatedAt
		}
		note.ValidTo = nil
		note.IsCurrent = true
		if err := insertNote(tx, &note); err != nil {
			return fmt.Errorf("import note %s: %w", n.ID, err)
		}
	}

	for _, t := range importData.Todos {
		todo := *t
		if todo.Priority == "" {
			todo.Priority = PriorityMedium
		}
		if err := insertTodo(tx, &todo); err != nil {
			return fmt.Errorf("import todo %s: %w", t.ID, err)
		}
	}

	for _, e := range importData.Events {
		if err := insertEvent(tx, e); err != nil {
			return fmt.Errorf("import event %s: %w", e.ID, err)
		}
	}

	for _, m := range importData.Messages {
		if err := insertMessage(tx, m); err != nil {
			return fmt.Errorf("import message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
