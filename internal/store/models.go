// Package store provides SQLite-backed persistence for kiwii.
// This is the unified data layer behind the notes, todos, calendar and chat views.
package store

// Note represents a versioned rich-text document in the store.
// Uses temporal table pattern for full version history.
type Note struct {
	ID        string `json:"id" yaml:"id"`
	Version   int    `json:"version" yaml:"version"`
	Title     string `json:"title" yaml:"title"`
	Content   string `json:"content" yaml:"content"` // HTML produced by the editor
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" yaml:"updatedAt"`

	// Temporal fields for version tracking
	ValidFrom    int64  `json:"validFrom" yaml:"validFrom"`
	ValidTo      *int64 `json:"validTo,omitempty" yaml:"validTo,omitempty"`
	IsCurrent    bool   `json:"isCurrent" yaml:"isCurrent"`
	ChangeReason string `json:"changeReason,omitempty" yaml:"changeReason,omitempty"`
}

// Priority ranks a todo item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting (higher = more urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Todo is a single item on the to-do list.
type Todo struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Completed bool     `json:"completed" yaml:"completed"`
	DueDate   *int64   `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Priority  Priority `json:"priority" yaml:"priority"`
	CreatedAt int64    `json:"createdAt" yaml:"createdAt"`
	UpdatedAt int64    `json:"updatedAt" yaml:"updatedAt"`
}

// Event is a calendar entry.
type Event struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Start       int64  `json:"start" yaml:"start"`
	End         int64  `json:"end" yaml:"end"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	CreatedAt   int64  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt" yaml:"updatedAt"`
}

// Role identifies who wrote a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in the assistant conversation.
type ChatMessage struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// Info reports the versions of the embedded SQLite build.
type Info struct {
	SQLiteVersion string `json:"sqliteVersion" yaml:"sqliteVersion"`
	VecVersion    string `json:"vecVersion,omitempty" yaml:"vecVersion,omitempty"`
}

// Storer defines the interface for data persistence.
// SQLiteStore is the sole implementation.
type Storer interface {
	// Notes - Basic CRUD
	GetNote(id string) (*Note, error)
	DeleteNote(id string) error
	ListNotes() ([]*Note, error)
	CountNotes() (int, error)

	// Notes - Version-aware operations
	CreateNote(note *Note) error
	UpdateNote(note *Note, reason string) error
	GetNoteVersion(id string, version int) (*Note, error)
	ListNoteVersions(id string) ([]*Note, error)
	RestoreNoteVersion(id string, version int, now int64) error

	// Todos
	UpsertTodo(todo *Todo) error
	GetTodo(id string) (*Todo, error)
	DeleteTodo(id string) error
	ListTodos() ([]*Todo, error)
	CountTodos() (int, error)

	// Events
	UpsertEvent(event *Event) error
	GetEvent(id string) (*Event, error)
	DeleteEvent(id string) error
	ListEvents() ([]*Event, error)
	ListEventsBetween(from, to int64) ([]*Event, error)
	CountEvents() (int, error)

	// Chat history
	AddMessage(msg *ChatMessage) error
	GetMessages() ([]*ChatMessage, error)
	DeleteMessages() error

	// Export/Import (serialization for browser-local persistence)
	Export() ([]byte, error)
	Import(data []byte) error

	// Diagnostics
	Info() (*Info, error)

	// Lifecycle
	Close() error
}
