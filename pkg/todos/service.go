// Package todos is the to-do list repository.
package todos

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/internal/store"
)

var (
	// ErrNotFound is returned when a todo ID does not exist.
	ErrNotFound = errors.New("todo not found")
	// ErrEmptyTitle is returned when a title is blank after trimming.
	ErrEmptyTitle = errors.New("todo title is empty")
	// ErrInvalidPriority is returned for priorities other than low, medium and high.
	ErrInvalidPriority = errors.New("invalid priority")
)

// Filter selects which todos List returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a filter name; empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q", s)
}

// ParsePriority maps a priority name; empty means medium.
func ParsePriority(s string) (store.Priority, error) {
	p := store.Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return store.PriorityMedium, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Service manages todos.
type Service struct {
	store store.Storer
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

// NewService creates a todo service over st.
func NewService(st store.Storer, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds an incomplete todo. An empty priority means medium.
func (s *Service) Create(title string, priority store.Priority, due *time.Time) (*store.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if priority == "" {
		priority = store.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	now := s.now().UnixMilli()
	todo := &store.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  priority,
		DueDate:   millis(due),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.UpsertTodo(todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	s.log.Debug("todo created", "id", todo.ID, "priority", todo.Priority)
	return todo, nil
}

// Patch lists the fields to change. Nil fields are left as they are.
type Patch struct {
	Title     *string
	Completed *bool
	Priority  *store.Priority
	DueDate   **time.Time
}

// Update applies p to a todo.
func (s *Service) Update(id string, p Patch) (*store.Todo, error) {
	todo, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		todo.Title = title
	}
	if p.Completed != nil {
		todo.Completed = *p.Completed
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
		}
		todo.Priority = *p.Priority
	}
	if p.DueDate != nil {
		todo.DueDate = millis(*p.DueDate)
	}

	return todo, s.save(todo)
}

// Toggle flips the completed flag.
func (s *Service) Toggle(id string) (*store.Todo, error) {
	todo, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	todo.Completed = !todo.Completed
	return todo, s.save(todo)
}

func (s *Service) save(todo *store.Todo) error {
	if now := s.now().UnixMilli(); now > todo.UpdatedAt {
		todo.UpdatedAt = now
	}
	if err := s.store.UpsertTodo(todo); err != nil {
		return fmt.Errorf("failed to update todo %s: %w", todo.ID, err)
	}
	s.log.Debug("todo updated", "id", todo.ID, "completed", todo.Completed)
	return nil
}

// Delete removes a todo.
func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.store.DeleteTodo(id); err != nil {
		return fmt.Errorf("failed to delete todo %s: %w", id, err)
	}
	return nil
}

// Get returns a todo by ID.
func (s *Service) Get(id string) (*store.Todo, error) {
	todo, err := s.store.GetTodo(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get todo %s: %w", id, err)
	}
	if todo == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return todo, nil
}

// All returns every todo in creation order, unsorted.
func (s *Service) All() ([]*store.Todo, error) {
	todos, err := s.store.ListTodos()
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// List returns the todos matching f in display order.
func (s *Service) List(f Filter) ([]*store.Todo, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	return Sort(Apply(all, f)), nil
}

// Apply returns the todos matching f, keeping their order.
func Apply(todos []*store.Todo, f Filter) []*store.Todo {
	out := make([]*store.Todo, 0, len(todos))
	for _, t := range todos {
		switch f {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Sort orders todos in place for display: incomplete first, then by priority
// from high to low. Equal items keep their relative order.
func Sort(todos []*store.Todo) []*store.Todo {
	slices.SortStableFunc(todos, func(a, b *store.Todo) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		return b.Priority.Rank() - a.Priority.Rank()
	})
	return todos
}

// EmptyMessage is shown when List returns nothing for f.
func EmptyMessage(f Filter) string {
	switch f {
	case FilterActive:
		return "No active tasks!"
	case FilterCompleted:
		return "No completed tasks yet!"
	default:
		return "No tasks yet. Add one above!"
	}
}

func millis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
