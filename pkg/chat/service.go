// Package chat runs the assistant conversation: it records messages, resolves
// each user message against a snapshot of the stores and applies the resulting
// action.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/agent"
	"github.com/kittclouds/kiwii/pkg/calendar"
	"github.com/kittclouds/kiwii/pkg/notes"
	"github.com/kittclouds/kiwii/pkg/todos"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// ChatService manages the single assistant conversation.
type ChatService struct {
	mu sync.Mutex // held for a whole exchange

	store    store.Storer
	notes    *notes.Service
	todos    *todos.Service
	events   *calendar.Service
	resolver *agent.Resolver
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a ChatService.
type Option func(*ChatService)

// WithClock sets the clock for message timestamps, upcoming-event checks and
// the slot of events created from chat.
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) { s.log = logging.OrDiscard(l) }
}

// WithResolver replaces the resolver built from the service clock.
func WithResolver(r *agent.Resolver) Option {
	return func(s *ChatService) { s.resolver = r }
}

// NewChatService creates a chat service over the three repositories.
func NewChatService(st store.Storer, n *notes.Service, t *todos.Service, c *calendar.Service, opts ...Option) *ChatService {
	s := &ChatService{
		store:  st,
		notes:  n,
		todos:  t,
		events: c,
		now:    time.Now,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = agent.NewResolver(agent.WithClock(s.now))
	}
	return s
}

// Exchange is one user message and the assistant's answer.
type Exchange struct {
	User      *store.ChatMessage `json:"user"`
	Reply     *store.ChatMessage `json:"reply"`
	Action    agent.Action       `json:"-"`
	CreatedID string             `json:"createdId,omitempty"`
}

// =============================================================================
// Conversation
// =============================================================================

// Send records content, resolves it, applies the action and records the reply.
func (s *ChatService) Send(ctx context.Context, content string) (*Exchange, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.addMessage(store.RoleUser, content)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	res := s.resolver.Resolve(content, snap)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	createdID, err := s.apply(res.Action)
	if err != nil {
		return nil, err
	}
	s.log.Info("chat action applied",
		"intent", s.resolver.Intent(content),
		"action", res.Action.Kind(),
		"created_id", createdID,
	)

	reply, err := s.addMessage(store.RoleAssistant, res.Response)
	if err != nil {
		return nil, err
	}

	return &Exchange{
		User:      user,
		Reply:     reply,
		Action:    res.Action,
		CreatedID: createdID,
	}, nil
}

// Snapshot returns the current notes, todos and events by value.
func (s *ChatService) Snapshot() (agent.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *ChatService) snapshot() (agent.Snapshot, error) {
	var snap agent.Snapshot

	noteList, err := s.notes.List()
	if err != nil {
		return snap, fmt.Errorf("failed to snapshot notes: %w", err)
	}
	todoList, err := s.todos.All()
	if err != nil {
		return snap, fmt.Errorf("failed to snapshot todos: %w", err)
	}
	eventList, err := s.events.List()
	if err != nil {
		return snap, fmt.Errorf("failed to snapshot events: %w", err)
	}

	snap.Notes = make([]store.Note, len(noteList))
	for i, n := range noteList {
		snap.Notes[i] = *n
	}
	snap.Todos = make([]store.Todo, len(todoList))
	for i, t := range todoList {
		snap.Todos[i] = *t
	}
	snap.Events = make([]store.Event, len(eventList))
	for i, e := range eventList {
		snap.Events[i] = *e
	}
	return snap, nil
}

// apply materializes an action and returns the ID of the created record, if any.
func (s *ChatService) apply(a agent.Action) (string, error) {
	switch act := a.(type) {
	case agent.CreateNote:
		note, err := s.notes.Create(act.Title, "")
		if err != nil {
			return "", err
		}
		return note.ID, nil

	case agent.CreateTodo:
		todo, err := s.todos.Create(orDefault(act.Title, agent.DefaultTodoTitle), act.Priority, nil)
		if err != nil {
			return "", err
		}
		return todo.ID, nil

	case agent.CreateEvent:
		start, end := calendar.DefaultSlot(s.now())
		event, err := s.events.Create(calendar.Input{
			Title: orDefault(act.Title, agent.DefaultEventTitle),
			Start: start,
			End:   end,
		})
		if err != nil {
			return "", err
		}
		return event.ID, nil
	}
	return "", nil
}

func orDefault(title, def string) string {
	if strings.TrimSpace(title) == "" {
		return def
	}
	return title
}

// =============================================================================
// Message Operations
// =============================================================================

func (s *ChatService) addMessage(role store.Role, content string) (*store.ChatMessage, error) {
	msg := &store.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.store.AddMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to add %s message: %w", role, err)
	}
	return msg, nil
}

// Messages returns the conversation in chronological order.
func (s *ChatService) Messages() ([]*store.ChatMessage, error) {
	return s.store.GetMessages()
}

// Clear removes every message.
func (s *ChatService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteMessages(); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	s.log.Info("conversation cleared")
	return nil
}

// Export returns the conversation as a JSON array.
func (s *ChatService) Export() (string, error) {
	messages, err := s.store.GetMessages()
	if err != nil {
		return "", err
	}
	if messages == nil {
		messages = []*store.ChatMessage{}
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to export conversation: %w", err)
	}
	return string(data), nil
}
