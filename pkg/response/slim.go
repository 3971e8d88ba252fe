// Package response provides compact JSON shapes for the JS client and the CLI.
// Only the fields the list and chat views render are serialized.
package response

import (
	"encoding/json"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/agent"
)

// SlimNote is a note as shown in the notes list.
type SlimNote struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Preview   string `json:"preview"`
	Version   int    `json:"version"`
	UpdatedAt int64  `json:"updatedAt"`
}

// SlimTodo is a todo as shown in the todo list.
type SlimTodo struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Completed bool           `json:"completed"`
	Priority  store.Priority `json:"priority"`
	DueDate   *int64         `json:"dueDate,omitempty"`
}

// SlimEvent is an event as shown in a calendar cell.
type SlimEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Color string `json:"color,omitempty"`
}

// FromNote converts a note. preview is the already-flattened text.
func FromNote(n *store.Note, preview string) SlimNote {
	return SlimNote{
		ID:        n.ID,
		Title:     n.Title,
		Preview:   preview,
		Version:   n.Version,
		UpdatedAt: n.UpdatedAt,
	}
}

// FromTodos converts a todo list, preserving order.
func FromTodos(todos []*store.Todo) []SlimTodo {
	out := make([]SlimTodo, 0, len(todos))
	for _, t := range todos {
		out = append(out, SlimTodo{
			ID:        t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
		})
	}
	return out
}

// FromEvents converts an event list, preserving order.
func FromEvents(events []*store.Event) []SlimEvent {
	out := make([]SlimEvent, 0, len(events))
	for _, e := range events {
		out = append(out, SlimEvent{
			ID:    e.ID,
			Title: e.Title,
			Start: e.Start,
			End:   e.End,
			Color: e.Color,
		})
	}
	return out
}

// =============================================================================
// Chat
// =============================================================================

// ActionJSON is the tagged wire form of an agent.Action.
type ActionJSON struct {
	Type agent.Kind `json:"type"`
	Data any        `json:"data,omitempty"`
}

// FromAction tags an action with its kind. None carries no data.
func FromAction(a agent.Action) ActionJSON {
	switch v := a.(type) {
	case agent.CreateNote, agent.CreateTodo, agent.CreateEvent:
		return ActionJSON{Type: v.Kind(), Data: v}
	default:
		return ActionJSON{Type: agent.KindNone}
	}
}

// MarshalAction serializes an action as {"type": ..., "data": {...}}.
func MarshalAction(a agent.Action) ([]byte, error) {
	return json.Marshal(FromAction(a))
}

// ChatReply is the result of one chat exchange.
type ChatReply struct {
	Response  string     `json:"response"`
	Action    ActionJSON `json:"action"`
	CreatedID string     `json:"createdId,omitempty"`
}

// MarshalChatReply creates the chat reply JSON.
func MarshalChatReply(resp string, a agent.Action, createdID string) ([]byte, error) {
	return json.Marshal(ChatReply{
		Response:  resp,
		Action:    FromAction(a),
		CreatedID: createdID,
	})
}

// =============================================================================
// Envelopes
// =============================================================================

// Error returns {"error": msg} as a JSON string.
func Error(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

// Success returns {"success": msg} as a JSON string.
func Success(msg string) string {
	b, _ := json.Marshal(map[string]string{"success": msg})
	return string(b)
}

// JSON marshals v, falling back to an error envelope.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return Error(err.Error())
	}
	return string(b)
}
