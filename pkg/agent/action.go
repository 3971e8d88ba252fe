package agent

import "github.com/kittclouds/kiwii/internal/store"

// Kind tags an Action variant. The values match the JSON wire names used by the UI.
type Kind string

const (
	KindCreateNote  Kind = "create_note"
	KindCreateTodo  Kind = "create_todo"
	KindCreateEvent Kind = "create_event"
	KindNone        Kind = "none"
)

// Action is what the caller should do after a resolution.
// The set of variants is closed: CreateNote, CreateTodo, CreateEvent and None.
type Action interface {
	Kind() Kind
	isAction()
}

// CreateNote asks the caller to create an empty note with the given title.
type CreateNote struct {
	Title string `json:"title"`
}

// CreateTodo asks the caller to create an incomplete todo.
type CreateTodo struct {
	Title    string         `json:"title"`
	Priority store.Priority `json:"priority"`
}

// CreateEvent asks the caller to create an event. Start and end are the caller's choice.
type CreateEvent struct {
	Title string `json:"title"`
}

// None carries no instruction; the reply is informational.
type None struct{}

func (CreateNote) Kind() Kind  { return KindCreateNote }
func (CreateTodo) Kind() Kind  { return KindCreateTodo }
func (CreateEvent) Kind() Kind { return KindCreateEvent }
func (None) Kind() Kind        { return KindNone }

func (CreateNote) isAction()  {}
func (CreateTodo) isAction()  {}
func (CreateEvent) isAction() {}
func (None) isAction()        {}
