// Package agent resolves a chat message into a reply and an Action.
//
// Resolution is a single ordered pass of literal and pattern triggers over the
// message. The first branch whose trigger matches wins; its extraction patterns
// fill in the action, falling back to fixed defaults. The resolver does no I/O
// and never mutates the Snapshot it is given: the caller materializes the
// returned Action against its own stores.
package agent

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/pool"
)

// Default values used when extraction finds nothing.
const (
	DefaultNoteTitle  = "New Note from Chat"
	DefaultTodoTitle  = "New Task"
	DefaultEventTitle = "New Event"

	// maxUpcoming caps the upcoming-events list.
	maxUpcoming = 5
	// maxTopPriority caps the high-priority tasks shown in a summary.
	maxTopPriority = 3
)

const helpMessage = `I'm your KiwiiLove productivity assistant! I can help you with:

- Creating and searching notes
- Managing your to-do list
- Scheduling calendar events
- Getting summaries and overviews

Try asking me to:
- "Create a note called 'Meeting Notes'"
- "Add a task to buy groceries"
- "Show my todos"
- "What's on my calendar?"
- "Give me a summary"

What would you like help with?`

// Snapshot is the read-only view of the user's data for one resolution.
type Snapshot struct {
	Notes  []store.Note
	Todos  []store.Todo
	Events []store.Event
}

// Result is the outcome of a resolution. Action is never nil.
type Result struct {
	Response string
	Action   Action
}

// Resolver maps messages to results. The zero value is not usable; use NewResolver.
type Resolver struct {
	now     func() time.Time
	loc     *time.Location
	scanner *triggerScanner
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used to decide which events are upcoming.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the time zone used to print event dates.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// NewResolver creates a resolver using the wall clock and local time zone by default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		now:     time.Now,
		loc:     time.Local,
		scanner: sharedScanner(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves message with a default Resolver.
func Resolve(message string, snap Snapshot) Result {
	return NewResolver().Resolve(message, snap)
}

// Resolve classifies message and builds the reply and action.
func (r *Resolver) Resolve(message string, snap Snapshot) Result {
	switch classify(r.scanner, strings.ToLower(message)) {
	case intentCreateNote:
		return resolveCreateNote(message)
	case intentCreateTodo:
		return resolveCreateTodo(message)
	case intentCreateEvent:
		return resolveCreateEvent(message)
	case intentSearchNotes:
		return resolveSearchNotes(message, snap.Notes)
	case intentListTodos:
		return resolveListTodos(snap.Todos)
	case intentUpcomingEvents:
		return r.resolveUpcoming(snap.Events)
	case intentSummary:
		return r.resolveSummary(snap)
	default:
		return Result{Response: helpMessage, Action: None{}}
	}
}

// Intent reports the name of the branch message would take. Used for logging.
func (r *Resolver) Intent(message string) string {
	return classify(r.scanner, strings.ToLower(message)).String()
}

// =============================================================================
// Creation branches
// =============================================================================

func resolveCreateNote(message string) Result {
	title, ok := firstGroup(noteTitleRe, message)
	if !ok {
		title = DefaultNoteTitle
	}
	return Result{
		Response: fmt.Sprintf("I'll create a new note titled \"%s\" for you!", title),
		Action:   CreateNote{Title: title},
	}
}

func resolveCreateTodo(message string) Result {
	title := DefaultTodoTitle
	if m, ok := firstGroup(todoTitleRe, message); ok {
		title = strings.TrimSpace(m)
	}

	priority := store.PriorityMedium
	if m, ok := firstGroup(priorityRe, message); ok {
		priority = store.Priority(strings.ToLower(m))
	}

	return Result{
		Response: fmt.Sprintf("I'll create a %s priority task: \"%s\"", priority, title),
		Action:   CreateTodo{Title: title, Priority: priority},
	}
}

func resolveCreateEvent(message string) Result {
	title, ok := firstGroup(eventQuotedTitleRe, message)
	if !ok {
		title = DefaultEventTitle
		if m, ok := firstGroup(eventTitleRe, message); ok {
			title = strings.TrimSpace(m)
		}
	}
	return Result{
		Response: fmt.Sprintf("I'll help you create an event titled \"%s\". Please use the calendar to set the exact time!", title),
		Action:   CreateEvent{Title: title},
	}
}

// =============================================================================
// Query branches
// =============================================================================

func resolveSearchNotes(message string, notes []store.Note) Result {
	term := ""
	if m, ok := firstGroup(searchTermRe, message); ok {
		term = strings.TrimSpace(m)
	}
	needle := strings.ToLower(term)

	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	count := 0
	for _, n := range notes {
		if !strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Content), needle) {
			continue
		}
		if count > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(n.Title)
		count++
	}

	if count == 0 {
		return Result{
			Response: fmt.Sprintf("I couldn't find any notes matching \"%s\". Would you like to create a new one?", term),
			Action:   None{},
		}
	}
	return Result{
		Response: fmt.Sprintf("I found %d note(s) matching \"%s\":\n\n%s", count, term, b.String()),
		Action:   None{},
	}
}

func resolveListTodos(todos []store.Todo) Result {
	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	count := 0
	for _, t := range todos {
		if t.Completed {
			continue
		}
		if count > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "- [%s] %s", t.Priority, t.Title)
		count++
	}

	if count == 0 {
		return Result{
			Response: "You don't have any active tasks. Great job staying on top of things!",
			Action:   None{},
		}
	}
	return Result{
		Response: fmt.Sprintf("You have %d active task(s):\n\n%s", count, b.String()),
		Action:   None{},
	}
}

func (r *Resolver) resolveUpcoming(events []store.Event) Result {
	upcoming := upcomingEvents(events, r.now().UnixMilli())
	if len(upcoming) > maxUpcoming {
		upcoming = upcoming[:maxUpcoming]
	}
	if len(upcoming) == 0 {
		return Result{Response: "You don't have any upcoming events scheduled.", Action: None{}}
	}

	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	b.WriteString("Here are your upcoming events:\n\n")
	for i, e := range upcoming {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "- %s (%s)", e.Title, time.UnixMilli(e.Start).In(r.loc).Format("1/2/2006"))
	}
	return Result{Response: b.String(), Action: None{}}
}

func (r *Resolver) resolveSummary(snap Snapshot) Result {
	active := 0
	for _, t := range snap.Todos {
		if !t.Completed {
			active++
		}
	}
	upcoming := len(upcomingEvents(snap.Events, r.now().UnixMilli()))

	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	b.WriteString("Here's your productivity overview:\n\n")
	fmt.Fprintf(b, "📝 Notes: %d total\n", len(snap.Notes))
	fmt.Fprintf(b, "✅ Tasks: %d active, %d completed\n", active, len(snap.Todos)-active)
	fmt.Fprintf(b, "📅 Events: %d upcoming\n\n", upcoming)

	if active > 0 {
		b.WriteString("\nYour top priority tasks:\n")
		shown := 0
		for _, t := range snap.Todos {
			if shown == maxTopPriority {
				break
			}
			if t.Completed || t.Priority != store.PriorityHigh {
				continue
			}
			if shown > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
			b.WriteString(t.Title)
			shown++
		}
	}
	return Result{Response: b.String(), Action: None{}}
}

// upcomingEvents returns events starting strictly after nowMs, earliest first.
// The input slice is not modified.
func upcomingEvents(events []store.Event, nowMs int64) []store.Event {
	var out []store.Event
	for _, e := range events {
		if e.Start > nowMs {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b store.Event) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	return out
}
