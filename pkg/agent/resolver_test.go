package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kiwii/internal/store"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return NewResolver(
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
}

func at(day, hour int) int64 {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

func TestCreateNoteWithQuotedTitle(t *testing.T) {
	res := newTestResolver().Resolve(`Create a note called "Project Ideas"`, Snapshot{})

	assert.Equal(t, CreateNote{Title: "Project Ideas"}, res.Action)
	assert.Equal(t, `I'll create a new note titled "Project Ideas" for you!`, res.Response)
}

func TestCreateNoteDefaultTitle(t *testing.T) {
	for _, msg := range []string{"new note please", "Add note", "create a quick note"} {
		res := newTestResolver().Resolve(msg, Snapshot{})
		assert.Equal(t, CreateNote{Title: DefaultNoteTitle}, res.Action, msg)
	}
}

func TestCreateNoteTitledAndNamed(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve(`new note titled "Q3 Plan"`, Snapshot{})
	assert.Equal(t, CreateNote{Title: "Q3 Plan"}, res.Action)

	res = r.Resolve(`add a note named "Recipes"`, Snapshot{})
	assert.Equal(t, CreateNote{Title: "Recipes"}, res.Action)
}

func TestRemindMeTo(t *testing.T) {
	res := newTestResolver().Resolve("remind me to buy milk", Snapshot{})

	assert.Equal(t, CreateTodo{Title: "buy milk", Priority: store.PriorityMedium}, res.Action)
	assert.Equal(t, `I'll create a medium priority task: "buy milk"`, res.Response)
}

func TestAddHighPriorityTask(t *testing.T) {
	res := newTestResolver().Resolve("add a high priority task to finish the report", Snapshot{})

	action, ok := res.Action.(CreateTodo)
	require.True(t, ok, "expected CreateTodo, got %T", res.Action)
	assert.Equal(t, store.PriorityHigh, action.Priority)
	assert.Contains(t, action.Title, "finish the report")
}

func TestTodoTitleStopsAtTrailingClause(t *testing.T) {
	res := newTestResolver().Resolve("Create todo to call mom with LOW priority", Snapshot{})

	assert.Equal(t, CreateTodo{Title: "call mom", Priority: store.PriorityLow}, res.Action)
}

func TestTodoTitleFirstTrailingMarkerWins(t *testing.T) {
	res := newTestResolver().Resolve("remind me to email Bob on Monday with the report", Snapshot{})

	action := res.Action.(CreateTodo)
	assert.Equal(t, "email Bob", action.Title)
}

func TestTodoTaskColonMarker(t *testing.T) {
	res := newTestResolver().Resolve("new task: water the plants", Snapshot{})

	assert.Equal(t, CreateTodo{Title: "water the plants", Priority: store.PriorityMedium}, res.Action)
}

func TestTodoDefaultTitle(t *testing.T) {
	res := newTestResolver().Resolve("new task", Snapshot{})

	assert.Equal(t, CreateTodo{Title: DefaultTodoTitle, Priority: store.PriorityMedium}, res.Action)
}

func TestScheduleMeetingCalled(t *testing.T) {
	res := newTestResolver().Resolve(`schedule meeting called "Standup"`, Snapshot{})

	assert.Equal(t, CreateEvent{Title: "Standup"}, res.Action)
	assert.Equal(t,
		`I'll help you create an event titled "Standup". Please use the calendar to set the exact time!`,
		res.Response)
}

func TestCreateEventTitles(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{`create event called "Launch"`, "Launch"},
		{"schedule dentist appointment", "dentist appointment"},
		{`Schedule "Board review"`, "Board review"},
		{"add to calendar", DefaultEventTitle},
	}

	r := newTestResolver()
	for _, tt := range tests {
		res := r.Resolve(tt.msg, Snapshot{})
		assert.Equal(t, CreateEvent{Title: tt.want}, res.Action, tt.msg)
	}
}

func TestSearchNotes(t *testing.T) {
	snap := Snapshot{Notes: []store.Note{
		{ID: "1", Title: "Groceries", Content: "<p>Milk and eggs</p>"},
		{ID: "2", Title: "Work", Content: "Report draft"},
		{ID: "3", Title: "Milk run", Content: ""},
	}}

	res := newTestResolver().Resolve("find note about milk", snap)

	assert.Equal(t, None{}, res.Action)
	assert.Equal(t, "I found 2 note(s) matching \"milk\":\n\n- Groceries\n- Milk run", res.Response)
}

func TestSearchNotesNotFound(t *testing.T) {
	snap := Snapshot{Notes: []store.Note{{ID: "1", Title: "Work", Content: "Report"}}}

	res := newTestResolver().Resolve(`search note for "xyz"`, snap)

	assert.Equal(t, None{}, res.Action)
	assert.Equal(t, `I couldn't find any notes matching "xyz". Would you like to create a new one?`, res.Response)
}

func TestListTodos(t *testing.T) {
	snap := Snapshot{Todos: []store.Todo{
		{ID: "1", Title: "A", Priority: store.PriorityHigh},
		{ID: "2", Title: "B", Priority: store.PriorityLow, Completed: true},
		{ID: "3", Title: "C", Priority: store.PriorityMedium},
	}}

	r := newTestResolver()
	for _, msg := range []string{"show todos", "Show my todos", "list tasks", "what are my tasks?"} {
		res := r.Resolve(msg, snap)
		assert.Equal(t, None{}, res.Action, msg)
		assert.Equal(t, "You have 2 active task(s):\n\n- [high] A\n- [medium] C", res.Response, msg)
	}
}

func TestListTodosAllDone(t *testing.T) {
	snap := Snapshot{Todos: []store.Todo{{ID: "1", Title: "A", Completed: true}}}

	res := newTestResolver().Resolve("list my tasks", snap)

	assert.Equal(t, "You don't have any active tasks. Great job staying on top of things!", res.Response)
}

func TestUpcomingEvents(t *testing.T) {
	snap := Snapshot{Events: []store.Event{
		{ID: "past", Title: "Past", Start: at(9, 9)},
		{ID: "now", Title: "Now", Start: fixedNow.UnixMilli()},
		{ID: "e5", Title: "E5", Start: at(15, 9)},
		{ID: "e1", Title: "E1", Start: at(11, 9)},
		{ID: "e6", Title: "E6", Start: at(16, 9)},
		{ID: "e3", Title: "E3", Start: at(13, 9)},
		{ID: "e2", Title: "E2", Start: at(12, 9)},
		{ID: "e4", Title: "E4", Start: at(14, 9)},
	}}
	original := append([]store.Event(nil), snap.Events...)

	res := newTestResolver().Resolve("upcoming events", snap)

	want := "Here are your upcoming events:\n\n" +
		"- E1 (3/11/2024)\n- E2 (3/12/2024)\n- E3 (3/13/2024)\n- E4 (3/14/2024)\n- E5 (3/15/2024)"
	assert.Equal(t, want, res.Response)
	assert.Equal(t, None{}, res.Action)
	if diff := cmp.Diff(original, snap.Events); diff != "" {
		t.Errorf("snapshot mutated (-want +got):\n%s", diff)
	}
}

func TestUpcomingEventsNone(t *testing.T) {
	snap := Snapshot{Events: []store.Event{{ID: "past", Title: "Past", Start: at(1, 9)}}}

	for _, msg := range []string{"What's on my calendar?", "what’s on my calendar"} {
		res := newTestResolver().Resolve(msg, snap)
		assert.Equal(t, "You don't have any upcoming events scheduled.", res.Response, msg)
	}
}

func TestMyScheduleIsShadowedByEventCreation(t *testing.T) {
	res := newTestResolver().Resolve("show my schedule", Snapshot{})

	assert.Equal(t, CreateEvent{Title: DefaultEventTitle}, res.Action)
}

func TestSummaryEmpty(t *testing.T) {
	res := newTestResolver().Resolve("give me a summary", Snapshot{})

	assert.Equal(t, None{}, res.Action)
	assert.Contains(t, res.Response, "📝 Notes: 0 total")
	assert.Contains(t, res.Response, "✅ Tasks: 0 active, 0 completed")
	assert.Contains(t, res.Response, "📅 Events: 0 upcoming")
	assert.NotContains(t, res.Response, "top priority")
}

func TestSummaryWithData(t *testing.T) {
	snap := Snapshot{
		Notes: []store.Note{{ID: "n1"}, {ID: "n2"}},
		Todos: []store.Todo{
			{ID: "1", Title: "H1", Priority: store.PriorityHigh},
			{ID: "2", Title: "M", Priority: store.PriorityMedium},
			{ID: "3", Title: "Done", Priority: store.PriorityHigh, Completed: true},
			{ID: "4", Title: "H2", Priority: store.PriorityHigh},
			{ID: "5", Title: "H3", Priority: store.PriorityHigh},
			{ID: "6", Title: "H4", Priority: store.PriorityHigh},
		},
		Events: []store.Event{
			{ID: "past", Start: at(1, 9)},
			{ID: "future", Start: at(20, 9)},
		},
	}

	res := newTestResolver().Resolve("Overview please", snap)

	want := "Here's your productivity overview:\n\n" +
		"📝 Notes: 2 total\n" +
		"✅ Tasks: 5 active, 1 completed\n" +
		"📅 Events: 1 upcoming\n\n" +
		"\nYour top priority tasks:\n" +
		"- H1\n- H2\n- H3"
	assert.Equal(t, want, res.Response)
}

func TestSummaryActiveWithoutHighPriority(t *testing.T) {
	snap := Snapshot{Todos: []store.Todo{{ID: "1", Title: "M", Priority: store.PriorityMedium}}}

	res := newTestResolver().Resolve("summary", snap)

	assert.True(t, strings.HasSuffix(res.Response, "\nYour top priority tasks:\n"), res.Response)
}

func TestDefaultHelp(t *testing.T) {
	for _, msg := range []string{"", "   ", "hello there", "¿qué tal?"} {
		res := newTestResolver().Resolve(msg, Snapshot{})
		assert.Equal(t, None{}, res.Action, msg)
		assert.Equal(t, helpMessage, res.Response, msg)
	}
}

func TestTriggerPriorityOrder(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"create note and schedule a review", KindCreateNote},
		{"remind me to schedule a call", KindCreateTodo},
		{"schedule a summary review", KindCreateEvent},
		{"find note about upcoming events", KindNone},
		{"add to calendar and list tasks", KindCreateEvent},
		{"new task: note the meter reading", KindCreateTodo},
		{"add a task to note down expenses", KindCreateTodo},
		{"what's new in my notes?", KindNone},
		{"add milk and a note", KindNone},
		{"create the new report task", KindNone},
		{"schedule a new note review", KindCreateNote},
	}

	r := newTestResolver()
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Resolve(tt.msg, Snapshot{}).Action.Kind(), tt.msg)
	}

	assert.Equal(t, "search_notes", r.Intent("find note about upcoming events"))
	assert.Equal(t, "help", r.Intent("hi"))
}

func TestCreateTriggersAllowOnlyFillerWords(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"create note", "create_note"},
		{"add a new note", "create_note"},
		{"new the note", "create_note"},
		{"add my low priority task", "create_todo"},
		{"create an urgent task", "help"},
		{"add, then note", "help"},
		{"a new, shiny note", "help"},
		{"add a taskbar icon", "help"},
		{"new\nnote", "help"},
	}

	r := newTestResolver()
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Intent(tt.msg), tt.msg)
	}
}

func TestEveryInputYieldsValidAction(t *testing.T) {
	inputs := []string{
		"", "note", "task", "todo", "create", "schedule", "\"", "called \"\"",
		"add a note called \"unterminated", "remind me to", "find note", "summary",
		"🎉🎉🎉", strings.Repeat("create ", 50), "CREATE NOTE CALLED \"LOUD\"",
		"new\nnote", "search note \"\"", "list tasks by tomorrow",
	}

	r := newTestResolver()
	for _, msg := range inputs {
		res := r.Resolve(msg, Snapshot{})
		require.NotNil(t, res.Action, msg)

		switch a := res.Action.(type) {
		case CreateNote:
			assert.NotEmpty(t, a.Title, msg)
		case CreateTodo:
			assert.NotEmpty(t, a.Title, msg)
			assert.True(t, a.Priority.Valid(), msg)
		case CreateEvent:
			assert.NotEmpty(t, a.Title, msg)
		case None:
			assert.NotEmpty(t, res.Response, msg)
		default:
			t.Fatalf("unexpected action %T for %q", a, msg)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	snap := Snapshot{
		Notes:  []store.Note{{ID: "1", Title: "Alpha"}},
		Todos:  []store.Todo{{ID: "1", Title: "T", Priority: store.PriorityHigh}},
		Events: []store.Event{{ID: "1", Title: "E", Start: at(20, 9)}},
	}

	r := newTestResolver()
	for _, msg := range []string{"summary", "find note alpha", "upcoming events", "remind me to x", "hi"} {
		first := r.Resolve(msg, snap)
		second := r.Resolve(msg, snap)
		assert.Equal(t, first, second, msg)
	}
}

func TestPackageResolve(t *testing.T) {
	res := Resolve(`create note called "X"`, Snapshot{})
	assert.Equal(t, CreateNote{Title: "X"}, res.Action)
}

func TestScannerFallback(t *testing.T) {
	var ts *triggerScanner
	set := ts.scan("what are my tasks and upcoming events")

	assert.True(t, set.has(intentListTodos))
	assert.True(t, set.has(intentUpcomingEvents))
	assert.False(t, set.has(intentSummary))
}
