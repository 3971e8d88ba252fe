package agent

import (
	"regexp"
	"strings"
	"sync"

	"github.com/coregx/ahocorasick"
)

// intent is a resolution branch. The declaration order is the match priority.
type intent int

const (
	intentHelp intent = iota
	intentCreateNote
	intentCreateTodo
	intentCreateEvent
	intentSearchNotes
	intentListTodos
	intentUpcomingEvents
	intentSummary
)

func (i intent) String() string {
	switch i {
	case intentCreateNote:
		return "create_note"
	case intentCreateTodo:
		return "create_todo"
	case intentCreateEvent:
		return "create_event"
	case intentSearchNotes:
		return "search_notes"
	case intentListTodos:
		return "list_todos"
	case intentUpcomingEvents:
		return "upcoming_events"
	case intentSummary:
		return "summary"
	default:
		return "help"
	}
}

// priorityOrder is the fixed order in which branches are tested.
var priorityOrder = []intent{
	intentCreateNote,
	intentCreateTodo,
	intentCreateEvent,
	intentSearchNotes,
	intentListTodos,
	intentUpcomingEvents,
	intentSummary,
}

// ============================================================================
// Trigger phrases
// ============================================================================

// triggerPhrase is a literal, lower-case substring that selects a branch.
type triggerPhrase struct {
	phrase string
	intent intent
}

var triggerPhrases = []triggerPhrase{
	{"create note", intentCreateNote},
	{"new note", intentCreateNote},
	{"add note", intentCreateNote},

	{"create todo", intentCreateTodo},
	{"new task", intentCreateTodo},
	{"add task", intentCreateTodo},
	{"remind me to", intentCreateTodo},

	{"create event", intentCreateEvent},
	{"schedule", intentCreateEvent},
	{"add to calendar", intentCreateEvent},

	{"find note", intentSearchNotes},
	{"search note", intentSearchNotes},

	{"show todos", intentListTodos},
	{"list tasks", intentListTodos},
	{"what are my tasks", intentListTodos},
	// The help reply suggests "Show my todos", so it has to list them.
	{"show my todos", intentListTodos},
	{"list my tasks", intentListTodos},

	{"upcoming events", intentUpcomingEvents},
	{"what's on my calendar", intentUpcomingEvents},
	{"what’s on my calendar", intentUpcomingEvents},
	{"my schedule", intentUpcomingEvents},

	{"summary", intentSummary},
	{"overview", intentSummary},
}

// createFiller is what may sit between a create verb and its noun
// ("add a high priority task", "create a quick note"). Other nouns and
// punctuation never match, so "new task: note ..." stays a todo.
const createFiller = `\b(?:create|new|add)\s+(?:(?:a|an|the|my|quick|new|(?:high|medium|low)\s+priority)\s+){1,3}`

var (
	createNoteRe = regexp.MustCompile(createFiller + `note\b`)
	createTodoRe = regexp.MustCompile(createFiller + `(?:todo|task)\b`)
)

// intentSet is a bit set of intents whose trigger fired.
type intentSet uint16

func (s intentSet) has(i intent) bool { return s&(1<<uint(i)) != 0 }
func (s *intentSet) add(i intent)    { *s |= 1 << uint(i) }

// triggerScanner finds every literal trigger phrase in one pass.
type triggerScanner struct {
	ac *ahocorasick.Automaton
}

func newTriggerScanner() (*triggerScanner, error) {
	patterns := make([]string, len(triggerPhrases))
	for i, tp := range triggerPhrases {
		patterns[i] = tp.phrase
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &triggerScanner{ac: automaton}, nil
}

// scan reports which intents have a literal trigger in lower.
func (ts *triggerScanner) scan(lower string) intentSet {
	var set intentSet
	if ts == nil || ts.ac == nil {
		for _, tp := range triggerPhrases {
			if strings.Contains(lower, tp.phrase) {
				set.add(tp.intent)
			}
		}
		return set
	}

	for _, m := range ts.ac.FindAllOverlapping([]byte(lower)) {
		if m.PatternID >= 0 && m.PatternID < len(triggerPhrases) {
			set.add(triggerPhrases[m.PatternID].intent)
		}
	}
	return set
}

// sharedScanner is built once. A nil scanner falls back to substring tests.
var sharedScanner = sync.OnceValue(func() *triggerScanner {
	ts, err := newTriggerScanner()
	if err != nil {
		return nil
	}
	return ts
})

// classify picks the first branch, in priority order, whose trigger is present.
// lower must already be lower-cased.
func classify(ts *triggerScanner, lower string) intent {
	hits := ts.scan(lower)
	if createNoteRe.MatchString(lower) {
		hits.add(intentCreateNote)
	}
	if createTodoRe.MatchString(lower) {
		hits.add(intentCreateTodo)
	}

	for _, i := range priorityOrder {
		if hits.has(i) {
			return i
		}
	}
	return intentHelp
}

// ============================================================================
// Extraction patterns (run against the original message)
// ============================================================================

var (
	noteTitleRe        = regexp.MustCompile(`(?i)(?:called|titled|named)\s+"([^"]+)"`)
	todoTitleRe        = regexp.MustCompile(`(?i)(?:to|task:?)\s+(.+?)(?:\s+(?:with|by|on)|$)`)
	priorityRe         = regexp.MustCompile(`(?i)\b(high|medium|low)\s+priority\b`)
	eventQuotedTitleRe = regexp.MustCompile(`(?i)(?:event|schedule|meeting)\s+(?:(?:called|named)\s+)?"([^"]+)"`)
	eventTitleRe       = regexp.MustCompile(`(?i)(?:event|schedule|meeting)\s+(?:called|named)?\s*"?([^"]+)"?`)
	searchTermRe       = regexp.MustCompile(`(?i)(?:find|search)\s+note\s+(?:about|for|with)?\s*"?([^"]+)"?`)
)

// firstGroup returns the first capture group of re in s, or "" when re does not match.
func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) < 2 {
		return "", false
	}
	return m[1], true
}
