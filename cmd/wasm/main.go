//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"syscall/js"
	"time"

	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/calendar"
	"github.com/kittclouds/kiwii/pkg/chat"
	"github.com/kittclouds/kiwii/pkg/docstore"
	"github.com/kittclouds/kiwii/pkg/notes"
	"github.com/kittclouds/kiwii/pkg/response"
	"github.com/kittclouds/kiwii/pkg/todos"
)

// Version info
const Version = "0.1.0"

// Global state
var sqlStore *store.SQLiteStore // SQLite store, in memory and synced to OPFS by the host
var docs *docstore.Store        // Flattened note text cache
var noteSvc *notes.Service
var todoSvc *todos.Service
var eventSvc *calendar.Service
var chatSvc *chat.ChatService

func main() {
	docs = docstore.New()

	fmt.Println("[Kiwii] WASM Ready v" + Version)

	js.Global().Set("Kiwii", js.ValueOf(map[string]interface{}{
		"version": js.FuncOf(getVersion),
		// Store lifecycle (OPFS sync)
		"storeInit":   js.FuncOf(storeInit),
		"storeExport": js.FuncOf(storeExport),
		"storeImport": js.FuncOf(storeImport),
		// Notes
		"notesCreate":  js.FuncOf(notesCreate),
		"notesUpdate":  js.FuncOf(notesUpdate),
		"notesDelete":  js.FuncOf(notesDelete),
		"notesGet":     js.FuncOf(notesGet),
		"notesList":    js.FuncOf(notesList),
		"notesSearch":  js.FuncOf(notesSearch),
		"notesHistory": js.FuncOf(notesHistory),
		"notesRestore": js.FuncOf(notesRestore),
		// Todos
		"todosCreate": js.FuncOf(todosCreate),
		"todosUpdate": js.FuncOf(todosUpdate),
		"todosToggle": js.FuncOf(todosToggle),
		"todosDelete": js.FuncOf(todosDelete),
		"todosList":   js.FuncOf(todosList),
		// Calendar
		"eventsCreate":  js.FuncOf(eventsCreate),
		"eventsUpdate":  js.FuncOf(eventsUpdate),
		"eventsDelete":  js.FuncOf(eventsDelete),
		"eventsList":    js.FuncOf(eventsList),
		"eventsForDate": js.FuncOf(eventsForDate),
		"calendarMonth": js.FuncOf(calendarMonth),
		// Chat
		"chatSend":     js.FuncOf(chatSend),
		"chatMessages": js.FuncOf(chatMessages),
		"chatClear":    js.FuncOf(chatClear),
		"chatExport":   js.FuncOf(chatExport),
	}))

	// Keep alive
	select {}
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	return response.Error(msg)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	return response.Success(msg)
}

func jsonResult(v any) interface{} {
	return response.JSON(v)
}

// notReady returns an error result until storeInit has run.
func notReady() (interface{}, bool) {
	if sqlStore == nil {
		return errorResult("store not initialized"), true
	}
	return nil, false
}

func argString(args []js.Value, i int) string {
	if i >= len(args) || args[i].IsUndefined() || args[i].IsNull() {
		return ""
	}
	return args[i].String()
}

// =============================================================================
// Store lifecycle
// =============================================================================

// storeInit creates the in-memory store and the services on top of it.
// Args: [logLevel? string]
func storeInit(this js.Value, args []js.Value) interface{} {
	var err error
	sqlStore, err = store.NewSQLiteStore()
	if err != nil {
		return errorResult("failed to initialize SQLite store: " + err.Error())
	}

	log := logging.New(logging.Config{Level: argString(args, 0), Output: os.Stdout})
	docs.Clear()
	noteSvc = notes.NewService(sqlStore, notes.WithLogger(log), notes.WithDocStore(docs))
	todoSvc = todos.NewService(sqlStore, todos.WithLogger(log))
	eventSvc = calendar.NewService(sqlStore, calendar.WithLogger(log))
	chatSvc = chat.NewChatService(sqlStore, noteSvc, todoSvc, eventSvc, chat.WithLogger(log))

	fmt.Println("[Kiwii] ✅ SQLite Store initialized")
	return successResult("store initialized")
}

// storeExport serializes the database to a Uint8Array for OPFS persistence.
func storeExport(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}

	data, err := sqlStore.Export()
	if err != nil {
		return errorResult("export failed: " + err.Error())
	}

	jsArray := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(jsArray, data)

	fmt.Printf("[Kiwii] ✅ Exported %d bytes\n", len(data))
	return jsArray
}

// storeImport restores the database from a Uint8Array and rebuilds the text cache.
// Args: [data Uint8Array]
func storeImport(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("storeImport requires 1 arg: data (Uint8Array)")
	}
	if r, ok := notReady(); ok {
		return r
	}

	jsArray := args[0]
	length := jsArray.Get("length").Int()
	data := make([]byte, length)
	js.CopyBytesToGo(data, jsArray)

	if err := sqlStore.Import(data); err != nil {
		return errorResult("import failed: " + err.Error())
	}
	docs.Clear()
	count, err := noteSvc.Hydrate()
	if err != nil {
		return errorResult("hydrate failed: " + err.Error())
	}

	fmt.Printf("[Kiwii] ✅ Imported %d bytes, %d notes cached\n", length, count)
	return successResult(fmt.Sprintf("imported %d bytes", length))
}

// =============================================================================
// Notes
// =============================================================================

type noteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// notesCreate creates a note.
// Args: [noteJSON string] - {title?, content?}
func notesCreate(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}

	var in noteInput
	if raw := argString(args, 0); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return errorResult("invalid note json: " + err.Error())
		}
	}
	title, content := notes.DefaultTitle, ""
	if in.Title != nil {
		title = *in.Title
	}
	if in.Content != nil {
		content = *in.Content
	}

	note, err := noteSvc.Create(title, content)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(note)
}

// notesUpdate changes a note and writes a new version.
// Args: [id string, patchJSON string] - {title?, content?}
func notesUpdate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("notesUpdate requires 2 args: id, patchJSON")
	}
	if r, ok := notReady(); ok {
		return r
	}

	var in noteInput
	if err := json.Unmarshal([]byte(args[1].String()), &in); err != nil {
		return errorResult("invalid patch json: " + err.Error())
	}

	note, err := noteSvc.Update(args[0].String(), notes.Patch{Title: in.Title, Content: in.Content})
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(note)
}

// notesDelete removes a note.
// Args: [id string]
func notesDelete(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("notesDelete requires 1 arg: id")
	}
	if r, ok := notReady(); ok {
		return r
	}
	if err := noteSvc.Delete(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted " + args[0].String())
}

// notesGet returns a full note.
// Args: [id string]
func notesGet(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("notesGet requires 1 arg: id")
	}
	if r, ok := notReady(); ok {
		return r
	}
	note, err := noteSvc.Get(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(note)
}

func slimNotes(list []*store.Note) []response.SlimNote {
	out := make([]response.SlimNote, 0, len(list))
	for _, n := range list {
		out = append(out, response.FromNote(n, noteSvc.Preview(n)))
	}
	return out
}

// notesList returns every note with its preview, in creation order.
func notesList(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	list, err := noteSvc.List()
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(slimNotes(list))
}

// notesSearch returns notes whose title or content contains the query.
// Args: [query string]
func notesSearch(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	list, err := noteSvc.Search(argString(args, 0))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(slimNotes(list))
}

// notesHistory returns every version of a note, newest first.
// Args: [id string]
func notesHistory(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("notesHistory requires 1 arg: id")
	}
	if r, ok := notReady(); ok {
		return r
	}
	versions, err := noteSvc.History(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(versions)
}

// notesRestore makes an old version current again.
// Args: [id string, version number]
func notesRestore(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("notesRestore requires 2 args: id, version")
	}
	if r, ok := notReady(); ok {
		return r
	}
	note, err := noteSvc.Restore(args[0].String(), args[1].Int())
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(note)
}

// =============================================================================
// Todos
// =============================================================================

// todosCreate adds a todo.
// Args: [todoJSON string] - {title, priority?, dueDate?}
func todosCreate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("todosCreate requires 1 arg: todoJSON")
	}
	if r, ok := notReady(); ok {
		return r
	}

	var in struct {
		Title    string `json:"title"`
		Priority string `json:"priority"`
		DueDate  *int64 `json:"dueDate"`
	}
	if err := json.Unmarshal([]byte(args[0].String()), &in); err != nil {
		return errorResult("invalid todo json: " + err.Error())
	}
	priority, err := todos.ParsePriority(in.Priority)
	if err != nil {
		return errorResult(err.Error())
	}

	todo, err := todoSvc.Create(in.Title, priority, fromMillis(in.DueDate))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(todo)
}

// todosUpdate changes a todo. A "dueDate" of null clears it.
// Args: [id string, patchJSON string] - {title?, completed?, priority?, dueDate?}
func todosUpdate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("todosUpdate requires 2 args: id, patchJSON")
	}
	if r, ok := notReady(); ok {
		return r
	}

	var in struct {
		Title     *string         `json:"title"`
		Completed *bool           `json:"completed"`
		Priority  *string         `json:"priority"`
		DueDate   json.RawMessage `json:"dueDate"`
	}
	if err := json.Unmarshal([]byte(args[1].String()), &in); err != nil {
		return errorResult("invalid patch json: " + err.Error())
	}

	p := todos.Patch{Title: in.Title, Completed: in.Completed}
	if in.Priority != nil {
		priority, err := todos.ParsePriority(*in.Priority)
		if err != nil {
			return errorResult(err.Error())
		}
		p.Priority = &priority
	}
	if in.DueDate != nil {
		var ms *int64
		if err := json.Unmarshal(in.DueDate, &ms); err != nil {
			return errorResult("invalid dueDate: " + err.Error())
		}
		due := fromMillis(ms)
		p.DueDate = &due
	}

	todo, err := todoSvc.Update(args[0].String(), p)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(todo)
}

// todosToggle flips a todo between open and completed.
// Args: [id string]
func todosToggle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("todosToggle requires 1 arg: id")
	}
	if r, ok := notReady(); ok {
		return r
	}
	todo, err := todoSvc.Toggle(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(todo)
}

// todosDelete removes a todo.
// Args: [id string]
func todosDelete(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("todosDelete requires 1 arg: id")
	}
	if r, ok := notReady(); ok {
		return r
	}
	if err := todoSvc.Delete(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted " + args[0].String())
}

// todosList returns todos for a filter, open ones first by priority.
// Args: [filter? "all"|"active"|"completed"]
func todosList(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	f, err := todos.ParseFilter(argString(args, 0))
	if err != nil {
		return errorResult(err.Error())
	}
	list, err := todoSvc.List(f)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{
		"todos": response.FromTodos(list),
		"empty": todos.EmptyMessage(f),
	})
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

// =============================================================================
// Calendar
// =============================================================================

type eventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Start       *int64  `json:"start"`
	End         *int64  `json:"end"`
	Color       *string `json:"color"`
}

// eventsCreate adds an event.
// Args: [eventJSON string] - {title, description?, start, end, color?}
func eventsCreate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("eventsCreate requires 1 arg: eventJSON")
	}
	if r, ok := notReady(); ok {
		return r
	}

	var in eventInput
	if err := json.Unmarshal([]byte(args[0].String()), &in); err != nil {
		return errorResult("invalid event json: " + err.Error())
	}
	if in.Title == nil || in.Start == nil || in.End == nil {
		return errorResult("event requires title, start and end")
	}

	input := calendar.Input{
		Title: *in.Title,
		Start: time.UnixMilli(*in.Start),
		End:   time.UnixMilli(*in.End),
	}
	if in.Description != nil {
		input.Description = *in.Description
	}
	if in.Color != nil {
		input.Color = *in.Color
	}

	event, err := eventSvc.Create(input)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(event)
}

// eventsUpdate changes an event.
// Args: [id string, patchJSON string]
func eventsUpdate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("eventsUpdate requires 2 args: id, patchJSON")
	}
	if r, ok := notReady(); ok {
		return r
	}

	var in eventInput
	if err := json.Unmarshal([]byte(args[1].String()), &in); err != nil {
		return errorResult("invalid patch json: " + err.Error())
	}

	p := calendar.Patch{Title: in.Title, Description: in.Description, Color: in.Color}
	p.Start = fromMillis(in.Start)
	p.End = fromMillis(in.End)

	event, err := eventSvc.Update(args[0].String(), p)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(event)
}

// eventsDelete removes an event.
// Args: [id string]
func eventsDelete(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("eventsDelete requires 1 arg: id")
	}
	if r, ok := notReady(); ok {
		return r
	}
	if err := eventSvc.Delete(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted " + args[0].String())
}

// eventsList returns every event in insertion order.
func eventsList(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	list, err := eventSvc.List()
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(response.FromEvents(list))
}

// eventsForDate returns the events overlapping a local calendar day.
// Args: [dayMillis number]
func eventsForDate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("eventsForDate requires 1 arg: dayMillis")
	}
	if r, ok := notReady(); ok {
		return r
	}
	list, err := eventSvc.ForDate(time.UnixMilli(int64(args[0].Float())))
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(response.FromEvents(list))
}

// calendarMonth returns the whole-week grid for a month with each day's events.
// Args: [year number, month number (1-12), weekStart? string]
func calendarMonth(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("calendarMonth requires 2 args: year, month")
	}
	if r, ok := notReady(); ok {
		return r
	}

	weekStart, err := calendar.ParseWeekday(argString(args, 2))
	if err != nil {
		return errorResult(err.Error())
	}
	month := time.Date(args[0].Int(), time.Month(args[1].Int()), 1, 0, 0, 0, 0, time.Local)

	grid, err := eventSvc.MonthGrid(month, weekStart)
	if err != nil {
		return errorResult(err.Error())
	}

	type cell struct {
		Date    int64                `json:"date"`
		InMonth bool                 `json:"inMonth"`
		Events  []response.SlimEvent `json:"events"`
	}
	cells := make([]cell, len(grid))
	for i, d := range grid {
		cells[i] = cell{Date: d.Date.UnixMilli(), InMonth: d.InMonth, Events: response.FromEvents(d.Events)}
	}
	return jsonResult(cells)
}

// =============================================================================
// Chat
// =============================================================================

func makePromise() (promise js.Value, resolve js.Value, reject js.Value) {
	var resolveFn, rejectFn js.Value
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolveFn = args[0]
		rejectFn = args[1]
		return nil
	})
	defer handler.Release()

	promise = js.Global().Get("Promise").New(handler)
	return promise, resolveFn, rejectFn
}

// chatSend records a message, resolves it and applies the resulting action.
// Args: [content string]
// Returns: Promise<JSON> with {response, action, createdId?}
func chatSend(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("chatSend requires 1 arg: content")
	}
	if r, ok := notReady(); ok {
		return r
	}
	content := args[0].String()

	promise, resolve, reject := makePromise()

	go func() {
		ex, err := chatSvc.Send(context.Background(), content)
		if err != nil {
			reject.Invoke(js.Global().Get("Error").New(fmt.Sprintf("chatSend: %v", err)))
			return
		}

		jsonBytes, err := response.MarshalChatReply(ex.Reply.Content, ex.Action, ex.CreatedID)
		if err != nil {
			reject.Invoke(js.Global().Get("Error").New(fmt.Sprintf("chatSend: %v", err)))
			return
		}
		resolve.Invoke(string(jsonBytes))
	}()

	return promise
}

// chatMessages returns the conversation in chronological order.
func chatMessages(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	messages, err := chatSvc.Messages()
	if err != nil {
		return errorResult(err.Error())
	}
	if messages == nil {
		messages = []*store.ChatMessage{}
	}
	return jsonResult(messages)
}

// chatClear forgets the conversation.
func chatClear(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	if err := chatSvc.Clear(); err != nil {
		return errorResult(err.Error())
	}
	return successResult("conversation cleared")
}

// chatExport returns the conversation as a JSON array string.
func chatExport(this js.Value, args []js.Value) interface{} {
	if r, ok := notReady(); ok {
		return r
	}
	out, err := chatSvc.Export()
	if err != nil {
		return errorResult(err.Error())
	}
	return out
}
