package todos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kiwii/internal/store"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	st, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	now := t0
	return NewService(st, WithClock(func() time.Time { return now })), &now
}

func titles(todos []*store.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.Title
	}
	return out
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	due := t0.Add(24 * time.Hour)

	todo, err := svc.Create("  Buy milk  ", "", &due)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, store.PriorityMedium, todo.Priority)
	assert.False(t, todo.Completed)
	require.NotNil(t, todo.DueDate)
	assert.Equal(t, due.UnixMilli(), *todo.DueDate)
	assert.Equal(t, t0.UnixMilli(), todo.CreatedAt)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("   ", store.PriorityHigh, nil)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.Create("x", "urgent", nil)
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestToggle(t *testing.T) {
	svc, now := newTestService(t)

	todo, err := svc.Create("Run", store.PriorityLow, nil)
	require.NoError(t, err)

	*now = t0.Add(time.Hour)
	toggled, err := svc.Toggle(todo.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Equal(t, now.UnixMilli(), toggled.UpdatedAt)

	toggled, err = svc.Toggle(todo.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	_, err = svc.Toggle("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)

	todo, err := svc.Create("Old", store.PriorityLow, nil)
	require.NoError(t, err)

	title := "New"
	high := store.PriorityHigh
	done := true
	due := t0.Add(48 * time.Hour)
	dueRef := &due
	updated, err := svc.Update(todo.ID, Patch{Title: &title, Priority: &high, Completed: &done, DueDate: &dueRef})
	require.NoError(t, err)

	got, err := svc.Get(todo.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, store.PriorityHigh, got.Priority)
	assert.True(t, got.Completed)
	require.NotNil(t, got.DueDate)

	var cleared *time.Time
	got, err = svc.Update(todo.ID, Patch{DueDate: &cleared})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)

	blank := " "
	_, err = svc.Update(todo.ID, Patch{Title: &blank})
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)

	todo, err := svc.Create("x", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(todo.ID))
	assert.ErrorIs(t, svc.Delete(todo.ID), ErrNotFound)
}

func TestListOrdering(t *testing.T) {
	svc, _ := newTestService(t)

	create := func(title string, p store.Priority) *store.Todo {
		todo, err := svc.Create(title, p, nil)
		require.NoError(t, err)
		return todo
	}
	create("low1", store.PriorityLow)
	doneHigh := create("doneHigh", store.PriorityHigh)
	create("med1", store.PriorityMedium)
	create("high1", store.PriorityHigh)
	create("med2", store.PriorityMedium)
	doneLow := create("doneLow", store.PriorityLow)

	_, err := svc.Toggle(doneHigh.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(doneLow.ID)
	require.NoError(t, err)

	all, err := svc.List(FilterAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"high1", "med1", "med2", "low1", "doneHigh", "doneLow"}, titles(all))

	active, err := svc.List(FilterActive)
	require.NoError(t, err)
	assert.Equal(t, []string{"high1", "med1", "med2", "low1"}, titles(active))

	completed, err := svc.List(FilterCompleted)
	require.NoError(t, err)
	assert.Equal(t, []string{"doneHigh", "doneLow"}, titles(completed))
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, store.PriorityHigh, p)

	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, store.PriorityMedium, p)

	_, err = ParsePriority("asap")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Active")
	require.NoError(t, err)
	assert.Equal(t, FilterActive, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("someday")
	assert.Error(t, err)
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, "No active tasks!", EmptyMessage(FilterActive))
	assert.Equal(t, "No completed tasks yet!", EmptyMessage(FilterCompleted))
	assert.Equal(t, "No tasks yet. Add one above!", EmptyMessage(FilterAll))
}
