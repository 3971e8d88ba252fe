package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kiwii/internal/store"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, WithClock(func() time.Time { return date(2024, 3, 1, 8, 0) }))
}

func mustCreate(t *testing.T, svc *Service, title string, start, end time.Time) *store.Event {
	t.Helper()
	e, err := svc.Create(Input{Title: title, Start: start, End: end})
	require.NoError(t, err)
	return e
}

func ids(events []*store.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func TestCreateDefaults(t *testing.T) {
	svc := newTestService(t)

	e := mustCreate(t, svc, " Standup ", date(2024, 3, 4, 9, 0), date(2024, 3, 4, 9, 15))
	assert.Equal(t, "Standup", e.Title)
	assert.Equal(t, DefaultColor, e.Color)
	assert.NotEmpty(t, e.ID)

	got, err := svc.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(Input{Title: "", Start: date(2024, 3, 4, 9, 0), End: date(2024, 3, 4, 10, 0)})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.Create(Input{Title: "Backwards", Start: date(2024, 3, 4, 10, 0), End: date(2024, 3, 4, 9, 0)})
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Zero-length events are allowed.
	_, err = svc.Create(Input{Title: "Instant", Start: date(2024, 3, 4, 9, 0), End: date(2024, 3, 4, 9, 0)})
	assert.NoError(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	e := mustCreate(t, svc, "Review", date(2024, 3, 4, 9, 0), date(2024, 3, 4, 10, 0))

	end := date(2024, 3, 4, 8, 0)
	_, err := svc.Update(e.ID, Patch{End: &end})
	assert.ErrorIs(t, err, ErrInvalidRange)

	color := "#ff0000"
	end = date(2024, 3, 4, 11, 0)
	updated, err := svc.Update(e.ID, Patch{End: &end, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, end.UnixMilli(), updated.End)
	assert.Equal(t, "#ff0000", updated.Color)

	require.NoError(t, svc.Delete(e.ID))
	assert.ErrorIs(t, svc.Delete(e.ID), ErrNotFound)
	_, err = svc.Update(e.ID, Patch{Color: &color})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForDate(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, "Morning", date(2024, 3, 4, 9, 0), date(2024, 3, 4, 10, 0))
	mustCreate(t, svc, "Overnight", date(2024, 3, 3, 22, 0), date(2024, 3, 4, 1, 0))
	mustCreate(t, svc, "Tomorrow", date(2024, 3, 5, 0, 0), date(2024, 3, 5, 1, 0))

	events, err := svc.ForDate(date(2024, 3, 4, 15, 30))
	require.NoError(t, err)
	assert.Equal(t, []string{"Overnight", "Morning"}, ids(events))
}

func TestUpcoming(t *testing.T) {
	svc := newTestService(t)
	now := date(2024, 3, 10, 12, 0)
	mustCreate(t, svc, "Past", date(2024, 3, 9, 9, 0), date(2024, 3, 9, 10, 0))
	mustCreate(t, svc, "Later", date(2024, 3, 12, 9, 0), date(2024, 3, 12, 10, 0))
	mustCreate(t, svc, "Now", now, now.Add(time.Hour))
	mustCreate(t, svc, "Soon", date(2024, 3, 11, 9, 0), date(2024, 3, 11, 10, 0))

	events, err := svc.Upcoming(now, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Soon", "Later"}, ids(events))

	events, err = svc.Upcoming(now, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Soon"}, ids(events))
}

func TestDefaultSlot(t *testing.T) {
	start, end := DefaultSlot(date(2024, 3, 31, 15, 45))
	assert.Equal(t, date(2024, 4, 1, 9, 0), start)
	assert.Equal(t, date(2024, 4, 1, 10, 0), end)

	loc := time.FixedZone("UTC+9", 9*3600)
	start, _ = DefaultSlot(time.Date(2024, 12, 31, 23, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, loc), start)
}

func TestMonthDays(t *testing.T) {
	tests := []struct {
		name      string
		month     time.Time
		weekStart time.Weekday
		first     time.Time
		last      time.Time
		count     int
	}{
		{"march sunday", date(2024, 3, 15, 0, 0), time.Sunday, date(2024, 2, 25, 0, 0), date(2024, 4, 6, 0, 0), 42},
		{"march monday", date(2024, 3, 15, 0, 0), time.Monday, date(2024, 2, 26, 0, 0), date(2024, 3, 31, 0, 0), 35},
		{"exact february", date(2015, 2, 10, 0, 0), time.Sunday, date(2015, 2, 1, 0, 0), date(2015, 2, 28, 0, 0), 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := MonthDays(tt.month, tt.weekStart)
			require.Len(t, days, tt.count)
			assert.Equal(t, tt.first, days[0])
			assert.Equal(t, tt.last, days[len(days)-1])
			assert.Equal(t, tt.weekStart, days[0].Weekday())
			assert.Zero(t, len(days)%7)
		})
	}
}

func TestMonthGrid(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, "Standup", date(2024, 3, 10, 9, 0), date(2024, 3, 10, 10, 0))
	mustCreate(t, svc, "Trip", date(2024, 3, 30, 22, 0), date(2024, 4, 1, 2, 0))
	mustCreate(t, svc, "Elsewhere", date(2024, 6, 1, 9, 0), date(2024, 6, 1, 10, 0))

	grid, err := svc.MonthGrid(date(2024, 3, 1, 0, 0), time.Sunday)
	require.NoError(t, err)
	require.Len(t, grid, 42)

	byDate := make(map[string]Day, len(grid))
	for _, d := range grid {
		byDate[d.Date.Format(time.DateOnly)] = d
	}

	assert.False(t, byDate["2024-02-25"].InMonth)
	assert.True(t, byDate["2024-03-01"].InMonth)
	assert.False(t, byDate["2024-04-01"].InMonth)

	assert.Equal(t, []string{"Standup"}, ids(byDate["2024-03-10"].Events))
	assert.Equal(t, []string{"Trip"}, ids(byDate["2024-03-30"].Events))
	assert.Equal(t, []string{"Trip"}, ids(byDate["2024-03-31"].Events))
	assert.Equal(t, []string{"Trip"}, ids(byDate["2024-04-01"].Events))
	assert.Empty(t, byDate["2024-03-11"].Events)
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = ParseWeekday("sat")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	d, err = ParseWeekday("")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	_, err = ParseWeekday("funday")
	assert.Error(t, err)
}
