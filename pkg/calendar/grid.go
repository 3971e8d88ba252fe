package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/kittclouds/kiwii/internal/store"
)

// Day is one cell of the month grid.
type Day struct {
	Date    time.Time      `json:"date"`
	InMonth bool           `json:"inMonth"`
	Events  []*store.Event `json:"events"`
}

// ParseWeekday maps "sunday".."saturday" (or a 3-letter prefix) to a weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// MonthDays returns every date shown for month: from the start of the week
// containing the 1st to the end of the week containing the last day.
// Dates are midnight in month's location.
func MonthDays(month time.Time, weekStart time.Weekday) []time.Time {
	loc := month.Location()
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7
	trail := (int(weekStart) + 6 - int(last.Weekday()) + 7) % 7

	start := first.AddDate(0, 0, -lead)
	end := last.AddDate(0, 0, trail)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MonthGrid returns the month's cells, each with the events overlapping that day.
func (s *Service) MonthGrid(month time.Time, weekStart time.Weekday) ([]Day, error) {
	dates := MonthDays(month, weekStart)
	from, _ := dayBounds(dates[0])
	_, to := dayBounds(dates[len(dates)-1])

	events, err := s.store.ListEventsBetween(from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", month.Format("January 2006"), err)
	}

	grid := make([]Day, len(dates))
	for i, d := range dates {
		dayStart, dayEnd := dayBounds(d)
		cell := Day{Date: d, InMonth: d.Month() == month.Month()}
		for _, e := range events {
			if e.Start <= dayEnd.UnixMilli() && e.End >= dayStart.UnixMilli() {
				cell.Events = append(cell.Events, e)
			}
		}
		grid[i] = cell
	}
	return grid, nil
}
