// Package calendar is the event repository and the month-grid math behind the calendar view.
package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/internal/store"
)

var (
	// ErrNotFound is returned when an event ID does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrInvalidRange is returned when an event ends before it starts.
	ErrInvalidRange = errors.New("event ends before it starts")
	// ErrEmptyTitle is returned when a title is blank after trimming.
	ErrEmptyTitle = errors.New("event title is empty")
)

// DefaultColor is used for events created without a colour.
const DefaultColor = "#22c55e"

// Service manages calendar events.
type Service struct {
	store store.Storer
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logging.OrDiscard(l) }
}

// NewService creates an event service over st.
func NewService(st store.Storer, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		log:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input describes a new event.
type Input struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Color       string
}

// Create validates and stores a new event.
func (s *Service) Create(in Input) (*store.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if in.End.Before(in.Start) {
		return nil, ErrInvalidRange
	}
	color := in.Color
	if color == "" {
		color = DefaultColor
	}

	now := s.now().UnixMilli()
	event := &store.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: in.Description,
		Start:       in.Start.UnixMilli(),
		End:         in.End.UnixMilli(),
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.UpsertEvent(event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.log.Debug("event created", "id", event.ID, "start", in.Start)
	return event, nil
}

// Patch lists the fields to change. Nil fields are left as they are.
type Patch struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Color       *string
}

// Update applies p to an event. The resulting range must still be valid.
func (s *Service) Update(id string, p Patch) (*store.Event, error) {
	event, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		event.Title = title
	}
	if p.Description != nil {
		event.Description = *p.Description
	}
	if p.Start != nil {
		event.Start = p.Start.UnixMilli()
	}
	if p.End != nil {
		event.End = p.End.UnixMilli()
	}
	if p.Color != nil {
		event.Color = *p.Color
	}
	if event.End < event.Start {
		return nil, ErrInvalidRange
	}

	if now := s.now().UnixMilli(); now > event.UpdatedAt {
		event.UpdatedAt = now
	}
	if err := s.store.UpsertEvent(event); err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	return event, nil
}

// Delete removes an event.
func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.store.DeleteEvent(id); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return nil
}

// Get returns an event by ID.
func (s *Service) Get(id string) (*store.Event, error) {
	event, err := s.store.GetEvent(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return event, nil
}

// List returns every event in creation order.
func (s *Service) List() ([]*store.Event, error) {
	events, err := s.store.ListEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ForDate returns the events overlapping the calendar day of day, in day's location.
func (s *Service) ForDate(day time.Time) ([]*store.Event, error) {
	from, to := dayBounds(day)
	events, err := s.store.ListEventsBetween(from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", day.Format(time.DateOnly), err)
	}
	return events, nil
}

// Upcoming returns events starting strictly after now, earliest first.
// A limit of zero or less returns all of them.
func (s *Service) Upcoming(now time.Time, limit int) ([]*store.Event, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	cutoff := now.UnixMilli()
	var out []*store.Event
	for _, e := range all {
		if e.Start > cutoff {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b *store.Event) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DefaultSlot is the slot given to events created from chat: 09:00 to 10:00
// on the day after now, in now's location.
func DefaultSlot(now time.Time) (start, end time.Time) {
	next := now.AddDate(0, 0, 1)
	start = time.Date(next.Year(), next.Month(), next.Day(), 9, 0, 0, 0, now.Location())
	end = time.Date(next.Year(), next.Month(), next.Day(), 10, 0, 0, 0, now.Location())
	return start, end
}

// dayBounds returns the first and last millisecond of t's day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}
