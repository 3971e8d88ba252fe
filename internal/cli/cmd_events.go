package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/calendar"
	"github.com/kittclouds/kiwii/pkg/response"
)

// timeLayouts are accepted for --start and --end, in local time.
var timeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseLocalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want YYYY-MM-DD HH:MM", s)
}

func eventsCommand(a *App) *Command {
	return &Command{
		Usage: "events <command>",
		Short: "Manage calendar events",
		Sub: []*Command{
			eventsLsCommand(a),
			eventsAddCommand(a),
			eventsRmCommand(a),
			eventsMonthCommand(a),
		},
	}
}

func eventsLsCommand(a *App) *Command {
	fs := newFlags("ls")
	date := fs.String("date", "", "Only events on this day (YYYY-MM-DD)")
	upcoming := fs.Bool("upcoming", false, "Only events that have not started yet")

	return &Command{
		Flags: fs,
		Usage: "ls [--date day] [--upcoming]",
		Short: "List events",
		Exec: func(_ context.Context, _ []string) error {
			var (
				list []*store.Event
				err  error
			)
			switch {
			case *date != "":
				day, perr := time.ParseInLocation(time.DateOnly, *date, time.Local)
				if perr != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", *date)
				}
				list, err = a.events.ForDate(day)
			case *upcoming:
				list, err = a.events.Upcoming(a.now(), 0)
			default:
				list, err = a.events.List()
			}
			if err != nil {
				return err
			}
			return a.printEvents(list)
		},
	}
}

func eventsAddCommand(a *App) *Command {
	fs := newFlags("add")
	start := fs.String("start", "", "Start time (YYYY-MM-DD HH:MM)")
	end := fs.String("end", "", "End time; defaults to one hour after start")
	description := fs.StringP("description", "d", "", "Description")
	color := fs.String("color", "", "Colour as a CSS hex value")

	return &Command{
		Flags: fs,
		Usage: "add <title> --start <time> [--end <time>]",
		Short: "Add an event",
		Exec: func(_ context.Context, args []string) error {
			if *start == "" {
				return fmt.Errorf("--start is required")
			}
			from, err := parseLocalTime(*start)
			if err != nil {
				return err
			}
			to := from.Add(time.Hour)
			if *end != "" {
				if to, err = parseLocalTime(*end); err != nil {
					return err
				}
			}

			event, err := a.events.Create(calendar.Input{
				Title:       strings.Join(args, " "),
				Description: *description,
				Start:       from,
				End:         to,
				Color:       *color,
			})
			if err != nil {
				return err
			}
			if a.io.JSON() {
				return a.io.WriteJSON(response.FromEvents([]*store.Event{event})[0])
			}
			a.io.Println("Added event", event.ID)
			return nil
		},
	}
}

func eventsRmCommand(a *App) *Command {
	return &Command{
		Usage: "rm <id>",
		Short: "Delete an event",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.eventID(firstArg(args))
			if err != nil {
				return err
			}
			if err := a.events.Delete(id); err != nil {
				return err
			}
			a.io.Println("Deleted event", shortID(id))
			return nil
		},
	}
}

type monthCell struct {
	Date    string               `json:"date"`
	InMonth bool                 `json:"inMonth"`
	Events  []response.SlimEvent `json:"events"`
}

func eventsMonthCommand(a *App) *Command {
	return &Command{
		Usage: "month [YYYY-MM]",
		Short: "Show a month grid with its events",
		Exec: func(_ context.Context, args []string) error {
			month := a.now()
			if len(args) > 0 {
				m, err := time.ParseInLocation("2006-01", args[0], time.Local)
				if err != nil {
					return fmt.Errorf("invalid month %q: want YYYY-MM", args[0])
				}
				month = m
			}

			grid, err := a.events.MonthGrid(month, a.weekStart)
			if err != nil {
				return err
			}

			if a.io.JSON() {
				cells := make([]monthCell, len(grid))
				for i, d := range grid {
					cells[i] = monthCell{
						Date:    d.Date.Format(time.DateOnly),
						InMonth: d.InMonth,
						Events:  response.FromEvents(d.Events),
					}
				}
				return a.io.WriteJSON(cells)
			}

			a.printMonth(month, grid)
			return nil
		},
	}
}

func (a *App) printMonth(month time.Time, grid []calendar.Day) {
	a.io.Println(month.Format("January 2006"))

	var header []string
	for i := 0; i < 7; i++ {
		header = append(header, (time.Weekday((int(a.weekStart)+i)%7)).String()[:2]+" ")
	}
	a.io.Println(strings.Join(header, " "))

	var row strings.Builder
	for i, d := range grid {
		marker := " "
		if len(d.Events) > 0 {
			marker = "*"
		}
		cell := fmt.Sprintf("%2d%s", d.Date.Day(), marker)
		if !d.InMonth {
			cell = a.io.dim(cell)
		}
		row.WriteString(cell)
		if i%7 == 6 {
			a.io.Println(row.String())
			row.Reset()
		} else {
			row.WriteByte(' ')
		}
	}

	printed := false
	for _, d := range grid {
		if !d.InMonth || len(d.Events) == 0 {
			continue
		}
		if !printed {
			a.io.Println()
			printed = true
		}
		for _, e := range d.Events {
			a.io.Printf("%s  %s  %s\n", d.Date.Format("Jan 02"), time.UnixMilli(e.Start).Format("15:04"), e.Title)
		}
	}
}

func (a *App) printEvents(list []*store.Event) error {
	if a.io.JSON() {
		return a.io.WriteJSON(response.FromEvents(list))
	}
	if len(list) == 0 {
		a.io.Println("No events.")
		return nil
	}
	for _, e := range list {
		start := time.UnixMilli(e.Start)
		a.io.Printf("%s  %s-%s  %s\n",
			a.io.dim(shortID(e.ID)), start.Format("2006-01-02 15:04"), time.UnixMilli(e.End).Format("15:04"), e.Title)
	}
	return nil
}
