package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kittclouds/kiwii/internal/config"
	"github.com/kittclouds/kiwii/internal/logging"
	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/agent"
	"github.com/kittclouds/kiwii/pkg/calendar"
	"github.com/kittclouds/kiwii/pkg/chat"
	"github.com/kittclouds/kiwii/pkg/docstore"
	"github.com/kittclouds/kiwii/pkg/notes"
	"github.com/kittclouds/kiwii/pkg/todos"
)

var (
	ErrIDRequired  = errors.New("ID is required")
	ErrAmbiguousID = errors.New("ID prefix is ambiguous")
)

// App wires the store and services for one CLI invocation.
type App struct {
	cfg       config.Config
	io        *IO
	log       *slog.Logger
	now       func() time.Time
	weekStart time.Weekday

	store    *store.SQLiteStore
	notes    *notes.Service
	todos    *todos.Service
	events   *calendar.Service
	chat     *chat.ChatService
	resolver *agent.Resolver
}

// newApp opens the database named by cfg and builds the services.
func newApp(cfg config.Config, o *IO) (*App, error) {
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: o.errOut})

	weekStart, err := calendar.ParseWeekday(cfg.WeekStart)
	if err != nil {
		return nil, err
	}

	if cfg.DBPath != config.MemoryDB {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStoreWithDSN(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Debug("store opened", "path", cfg.DBPath)

	a := &App{
		cfg:       cfg,
		io:        o,
		log:       log,
		now:       time.Now,
		weekStart: weekStart,
		store:     st,
	}
	a.notes = notes.NewService(st, notes.WithLogger(log), notes.WithDocStore(docstore.New()))
	a.todos = todos.NewService(st, todos.WithLogger(log))
	a.events = calendar.NewService(st, calendar.WithLogger(log))
	a.resolver = agent.NewResolver(agent.WithClock(a.now))
	a.chat = chat.NewChatService(st, a.notes, a.todos, a.events,
		chat.WithLogger(log),
		chat.WithResolver(a.resolver),
	)

	if n, err := a.notes.Hydrate(); err != nil {
		log.Warn("note cache not hydrated", "error", err)
	} else {
		log.Debug("note cache hydrated", "count", n)
	}
	return a, nil
}

// Close closes the database.
func (a *App) Close() error {
	return a.store.Close()
}

// =============================================================================
// ID resolution
// =============================================================================

// shortID is the prefix shown in listings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// matchID resolves a full ID or a unique prefix of one.
func matchID(ids []string, prefix string, notFound error) (string, error) {
	if prefix == "" {
		return "", ErrIDRequired
	}

	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", notFound, prefix)
	}
	return match, nil
}

func (a *App) noteID(prefix string) (string, error) {
	all, err := a.notes.List()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(all))
	for i, n := range all {
		ids[i] = n.ID
	}
	return matchID(ids, prefix, notes.ErrNotFound)
}

func (a *App) todoID(prefix string) (string, error) {
	all, err := a.todos.All()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	return matchID(ids, prefix, todos.ErrNotFound)
}

func (a *App) eventID(prefix string) (string, error) {
	all, err := a.events.List()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(all))
	for i, e := range all {
		ids[i] = e.ID
	}
	return matchID(ids, prefix, calendar.ErrNotFound)
}

// firstArg returns args[0] or "" when there is none.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
