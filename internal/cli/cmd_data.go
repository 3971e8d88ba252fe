package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/kiwii/internal/store"
)

var ErrFileRequired = errors.New("file path is required")

// formatFor picks json or yaml from an explicit flag or the file extension.
func formatFor(flagValue string, changed bool, path string) (string, error) {
	if changed {
		switch f := strings.ToLower(flagValue); f {
		case "json", "yaml":
			return f, nil
		case "yml":
			return "yaml", nil
		}
		return "", fmt.Errorf("unknown format %q: want json or yaml", flagValue)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	}
	return "json", nil
}

func exportCommand(a *App) *Command {
	fs := newFlags("export")
	format := fs.StringP("format", "f", "json", "Output format: json or yaml")

	return &Command{
		Flags: fs,
		Usage: "export [--format json|yaml] <file>",
		Short: "Write every note, todo, event and message to a file",
		Exec: func(_ context.Context, args []string) error {
			path := firstArg(args)
			if path == "" {
				return ErrFileRequired
			}
			f, err := formatFor(*format, fs.Changed("format"), path)
			if err != nil {
				return err
			}

			data, err := a.store.Export()
			if err != nil {
				return err
			}
			if f == "yaml" {
				var export store.ExportData
				if err := json.Unmarshal(data, &export); err != nil {
					return fmt.Errorf("failed to decode export: %w", err)
				}
				if data, err = yaml.Marshal(&export); err != nil {
					return fmt.Errorf("failed to encode yaml: %w", err)
				}
			}

			if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			a.log.Info("exported", "path", path, "format", f, "bytes", len(data))
			a.io.Printf("Exported to %s\n", path)
			return nil
		},
	}
}

func importCommand(a *App) *Command {
	return &Command{
		Usage: "import <file>",
		Short: "Replace all data with the contents of an export file",
		Exec: func(_ context.Context, args []string) error {
			path := firstArg(args)
			if path == "" {
				return ErrFileRequired
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			if f, _ := formatFor("", false, path); f == "yaml" {
				var export store.ExportData
				if err := yaml.Unmarshal(data, &export); err != nil {
					return fmt.Errorf("failed to decode yaml: %w", err)
				}
				if data, err = json.Marshal(&export); err != nil {
					return fmt.Errorf("failed to encode import: %w", err)
				}
			}

			if err := a.store.Import(data); err != nil {
				return err
			}
			if _, err := a.notes.Hydrate(); err != nil {
				a.log.Warn("note cache not hydrated after import", "error", err)
			}
			return a.printCounts("Imported")
		},
	}
}

type infoOutput struct {
	Version       string `json:"version"`
	Database      string `json:"database"`
	GlobalConfig  string `json:"globalConfig,omitempty"`
	ProjectConfig string `json:"projectConfig,omitempty"`
	SQLite        string `json:"sqlite"`
	SQLiteVec     string `json:"sqliteVec,omitempty"`
	Notes         int    `json:"notes"`
	Todos         int    `json:"todos"`
	Events        int    `json:"events"`
}

func infoCommand(a *App) *Command {
	return &Command{
		Usage: "info",
		Short: "Show version, config sources and database statistics",
		Exec: func(_ context.Context, _ []string) error {
			info, err := a.store.Info()
			if err != nil {
				return err
			}
			out := infoOutput{
				Version:       Version,
				Database:      a.cfg.DBPath,
				GlobalConfig:  a.cfg.Sources.Global,
				ProjectConfig: a.cfg.Sources.Project,
				SQLite:        info.SQLiteVersion,
				SQLiteVec:     info.VecVersion,
			}
			if out.Notes, err = a.store.CountNotes(); err != nil {
				return err
			}
			if out.Todos, err = a.store.CountTodos(); err != nil {
				return err
			}
			if out.Events, err = a.store.CountEvents(); err != nil {
				return err
			}

			if a.io.JSON() {
				return a.io.WriteJSON(out)
			}
			a.io.Printf("kiwii %s\n", out.Version)
			a.io.Printf("database:  %s\n", out.Database)
			if out.GlobalConfig != "" {
				a.io.Printf("config:    %s\n", out.GlobalConfig)
			}
			if out.ProjectConfig != "" {
				a.io.Printf("config:    %s\n", out.ProjectConfig)
			}
			a.io.Printf("sqlite:    %s\n", out.SQLite)
			if out.SQLiteVec != "" {
				a.io.Printf("sqlite-vec: %s\n", out.SQLiteVec)
			}
			a.io.Printf("notes: %d  todos: %d  events: %d\n", out.Notes, out.Todos, out.Events)
			return nil
		},
	}
}

func (a *App) printCounts(verb string) error {
	n, err := a.store.CountNotes()
	if err != nil {
		return err
	}
	t, err := a.store.CountTodos()
	if err != nil {
		return err
	}
	e, err := a.store.CountEvents()
	if err != nil {
		return err
	}
	a.io.Printf("%s %d notes, %d todos, %d events\n", verb, n, t, e)
	return nil
}
