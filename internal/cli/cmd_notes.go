package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/notes"
	"github.com/kittclouds/kiwii/pkg/response"
)

const previewWidth = 60

func notesCommand(a *App) *Command {
	return &Command{
		Usage: "notes <command>",
		Short: "List, write and search notes",
		Sub: []*Command{
			notesLsCommand(a),
			notesAddCommand(a),
			notesShowCommand(a),
			notesEditCommand(a),
			notesRmCommand(a),
			notesSearchCommand(a),
			notesHistoryCommand(a),
			notesRestoreCommand(a),
		},
	}
}

func notesLsCommand(a *App) *Command {
	return &Command{
		Usage: "ls",
		Short: "List notes in creation order",
		Exec: func(_ context.Context, _ []string) error {
			all, err := a.notes.List()
			if err != nil {
				return err
			}
			return a.printNotes(all, "No notes yet. Create one with: kiwii notes add <title>")
		},
	}
}

func notesAddCommand(a *App) *Command {
	fs := newFlags("add")
	content := fs.String("content", "", "Note body (HTML or plain text)")

	return &Command{
		Flags: fs,
		Usage: "add [title] [--content <html>]",
		Short: "Create a note",
		Long:  "Create a note. Without a title it is called \"" + notes.DefaultTitle + "\".",
		Exec: func(_ context.Context, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				title = notes.DefaultTitle
			}

			note, err := a.notes.Create(title, *content)
			if err != nil {
				return err
			}
			if a.io.JSON() {
				return a.io.WriteJSON(response.FromNote(note, a.notes.Preview(note)))
			}
			a.io.Println("Created note", note.ID)
			return nil
		},
	}
}

func notesShowCommand(a *App) *Command {
	return &Command{
		Usage: "show <id>",
		Short: "Show a note with its keywords",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.noteID(firstArg(args))
			if err != nil {
				return err
			}
			note, err := a.notes.Get(id)
			if err != nil {
				return err
			}
			keywords, err := a.notes.Keywords(id, 5)
			if err != nil {
				return err
			}

			if a.io.JSON() {
				return a.io.WriteJSON(struct {
					*store.Note
					Text     string   `json:"text"`
					Keywords []string `json:"keywords"`
				}{note, a.notes.Preview(note), keywords})
			}

			a.io.Println(notes.DisplayTitle(note))
			a.io.Println(a.io.dim(fmt.Sprintf("%s  v%d  updated %s",
				note.ID, note.Version, formatMillis(note.UpdatedAt))))
			a.io.Println()
			a.io.Println(a.notes.Preview(note))
			if len(keywords) > 0 {
				a.io.Println()
				a.io.Println("Keywords:", strings.Join(keywords, ", "))
			}
			return nil
		},
	}
}

func notesEditCommand(a *App) *Command {
	fs := newFlags("edit")
	title := fs.String("title", "", "New title")
	content := fs.String("content", "", "New body")

	return &Command{
		Flags: fs,
		Usage: "edit <id> [--title <t>] [--content <html>]",
		Short: "Change a note, keeping the old version",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.noteID(firstArg(args))
			if err != nil {
				return err
			}

			var p notes.Patch
			if fs.Changed("title") {
				p.Title = title
			}
			if fs.Changed("content") {
				p.Content = content
			}
			if p.Title == nil && p.Content == nil {
				return errors.New("nothing to change: pass --title or --content")
			}

			note, err := a.notes.Update(id, p)
			if err != nil {
				return err
			}
			if a.io.JSON() {
				return a.io.WriteJSON(response.FromNote(note, a.notes.Preview(note)))
			}
			a.io.Printf("Updated note %s (v%d)\n", shortID(note.ID), note.Version)
			return nil
		},
	}
}

func notesRmCommand(a *App) *Command {
	return &Command{
		Usage: "rm <id>",
		Short: "Delete a note and its history",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.noteID(firstArg(args))
			if err != nil {
				return err
			}
			if err := a.notes.Delete(id); err != nil {
				return err
			}
			a.io.Println("Deleted note", shortID(id))
			return nil
		},
	}
}

func notesSearchCommand(a *App) *Command {
	return &Command{
		Usage: "search <query>",
		Short: "Find notes whose title or body contains the query",
		Exec: func(_ context.Context, args []string) error {
			query := strings.Join(args, " ")
			found, err := a.notes.Search(query)
			if err != nil {
				return err
			}
			return a.printNotes(found, fmt.Sprintf("No notes match %q.", query))
		},
	}
}

func notesHistoryCommand(a *App) *Command {
	return &Command{
		Usage: "history <id>",
		Short: "List every version of a note, newest first",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.noteID(firstArg(args))
			if err != nil {
				return err
			}
			versions, err := a.notes.History(id)
			if err != nil {
				return err
			}
			if a.io.JSON() {
				return a.io.WriteJSON(versions)
			}

			for _, v := range versions {
				marker := " "
				if v.IsCurrent {
					marker = "*"
				}
				reason := v.ChangeReason
				if reason == "" {
					reason = "-"
				}
				a.io.Printf("%s v%-3d %s  %-10s %s\n",
					marker, v.Version, formatMillis(v.ValidFrom), reason, notes.DisplayTitle(v))
			}
			return nil
		},
	}
}

func notesRestoreCommand(a *App) *Command {
	return &Command{
		Usage: "restore <id> <version>",
		Short: "Make an old version current again",
		Exec: func(_ context.Context, args []string) error {
			if len(args) < 2 {
				return errors.New("restore needs a note ID and a version")
			}
			id, err := a.noteID(args[0])
			if err != nil {
				return err
			}
			version, err := strconv.Atoi(strings.TrimPrefix(args[1], "v"))
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}

			note, err := a.notes.Restore(id, version)
			if err != nil {
				return err
			}
			a.io.Printf("Restored note %s to v%d as v%d\n", shortID(id), version, note.Version)
			return nil
		},
	}
}

func (a *App) printNotes(list []*store.Note, empty string) error {
	if a.io.JSON() {
		out := make([]response.SlimNote, 0, len(list))
		for _, n := range list {
			out = append(out, response.FromNote(n, a.notes.Preview(n)))
		}
		return a.io.WriteJSON(out)
	}

	if len(list) == 0 {
		a.io.Println(empty)
		return nil
	}
	for _, n := range list {
		a.io.Printf("%s  %s  %s\n",
			a.io.dim(shortID(n.ID)), notes.DisplayTitle(n), a.io.dim(truncate(a.notes.Preview(n), previewWidth)))
	}
	return nil
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
