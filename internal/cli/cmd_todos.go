package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/response"
	"github.com/kittclouds/kiwii/pkg/todos"
)

func todosCommand(a *App) *Command {
	return &Command{
		Usage: "todos <command>",
		Short: "Manage the to-do list",
		Sub: []*Command{
			todosLsCommand(a),
			todosAddCommand(a),
			todosDoneCommand(a),
			todosRmCommand(a),
		},
	}
}

func todosLsCommand(a *App) *Command {
	fs := newFlags("ls")
	filter := fs.StringP("filter", "f", "all", "Show all, active or completed todos")

	return &Command{
		Flags: fs,
		Usage: "ls [--filter all|active|completed]",
		Short: "List todos, open ones first by priority",
		Exec: func(_ context.Context, _ []string) error {
			f, err := todos.ParseFilter(*filter)
			if err != nil {
				return err
			}
			list, err := a.todos.List(f)
			if err != nil {
				return err
			}

			if a.io.JSON() {
				return a.io.WriteJSON(response.FromTodos(list))
			}
			if len(list) == 0 {
				a.io.Println(todos.EmptyMessage(f))
				return nil
			}

			for _, t := range list {
				box := "[ ]"
				if t.Completed {
					box = "[x]"
				}
				line := fmt.Sprintf("%s %s %s  %s", a.io.dim(shortID(t.ID)), box, t.Title, a.io.priority(t.Priority))
				if t.DueDate != nil {
					line += a.io.dim("  due " + time.UnixMilli(*t.DueDate).Format(time.DateOnly))
				}
				a.io.Println(line)
			}
			return nil
		},
	}
}

func todosAddCommand(a *App) *Command {
	fs := newFlags("add")
	priority := fs.StringP("priority", "p", "medium", "Priority: low, medium or high")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")

	return &Command{
		Flags: fs,
		Usage: "add <title> [-p priority] [--due date]",
		Short: "Add a todo",
		Exec: func(_ context.Context, args []string) error {
			p, err := todos.ParsePriority(*priority)
			if err != nil {
				return err
			}

			var dueAt *time.Time
			if *due != "" {
				d, err := time.ParseInLocation(time.DateOnly, *due, time.Local)
				if err != nil {
					return fmt.Errorf("invalid due date %q: want YYYY-MM-DD", *due)
				}
				dueAt = &d
			}

			todo, err := a.todos.Create(strings.Join(args, " "), p, dueAt)
			if err != nil {
				return err
			}
			if a.io.JSON() {
				return a.io.WriteJSON(response.FromTodos([]*store.Todo{todo})[0])
			}
			a.io.Printf("Added %s priority task %s\n", a.io.priority(todo.Priority), todo.ID)
			return nil
		},
	}
}

func todosDoneCommand(a *App) *Command {
	return &Command{
		Usage: "done <id>",
		Short: "Toggle a todo between open and completed",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.todoID(firstArg(args))
			if err != nil {
				return err
			}
			todo, err := a.todos.Toggle(id)
			if err != nil {
				return err
			}
			if todo.Completed {
				a.io.Println("Completed:", todo.Title)
			} else {
				a.io.Println("Reopened:", todo.Title)
			}
			return nil
		},
	}
}

func todosRmCommand(a *App) *Command {
	return &Command{
		Usage: "rm <id>",
		Short: "Delete a todo",
		Exec: func(_ context.Context, args []string) error {
			id, err := a.todoID(firstArg(args))
			if err != nil {
				return err
			}
			if err := a.todos.Delete(id); err != nil {
				return err
			}
			a.io.Println("Deleted todo", shortID(id))
			return nil
		},
	}
}
