package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/chat"
	"github.com/kittclouds/kiwii/pkg/response"
)

const chatPrompt = "you> "

func sayCommand(a *App) *Command {
	return &Command{
		Usage: "say <message>",
		Short: "Send one message to the assistant",
		Exec: func(ctx context.Context, args []string) error {
			ex, err := a.chat.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if a.io.JSON() {
				data, err := response.MarshalChatReply(ex.Reply.Content, ex.Action, ex.CreatedID)
				if err != nil {
					return err
				}
				a.io.Println(string(data))
				return nil
			}
			a.printExchange(ex)
			return nil
		},
	}
}

func summaryCommand(a *App) *Command {
	return &Command{
		Usage: "summary",
		Short: "Show counts of notes, tasks and upcoming events",
		Exec: func(_ context.Context, _ []string) error {
			snap, err := a.chat.Snapshot()
			if err != nil {
				return err
			}
			res := a.resolver.Resolve("summary", snap)
			if a.io.JSON() {
				return a.io.WriteJSON(map[string]string{"response": res.Response})
			}
			a.io.Println(strings.TrimRight(res.Response, "\n"))
			return nil
		},
	}
}

func chatCommand(a *App) *Command {
	return &Command{
		Usage: "chat",
		Short: "Talk to the assistant interactively",
		Long: `Talk to the assistant interactively.

Lines starting with / are commands:
  /history   print the conversation so far
  /clear     forget the conversation
  /quit      leave (Ctrl-D also works)`,
		Exec: func(ctx context.Context, _ []string) error {
			r := a.newLineReader()
			defer r.Close()
			return a.chatLoop(ctx, r)
		},
	}
}

func (a *App) printExchange(ex *chat.Exchange) {
	a.io.Println(ex.Reply.Content)
	if ex.CreatedID != "" {
		a.io.Println(a.io.dim(fmt.Sprintf("(%s %s)", ex.Action.Kind(), shortID(ex.CreatedID))))
	}
}

// =============================================================================
// REPL
// =============================================================================

// lineReader is the input side of the chat loop.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// newLineReader uses liner on a terminal and a plain scanner otherwise.
func (a *App) newLineReader() lineReader {
	if a.io.in == os.Stdin && liner.TerminalSupported() {
		return newLinerReader(a.cfg.HistoryFile)
	}
	in := a.io.in
	if in == nil {
		in = strings.NewReader("")
	}
	return &scanReader{scanner: bufio.NewScanner(in)}
}

type linerReader struct {
	state   *liner.State
	history string
}

func newLinerReader(history string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range []string{"/history", "/clear", "/quit"} {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	})

	if history != "" {
		if f, err := os.Open(history); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return &linerReader{state: state, history: history}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	return line, err
}

func (r *linerReader) AppendHistory(line string) { r.state.AppendHistory(line) }

func (r *linerReader) Close() error {
	if r.history != "" {
		if f, err := os.Create(r.history); err == nil {
			_, _ = r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) AppendHistory(string) {}
func (r *scanReader) Close() error         { return nil }

func (a *App) chatLoop(ctx context.Context, r lineReader) error {
	a.io.Println("kiwii assistant. Type /quit to leave.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.io.Println("Bye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.AppendHistory(line)

		switch line {
		case "/quit", "/exit":
			a.io.Println("Bye!")
			return nil
		case "/clear":
			if err := a.chat.Clear(); err != nil {
				return err
			}
			a.io.Println("Conversation cleared.")
			continue
		case "/history":
			if err := a.printHistory(); err != nil {
				return err
			}
			continue
		}

		ex, err := a.chat.Send(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		a.printExchange(ex)
		a.io.Println()
	}
}

func (a *App) printHistory() error {
	messages, err := a.chat.Messages()
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		a.io.Println("No messages yet.")
		return nil
	}
	for _, m := range messages {
		who := "you"
		if m.Role == store.RoleAssistant {
			who = "kiwii"
		}
		a.io.Printf("%s %s\n", a.io.dim(formatMillis(m.Timestamp)+" "+who+">"), m.Content)
	}
	return nil
}
