// Package cli is the kiwii command line: notes, todos, events and the chat
// assistant over a local SQLite file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kittclouds/kiwii/internal/config"
)

// Version is the CLI version, overridden at link time.
var Version = "dev"

type globalFlags struct {
	cwd        string
	configPath string
	dbPath     string
	logLevel   string
	json       bool
}

func newGlobalFlags(g *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("kiwii", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&g.cwd, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&g.configPath, "config", "c", "", "Use config `file` instead of ./"+config.FileName)
	fs.StringVar(&g.dbPath, "db", "", "Database `path` (\":memory:\" for a throwaway store)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log `level`: debug, info, warn, error")
	fs.BoolVar(&g.json, "json", false, "Print JSON instead of text")
	return fs
}

// Run is the main entry point. args[0] is the program name. Returns the exit code.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	var g globalFlags
	fs := newGlobalFlags(&g)

	if len(args) > 0 {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, fs)
			return 0
		}
		fprintln(errOut, "error:", err)
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(out, fs)
		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDir:    g.cwd,
		ConfigPath: g.configPath,
		Overrides:  config.Overrides{DBPath: g.dbPath, LogLevel: g.logLevel},
		Env:        env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	o := NewIO(in, out, errOut, g.json, env)
	app, err := newApp(cfg, o)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	defer app.Close()

	cmd := find(commands(app), rest[0])
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, fs)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return cmd.Run(ctx, o, "", rest[1:])
}

// commands lists the top-level commands in help order.
func commands(a *App) []*Command {
	return []*Command{
		chatCommand(a),
		sayCommand(a),
		summaryCommand(a),
		notesCommand(a),
		todosCommand(a),
		eventsCommand(a),
		exportCommand(a),
		importCommand(a),
		infoCommand(a),
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fprintln(w, "kiwii - notes, todos, calendar and a chat assistant")
	fprintln(w)
	fprintln(w, "Usage: kiwii [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")
	for _, c := range commands(nil) {
		fprintln(w, c.HelpLine())
	}
	fprintln(w)
	fprintln(w, "Flags:")

	var buf strings.Builder
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	fmt.Fprint(w, buf.String())
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
