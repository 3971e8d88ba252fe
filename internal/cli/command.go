package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is a CLI command or a group of subcommands.
type Command struct {
	// Flags defines command-specific flags. Nil means none.
	Flags *flag.FlagSet

	// Usage is shown after "kiwii" in help. Its first word is the command name.
	Usage string

	// Short is the one-line description for listings.
	Short string

	// Long is the full description. Short is used when empty.
	Long string

	// Sub makes the command a group dispatching on its first argument.
	Sub []*Command

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for listings.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help for "kiwii <cmd> --help".
func (c *Command) PrintHelp(o *IO, prefix string) {
	o.Println("Usage: kiwii", prefix+c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}
	o.Println(desc)

	if len(c.Sub) > 0 {
		o.Println()
		o.Println("Commands:")
		for _, sub := range c.Sub {
			o.Println(sub.HelpLine())
		}
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command. Returns the exit code.
func (c *Command) Run(ctx context.Context, o *IO, prefix string, args []string) int {
	if len(c.Sub) > 0 {
		return c.dispatch(ctx, o, prefix, args)
	}

	flags := c.Flags
	if flags == nil {
		flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}
	flags.SetOutput(&strings.Builder{})

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o, prefix)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o, prefix)
		return 1
	}

	if err := c.Exec(ctx, flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	return 0
}

func (c *Command) dispatch(ctx context.Context, o *IO, prefix string, args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.PrintHelp(o, prefix)
		return 0
	}

	sub := find(c.Sub, args[0])
	if sub == nil {
		o.ErrPrintln("error: unknown command:", c.Name(), args[0])
		o.ErrPrintln()
		c.PrintHelp(o, prefix)
		return 1
	}
	return sub.Run(ctx, o, prefix+c.Name()+" ", args[1:])
}

func find(cmds []*Command, name string) *Command {
	for _, c := range cmds {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
