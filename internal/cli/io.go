package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/kittclouds/kiwii/internal/store"
)

// IO carries the command streams and output mode.
type IO struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	json   bool
	color  bool
}

// NewIO creates an IO. Colour is only used when out is the terminal.
func NewIO(in io.Reader, out, errOut io.Writer, jsonOut bool, env map[string]string) *IO {
	return &IO{
		in:     in,
		out:    out,
		errOut: errOut,
		json:   jsonOut,
		color:  out == os.Stdout && !color.NoColor && env["NO_COLOR"] == "",
	}
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// JSON reports whether --json was given.
func (o *IO) JSON() bool { return o.json }

// WriteJSON prints v as indented JSON.
func (o *IO) WriteJSON(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func (o *IO) colorize(text string, attrs ...color.Attribute) string {
	if !o.color {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// priority renders a priority label: high red, medium yellow, low green.
func (o *IO) priority(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return o.colorize(string(p), color.FgRed, color.Bold)
	case store.PriorityMedium:
		return o.colorize(string(p), color.FgYellow)
	case store.PriorityLow:
		return o.colorize(string(p), color.FgGreen)
	}
	return string(p)
}

func (o *IO) dim(text string) string {
	return o.colorize(text, color.Faint)
}
