// Package main provides kiwii, a local notes, todo and calendar tool with a
// chat assistant.
package main

import (
	"os"
	"strings"

	"github.com/kittclouds/kiwii/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
