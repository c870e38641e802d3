// Command wisp is the Wisp interpreter CLI: run, lex, and parse
// subcommands over the internal/lexer, internal/parser, and pkg/wisp
// packages.
package main

import (
	"fmt"
	"os"

	"wisp/cmd/wisp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
