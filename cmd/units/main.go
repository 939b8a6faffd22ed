// Command units is the interactive and scriptable unit conversion
// calculator: convert, search, decompose, and repl subcommands over a
// loaded units definitions database.
package main

import (
	"fmt"
	"os"

	"github.com/go-units/units/cmd/units/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
