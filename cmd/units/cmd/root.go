package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose        bool
	definitions    string
	locale         string
	utf8Database   bool
	formatSpec     string
	oldStarDialect bool
	configFile     string
)

var rootCmd = &cobra.Command{
	Use:   "units",
	Short: "Unit conversion calculator",
	Long: `units converts quantities between physical units and evaluates unit
expressions, in the tradition of GNU units.

It loads a unit-definitions database made of ordinary units, prefixes,
multi-unit tables, and nonlinear conversion functions, then answers
convert/search/decompose queries against it, either one-shot from the
command line or interactively in a REPL.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&definitions, "definitions", "f", "", "path to a units definitions file (default: built-in search path)")
	rootCmd.PersistentFlags().StringVarP(&locale, "locale", "l", "", "active !locale tag for locale-gated records")
	rootCmd.PersistentFlags().BoolVar(&utf8Database, "utf8", false, "load the database in UTF-8 mode")
	rootCmd.PersistentFlags().StringVar(&formatSpec, "format", "%.8g", "printf-style format for displayed numbers")
	rootCmd.PersistentFlags().BoolVar(&oldStarDialect, "oldstar", false, "use the legacy dialect where '*' binds tighter than '/'")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (default: units.yaml/units.yml in the current directory, if present)")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
