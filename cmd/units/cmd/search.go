package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <unit>",
	Short: "List every defined unit conformable with <unit>",
	Long: `search is convert <unit> "?" under a name that doesn't require
quoting the question mark.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}

	matches, err := e.Search(args[0])
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no units conformable with %q", args[0])
	}
	fmt.Println(strings.Join(matches, ", "))
	return nil
}
