package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-units/units/pkg/units"
)

var decomposeRound bool

var decomposeCmd = &cobra.Command{
	Use:   "decompose <have> <unit> [unit...]",
	Short: "Express <have> as a sum of the given units, largest first",
	Long: `decompose joins the given units with ";" and runs them through
convert's multi-unit decomposition branch, e.g.

  units decompose "5.5 ft" ft in

is equivalent to

  units convert "5.5 ft" "ft;in"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDecompose,
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	decomposeCmd.Flags().BoolVar(&decomposeRound, "round", false, "round the final term to an integer")
}

func runDecompose(_ *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}

	have := args[0]
	want := strings.Join(args[1:], ";")

	var copts []units.ConvertOption
	if decomposeRound {
		copts = append(copts, units.RoundResult())
	}

	ans, err := e.Convert(have, want, copts...)
	if err != nil {
		return err
	}
	fmt.Println(ans.Text)
	return nil
}
