package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-units/units/internal/facade"
	"github.com/go-units/units/pkg/units"
)

var (
	convertSingleLine bool
	convertStrict     bool
	convertRound      bool
	convertJSON       bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <have> <want>",
	Short: "Convert a quantity from one unit expression to another",
	Long: `Convert evaluates <have> and <want> as unit expressions and reports
how they relate.

Examples:
  # Ordinary factor conversion
  units convert "2 m" cm

  # Multi-unit decomposition
  units convert "5.5 ft" "ft;in"

  # Nonlinear function evaluation
  units convert "tempF(75)" tempC

  # Conformability search
  units convert "m/s" "?"

  # Show the definition of a unit in primitive units
  units convert furlong ""`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&convertSingleLine, "single-line", false, "print only the forward factor, not the inverse")
	convertCmd.Flags().BoolVar(&convertStrict, "strict", false, "disable the reciprocal-conversion fallback")
	convertCmd.Flags().BoolVar(&convertRound, "round", false, "round the final term of a multi-unit decomposition to an integer")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "print the answer as JSON instead of text")
}

func runConvert(_ *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}

	have, want := args[0], args[1]
	var copts []units.ConvertOption
	if convertSingleLine {
		copts = append(copts, units.SingleLine())
	}
	if convertStrict {
		copts = append(copts, units.Strict())
	}
	if convertRound {
		copts = append(copts, units.RoundResult())
	}

	ans, err := e.Convert(have, want, copts...)
	if err != nil {
		if nc, ok := err.(*facade.NotConformableError); ok {
			return nc
		}
		if ee, ok := units.AsError(err); ok {
			return ee
		}
		return err
	}

	if convertJSON {
		doc, err := facade.ToJSON(ans)
		if err != nil {
			return err
		}
		fmt.Println(doc)
		return nil
	}
	fmt.Println(ans.Text)
	return nil
}
