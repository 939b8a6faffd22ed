package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/go-units/units/internal/facade"
	"github.com/go-units/units/pkg/units"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive You-have/You-want conversion loop",
	Long: `repl prompts for a quantity ("You have: ") and a target unit
("You want: ") and prints the answer, repeating until EOF or an empty
"You have:" line, in the tradition of running units with no arguments.

A blank "You want:" line prints the quantity's definition in primitive
units. "?" searches for conformable units instead of converting. "_"
as "You have:" recalls the last answer's quantity, as the engine's own
last-result placeholder would inside any expression; "_2", "_3", ...
recall the factor from further back in the session.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// history is the in-memory "_N" answer log, kept as a JSON array via
// sjson so Answer's Go layout stays decoupled from the replay format;
// recall reads it back via facade.FromJSONAt.
type history struct {
	doc string
}

func newHistory() *history { return &history{doc: "[]"} }

func (h *history) append(ans *facade.Answer) {
	encoded, err := facade.ToJSON(ans)
	if err != nil {
		return
	}
	doc, err := sjson.SetRaw(h.doc, "-1", encoded)
	if err != nil {
		return
	}
	h.doc = doc
}

// recall returns the factor from the answer n entries back from the
// most recent (n=1 is the last answer, n=2 the one before that, ...).
func (h *history) recall(n int) (float64, bool) {
	return facade.FromJSONAt(h.doc, n-1)
}

func runRepl(_ *cobra.Command, _ []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	hist := newHistory()
	for {
		have, err := prompt(in, "You have: ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		have = strings.TrimSpace(have)
		if have == "" {
			return nil
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(have, "_")); err == nil && strings.HasPrefix(have, "_") && n >= 1 {
			if v, ok := hist.recall(n); ok {
				have = strconv.FormatFloat(v, 'g', -1, 64)
			} else {
				fmt.Printf("no history entry %d back\n", n)
				continue
			}
		}

		want, err := prompt(in, "You want: ")
		if err != nil && err != io.EOF {
			return err
		}
		want = strings.TrimSpace(want)

		ans, err := e.Convert(have, want)
		if err != nil {
			if nc, ok := err.(*facade.NotConformableError); ok {
				fmt.Println(nc.Error())
			} else if ee, ok := units.AsError(err); ok {
				fmt.Println(ee.Error())
			} else {
				fmt.Println(err.Error())
			}
			continue
		}
		fmt.Println(ans.Text)
		hist.append(ans)
	}
}

func prompt(in *bufio.Reader, text string) (string, error) {
	fmt.Print(text)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
