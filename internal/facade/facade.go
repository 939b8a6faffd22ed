// Package facade implements the conversion facade, multi-unit
// decomposition, and conformability search: the three top-level
// operations the CLI and the public API expose, each producing a
// structured Answer.
package facade

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/go-units/units/internal/dimalg"
	"github.com/go-units/units/internal/engine"
	"github.com/go-units/units/internal/format"
	"github.com/go-units/units/internal/quantity"
)

// Kind tags which branch of convert produced an Answer, so callers
// (CLI, JSON encoder) can render it without re-deriving the logic.
type Kind string

const (
	KindDefinition Kind = "definition"
	KindFunction   Kind = "function"
	KindFactor     Kind = "factor"
	KindReciprocal Kind = "reciprocal"
	KindDecompose  Kind = "decompose"
	KindSearch     Kind = "search"
)

// Term is one v·unit component of a multi-unit decomposition.
type Term struct {
	Value float64
	Unit  string
}

// Answer is the facade's uniform result type.
type Answer struct {
	Kind Kind

	Have string
	Want string

	// KindFactor / KindReciprocal
	Factor        float64
	InverseFactor float64
	HasInverse    bool

	// KindDefinition
	Definition string

	// KindDecompose
	Terms []Term

	// KindSearch
	Matches []string

	// Text is the rendered, human-readable line(s) for this answer,
	// using ctx's active number format.
	Text string
}

// Options controls facade behavior left as caller choices.
type Options struct {
	SingleLine bool // suppress the second (inverse) factor line
	Strict     bool // disable reciprocal-conversion fallback
	Round      bool // round the final decomposition term to an integer
}

// NotConformableError is returned when have and want cannot be
// converted, even via the reciprocal fallback.
type NotConformableError struct {
	Have, Want string
}

func (e *NotConformableError) Error() string {
	return fmt.Sprintf("conformability error: %q is not conformable to %q", e.Have, e.Want)
}

// Convert implements the top-level convert operation.
func Convert(ctx *engine.Context, have, want string, opts Options) (*Answer, error) {
	h, err := ctx.Parse(have)
	if err != nil {
		return nil, err
	}
	if err := ctx.Reduce(h); err != nil {
		return nil, err
	}

	var ans *Answer
	switch {
	case strings.TrimSpace(want) == "":
		ans = &Answer{Kind: KindDefinition, Have: have, Definition: renderDefinition(h, ctx.Format())}
		ans.Text = ans.Definition

	case strings.TrimSpace(want) == "?":
		matches, err := ConformabilitySearch(ctx, h)
		if err != nil {
			return nil, err
		}
		ans = &Answer{Kind: KindSearch, Have: have, Matches: matches, Text: strings.Join(matches, ", ")}

	case isFuncName(ctx, want):
		result, err := ctx.EvaluateFunc("~"+strings.TrimSpace(want), h)
		if err != nil {
			return nil, err
		}
		ans = &Answer{Kind: KindFunction, Have: have, Want: want, Factor: result.Factor, Text: format.Format(ctx.Format(), result.Factor)}

	case strings.Contains(want, ";"):
		ans, err = MultiUnitDecompose(ctx, h, have, want, opts)
		if err != nil {
			return nil, err
		}

	default:
		ans, err = convertSingle(ctx, h, have, want, opts)
		if err != nil {
			return nil, err
		}
	}

	ctx.SetLastResult(h)
	return ans, nil
}

func isFuncName(ctx *engine.Context, want string) bool {
	name := strings.TrimSpace(want)
	if name == "" || strings.ContainsAny(name, " ()*/^") {
		return false
	}
	_, ok := ctx.ResolveFunc(name)
	return ok
}

func convertSingle(ctx *engine.Context, h *quantity.Quantity, have, want string, opts Options) (*Answer, error) {
	w, err := ctx.Parse(want)
	if err != nil {
		return nil, err
	}
	if err := ctx.Reduce(w); err != nil {
		return nil, err
	}

	ignore := dimalg.IgnoreDimensionless(ctx.Store())
	if dimalg.Conformable(h, w, ignore) {
		factor := h.Factor / w.Factor
		ans := &Answer{Kind: KindFactor, Have: have, Want: want, Factor: factor}
		if !opts.SingleLine {
			ans.InverseFactor = w.Factor / h.Factor
			ans.HasInverse = true
		}
		ans.Text = renderFactorLines(ctx.Format(), ans)
		return ans, nil
	}

	if !opts.Strict {
		recip := &quantity.Quantity{Factor: h.Factor, Num: append([]string(nil), h.Den...), Den: append([]string(nil), h.Num...)}
		if dimalg.Conformable(recip, w, ignore) {
			factor := recip.Factor / w.Factor
			ans := &Answer{Kind: KindReciprocal, Have: have, Want: want, Factor: factor}
			if !opts.SingleLine {
				ans.InverseFactor = w.Factor / recip.Factor
				ans.HasInverse = true
			}
			ans.Text = "reciprocal conversion\n" + renderFactorLines(ctx.Format(), ans)
			return ans, nil
		}
	}
	return nil, &NotConformableError{Have: have, Want: want}
}

func renderFactorLines(sp format.Spec, ans *Answer) string {
	if !ans.HasInverse {
		return format.Format(sp, ans.Factor)
	}
	return fmt.Sprintf("* %s\n/ %s", format.Format(sp, ans.Factor), format.Format(sp, ans.InverseFactor))
}

func renderDefinition(q *quantity.Quantity, sp format.Spec) string {
	var sb strings.Builder
	sb.WriteString(format.Format(sp, q.Factor))
	if len(q.Num) > 0 {
		num := append([]string(nil), q.Num...)
		sort.Strings(num)
		sb.WriteString(" " + strings.Join(num, " "))
	}
	if len(q.Den) > 0 {
		den := append([]string(nil), q.Den...)
		sort.Strings(den)
		sb.WriteString(" / " + strings.Join(den, " "))
	}
	return sb.String()
}

// ConformabilitySearch enumerates every defined unit, function, and
// alias name, testing conformability with h under ignore_dimensionless,
// and returns the matches in natural sort order. Functions and aliases are included by name only if that
// name also parses as an ordinary unit expression.
func ConformabilitySearch(ctx *engine.Context, h *quantity.Quantity) ([]string, error) {
	ignore := dimalg.IgnoreDimensionless(ctx.Store())
	store := ctx.Store()

	names := append([]string(nil), store.UnitNames()...)
	names = append(names, store.FuncNames()...)
	names = append(names, store.AliasNames()...)

	var matches []string
	for _, name := range names {
		q, err := ctx.Parse(name)
		if err != nil {
			continue
		}
		if err := ctx.Reduce(q); err != nil {
			continue
		}
		if dimalg.Conformable(h, q, ignore) {
			matches = append(matches, name)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return natural.Less(matches[i], matches[j]) })
	return matches, nil
}
