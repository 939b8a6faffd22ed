package facade

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-units/units/internal/dimalg"
	"github.com/go-units/units/internal/engine"
	"github.com/go-units/units/internal/format"
	"github.com/go-units/units/internal/quantity"
)

// MultiUnitDecompose expresses h = H (already reduced) as a sum
// v_1·u_1 + … + v_k·u_k over a ";"-separated wantList of mutually
// conformable target units.
func MultiUnitDecompose(ctx *engine.Context, h *quantity.Quantity, have, wantList string, opts Options) (*Answer, error) {
	raw := strings.Split(wantList, ";")
	repeatLast := len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == ""
	var unitTexts []string
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u != "" {
			unitTexts = append(unitTexts, u)
		}
	}
	if len(unitTexts) == 0 {
		return nil, fmt.Errorf("empty unit list in decomposition target")
	}
	if repeatLast {
		unitTexts = append(unitTexts, unitTexts[len(unitTexts)-1])
	}

	units := make([]*quantity.Quantity, len(unitTexts))
	ignore := dimalg.IgnoreDimensionless(ctx.Store())
	for i, text := range unitTexts {
		q, err := ctx.Parse(text)
		if err != nil {
			return nil, err
		}
		if err := ctx.Reduce(q); err != nil {
			return nil, err
		}
		if !dimalg.Conformable(h, q, ignore) {
			return nil, &NotConformableError{Have: have, Want: text}
		}
		units[i] = q
	}

	sign := 1.0
	r := h.Factor
	if r < 0 {
		sign = -1
		r = -r
	}

	sp := ctx.Format()
	terms := make([]Term, len(units))
	for i := 0; i < len(units)-1; i++ {
		v := math.Floor(r / units[i].Factor)
		remainder := r - v*units[i].Factor
		// Display-rounding carry: if the remainder expressed
		// in this term's unit would round up to 1 at display precision,
		// absorb it into this term instead of showing e.g. "4 ft 12 in".
		frac := remainder / units[i].Factor
		if rounded, err := format.RoundToDisplayed(sp, frac); err == nil && rounded == 1 {
			v++
			remainder = 0
		}
		terms[i] = Term{Value: sign * v, Unit: unitTexts[i]}
		r = remainder
	}

	last := len(units) - 1
	lastVal := r / units[last].Factor
	if opts.Round {
		lastVal = math.Round(lastVal)
	} else if rounded, err := format.RoundToDisplayed(sp, lastVal); err == nil {
		lastVal = rounded
	}
	terms[last] = Term{Value: sign * lastVal, Unit: unitTexts[last]}

	var parts []string
	anyNonZero := false
	for i, t := range terms {
		if t.Value == 0 {
			continue
		}
		anyNonZero = true
		parts = append(parts, fmt.Sprintf("%s %s", format.Format(sp, math.Abs(t.Value)), unitTexts[i]))
	}
	text := strings.Join(parts, " + ")
	if sign < 0 && anyNonZero {
		text = "-(" + text + ")"
	}
	if !anyNonZero {
		text = fmt.Sprintf("0 %s", unitTexts[last])
	}

	return &Answer{Kind: KindDecompose, Have: have, Want: wantList, Terms: terms, Text: text}, nil
}
