// Package nonlinear implements the nonlinear function evaluator:
// analytic functions with forward/inverse branches and domain checks,
// and piecewise-linear table lookups.
package nonlinear

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-units/units/internal/dimalg"
	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/reduce"
	"github.com/go-units/units/internal/symtab"
)

// Error mirrors the engine's function-evaluation error kinds.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errOf(kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Binder installs and restores the single-slot function parameter
// binding the parser consults before the unit table.
// internal/engine implements this against its binding stack; this
// package only ever calls Install/Restore in a paired, deferred manner.
type Binder interface {
	Install(paramName string, value *quantity.Quantity) (restore func())
}

// Evaluate resolves name (which may be prefixed with "~" to request the
// inverse branch) against fn and applies it to arg, using store/reparse
// to reduce dimensions and reparse bodies, and binder to install the
// formal parameter while the body reparses.
func Evaluate(name string, fn *symtab.Function, arg *quantity.Quantity, store *symtab.Store, reparse reduce.Reparser, binder Binder) (*quantity.Quantity, error) {
	inverse := strings.HasPrefix(name, "~")

	if fn.IsTable() {
		return evalTable(fn, arg, inverse, store, reparse)
	}
	return evalAnalytic(fn, arg, inverse, store, reparse, binder)
}

func evalAnalytic(fn *symtab.Function, arg *quantity.Quantity, inverse bool, store *symtab.Store, reparse reduce.Reparser, binder Binder) (*quantity.Quantity, error) {
	branch := fn.Forward
	if inverse {
		branch = fn.Inverse
	}
	if branch == nil {
		return nil, errOf("E_NOINVERSE", "function %q has no inverse", fn.Name)
	}

	x := arg.Clone()
	if branch.RequiredInputDim != "" {
		dim, err := reparse(branch.RequiredInputDim)
		if err != nil {
			return nil, errOf("E_BADFUNCDIMEN", "bad dimension in function %q: %v", fn.Name, err)
		}
		if err := reduce.CompleteReduce(dim, store, reparse); err != nil {
			return nil, err
		}
		if err := reduce.CompleteReduce(x, store, reparse); err != nil {
			return nil, err
		}
		if !dimalg.Conformable(x, dim, dimalg.IgnoreDimensionless(store)) {
			return nil, errOf("E_BADFUNCARG", "argument to %q has the wrong dimension", fn.Name)
		}
		scalar, err := quantity.Invert(dim)
		if err != nil {
			return nil, err
		}
		if err := quantity.Multiply(x, scalar); err != nil {
			return nil, err
		}
		if err := reduce.CompleteReduce(x, store, reparse); err != nil {
			return nil, err
		}
	} else {
		if err := reduce.CompleteReduce(x, store, reparse); err != nil {
			return nil, err
		}
		if !x.IsEmpty() {
			return nil, errOf("E_BADFUNCARG", "argument to %q must be dimensionless", fn.Name)
		}
	}

	if !branch.InDomain(x.Factor) {
		return nil, errOf("E_NOTINDOMAIN", "%v is not in the domain of %q", x.Factor, fn.Name)
	}

	restore := binder.Install(branch.ParamName, x)
	defer restore()

	result, err := reparse(branch.Body)
	if err != nil {
		return nil, errOf("E_FUNC", "evaluating %q: %v", fn.Name, err)
	}
	if err := reduce.CompleteReduce(result, store, reparse); err != nil {
		return nil, err
	}
	return result, nil
}

func evalTable(fn *symtab.Function, arg *quantity.Quantity, inverse bool, store *symtab.Store, reparse reduce.Reparser) (*quantity.Quantity, error) {
	tableDim, err := reparse(fn.TableUnit)
	if err != nil {
		return nil, errOf("E_BADFUNCDIMEN", "bad table unit in %q: %v", fn.Name, err)
	}
	if err := reduce.CompleteReduce(tableDim, store, reparse); err != nil {
		return nil, err
	}

	pairs := append([]symtab.TablePair(nil), fn.Table...)
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Location < pairs[j].Location })

	if !inverse {
		x := arg.Clone()
		if err := reduce.CompleteReduce(x, store, reparse); err != nil {
			return nil, err
		}
		if !x.IsEmpty() {
			return nil, errOf("E_BADFUNCARG", "argument to %q must be dimensionless", fn.Name)
		}
		value, ok := interpolate(pairs, x.Factor, false)
		if !ok {
			return nil, errOf("E_NOTINDOMAIN", "%v is not in the domain of %q", x.Factor, fn.Name)
		}
		out := tableDim.Clone()
		out.Factor *= value
		return out, nil
	}

	x := arg.Clone()
	if err := reduce.CompleteReduce(x, store, reparse); err != nil {
		return nil, err
	}
	if !dimalg.Conformable(x, tableDim, dimalg.IgnoreDimensionless(store)) {
		return nil, errOf("E_BADFUNCARG", "argument to %q has the wrong dimension", fn.Name)
	}
	scale := x.Factor / tableDim.Factor
	loc, ok := interpolate(pairs, scale, true)
	if !ok {
		return nil, errOf("E_NOTINDOMAIN", "%v is not in the range of %q", scale, fn.Name)
	}
	return quantity.New(loc), nil
}

// interpolate scans a sorted-by-Location table for the bracketing pair
// and linearly interpolates. byValue reverses the roles of Location and
// Value, for the inverse direction, which requires the table be strictly
// monotone in Value — that invariant is checked when a table is
// loaded (internal/loader), not here.
func interpolate(pairs []symtab.TablePair, x float64, byValue bool) (float64, bool) {
	key := func(p symtab.TablePair) float64 {
		if byValue {
			return p.Value
		}
		return p.Location
	}
	out := func(p symtab.TablePair) float64 {
		if byValue {
			return p.Location
		}
		return p.Value
	}
	if len(pairs) == 0 {
		return 0, false
	}
	if key(pairs[0]) > key(pairs[len(pairs)-1]) {
		// monotone decreasing by value: search the reversed order
		for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		}
	}
	for i := 0; i+1 < len(pairs); i++ {
		k0, k1 := key(pairs[i]), key(pairs[i+1])
		if (x >= k0 && x <= k1) || (x <= k0 && x >= k1) {
			if k1 == k0 {
				return out(pairs[i]), true
			}
			t := (x - k0) / (k1 - k0)
			return out(pairs[i]) + t*(out(pairs[i+1])-out(pairs[i])), true
		}
	}
	return 0, false
}
