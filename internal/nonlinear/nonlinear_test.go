package nonlinear_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/go-units/units/internal/nonlinear"
	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/reduce"
	"github.com/go-units/units/internal/symtab"
)

// fakeBinder implements nonlinear.Binder with a single mutable slot,
// matching the single-slot parameter-binding protocol the real engine
// context implements.
type fakeBinder struct {
	name string
	val  *quantity.Quantity
}

func (b *fakeBinder) Install(paramName string, value *quantity.Quantity) func() {
	oldName, oldVal := b.name, b.val
	b.name, b.val = paramName, value
	return func() { b.name, b.val = oldName, oldVal }
}

func newNLStore() *symtab.Store {
	s := symtab.New()
	s.PutUnit(&symtab.UnitEntry{Name: "mm", Definition: "!"})
	return s
}

// makeReparse builds a reduce.Reparser over the tiny body grammar this
// test file's function definitions actually use: a single "/" division,
// or a space-separated multiply chain of numbers/identifiers.
func makeReparse(store *symtab.Store, binder *fakeBinder) reduce.Reparser {
	return func(expr string) (*quantity.Quantity, error) {
		expr = strings.TrimSpace(expr)
		if idx := strings.Index(expr, "/"); idx >= 0 {
			left, err := parseToken(strings.TrimSpace(expr[:idx]), store, binder)
			if err != nil {
				return nil, err
			}
			right, err := parseToken(strings.TrimSpace(expr[idx+1:]), store, binder)
			if err != nil {
				return nil, err
			}
			if err := quantity.Divide(left, right); err != nil {
				return nil, err
			}
			return left, nil
		}
		fields := strings.Fields(expr)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty expression")
		}
		result, err := parseToken(fields[0], store, binder)
		if err != nil {
			return nil, err
		}
		for _, f := range fields[1:] {
			q, err := parseToken(f, store, binder)
			if err != nil {
				return nil, err
			}
			if err := quantity.Multiply(result, q); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
}

func parseToken(tok string, store *symtab.Store, binder *fakeBinder) (*quantity.Quantity, error) {
	if tok == "" {
		return nil, fmt.Errorf("empty token")
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return quantity.New(f), nil
	}
	if binder != nil && binder.val != nil && binder.name == tok {
		return binder.val.Clone(), nil
	}
	if _, ok := store.GetUnit(tok); ok {
		return &quantity.Quantity{Factor: 1, Num: []string{tok}}, nil
	}
	return nil, fmt.Errorf("unknown token %q", tok)
}

func TestEvaluateAnalyticForwardAndInverse(t *testing.T) {
	store := newNLStore()
	binder := &fakeBinder{}
	reparse := makeReparse(store, binder)
	// The inverse branch binds its parameter to the function's own name,
	// matching internal/loader's newFunction (and units.c's
	// inverse.param = unitname), not the forward branch's declared
	// parameter name.
	fn := &symtab.Function{
		Name:    "doubler",
		Forward: &symtab.FuncBranch{ParamName: "x", Body: "2 x"},
		Inverse: &symtab.FuncBranch{ParamName: "doubler", Body: "doubler / 2"},
	}

	fwd, err := nonlinear.Evaluate("doubler", fn, quantity.New(3), store, reparse, binder)
	if err != nil {
		t.Fatalf("forward: unexpected error: %v", err)
	}
	if fwd.Factor != 6 {
		t.Fatalf("forward: got %v, want 6", fwd.Factor)
	}

	inv, err := nonlinear.Evaluate("~doubler", fn, quantity.New(6), store, reparse, binder)
	if err != nil {
		t.Fatalf("inverse: unexpected error: %v", err)
	}
	if inv.Factor != 3 {
		t.Fatalf("inverse: got %v, want 3", inv.Factor)
	}
}

func TestEvaluateAnalyticDomainViolation(t *testing.T) {
	store := newNLStore()
	binder := &fakeBinder{}
	reparse := makeReparse(store, binder)
	fn := &symtab.Function{
		Name: "bounded",
		Forward: &symtab.FuncBranch{
			ParamName:    "x",
			Body:         "2 x",
			HasDomainMin: true,
			DomainMin:    0,
		},
	}
	_, err := nonlinear.Evaluate("bounded", fn, quantity.New(-1), store, reparse, binder)
	if err == nil {
		t.Fatal("expected a domain violation error")
	}
	nerr, ok := err.(*nonlinear.Error)
	if !ok || nerr.Kind != "E_NOTINDOMAIN" {
		t.Fatalf("got %#v, want E_NOTINDOMAIN", err)
	}
}

func TestEvaluateAnalyticNoInverse(t *testing.T) {
	store := newNLStore()
	binder := &fakeBinder{}
	reparse := makeReparse(store, binder)
	fn := &symtab.Function{
		Name:    "oneway",
		Forward: &symtab.FuncBranch{ParamName: "x", Body: "2 x"},
	}
	_, err := nonlinear.Evaluate("~oneway", fn, quantity.New(1), store, reparse, binder)
	if err == nil {
		t.Fatal("expected E_NOINVERSE")
	}
	nerr, ok := err.(*nonlinear.Error)
	if !ok || nerr.Kind != "E_NOINVERSE" {
		t.Fatalf("got %#v, want E_NOINVERSE", err)
	}
}

func TestEvaluateTableForwardAndInverse(t *testing.T) {
	store := newNLStore()
	binder := &fakeBinder{}
	reparse := makeReparse(store, binder)
	fn := &symtab.Function{
		Name:      "gauge",
		TableUnit: "mm",
		Table: []symtab.TablePair{
			{Location: 0, Value: 8.251},
			{Location: 10, Value: 2.588},
			{Location: 20, Value: 0.8128},
		},
	}

	fwd, err := nonlinear.Evaluate("gauge", fn, quantity.New(5), store, reparse, binder)
	if err != nil {
		t.Fatalf("forward: unexpected error: %v", err)
	}
	wantFwd := 8.251 + 0.5*(2.588-8.251)
	if diff := fwd.Factor - wantFwd; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("forward: got %v, want %v", fwd.Factor, wantFwd)
	}
	if len(fwd.Num) != 1 || fwd.Num[0] != "mm" {
		t.Fatalf("forward: got num=%v, want [mm]", fwd.Num)
	}

	inv, err := nonlinear.Evaluate("~gauge", fn, fwd, store, reparse, binder)
	if err != nil {
		t.Fatalf("inverse: unexpected error: %v", err)
	}
	if diff := inv.Factor - 5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("inverse: got %v, want 5", inv.Factor)
	}
}

func TestEvaluateTableOutOfDomain(t *testing.T) {
	store := newNLStore()
	binder := &fakeBinder{}
	reparse := makeReparse(store, binder)
	fn := &symtab.Function{
		Name:      "gauge",
		TableUnit: "mm",
		Table: []symtab.TablePair{
			{Location: 0, Value: 8.251},
			{Location: 10, Value: 2.588},
		},
	}
	_, err := nonlinear.Evaluate("gauge", fn, quantity.New(50), store, reparse, binder)
	if err == nil {
		t.Fatal("expected E_NOTINDOMAIN for an out-of-range table lookup")
	}
	nerr, ok := err.(*nonlinear.Error)
	if !ok || nerr.Kind != "E_NOTINDOMAIN" {
		t.Fatalf("got %#v, want E_NOTINDOMAIN", err)
	}
}
