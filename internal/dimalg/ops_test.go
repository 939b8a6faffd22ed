package dimalg_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-units/units/internal/dimalg"
	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/symtab"
)

func newOpsStore() *symtab.Store {
	s := symtab.New()
	s.PutUnit(&symtab.UnitEntry{Name: "m", Definition: "!"})
	s.PutUnit(&symtab.UnitEntry{Name: "s", Definition: "!"})
	s.PutUnit(&symtab.UnitEntry{Name: "ft", Definition: "0.3048 m"})
	return s
}

// reparseUnit handles the narrow "<factor> <unit>" / "<factor>" grammar
// this test file's own unit definitions use.
func reparseUnit(def string) (*quantity.Quantity, error) {
	var factor float64
	var unit string
	n, _ := fmt.Sscanf(def, "%g %s", &factor, &unit)
	if n == 0 {
		return nil, fmt.Errorf("cannot parse %q", def)
	}
	q := quantity.New(factor)
	if unit != "" {
		q.Num = []string{unit}
	}
	return q, nil
}

func TestAddConformable(t *testing.T) {
	store := newOpsStore()
	a := &quantity.Quantity{Factor: 2, Num: []string{"ft"}}
	b := &quantity.Quantity{Factor: 3, Num: []string{"m"}}
	sum, err := dimalg.Add(a, b, store, reparseUnit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 2*0.3048 + 3
	if diff := sum.Factor - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got factor=%v, want %v", sum.Factor, want)
	}
}

func TestAddNonConformable(t *testing.T) {
	store := newOpsStore()
	a := &quantity.Quantity{Factor: 2, Num: []string{"ft"}}
	b := &quantity.Quantity{Factor: 3, Num: []string{"s"}}
	_, err := dimalg.Add(a, b, store, reparseUnit)
	if err == nil {
		t.Fatal("expected a non-conformable sum error")
	}
	derr, ok := err.(*dimalg.Error)
	if !ok || derr.Kind != "E_BADSUM" {
		t.Fatalf("got %#v, want E_BADSUM", err)
	}
}

func TestRootExactDivision(t *testing.T) {
	store := newOpsStore()
	a := &quantity.Quantity{Factor: 9, Num: []string{"m", "m"}}
	r, err := dimalg.Root(a, 2, store, reparseUnit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Factor != 3 || len(r.Num) != 1 || r.Num[0] != "m" {
		t.Fatalf("got factor=%v num=%v", r.Factor, r.Num)
	}
}

func TestRootNotDivisible(t *testing.T) {
	store := newOpsStore()
	a := &quantity.Quantity{Factor: 8, Num: []string{"m", "m", "m"}}
	_, err := dimalg.Root(a, 2, store, reparseUnit)
	if err == nil {
		t.Fatal("expected a base-not-root error")
	}
	derr, ok := err.(*dimalg.Error)
	if !ok || derr.Kind != "E_BASE_NOTROOT" {
		t.Fatalf("got %#v, want E_BASE_NOTROOT", err)
	}
}

func TestRootNegativeBase(t *testing.T) {
	store := newOpsStore()
	a := &quantity.Quantity{Factor: -4}
	_, err := dimalg.Root(a, 2, store, reparseUnit)
	if err == nil {
		t.Fatal("expected E_NOTROOT for a negative base")
	}
}

func TestPowerDimensionlessBase(t *testing.T) {
	store := newOpsStore()
	base := quantity.New(2)
	exp := quantity.New(10)
	r, err := dimalg.Power(base, exp, store, reparseUnit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Factor != math.Pow(2, 10) {
		t.Fatalf("got %v, want 1024", r.Factor)
	}
}

func TestPowerIntegerExponentOnUnitBase(t *testing.T) {
	store := newOpsStore()
	base := &quantity.Quantity{Factor: 2, Num: []string{"m"}}
	exp := quantity.New(3)
	r, err := dimalg.Power(base, exp, store, reparseUnit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Factor != 8 || len(r.Num) != 3 {
		t.Fatalf("got factor=%v num=%v, want 8 and 3 m's", r.Factor, r.Num)
	}
}

func TestPowerDimensionedExponentRejected(t *testing.T) {
	store := newOpsStore()
	base := quantity.New(2)
	exp := &quantity.Quantity{Factor: 1, Num: []string{"m"}}
	_, err := dimalg.Power(base, exp, store, reparseUnit)
	if err == nil {
		t.Fatal("expected E_DIMEXPONENT")
	}
	derr, ok := err.(*dimalg.Error)
	if !ok || derr.Kind != "E_DIMEXPONENT" {
		t.Fatalf("got %#v", err)
	}
}

func TestPowerIrrationalExponentOnUnitBase(t *testing.T) {
	store := newOpsStore()
	base := &quantity.Quantity{Factor: 2, Num: []string{"m"}}
	exp := quantity.New(math.Pi)
	_, err := dimalg.Power(base, exp, store, reparseUnit)
	if err == nil {
		t.Fatal("expected E_IRRATIONAL_EXPONENT")
	}
	derr, ok := err.(*dimalg.Error)
	if !ok || derr.Kind != "E_IRRATIONAL_EXPONENT" {
		t.Fatalf("got %#v", err)
	}
}
