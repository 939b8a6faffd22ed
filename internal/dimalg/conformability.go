// Package dimalg implements dimensional algebra: power, root, and add —
// the operations that require reduction to primitives first — plus the
// conformability comparison they and the conversion facade share.
// Multiply/divide/invert are mechanical and live on quantity.Quantity
// directly (they need no reduction).
package dimalg

import (
	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/symtab"
)

// IgnorePredicate decides whether a primitive token should be excluded
// from a conformability comparison.
type IgnorePredicate func(token string) bool

// IgnoreNothing is used for additive operations: dimensionless
// primitives like radian are NOT ignored, because additive coherence
// depends on them.
func IgnoreNothing() IgnorePredicate {
	return func(string) bool { return false }
}

// IgnoreDimensionless ignores primitives whose definition is the
// distinguished "!dimensionless" marker, used for conversion and
// search.
func IgnoreDimensionless(store *symtab.Store) IgnorePredicate {
	return func(tok string) bool {
		e, ok := store.GetUnit(tok)
		return ok && e.IsDimensionless()
	}
}

// IgnorePrimitive ignores every primitive, used for "is this reducible
// to a pure number" tests. Since CompleteReduce guarantees
// every surviving token is primitive, this is equivalent to ignoring
// everything.
func IgnorePrimitive() IgnorePredicate {
	return func(string) bool { return true }
}

// Conformable reports whether a and b — both already fully reduced,
// sorted, and cancelled — carry the same numerator and denominator
// multisets once tokens matching ignore are filtered out.
func Conformable(a, b *quantity.Quantity, ignore IgnorePredicate) bool {
	return multisetEqual(filteredCounts(a.Num, ignore), filteredCounts(b.Num, ignore)) &&
		multisetEqual(filteredCounts(a.Den, ignore), filteredCounts(b.Den, ignore))
}

func filteredCounts(tokens []string, ignore IgnorePredicate) map[string]int {
	m := make(map[string]int)
	for _, t := range tokens {
		if t == quantity.NullUnit || ignore(t) {
			continue
		}
		m[t]++
	}
	return m
}

func multisetEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
