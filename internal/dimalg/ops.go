package dimalg

import (
	"math"

	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/reduce"
	"github.com/go-units/units/internal/symtab"
)

// maxContinuedFractionTerms is GNU units' fixed cutoff for rationalising
// an exponent via continued fractions.
const maxContinuedFractionTerms = 20

// maxRationalDenominator bounds the denominator a rationalised exponent
// may have, matching the original's bounded search.
const maxRationalDenominator = 1_000_000

// Error is returned by the operations in this file, tagged with an
// engine.ErrorKind-shaped string so callers can match on Kind without
// this low-level package depending on internal/engine.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errOf(kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

// Add computes a+b, requiring the two reduced quantities to be
// conformable under IgnoreNothing. Reduction works on clones; the
// returned Quantity is a new value and a and b are left untouched.
func Add(a, b *quantity.Quantity, store *symtab.Store, reparse reduce.Reparser) (*quantity.Quantity, error) {
	ra := a.Clone()
	rb := b.Clone()
	if err := reduce.CompleteReduce(ra, store, reparse); err != nil {
		return nil, err
	}
	if err := reduce.CompleteReduce(rb, store, reparse); err != nil {
		return nil, err
	}
	if !Conformable(ra, rb, IgnoreNothing()) {
		return nil, errOf("E_BADSUM", "non-conformable sum")
	}
	return &quantity.Quantity{
		Factor: ra.Factor + rb.Factor,
		Num:    append([]string(nil), ra.Num...),
		Den:    append([]string(nil), ra.Den...),
	}, nil
}

// Root computes the nth root of a (already or not-yet reduced).
// a.Factor must be non-negative; every primitive's multiplicity
// (dimensionless primitives exempted, per the rule that additive
// coherence needs them but root/power bookkeeping does not) must be a
// multiple of n in both numerator and denominator.
func Root(a *quantity.Quantity, n int, store *symtab.Store, reparse reduce.Reparser) (*quantity.Quantity, error) {
	if n == 0 {
		return nil, errOf("E_NOTROOT", "zeroth root is undefined")
	}
	r := a.Clone()
	if err := reduce.CompleteReduce(r, store, reparse); err != nil {
		return nil, err
	}
	if r.Factor < 0 {
		return nil, errOf("E_NOTROOT", "cannot take a root of a negative quantity")
	}
	dimensionless := IgnoreDimensionless(store)
	out := &quantity.Quantity{Factor: math.Pow(r.Factor, 1/float64(n))}
	if err := rootSide(r.Num, n, dimensionless, &out.Num); err != nil {
		return nil, err
	}
	if err := rootSide(r.Den, n, dimensionless, &out.Den); err != nil {
		return nil, err
	}
	return out, nil
}

func rootSide(tokens []string, n int, dimensionless IgnorePredicate, out *[]string) error {
	counts := map[string]int{}
	for _, t := range tokens {
		if t != quantity.NullUnit {
			counts[t]++
		}
	}
	for tok, c := range counts {
		if dimensionless(tok) {
			for i := 0; i < c; i++ {
				*out = append(*out, tok) // carried through unchanged
			}
			continue
		}
		if c%n != 0 {
			return errOf("E_BASE_NOTROOT", "base not expressible as an nth root")
		}
		for i := 0; i < c/n; i++ {
			*out = append(*out, tok)
		}
	}
	return nil
}

// Power computes base^exp. The exponent is reduced to a
// dimensionless scalar first; if the base also reduces to a pure number,
// the result is math.Pow(base, exp). Otherwise the exponent must be
// rational (continued-fraction approximation), and the result is
// repeat-multiply(root(base, q), |p|), inverted if p is negative.
func Power(base, exp *quantity.Quantity, store *symtab.Store, reparse reduce.Reparser) (*quantity.Quantity, error) {
	re := exp.Clone()
	if err := reduce.CompleteReduce(re, store, reparse); err != nil {
		return nil, err
	}
	if !re.IsEmpty() {
		return nil, errOf("E_DIMEXPONENT", "exponent is not dimensionless")
	}

	rb := base.Clone()
	if err := reduce.CompleteReduce(rb, store, reparse); err != nil {
		return nil, err
	}
	if rb.IsEmpty() {
		return quantity.New(math.Pow(rb.Factor, re.Factor)), nil
	}

	p, q, ok := rationalize(re.Factor, maxContinuedFractionTerms, maxRationalDenominator)
	if !ok {
		return nil, errOf("E_IRRATIONAL_EXPONENT", "irrational exponent with non-dimensionless base")
	}
	rooted, err := Root(rb, q, store, reparse)
	if err != nil {
		return nil, err
	}
	absP := p
	if absP < 0 {
		absP = -absP
	}
	result := quantity.New(1)
	base1 := rooted
	for i := 0; i < absP; i++ {
		if err := quantity.Multiply(result, base1); err != nil {
			return nil, err
		}
	}
	if p < 0 {
		inv, err := quantity.Invert(result)
		if err != nil {
			return nil, err
		}
		return inv, nil
	}
	return result, nil
}

// rationalize approximates x as a fraction p/q using a bounded
// continued-fraction expansion: up to
// maxTerms convergents are tried, the first whose denominator is within
// maxDenom and whose value matches x within DBL_EPSILON wins.
func rationalize(x float64, maxTerms, maxDenom int) (p, q int, ok bool) {
	if x == math.Trunc(x) && math.Abs(x) < float64(maxDenom) {
		return int(x), 1, true
	}
	neg := x < 0
	if neg {
		x = -x
	}
	h0, h1 := 0, 1
	k0, k1 := 1, 0
	rem := x
	for i := 0; i < maxTerms; i++ {
		a := math.Floor(rem)
		ai := int(a)
		h2 := ai*h1 + h0
		k2 := ai*k1 + k0
		h0, h1 = h1, h2
		k0, k1 = k1, k2
		if k1 > maxDenom {
			break
		}
		if k1 != 0 && math.Abs(float64(h1)/float64(k1)-x) < 0x1p-52 { // DBL_EPSILON
			if neg {
				h1 = -h1
			}
			return h1, k1, true
		}
		frac := rem - a
		if frac < 1e-15 {
			break
		}
		rem = 1 / frac
	}
	return 0, 0, false
}
