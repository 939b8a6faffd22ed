package symtab

import "github.com/go-units/units/internal/quantity"

// Resolver is the contract between the expression parser and the rest
// of the engine: the parser never reaches into a Store directly, it
// only calls back through this interface. That keeps the parser
// swappable without the reduction/algebra packages ever importing it.
type Resolver interface {
	// Store returns the symbol store backing this resolver, so that
	// callers needing to reduce a sub-expression (e.g. the parser's own
	// "+" and "^" handling) can call internal/reduce and internal/dimalg
	// directly without this interface growing a method per algebra op.
	Store() *Store

	// ResolveBinding returns the currently-installed function parameter
	// binding if name matches it: the parser must try this before ResolveUnit.
	ResolveBinding(name string) (*quantity.Quantity, bool)

	// ResolveUnit returns the raw (unreduced) definition text for a unit
	// name, trying prefix/plural fallback exactly as lookup_unit does
	//. found is false if no unit, prefixed unit, or plural
	// fallback matched.
	ResolveUnit(name string) (definition string, found bool)

	// ResolveFunc looks up a named function for a function-call
	// expression (e.g. "tempF(x)" for a user-defined function, as opposed
	// to a parser built-in).
	ResolveFunc(name string) (*Function, bool)

	// LastResult returns the engine's "_" placeholder, and
	// whether it has been set yet.
	LastResult() (*quantity.Quantity, bool)

	// EvaluateFunc invokes a named function (nonlinear evaluator) on
	// arg. name is prefixed with "~" to request the inverse branch,
	// exactly as the surface syntax spells it.
	EvaluateFunc(name string, arg *quantity.Quantity) (*quantity.Quantity, error)
}
