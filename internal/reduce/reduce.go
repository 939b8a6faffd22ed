// Package reduce implements the reduction engine: rewriting
// a Quantity until every remaining numerator/denominator token is
// primitive, by repeatedly looking up non-primitive tokens, reparsing
// their definitions, and merging.
//
// Reparsing a definition requires the expression parser, but the parser
// (internal/lexparse) itself needs this package to evaluate "+" and "^"
// inline. To avoid an import cycle, this package never imports the
// parser: callers supply a Reparser callback that does the reparsing,
// typically a thin closure around lexparse.Parse built by
// internal/engine.
package reduce

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/symtab"
)

// Reparser parses definition text (a unit's definition, a function
// body, ...) into a Quantity, resolving nested names through whatever
// resolver the caller captured in the closure.
type Reparser func(definitionText string) (*quantity.Quantity, error)

// Error mirrors the reduction engine's two error kinds.
type Error struct {
	UnknownUnit string // set for an unknown-token error, "" otherwise
	Msg         string
}

func (e *Error) Error() string {
	if e.UnknownUnit != "" {
		return fmt.Sprintf("unknown unit %q", e.UnknownUnit)
	}
	return e.Msg
}

func unknownUnit(tok string) error { return &Error{UnknownUnit: tok} }
func reduceErr(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// LookupUnit resolves tok to its definition text, trying in order:
// exact match, English-plural-stripping fallback, and (if prefixOK)
// longest-prefix-of-input decomposition. It returns the definition text
// and true, or ("", false) if nothing matched.
func LookupUnit(store *symtab.Store, tok string, prefixOK bool) (string, bool) {
	if e, ok := store.GetUnit(tok); ok {
		return e.Definition, true
	}
	for _, stem := range PluralFallback(tok) {
		if e, ok := store.GetUnit(stem); ok {
			return e.Definition, true
		}
	}
	if prefixOK {
		if def, ok := lookupViaPrefix(store, tok); ok {
			return def, true
		}
	}
	return "", false
}

// PluralFallback is a replaceable lookup-fallback hook: it returns, in
// priority order, the stems worth retrying when an exact lookup of tok
// fails. Defaults to an English de-pluralization chain: width > 2 and
// ends in 's' -> try the stem; if the stem ends in 'e', also try it
// without the 'e'; if the stem ends in 'i', also try it with 'y'.
var PluralFallback = func(tok string) []string {
	if utf8.RuneCountInString(tok) <= 2 || !strings.HasSuffix(tok, "s") {
		return nil
	}
	stem := tok[:len(tok)-1]
	variants := []string{stem}
	if strings.HasSuffix(stem, "e") {
		variants = append(variants, stem[:len(stem)-1])
	}
	if strings.HasSuffix(stem, "i") {
		variants = append(variants, stem[:len(stem)-1]+"y")
	}
	return variants
}

func lookupViaPrefix(store *symtab.Store, tok string) (string, bool) {
	var bestPrefix *symtab.PrefixEntry
	var bestRemainder string
	for i := 1; i <= len(tok); i++ {
		candidate := tok[:i]
		p, ok := store.GetPrefix(candidate)
		if !ok {
			continue
		}
		remainder := tok[i:]
		if remainder == "" {
			if bestPrefix == nil || len(p.Name) > len(bestPrefix.Name) {
				bestPrefix, bestRemainder = p, remainder
			}
			continue
		}
		if _, ok := LookupUnit(store, remainder, false); ok {
			if bestPrefix == nil || len(p.Name) > len(bestPrefix.Name) {
				bestPrefix, bestRemainder = p, remainder
			}
		}
	}
	if bestPrefix == nil {
		return "", false
	}
	return bestPrefix.Definition + " " + bestRemainder, true
}

// stepFlags carries everything CompleteReduce needs to merge one
// expanded token into the host quantity.
type stepFlags struct {
	didWork      bool
	hitError     bool
	foundNothing bool
}

// reduceOnce walks q's numerator (or denominator, if flip) once,
// expanding the first non-primitive, non-tombstone token it finds and
// merging the result into q.
func reduceOnce(q *quantity.Quantity, store *symtab.Store, reparse Reparser, flip bool) (stepFlags, error) {
	side := q.Num
	if flip {
		side = q.Den
	}
	for i, tok := range side {
		if tok == quantity.NullUnit {
			continue
		}
		def, found := LookupUnit(store, tok, true)
		if !found {
			return stepFlags{foundNothing: true}, unknownUnit(tok)
		}
		if strings.HasPrefix(def, "!") {
			// Primitive: nothing further to expand for this token.
			continue
		}
		sub, err := reparse(def)
		if err != nil {
			return stepFlags{hitError: true}, reduceErr("reducing %q: %v", tok, err)
		}
		if flip {
			if err := quantity.Divide(q, sub); err != nil {
				return stepFlags{hitError: true}, err
			}
		} else {
			if err := quantity.Multiply(q, sub); err != nil {
				return stepFlags{hitError: true}, err
			}
		}
		q.Tombstone(i, flip)
		return stepFlags{didWork: true}, nil
	}
	return stepFlags{}, nil
}

// CompleteReduce repeats reduceOnce over both numerator and denominator
// until a pass produces no work, then sorts and cancels.
// The database is required to be acyclic on reduction; this function
// does not itself detect cycles.
func CompleteReduce(q *quantity.Quantity, store *symtab.Store, reparse Reparser) error {
	for {
		numFlags, err := reduceOnce(q, store, reparse, false)
		if err != nil {
			return err
		}
		denFlags, err := reduceOnce(q, store, reparse, true)
		if err != nil {
			return err
		}
		if !numFlags.didWork && !denFlags.didWork {
			break
		}
	}
	q.Sort()
	q.Cancel()
	return nil
}
