// Package lexparse implements the unit expression parser: it consumes
// text and a symtab.Resolver callback, and yields a Quantity or a
// structured, byte-offset-carrying error. Nothing else in the engine
// imports this package's internals — only the symtab.Resolver interface
// it is built against — keeping the parser swappable.
package lexparse

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-units/units/internal/dimalg"
	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/reduce"
	"github.com/go-units/units/internal/symtab"
)

// Options selects the two parser dialect switches GNU units'
// parserflags carries: whether '*' binds tighter than '/' (OldStar) and
// whether '-' is always treated as binary subtraction / unary negation
// rather than ever being folded into a token (MinusMinus — this grammar
// never folds '-' into identifiers, so the parser does not consult the
// flag; it is carried for interop fidelity).
type Options struct {
	OldStar    bool
	MinusMinus bool
}

// DefaultOptions matches GNU units' defaults.
func DefaultOptions() Options {
	return Options{OldStar: false, MinusMinus: true}
}

// ParseError is the structured error the parser contract promises:
// a message and a byte offset suitable for a caret diagnostic.
type ParseError struct {
	Msg    string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (at byte %d)", e.Msg, e.Offset)
}

type parser struct {
	lex      *lexer
	opts     Options
	resolver symtab.Resolver
	cur      token
	peek     token
}

// Parse parses text into a Quantity, consulting resolver for bound
// function parameters, function calls, and the "_" last-result
// placeholder. Plain unit-name tokens are NOT resolved here — they are
// carried as raw strings into the result's Num/Den for the reduction
// engine (internal/reduce) to expand to fixpoint afterward, matching the
// "text -> parser -> Quantity -> reduction" data flow.
func Parse(text string, resolver symtab.Resolver, opts Options) (*quantity.Quantity, error) {
	p := &parser{lex: newLexer(normalizeMinus(text)), opts: opts, resolver: resolver}
	if err := p.advance(); err != nil {
		return nil, toParseError(err)
	}
	if err := p.advance(); err != nil {
		return nil, toParseError(err)
	}
	q, err := p.parseAdditive()
	if err != nil {
		return nil, toParseError(err)
	}
	if p.cur.kind != tokEOF {
		return nil, &ParseError{Msg: "unexpected trailing input", Offset: p.cur.offset}
	}
	return q, nil
}

func toParseError(err error) error {
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	if le, ok := err.(*lexError); ok {
		return &ParseError{Msg: le.msg, Offset: le.offset}
	}
	return &ParseError{Msg: err.Error(), Offset: -1}
}

func (p *parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

// canStartPrimary reports whether tok could begin another unary term,
// used to detect implicit multiplication by juxtaposition.
func canStartPrimary(tok token) bool {
	switch tok.kind {
	case tokNumber, tokIdent, tokLParen, tokTilde, tokUnderscore:
		return true
	default:
		return false
	}
}

// reparserFor closes over p's own Parse entry point so internal/reduce
// and internal/dimalg can reparse definition/body text through this same
// parser and resolver, without either package importing lexparse.
func (p *parser) reparserFor() reduce.Reparser {
	return func(text string) (*quantity.Quantity, error) {
		return Parse(text, p.resolver, p.opts)
	}
}

// parseAdditive handles '+'/'-' at the lowest precedence: dimensional
// sums requiring conformability, evaluated
// eagerly via internal/dimalg.Add so the parser always returns one
// fully-formed Quantity for the top-level expression it was asked to
// parse.
func (p *parser) parseAdditive() (*quantity.Quantity, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := p.cur.kind
		offset := p.cur.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if op == tokMinus {
			right.Factor = -right.Factor
		}
		sum, err := dimalg.Add(left, right, p.resolver.Store(), p.reparserFor())
		if err != nil {
			return nil, &ParseError{Msg: err.Error(), Offset: offset}
		}
		left = sum
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*quantity.Quantity, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur.kind == tokStar:
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if err := quantity.Multiply(left, right); err != nil {
				return nil, err
			}
		case p.cur.kind == tokSlash:
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			// OldStar: '*' binds tighter than '/', so "a/b*c" is a/(b*c).
			for p.opts.OldStar && p.cur.kind == tokStar {
				if err := p.advance(); err != nil {
					return nil, err
				}
				next, err := p.parseUnary()
				if err != nil {
					return nil, err
				}
				if err := quantity.Multiply(right, next); err != nil {
					return nil, err
				}
			}
			if err := quantity.Divide(left, right); err != nil {
				return nil, err
			}
		case canStartPrimary(p.cur):
			// implicit multiplication by juxtaposition, e.g. "5 ft"
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if err := quantity.Multiply(left, right); err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (*quantity.Quantity, error) {
	if p.cur.kind == tokMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		q, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		q.Factor = -q.Factor
		return q, nil
	}
	return p.parsePower()
}

// parsePower handles right-associative '^', e.g. "m^-2" or "2^3^2",
// evaluated eagerly via internal/dimalg.Power.
func (p *parser) parsePower() (*quantity.Quantity, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokCaret {
		offset := p.cur.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		result, err := dimalg.Power(base, exp, p.resolver.Store(), p.reparserFor())
		if err != nil {
			return nil, &ParseError{Msg: err.Error(), Offset: offset}
		}
		return result, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (*quantity.Quantity, error) {
	switch p.cur.kind {
	case tokNumber:
		v := p.cur.num
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokPipe {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokNumber {
				return nil, &ParseError{Msg: "expected denominator after '|'", Offset: p.cur.offset}
			}
			denom := p.cur.num
			if denom == 0 {
				return nil, &ParseError{Msg: "division by zero in rational literal", Offset: p.cur.offset}
			}
			v /= denom
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return quantity.New(v), nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		q, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, &ParseError{Msg: "expected ')'", Offset: p.cur.offset}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return q, nil

	case tokUnderscore:
		offset := p.cur.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		q, ok := p.resolver.LastResult()
		if !ok {
			return nil, &ParseError{Msg: "last result ('_') has not been set", Offset: offset}
		}
		return q.Clone(), nil

	case tokTilde:
		offset := p.cur.offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokIdent {
			return nil, &ParseError{Msg: "expected function name after '~'", Offset: offset}
		}
		name := "~" + p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseCallOrBinding(name)

	case tokIdent:
		name := p.cur.text
		offset := p.cur.offset
		exp := p.cur.impliedExp
		if err := p.advance(); err != nil {
			return nil, err
		}
		if builtin, ok := builtinFuncs[strings.ToLower(name)]; ok && p.cur.kind == tokLParen {
			return p.parseBuiltinCall(builtin, offset)
		}
		q, err := p.parseCallOrBinding(name)
		if err != nil {
			return nil, err
		}
		if exp != 0 {
			q, err = dimalg.Power(q, quantity.New(float64(exp)), p.resolver.Store(), p.reparserFor())
			if err != nil {
				return nil, &ParseError{Msg: err.Error(), Offset: offset}
			}
		}
		return q, nil

	default:
		return nil, &ParseError{Msg: "expected a number, unit, or '('", Offset: p.cur.offset}
	}
}

// parseCallOrBinding resolves a bare identifier: first against the
// parameter binding stack, then as a user function call if followed by '(', otherwise as
// a raw unit token left for internal/reduce to expand.
func (p *parser) parseCallOrBinding(name string) (*quantity.Quantity, error) {
	if p.cur.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, &ParseError{Msg: "expected ')'", Offset: p.cur.offset}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		result, err := p.resolver.EvaluateFunc(name, arg)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	if bound, ok := p.resolver.ResolveBinding(name); ok {
		return bound.Clone(), nil
	}
	return &quantity.Quantity{Factor: 1, Num: []string{name}}, nil
}

var builtinFuncs = map[string]func(float64) (float64, error){
	"sin":  func(x float64) (float64, error) { return math.Sin(x), nil },
	"cos":  func(x float64) (float64, error) { return math.Cos(x), nil },
	"tan":  func(x float64) (float64, error) { return math.Tan(x), nil },
	"asin": func(x float64) (float64, error) { return checkFinite(math.Asin(x)) },
	"acos": func(x float64) (float64, error) { return checkFinite(math.Acos(x)) },
	"atan": func(x float64) (float64, error) { return math.Atan(x), nil },
	"sinh": func(x float64) (float64, error) { return math.Sinh(x), nil },
	"cosh": func(x float64) (float64, error) { return math.Cosh(x), nil },
	"tanh": func(x float64) (float64, error) { return math.Tanh(x), nil },
	"asinh": func(x float64) (float64, error) { return math.Asinh(x), nil },
	"acosh": func(x float64) (float64, error) { return checkFinite(math.Acosh(x)) },
	"atanh": func(x float64) (float64, error) { return checkFinite(math.Atanh(x)) },
	"ln":   func(x float64) (float64, error) { return checkFinite(math.Log(x)) },
	"log":  func(x float64) (float64, error) { return checkFinite(math.Log10(x)) },
	"exp":  func(x float64) (float64, error) { return math.Exp(x), nil },
	"sqrt": func(x float64) (float64, error) { return checkFinite(math.Sqrt(x)) },
	"cuberoot": func(x float64) (float64, error) { return math.Cbrt(x), nil },
	"per": func(x float64) (float64, error) {
		if x == 0 {
			return 0, fmt.Errorf("division by zero in per()")
		}
		return 1 / x, nil
	},
}

func checkFinite(x float64) (float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("math function overflow")
	}
	return x, nil
}

// parseBuiltinCall applies a built-in math function to a
// dimensionless argument. The argument is not reduced here: it must
// already be a pure scalar (no unit tokens in Num/Den), and any other
// argument is rejected at once with a ParseError.
func (p *parser) parseBuiltinCall(fn func(float64) (float64, error), offset int) (*quantity.Quantity, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	arg, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokRParen {
		return nil, &ParseError{Msg: "expected ')'", Offset: p.cur.offset}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !arg.IsEmpty() {
		return nil, &ParseError{Msg: "built-in function requires a dimensionless argument", Offset: offset}
	}
	v, err := fn(arg.Factor)
	if err != nil {
		return nil, &ParseError{Msg: err.Error(), Offset: offset}
	}
	return quantity.New(v), nil
}
