package engine

import (
	"fmt"
	"strings"

	"github.com/go-units/units/internal/format"
	"github.com/go-units/units/internal/lexparse"
	"github.com/go-units/units/internal/nonlinear"
	"github.com/go-units/units/internal/quantity"
	"github.com/go-units/units/internal/reduce"
	"github.com/go-units/units/internal/symtab"
)

// binding is the single-slot function parameter the nonlinear evaluator
// installs while reparsing a function body.
type binding struct {
	name  string
	value *quantity.Quantity
}

// Context is the concrete symtab.Resolver and nonlinear.Binder
// implementation that ties the symbol store to the parser and the
// nonlinear evaluator. One Context exists per loaded database; it is
// not safe for concurrent use without external synchronization —
// callers own their own Context if they want concurrent engines.
type Context struct {
	store  *symtab.Store
	opts   lexparse.Options
	format format.Spec
	locale string
	utf8   bool

	bindings []*binding // stack; only the top entry is visible to ResolveBinding
	last     *quantity.Quantity
	hasLast  bool
}

// New returns a Context over an empty store, with default parser and
// formatter settings.
func New() *Context {
	return &Context{
		store:  symtab.New(),
		opts:   lexparse.DefaultOptions(),
		format: format.Default(),
		locale: "",
		utf8:   false,
	}
}

// Store returns the backing symbol store.
func (c *Context) Store() *symtab.Store { return c.store }

// SetOptions overrides the parser dialect switches (!var parserflags
// directives in a database).
func (c *Context) SetOptions(opts lexparse.Options) { c.opts = opts }

// Options returns the active parser dialect switches.
func (c *Context) Options() lexparse.Options { return c.opts }

// SetFormat overrides the output number format.
func (c *Context) SetFormat(sp format.Spec) { c.format = sp }

// Format returns the active output number format.
func (c *Context) Format() format.Spec { return c.format }

// SetLocale records the active !locale directive's tag, for diagnostics
// and for the loader's !locale/!endlocale gating.
func (c *Context) SetLocale(tag string) { c.locale = tag }

// Locale returns the active locale tag, "" if none was set.
func (c *Context) Locale() string { return c.locale }

// SetUTF8 toggles the database's UTF-8 name mode.
func (c *Context) SetUTF8(on bool) { c.utf8 = on }

// UTF8 reports whether UTF-8 name mode is active.
func (c *Context) UTF8() bool { return c.utf8 }

// Parse runs the expression parser against this context's store and
// dialect options.
func (c *Context) Parse(text string) (*quantity.Quantity, error) {
	return lexparse.Parse(text, c, c.opts)
}

// Reduce completes reduction of q in place against this context's store
// and parser.
func (c *Context) Reduce(q *quantity.Quantity) error {
	return reduce.CompleteReduce(q, c.store, c.reparse)
}

func (c *Context) reparse(text string) (*quantity.Quantity, error) {
	return c.Parse(text)
}

// SetLastResult records q as the "_" placeholder for subsequent
// expressions.
func (c *Context) SetLastResult(q *quantity.Quantity) {
	c.last = q.Clone()
	c.hasLast = true
}

// LastResult implements symtab.Resolver.
func (c *Context) LastResult() (*quantity.Quantity, bool) {
	if !c.hasLast {
		return nil, false
	}
	return c.last, true
}

// ResolveBinding implements symtab.Resolver: only the innermost active
// function-parameter binding is visible, matching the original
// implementation's single active substitution per evaluation.
func (c *Context) ResolveBinding(name string) (*quantity.Quantity, bool) {
	if len(c.bindings) == 0 {
		return nil, false
	}
	top := c.bindings[len(c.bindings)-1]
	if top.name != name {
		return nil, false
	}
	return top.value, true
}

// ResolveUnit implements symtab.Resolver.
func (c *Context) ResolveUnit(name string) (string, bool) {
	return reduce.LookupUnit(c.store, name, true)
}

// ResolveFunc implements symtab.Resolver. name is looked up stripped of
// any leading "~" inverse marker.
func (c *Context) ResolveFunc(name string) (*symtab.Function, bool) {
	return c.store.GetFunc(strings.TrimPrefix(name, "~"))
}

// EvaluateFunc implements symtab.Resolver by dispatching to the
// nonlinear evaluator.
func (c *Context) EvaluateFunc(name string, arg *quantity.Quantity) (*quantity.Quantity, error) {
	fn, ok := c.ResolveFunc(name)
	if !ok {
		return nil, NewError(ErrNotAFunc, fmt.Sprintf("%q is not a defined function", strings.TrimPrefix(name, "~")))
	}
	result, err := nonlinear.Evaluate(name, fn, arg, c.store, c.reparse, c)
	if err != nil {
		if nlErr, ok := err.(*nonlinear.Error); ok {
			return nil, NewError(kindFromNonlinear(nlErr.Kind), nlErr.Msg)
		}
		return nil, err
	}
	return result, nil
}

// Install implements nonlinear.Binder: pushes a new parameter binding and
// returns a restore closure that pops it, so nested/recursive function
// evaluation nests bindings correctly instead of clobbering the caller's.
func (c *Context) Install(paramName string, value *quantity.Quantity) (restore func()) {
	c.bindings = append(c.bindings, &binding{name: paramName, value: value})
	return func() {
		c.bindings = c.bindings[:len(c.bindings)-1]
	}
}

func kindFromNonlinear(kind string) ErrorKind {
	switch kind {
	case "E_NOINVERSE":
		return ErrNoInverse
	case "E_BADFUNCDIMEN":
		return ErrBadFuncDimen
	case "E_BADFUNCARG":
		return ErrBadFuncArg
	case "E_NOTINDOMAIN":
		return ErrNotInDomain
	case "E_FUNC":
		return ErrFunc
	default:
		return ErrFunc
	}
}
