// Package units is the public facade API of the units conversion
// engine, mirroring the functional-options Engine shape a consumer of
// this module's teacher repo would recognise (New(opts ...Option),
// With* configuration functions, a small surface hiding the internal/
// packages).
package units

import (
	"fmt"

	"github.com/go-units/units/internal/engine"
	"github.com/go-units/units/internal/facade"
	"github.com/go-units/units/internal/format"
	"github.com/go-units/units/internal/lexparse"
	"github.com/go-units/units/internal/loader"
)

// Engine is a loaded units database plus the engine context needed to
// parse, reduce, and convert against it.
type Engine struct {
	ctx       *engine.Context
	quiet     bool
	onMessage func(string)
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLocale sets the active !locale tag (matched via BCP-47).
func WithLocale(tag string) Option {
	return func(e *Engine) { e.ctx.SetLocale(tag) }
}

// WithUTF8 toggles UTF-8 database mode.
func WithUTF8(on bool) Option {
	return func(e *Engine) { e.ctx.SetUTF8(on) }
}

// WithOldStar selects the legacy dialect where '*' binds tighter than
// '/' (units.c's parserflags.oldstar).
func WithOldStar(on bool) Option {
	return func(e *Engine) {
		opts := e.ctx.Options()
		opts.OldStar = on
		e.ctx.SetOptions(opts)
	}
}

// WithFormat sets the output number format from a printf-style spec
// string, e.g. "%.6g".
func WithFormat(spec string) Option {
	return func(e *Engine) {
		if sp, err := format.Parse(spec); err == nil {
			e.ctx.SetFormat(sp)
		}
	}
}

// WithQuiet suppresses !message output during loading.
func WithQuiet(quiet bool) Option {
	return func(e *Engine) { e.quiet = quiet }
}

// WithMessageHandler registers a callback for !message directives.
func WithMessageHandler(fn func(string)) Option {
	return func(e *Engine) { e.onMessage = fn }
}

// New constructs an Engine over an empty symbol store and applies opts.
// Load the definitions database separately via Engine.Load.
func New(opts ...Option) *Engine {
	e := &Engine{ctx: engine.New()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads a definitions file (and any files it !includes) into the
// engine's symbol store, returning a summary of what was loaded.
// Record-level errors are accumulated into the result rather than
// failing the call; only I/O failure on the root file is returned as
// err.
func (e *Engine) Load(path string) (*loader.LoadResult, error) {
	return loader.Load(e.ctx.Store(), path, loader.Options{
		Locale:    e.ctx.Locale(),
		UTF8:      e.ctx.UTF8(),
		Quiet:     e.quiet,
		OnMessage: e.onMessage,
	})
}

// ConvertOption configures a single Convert call.
type ConvertOption func(*facade.Options)

// SingleLine suppresses the inverse-factor line of a factor conversion.
func SingleLine() ConvertOption { return func(o *facade.Options) { o.SingleLine = true } }

// Strict disables the reciprocal-conversion fallback.
func Strict() ConvertOption { return func(o *facade.Options) { o.Strict = true } }

// RoundResult rounds a multi-unit decomposition's final term to an
// integer multiple of its unit.
func RoundResult() ConvertOption { return func(o *facade.Options) { o.Round = true } }

// Convert performs the top-level convert/decompose/search operation,
// dispatching on want's shape exactly as the facade does.
func (e *Engine) Convert(have, want string, opts ...ConvertOption) (*facade.Answer, error) {
	var fo facade.Options
	for _, opt := range opts {
		opt(&fo)
	}
	return facade.Convert(e.ctx, have, want, fo)
}

// Search is Convert(have, "?") under another name, for callers that
// don't want to spell the "?" convention themselves.
func (e *Engine) Search(have string) ([]string, error) {
	ans, err := e.Convert(have, "?")
	if err != nil {
		return nil, err
	}
	return ans.Matches, nil
}

// ParserOptions returns the active dialect flags, mainly for tests and
// diagnostics.
func (e *Engine) ParserOptions() lexparse.Options { return e.ctx.Options() }

// UnitCount returns how many units are currently registered.
func (e *Engine) UnitCount() int { return len(e.ctx.Store().UnitNames()) }

// Error wraps an engine.Error with the module's public error type
// boundary, so callers outside this module don't need to import
// internal/engine to type-assert on error kind.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// AsError converts an internal engine error into the public Error type,
// returning ok=false for errors that didn't originate in the engine
// (e.g. a facade.NotConformableError, returned as-is by Convert).
func AsError(err error) (*Error, bool) {
	if ee, ok := err.(*engine.Error); ok {
		return &Error{Kind: ee.Kind.String(), Msg: ee.Msg}, true
	}
	return nil, false
}
