// Package loader implements the database loader: it streams
// a definitions file, honours conditional blocks, resolves !include,
// dispatches each record line to the matching symtab entry constructor,
// and accumulates per-record errors without aborting the load.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-units/units/internal/lexparse"
	"github.com/go-units/units/internal/symtab"
	"golang.org/x/text/language"
)

// maxIncludeDepth bounds !include recursion.
const maxIncludeDepth = 5

// RecordError is a single non-fatal error encountered while loading one
// record or directive line.
type RecordError struct {
	File string
	Line int
	Msg  string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// LoadResult summarizes a completed load: how many entries of each kind
// were added, and every non-fatal record error encountered.
type LoadResult struct {
	UnitCount     int
	PrefixCount   int
	FunctionCount int
	Errors        []*RecordError
}

// Options configures locale/environment-conditional sections and the
// loader's side-channel callbacks, in place of the process globals GNU
// units' readunits() relies on.
type Options struct {
	// Locale is matched against !locale TAG via a BCP-47 matcher
	// (golang.org/x/text/language) rather than a strict string compare.
	Locale string
	UTF8   bool
	Quiet  bool

	// Getenv overrides environment lookup for !var/!varnot/!set,
	// defaulting to os.LookupEnv. Tests substitute a fake.
	Getenv func(name string) (string, bool)
	Setenv func(name, value string)

	// OnMessage receives !message text, unless Quiet.
	OnMessage func(text string)
	// OnPrompt receives the argument of a !prompt directive.
	OnPrompt func(prefix string)
}

func (o *Options) getenv(name string) (string, bool) {
	if o.Getenv != nil {
		return o.Getenv(name)
	}
	return os.LookupEnv(name)
}

func (o *Options) setenv(name, value string) {
	if o.Setenv != nil {
		o.Setenv(name, value)
		return
	}
	os.Setenv(name, value)
}

// Load reads path into store, following !include directives, and
// returns a summary of what was loaded. A fatal I/O error on the root
// file is returned as err; record-level and included-file errors are
// accumulated into the result instead.
func Load(store *symtab.Store, path string, opts Options) (*LoadResult, error) {
	res := &LoadResult{}
	if err := loadFile(store, path, &opts, res, 0); err != nil {
		return res, err
	}
	return res, nil
}

// blockState tracks one file's conditional-block nesting. Each
// recursive loadFile call owns its own, matching GNU units'
// function-local state per readunits() invocation.
type blockState struct {
	inVar, wrongVar    bool
	inLocale, wrongLoc bool
	inUTF8             bool
}

func loadFile(store *symtab.Store, path string, opts *Options, res *LoadResult, depth int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to read units file %q: %w", path, err)
	}
	defer f.Close()

	st := &blockState{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	lineNum := 0
	var pending string
	flush := func(line string) {
		lineNum++
		processLine(store, path, line, lineNum, opts, st, res, depth)
	}

	first := true
	for sc.Scan() {
		raw := sc.Text()
		if first {
			raw = strings.TrimPrefix(raw, "﻿")
			first = false
		}
		if strings.HasSuffix(raw, `\`) {
			pending += strings.TrimSuffix(raw, `\`)
			continue
		}
		line := pending + raw
		pending = ""
		flush(line)
	}
	if pending != "" {
		flush(pending)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading units file %q: %w", path, err)
	}

	if st.inVar {
		res.Errors = append(res.Errors, &RecordError{File: path, Line: lineNum, Msg: "unmatched !var at end of file"})
	}
	if st.inLocale {
		res.Errors = append(res.Errors, &RecordError{File: path, Line: lineNum, Msg: "unmatched !locale at end of file"})
	}
	if st.inUTF8 {
		res.Errors = append(res.Errors, &RecordError{File: path, Line: lineNum, Msg: "unmatched !utf8 at end of file"})
	}
	return nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func addErr(res *LoadResult, file string, line int, format string, args ...any) {
	res.Errors = append(res.Errors, &RecordError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)})
}

func processLine(store *symtab.Store, file, rawLine string, lineNum int, opts *Options, st *blockState, res *LoadResult, depth int) {
	line := lexparse.NormalizeMinus(stripComment(rawLine))
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	if strings.HasPrefix(trimmed, "!") {
		processDirective(store, file, trimmed[1:], lineNum, opts, st, res, depth)
		return
	}

	if st.inUTF8 && !opts.UTF8 {
		return
	}
	if st.wrongLoc || st.wrongVar {
		return
	}

	name, def, ok := splitRecord(trimmed)
	if !ok {
		return
	}
	if def == "" {
		addErr(res, file, lineNum, "unit %q lacks a definition", name)
		return
	}

	redefine := false
	if strings.HasPrefix(name, "+") {
		name = name[1:]
		redefine = true
	}

	switch {
	case strings.HasSuffix(name, "-"):
		newPrefix(store, name, def, file, lineNum, redefine, res)
	case strings.ContainsRune(name, '['):
		newTable(store, name, def, file, lineNum, redefine, res)
	case strings.ContainsRune(name, '('):
		newFunction(store, name, def, file, lineNum, redefine, res)
	default:
		newUnit(store, name, def, file, lineNum, redefine, res)
	}
}

// splitRecord splits a record line into its name and definition fields
// on the first run of whitespace.
func splitRecord(line string) (name, def string, ok bool) {
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		if line == "" {
			return "", "", false
		}
		return line, "", true
	}
	name = line[:idx]
	if name == "" {
		return "", "", false
	}
	def = strings.TrimSpace(line[idx:])
	return name, def, true
}

func processDirective(store *symtab.Store, file, rest string, lineNum int, opts *Options, st *blockState, res *LoadResult, depth int) {
	fields := strings.SplitN(strings.TrimSpace(rest), " ", 2)
	word := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.TrimSpace(fields[1])
	}

	switch word {
	case "var", "varnot":
		not := word == "varnot"
		parts := strings.SplitN(arg, " ", 2)
		if len(parts) < 2 || parts[0] == "" || strings.TrimSpace(parts[1]) == "" {
			addErr(res, file, lineNum, "malformed !%s directive", word)
			return
		}
		if st.inVar {
			addErr(res, file, lineNum, "nested var statements not allowed")
			return
		}
		st.inVar = true
		val, set := opts.getenv(parts[0])
		if !set {
			addErr(res, file, lineNum, "environment variable %s not set", parts[0])
			st.wrongVar = true
			return
		}
		match := false
		for _, v := range strings.Fields(parts[1]) {
			if v == val {
				match = true
				break
			}
		}
		st.wrongVar = not == match
		return

	case "endvar":
		if !st.inVar {
			addErr(res, file, lineNum, "unmatched !endvar")
		}
		st.inVar, st.wrongVar = false, false
		return

	case "locale":
		if arg == "" {
			addErr(res, file, lineNum, "no locale specified")
			return
		}
		if st.inLocale {
			addErr(res, file, lineNum, "nested locales not allowed")
			return
		}
		st.inLocale = true
		st.wrongLoc = !localeMatches(opts.Locale, arg)
		return

	case "endlocale":
		if !st.inLocale {
			addErr(res, file, lineNum, "unmatched !endlocale")
		}
		st.inLocale, st.wrongLoc = false, false
		return

	case "utf8":
		if st.inUTF8 {
			addErr(res, file, lineNum, "nested utf8 not allowed")
			return
		}
		st.inUTF8 = true
		return

	case "endutf8":
		if !st.inUTF8 {
			addErr(res, file, lineNum, "unmatched !endutf8")
		}
		st.inUTF8 = false
		return
	}

	if st.inUTF8 && !opts.UTF8 {
		return
	}
	if st.wrongLoc || st.wrongVar {
		return
	}

	switch word {
	case "prompt":
		if opts.OnPrompt != nil {
			opts.OnPrompt(arg)
		}

	case "message":
		if !opts.Quiet && opts.OnMessage != nil {
			opts.OnMessage(arg)
		}

	case "set":
		parts := strings.SplitN(arg, " ", 2)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			addErr(res, file, lineNum, "malformed !set directive")
			return
		}
		if _, set := opts.getenv(parts[0]); !set {
			opts.setenv(parts[0], parts[1])
		}

	case "unitlist":
		name, def, ok := splitRecord(arg)
		if !ok || def == "" {
			addErr(res, file, lineNum, "malformed !unitlist directive")
			return
		}
		newAlias(store, name, def, file, lineNum, res)

	case "include":
		if arg == "" {
			addErr(res, file, lineNum, "missing include filename")
			return
		}
		if depth >= maxIncludeDepth {
			addErr(res, file, lineNum, "max include depth of %d exceeded", maxIncludeDepth)
			return
		}
		includePath := arg
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(filepath.Dir(file), includePath)
		}
		if err := loadFile(store, includePath, opts, res, depth+1); err != nil {
			addErr(res, file, lineNum, "include of %q failed: %v", includePath, err)
		}

	default:
		addErr(res, file, lineNum, "unrecognized directive !%s", word)
	}
}

// localeMatches reports whether active (the process locale, e.g. "en-US")
// satisfies a !locale TAG directive, using BCP-47 tag matching so
// regional variants (en vs en-GB) behave sensibly instead of requiring
// an exact string match.
func localeMatches(active, tag string) bool {
	if active == "" || tag == "" {
		return active == tag
	}
	activeTag, err1 := language.Parse(active)
	wantTag, err2 := language.Parse(tag)
	if err1 != nil || err2 != nil {
		return strings.EqualFold(active, tag)
	}
	matcher := language.NewMatcher([]language.Tag{wantTag})
	_, _, confidence := matcher.Match(activeTag)
	return confidence != language.No
}
