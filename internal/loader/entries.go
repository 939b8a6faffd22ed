package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-units/units/internal/symtab"
)

// checkName applies symtab.ValidateName plus the loader-specific
// trailing-subscript rule: a name ending in '.' or a digit
// in 2..9 is rejected unless that digit follows an '_' (e.g. "m_2").
func checkName(name string) error {
	if err := symtab.ValidateName(name); err != nil {
		return err
	}
	if strings.HasSuffix(name, ".") {
		return fmt.Errorf("name %q ends with '.'", name)
	}
	last := name[len(name)-1]
	if last >= '2' && last <= '9' {
		if len(name) < 2 || name[len(name)-2] != '_' {
			return fmt.Errorf("name %q ends with a bare digit; use an '_' subscript", name)
		}
	}
	return nil
}

func newUnit(store *symtab.Store, name, def, file string, line int, redefine bool, res *LoadResult) {
	if err := checkName(name); err != nil {
		addErr(res, file, line, "%v", err)
		return
	}
	replaced := store.PutUnit(&symtab.UnitEntry{
		Name:       name,
		Definition: def,
		Source:     symtab.Source{File: file, Line: line},
	})
	if !replaced {
		res.UnitCount++
	}
	_ = redefine // redefinition-warning suppression has no observable effect without a warning sink
}

func newPrefix(store *symtab.Store, rawName, def, file string, line int, redefine bool, res *LoadResult) {
	name := strings.TrimSuffix(rawName, "-")
	if err := checkName(name); err != nil {
		addErr(res, file, line, "%v", err)
		return
	}
	replaced := store.PutPrefix(&symtab.PrefixEntry{
		Name:       name,
		Definition: def,
		Source:     symtab.Source{File: file, Line: line},
	})
	if !replaced {
		res.PrefixCount++
	}
	_ = redefine
}

func newAlias(store *symtab.Store, name, def, file string, line int, res *LoadResult) {
	if !strings.Contains(def, ";") {
		addErr(res, file, line, "unit list missing ';' in alias %q", name)
		return
	}
	store.PutAlias(&symtab.Alias{
		Name:       name,
		Definition: def,
		Source:     symtab.Source{File: file, Line: line},
	})
}

// newTable parses a NAME[UNIT] DEFINITION record into a
// piecewise-linear table function.
func newTable(store *symtab.Store, rawName, def, file string, line int, redefine bool, res *LoadResult) {
	open := strings.IndexByte(rawName, '[')
	closeIdx := strings.IndexByte(rawName, ']')
	if closeIdx < 0 {
		addErr(res, file, line, "missing ']' in table definition %q", rawName)
		return
	}
	if closeIdx != len(rawName)-1 {
		addErr(res, file, line, "unexpected characters after ']' in table definition %q", rawName)
		return
	}
	name := rawName[:open]
	tableUnit := rawName[open+1 : closeIdx]
	if err := checkName(name); err != nil {
		addErr(res, file, line, "%v", err)
		return
	}

	noerror := false
	rest := def
	if strings.HasPrefix(rest, "noerror ") {
		noerror = true
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "noerror "))
	}

	pairs, err := parseTableBody(rest)
	if err != nil {
		addErr(res, file, line, "%v", err)
		return
	}

	replaced := store.PutFunc(&symtab.Function{
		Name:           name,
		Table:          pairs,
		TableUnit:      tableUnit,
		SkipErrorCheck: noerror,
		Source:         symtab.Source{File: file, Line: line},
	})
	if !replaced {
		res.FunctionCount++
	}
	_ = redefine
}

func parseTableBody(s string) ([]symtab.TablePair, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("table definition has an odd number of values")
	}
	pairs := make([]symtab.TablePair, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		loc, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse table location %q", fields[i])
		}
		val, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse table value %q", fields[i+1])
		}
		if len(pairs) > 0 && loc <= pairs[len(pairs)-1].Location {
			return nil, fmt.Errorf("table points don't increase (%.8g to %.8g)", pairs[len(pairs)-1].Location, loc)
		}
		pairs = append(pairs, symtab.TablePair{Location: loc, Value: val})
	}
	for i := 1; i < len(pairs); i++ {
		d := pairs[i].Value - pairs[i-1].Value
		if d == 0 || (i > 1 && (d > 0) != (pairs[1].Value > pairs[0].Value)) {
			return nil, fmt.Errorf("table values are not strictly monotone")
		}
	}
	return pairs, nil
}

// newFunction parses a NAME(PARAM) DEFINITION record into an
// analytic function, handling the units=/domain=/range=/noerror keyword
// clauses and the forward;inverse body split.
func newFunction(store *symtab.Store, rawName, def, file string, line int, redefine bool, res *LoadResult) {
	open := strings.IndexByte(rawName, '(')
	closeIdx := strings.IndexByte(rawName, ')')
	if closeIdx < open {
		addErr(res, file, line, "bad function definition %q", rawName)
		return
	}
	name := rawName[:open]
	param := rawName[open+1 : closeIdx]
	if err := checkName(name); err != nil {
		addErr(res, file, line, "%v", err)
		return
	}

	if param == "" {
		// NAME() copies an existing function named by def.
		src, ok := store.GetFunc(strings.TrimSpace(def))
		if !ok {
			addErr(res, file, line, "function %q not found for copy of %q", def, name)
			return
		}
		cp := *src
		cp.Name = name
		cp.Source = symtab.Source{File: file, Line: line}
		replaced := store.PutFunc(&cp)
		if !replaced {
			res.FunctionCount++
		}
		return
	}

	hdr, body, err := parseFuncHeader(def)
	if err != nil {
		addErr(res, file, line, "%v", err)
		return
	}
	if body == "" {
		addErr(res, file, line, "function %q lacks a definition", name)
		return
	}

	forwardBody, inverseBody := body, ""
	if i := strings.IndexByte(body, ';'); i >= 0 {
		forwardBody, inverseBody = strings.TrimSpace(body[:i]), strings.TrimSpace(body[i+1:])
	}

	fn := &symtab.Function{
		Name:           name,
		SkipErrorCheck: hdr.noError,
		Source:         symtab.Source{File: file, Line: line},
		Forward: &symtab.FuncBranch{
			ParamName:        param,
			Body:             forwardBody,
			RequiredInputDim: hdr.forwardDim,
			HasDomainMin:     hdr.domainMin != nil,
			MinOpen:          hdr.domainMinOpen,
			HasDomainMax:     hdr.domainMax != nil,
			MaxOpen:          hdr.domainMaxOpen,
		},
	}
	if hdr.domainMin != nil {
		fn.Forward.DomainMin = *hdr.domainMin
	}
	if hdr.domainMax != nil {
		fn.Forward.DomainMax = *hdr.domainMax
	}
	if inverseBody != "" {
		fn.Inverse = &symtab.FuncBranch{
			ParamName:        name,
			Body:             inverseBody,
			RequiredInputDim: hdr.inverseDim,
			HasDomainMin:     hdr.rangeMin != nil,
			MinOpen:          hdr.rangeMinOpen,
			HasDomainMax:     hdr.rangeMax != nil,
			MaxOpen:          hdr.rangeMaxOpen,
		}
		if hdr.rangeMin != nil {
			fn.Inverse.DomainMin = *hdr.rangeMin
		}
		if hdr.rangeMax != nil {
			fn.Inverse.DomainMax = *hdr.rangeMax
		}
	}

	replaced := store.PutFunc(fn)
	if !replaced {
		res.FunctionCount++
	}
	_ = redefine
}

type funcHeader struct {
	forwardDim, inverseDim       string
	domainMin, domainMax         *float64
	domainMinOpen, domainMaxOpen bool
	rangeMin, rangeMax           *float64
	rangeMinOpen, rangeMaxOpen   bool
	noError                      bool
}

// parseFuncHeader consumes the units=/domain=/range=/noerror keyword
// clauses from the front of def, in any order and any repetition count,
// returning the header and the remaining forward;inverse body text.
func parseFuncHeader(def string) (funcHeader, string, error) {
	var h funcHeader
	rest := def
	for {
		trimmed := strings.TrimLeft(rest, " \t")
		switch {
		case strings.HasPrefix(trimmed, "units="):
			first, second, _, _, tail, err := parsePair(trimmed[len("units="):], ';', false)
			if err != nil {
				return h, "", fmt.Errorf("bad units= clause: %v", err)
			}
			h.forwardDim, h.inverseDim, rest = first, second, tail

		case strings.HasPrefix(trimmed, "domain="):
			first, second, minOpen, maxOpen, tail, err := parsePair(trimmed[len("domain="):], ',', true)
			if err != nil {
				return h, "", fmt.Errorf("bad domain= clause: %v", err)
			}
			if err := assignInterval(first, second, &h.domainMin, &h.domainMax); err != nil {
				return h, "", err
			}
			h.domainMinOpen, h.domainMaxOpen, rest = minOpen, maxOpen, tail

		case strings.HasPrefix(trimmed, "range="):
			first, second, minOpen, maxOpen, tail, err := parsePair(trimmed[len("range="):], ',', true)
			if err != nil {
				return h, "", fmt.Errorf("bad range= clause: %v", err)
			}
			if err := assignInterval(first, second, &h.rangeMin, &h.rangeMax); err != nil {
				return h, "", err
			}
			h.rangeMinOpen, h.rangeMaxOpen, rest = minOpen, maxOpen, tail

		case strings.HasPrefix(trimmed, "noerror "):
			h.noError = true
			rest = trimmed[len("noerror "):]

		default:
			return h, strings.TrimSpace(trimmed), nil
		}
	}
}

// parsePair extracts "[first,second]" or, when allowOpen, "(first,second)"
// style bracketed pairs, mirroring the original's parsepair(): delimiter
// separates first/second, the opening bracket determines minOpen, the
// closing bracket determines maxOpen.
func parsePair(s string, delimiter byte, allowOpen bool) (first, second string, minOpen, maxOpen bool, rest string, err error) {
	openChars := "["
	if allowOpen {
		openChars = "[("
	}
	idx := strings.IndexAny(s, openChars)
	if idx < 0 {
		return "", "", false, false, "", fmt.Errorf("expecting '['")
	}
	if strings.TrimSpace(s[:idx]) != "" {
		return "", "", false, false, "", fmt.Errorf("unexpected characters before bracket")
	}
	minOpen = s[idx] == '('
	body := s[idx+1:]

	closeChars := "]"
	if allowOpen {
		closeChars = "])"
	}
	end := strings.IndexAny(body, closeChars)
	if end < 0 {
		return "", "", false, false, "", fmt.Errorf("expecting closing bracket")
	}
	maxOpen = body[end] == ')'
	inner := body[:end]
	rest = body[end+1:]

	if mid := strings.IndexByte(inner, delimiter); mid >= 0 {
		first = strings.TrimSpace(inner[:mid])
		second = strings.TrimSpace(inner[mid+1:])
	} else {
		first = strings.TrimSpace(inner)
	}
	return first, second, minOpen, maxOpen, rest, nil
}

func assignInterval(first, second string, minOut, maxOut **float64) error {
	if first != "" {
		v, err := strconv.ParseFloat(first, 64)
		if err != nil {
			return fmt.Errorf("malformed interval endpoint %q", first)
		}
		*minOut = &v
	}
	if second != "" {
		v, err := strconv.ParseFloat(second, 64)
		if err != nil {
			return fmt.Errorf("malformed interval endpoint %q", second)
		}
		if *minOut != nil && **minOut >= v {
			return fmt.Errorf("interval endpoints must increase")
		}
		*maxOut = &v
	}
	return nil
}
