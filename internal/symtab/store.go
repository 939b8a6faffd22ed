package symtab

import (
	"fmt"
	"strings"
)

// reservedChars are forbidden anywhere in a unit/prefix/function/alias
// name.
const reservedChars = "~;+-*/|^)"

// builtinFuncNames collides with the parser's built-in math functions and
// may not be redefined as ordinary unit/function names.
var builtinFuncNames = map[string]bool{
	"sin": true, "cos": true, "tan": true, "ln": true, "log": true,
	"exp": true, "sqrt": true, "cuberoot": true, "per": true,
	"sinh": true, "cosh": true, "tanh": true,
	"asin": true, "acos": true, "atan": true,
	"asinh": true, "acosh": true, "atanh": true,
}

// Store is the process-wide (per-Engine) symbol store: four keyed
// collections plus a by-first-byte prefix index accelerating longest-
// prefix-of-input search.
type Store struct {
	units     map[string]*UnitEntry
	prefixes  map[string]*PrefixEntry
	funcs     map[string]*Function
	aliases   map[string]*Alias
	prefixIdx map[byte][]*PrefixEntry
}

// New returns an empty symbol store.
func New() *Store {
	return &Store{
		units:     make(map[string]*UnitEntry),
		prefixes:  make(map[string]*PrefixEntry),
		funcs:     make(map[string]*Function),
		aliases:   make(map[string]*Alias),
		prefixIdx: make(map[byte][]*PrefixEntry),
	}
}

// ValidateName checks name against the reserved-character, leading-digit,
// and builtin-collision rules. It does not check for
// trailing-dot/digit subscript rules beyond the bare digit check, which
// is enforced by the loader (it alone knows about "_subscript" syntax).
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.ContainsAny(name, reservedChars) {
		return fmt.Errorf("name %q contains a reserved character", name)
	}
	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("name %q starts with a digit", name)
	}
	if builtinFuncNames[strings.ToLower(name)] {
		return fmt.Errorf("name %q collides with a built-in function", name)
	}
	return nil
}

// PutUnit inserts or (silently, unless warn is requested by the caller)
// replaces a unit entry. Returns true if this replaced an existing entry.
func (s *Store) PutUnit(e *UnitEntry) (replaced bool) {
	_, replaced = s.units[e.Name]
	s.units[e.Name] = e
	return replaced
}

// GetUnit looks up a unit by exact, case-sensitive name.
func (s *Store) GetUnit(name string) (*UnitEntry, bool) {
	e, ok := s.units[name]
	return e, ok
}

// DeleteUnit removes a unit, if present.
func (s *Store) DeleteUnit(name string) {
	delete(s.units, name)
}

// UnitNames returns every registered unit name, unordered.
func (s *Store) UnitNames() []string {
	out := make([]string, 0, len(s.units))
	for n := range s.units {
		out = append(out, n)
	}
	return out
}

// PutPrefix inserts or replaces a prefix entry (name without trailing "-"),
// maintaining the first-byte index used by longest-prefix search.
func (s *Store) PutPrefix(e *PrefixEntry) (replaced bool) {
	if _, exists := s.prefixes[e.Name]; exists {
		replaced = true
		s.removeFromIndex(e.Name)
	}
	s.prefixes[e.Name] = e
	if len(e.Name) > 0 {
		c := e.Name[0]
		s.prefixIdx[c] = append(s.prefixIdx[c], e)
	}
	return replaced
}

func (s *Store) removeFromIndex(name string) {
	if name == "" {
		return
	}
	c := name[0]
	list := s.prefixIdx[c]
	for i, p := range list {
		if p.Name == name {
			s.prefixIdx[c] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// GetPrefix looks up a prefix by exact name.
func (s *Store) GetPrefix(name string) (*PrefixEntry, bool) {
	e, ok := s.prefixes[name]
	return e, ok
}

// PrefixCandidates returns every prefix whose name starts with the same
// byte as tok's first byte, for longest-match scanning. The reducer does
// not use it; it probes GetPrefix with each leading substring of tok.
// Results are not sorted by length; callers sort/compare as needed.
func (s *Store) PrefixCandidates(tok string) []*PrefixEntry {
	if tok == "" {
		return nil
	}
	return s.prefixIdx[tok[0]]
}

// PutFunc inserts or replaces a function entry.
func (s *Store) PutFunc(f *Function) (replaced bool) {
	_, replaced = s.funcs[f.Name]
	s.funcs[f.Name] = f
	return replaced
}

// GetFunc looks up a function by exact name.
func (s *Store) GetFunc(name string) (*Function, bool) {
	f, ok := s.funcs[name]
	return f, ok
}

// FuncNames returns every registered function name, unordered.
func (s *Store) FuncNames() []string {
	out := make([]string, 0, len(s.funcs))
	for n := range s.funcs {
		out = append(out, n)
	}
	return out
}

// PutAlias inserts or replaces an alias entry.
func (s *Store) PutAlias(a *Alias) (replaced bool) {
	_, replaced = s.aliases[a.Name]
	s.aliases[a.Name] = a
	return replaced
}

// GetAlias looks up an alias by exact name.
func (s *Store) GetAlias(name string) (*Alias, bool) {
	a, ok := s.aliases[name]
	return a, ok
}

// AliasNames returns every registered alias name, unordered.
func (s *Store) AliasNames() []string {
	out := make([]string, 0, len(s.aliases))
	for n := range s.aliases {
		out = append(out, n)
	}
	return out
}
