package directives

import (
	"sort"

	"github.com/aledsdavies/svelteparse/runtime/suggest"
)

// Scope is a set of names visible to directive specifiers: script
// declarations plus template bindings.
type Scope struct {
	names map[string]struct{}
}

// NewScope returns a scope containing names.
func NewScope(names ...string) *Scope {
	s := &Scope{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add declares name. Empty names are ignored.
func (s *Scope) Add(name string) {
	if name != "" {
		s.names[name] = struct{}{}
	}
}

// Has reports whether name is declared. A nil scope has no names.
func (s *Scope) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Names returns the declared names in sorted order.
func (s *Scope) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolution is the outcome of applying a directive's specifier strategy.
type Resolution struct {
	Strategy Strategy
	Name     string
	// Resolved is true when a referenced name is in scope, or when the
	// strategy does not reference the scope at all.
	Resolved bool
	// Declares is the binding introduced by the directive, if any.
	Declares   string
	Suggestion string
}

// Resolve applies the strategy selected by the attribute form to the first
// specifier of n.
func Resolve(n Name, shorthand bool, scope *Scope) Resolution {
	r := Resolution{
		Strategy: n.Descriptor.Strategy(shorthand),
		Name:     n.Specifier(),
		Resolved: true,
	}
	switch r.Strategy {
	case StrategyReferenceScope:
		if r.Name != "" && !scope.Has(r.Name) {
			r.Resolved = false
			r.Suggestion = suggest.Closest(r.Name, scope.Names())
		}
	case StrategyDeclareBinding:
		r.Declares = r.Name
	}
	return r
}
