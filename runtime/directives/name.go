package directives

import (
	"strings"

	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Segment is one part of a directive name. Span is relative to the start of
// the attribute name.
type Segment struct {
	Text string
	Span lexer.Span
}

func (s Segment) String() string { return s.Text }

// Name is a directive attribute name split into its parts:
//
//	on:click|once|preventDefault
//	^^ ^^^^^ ^^^^ ^^^^^^^^^^^^^^
//	prefix specifier  modifiers
type Name struct {
	Raw        string
	Descriptor *Descriptor
	Prefix     Segment
	Specifiers []Segment
	Modifiers  []Segment
}

// Specifier returns the first specifier, or "" when there is none.
func (n Name) Specifier() string {
	if len(n.Specifiers) == 0 {
		return ""
	}
	return n.Specifiers[0].Text
}

// HasModifier reports whether the modifier list contains m.
func (n Name) HasModifier(m string) bool {
	for _, s := range n.Modifiers {
		if s.Text == m {
			return true
		}
	}
	return false
}

// Split parses an attribute name as a directive. It returns false when the
// name has no separator or its prefix is not a known directive, in which
// case the attribute is a plain attribute.
func Split(attr string) (Name, bool) {
	sep := strings.IndexByte(attr, Separator)
	if sep < 0 {
		return Name{}, false
	}
	d, ok := Lookup(attr[:sep])
	if !ok {
		return Name{}, false
	}

	n := Name{
		Raw:        attr,
		Descriptor: d,
		Prefix:     Segment{Text: attr[:sep], Span: lexer.Span{Start: 0, End: sep}},
	}

	rest := attr[sep+1:]
	base := sep + 1
	specs := rest
	if bar := strings.IndexByte(rest, ModifierSeparator); bar >= 0 {
		specs = rest[:bar]
		n.Modifiers = segments(rest[bar+1:], ModifierSeparator, base+bar+1)
	}
	n.Specifiers = segments(specs, Separator, base)
	return n, true
}

// segments splits s on sep, keeping empty parts so that the validator can
// report them.
func segments(s string, sep byte, base int) []Segment {
	var out []Segment
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != sep {
			continue
		}
		out = append(out, Segment{
			Text: s[start:i],
			Span: lexer.Span{Start: base + start, End: base + i},
		})
		start = i + 1
	}
	return out
}
