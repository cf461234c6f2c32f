package directives

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/suggest"
)

// Problem is a diagnostic about a directive name. Span is relative to the
// start of the attribute name.
type Problem struct {
	Severity   builder.Severity
	Message    string
	Span       lexer.Span
	Suggestion string
}

// ValidateOptions tunes Validate.
type ValidateOptions struct {
	// StrictTargets reports a directive on the wrong kind of tag as an
	// error rather than a warning.
	StrictTargets bool
}

// Validate checks a split directive name placed on tag. shorthand is true
// when the attribute has no value. Problems never prevent the directive node
// from being built.
func Validate(n Name, tag string, shorthand bool, opts ValidateOptions) []Problem {
	d := n.Descriptor
	var problems []Problem
	report := func(sev builder.Severity, span lexer.Span, suggestion, format string, args ...any) {
		problems = append(problems, Problem{
			Severity:   sev,
			Message:    fmt.Sprintf(format, args...),
			Span:       span,
			Suggestion: suggestion,
		})
	}

	nameSpan := lexer.Span{Start: 0, End: len(n.Raw)}

	if n.Specifier() == "" {
		report(builder.SeverityError, nameSpan, "",
			"'%s' directive needs a name after '%c'", d.Prefix, Separator)
	}
	for _, extra := range n.Specifiers[min(1, len(n.Specifiers)):] {
		report(builder.SeverityError, extra.Span, "",
			"unexpected '%c%s' in '%s' directive", Separator, extra.Text, d.Prefix)
	}

	if len(n.Modifiers) > 0 && len(d.Modifiers) == 0 {
		report(builder.SeverityError, modifierSpan(n), "",
			"'%s' directive does not accept modifiers", d.Prefix)
	} else {
		seen := make(map[string]bool, len(n.Modifiers))
		for _, m := range n.Modifiers {
			switch {
			case m.Text == "":
				report(builder.SeverityError, m.Span, "", "empty modifier in '%s' directive", d.Prefix)
			case !d.AcceptsModifier(m.Text):
				report(builder.SeverityError, m.Span, suggest.Hint(m.Text, d.Modifiers),
					"unknown modifier '%s' for '%s' directive", m.Text, d.Prefix)
			case seen[m.Text]:
				report(builder.SeverityError, m.Span, "", "duplicate modifier '%s'", m.Text)
			}
			seen[m.Text] = true
		}
		if seen["passive"] && seen["nonpassive"] {
			report(builder.SeverityError, modifierSpan(n), "",
				"the 'passive' and 'nonpassive' modifiers cannot be used together")
		}
	}

	if tag != "" && !d.Allows(tag) {
		sev := builder.SeverityWarning
		if opts.StrictTargets {
			sev = builder.SeverityError
		}
		if d.Target.Allows(tag) {
			report(sev, n.Prefix.Span, "", "'%s' directive is not allowed on <%s>", d.Prefix, tag)
		} else {
			kind := "element"
			if IsComponent(tag) {
				kind = "component"
			}
			report(sev, n.Prefix.Span, "", "'%s' directive cannot be used on %s <%s>", d.Prefix, kind, tag)
		}
	}

	if spec := n.Specifier(); shorthand && spec != "" {
		switch d.Shorthand {
		case StrategyReferenceScope, StrategyDeclareBinding:
			if !lexer.IsIdentifierName(spec) {
				report(builder.SeverityError, n.Specifiers[0].Span, "",
					"'%s' is not a valid identifier; write %s={...}", spec, strings.Join(specTexts(n), string(Separator)))
			}
		}
	}

	return problems
}

func modifierSpan(n Name) lexer.Span {
	first, last := n.Modifiers[0], n.Modifiers[len(n.Modifiers)-1]
	return lexer.Span{Start: first.Span.Start - 1, End: last.Span.End}
}

func specTexts(n Name) []string {
	out := []string{n.Prefix.Text}
	for _, s := range n.Specifiers {
		out = append(out, s.Text)
	}
	return out
}

// ModifierCompletions ranks the modifiers of d against a typed fragment.
func ModifierCompletions(d *Descriptor, typed string) []string {
	return suggest.Rank(typed, d.Modifiers)
}
