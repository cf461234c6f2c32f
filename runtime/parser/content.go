package parser

import (
	"fmt"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/suggest"
)

// atTag describes one "{@name ...}" special tag.
type atTag struct {
	name  string
	token lexer.TokenType
	kind  builder.NodeKind
	body  func(r *regionParser)
	since string
}

var atTags = []atTag{
	{name: "html", token: lexer.HTML, kind: builder.KindHtmlTag, body: (*regionParser).expressionHeader},
	{name: "debug", token: lexer.DEBUG, kind: builder.KindDebugTag, body: (*regionParser).debugTag},
	{name: "render", token: lexer.RENDER, kind: builder.KindRenderTag, body: (*regionParser).expressionHeader, since: "v5.0.0"},
	{name: "const", token: lexer.CONST, kind: builder.KindConstTag, body: (*regionParser).constTag},
}

var atTagNames = func() []string {
	names := make([]string, len(atTags))
	for i, t := range atTags {
		names[i] = t.name
	}
	return names
}()

// contentExpression parses "{expr}" and "{@tag ...}" between tags. Block
// sigils that Classify did not recognise end up here too and are reported
// as invalid block names.
func (r *regionParser) contentExpression() {
	b := r.b
	switch {
	case b.At(lexer.AT):
		r.atTag()
		return
	case b.AtAny(lexer.SHARP, lexer.COLON, lexer.SLASH):
		r.invalidBlock()
		return
	}
	r.g.Expression()
}

func (r *regionParser) atTag() {
	b := r.b
	m := b.Mark()
	b.Advance() // @
	if b.AfterWhitespace() {
		b.Error("whitespace is not allowed after '@'")
	}
	for i := range atTags {
		t := &atTags[i]
		if !b.AtWord(t.name) {
			continue
		}
		b.Remap(t.token)
		b.Advance()
		if t.since != "" && versionBefore(r.cfg.svelteVersion, t.since) {
			b.Errorf("{@%s} requires Svelte %s or newer", t.name, majorOf(t.since))
		}
		t.body(r)
		b.Done(m, t.kind)
		return
	}

	word := ""
	if b.At(lexer.IDENTIFIER) || b.Current().Type.IsKeyword() {
		word = b.TokenText()
		b.Advance()
	}
	b.DoneErrorWithSuggestion(m, "expected html, debug, render or const", suggest.Hint(word, atTagNames))
	if !b.AtAny(lexer.END_MUSTACHE, lexer.EOF) {
		r.g.Expression()
	}
}

// debugTag parses "a, b, c".
func (r *regionParser) debugTag() {
	b := r.b
	for b.At(lexer.IDENTIFIER) {
		b.Advance()
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
		if !b.At(lexer.IDENTIFIER) {
			b.Error("expected an identifier")
			r.failed = true
			return
		}
	}
	if !b.AtAny(lexer.END_MUSTACHE, lexer.EOF) {
		r.fail("{@debug} only accepts identifiers separated by commas", "{@debug user, count}")
	}
}

// constTag parses "x = value", optionally wrapped in parentheses.
func (r *regionParser) constTag() {
	b := r.b
	paren := b.At(lexer.LPAREN)
	if paren {
		b.Advance()
	}
	if !r.g.VarDeclaration(true) {
		r.failed = true
		return
	}
	if paren {
		if !b.At(lexer.RPAREN) {
			b.Error("expected ')'")
			r.failed = true
			return
		}
		b.Advance()
	}
}

// invalidBlock reports "{#name}", "{:name}" or "{/name}" with an unknown
// name and parses what follows as an expression.
func (r *regionParser) invalidBlock() {
	b := r.b
	m := b.Mark()
	sigil := b.Current().Type
	b.Advance()
	word := ""
	if b.At(lexer.IDENTIFIER) || b.Current().Type.IsKeyword() {
		word = b.TokenText()
		b.Advance()
	}
	names := blockNames
	if sigil == lexer.COLON {
		names = clauseNames
	}
	hint := suggest.Hint(word, names)
	if hint == "" {
		hint = fmt.Sprintf("valid names are %s", formatNameList(names))
	}
	b.DoneErrorWithSuggestion(m, "invalid block name", hint)
	if !b.AtAny(lexer.END_MUSTACHE, lexer.EOF) {
		r.g.Expression()
	}
}

// rejectAtTag reports "{@html x}" and friends where only an expression is
// allowed. It consumes the sigil and the word.
func (r *regionParser) rejectAtTag() {
	b := r.b
	if !b.At(lexer.AT) {
		return
	}
	m := b.Mark()
	b.Advance()
	if b.At(lexer.IDENTIFIER) || b.Current().Type.IsKeyword() {
		b.Advance()
	}
	b.DoneError(m, "modifiers are not allowed here")
}

// attributeExpression parses the value of name={expr}.
func (r *regionParser) attributeExpression() {
	r.rejectAtTag()
	if r.b.AtAny(lexer.EOF) {
		return
	}
	r.g.Expression()
}

// attributeParameter parses the value of let:name={pattern}.
func (r *regionParser) attributeParameter() {
	r.rejectAtTag()
	if r.b.AtAny(lexer.EOF) {
		return
	}
	if !r.g.DestructuringPattern(builder.KindParameter, true) {
		r.failed = true
	}
}

// spreadOrShorthand parses "{...props}" or "{name}" in tag position.
func (r *regionParser) spreadOrShorthand() {
	b := r.b
	if b.At(lexer.ELLIPSIS) {
		m := b.Mark()
		b.Advance()
		r.g.AssignmentExpression()
		b.Done(m, builder.KindSpread)
		return
	}
	r.g.AssignmentExpression()
}

func formatNameList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return joinAlternatives(quoted)
}
