// Package script implements the host expression grammar used inside
// mustache regions: JavaScript expressions, destructuring patterns, variable
// and function declarations, and the TypeScript extensions selected by the
// language mode.
//
// Every entry point runs on a shared *builder.Builder, starts at the current
// cursor and never closes a marker opened by its caller. On failure an entry
// point reports a diagnostic at the current token and returns false without
// consuming it.
package script

import (
	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Messages shared with callers that assert on them.
const (
	MsgExpressionExpected = "expression expected"
	MsgPatternExpected    = "binding pattern expected"
	MsgTypeExpected       = "type expected"
	MsgIdentifierExpected = "identifier expected"
)

// Grammar parses host-language constructs for one language mode.
type Grammar struct {
	b     *builder.Builder
	typed bool
}

// New binds a grammar to b. mode must be decided; the region parser checks
// this before any grammar is created.
func New(b *builder.Builder, mode lexer.LanguageMode) *Grammar {
	invariant.NotNil(b, "builder")
	invariant.Precondition(mode != lexer.ModeUnset, "host grammar needs a language mode")
	return &Grammar{b: b, typed: mode.Typed()}
}

// Typed reports whether TypeScript syntax is accepted.
func (g *Grammar) Typed() bool { return g.typed }

// Expression parses a full expression, including comma sequences.
func (g *Grammar) Expression() bool {
	m := g.b.Mark()
	if !g.AssignmentExpression() {
		g.b.Drop(m)
		return false
	}
	if !g.b.At(lexer.COMMA) {
		g.b.Drop(m)
		return true
	}
	for g.b.At(lexer.COMMA) {
		g.b.Advance()
		if !g.AssignmentExpression() {
			break
		}
	}
	g.b.Done(m, builder.KindCommaExpression)
	return true
}

// ParenthesizedExpression parses "(" Expression ")".
func (g *Grammar) ParenthesizedExpression() bool {
	if !g.b.At(lexer.LPAREN) {
		g.b.Errorf("expected '('")
		return false
	}
	m := g.b.Mark()
	g.b.Advance()
	g.Expression()
	g.expect(lexer.RPAREN)
	g.b.Done(m, builder.KindParenthesizedExpression)
	return true
}

// DestructuringPattern parses a binding pattern and closes it as kind. When
// allowType is set and the grammar is typed, a ": Type" annotation may follow.
func (g *Grammar) DestructuringPattern(kind builder.NodeKind, allowType bool) bool {
	m := g.b.Mark()
	if !g.bindingElement(allowType) {
		g.b.Drop(m)
		return false
	}
	g.b.Done(m, kind)
	return true
}

// DestructuringPatternNoMarker parses a binding pattern without wrapping it.
// The returned kind is what a caller should close its own marker with.
func (g *Grammar) DestructuringPatternNoMarker(allowType bool) (builder.NodeKind, bool) {
	return builder.KindParameter, g.bindingElement(allowType)
}

// VarDeclaration parses "pattern = initializer" as used by {@const}.
func (g *Grammar) VarDeclaration(allowType bool) bool {
	m := g.b.Mark()
	v := g.b.Mark()
	if !g.bindingElement(allowType) {
		g.b.Drop(v)
		g.b.Drop(m)
		return false
	}
	if g.expect(lexer.EQ) {
		g.AssignmentExpression()
	}
	g.b.Done(v, builder.KindVariable)
	g.b.Done(m, builder.KindVarDeclaration)
	return true
}

// FunctionDeclaration parses a function header without a body: name, type
// parameters, parameter list and return type.
func (g *Grammar) FunctionDeclaration() bool {
	if !g.b.At(lexer.IDENTIFIER) {
		g.b.Error(MsgIdentifierExpected)
		return false
	}
	m := g.b.Mark()
	g.b.Advance() // name
	g.functionSignature()
	g.b.Done(m, builder.KindFunctionDeclaration)
	return true
}

// functionSignature parses "<T>(params): R" after the function name.
func (g *Grammar) functionSignature() {
	if g.typed && g.b.At(lexer.LT) {
		g.typeParameters()
	}
	g.parameterList()
	if g.typed && g.b.At(lexer.COLON) {
		g.typeAnnotation()
	}
}

// expect consumes a token of type t or reports it as missing.
func (g *Grammar) expect(t lexer.TokenType) bool {
	if g.b.At(t) {
		g.b.Advance()
		return true
	}
	g.b.Errorf("expected '%s'", lexer.SymbolOf(t))
	return false
}

// atStop reports whether the cursor is at a token no construct can start
// with: the end of the region or a closing bracket.
func (g *Grammar) atStop() bool {
	return g.b.AtAny(lexer.EOF, lexer.END_MUSTACHE, lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE)
}

// adjacent reports whether the n-th token after the current one follows the
// previous one with no trivia in between.
func (g *Grammar) adjacent(n int) bool {
	prev := g.b.Peek(n - 1)
	next := g.b.Peek(n)
	return next.Position.Offset == prev.End()
}
