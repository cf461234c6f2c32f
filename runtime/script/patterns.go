package script

import (
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// bindingElement parses a binding target and, in typed mode when allowed, a
// trailing type annotation.
func (g *Grammar) bindingElement(allowType bool) bool {
	if !g.bindingTarget() {
		return false
	}
	if allowType && g.typed && g.b.At(lexer.COLON) {
		g.typeAnnotation()
	}
	return true
}

// bindingTarget parses an identifier, object pattern or array pattern.
// A plain identifier is consumed without a node of its own.
func (g *Grammar) bindingTarget() bool {
	switch {
	case isIdentifier(g.b.TokenType()):
		g.b.Advance()
		return true
	case g.b.At(lexer.LBRACE):
		g.objectPattern()
		return true
	case g.b.At(lexer.LBRACKET):
		g.arrayPattern()
		return true
	}
	g.b.Error(MsgPatternExpected)
	return false
}

func (g *Grammar) objectPattern() {
	b := g.b
	m := b.Mark()
	b.Advance() // {
	for !g.atStop() {
		if b.At(lexer.ELLIPSIS) {
			g.restElement()
		} else if !g.patternProperty() {
			g.recoverTo(lexer.COMMA, lexer.RBRACE)
		}
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.RBRACE)
	b.Done(m, builder.KindObjectPattern)
}

// patternProperty parses "key", "key = default", "key: target" or
// "key: target = default".
func (g *Grammar) patternProperty() bool {
	b := g.b
	m := b.Mark()
	shorthand := isIdentifier(b.TokenType())
	if !g.propertyKey() {
		b.Drop(m)
		return false
	}
	if b.At(lexer.COLON) {
		b.Advance()
		g.bindingTarget()
	} else if !shorthand {
		b.Error("expected ':'")
	}
	if b.At(lexer.EQ) {
		g.defaultValue()
	}
	b.Done(m, builder.KindPatternProperty)
	return true
}

func (g *Grammar) arrayPattern() {
	b := g.b
	m := b.Mark()
	b.Advance() // [
	for !g.atStop() {
		switch {
		case b.At(lexer.COMMA):
			// elision
		case b.At(lexer.ELLIPSIS):
			g.restElement()
		default:
			if !g.bindingTarget() {
				g.recoverTo(lexer.COMMA, lexer.RBRACKET)
			} else if b.At(lexer.EQ) {
				g.defaultValue()
			}
		}
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.RBRACKET)
	b.Done(m, builder.KindArrayPattern)
}

func (g *Grammar) restElement() {
	m := g.b.Mark()
	g.b.Advance() // ...
	g.bindingTarget()
	g.b.Done(m, builder.KindRestElement)
}

func (g *Grammar) defaultValue() {
	m := g.b.Mark()
	g.b.Advance() // =
	g.AssignmentExpression()
	g.b.Done(m, builder.KindDefaultValue)
}
