package script

import (
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Type parses a TypeScript type. It is only reachable in typed mode; an
// untyped grammar reports "type expected" and consumes nothing.
func (g *Grammar) Type() bool {
	if !g.typed {
		g.b.Error(MsgTypeExpected)
		return false
	}
	return g.unionType()
}

func (g *Grammar) typeAnnotation() {
	m := g.b.Mark()
	g.b.Advance() // :
	g.Type()
	g.b.Done(m, builder.KindTypeAnnotation)
}

func (g *Grammar) unionType() bool {
	return g.typeList(lexer.PIPE, builder.KindUnionType, g.intersectionType)
}

func (g *Grammar) intersectionType() bool {
	return g.typeList(lexer.AMP, builder.KindIntersectionType, g.typeOperator)
}

// typeList parses operand (sep operand)* with an optional leading separator.
func (g *Grammar) typeList(sep lexer.TokenType, kind builder.NodeKind, operand func() bool) bool {
	b := g.b
	m := b.Mark()
	leading := b.At(sep)
	if leading {
		b.Advance()
	}
	if !operand() {
		b.Drop(m)
		return false
	}
	if !b.At(sep) && !leading {
		b.Drop(m)
		return true
	}
	for b.At(sep) {
		b.Advance()
		if !operand() {
			break
		}
	}
	b.Done(m, kind)
	return true
}

func (g *Grammar) typeOperator() bool {
	b := g.b
	switch {
	case b.AtWord("keyof"), b.AtWord("unique"), b.AtWord("readonly"):
		if b.AtWord("keyof") {
			b.Remap(lexer.KEYOF)
		}
		m := b.Mark()
		b.Advance()
		g.typeOperator()
		b.Done(m, builder.KindTypeOperator)
		return true
	case b.At(lexer.TYPEOF):
		m := b.Mark()
		b.Advance()
		g.entityName()
		b.Done(m, builder.KindTypeQuery)
		return true
	}
	return g.arrayType()
}

// arrayType parses a primary type followed by any number of "[]" or
// indexed-access suffixes.
func (g *Grammar) arrayType() bool {
	b := g.b
	m := b.Mark()
	if !g.primaryType() {
		b.Drop(m)
		return false
	}
	for b.At(lexer.LBRACKET) && !b.NewlineBefore() {
		b.Advance()
		if !b.At(lexer.RBRACKET) {
			g.unionType()
		}
		g.expect(lexer.RBRACKET)
		b.Done(m, builder.KindArrayType)
		m = b.Precede(m)
	}
	b.Drop(m)
	return true
}

func (g *Grammar) primaryType() bool {
	b := g.b
	switch t := b.TokenType(); {
	case isIdentifier(t), t == lexer.VOID, t == lexer.THIS:
		m := b.Mark()
		g.entityName()
		if b.At(lexer.LT) {
			g.typeArguments()
		}
		b.Done(m, builder.KindTypeReference)

	case t == lexer.STRING, t == lexer.NUMBER, t == lexer.TRUE, t == lexer.FALSE,
		t == lexer.NULL, t == lexer.TEMPLATE:
		m := b.Mark()
		b.Advance()
		b.Done(m, builder.KindLiteralType)

	case t == lexer.MINUS && b.Peek(1).Type == lexer.NUMBER:
		m := b.Mark()
		b.Advance()
		b.Advance()
		b.Done(m, builder.KindLiteralType)

	case t == lexer.LBRACE:
		g.objectType()

	case t == lexer.LBRACKET:
		g.tupleType()

	case t == lexer.LPAREN:
		if g.atFunctionType() {
			g.functionType()
		} else {
			m := b.Mark()
			b.Advance()
			g.unionType()
			g.expect(lexer.RPAREN)
			b.Done(m, builder.KindParenthesizedType)
		}

	case t == lexer.LT, t == lexer.NEW:
		g.functionType()

	default:
		b.Error(MsgTypeExpected)
		return false
	}
	return true
}

// entityName parses a possibly qualified name such as svelte.Snippet.
func (g *Grammar) entityName() {
	b := g.b
	if isIdentifier(b.TokenType()) || b.AtAny(lexer.VOID, lexer.THIS) {
		b.Advance()
	} else {
		b.Error(MsgIdentifierExpected)
		return
	}
	for b.At(lexer.DOT) {
		b.Advance()
		g.propertyName()
	}
}

func (g *Grammar) typeArguments() {
	b := g.b
	m := b.Mark()
	b.Advance() // <
	for !b.At(lexer.GT) && !g.atStop() {
		if !g.unionType() {
			g.recoverTo(lexer.COMMA, lexer.GT)
		}
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.GT)
	b.Done(m, builder.KindTypeArguments)
}

// typeParameters parses "<T extends U = V, ...>".
func (g *Grammar) typeParameters() {
	b := g.b
	m := b.Mark()
	b.Advance() // <
	for !b.At(lexer.GT) && !g.atStop() {
		p := b.Mark()
		if b.AtWord("const") {
			b.Advance()
		}
		if !isIdentifier(b.TokenType()) {
			b.Drop(p)
			b.Error(MsgIdentifierExpected)
			g.recoverTo(lexer.COMMA, lexer.GT)
		} else {
			b.Advance()
			if b.AtWord("extends") {
				b.Advance()
				g.Type()
			}
			if b.At(lexer.EQ) {
				b.Advance()
				g.Type()
			}
			b.Done(p, builder.KindTypeParameter)
		}
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.GT)
	b.Done(m, builder.KindTypeParameters)
}

// objectType parses "{ a: T; b?: U, [k: string]: V; m(): W }".
func (g *Grammar) objectType() {
	b := g.b
	m := b.Mark()
	b.Advance() // {
members:
	for !g.atStop() {
		p := b.Mark()
		if b.AtWord("readonly") && isIdentifier(b.Peek(1).Type) {
			b.Advance()
		}
		switch {
		case b.At(lexer.LBRACKET):
			// index signature
			b.Advance()
			if isIdentifier(b.TokenType()) {
				b.Advance()
			}
			if b.At(lexer.COLON) {
				g.typeAnnotation()
			}
			g.expect(lexer.RBRACKET)
		case b.At(lexer.LPAREN) || b.At(lexer.LT):
			// call signature
		default:
			if !g.propertyKey() {
				b.Drop(p)
				g.recoverTo(lexer.SEMICOLON, lexer.COMMA, lexer.RBRACE)
				if !b.AtAny(lexer.SEMICOLON, lexer.COMMA) {
					break members
				}
				b.Advance()
				continue
			}
		}
		if b.At(lexer.QUESTION) {
			b.Advance()
		}
		if b.At(lexer.LPAREN) || b.At(lexer.LT) {
			g.functionSignature()
		} else if b.At(lexer.COLON) {
			g.typeAnnotation()
		}
		b.Done(p, builder.KindPropertySignature)
		if !b.AtAny(lexer.SEMICOLON, lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.RBRACE)
	b.Done(m, builder.KindObjectType)
}

func (g *Grammar) tupleType() {
	b := g.b
	m := b.Mark()
	b.Advance() // [
	for !g.atStop() {
		if b.At(lexer.ELLIPSIS) {
			b.Advance()
		}
		// named member: "name: T" or "name?: T"
		if isIdentifier(b.TokenType()) && (b.Peek(1).Type == lexer.COLON ||
			b.Peek(1).Type == lexer.QUESTION && b.Peek(2).Type == lexer.COLON) {
			b.Advance()
			if b.At(lexer.QUESTION) {
				b.Advance()
			}
			b.Advance() // :
		}
		if !g.unionType() {
			g.recoverTo(lexer.COMMA, lexer.RBRACKET)
		}
		if b.At(lexer.QUESTION) {
			b.Advance()
		}
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.RBRACKET)
	b.Done(m, builder.KindTupleType)
}

// atFunctionType reports whether the "(" at the cursor opens a function
// type's parameter list rather than a parenthesized type.
func (g *Grammar) atFunctionType() bool {
	end, ok := g.matchingParen(0)
	return ok && g.b.Peek(end+1).Type == lexer.ARROW
}

// functionType parses "new? <T>? (params) => R".
func (g *Grammar) functionType() {
	b := g.b
	m := b.Mark()
	if b.At(lexer.NEW) {
		b.Advance()
	}
	if b.At(lexer.LT) {
		g.typeParameters()
	}
	g.parameterList()
	if g.expect(lexer.ARROW) {
		g.Type()
	}
	b.Done(m, builder.KindFunctionType)
}
