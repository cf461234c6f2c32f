package script

import (
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// blockStatement parses the body of an arrow or function expression. Only
// the statements that commonly appear in inline handlers are recognised;
// anything else is skipped to the next statement boundary with an error.
func (g *Grammar) blockStatement() {
	b := g.b
	m := b.Mark()
	b.Advance() // {
	for !b.At(lexer.RBRACE) && !b.AtAny(lexer.EOF, lexer.END_MUSTACHE) {
		start := b.Pos()
		g.statement()
		if b.Pos() == start {
			b.Advance() // already reported
		}
	}
	g.expect(lexer.RBRACE)
	b.Done(m, builder.KindBlockStatement)
}

func (g *Grammar) statement() {
	b := g.b
	switch {
	case b.At(lexer.SEMICOLON):
		b.Advance() // empty statement

	case b.At(lexer.LBRACE):
		g.blockStatement()

	case b.AtWord("return"):
		m := b.Mark()
		b.Advance()
		if !b.AtAny(lexer.SEMICOLON, lexer.RBRACE) && !b.NewlineBefore() && !g.atStop() {
			g.Expression()
		}
		g.semicolon()
		b.Done(m, builder.KindReturnStatement)

	case b.At(lexer.CONST), b.AtWord("let"), b.AtWord("var"):
		g.declarationStatement()

	case b.At(lexer.IF):
		m := b.Mark()
		b.Advance()
		if g.expect(lexer.LPAREN) {
			g.Expression()
			g.expect(lexer.RPAREN)
		}
		g.statement()
		if b.At(lexer.ELSE) {
			b.Advance()
			g.statement()
		}
		b.Done(m, builder.KindIfStatement)

	default:
		m := b.Mark()
		if !g.Expression() {
			b.Drop(m)
			return
		}
		g.semicolon()
		b.Done(m, builder.KindExpressionStatement)
	}
}

// declarationStatement parses "const|let|var a = 1, {b} = c".
func (g *Grammar) declarationStatement() {
	b := g.b
	m := b.Mark()
	b.Advance() // const, let or var
	for {
		v := b.Mark()
		if !g.bindingElement(true) {
			b.Drop(v)
			break
		}
		if b.At(lexer.EQ) {
			b.Advance()
			g.AssignmentExpression()
		}
		b.Done(v, builder.KindVariable)
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.semicolon()
	b.Done(m, builder.KindVarDeclaration)
}

// semicolon consumes an optional statement terminator. Automatic semicolon
// insertion is approximated: a missing ";" is accepted before "}", at the
// end of the region or after a line break.
func (g *Grammar) semicolon() {
	b := g.b
	switch {
	case b.At(lexer.SEMICOLON):
		b.Advance()
	case b.At(lexer.RBRACE), g.atStop(), b.NewlineBefore():
	default:
		b.Errorf("expected ';'")
	}
}
