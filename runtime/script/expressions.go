package script

import (
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Binary operator precedence, lowest first. Zero means "not a binary operator".
const (
	precNone = iota
	precNullish
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
)

var binaryPrecedence = map[lexer.TokenType]int{
	lexer.NULLISH:    precNullish,
	lexer.OR_OR:      precLogicalOr,
	lexer.AND_AND:    precLogicalAnd,
	lexer.PIPE:       precBitOr,
	lexer.CARET:      precBitXor,
	lexer.AMP:        precBitAnd,
	lexer.EQ_EQ:      precEquality,
	lexer.NOT_EQ:     precEquality,
	lexer.EQ_EQ_EQ:   precEquality,
	lexer.NOT_EQ_EQ:  precEquality,
	lexer.LT:         precRelational,
	lexer.GT:         precRelational,
	lexer.LT_EQ:      precRelational,
	lexer.GT_EQ:      precRelational,
	lexer.INSTANCEOF: precRelational,
	lexer.IN:         precRelational,
	lexer.LSHIFT:     precShift,
	lexer.PLUS:       precAdditive,
	lexer.MINUS:      precAdditive,
	lexer.STAR:       precMultiplicative,
	lexer.SLASH:      precMultiplicative,
	lexer.PERCENT:    precMultiplicative,
	lexer.STAR_STAR:  precExponent,
}

// isIdentifier reports whether t can name a binding. Contextual keywords are
// identifiers even after a grammar has remapped them.
func isIdentifier(t lexer.TokenType) bool {
	return t == lexer.IDENTIFIER || (t >= lexer.EACH && t <= lexer.KEYOF)
}

// AssignmentExpression parses an assignment, an arrow function or anything
// of higher precedence.
func (g *Grammar) AssignmentExpression() bool {
	if g.atArrow() {
		return g.arrowFunction()
	}

	m := g.b.Mark()
	if !g.conditional() {
		g.b.Drop(m)
		return false
	}
	if n := g.assignmentOperator(); n > 0 {
		for ; n > 0; n-- {
			g.b.Advance()
		}
		g.AssignmentExpression() // right-associative
		g.b.Done(m, builder.KindAssignmentExpression)
		return true
	}
	g.b.Drop(m)
	return true
}

// assignmentOperator returns the number of tokens forming an assignment
// operator at the cursor. ">>=" and ">>>=" arrive as adjacent GT tokens
// followed by GT_EQ.
func (g *Grammar) assignmentOperator() int {
	if g.b.TokenType().IsAssignment() {
		return 1
	}
	if !g.b.At(lexer.GT) {
		return 0
	}
	for n := 1; n <= 2; n++ {
		next := g.b.Peek(n)
		if !g.adjacent(n) {
			return 0
		}
		if next.Type == lexer.GT_EQ {
			return n + 1
		}
		if next.Type != lexer.GT {
			return 0
		}
	}
	return 0
}

// conditional parses "test ? consequent : alternate".
func (g *Grammar) conditional() bool {
	m := g.b.Mark()
	if !g.binary(precNullish) {
		g.b.Drop(m)
		return false
	}
	if !g.b.At(lexer.QUESTION) {
		g.b.Drop(m)
		return true
	}
	g.b.Advance() // ?
	g.AssignmentExpression()
	if g.expect(lexer.COLON) {
		g.AssignmentExpression()
	}
	g.b.Done(m, builder.KindConditionalExpression)
	return true
}

// binaryOperator returns the precedence of the operator at the cursor and
// the number of tokens it spans.
func (g *Grammar) binaryOperator() (prec, width int) {
	t := g.b.TokenType()
	if t == lexer.GT && g.adjacent(1) && g.b.Peek(1).Type == lexer.GT {
		// >> or >>>, unless it is the start of a shift assignment
		if g.assignmentOperator() > 0 {
			return precNone, 0
		}
		if g.adjacent(2) && g.b.Peek(2).Type == lexer.GT {
			return precShift, 3
		}
		return precShift, 2
	}
	if p, ok := binaryPrecedence[t]; ok {
		return p, 1
	}
	if g.typed && (g.b.AtWord("as") || g.b.AtWord("satisfies")) {
		return precRelational, 1
	}
	return precNone, 0
}

// binary parses a left-associative chain of operators with precedence at
// least minPrec. Each completed operation is wrapped by preceding the
// marker of its left operand.
func (g *Grammar) binary(minPrec int) bool {
	m := g.b.Mark()
	if !g.unary() {
		g.b.Drop(m)
		return false
	}

	for {
		prec, width := g.binaryOperator()
		if prec == precNone || prec < minPrec {
			break
		}

		if g.typed && (g.b.AtWord("as") || g.b.AtWord("satisfies")) {
			kind := builder.KindAsExpression
			if g.b.AtWord("satisfies") {
				kind = builder.KindSatisfiesExpression
				g.b.Remap(lexer.SATISFIES)
			} else {
				g.b.Remap(lexer.AS)
			}
			g.b.Advance()
			if g.b.AtWord("const") {
				g.b.Advance() // as const
			} else {
				g.Type()
			}
			g.b.Done(m, kind)
			m = g.b.Precede(m)
			continue
		}

		for ; width > 0; width-- {
			g.b.Advance() // operator
		}
		next := prec + 1
		if prec == precExponent {
			next = prec // right-associative
		}
		g.binary(next)
		g.b.Done(m, builder.KindBinaryExpression)
		m = g.b.Precede(m)
	}

	g.b.Drop(m)
	return true
}

func (g *Grammar) unary() bool {
	switch g.b.TokenType() {
	case lexer.NOT, lexer.MINUS, lexer.PLUS, lexer.TILDE,
		lexer.TYPEOF, lexer.VOID, lexer.DELETE, lexer.AWAIT,
		lexer.PLUS_PLUS, lexer.MINUS_MINUS:
		m := g.b.Mark()
		g.b.Advance() // operator
		g.unary()
		g.b.Done(m, builder.KindUnaryExpression)
		return true
	}
	return g.postfix()
}

func (g *Grammar) postfix() bool {
	m := g.b.Mark()
	if !g.PrimaryExpression() {
		g.b.Drop(m)
		return false
	}
	if g.b.AtAny(lexer.PLUS_PLUS, lexer.MINUS_MINUS) && !g.b.NewlineBefore() {
		g.b.Advance()
		g.b.Done(m, builder.KindPostfixExpression)
		return true
	}
	g.b.Drop(m)
	return true
}

// PrimaryExpression parses a primary expression with its member, call,
// index and optional-chain suffixes. It never consumes a binary operator or
// a contextual keyword such as "as", which keeps it shallow enough for the
// each block header.
func (g *Grammar) PrimaryExpression() bool {
	m := g.b.Mark()
	if !g.primary() {
		g.b.Drop(m)
		return false
	}

	for {
		var kind builder.NodeKind
		switch {
		case g.b.At(lexer.DOT):
			g.b.Advance()
			g.propertyName()
			kind = builder.KindMemberExpression

		case g.b.At(lexer.QUESTION_DOT):
			g.b.Advance()
			switch {
			case g.b.At(lexer.LPAREN):
				g.arguments()
				kind = builder.KindCallExpression
			case g.b.At(lexer.LBRACKET):
				g.b.Advance()
				g.Expression()
				g.expect(lexer.RBRACKET)
				kind = builder.KindIndexExpression
			default:
				g.propertyName()
				kind = builder.KindMemberExpression
			}

		case g.b.At(lexer.LBRACKET):
			g.b.Advance()
			g.Expression()
			g.expect(lexer.RBRACKET)
			kind = builder.KindIndexExpression

		case g.b.At(lexer.LPAREN):
			g.arguments()
			kind = builder.KindCallExpression

		case g.typed && g.b.At(lexer.LT) && g.atTypeArgumentsCall():
			g.typeArguments()
			g.arguments()
			kind = builder.KindCallExpression

		case g.b.At(lexer.TEMPLATE):
			g.b.Advance() // tagged template
			kind = builder.KindCallExpression

		case g.typed && g.b.At(lexer.NOT) && !g.b.AfterWhitespace():
			g.b.Advance()
			kind = builder.KindNonNullExpression

		default:
			g.b.Drop(m)
			return true
		}
		g.b.Done(m, kind)
		m = g.b.Precede(m)
	}
}

// propertyName accepts any identifier-like token after "." including
// reserved words and private names.
func (g *Grammar) propertyName() {
	if g.b.At(lexer.SHARP) {
		g.b.Advance()
	}
	t := g.b.TokenType()
	if isIdentifier(t) || t.IsKeyword() {
		g.b.Advance()
		return
	}
	g.b.Error(MsgIdentifierExpected)
}

// atTypeArgumentsCall reports whether "<" starts explicit type arguments of a
// call, as in f<T>(x). Only simple argument lists are recognised.
func (g *Grammar) atTypeArgumentsCall() bool {
	depth := 0
	for n := 0; n < 64; n++ {
		switch g.b.Peek(n).Type {
		case lexer.LT:
			depth++
		case lexer.GT:
			depth--
			if depth == 0 {
				return g.b.Peek(n+1).Type == lexer.LPAREN
			}
		case lexer.IDENTIFIER, lexer.COMMA, lexer.DOT, lexer.LBRACKET, lexer.RBRACKET,
			lexer.PIPE, lexer.AMP, lexer.STRING, lexer.NUMBER, lexer.NULL, lexer.VOID:
		default:
			return false
		}
	}
	return false
}

func (g *Grammar) primary() bool {
	b := g.b
	switch t := b.TokenType(); {
	case isIdentifier(t), t == lexer.THIS:
		m := b.Mark()
		b.Advance()
		b.Done(m, builder.KindIdentifier)

	case t == lexer.NUMBER, t == lexer.STRING, t == lexer.TRUE, t == lexer.FALSE, t == lexer.NULL:
		m := b.Mark()
		b.Advance()
		b.Done(m, builder.KindLiteral)

	case t == lexer.TEMPLATE:
		m := b.Mark()
		b.Advance()
		b.Done(m, builder.KindTemplateLiteral)

	case t == lexer.LPAREN:
		if g.atArrow() {
			return g.arrowFunction()
		}
		return g.ParenthesizedExpression()

	case t == lexer.LBRACKET:
		g.arrayLiteral()

	case t == lexer.LBRACE:
		g.objectLiteral()

	case t == lexer.NEW:
		g.newExpression()

	case t == lexer.FUNCTION:
		g.functionExpression()

	default:
		b.Error(MsgExpressionExpected)
		return false
	}
	return true
}

func (g *Grammar) newExpression() {
	m := g.b.Mark()
	g.b.Advance() // new
	callee := g.b.Mark()
	if g.primary() {
		for g.b.At(lexer.DOT) {
			g.b.Advance()
			g.propertyName()
			g.b.Done(callee, builder.KindMemberExpression)
			callee = g.b.Precede(callee)
		}
	}
	g.b.Drop(callee)
	if g.typed && g.b.At(lexer.LT) {
		g.typeArguments()
	}
	if g.b.At(lexer.LPAREN) {
		g.arguments()
	}
	g.b.Done(m, builder.KindNewExpression)
}

func (g *Grammar) arguments() {
	m := g.b.Mark()
	g.b.Advance() // (
	for !g.b.At(lexer.RPAREN) && !g.atStop() {
		if g.b.At(lexer.ELLIPSIS) {
			s := g.b.Mark()
			g.b.Advance()
			g.AssignmentExpression()
			g.b.Done(s, builder.KindSpreadElement)
		} else if !g.AssignmentExpression() {
			break
		}
		if !g.b.At(lexer.COMMA) {
			break
		}
		g.b.Advance()
	}
	g.expect(lexer.RPAREN)
	g.b.Done(m, builder.KindArguments)
}

func (g *Grammar) arrayLiteral() {
	m := g.b.Mark()
	g.b.Advance() // [
	for !g.b.At(lexer.RBRACKET) && !g.atStop() {
		switch {
		case g.b.At(lexer.COMMA):
			// hole
		case g.b.At(lexer.ELLIPSIS):
			s := g.b.Mark()
			g.b.Advance()
			g.AssignmentExpression()
			g.b.Done(s, builder.KindSpreadElement)
		default:
			if !g.AssignmentExpression() {
				g.recoverTo(lexer.COMMA, lexer.RBRACKET)
			}
		}
		if !g.b.At(lexer.COMMA) {
			break
		}
		g.b.Advance()
	}
	g.expect(lexer.RBRACKET)
	g.b.Done(m, builder.KindArrayLiteral)
}

func (g *Grammar) objectLiteral() {
	m := g.b.Mark()
	g.b.Advance() // {
	for !g.atStop() {
		if !g.property() {
			g.recoverTo(lexer.COMMA, lexer.RBRACE)
		}
		if !g.b.At(lexer.COMMA) {
			break
		}
		g.b.Advance()
	}
	g.expect(lexer.RBRACE)
	g.b.Done(m, builder.KindObjectLiteral)
}

// property parses one object literal member.
func (g *Grammar) property() bool {
	b := g.b
	if b.At(lexer.ELLIPSIS) {
		m := b.Mark()
		b.Advance()
		g.AssignmentExpression()
		b.Done(m, builder.KindSpreadElement)
		return true
	}

	m := b.Mark()
	shorthand := isIdentifier(b.TokenType())
	if !g.propertyKey() {
		b.Drop(m)
		return false
	}
	switch {
	case b.At(lexer.COLON):
		b.Advance()
		g.AssignmentExpression()
	case b.At(lexer.LPAREN) || (g.typed && b.At(lexer.LT)):
		// method
		g.functionSignature()
		if b.At(lexer.LBRACE) {
			g.blockStatement()
		}
	case shorthand:
	default:
		b.Error("expected ':'")
	}
	b.Done(m, builder.KindProperty)
	return true
}

// propertyKey parses an identifier, literal or computed key.
func (g *Grammar) propertyKey() bool {
	b := g.b
	switch t := b.TokenType(); {
	case isIdentifier(t), t.IsKeyword(), t == lexer.STRING, t == lexer.NUMBER:
		b.Advance()
		return true
	case t == lexer.LBRACKET:
		b.Advance()
		g.AssignmentExpression()
		g.expect(lexer.RBRACKET)
		return true
	}
	b.Error("property name expected")
	return false
}

// recoverTo skips tokens until one of the given types or a stop token.
func (g *Grammar) recoverTo(types ...lexer.TokenType) {
	for !g.atStop() && !g.b.AtAny(types...) {
		g.b.Advance()
	}
}

// atArrow reports whether an arrow function starts at the cursor:
// "x =>", "async x =>", "(...) =>" or "(...): T =>".
func (g *Grammar) atArrow() bool {
	n := 0
	if g.b.AtWord("async") && g.b.Peek(1).Type != lexer.ARROW {
		n = 1
	}
	switch t := g.b.Peek(n).Type; {
	case isIdentifier(t):
		return g.b.Peek(n+1).Type == lexer.ARROW
	case t == lexer.LPAREN:
		end, ok := g.matchingParen(n)
		if !ok {
			return false
		}
		after := g.b.Peek(end + 1).Type
		return after == lexer.ARROW || (g.typed && after == lexer.COLON && g.returnTypeThenArrow(end+1))
	case g.typed && t == lexer.LT:
		return true
	}
	return false
}

// matchingParen returns the peek distance of the ")" matching the "(" at
// peek distance n.
func (g *Grammar) matchingParen(n int) (int, bool) {
	depth := 0
	for i := n; ; i++ {
		switch g.b.Peek(i).Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				return i, true
			}
		case lexer.EOF, lexer.END_MUSTACHE:
			return 0, false
		}
	}
}

// returnTypeThenArrow scans past a ": Type" return annotation starting at
// peek distance n and reports whether "=>" follows it.
func (g *Grammar) returnTypeThenArrow(n int) bool {
	depth := 0
	for i := n + 1; ; i++ {
		switch g.b.Peek(i).Type {
		case lexer.LPAREN, lexer.LBRACKET, lexer.LBRACE, lexer.LT:
			depth++
		case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE, lexer.GT:
			depth--
			if depth < 0 {
				return false
			}
		case lexer.ARROW:
			if depth == 0 {
				return true
			}
		case lexer.EOF, lexer.END_MUSTACHE:
			return false
		case lexer.COMMA, lexer.SEMICOLON, lexer.EQ:
			if depth == 0 {
				return false
			}
		}
	}
}

func (g *Grammar) arrowFunction() bool {
	b := g.b
	m := b.Mark()
	if b.AtWord("async") && b.Peek(1).Type != lexer.ARROW {
		b.Advance()
	}
	if g.typed && b.At(lexer.LT) {
		g.typeParameters()
	}
	if isIdentifier(b.TokenType()) {
		pl := b.Mark()
		p := b.Mark()
		b.Advance()
		b.Done(p, builder.KindParameter)
		b.Done(pl, builder.KindParameterList)
	} else {
		g.parameterList()
		if g.typed && b.At(lexer.COLON) {
			g.typeAnnotation()
		}
	}
	g.expect(lexer.ARROW)
	if b.At(lexer.LBRACE) {
		g.blockStatement()
	} else {
		g.AssignmentExpression()
	}
	b.Done(m, builder.KindArrowFunction)
	return true
}

func (g *Grammar) functionExpression() {
	m := g.b.Mark()
	g.b.Advance() // function
	if g.b.At(lexer.STAR) {
		g.b.Advance()
	}
	if isIdentifier(g.b.TokenType()) {
		g.b.Advance()
	}
	g.functionSignature()
	if g.b.At(lexer.LBRACE) {
		g.blockStatement()
	} else {
		g.b.Errorf("expected '{'")
	}
	g.b.Done(m, builder.KindFunctionDeclaration)
}

// parameterList parses "(" parameters ")".
func (g *Grammar) parameterList() {
	b := g.b
	m := b.Mark()
	if !g.expect(lexer.LPAREN) {
		b.Done(m, builder.KindParameterList)
		return
	}
	for !b.At(lexer.RPAREN) && !g.atStop() {
		p := b.Mark()
		rest := b.At(lexer.ELLIPSIS)
		if rest {
			b.Advance()
		}
		if !g.bindingTarget() {
			b.Drop(p)
			g.recoverTo(lexer.COMMA, lexer.RPAREN)
		} else {
			if g.typed && b.At(lexer.QUESTION) {
				b.Advance() // optional parameter
			}
			if g.typed && b.At(lexer.COLON) {
				g.typeAnnotation()
			}
			if b.At(lexer.EQ) && !rest {
				g.defaultValue()
			}
			b.Done(p, builder.KindParameter)
		}
		if !b.At(lexer.COMMA) {
			break
		}
		b.Advance()
	}
	g.expect(lexer.RPAREN)
	b.Done(m, builder.KindParameterList)
}
