package lexer

import (
	"unicode"
	"unicode/utf8"
)

// multiCharOps lists operators longer than one byte, longest first within
// each leading byte. '>' never combines beyond ">=" so that nested type
// arguments such as Map<K, Array<V>> close one bracket per token.
var multiCharOps = map[byte][]TokenType{
	'.': {ELLIPSIS},
	'=': {EQ_EQ_EQ, ARROW, EQ_EQ},
	'!': {NOT_EQ_EQ, NOT_EQ},
	'<': {LSHIFT_EQ, LSHIFT, LT_EQ},
	'>': {GT_EQ},
	'*': {STAR_STAR_EQ, STAR_STAR, STAR_EQ},
	'&': {AND_AND_EQ, AND_AND, AMP_EQ},
	'|': {OR_OR_EQ, OR_OR, PIPE_EQ},
	'?': {NULLISH_EQ, NULLISH, QUESTION_DOT},
	'+': {PLUS_PLUS, PLUS_EQ},
	'-': {MINUS_MINUS, MINUS_EQ},
	'/': {SLASH_EQ},
	'%': {PERCENT_EQ},
	'^': {CARET_EQ},
}

var singleCharOps [128]TokenType

func init() {
	for i := range singleCharOps {
		singleCharOps[i] = ILLEGAL
	}
	for t := SHARP; t < tokenTypeCount; t++ {
		if s := symbols[t]; len(s) == 1 {
			singleCharOps[s[0]] = t
		}
	}
}

// ScriptLexer tokenizes the text of one mustache region with the host
// expression vocabulary. Trivia is emitted as tokens so that the tokens of a
// region always concatenate back to its text.
type ScriptLexer struct {
	input    []byte
	position int
	line     int
	column   int
	base     int

	// open and close are the offsets of the region delimiters, or -1.
	open           int
	close          int
	assumeExternal bool
	afterTrivia    bool
}

// NewScriptLexer prepares src for tokenizing. start is the document position
// of src[0]; token positions are reported in document coordinates.
//
// When assumeExternal is true the outer braces belong to the caller and are
// emitted as EXTERNAL_DELIM trivia. Otherwise the lexer locates them itself and
// emits START_MUSTACHE and END_MUSTACHE for the grammar to consume.
func NewScriptLexer(src []byte, start Position, assumeExternal bool) *ScriptLexer {
	l := &ScriptLexer{
		input:          src,
		line:           start.Line,
		column:         start.Column,
		base:           start.Offset,
		open:           -1,
		close:          -1,
		assumeExternal: assumeExternal,
	}
	if l.line == 0 {
		l.line, l.column = 1, 1
	}
	if len(src) > 0 && src[0] == '{' {
		l.open = 0
		if end, ok := scanBalanced(src, 1); ok {
			l.close = end - 1
		}
	}
	return l
}

// ScanScript tokenizes src in one call. The result ends with EOF.
func ScanScript(src []byte, start Position, assumeExternal bool) []Token {
	l := NewScriptLexer(src, start, assumeExternal)
	tokens := make([]Token, 0, len(src)/3+2)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// Terminated reports whether the region's opening brace has a matching
// closing brace.
func (l *ScriptLexer) Terminated() bool {
	return l.open < 0 || l.close >= 0
}

func (l *ScriptLexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.base + l.position}
}

func (l *ScriptLexer) advanceTo(end int) {
	for l.position < end {
		c := l.input[l.position]
		l.position++
		if c == '\n' {
			l.line++
			l.column = 1
		} else if c&0xC0 != 0x80 {
			l.column++
		}
	}
}

func (l *ScriptLexer) emit(typ TokenType, start int, pos Position) Token {
	tok := Token{
		Type:           typ,
		Text:           l.input[start:l.position],
		Position:       pos,
		HasSpaceBefore: l.afterTrivia,
	}
	l.afterTrivia = typ.IsTrivia()
	return tok
}

// NextToken returns the next token. After EOF it keeps returning EOF.
func (l *ScriptLexer) NextToken() Token {
	start, pos := l.position, l.pos()
	if start >= len(l.input) {
		return Token{Type: EOF, Position: pos, HasSpaceBefore: l.afterTrivia}
	}

	if start == l.open || start == l.close {
		l.advanceTo(start + 1)
		switch {
		case l.assumeExternal:
			return l.emit(EXTERNAL_DELIM, start, pos)
		case start == l.open:
			return l.emit(START_MUSTACHE, start, pos)
		default:
			return l.emit(END_MUSTACHE, start, pos)
		}
	}

	c := l.input[start]
	switch {
	case spaceAt(l.input, start):
		end := start
		for spaceAt(l.input, end) {
			end++
		}
		l.advanceTo(end)
		return l.emit(WHITESPACE, start, pos)

	case c == '/' && start+1 < len(l.input) && (l.input[start+1] == '/' || l.input[start+1] == '*'):
		typ := LINE_COMMENT
		if l.input[start+1] == '*' {
			typ = BLOCK_COMMENT
		}
		l.advanceTo(l.clip(skipComment(l.input, start)))
		return l.emit(typ, start, pos)

	case c == '"' || c == '\'':
		l.advanceTo(l.clip(skipString(l.input, start)))
		return l.emit(STRING, start, pos)

	case c == '`':
		l.advanceTo(l.clip(skipTemplate(l.input, start)))
		return l.emit(TEMPLATE, start, pos)

	case c < 128 && isDigit[c], c == '.' && start+1 < len(l.input) && l.input[start+1] < 128 && isDigit[l.input[start+1]]:
		l.advanceTo(l.scanNumber(start))
		return l.emit(NUMBER, start, pos)

	case l.identStartAt(start):
		end := l.scanIdent(start)
		l.advanceTo(end)
		return l.emit(LookupKeyword(string(l.input[start:end])), start, pos)
	}

	for _, t := range multiCharOps[c] {
		s := symbols[t]
		if start+len(s) > len(l.input) || string(l.input[start:start+len(s)]) != s {
			continue
		}
		// "a?.5:b" is a conditional, not optional chaining.
		if t == QUESTION_DOT && start+2 < len(l.input) && l.input[start+2] < 128 && isDigit[l.input[start+2]] {
			continue
		}
		if l.crossesClose(start, len(s)) {
			continue
		}
		l.advanceTo(start + len(s))
		return l.emit(t, start, pos)
	}

	if c < 128 && singleCharOps[c] != ILLEGAL {
		l.advanceTo(start + 1)
		return l.emit(singleCharOps[c], start, pos)
	}

	_, size := utf8.DecodeRune(l.input[start:])
	l.advanceTo(start + size)
	return l.emit(ILLEGAL, start, pos)
}

// clip keeps literals and comments from swallowing the closing delimiter.
func (l *ScriptLexer) clip(end int) int {
	if l.close > l.position && end > l.close {
		return l.close
	}
	return end
}

func (l *ScriptLexer) crossesClose(start, n int) bool {
	return l.close > start && l.close < start+n
}

func (l *ScriptLexer) identStartAt(i int) bool {
	c := l.input[i]
	if c < 128 {
		return isIdentStart[c]
	}
	r, _ := utf8.DecodeRune(l.input[i:])
	return unicode.IsLetter(r)
}

func (l *ScriptLexer) scanIdent(i int) int {
	for i < len(l.input) && i != l.close {
		c := l.input[i]
		if c < 128 {
			if !isIdentPart[c] {
				break
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(l.input[i:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	return i
}

// scanNumber accepts decimal, hex, octal and binary literals with numeric
// separators, fractions, exponents and the BigInt suffix.
func (l *ScriptLexer) scanNumber(i int) int {
	src := l.input
	if src[i] == '0' && i+1 < len(src) && (src[i+1]|0x20 == 'x' || src[i+1]|0x20 == 'o' || src[i+1]|0x20 == 'b') {
		i += 2
		for i < len(src) && src[i] < 128 && (isIdentPart[src[i]]) {
			i++
		}
		return i
	}
	digits := func() {
		for i < len(src) && ((src[i] < 128 && isDigit[src[i]]) || src[i] == '_') {
			i++
		}
	}
	digits()
	if i < len(src) && src[i] == '.' {
		i++
		digits()
	}
	if i < len(src) && src[i]|0x20 == 'e' {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && src[j] < 128 && isDigit[src[j]] {
			i = j
			digits()
		}
	}
	if i < len(src) && src[i] == 'n' {
		i++
	}
	return i
}
