package lexer

// TokenType represents lexical tokens shared by the markup and script lexers.
//
// IMPORTANT: add new token types at the END of the enum (just before
// tokenTypeCount). Region fingerprints hash the numeric values.
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Trivia (skipped by the builder cursor, kept in the tree)
	WHITESPACE
	LINE_COMMENT   // // comment
	BLOCK_COMMENT  // /* comment */
	EXTERNAL_DELIM // { or } owned by the caller when delimiters are external

	// Markup
	TAG_OPEN       // <
	END_TAG_OPEN   // </
	TAG_NAME       // div, svelte:window, Foo.Bar
	ATTR_NAME      // class, on:click|once
	ATTR_EQ        // =
	ATTR_VALUE     // unquoted value or literal run inside quotes
	QUOTE          // " or ' around an attribute value
	TAG_CLOSE      // >
	TAG_SELF_CLOSE // />
	TEXT           // character data
	COMMENT        // <!-- ... --> or <!doctype ...>
	RAW_TEXT       // contents of <script> and <style>
	MUSTACHE       // a whole {...} region, parsed by its own builder

	// Mustache delimiters
	START_MUSTACHE // { opening a region
	END_MUSTACHE   // } closing a region

	// Literals
	IDENTIFIER
	NUMBER
	STRING
	TEMPLATE // `...${}...`

	// Keywords
	IF
	ELSE
	AWAIT
	CATCH
	CONST
	NEW
	TYPEOF
	VOID
	DELETE
	IN
	INSTANCEOF
	THIS
	TRUE
	FALSE
	NULL
	FUNCTION

	// Contextual keywords (lexed as IDENTIFIER, remapped by the grammar)
	EACH
	KEY
	SNIPPET
	THEN
	AS
	HTML
	DEBUG
	RENDER
	SATISFIES
	KEYOF

	// Punctuation
	SHARP        // #
	AT           // @
	COLON        // :
	SEMICOLON    // ;
	COMMA        // ,
	DOT          // .
	QUESTION_DOT // ?.
	ELLIPSIS     // ...
	LPAREN       // (
	RPAREN       // )
	LBRACKET     // [
	RBRACKET     // ]
	LBRACE       // {
	RBRACE       // }
	ARROW        // =>
	QUESTION     // ?

	// Operators
	EQ          // =
	EQ_EQ       // ==
	EQ_EQ_EQ    // ===
	NOT_EQ      // !=
	NOT_EQ_EQ   // !==
	LT          // <
	LT_EQ       // <=
	GT          // > (shifts are adjacent GT tokens)
	GT_EQ       // >=
	PLUS        // +
	MINUS       // -
	STAR        // *
	STAR_STAR   // **
	SLASH       // /
	PERCENT     // %
	PLUS_PLUS   // ++
	MINUS_MINUS // --
	LSHIFT      // <<
	AMP         // &
	PIPE        // |
	CARET       // ^
	TILDE       // ~
	NOT         // !
	AND_AND     // &&
	OR_OR       // ||
	NULLISH     // ??

	// Compound assignment
	PLUS_EQ      // +=
	MINUS_EQ     // -=
	STAR_EQ      // *=
	SLASH_EQ     // /=
	PERCENT_EQ   // %=
	STAR_STAR_EQ // **=
	LSHIFT_EQ    // <<=
	AMP_EQ       // &=
	PIPE_EQ      // |=
	CARET_EQ     // ^=
	AND_AND_EQ   // &&=
	OR_OR_EQ     // ||=
	NULLISH_EQ   // ??=

	tokenTypeCount
)

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Text     []byte // slice of the source, never copied
	Position Position
	// HasSpaceBefore reports that trivia preceded this token. The block
	// grammar uses it to flag whitespace after a sigil such as "{# if".
	HasSpaceBefore bool
}

// String returns the token text as a string (for testing and debugging)
func (t Token) String() string {
	return string(t.Text)
}

// Span returns the byte range the token occupies in the source.
func (t Token) Span() Span {
	return Span{Start: t.Position.Offset, End: t.Position.Offset + len(t.Text)}
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Position.Offset + len(t.Text)
}

// Symbol returns the token's text, or its fixed spelling when the token has
// no text (EOF, remapped delimiters in synthetic streams).
func (t Token) Symbol() string {
	if len(t.Text) > 0 {
		return string(t.Text)
	}
	if s := symbols[t.Type]; s != "" {
		return s
	}
	return t.Type.String()
}

// IsTrivia reports whether the builder cursor skips tokens of this type.
func (t TokenType) IsTrivia() bool {
	switch t {
	case WHITESPACE, LINE_COMMENT, BLOCK_COMMENT, EXTERNAL_DELIM:
		return true
	}
	return false
}

// IsKeyword reports whether t is a reserved or contextual keyword.
func (t TokenType) IsKeyword() bool {
	return t >= IF && t <= KEYOF
}

// IsAssignment reports whether t is = or a compound assignment operator.
func (t TokenType) IsAssignment() bool {
	return t == EQ || (t >= PLUS_EQ && t <= NULLISH_EQ)
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number (runes)
	Offset int // 0-based byte offset
}

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Covers reports whether o lies entirely within s.
func (s Span) Covers(o Span) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// Shift returns the span moved by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

var tokenNames = [tokenTypeCount]string{
	EOF:            "EOF",
	ILLEGAL:        "ILLEGAL",
	WHITESPACE:     "WHITESPACE",
	LINE_COMMENT:   "LINE_COMMENT",
	BLOCK_COMMENT:  "BLOCK_COMMENT",
	EXTERNAL_DELIM: "EXTERNAL_DELIM",
	TAG_OPEN:       "TAG_OPEN",
	END_TAG_OPEN:   "END_TAG_OPEN",
	TAG_NAME:       "TAG_NAME",
	ATTR_NAME:      "ATTR_NAME",
	ATTR_EQ:        "ATTR_EQ",
	ATTR_VALUE:     "ATTR_VALUE",
	QUOTE:          "QUOTE",
	TAG_CLOSE:      "TAG_CLOSE",
	TAG_SELF_CLOSE: "TAG_SELF_CLOSE",
	TEXT:           "TEXT",
	COMMENT:        "COMMENT",
	RAW_TEXT:       "RAW_TEXT",
	MUSTACHE:       "MUSTACHE",
	START_MUSTACHE: "START_MUSTACHE",
	END_MUSTACHE:   "END_MUSTACHE",
	IDENTIFIER:     "IDENTIFIER",
	NUMBER:         "NUMBER",
	STRING:         "STRING",
	TEMPLATE:       "TEMPLATE",
	IF:             "IF",
	ELSE:           "ELSE",
	AWAIT:          "AWAIT",
	CATCH:          "CATCH",
	CONST:          "CONST",
	NEW:            "NEW",
	TYPEOF:         "TYPEOF",
	VOID:           "VOID",
	DELETE:         "DELETE",
	IN:             "IN",
	INSTANCEOF:     "INSTANCEOF",
	THIS:           "THIS",
	TRUE:           "TRUE",
	FALSE:          "FALSE",
	NULL:           "NULL",
	FUNCTION:       "FUNCTION",
	EACH:           "EACH",
	KEY:            "KEY",
	SNIPPET:        "SNIPPET",
	THEN:           "THEN",
	AS:             "AS",
	HTML:           "HTML",
	DEBUG:          "DEBUG",
	RENDER:         "RENDER",
	SATISFIES:      "SATISFIES",
	KEYOF:          "KEYOF",
	SHARP:          "SHARP",
	AT:             "AT",
	COLON:          "COLON",
	SEMICOLON:      "SEMICOLON",
	COMMA:          "COMMA",
	DOT:            "DOT",
	QUESTION_DOT:   "QUESTION_DOT",
	ELLIPSIS:       "ELLIPSIS",
	LPAREN:         "LPAREN",
	RPAREN:         "RPAREN",
	LBRACKET:       "LBRACKET",
	RBRACKET:       "RBRACKET",
	LBRACE:         "LBRACE",
	RBRACE:         "RBRACE",
	ARROW:          "ARROW",
	QUESTION:       "QUESTION",
	EQ:             "EQ",
	EQ_EQ:          "EQ_EQ",
	EQ_EQ_EQ:       "EQ_EQ_EQ",
	NOT_EQ:         "NOT_EQ",
	NOT_EQ_EQ:      "NOT_EQ_EQ",
	LT:             "LT",
	LT_EQ:          "LT_EQ",
	GT:             "GT",
	GT_EQ:          "GT_EQ",
	PLUS:           "PLUS",
	MINUS:          "MINUS",
	STAR:           "STAR",
	STAR_STAR:      "STAR_STAR",
	SLASH:          "SLASH",
	PERCENT:        "PERCENT",
	PLUS_PLUS:      "PLUS_PLUS",
	MINUS_MINUS:    "MINUS_MINUS",
	LSHIFT:         "LSHIFT",
	AMP:            "AMP",
	PIPE:           "PIPE",
	CARET:          "CARET",
	TILDE:          "TILDE",
	NOT:            "NOT",
	AND_AND:        "AND_AND",
	OR_OR:          "OR_OR",
	NULLISH:        "NULLISH",
	PLUS_EQ:        "PLUS_EQ",
	MINUS_EQ:       "MINUS_EQ",
	STAR_EQ:        "STAR_EQ",
	SLASH_EQ:       "SLASH_EQ",
	PERCENT_EQ:     "PERCENT_EQ",
	STAR_STAR_EQ:   "STAR_STAR_EQ",
	LSHIFT_EQ:      "LSHIFT_EQ",
	AMP_EQ:         "AMP_EQ",
	PIPE_EQ:        "PIPE_EQ",
	CARET_EQ:       "CARET_EQ",
	AND_AND_EQ:     "AND_AND_EQ",
	OR_OR_EQ:       "OR_OR_EQ",
	NULLISH_EQ:     "NULLISH_EQ",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if t >= 0 && t < tokenTypeCount && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return "UNKNOWN"
}

// symbols holds the fixed spelling of punctuation, operators and keywords.
// It doubles as the operator table for the script lexer.
var symbols = [tokenTypeCount]string{
	TAG_OPEN:       "<",
	END_TAG_OPEN:   "</",
	ATTR_EQ:        "=",
	TAG_CLOSE:      ">",
	TAG_SELF_CLOSE: "/>",
	START_MUSTACHE: "{",
	END_MUSTACHE:   "}",
	IF:             "if",
	ELSE:           "else",
	AWAIT:          "await",
	CATCH:          "catch",
	CONST:          "const",
	NEW:            "new",
	TYPEOF:         "typeof",
	VOID:           "void",
	DELETE:         "delete",
	IN:             "in",
	INSTANCEOF:     "instanceof",
	THIS:           "this",
	TRUE:           "true",
	FALSE:          "false",
	NULL:           "null",
	FUNCTION:       "function",
	EACH:           "each",
	KEY:            "key",
	SNIPPET:        "snippet",
	THEN:           "then",
	AS:             "as",
	HTML:           "html",
	DEBUG:          "debug",
	RENDER:         "render",
	SATISFIES:      "satisfies",
	KEYOF:          "keyof",
	SHARP:          "#",
	AT:             "@",
	COLON:          ":",
	SEMICOLON:      ";",
	COMMA:          ",",
	DOT:            ".",
	QUESTION_DOT:   "?.",
	ELLIPSIS:       "...",
	LPAREN:         "(",
	RPAREN:         ")",
	LBRACKET:       "[",
	RBRACKET:       "]",
	LBRACE:         "{",
	RBRACE:         "}",
	ARROW:          "=>",
	QUESTION:       "?",
	EQ:             "=",
	EQ_EQ:          "==",
	EQ_EQ_EQ:       "===",
	NOT_EQ:         "!=",
	NOT_EQ_EQ:      "!==",
	LT:             "<",
	LT_EQ:          "<=",
	GT:             ">",
	GT_EQ:          ">=",
	PLUS:           "+",
	MINUS:          "-",
	STAR:           "*",
	STAR_STAR:      "**",
	SLASH:          "/",
	PERCENT:        "%",
	PLUS_PLUS:      "++",
	MINUS_MINUS:    "--",
	LSHIFT:         "<<",
	AMP:            "&",
	PIPE:           "|",
	CARET:          "^",
	TILDE:          "~",
	NOT:            "!",
	AND_AND:        "&&",
	OR_OR:          "||",
	NULLISH:        "??",
	PLUS_EQ:        "+=",
	MINUS_EQ:       "-=",
	STAR_EQ:        "*=",
	SLASH_EQ:       "/=",
	PERCENT_EQ:     "%=",
	STAR_STAR_EQ:   "**=",
	LSHIFT_EQ:      "<<=",
	AMP_EQ:         "&=",
	PIPE_EQ:        "|=",
	CARET_EQ:       "^=",
	AND_AND_EQ:     "&&=",
	OR_OR_EQ:       "||=",
	NULLISH_EQ:     "??=",
}

// SymbolOf returns the fixed spelling of a token type, or its name when the
// type has no fixed spelling.
func SymbolOf(t TokenType) string {
	if t >= 0 && t < tokenTypeCount && symbols[t] != "" {
		return symbols[t]
	}
	return t.String()
}

// keywords maps reserved words to their token types. Contextual keywords are
// deliberately absent: "each", "as" and friends are valid identifiers.
var keywords = map[string]TokenType{
	"if":         IF,
	"else":       ELSE,
	"await":      AWAIT,
	"catch":      CATCH,
	"const":      CONST,
	"new":        NEW,
	"typeof":     TYPEOF,
	"void":       VOID,
	"delete":     DELETE,
	"in":         IN,
	"instanceof": INSTANCEOF,
	"this":       THIS,
	"true":       TRUE,
	"false":      FALSE,
	"null":       NULL,
	"function":   FUNCTION,
}

// LookupKeyword returns the keyword token type for word, or IDENTIFIER.
func LookupKeyword(word string) TokenType {
	if t, ok := keywords[word]; ok {
		return t
	}
	return IDENTIFIER
}

// Advance returns the position after text when text starts at p.
func (p Position) Advance(text []byte) Position {
	for _, c := range text {
		if c == '\n' {
			p.Line++
			p.Column = 1
		} else if c&0xC0 != 0x80 {
			p.Column++
		}
	}
	p.Offset += len(text)
	return p
}

// Shift moves positions that follow an edited range. Positions before Old
// are unchanged; the rest move by the difference between Old and New, with
// columns adjusted only on the line the edited range ended on.
type Shift struct {
	Old Position // End of the range before the edit
	New Position // End of the range after the edit
}

// Delta is the change in byte length.
func (s Shift) Delta() int { return s.New.Offset - s.Old.Offset }

// Position applies the shift to p.
func (s Shift) Position(p Position) Position {
	if p.Offset < s.Old.Offset {
		return p
	}
	if p.Line == s.Old.Line {
		p.Column += s.New.Column - s.Old.Column
	}
	p.Line += s.New.Line - s.Old.Line
	p.Offset += s.Delta()
	return p
}

// Offset applies the shift to a byte offset.
func (s Shift) Offset(o int) int {
	if o < s.Old.Offset {
		return o
	}
	return o + s.Delta()
}

// Span applies the shift to both ends of sp.
func (s Shift) Span(sp Span) Span {
	return Span{Start: s.Offset(sp.Start), End: s.Offset(sp.End)}
}
