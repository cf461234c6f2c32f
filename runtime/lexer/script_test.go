package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func assertScriptTokens(t *testing.T, input string, assumeExternal bool, expected []tokenExpectation) {
	t.Helper()

	tokens := ScanScript([]byte(input), Position{}, assumeExternal)
	if diff := cmp.Diff(expected, collect(tokens)); diff != "" {
		t.Errorf("%q: token mismatch (-expected +actual):\n%s", input, diff)
	}
}

func TestScriptRegionDelimiters(t *testing.T) {
	assertScriptTokens(t, "{#each items as item}", false, []tokenExpectation{
		{START_MUSTACHE, "{", 1, 1},
		{SHARP, "#", 1, 2},
		{IDENTIFIER, "each", 1, 3},
		{WHITESPACE, " ", 1, 7},
		{IDENTIFIER, "items", 1, 8},
		{WHITESPACE, " ", 1, 13},
		{IDENTIFIER, "as", 1, 14},
		{WHITESPACE, " ", 1, 16},
		{IDENTIFIER, "item", 1, 17},
		{END_MUSTACHE, "}", 1, 21},
		{EOF, "", 1, 22},
	})
}

func TestScriptExternalDelimitersAreTrivia(t *testing.T) {
	assertScriptTokens(t, "{ {a} }", true, []tokenExpectation{
		{EXTERNAL_DELIM, "{", 1, 1},
		{WHITESPACE, " ", 1, 2},
		{LBRACE, "{", 1, 3},
		{IDENTIFIER, "a", 1, 4},
		{RBRACE, "}", 1, 5},
		{WHITESPACE, " ", 1, 6},
		{EXTERNAL_DELIM, "}", 1, 7},
		{EOF, "", 1, 8},
	})
}

func TestScriptOperators(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"a===b", []TokenType{IDENTIFIER, EQ_EQ_EQ, IDENTIFIER}},
		{"a!==b", []TokenType{IDENTIFIER, NOT_EQ_EQ, IDENTIFIER}},
		{"a=>b", []TokenType{IDENTIFIER, ARROW, IDENTIFIER}},
		{"a??=b", []TokenType{IDENTIFIER, NULLISH_EQ, IDENTIFIER}},
		{"a?.b", []TokenType{IDENTIFIER, QUESTION_DOT, IDENTIFIER}},
		{"a?.5:b", []TokenType{IDENTIFIER, QUESTION, NUMBER, COLON, IDENTIFIER}},
		{"a**=b", []TokenType{IDENTIFIER, STAR_STAR_EQ, IDENTIFIER}},
		{"a<<=b", []TokenType{IDENTIFIER, LSHIFT_EQ, IDENTIFIER}},
		{"a>>=b", []TokenType{IDENTIFIER, GT, GT_EQ, IDENTIFIER}},
		{"Map<K,Array<V>>", []TokenType{IDENTIFIER, LT, IDENTIFIER, COMMA, IDENTIFIER, LT, IDENTIFIER, GT, GT}},
		{"...rest", []TokenType{ELLIPSIS, IDENTIFIER}},
		{"@html", []TokenType{AT, IDENTIFIER}},
		{"x++ + --y", []TokenType{IDENTIFIER, PLUS_PLUS, WHITESPACE, PLUS, WHITESPACE, MINUS_MINUS, IDENTIFIER}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got []TokenType
			for _, tok := range ScanScript([]byte(tt.input), Position{}, false) {
				if tok.Type != EOF {
					got = append(got, tok.Type)
				}
			}
			if diff := cmp.Diff(tt.types, got); diff != "" {
				t.Errorf("types (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScriptLiteralsAndKeywords(t *testing.T) {
	assertScriptTokens(t, "typeof x instanceof Y", false, []tokenExpectation{
		{TYPEOF, "typeof", 1, 1},
		{WHITESPACE, " ", 1, 7},
		{IDENTIFIER, "x", 1, 8},
		{WHITESPACE, " ", 1, 9},
		{INSTANCEOF, "instanceof", 1, 10},
		{WHITESPACE, " ", 1, 20},
		{IDENTIFIER, "Y", 1, 21},
		{EOF, "", 1, 22},
	})

	for _, num := range []string{"0x1F", "1_000", "1.5e-3", "10n", ".5", "0b1010"} {
		tokens := ScanScript([]byte(num), Position{}, false)
		if tokens[0].Type != NUMBER || tokens[0].String() != num {
			t.Errorf("%q lexed as %s %q", num, tokens[0].Type, tokens[0].String())
		}
	}

	assertScriptTokens(t, "`a${b}c` 'x\\'y'", false, []tokenExpectation{
		{TEMPLATE, "`a${b}c`", 1, 1},
		{WHITESPACE, " ", 1, 9},
		{STRING, `'x\'y'`, 1, 10},
		{EOF, "", 1, 16},
	})
}

func TestScriptComments(t *testing.T) {
	assertScriptTokens(t, "a /* b */ // c\nd", false, []tokenExpectation{
		{IDENTIFIER, "a", 1, 1},
		{WHITESPACE, " ", 1, 2},
		{BLOCK_COMMENT, "/* b */", 1, 3},
		{WHITESPACE, " ", 1, 10},
		{LINE_COMMENT, "// c", 1, 11},
		{WHITESPACE, "\n", 1, 15},
		{IDENTIFIER, "d", 2, 1},
		{EOF, "", 2, 2},
	})
}

func TestScriptUnicode(t *testing.T) {
	assertScriptTokens(t, "café €", false, []tokenExpectation{
		{IDENTIFIER, "café", 1, 1},
		{WHITESPACE, " ", 1, 5},
		{ILLEGAL, "€", 1, 6},
		{EOF, "", 1, 7},
	})
}

func TestScriptPositionsAreDocumentRelative(t *testing.T) {
	tokens := ScanScript([]byte("{x}"), Position{Line: 3, Column: 5, Offset: 40}, false)
	got := []Position{tokens[0].Position, tokens[1].Position, tokens[3].Position}
	want := []Position{
		{Line: 3, Column: 5, Offset: 40},
		{Line: 3, Column: 6, Offset: 41},
		{Line: 3, Column: 8, Offset: 43},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}
	if span := tokens[1].Span(); span != (Span{Start: 41, End: 42}) {
		t.Errorf("span = %+v", span)
	}
}

func TestScriptTerminated(t *testing.T) {
	if !NewScriptLexer([]byte("{a}"), Position{}, false).Terminated() {
		t.Error("{a} should be terminated")
	}
	if NewScriptLexer([]byte("{a"), Position{}, false).Terminated() {
		t.Error("{a should not be terminated")
	}
	if !NewScriptLexer([]byte("a + b"), Position{}, true).Terminated() {
		t.Error("a region without an opening brace has nothing to terminate")
	}
}

func TestTokenSymbol(t *testing.T) {
	if got := (Token{Type: END_MUSTACHE}).Symbol(); got != "}" {
		t.Errorf("END_MUSTACHE symbol = %q", got)
	}
	if got := (Token{Type: EOF}).Symbol(); got != "EOF" {
		t.Errorf("EOF symbol = %q", got)
	}
	if !AS.IsKeyword() || IDENTIFIER.IsKeyword() {
		t.Error("IsKeyword classification is wrong")
	}
	if !NULLISH_EQ.IsAssignment() || ARROW.IsAssignment() {
		t.Error("IsAssignment classification is wrong")
	}
}

// FuzzScriptCoverage checks that script tokens tile the region exactly.
func FuzzScriptCoverage(f *testing.F) {
	for _, seed := range []string{
		"{a}", "{#if x}", "{'}'}", "{`${a}`}", "{a /* }", "{a?.5:b}", "{€}", "{1..2}",
	} {
		f.Add(seed, false)
		f.Add(seed, true)
	}

	f.Fuzz(func(t *testing.T, input string, external bool) {
		tokens := ScanScript([]byte(input), Position{}, external)
		offset := 0
		for _, tok := range tokens {
			if tok.Position.Offset != offset {
				t.Fatalf("token %s at %d, want %d", tok.Type, tok.Position.Offset, offset)
			}
			if tok.Type != EOF && len(tok.Text) == 0 {
				t.Fatalf("empty %s token at %d", tok.Type, offset)
			}
			offset = tok.End()
		}
		if offset != len(input) {
			t.Fatalf("tokens cover %d of %d bytes", offset, len(input))
		}
	})
}
