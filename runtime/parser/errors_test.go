package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

func assertLines(t *testing.T, expectedLines []string, output string) {
	t.Helper()
	outputLines := strings.Split(strings.TrimSpace(output), "\n")

	if len(outputLines) != len(expectedLines) {
		t.Errorf("Expected %d lines, got %d\nOutput:\n%s", len(expectedLines), len(outputLines), output)
	}

	for i, expected := range expectedLines {
		if i >= len(outputLines) {
			t.Errorf("Missing line %d: %q", i, expected)
			continue
		}
		if outputLines[i] != expected {
			t.Errorf("Line %d mismatch:\nExpected: %q\nGot:      %q", i, expected, outputLines[i])
		}
	}
}

func TestErrorFormatterCompact(t *testing.T) {
	source := []byte("<script>\n</script>\n{#each items as item\n")

	err := ParseError{
		Filename:   "List.svelte",
		Position:   lexer.Position{Line: 3, Column: 21, Offset: 38},
		Message:    "missing closing '}'",
		Context:    "each block",
		Expected:   []lexer.TokenType{lexer.RBRACE},
		Suggestion: "add '}' to close the each block",
	}

	formatter := ErrorFormatter{
		Source:   source,
		Filename: "List.svelte",
		Compact:  true,
		Color:    false,
	}

	// Expected format:
	// List.svelte:3:21: missing closing '}' in each block
	//  3 | {#each items as item
	//    |                     ^ expected '}'
	//    add '}' to close the each block
	assertLines(t, []string{
		"List.svelte:3:21: missing closing '}' in each block",
		" 3 | {#each items as item",
		"   |                     ^ expected '}'",
		"   add '}' to close the each block",
	}, formatter.Format(err))
}

func TestErrorFormatterDetailed(t *testing.T) {
	source := []byte("<script>\n</script>\n{#each items as item\n")

	err := ParseError{
		Filename:   "List.svelte",
		Position:   lexer.Position{Line: 3, Column: 21, Offset: 38},
		Message:    "missing closing '}'",
		Context:    "each block",
		Expected:   []lexer.TokenType{lexer.RBRACE},
		Suggestion: "add '}' to close the each block",
		Example:    "{#each items as item, i (item.id)}...{/each}",
		Note:       "block headers end at the first unmatched '}'",
	}

	formatter := ErrorFormatter{
		Source:   source,
		Filename: "List.svelte",
	}

	assertLines(t, []string{
		"Error: missing closing '}'",
		"  --> List.svelte:3:21",
		"   |",
		" 3 | {#each items as item",
		"   |                     ^ expected '}'",
		"   |",
		"   = Suggestion: add '}' to close the each block",
		"   = Example: {#each items as item, i (item.id)}...{/each}",
		"   = Note: block headers end at the first unmatched '}'",
	}, formatter.Format(err))
}

func TestErrorFormatterWarning(t *testing.T) {
	w := ParseWarning{
		Position: lexer.Position{Line: 1, Column: 3, Offset: 2},
		Message:  "whitespace is not allowed after '#'",
		Context:  "if block",
	}
	formatter := ErrorFormatter{Source: []byte("{# if x}{/if}")}

	assertLines(t, []string{
		"Warning: whitespace is not allowed after '#'",
		"  --> 1:3",
		"   |",
		" 1 | {# if x}{/if}",
		"   |   ^",
	}, formatter.FormatWarning(w))
}

func TestErrorFormatterColor(t *testing.T) {
	formatter := ErrorFormatter{Source: []byte("{x"), Compact: true, Color: true}
	out := formatter.Format(ParseError{Position: lexer.Position{Line: 1, Column: 3, Offset: 2}, Message: "m"})
	assert.Contains(t, out, ansiReset)

	formatter.Color = false
	out = formatter.Format(ParseError{Position: lexer.Position{Line: 1, Column: 3, Offset: 2}, Message: "m"})
	assert.NotContains(t, out, "\033[")
}

func TestErrorFormatterMultipleExpected(t *testing.T) {
	err := ParseError{
		Position: lexer.Position{Line: 1, Column: 9, Offset: 8},
		Message:  "unexpected token",
		Expected: []lexer.TokenType{lexer.IDENTIFIER, lexer.LPAREN, lexer.LBRACE},
		Got:      lexer.SEMICOLON,
	}

	formatter := ErrorFormatter{
		Source:  []byte("{#each ;}"),
		Compact: true,
		Color:   false,
	}

	output := formatter.Format(err)

	// Should format as: "expected identifier, '(', or '{'"
	if !strings.Contains(output, "identifier, '(', or '{'") {
		t.Errorf("Expected formatted token list, got:\n%s", output)
	}
}

func TestParseErrorString(t *testing.T) {
	err := ParseError{
		Filename: "App.svelte",
		Position: lexer.Position{Line: 2, Column: 4},
		Message:  "invalid block name",
		Context:  "expression tag",
	}
	assert.Equal(t, "App.svelte:2:4: invalid block name in expression tag", err.Error())

	err.Filename, err.Context = "", ""
	assert.Equal(t, "2:4: invalid block name", err.Error())
}

func TestInternalErrorUnwraps(t *testing.T) {
	err := error(&InternalError{Region: builder.KindEachStart, Err: ErrNoLanguageMode})
	require.ErrorIs(t, err, ErrNoLanguageMode)
	assert.Contains(t, err.Error(), "EachStart")
}

func TestTokenName(t *testing.T) {
	tests := []struct {
		token lexer.TokenType
		want  string
	}{
		{lexer.LPAREN, "'('"},
		{lexer.RPAREN, "')'"},
		{lexer.LBRACE, "'{'"},
		{lexer.RBRACE, "'}'"},
		{lexer.IDENTIFIER, "identifier"},
		{lexer.STRING, "string"},
		{lexer.NUMBER, "number"},
		{lexer.EOF, "end of file"},
		{lexer.TAG_NAME, "tag name"},
	}

	for _, tt := range tests {
		got := tokenName(tt.token)
		if got != tt.want {
			t.Errorf("tokenName(%v) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestJoinAlternatives(t *testing.T) {
	assert.Equal(t, "", joinAlternatives(nil))
	assert.Equal(t, "a", joinAlternatives([]string{"a"}))
	assert.Equal(t, "a or b", joinAlternatives([]string{"a", "b"}))
	assert.Equal(t, "a, b, or c", joinAlternatives([]string{"a", "b", "c"}))
}
