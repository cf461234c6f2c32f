package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// ParseError represents a parse error with rich context for user-friendly messages
type ParseError struct {
	// Location
	Filename string         // Source filename (empty for stdin/string)
	Position lexer.Position // Line, column, offset
	Span     lexer.Span     // Byte range the error covers

	// Core error info
	Message string // Clear, specific: "missing closing '}'"
	Context string // What we were parsing: "each block"

	// What went wrong
	Expected []lexer.TokenType // What tokens would be valid
	Got      lexer.TokenType   // What we found instead

	// How to fix it
	Suggestion string // Actionable fix: "did you mean 'once'?"
	Example    string // Valid syntax: "{#each items as item}"
	Note       string // Optional explanation
}

// ParseWarning represents a non-fatal parse warning with helpful context
type ParseWarning struct {
	// Location
	Filename string         // Source filename (empty for stdin/string)
	Position lexer.Position // Line, column, offset
	Span     lexer.Span

	// Warning info
	Message    string // Clear, specific: "whitespace is not allowed after '#'"
	Context    string // What we were parsing: "if block"
	Suggestion string // Actionable fix: "write {#if"
	Note       string // Optional explanation
}

// Error implements error with a one-line location prefix.
func (e ParseError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Position.Line, e.Position.Column)
	if e.Filename != "" {
		loc = e.Filename + ":" + loc
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s in %s", loc, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// ErrNoLanguageMode is wrapped by the InternalError returned when a region is
// parsed without a decided language mode.
var ErrNoLanguageMode = errors.New("no language mode set")

// InternalError reports a defect in the caller rather than malformed input.
// It aborts the region being parsed.
type InternalError struct {
	Region builder.NodeKind
	Err    error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error parsing %s region: %v", e.Region, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// ErrorFormatter renders parse errors with a source snippet.
type ErrorFormatter struct {
	Source   []byte
	Filename string
	Compact  bool // One location line, the source line and a caret
	Color    bool // ANSI colors for terminals
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiBold   = "\033[1m"
)

func (f ErrorFormatter) paint(s, color string) string {
	if !f.Color {
		return s
	}
	return color + s + ansiReset
}

// Format renders err.
//
// Compact:
//
//	App.svelte:3:15: missing closing '}' in each block
//	 3 | {#each items as item
//	   |               ^ expected '}'
//	   did you mean ...
//
// Detailed:
//
//	Error: missing closing '}'
//	  --> App.svelte:3:15
//	   |
//	 3 | {#each items as item
//	   |               ^ expected '}'
//	   |
//	   = Suggestion: ...
func (f ErrorFormatter) Format(err ParseError) string {
	return f.format("Error", ansiRed, err.Filename, err.Position, err.Message, err.Context,
		err.Expected, err.Suggestion, err.Example, err.Note)
}

// FormatWarning renders a warning in the same layout as Format.
func (f ErrorFormatter) FormatWarning(w ParseWarning) string {
	return f.format("Warning", ansiYellow, w.Filename, w.Position, w.Message, w.Context,
		nil, w.Suggestion, "", w.Note)
}

func (f ErrorFormatter) format(label, color, filename string, pos lexer.Position,
	message, context string, expected []lexer.TokenType, suggestion, example, note string) string {

	if filename == "" {
		filename = f.Filename
	}
	loc := fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	if filename != "" {
		loc = filename + ":" + loc
	}

	line, ok := sourceLine(f.Source, pos.Line)
	caret := ""
	if ok {
		caret = strings.Repeat(" ", max(pos.Column-1, 0)) + f.paint("^", color)
		if len(expected) > 0 {
			caret += " " + f.paint("expected "+formatTokenList(expected), color)
		}
	}
	gutter := fmt.Sprintf("%2d", pos.Line)

	var sb strings.Builder
	if f.Compact {
		head := loc + ": " + message
		if context != "" {
			head += " in " + context
		}
		sb.WriteString(f.paint(head, ansiBold) + "\n")
		if ok {
			fmt.Fprintf(&sb, "%s | %s\n", f.paint(gutter, ansiBlue), line)
			fmt.Fprintf(&sb, "   | %s\n", caret)
		}
		if suggestion != "" {
			fmt.Fprintf(&sb, "   %s\n", suggestion)
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "%s: %s\n", f.paint(label, color+ansiBold), message)
	fmt.Fprintf(&sb, "  %s %s\n", f.paint("-->", ansiBlue), loc)
	if ok {
		sb.WriteString("   |\n")
		fmt.Fprintf(&sb, "%s | %s\n", f.paint(gutter, ansiBlue), line)
		fmt.Fprintf(&sb, "   | %s\n", caret)
	}
	if suggestion != "" || example != "" || note != "" {
		sb.WriteString("   |\n")
	}
	if suggestion != "" {
		fmt.Fprintf(&sb, "   = Suggestion: %s\n", suggestion)
	}
	if example != "" {
		fmt.Fprintf(&sb, "   = Example: %s\n", example)
	}
	if note != "" {
		fmt.Fprintf(&sb, "   = Note: %s\n", note)
	}
	return sb.String()
}

// sourceLine returns the 1-based line n of src without its line ending.
func sourceLine(src []byte, n int) (string, bool) {
	if n < 1 || len(src) == 0 {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

// formatTokenList joins token names as "a, b, or c".
func formatTokenList(types []lexer.TokenType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = tokenName(t)
	}
	return joinAlternatives(names)
}

// joinAlternatives renders "a", "a or b" and "a, b, or c".
func joinAlternatives(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	}
}

// tokenName describes a token type for error messages.
func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.IDENTIFIER:
		return "identifier"
	case lexer.STRING, lexer.TEMPLATE:
		return "string"
	case lexer.NUMBER:
		return "number"
	case lexer.EOF:
		return "end of file"
	case lexer.TAG_NAME:
		return "tag name"
	case lexer.ATTR_NAME:
		return "attribute name"
	case lexer.TEXT:
		return "text"
	case lexer.MUSTACHE:
		return "'{...}'"
	}
	return "'" + lexer.SymbolOf(t) + "'"
}
