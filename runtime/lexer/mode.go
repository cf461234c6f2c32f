package lexer

import (
	"fmt"
	"strings"
)

// LanguageMode selects the dialect of every dual expression grammar: plain
// JavaScript or TypeScript. It is decided once per document and passed down
// to every region parse as an explicit value.
type LanguageMode uint8

const (
	ModeUnset   LanguageMode = iota // Not decided; nested parses must refuse it
	ModeUntyped                     // JavaScript expressions
	ModeTyped                       // TypeScript expressions
)

func (m LanguageMode) String() string {
	switch m {
	case ModeUntyped:
		return "js"
	case ModeTyped:
		return "ts"
	default:
		return "unset"
	}
}

// Typed reports whether m selects the TypeScript dialect.
func (m LanguageMode) Typed() bool { return m == ModeTyped }

// ParseLanguageMode parses a user-facing mode name. "auto" and "" map to
// ModeUnset so the caller falls back to detection.
func ParseLanguageMode(s string) (LanguageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeUnset, nil
	case "js", "javascript":
		return ModeUntyped, nil
	case "ts", "typescript":
		return ModeTyped, nil
	default:
		return ModeUnset, fmt.Errorf("unknown language mode %q (want auto, js or ts)", s)
	}
}

// modeFromLang maps the value of a <script lang="..."> attribute.
func modeFromLang(value []byte) LanguageMode {
	switch strings.ToLower(strings.TrimSpace(string(value))) {
	case "ts", "typescript":
		return ModeTyped
	default:
		return ModeUntyped
	}
}
