package lexer

import (
	"unicode"
	"unicode/utf8"
)

// ASCII character lookup tables for fast classification (zero-allocation)
//
// Use inline bounds-checked lookups:
//
//	if ch < 128 && isLetter[ch] { ... }
//
// For non-ASCII bytes fall back to the unicode package.
var (
	isSpace       [128]bool // Space, tab, newline, carriage return, form feed
	isLetter      [128]bool // a-z, A-Z
	isDigit       [128]bool // 0-9
	isIdentStart  [128]bool // Letter, _ or $
	isIdentPart   [128]bool // Identifier start or digit
	endsTagName   [128]bool // Bytes that terminate <name
	endsAttrName  [128]bool // Bytes that terminate an attribute name
	endsAttrValue [128]bool // Bytes that terminate an unquoted attribute value
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isSpace[i] = ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
		isLetter[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		isDigit[i] = '0' <= ch && ch <= '9'
		isIdentStart[i] = isLetter[i] || ch == '_' || ch == '$'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
	}
	for _, ch := range []byte(" \t\n\r\f>/{\"'=<") {
		endsTagName[ch] = true
	}
	for _, ch := range []byte(" \t\n\r\f=>{\"'<") {
		endsAttrName[ch] = true
	}
	for _, ch := range []byte(" \t\n\r\f>{\"'`=<") {
		endsAttrValue[ch] = true
	}
}

func spaceAt(src []byte, i int) bool {
	return i < len(src) && src[i] < 128 && isSpace[src[i]]
}

func letterAt(src []byte, i int) bool {
	return i < len(src) && src[i] < 128 && isLetter[src[i]]
}

// IsIdentifierName reports whether s is a single script identifier: an
// identifier start followed by identifier parts. Unicode letters are allowed.
// Reserved words are not rejected.
func IsIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r < utf8.RuneSelf {
			c := byte(r)
			if (i == 0 && !isIdentStart[c]) || (i > 0 && !isIdentPart[c]) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
