package lexer

import "testing"

func TestIsIdentifierName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"item", true},
		{"_x", true},
		{"$store", true},
		{"a1", true},
		{"naïve", true},
		{"", false},
		{"1a", false},
		{"a-b", false},
		{"a b", false},
		{"on:click", false},
		{"if", true},
	}
	for _, tt := range tests {
		if got := IsIdentifierName(tt.in); got != tt.want {
			t.Errorf("IsIdentifierName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCharacterTables(t *testing.T) {
	for _, c := range []byte(" \t\n\r\f") {
		if !isSpace[c] {
			t.Errorf("%q should be space", c)
		}
	}
	if isSpace['a'] || !isIdentStart['$'] || isIdentStart['1'] || !isIdentPart['1'] {
		t.Error("identifier tables are wrong")
	}
	if !endsTagName['/'] || endsTagName[':'] || endsTagName['.'] {
		t.Error("tag names end at '/' but keep ':' and '.'")
	}
	if endsAttrName['|'] || endsAttrName[':'] || !endsAttrName['='] {
		t.Error("attribute names keep directive punctuation")
	}
}
