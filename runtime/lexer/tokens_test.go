package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPositionAdvance(t *testing.T) {
	start := Position{Line: 2, Column: 5, Offset: 10}
	tests := []struct {
		text string
		want Position
	}{
		{"", start},
		{"abc", Position{Line: 2, Column: 8, Offset: 13}},
		{"a\nbc", Position{Line: 3, Column: 3, Offset: 14}},
		{"é€", Position{Line: 2, Column: 7, Offset: 15}},
		{"\n\n", Position{Line: 4, Column: 1, Offset: 12}},
	}
	for _, tt := range tests {
		if got := start.Advance([]byte(tt.text)); got != tt.want {
			t.Errorf("Advance(%q) = %+v, want %+v", tt.text, got, tt.want)
		}
	}
}

func TestShift(t *testing.T) {
	// "{a}" on line 1 grew to "{a\n  b}": the region now ends on line 2.
	s := Shift{
		Old: Position{Line: 1, Column: 8, Offset: 7},
		New: Position{Line: 2, Column: 5, Offset: 11},
	}
	tests := []struct {
		in, want Position
	}{
		{Position{Line: 1, Column: 2, Offset: 1}, Position{Line: 1, Column: 2, Offset: 1}},
		{Position{Line: 1, Column: 8, Offset: 7}, Position{Line: 2, Column: 5, Offset: 11}},
		{Position{Line: 1, Column: 12, Offset: 11}, Position{Line: 2, Column: 9, Offset: 15}},
		{Position{Line: 3, Column: 4, Offset: 30}, Position{Line: 4, Column: 4, Offset: 34}},
	}
	var got, want []Position
	for _, tt := range tests {
		got = append(got, s.Position(tt.in))
		want = append(want, tt.want)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shifted positions (-want +got):\n%s", diff)
	}
	if span := s.Span(Span{Start: 3, End: 9}); span != (Span{Start: 3, End: 13}) {
		t.Errorf("Span = %+v", span)
	}
	if s.Delta() != 4 {
		t.Errorf("Delta = %d", s.Delta())
	}
}

func TestIsWholeMustache(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"{a}", true},
		{"{a ? {b: 1} : '}'}", true},
		{"{a}}", false},
		{"{a} ", false},
		{"{a", false},
		{"{'}", false},
		{"a}", false},
		{"{", false},
	}
	for _, tt := range tests {
		if got := IsWholeMustache([]byte(tt.src)); got != tt.want {
			t.Errorf("IsWholeMustache(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
