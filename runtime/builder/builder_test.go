package builder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

func scan(src string) []lexer.Token {
	return lexer.ScanScript([]byte(src), lexer.Position{Line: 1, Column: 1}, true)
}

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic containing %q", contains)
		assert.Contains(t, fmt.Sprint(r), contains)
	}()
	fn()
}

func dump(s string) string { return strings.TrimLeft(s, "\n") }

func TestDoneWrapsConsumedTokens(t *testing.T) {
	b := New(scan("a + b"))
	root := b.Mark()
	lhs := b.Mark()
	b.Advance()
	b.Done(lhs, KindIdentifier)
	b.Advance() // +
	rhs := b.Mark()
	b.Advance()
	b.Done(rhs, KindIdentifier)
	b.Done(root, KindBinaryExpression)

	tree := b.Finish()
	want := `
BinaryExpression
  Identifier
    IDENTIFIER "a"
  PLUS "+"
  Identifier
    IDENTIFIER "b"
`
	if diff := cmp.Diff(dump(want), tree.Dump()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "a + b", tree.Text(tree.Root()))
}

func TestDropLeavesTokensWithParent(t *testing.T) {
	b := New(scan("a b"))
	root := b.Mark()
	m := b.Mark()
	b.Advance()
	b.Drop(m)
	b.Advance()
	b.Done(root, KindContentExpression)

	tree := b.Finish()
	want := `
ContentExpression
  IDENTIFIER "a"
  IDENTIFIER "b"
`
	if diff := cmp.Diff(dump(want), tree.Dump()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestNodesExcludeLeadingTrivia(t *testing.T) {
	b := New(scan("a   b"))
	root := b.Mark()
	b.Advance()
	m := b.Mark()
	b.Advance()
	b.Done(m, KindIdentifier)
	b.Done(root, KindContentExpression)

	tree := b.Finish()
	ids := tree.Find(KindIdentifier)
	require.Len(t, ids, 1)
	assert.Equal(t, lexer.Span{Start: 4, End: 5}, tree.Span(ids[0]))
	assert.Equal(t, lexer.Span{Start: 0, End: 5}, tree.Span(tree.Root()))
}

func TestRootOwnsUnclaimedTrivia(t *testing.T) {
	src := "  /* lead */ x // trail"
	b := New(scan(src))
	root := b.Mark()
	b.Advance()
	b.Done(root, KindIdentifier)

	tree := b.Finish()
	assert.Equal(t, src, tree.Text(tree.Root()))
	assert.Equal(t, lexer.Span{Start: 0, End: len(src)}, tree.Span(tree.Root()))
}

func TestRollbackRewindsCursorAndDiagnostics(t *testing.T) {
	b := New(scan("x y"))
	root := b.Mark()
	start := b.Pos()

	attempt := b.Mark()
	inner := b.Mark()
	b.Advance()
	b.Done(inner, KindIdentifier)
	b.Error("wrong guess")
	b.Advance()
	b.Rollback(attempt)

	assert.Equal(t, start, b.Pos())
	assert.Equal(t, "x", b.TokenText())

	b.Advance()
	b.Advance()
	b.Done(root, KindContentExpression)

	tree := b.Finish()
	assert.Empty(t, tree.Diagnostics, "diagnostics from the abandoned attempt must be discarded")
	assert.Empty(t, tree.Find(KindIdentifier))
	assert.Equal(t, "x y", tree.Text(tree.Root()))
}

func TestRollbackInvalidatesLaterMarkers(t *testing.T) {
	b := New(scan("x y"))
	root := b.Mark()
	attempt := b.Mark()
	later := b.Mark()
	b.Advance()
	b.Rollback(attempt)

	assert.Equal(t, 1, b.OpenMarkers())
	expectPanic(t, "already rolled back", func() { b.Done(later, KindIdentifier) })
	expectPanic(t, "already rolled back", func() { b.Drop(attempt) })

	b.Done(root, KindContentExpression)
	b.Finish()
}

func TestRollbackRejectsPreceder(t *testing.T) {
	b := New(scan("x"))
	m := b.Mark()
	p := b.Precede(m)
	expectPanic(t, "created by Precede", func() { b.Rollback(p) })
}

func TestRollbackSplicesPrecedersAfterCut(t *testing.T) {
	b := New(scan("a b"))
	root := b.Mark()
	a := b.Mark()
	b.Advance()
	b.Done(a, KindIdentifier)

	attempt := b.Mark()
	wrap := b.Precede(a) // linked from a, created after the cut
	b.Advance()
	b.Done(wrap, KindBinaryExpression)
	b.Rollback(attempt)

	b.Advance()
	b.Done(root, KindContentExpression)

	tree := b.Finish()
	want := `
ContentExpression
  Identifier
    IDENTIFIER "a"
  IDENTIFIER "b"
`
	if diff := cmp.Diff(dump(want), tree.Dump()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestPrecedeWrapsDoneNode(t *testing.T) {
	b := New(scan("a.b"))
	m := b.Mark()
	b.Advance()
	b.Done(m, KindIdentifier)

	outer := b.Precede(m)
	b.Advance() // .
	b.Advance() // b
	b.Done(outer, KindMemberExpression)

	tree := b.Finish()
	want := `
MemberExpression
  Identifier
    IDENTIFIER "a"
  DOT "."
  IDENTIFIER "b"
`
	if diff := cmp.Diff(dump(want), tree.Dump()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

// A chain of preceders on a still-open marker, closed inner first, is the
// shape the each header uses to turn "items as Item" into an as-expression.
func TestPrecedeOpenMarkerChain(t *testing.T) {
	b := New(scan("items as Item"))
	root := b.Mark()
	expr := b.Mark()
	hidden := b.Mark()
	id := b.Mark()
	b.Advance()
	b.Done(id, KindIdentifier)
	b.Drop(hidden)

	marker := b.Precede(expr)
	restore := b.Precede(marker)
	b.Remap(lexer.AS)
	b.Advance()
	ty := b.Mark()
	b.Advance()
	b.Done(ty, KindTypeReference)
	b.Done(expr, KindAsExpression)
	b.DropCheckpoint(NewCheckpoint(restore, marker))
	b.Done(root, KindEachStart)

	tree := b.Finish()
	want := `
EachStart
  AsExpression
    Identifier
      IDENTIFIER "items"
    AS "as"
    TypeReference
      IDENTIFIER "Item"
`
	if diff := cmp.Diff(dump(want), tree.Dump()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestPrecedeTwiceNestsSecondOutside(t *testing.T) {
	b := New(scan("x"))
	m := b.Mark()
	b.Advance()
	b.Done(m, KindIdentifier)
	inner := b.Precede(m)
	outer := b.Precede(inner)
	b.Done(inner, KindParenthesizedExpression)
	b.Done(outer, KindContentExpression)

	tree := b.Finish()
	want := `
ContentExpression
  ParenthesizedExpression
    Identifier
      IDENTIFIER "x"
`
	if diff := cmp.Diff(dump(want), tree.Dump()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkerUsedTwicePanics(t *testing.T) {
	b := New(scan("x"))
	m := b.Mark()
	b.Advance()
	b.Done(m, KindIdentifier)

	expectPanic(t, "already done", func() { b.Done(m, KindIdentifier) })
	expectPanic(t, "already done", func() { b.Drop(m) })
	expectPanic(t, "invalid", func() { b.Done(Marker{}, KindIdentifier) })
}

func TestDoneWithOpenInnerMarkerPanics(t *testing.T) {
	b := New(scan("x"))
	outer := b.Mark()
	b.Mark()
	expectPanic(t, "still open", func() { b.Done(outer, KindContentExpression) })
}

func TestFinishRequiresResolvedMarkers(t *testing.T) {
	b := New(scan("x"))
	b.Mark()
	expectPanic(t, "markers left open", func() { b.Finish() })
}

func TestNewRequiresEOF(t *testing.T) {
	tokens := scan("x")
	expectPanic(t, "must end with EOF", func() { New(tokens[:len(tokens)-1]) })
}

func TestDiagnosticsAttachToInnermostNode(t *testing.T) {
	b := New(scan("a b"))
	root := b.Mark()
	b.Advance()
	m := b.Mark()
	b.Error("inside")
	b.Advance()
	b.Done(m, KindIdentifier)
	b.Warning("outside")
	b.Done(root, KindContentExpression)

	tree := b.Finish()
	require.Len(t, tree.Diagnostics, 2)
	ids := tree.Find(KindIdentifier)
	require.Len(t, ids, 1)
	assert.Equal(t, ids[0], tree.Diagnostics[0].Node)
	assert.Equal(t, tree.Root(), tree.Diagnostics[1].Node)
	assert.Equal(t, SeverityWarning, tree.Diagnostics[1].Severity)
	assert.Equal(t, lexer.Span{Start: 2, End: 3}, tree.Diagnostics[0].Span)
}

func TestDoneErrorRecordsRange(t *testing.T) {
	b := New(scan("@ x"))
	root := b.Mark()
	m := b.Mark()
	b.Advance()
	b.DoneError(m, "modifiers are not allowed here")
	b.Advance()
	b.Done(root, KindAttributeExpression)

	tree := b.Finish()
	errs := tree.Find(KindError)
	require.Len(t, errs, 1)
	require.Len(t, tree.Diagnostics, 1)
	assert.Equal(t, lexer.Span{Start: 0, End: 1}, tree.Diagnostics[0].Span)
}

func TestCheckpointPairMustBeDistinct(t *testing.T) {
	b := New(scan("x"))
	m := b.Mark()
	expectPanic(t, "checkpoint restore and marker must differ", func() { NewCheckpoint(m, m) })
	expectPanic(t, "must be valid", func() { NewCheckpoint(Marker{}, m) })
}

func TestUnwindDropsEveryCheckpoint(t *testing.T) {
	b := New(scan("a b c"))
	root := b.Mark()
	var stack CheckpointStack
	for i := 0; i < 3; i++ {
		restore := b.Mark()
		marker := b.Mark()
		stack.Push(NewCheckpoint(restore, marker))
		b.Advance()
	}
	require.Equal(t, 7, b.OpenMarkers())

	b.Unwind(&stack)
	assert.Equal(t, 0, stack.Len())
	assert.Equal(t, 1, b.OpenMarkers())

	b.Done(root, KindContentExpression)
	tree := b.Finish()
	assert.Len(t, tree.Nodes, 1)
	expectPanic(t, "empty checkpoint stack", func() { stack.Pop() })
}

func TestAfterWhitespaceAndNewline(t *testing.T) {
	b := New(scan("a\n b c"))
	assert.False(t, b.AfterWhitespace())
	b.Advance()
	assert.True(t, b.AfterWhitespace())
	assert.True(t, b.NewlineBefore())
	b.Advance()
	assert.True(t, b.AfterWhitespace())
	assert.False(t, b.NewlineBefore())
	assert.Equal(t, "c", b.TokenText())
	assert.Equal(t, lexer.EOF, b.Peek(1).Type)
	expectPanic(t, "peek distance must be in range", func() { b.Peek(-1) })
}

func TestDualKindSelect(t *testing.T) {
	d := Dual(KindEachStart)
	assert.Equal(t, KindEachStart, d.Select(lexer.ModeUntyped))
	assert.Equal(t, KindEachStartTyped, d.Select(lexer.ModeTyped))
	assert.True(t, KindEachStartTyped.IsTypedVariant())
	assert.Equal(t, KindEachStart, KindEachStartTyped.Untyped())
	expectPanic(t, "untyped", func() { Dual(KindEachStartTyped) })
}

func TestShiftMovesPositionsAfterEdit(t *testing.T) {
	b := New(scan("a\nb"))
	root := b.Mark()
	b.Advance()
	m := b.Mark()
	b.Error("late")
	b.Advance()
	b.Done(m, KindIdentifier)
	b.Done(root, KindContentExpression)
	tree := b.Finish()

	// "a" grew into "a..." spanning a line break: four more bytes, one more line.
	tree.Shift(lexer.Shift{
		Old: lexer.Position{Line: 1, Column: 2, Offset: 1},
		New: lexer.Position{Line: 2, Column: 3, Offset: 5},
	})

	var got []lexer.Position
	for _, tok := range tree.Tokens {
		got = append(got, tok.Position)
	}
	want := []lexer.Position{
		{Line: 1, Column: 1, Offset: 0},
		{Line: 2, Column: 3, Offset: 5},
		{Line: 3, Column: 1, Offset: 6},
		{Line: 3, Column: 2, Offset: 7},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token positions (-want +got):\n%s", diff)
	}
	assert.Equal(t, lexer.Span{Start: 0, End: 7}, tree.Span(tree.Root()))
	require.Len(t, tree.Diagnostics, 1)
	assert.Equal(t, lexer.Span{Start: 6, End: 7}, tree.Diagnostics[0].Span)
	assert.Equal(t, lexer.Position{Line: 3, Column: 1, Offset: 6}, tree.Diagnostics[0].Position)
}
