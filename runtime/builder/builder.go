// Package builder implements the speculative marker protocol used by every
// grammar in the parser: mark, done, drop, rollback and precede.
//
// Markers are indices into an arena owned by the Builder. Each marker owns a
// start event in a flat event stream; Done turns the start event into an
// open event and appends a close event. Precede links a new start event into
// the original's forward-parent chain, so a parent can be inserted around a
// node without moving any events. The stream is converted to a Tree by Finish.
package builder

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"

	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// EventKind represents the type of parse event
type EventKind uint8

const (
	EventTombstone EventKind = iota // Unresolved or dropped marker start
	EventOpen                       // Open syntax node (Data = NodeKind)
	EventClose                      // Close syntax node
	EventToken                      // Consume token (Data = token index)
	EventError                      // Diagnostic (Data = diagnostic index)
)

// Event represents a parse tree construction event
type Event struct {
	Kind EventKind
	Data uint32
	// ForwardParent is the index of the start event of the marker that
	// precedes this one, or -1. Only start events use it.
	ForwardParent int32
}

// Marker is a handle to a node under construction. The zero Marker is invalid.
type Marker struct {
	id int32
}

// IsValid reports whether m was returned by a Builder.
func (m Marker) IsValid() bool { return m.id > 0 }

func (m Marker) String() string { return fmt.Sprintf("marker#%d", m.id) }

type markerStatus uint8

const (
	markerOpen markerStatus = iota
	markerDone
	markerDropped
	markerRolledBack
)

func (s markerStatus) String() string {
	switch s {
	case markerOpen:
		return "open"
	case markerDone:
		return "done"
	case markerDropped:
		return "dropped"
	default:
		return "rolled back"
	}
}

type markerState struct {
	event    int // index of the start event
	pos      int // raw token index of the first token the node may own
	diags    int // diagnostics recorded before the marker
	close    int // index of the close event once done
	status   markerStatus
	preceder bool // created by Precede; cannot be a rollback target
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger traces rollbacks and precedes at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Builder turns a token slice into an event stream under grammar control.
// A Builder is single-use and not safe for concurrent use; parse independent
// regions with independent builders.
type Builder struct {
	tokens      []lexer.Token
	pos         int // raw index of the current significant token
	emitted     int // raw index of the next token not yet in the event stream
	events      []Event
	markers     []markerState
	open        int
	diagnostics []Diagnostic
	finished    bool
	logger      *slog.Logger
}

// New creates a builder over tokens, which must end with EOF. The slice is
// copied because Remap rewrites token types in place.
func New(tokens []lexer.Token, opts ...Option) *Builder {
	invariant.Precondition(len(tokens) > 0 && tokens[len(tokens)-1].Type == lexer.EOF,
		"token stream must end with EOF")

	b := &Builder{
		tokens:  append([]lexer.Token(nil), tokens...),
		events:  make([]Event, 0, len(tokens)*3),
		markers: make([]markerState, 0, len(tokens)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pos = b.skipTrivia(0)
	return b
}

func (b *Builder) skipTrivia(i int) int {
	for i < len(b.tokens)-1 && b.tokens[i].Type.IsTrivia() {
		i++
	}
	return i
}

// Current returns the current significant token.
func (b *Builder) Current() lexer.Token {
	return b.tokens[b.pos]
}

// TokenType returns the type of the current significant token.
func (b *Builder) TokenType() lexer.TokenType {
	return b.tokens[b.pos].Type
}

// TokenText returns the text of the current significant token.
func (b *Builder) TokenText() string {
	return string(b.tokens[b.pos].Text)
}

// At reports whether the current token has type t.
func (b *Builder) At(t lexer.TokenType) bool {
	return b.tokens[b.pos].Type == t
}

// AtAny reports whether the current token has one of the given types.
func (b *Builder) AtAny(types ...lexer.TokenType) bool {
	cur := b.tokens[b.pos].Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

// AtWord reports whether the current token is an identifier or keyword
// spelled word. Contextual keywords are matched before they are remapped.
func (b *Builder) AtWord(word string) bool {
	tok := b.tokens[b.pos]
	return (tok.Type == lexer.IDENTIFIER || tok.Type.IsKeyword()) && string(tok.Text) == word
}

// Peek returns the n-th significant token after the current one.
func (b *Builder) Peek(n int) lexer.Token {
	invariant.InRange(n, 0, math.MaxInt, "peek distance")
	i := b.pos
	for ; n > 0 && i < len(b.tokens)-1; n-- {
		i = b.skipTrivia(i + 1)
	}
	return b.tokens[i]
}

// EOF reports whether the cursor is at the end of the stream.
func (b *Builder) EOF() bool {
	return b.tokens[b.pos].Type == lexer.EOF
}

// Pos returns the raw index of the current token. It only grows between
// rollbacks, which makes it suitable for progress invariants.
func (b *Builder) Pos() int {
	return b.pos
}

// AfterWhitespace reports whether trivia separates the current token from
// the previous one.
func (b *Builder) AfterWhitespace() bool {
	return b.pos > 0 && b.tokens[b.pos-1].Type.IsTrivia()
}

// NewlineBefore reports whether the trivia before the current token contains
// a line break.
func (b *Builder) NewlineBefore() bool {
	for i := b.pos - 1; i >= 0 && b.tokens[i].Type.IsTrivia(); i-- {
		if bytes.IndexByte(b.tokens[i].Text, '\n') >= 0 {
			return true
		}
	}
	return false
}

// Remap changes the type of the current token. The new type is visible in
// the finished tree.
func (b *Builder) Remap(t lexer.TokenType) {
	invariant.Precondition(!b.EOF(), "cannot remap EOF")
	b.tokens[b.pos].Type = t
}

// Advance consumes the current token, along with any trivia before it. It
// is a no-op at EOF.
func (b *Builder) Advance() {
	if b.EOF() {
		return
	}
	b.flushTrivia()
	b.events = append(b.events, Event{Kind: EventToken, Data: uint32(b.pos), ForwardParent: -1})
	b.emitted = b.pos + 1
	b.pos = b.skipTrivia(b.pos + 1)
}

// flushTrivia emits pending trivia so the next node starts at the current
// token rather than at the whitespace before it.
func (b *Builder) flushTrivia() {
	for ; b.emitted < b.pos; b.emitted++ {
		b.events = append(b.events, Event{Kind: EventToken, Data: uint32(b.emitted), ForwardParent: -1})
	}
}

// Mark opens a node at the current token.
func (b *Builder) Mark() Marker {
	invariant.Precondition(!b.finished, "builder already finished")
	b.flushTrivia()
	return b.newMarker(b.pos, len(b.diagnostics), false)
}

func (b *Builder) newMarker(pos, diags int, preceder bool) Marker {
	b.markers = append(b.markers, markerState{
		event:    len(b.events),
		pos:      pos,
		diags:    diags,
		close:    -1,
		status:   markerOpen,
		preceder: preceder,
	})
	b.events = append(b.events, Event{Kind: EventTombstone, ForwardParent: -1})
	b.open++
	return Marker{id: int32(len(b.markers))}
}

func (b *Builder) state(m Marker) *markerState {
	invariant.Precondition(m.id > 0 && int(m.id) <= len(b.markers), "invalid %s", m)
	return &b.markers[m.id-1]
}

func (b *Builder) requireOpen(m Marker, op string) *markerState {
	st := b.state(m)
	invariant.Precondition(st.status == markerOpen, "%s: %s is already %s", op, m, st.status)
	return st
}

// Done closes m as a node of kind, owning everything consumed since Mark.
// Every marker opened after m must already be resolved, except markers that
// precede m.
func (b *Builder) Done(m Marker, kind NodeKind) {
	st := b.requireOpen(m, "done")
	invariant.Precondition(kind != KindNone, "done: %s closed with KindNone", m)
	b.checkNested(m, st)

	b.events[st.event].Kind = EventOpen
	b.events[st.event].Data = uint32(kind)
	st.close = len(b.events)
	st.status = markerDone
	b.open--
	b.events = append(b.events, Event{Kind: EventClose, ForwardParent: -1})
}

// DoneError closes m as an error node and records msg against its range.
func (b *Builder) DoneError(m Marker, msg string) {
	b.DoneErrorWithSuggestion(m, msg, "")
}

// DoneErrorWithSuggestion is DoneError with a fix-it hint.
func (b *Builder) DoneErrorWithSuggestion(m Marker, msg, suggestion string) {
	st := b.state(m)
	span := lexer.Span{Start: b.tokens[st.pos].Position.Offset}
	span.End = span.Start
	if b.emitted > st.pos {
		span.End = b.tokens[b.emitted-1].End()
	}
	b.report(Diagnostic{
		Severity:   SeverityError,
		Message:    msg,
		Span:       span,
		Position:   b.tokens[st.pos].Position,
		Suggestion: suggestion,
	})
	b.Done(m, KindError)
}

func (b *Builder) checkNested(m Marker, st *markerState) {
	for i := int(m.id); i < len(b.markers); i++ {
		later := &b.markers[i]
		if later.status != markerOpen {
			continue
		}
		invariant.Precondition(b.inChain(st.event, later.event),
			"done: %s closed while inner marker#%d is still open", m, i+1)
	}
}

// inChain reports whether target is reachable from start through
// forward-parent links.
func (b *Builder) inChain(start, target int) bool {
	for e := b.events[start].ForwardParent; e >= 0; e = b.events[e].ForwardParent {
		if int(e) == target {
			return true
		}
	}
	return false
}

// Drop discards m without creating a node. Its tokens stay with the parent.
func (b *Builder) Drop(m Marker) {
	st := b.requireOpen(m, "drop")
	st.status = markerDropped
	b.open--
}

// Rollback rewinds the cursor to where m was opened. m and every marker
// opened after it become rolled back, and their events and diagnostics are
// discarded.
func (b *Builder) Rollback(m Marker) {
	st := b.requireOpen(m, "rollback")
	invariant.Precondition(!st.preceder, "rollback: %s was created by Precede", m)

	cut := st.event
	for i := int(m.id) - 1; i < len(b.markers); i++ {
		later := &b.markers[i]
		if later.status == markerOpen {
			later.status = markerRolledBack
			b.open--
		} else if later.status == markerDone {
			later.status = markerRolledBack
		}
	}
	for i := 0; i < int(m.id)-1; i++ {
		earlier := &b.markers[i]
		invariant.Invariant(earlier.status != markerDone || earlier.close < cut,
			"rollback: marker#%d was closed after %s was opened", i+1, m)
	}

	// Preceders created after the cut vanish; splice them out of the chains
	// of surviving start events.
	for i := 0; i < cut; i++ {
		fp := b.events[i].ForwardParent
		for fp >= int32(cut) {
			fp = b.events[fp].ForwardParent
		}
		b.events[i].ForwardParent = fp
	}
	b.events = b.events[:cut]
	b.diagnostics = b.diagnostics[:st.diags]
	b.pos = st.pos
	b.emitted = st.pos

	if b.logger != nil {
		b.logger.Debug("builder rollback", "marker", m.id, "pos", st.pos)
	}
}

// Precede returns a new marker that starts where m starts. When the new
// marker is done after m, its node becomes m's parent. m may be open or done.
// Preceding the same marker twice nests the second preceder inside the first.
func (b *Builder) Precede(m Marker) Marker {
	st := b.state(m)
	invariant.Precondition(st.status == markerOpen || st.status == markerDone,
		"precede: %s is already %s", m, st.status)

	orig := st.event
	pos, diags := st.pos, st.diags
	nm := b.newMarker(pos, diags, true)
	ns := b.state(nm)
	b.events[ns.event].ForwardParent = b.events[orig].ForwardParent
	b.events[orig].ForwardParent = int32(ns.event)

	if b.logger != nil {
		b.logger.Debug("builder precede", "marker", m.id, "preceder", nm.id)
	}
	return nm
}

// Error records an error diagnostic at the current token.
func (b *Builder) Error(msg string) {
	b.report(b.diagnosticHere(SeverityError, msg, ""))
}

// Errorf records a formatted error diagnostic at the current token.
func (b *Builder) Errorf(format string, args ...any) {
	b.report(b.diagnosticHere(SeverityError, fmt.Sprintf(format, args...), ""))
}

// ErrorWithSuggestion records an error carrying a fix-it hint.
func (b *Builder) ErrorWithSuggestion(msg, suggestion string) {
	b.report(b.diagnosticHere(SeverityError, msg, suggestion))
}

// Warning records a style diagnostic at the current token.
func (b *Builder) Warning(msg string) {
	b.report(b.diagnosticHere(SeverityWarning, msg, ""))
}

func (b *Builder) diagnosticHere(sev Severity, msg, suggestion string) Diagnostic {
	tok := b.tokens[b.pos]
	return Diagnostic{
		Severity:   sev,
		Message:    msg,
		Span:       tok.Span(),
		Position:   tok.Position,
		Suggestion: suggestion,
	}
}

func (b *Builder) report(d Diagnostic) {
	b.events = append(b.events, Event{Kind: EventError, Data: uint32(len(b.diagnostics)), ForwardParent: -1})
	b.diagnostics = append(b.diagnostics, d)
}

// OpenMarkers returns the number of markers not yet resolved.
func (b *Builder) OpenMarkers() int {
	return b.open
}

// Events returns the event stream built so far. The slice is shared.
func (b *Builder) Events() []Event {
	return b.events
}

// Finish consumes any remaining tokens and builds the tree. Every marker must
// be resolved and exactly one top-level node must exist.
func (b *Builder) Finish() *Tree {
	invariant.Precondition(!b.finished, "builder already finished")
	invariant.Postcondition(b.open == 0, "%d markers left open", b.open)
	b.finished = true

	for !b.EOF() {
		b.Advance()
	}
	b.pos = len(b.tokens) - 1
	b.flushTrivia()

	return buildTree(b.tokens, b.events, b.diagnostics)
}
