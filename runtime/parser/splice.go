package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// ErrNotSpliceable is returned by SpliceRegion when the new source cannot be
// reached by re-parsing a single region. The caller should parse again.
var ErrNotSpliceable = errors.New("edit is not local to the region")

// SpliceRegion updates t in place for source, a new version of t.Source that
// differs from it only inside region i. The region is re-parsed, everything
// after it is moved, and the scope, directives and diagnostics are derived
// again.
//
// The edit must leave region i a single terminated region of the same kind;
// otherwise ErrNotSpliceable is returned and t is unchanged.
func (t *ParseTree) SpliceRegion(i int, source []byte) error {
	if t.doc == nil {
		return fmt.Errorf("%w: tree was not produced by Parse", ErrNotSpliceable)
	}
	if i < 0 || i >= len(t.Regions) {
		return fmt.Errorf("%w: no region %d", ErrNotSpliceable, i)
	}
	r := t.Regions[i]
	delta := len(source) - len(t.Source)
	newEnd := r.Span.End + delta
	if newEnd <= r.Span.Start {
		return fmt.Errorf("%w: region %d removed", ErrNotSpliceable, i)
	}
	if !bytes.Equal(source[:r.Span.Start], t.Source[:r.Span.Start]) ||
		!bytes.Equal(source[newEnd:], t.Source[r.Span.End:]) {
		return fmt.Errorf("%w: source changed outside region %d", ErrNotSpliceable, i)
	}
	text := source[r.Span.Start:newEnd]
	if !lexer.IsWholeMustache(text) {
		return fmt.Errorf("%w: region %d is no longer one region", ErrNotSpliceable, i)
	}
	if r.Context == ContextContent && Classify(text) != r.Kind.Untyped() {
		return fmt.Errorf("%w: region %d changed kind", ErrNotSpliceable, i)
	}

	p := t.doc
	tree, events, err := parseRegion(p.cfg, p.trace, r.Kind, text, r.Start, t.Mode)
	if err != nil {
		return err
	}

	shift := lexer.Shift{
		Old: r.Start.Advance(t.Source[r.Span.Start:r.Span.End]),
		New: r.Start.Advance(text),
	}
	if shift.Old != shift.New {
		t.shift(i, shift)
	}

	t.Source = source
	t.Tokens[r.Token].Text = text
	t.Document.Tokens[r.Token].Text = text
	rebase(t.Tokens, source)
	rebase(t.Document.Tokens, source)
	for j := range t.Regions {
		if j != i && t.Regions[j].Tree != nil {
			rebase(t.Regions[j].Tree.Tokens, source)
		}
	}
	for k := range p.directives {
		d := &p.directives[k]
		d.nameTok.Text = source[d.nameTok.Position.Offset:d.nameTok.End()]
	}

	t.Regions[i].Span.End = newEnd
	t.Regions[i].Tree = tree
	p.events += events
	p.finalize()

	if t.Telemetry != nil {
		t.Telemetry.EventCount = p.events
		t.Telemetry.ErrorCount = len(t.Errors)
	}
	if p.cfg.debug > DebugOff {
		t.DebugEvents = p.trace.events
	}
	return nil
}

// shift moves every position recorded after region i.
func (t *ParseTree) shift(i int, s lexer.Shift) {
	for k := range t.Tokens {
		t.Tokens[k].Position = s.Position(t.Tokens[k].Position)
	}
	t.Document.Shift(s)
	for j := i + 1; j < len(t.Regions); j++ {
		r := &t.Regions[j]
		r.Span = s.Span(r.Span)
		r.Start = s.Position(r.Start)
		if r.Tree != nil {
			r.Tree.Shift(s)
		}
	}

	p := t.doc
	for k := range p.errors {
		e := &p.errors[k]
		e.Position = s.Position(e.Position)
		e.Span = s.Span(e.Span)
	}
	for k := range p.directives {
		d := &p.directives[k]
		d.nameTok.Position = s.Position(d.nameTok.Position)
		d.span = s.Span(d.span)
	}
}

// rebase points token text at src so no token keeps the replaced source
// alive.
func rebase(tokens []lexer.Token, src []byte) {
	for k := range tokens {
		tok := &tokens[k]
		if n := len(tok.Text); n > 0 {
			off := tok.Position.Offset
			tok.Text = src[off : off+n : off+n]
		}
	}
}
