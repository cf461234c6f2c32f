package parser

import (
	"fmt"

	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// eachState is a state of the each-binding disambiguator.
//
// In typed mode "items as X" is ambiguous until the token after X is seen:
// X is the item pattern when the header ends there, and a type assertion on
// items when another "as" follows. The machine parses X as a pattern first
// and rolls back to reparse it as a type.
type eachState uint8

const (
	eachExpr eachState = iota
	eachAs
	eachItem
	eachASType
	eachType
	eachBaseEnd
	eachIndex
	eachKey
	eachStop
)

var eachStateNames = [...]string{
	eachExpr:    "Expr",
	eachAs:      "As",
	eachItem:    "Item",
	eachASType:  "ASType",
	eachType:    "Type",
	eachBaseEnd: "BaseEnd",
	eachIndex:   "Index",
	eachKey:     "Key",
	eachStop:    "Stop",
}

func (s eachState) String() string {
	if int(s) < len(eachStateNames) {
		return eachStateNames[s]
	}
	return fmt.Sprintf("eachState(%d)", uint8(s))
}

// eachMachine holds the checkpoint stack while an each header is parsed.
// Every checkpoint on the stack holds two open markers.
type eachMachine struct {
	r     *regionParser
	b     *builder.Builder
	stack builder.CheckpointStack
}

// eachHeader parses "items as item, index (key)".
func (r *regionParser) eachHeader() {
	fsm := &eachMachine{r: r, b: r.b}
	fsm.run()
}

func (fsm *eachMachine) run() {
	state := eachExpr
	limit := fsm.r.cfg.maxEachTransitions
	for transitions := 0; state != eachStop; transitions++ {
		if transitions >= limit {
			fsm.fail("each block is too long",
				fmt.Sprintf("the header needs more than %d steps to parse; simplify the type assertions", limit))
			return
		}
		if fsm.r.cfg.debug >= DebugDetailed {
			fsm.r.trace.record("each_state", fsm.b.Pos(), state.String())
		}
		state = fsm.step(state)
	}
}

// fail drops every outstanding checkpoint and reports msg.
func (fsm *eachMachine) fail(msg, suggestion string) eachState {
	fsm.b.Unwind(&fsm.stack)
	fsm.r.fail(msg, suggestion)
	return eachStop
}

func (fsm *eachMachine) unexpected() eachState {
	return fsm.fail(fmt.Sprintf("unexpected token %s", fsm.b.Current().Symbol()), "")
}

// atEnd reports whether the item pattern ends here.
func (fsm *eachMachine) atEnd() bool {
	return fsm.b.AtAny(lexer.END_MUSTACHE, lexer.EOF, lexer.COMMA, lexer.LPAREN)
}

func (fsm *eachMachine) atClose() bool {
	return fsm.b.AtAny(lexer.END_MUSTACHE, lexer.EOF)
}

func (fsm *eachMachine) step(state eachState) eachState {
	b := fsm.b
	g := fsm.r.g

	switch state {
	case eachExpr:
		m := b.Mark()
		hidden := b.Mark()
		fsm.stack.Push(builder.NewCheckpoint(hidden, m))
		if !g.PrimaryExpression() {
			fsm.b.Unwind(&fsm.stack)
			fsm.r.failed = true
			return eachStop
		}
		switch {
		case fsm.atEnd():
			return eachBaseEnd
		case b.AtWord("as"):
			return eachAs
		}
		return fsm.unexpected()

	case eachAs:
		restore := b.Mark()
		b.Remap(lexer.AS)
		b.Advance()
		marker := b.Mark()
		fsm.stack.Push(builder.NewCheckpoint(restore, marker))
		return eachItem

	case eachItem:
		kind, ok := g.DestructuringPatternNoMarker(true)
		if fsm.atEnd() {
			cp := fsm.stack.Pop()
			if ok {
				b.Done(cp.Marker, kind)
			} else {
				b.Drop(cp.Marker)
			}
			b.Drop(cp.Restore)
			return eachBaseEnd
		}
		if g.Typed() {
			cp := fsm.stack.Pop()
			b.Drop(cp.Marker)
			b.Rollback(cp.Restore)
			return eachASType
		}
		if b.AtWord("as") {
			cp := fsm.stack.Pop()
			b.Drop(cp.Marker)
			b.Rollback(cp.Restore)
			b.Advance() // as
			return fsm.fail(fmt.Sprintf("unexpected token %s", b.Current().Symbol()),
				`type assertions need <script lang="ts">`)
		}
		if !ok {
			fsm.b.Unwind(&fsm.stack)
			fsm.r.failed = true
			return eachStop
		}
		return fsm.unexpected()

	case eachASType:
		b.Remap(lexer.AS)
		b.Advance()
		return eachType

	case eachType:
		p := fsm.stack.Pop()
		b.Drop(p.Restore)
		marker := b.Precede(p.Marker)
		restore := b.Precede(marker)
		fsm.stack.Push(builder.NewCheckpoint(restore, marker))

		probe := b.Mark()
		if !g.Type() {
			b.Rollback(probe)
			b.Drop(p.Marker)
			return fsm.fail("type parsing failed", "")
		}
		b.Drop(probe)
		b.Done(p.Marker, builder.KindAsExpression)
		if b.AtWord("as") {
			return eachAs
		}
		return fsm.fail("expected 'as' and an item pattern", "")

	case eachBaseEnd:
		b.DropCheckpoint(fsm.stack.Pop())
		switch {
		case b.At(lexer.COMMA):
			b.Advance()
			if !b.At(lexer.IDENTIFIER) {
				return fsm.fail("expected an identifier for the index", "")
			}
			return eachIndex
		case b.At(lexer.LPAREN):
			return eachKey
		case fsm.atClose():
			return fsm.close()
		}
		return fsm.unexpected()

	case eachIndex:
		m := b.Mark()
		b.Advance()
		b.Done(m, builder.KindParameter)
		switch {
		case b.At(lexer.LPAREN):
			return eachKey
		case fsm.atClose():
			return fsm.close()
		}
		return fsm.unexpected()

	case eachKey:
		m := b.Mark()
		g.ParenthesizedExpression()
		b.Done(m, builder.KindTagDependentExpression)
		if fsm.atClose() {
			return fsm.close()
		}
		return fsm.fail(fmt.Sprintf("expected '}', unexpected token %s", b.Current().Symbol()), "")
	}
	invariant.Unreachable("each state %s has no transition", state)
	return eachStop
}

func (fsm *eachMachine) close() eachState {
	if fsm.b.At(lexer.END_MUSTACHE) {
		fsm.r.closeBrace()
	}
	return eachStop
}
