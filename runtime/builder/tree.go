package builder

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError   Severity = iota // Syntax error; the node is still produced
	SeverityWarning                 // Style issue such as whitespace after a sigil
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a message recorded against a span while building.
type Diagnostic struct {
	Severity   Severity
	Message    string
	Span       lexer.Span
	Position   lexer.Position
	Suggestion string
	Node       NodeID // innermost node open when the diagnostic was recorded
}

// NodeID indexes Tree.Nodes. The root is always 0.
type NodeID int32

// NoNode is the parent of the root.
const NoNode NodeID = -1

// Child is either a node or a token owned by a node.
type Child struct {
	IsToken bool
	Index   int // NodeID when !IsToken, index into Tree.Tokens otherwise
}

// Node is a typed, span-owning unit of the tree.
type Node struct {
	Kind     NodeKind
	Parent   NodeID
	Children []Child
	Span     lexer.Span
}

// Tree is the immutable result of one builder pass.
type Tree struct {
	Tokens      []lexer.Token
	Nodes       []Node
	Diagnostics []Diagnostic
}

func buildTree(tokens []lexer.Token, events []Event, diags []Diagnostic) *Tree {
	t := &Tree{
		Tokens:      tokens,
		Nodes:       make([]Node, 0, len(events)/3+1),
		Diagnostics: append([]Diagnostic(nil), diags...),
	}

	consumed := make([]bool, len(events))
	var stack []NodeID
	var leading, trailing []Child
	var orphans []int
	var kinds []NodeKind
	roots := 0
	offset := 0
	if len(tokens) > 0 {
		offset = tokens[0].Position.Offset
	}

	appendChild := func(c Child) {
		switch {
		case len(stack) > 0:
			top := stack[len(stack)-1]
			t.Nodes[top].Children = append(t.Nodes[top].Children, c)
		case roots == 0:
			leading = append(leading, c)
		default:
			trailing = append(trailing, c)
		}
	}

	for i, ev := range events {
		switch ev.Kind {
		case EventTombstone, EventOpen:
			if consumed[i] {
				continue
			}
			// Collect the forward-parent chain; the last entry is outermost.
			kinds = kinds[:0]
			for e := i; e >= 0; e = int(events[e].ForwardParent) {
				consumed[e] = true
				if events[e].Kind == EventOpen {
					kinds = append(kinds, NodeKind(events[e].Data))
				}
			}
			for k := len(kinds) - 1; k >= 0; k-- {
				id := NodeID(len(t.Nodes))
				parent := NoNode
				if len(stack) > 0 {
					parent = stack[len(stack)-1]
				} else {
					roots++
					invariant.Invariant(roots == 1, "tree has more than one top-level node")
				}
				t.Nodes = append(t.Nodes, Node{
					Kind:   kinds[k],
					Parent: parent,
					Span:   lexer.Span{Start: offset, End: offset},
				})
				if parent != NoNode {
					t.Nodes[parent].Children = append(t.Nodes[parent].Children, Child{Index: int(id)})
				}
				stack = append(stack, id)
			}

		case EventClose:
			invariant.Invariant(len(stack) > 0, "close event without open node")
			stack = stack[:len(stack)-1]

		case EventToken:
			tok := tokens[ev.Data]
			appendChild(Child{IsToken: true, Index: int(ev.Data)})
			offset = tok.End()

		case EventError:
			if len(stack) > 0 {
				t.Diagnostics[ev.Data].Node = stack[len(stack)-1]
			} else {
				orphans = append(orphans, int(ev.Data))
			}
		}
	}
	invariant.Postcondition(len(stack) == 0, "%d nodes left open", len(stack))
	invariant.Postcondition(roots == 1, "tree must have exactly one root, got %d", roots)

	root := &t.Nodes[0]
	if len(leading) > 0 {
		root.Children = append(leading, root.Children...)
	}
	root.Children = append(root.Children, trailing...)
	for _, d := range orphans {
		t.Diagnostics[d].Node = 0
	}

	t.computeSpan(0)
	return t
}

// computeSpan widens each non-empty node to the tokens it owns.
func (t *Tree) computeSpan(id NodeID) (lexer.Span, bool) {
	n := &t.Nodes[id]
	var span lexer.Span
	found := false
	for _, c := range n.Children {
		var s lexer.Span
		ok := true
		if c.IsToken {
			s = t.Tokens[c.Index].Span()
		} else {
			s, ok = t.computeSpan(NodeID(c.Index))
		}
		if !ok {
			continue
		}
		if !found {
			span = s
			found = true
		} else {
			span.End = s.End
		}
	}
	if found {
		n.Span = span
	}
	return n.Span, found
}

// Root returns the root node id.
func (t *Tree) Root() NodeID { return 0 }

// Kind returns the kind of node id.
func (t *Tree) Kind(id NodeID) NodeKind { return t.Nodes[id].Kind }

// Span returns the byte range of node id.
func (t *Tree) Span(id NodeID) lexer.Span { return t.Nodes[id].Span }

// Parent returns the parent of node id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.Nodes[id].Parent }

// ChildNodes returns the node children of id in order.
func (t *Tree) ChildNodes(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Nodes[id].Children {
		if !c.IsToken {
			out = append(out, NodeID(c.Index))
		}
	}
	return out
}

// TokensOf returns every token owned by id's subtree, trivia included, in
// source order.
func (t *Tree) TokensOf(id NodeID) []lexer.Token {
	var out []lexer.Token
	var walk func(NodeID)
	walk = func(n NodeID) {
		for _, c := range t.Nodes[n].Children {
			if c.IsToken {
				out = append(out, t.Tokens[c.Index])
			} else {
				walk(NodeID(c.Index))
			}
		}
	}
	walk(id)
	return out
}

// SignificantTokens returns the non-trivia tokens owned by id's subtree.
func (t *Tree) SignificantTokens(id NodeID) []lexer.Token {
	var out []lexer.Token
	for _, tok := range t.TokensOf(id) {
		if !tok.Type.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

// Text concatenates the text of every token owned by id's subtree.
func (t *Tree) Text(id NodeID) string {
	var sb strings.Builder
	for _, tok := range t.TokensOf(id) {
		sb.Write(tok.Text)
	}
	return sb.String()
}

// Walk visits nodes in preorder. Returning false skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	var walk func(NodeID, int)
	walk = func(id NodeID, depth int) {
		if !fn(id, depth) {
			return
		}
		for _, c := range t.Nodes[id].Children {
			if !c.IsToken {
				walk(NodeID(c.Index), depth+1)
			}
		}
	}
	if len(t.Nodes) > 0 {
		walk(0, 0)
	}
}

// Find returns every node of kind in preorder.
func (t *Tree) Find(kind NodeKind) []NodeID {
	return t.FindIn(0, kind)
}

// FindIn returns every node of kind inside id's subtree, id included.
func (t *Tree) FindIn(id NodeID, kind NodeKind) []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(n NodeID) {
		if t.Nodes[n].Kind == kind {
			out = append(out, n)
		}
		for _, c := range t.Nodes[n].Children {
			if !c.IsToken {
				walk(NodeID(c.Index))
			}
		}
	}
	walk(id)
	return out
}

// DiagnosticsOf returns the diagnostics whose innermost node is id.
func (t *Tree) DiagnosticsOf(id NodeID) []Diagnostic {
	var out []Diagnostic
	for _, d := range t.Diagnostics {
		if d.Node == id {
			out = append(out, d)
		}
	}
	return out
}

// Dump renders the tree one node or token per line, two spaces per level.
// Trivia is omitted. Diagnostics appear under the node that owns them.
//
//	IfStart
//	  LBRACE "{"
//	  SHARP "#"
//	  IF "if"
//	  Identifier
//	    IDENTIFIER "x"
//	  RBRACE "}"
func (t *Tree) Dump() string {
	var sb strings.Builder
	var walk func(NodeID, int)
	walk = func(id NodeID, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s%s\n", indent, t.Nodes[id].Kind)
		for _, d := range t.DiagnosticsOf(id) {
			fmt.Fprintf(&sb, "%s  %s %q\n", indent, d.Severity, d.Message)
		}
		for _, c := range t.Nodes[id].Children {
			if !c.IsToken {
				walk(NodeID(c.Index), depth+1)
				continue
			}
			tok := t.Tokens[c.Index]
			if tok.Type.IsTrivia() {
				continue
			}
			fmt.Fprintf(&sb, "%s  %s %q\n", indent, tok.Type, tok.Text)
		}
	}
	if len(t.Nodes) > 0 {
		walk(0, 0)
	}
	return sb.String()
}

// Shift moves every position in the tree that lies at or after s.Old by the
// distance to s.New. Positions before s.Old are untouched.
func (t *Tree) Shift(s lexer.Shift) {
	for i := range t.Tokens {
		t.Tokens[i].Position = s.Position(t.Tokens[i].Position)
	}
	for i := range t.Nodes {
		t.Nodes[i].Span = s.Span(t.Nodes[i].Span)
	}
	for i := range t.Diagnostics {
		d := &t.Diagnostics[i]
		d.Span = s.Span(d.Span)
		d.Position = s.Position(d.Position)
	}
}
