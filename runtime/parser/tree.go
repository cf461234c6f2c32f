package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/directives"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// ParseTree represents the result of parsing
type ParseTree struct {
	Source     []byte             // Original source (for reference)
	Filename   string             // Reported in errors
	Mode       lexer.LanguageMode // Expression dialect used for every region
	Tokens     []lexer.Token      // Markup tokens from the lexer
	Document   *builder.Tree      // Markup structure; regions appear as leaves
	Regions    []Region           // One per mustache token, in source order
	Directives []Directive        // Directive attributes, in source order
	Scope      *directives.Scope  // Names declared by scripts and template bindings

	Errors      []ParseError    // Parse errors
	Warnings    []ParseWarning  // Parse warnings (non-fatal issues)
	Telemetry   *ParseTelemetry // Performance metrics (nil if disabled)
	DebugEvents []DebugEvent    // Debug events (nil if disabled)

	regionByToken map[int]int
	doc           *documentParser // Retained for SpliceRegion
}

// RegionContext is where in the markup a mustache region appears.
type RegionContext uint8

const (
	ContextContent        RegionContext = iota // Between tags: blocks, {expr}, {@html}
	ContextAttributeValue                      // name={...} or inside a quoted value
	ContextTag                                 // <div {...props}> or <div {name}>
)

func (c RegionContext) String() string {
	switch c {
	case ContextAttributeValue:
		return "attribute value"
	case ContextTag:
		return "tag"
	default:
		return "content"
	}
}

// Region is one parsed mustache region. Each region is parsed by its
// own builder from its own token range, so it can be re-parsed without
// touching its siblings.
type Region struct {
	Kind    builder.NodeKind // Mode-selected kind, e.g. EachStartTyped
	Context RegionContext
	Token   int            // Index of the MUSTACHE token in ParseTree.Tokens
	Span    lexer.Span     // Byte range of the region, braces included
	Start   lexer.Position // Position of Span.Start
	Tree    *builder.Tree  // Nil only if the region failed with an InternalError
}

// Text returns the region source.
func (r Region) Text(src []byte) string {
	return string(src[r.Span.Start:r.Span.End])
}

// Directive is a directive attribute found on an element or component.
type Directive struct {
	directives.Name
	Tag        string     // Tag name of the owning element
	Span       lexer.Span // Span of the whole attribute
	NameStart  lexer.Position
	Shorthand  bool // No "=value"
	Value      int  // Region index of the value, or -1
	Resolution directives.Resolution
}

// RegionAt returns the region whose MUSTACHE token has index tok.
func (t *ParseTree) RegionAt(tok int) (*Region, bool) {
	i, ok := t.regionByToken[tok]
	if !ok {
		return nil, false
	}
	return &t.Regions[i], true
}

// RegionIndex returns the index in Regions of the region owning offset, or
// -1. Braces count as part of the region.
func (t *ParseTree) RegionIndex(offset int) int {
	lo, hi := 0, len(t.Regions)
	for lo < hi {
		mid := (lo + hi) / 2
		switch r := t.Regions[mid].Span; {
		case offset < r.Start:
			hi = mid
		case offset >= r.End:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

// HasErrors reports whether any error was recorded.
func (t *ParseTree) HasErrors() bool {
	return len(t.Errors) > 0
}

// Dump renders the document with each region's tree nested under its
// mustache token.
func (t *ParseTree) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mode: %s\n", t.Mode)
	doc := t.Document
	var walk func(id builder.NodeID, depth int)
	walk = func(id builder.NodeID, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s%s\n", indent, doc.Kind(id))
		for _, c := range doc.Nodes[id].Children {
			if !c.IsToken {
				walk(builder.NodeID(c.Index), depth+1)
				continue
			}
			tok := doc.Tokens[c.Index]
			if tok.Type.IsTrivia() {
				continue
			}
			if r, ok := t.RegionAt(c.Index); ok && r.Tree != nil {
				for _, line := range strings.Split(strings.TrimRight(r.Tree.Dump(), "\n"), "\n") {
					fmt.Fprintf(&sb, "%s  %s\n", indent, line)
				}
				continue
			}
			fmt.Fprintf(&sb, "%s  %s %q\n", indent, tok.Type, tok.Text)
		}
	}
	if doc != nil && len(doc.Nodes) > 0 {
		walk(doc.Root(), 0)
	}
	return sb.String()
}
