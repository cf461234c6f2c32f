package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/script"
)

// ErrNotRegion is wrapped when ParseRegion is asked for a kind that is not
// a mustache region.
var ErrNotRegion = errors.New("not a region kind")

// regionGrammar describes how one region kind is parsed.
type regionGrammar struct {
	kind     builder.NodeKind // Untyped kind
	context  string           // Human name used in errors
	external bool             // Braces are owned by the markup, not the region
	noTokens string           // Reported for an empty region
	body     func(r *regionParser)
	block    *blockGrammar // Owning block for start, clause and end regions
}

var regionGrammars = map[builder.NodeKind]*regionGrammar{}

func registerRegion(g *regionGrammar) {
	regionGrammars[g.kind] = g
}

func init() {
	registerRegion(&regionGrammar{
		kind:     builder.KindContentExpression,
		context:  "expression tag",
		noTokens: script.MsgExpressionExpected,
		body:     (*regionParser).contentExpression,
	})
	registerRegion(&regionGrammar{
		kind:     builder.KindAttributeExpression,
		context:  "attribute value",
		external: true,
		noTokens: "expression expected",
		body:     (*regionParser).attributeExpression,
	})
	registerRegion(&regionGrammar{
		kind:     builder.KindAttributeParameter,
		context:  "let directive",
		external: true,
		noTokens: "parameter expected",
		body:     (*regionParser).attributeParameter,
	})
	registerRegion(&regionGrammar{
		kind:     builder.KindSpreadOrShorthand,
		context:  "attribute",
		external: true,
		noTokens: "shorthand attribute or spread expression expected",
		body:     (*regionParser).spreadOrShorthand,
	})
	registerBlocks()
}

// lookupRegion returns the grammar for kind, typed or not.
func lookupRegion(kind builder.NodeKind) (*regionGrammar, bool) {
	g, ok := regionGrammars[kind.Untyped()]
	return g, ok
}

// selectKind returns the variant of kind the tree root is closed with.
func selectKind(kind builder.NodeKind, mode lexer.LanguageMode) builder.NodeKind {
	u := kind.Untyped()
	if u >= builder.KindIfStart && u <= builder.KindSpreadOrShorthand {
		return builder.Dual(u).Select(mode)
	}
	return u
}

// Classify returns the untyped region kind of a mustache region found
// between tags. src starts at the opening brace.
func Classify(src []byte) builder.NodeKind {
	if len(src) < 2 || src[0] != '{' {
		return builder.KindContentExpression
	}
	sigil := src[1]
	i := 2
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	j := i
	for j < len(src) && isWordByte(src[j]) {
		j++
	}
	word := string(src[i:j])

	switch sigil {
	case '#':
		if g, ok := blockByKeyword[word]; ok {
			return g.start
		}
	case ':':
		if c, ok := clauseByKeyword[word]; ok {
			return c.kind
		}
	case '/':
		if g, ok := blockByKeyword[word]; ok {
			return g.end
		}
	}
	return builder.KindContentExpression
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ParseRegion parses src as a single region of the given kind. src is the
// region text, braces included; start is the document position of src[0].
//
// mode must be decided. A missing mode means the region is being parsed
// outside the document that owns it and is returned as an *InternalError
// wrapping ErrNoLanguageMode.
func ParseRegion(kind builder.NodeKind, src []byte, start lexer.Position, mode lexer.LanguageMode, opts ...ParserOpt) (*builder.Tree, error) {
	cfg := newConfig(opts)
	t := &tracer{cfg: cfg}
	tree, _, err := parseRegion(cfg, t, kind, src, start, mode)
	return tree, err
}

// parseRegion returns the tree and the number of builder events it took.
func parseRegion(cfg *ParserConfig, t *tracer, kind builder.NodeKind, src []byte, start lexer.Position, mode lexer.LanguageMode) (*builder.Tree, int, error) {
	g, ok := lookupRegion(kind)
	if !ok {
		return nil, 0, &InternalError{Region: kind, Err: fmt.Errorf("%w: %s", ErrNotRegion, kind)}
	}
	if mode == lexer.ModeUnset {
		return nil, 0, &InternalError{Region: kind, Err: ErrNoLanguageMode}
	}

	var startTime time.Time
	if cfg.debug > DebugOff {
		startTime = time.Now()
		t.record("enter_region", start.Offset, kind.String())
	}

	tokens := lexer.ScanScript(src, start, g.external)
	b := builder.New(tokens, builder.WithLogger(cfg.logger))
	r := &regionParser{
		cfg:      cfg,
		trace:    t,
		b:        b,
		g:        script.New(b, mode),
		mode:     mode,
		grammar:  g,
		selected: selectKind(kind, mode),
	}
	r.run()
	events := len(b.Events())
	tree := b.Finish()

	if cfg.debug > DebugOff {
		t.record("exit_region", start.Offset, fmt.Sprintf("%s %d diagnostics in %s",
			r.selected, len(tree.Diagnostics), time.Since(startTime)))
	}
	return tree, events, nil
}

// regionParser drives one region's builder.
type regionParser struct {
	cfg      *ParserConfig
	trace    *tracer
	b        *builder.Builder
	g        *script.Grammar
	mode     lexer.LanguageMode
	grammar  *regionGrammar
	selected builder.NodeKind

	// failed is set once a grammar has reported an error and abandoned the
	// rest of the region; trailing tokens are then skipped silently.
	failed bool
	// closed is set when a grammar consumed the closing brace itself.
	closed bool
}

func (r *regionParser) run() {
	b := r.b
	root := b.Mark()
	if b.EOF() {
		b.Error(r.grammar.noTokens)
		b.Done(root, r.selected)
		return
	}
	if !r.grammar.external && b.At(lexer.START_MUSTACHE) {
		b.Remap(lexer.LBRACE)
		b.Advance()
	}
	r.grammar.body(r)
	r.finish()
	b.Done(root, r.selected)
}

// finish skips excess tokens with a single diagnostic and consumes the
// closing brace, reporting it when it is missing.
func (r *regionParser) finish() {
	b := r.b
	if !b.AtAny(lexer.END_MUSTACHE, lexer.EOF) {
		if !r.failed {
			b.Errorf("unexpected token %s", b.Current().Symbol())
		}
		for !b.AtAny(lexer.END_MUSTACHE, lexer.EOF) {
			b.Advance()
		}
	}
	if b.At(lexer.END_MUSTACHE) {
		r.closeBrace()
		return
	}
	if !r.grammar.external && !r.closed {
		b.ErrorWithSuggestion("missing closing '}'", "add '}' to close the "+r.grammar.context)
	}
}

// closeBrace consumes the closing delimiter as a plain brace.
func (r *regionParser) closeBrace() {
	r.b.Remap(lexer.RBRACE)
	r.b.Advance()
	r.closed = true
}

// sigilWhitespace reports trivia between a sigil and the word after it.
func (r *regionParser) sigilWhitespace(sigil string) {
	if !r.b.AfterWhitespace() {
		return
	}
	msg := fmt.Sprintf("whitespace is not allowed after '%s'", sigil)
	switch r.cfg.whitespace {
	case WhitespaceIgnore:
	case WhitespaceError:
		r.b.Error(msg)
	default:
		r.b.Warning(msg)
	}
}

// expectWord consumes the contextual keyword word, remapping it to t.
func (r *regionParser) expectWord(word string, t lexer.TokenType) bool {
	if !r.b.AtWord(word) {
		r.b.Errorf("expected '%s'", word)
		return false
	}
	r.b.Remap(t)
	r.b.Advance()
	return true
}

// expectSigil consumes a block sigil such as '#' and checks the whitespace
// after it.
func (r *regionParser) expectSigil(t lexer.TokenType) bool {
	if !r.b.At(t) {
		r.b.Errorf("expected '%s'", lexer.SymbolOf(t))
		return false
	}
	r.b.Advance()
	r.sigilWhitespace(lexer.SymbolOf(t))
	return true
}

// fail reports msg at the current token and abandons the region.
func (r *regionParser) fail(msg, suggestion string) {
	r.b.ErrorWithSuggestion(msg, suggestion)
	r.failed = true
}

// tracer collects debug events for one Parse call. Regions share the tracer
// of the document that owns them.
type tracer struct {
	cfg    *ParserConfig
	events []DebugEvent
}

func (t *tracer) record(event string, pos int, context string) {
	if t == nil || t.cfg.debug == DebugOff {
		return
	}
	t.events = append(t.events, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		TokenPos:  pos,
		Context:   context,
	})
	t.cfg.logger.Debug("parser", "event", event, "pos", pos, "context", context)
}
