package parser

import (
	"bytes"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/atom"

	"github.com/aledsdavies/svelteparse/core/invariant"
	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/directives"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/suggest"
)

// Parse parses a component source and returns its parse tree. It never
// fails: malformed input produces diagnostics on the tree.
func Parse(source []byte, opts ...ParserOpt) *ParseTree {
	cfg := newConfig(opts)

	var telemetry *ParseTelemetry
	var startTotal time.Time
	if cfg.telemetry >= TelemetryBasic {
		telemetry = &ParseTelemetry{}
		if cfg.telemetry >= TelemetryTiming {
			startTotal = time.Now()
		}
	}

	var startLex time.Time
	if cfg.telemetry >= TelemetryTiming {
		startLex = time.Now()
	}

	lex := lexer.NewLexer("", lexer.WithLogger(cfg.logger))
	lex.Init(source)
	tokens := lex.GetTokens()

	if cfg.telemetry >= TelemetryBasic {
		telemetry.TokenCount = len(tokens)
		if cfg.telemetry >= TelemetryTiming {
			telemetry.LexTime = time.Since(startLex)
		}
	}

	mode := lex.LanguageMode()
	if mode == lexer.ModeUnset {
		mode = cfg.mode
	}
	if mode == lexer.ModeUnset {
		mode = lexer.ModeUntyped
	}

	var startParse time.Time
	if cfg.telemetry >= TelemetryTiming {
		startParse = time.Now()
	}

	p := &documentParser{
		cfg:   cfg,
		trace: &tracer{cfg: cfg},
		mode:  mode,
		b:     builder.New(tokens, builder.WithLogger(cfg.logger)),
		tree: &ParseTree{
			Source:        source,
			Filename:      cfg.filename,
			Mode:          mode,
			Tokens:        tokens,
			regionByToken: make(map[int]int),
		},
	}
	p.trace.record("language_mode", 0, mode.String())
	p.document()

	tree := p.tree
	tree.Document = p.b.Finish()
	p.events += len(p.b.Events())
	p.b = nil
	p.finalize()
	tree.doc = p

	if cfg.telemetry >= TelemetryBasic {
		telemetry.RegionCount = len(tree.Regions)
		telemetry.EventCount = p.events
		telemetry.ErrorCount = len(tree.Errors)
		if cfg.telemetry >= TelemetryTiming {
			telemetry.ParseTime = time.Since(startParse)
			telemetry.TotalTime = time.Since(startTotal)
		}
	}
	tree.Telemetry = telemetry
	if cfg.debug > DebugOff {
		tree.DebugEvents = p.trace.events
	}
	return tree
}

// ParseString is a convenience wrapper for tests
func ParseString(input string, opts ...ParserOpt) *ParseTree {
	return Parse([]byte(input), opts...)
}

// frame is an open element or block.
type frame struct {
	tag   string
	block *blockGrammar
}

// pendingDirective is resolved once the scope is known.
type pendingDirective struct {
	name      directives.Name
	tag       string
	nameTok   lexer.Token
	span      lexer.Span
	shorthand bool
	value     int
}

// documentParser builds the markup tree. Mustache tokens stay leaves of the
// document; each one is parsed by its own builder into ParseTree.Regions.
type documentParser struct {
	cfg   *ParserConfig
	trace *tracer
	mode  lexer.LanguageMode
	b     *builder.Builder // nil once the document is finished
	tree  *ParseTree

	frames     []frame
	scripts    []int // Token indices of <script> RAW_TEXT
	directives []pendingDirective
	errors     []ParseError // Recorded while building; directive problems excluded
	events     int
	lastEnd    int // End offset of the last consumed token
}

func (p *documentParser) advance() {
	p.lastEnd = p.b.Current().End()
	p.b.Advance()
}

func (p *documentParser) document() {
	p.trace.record("enter_document", 0, p.cfg.filename)
	root := p.b.Mark()
	p.nodes()
	invariant.Postcondition(p.b.EOF(), "document parse stopped before EOF at token %d", p.b.Pos())
	p.b.Done(root, builder.KindDocument)
	p.trace.record("exit_document", p.b.Pos(), "")
}

// nodes parses children until EOF or a closer that belongs to an open
// element or block.
func (p *documentParser) nodes() {
	b := p.b
	for !b.EOF() {
		prev := b.Pos()

		switch {
		case b.At(lexer.TEXT):
			p.leaf(builder.KindText)

		case b.At(lexer.COMMENT):
			p.leaf(builder.KindComment)

		case b.At(lexer.TAG_OPEN):
			p.element()

		case b.At(lexer.END_TAG_OPEN):
			name := p.closingName()
			if p.elementOpen(name) {
				return
			}
			p.strayClosingTag(name)

		case b.At(lexer.MUSTACHE):
			kind := Classify(b.Current().Text)
			if g, ok := blockByKind[kind]; ok && g.start == kind {
				p.block(g)
				break
			}
			if kind.IsRegion() && kind != builder.KindContentExpression {
				if p.closesOpenBlock(kind) {
					return
				}
				p.strayRegion(kind)
				break
			}
			p.region(builder.KindContentExpression, ContextContent)
			p.advance()

		default:
			m := b.Mark()
			msg := fmt.Sprintf("unexpected %s", b.Current().Type)
			p.advance()
			b.DoneError(m, msg)
		}

		invariant.Invariant(b.Pos() > prev, "document parser stuck at token %d", b.Pos())
	}
}

func (p *documentParser) leaf(kind builder.NodeKind) {
	m := p.b.Mark()
	p.advance()
	p.b.Done(m, kind)
}

// closingName returns the tag name after "</", or "".
func (p *documentParser) closingName() string {
	if next := p.b.Peek(1); next.Type == lexer.TAG_NAME {
		return string(next.Text)
	}
	return ""
}

func (p *documentParser) elementOpen(name string) bool {
	if name == "" {
		return false
	}
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].block == nil && p.frames[i].tag == name {
			return true
		}
	}
	return false
}

// closesOpenBlock reports whether a clause or end region belongs to an
// enclosing block. A clause binds to the nearest block only.
func (p *documentParser) closesOpenBlock(kind builder.NodeKind) bool {
	if g, ok := blockByKind[kind]; ok && g.end == kind {
		for i := len(p.frames) - 1; i >= 0; i-- {
			if p.frames[i].block == g {
				return true
			}
		}
		return false
	}
	if g := p.nearestBlock(); g != nil {
		for _, c := range g.clauses {
			if c == kind {
				return true
			}
		}
	}
	return false
}

func (p *documentParser) nearestBlock() *blockGrammar {
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].block != nil {
			return p.frames[i].block
		}
	}
	return nil
}

func (p *documentParser) strayClosingTag(name string) {
	b := p.b
	m := b.Mark()
	p.advance() // </
	if b.At(lexer.TAG_NAME) {
		p.advance()
	}
	if b.At(lexer.TAG_CLOSE) {
		p.advance()
	}
	b.DoneError(m, fmt.Sprintf("unexpected closing tag </%s>", name))
}

// strayRegion wraps a clause or end region that has no matching block.
func (p *documentParser) strayRegion(kind builder.NodeKind) {
	text := p.b.Current().Text
	m := p.b.Mark()
	p.region(kind, ContextContent)
	p.advance()

	label := regionLabel(text)
	var msg string
	switch g := p.nearestBlock(); {
	case isEnd(kind):
		msg = fmt.Sprintf("%s does not close any open block", label)
	case g != nil:
		msg = fmt.Sprintf("%s cannot appear inside {#%s}", label, g.keyword)
	default:
		msg = fmt.Sprintf("%s has no matching block", label)
	}
	p.b.DoneError(m, msg)
}

func isEnd(kind builder.NodeKind) bool {
	g, ok := blockByKind[kind]
	return ok && g.end == kind
}

// regionLabel renders "{:then}" or "{/each}" from region text.
func regionLabel(text []byte) string {
	i := 2
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	j := i
	for j < len(text) && isWordByte(text[j]) {
		j++
	}
	if len(text) < 2 {
		return string(text)
	}
	return "{" + string(text[1]) + string(text[i:j]) + "}"
}

// region parses the MUSTACHE token at the cursor as kind and records it.
// The token itself is left for the caller to consume.
func (p *documentParser) region(kind builder.NodeKind, ctx RegionContext) int {
	idx := p.b.Pos()
	tok := p.b.Current()
	tree, events, err := parseRegion(p.cfg, p.trace, kind, tok.Text, tok.Position, p.mode)
	if err != nil {
		p.errors = append(p.errors, ParseError{
			Filename: p.cfg.filename,
			Position: tok.Position,
			Span:     tok.Span(),
			Message:  err.Error(),
			Context:  "internal",
		})
	}
	p.events += events
	p.tree.Regions = append(p.tree.Regions, Region{
		Kind:    selectKind(kind, p.mode),
		Context: ctx,
		Token:   idx,
		Span:    tok.Span(),
		Start:   tok.Position,
		Tree:    tree,
	})
	n := len(p.tree.Regions) - 1
	p.tree.regionByToken[idx] = n
	return n
}

// block parses {#kw}...{:clause}...{/kw}. Children between clause regions
// are grouped into branches.
func (p *documentParser) block(g *blockGrammar) {
	b := p.b
	p.trace.record("enter_block", b.Pos(), g.keyword)
	startTok := b.Current()
	m := b.Mark()
	p.region(g.start, ContextContent)
	p.advance()

	p.frames = append(p.frames, frame{block: g})
	defer func() { p.frames = p.frames[:len(p.frames)-1] }()

	branch := b.Mark()
	p.nodes()
	for b.At(lexer.MUSTACHE) {
		kind := Classify(b.Current().Text)
		if kind == g.end {
			b.Done(branch, builder.KindBranch)
			p.region(kind, ContextContent)
			p.advance()
			b.Done(m, g.node)
			p.trace.record("exit_block", b.Pos(), g.keyword)
			return
		}
		if !p.closesOpenBlock(kind) || p.nearestBlock() != g || isEnd(kind) {
			break
		}
		b.Done(branch, builder.KindBranch)
		p.region(kind, ContextContent)
		p.advance()
		branch = b.Mark()
		p.nodes()
	}

	b.Done(branch, builder.KindBranch)
	p.errorAt(startTok, fmt.Sprintf("{#%s} block is not closed", g.keyword),
		fmt.Sprintf("add {/%s}", g.keyword), g.example)
	b.Done(m, g.node)
}

// voidElements never have children or a closing tag.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

func isVoid(tag string) bool {
	return !directives.IsComponent(tag) && voidElements[atom.Lookup(bytes.ToLower([]byte(tag)))]
}

func (p *documentParser) element() {
	b := p.b
	openTok := b.Current()
	m := b.Mark()
	p.advance() // <

	name := ""
	if b.At(lexer.TAG_NAME) {
		name = b.TokenText()
		p.advance()
	} else {
		b.Error("expected a tag name")
	}
	p.attributes(name)

	switch {
	case b.At(lexer.TAG_SELF_CLOSE):
		p.advance()
		b.Done(m, builder.KindElement)
		return
	case b.At(lexer.TAG_CLOSE):
		p.advance()
	default:
		b.ErrorWithSuggestion("expected '>'", fmt.Sprintf("close the tag: <%s>", name))
		b.Done(m, builder.KindElement)
		return
	}

	if isVoid(name) {
		b.Done(m, builder.KindElement)
		return
	}

	if b.At(lexer.RAW_TEXT) {
		if atom.Lookup(bytes.ToLower([]byte(name))) == atom.Script {
			p.scripts = append(p.scripts, b.Pos())
		}
		p.leaf(builder.KindRawText)
	} else {
		p.frames = append(p.frames, frame{tag: name})
		p.nodes()
		p.frames = p.frames[:len(p.frames)-1]
	}

	if b.At(lexer.END_TAG_OPEN) && p.closingName() == name {
		e := b.Mark()
		p.advance() // </
		p.advance() // name
		if b.At(lexer.TAG_CLOSE) {
			p.advance()
		} else {
			b.Error("expected '>'")
		}
		b.Done(e, builder.KindEndTag)
	} else {
		p.errorAt(openTok, fmt.Sprintf("<%s> is not closed", name), fmt.Sprintf("add </%s>", name), "")
	}
	b.Done(m, builder.KindElement)
}

func (p *documentParser) attributes(tag string) {
	b := p.b
	for {
		switch {
		case b.AtAny(lexer.TAG_CLOSE, lexer.TAG_SELF_CLOSE, lexer.EOF):
			return
		case b.At(lexer.ATTR_NAME):
			p.attribute(tag)
		case b.At(lexer.MUSTACHE):
			m := b.Mark()
			p.region(builder.KindSpreadOrShorthand, ContextTag)
			p.advance()
			b.Done(m, builder.KindAttribute)
		default:
			m := b.Mark()
			msg := fmt.Sprintf("unexpected %s in <%s>", b.Current().Type, tag)
			p.advance()
			b.DoneError(m, msg)
		}
	}
}

func (p *documentParser) attribute(tag string) {
	b := p.b
	nameTok := b.Current()
	name := string(nameTok.Text)
	m := b.Mark()
	p.advance()

	kind := directives.ValueKind(name).Untyped
	shorthand := !b.At(lexer.ATTR_EQ)
	value := -1
	if !shorthand {
		p.advance() // =
		switch {
		case b.At(lexer.MUSTACHE):
			v := b.Mark()
			value = p.region(kind, ContextAttributeValue)
			p.advance()
			b.Done(v, builder.KindAttributeValue)
		case b.At(lexer.QUOTE):
			v := b.Mark()
			p.advance()
			for b.AtAny(lexer.ATTR_VALUE, lexer.MUSTACHE) {
				if b.At(lexer.MUSTACHE) {
					idx := p.region(kind, ContextAttributeValue)
					if value < 0 {
						value = idx
					}
				}
				p.advance()
			}
			if b.At(lexer.QUOTE) {
				p.advance()
			} else {
				b.Error("unterminated attribute value")
			}
			b.Done(v, builder.KindAttributeValue)
		case b.At(lexer.ATTR_VALUE):
			v := b.Mark()
			p.advance()
			b.Done(v, builder.KindAttributeValue)
		default:
			b.Error("expected an attribute value")
		}
	}

	n, ok := directives.Split(name)
	if !ok {
		b.Done(m, builder.KindAttribute)
		return
	}
	b.Done(m, builder.KindDirective)
	p.directives = append(p.directives, pendingDirective{
		name:      n,
		tag:       tag,
		nameTok:   nameTok,
		span:      lexer.Span{Start: nameTok.Position.Offset, End: p.lastEnd},
		shorthand: shorthand,
		value:     value,
	})
}

// finalize derives everything that depends on the whole document: the
// scope, directive resolution and the merged diagnostics. It runs again
// after a region is spliced.
func (p *documentParser) finalize() {
	p.tree.Scope = p.buildScope()
	errs, warns := p.resolveDirectives()
	p.collectDiagnostics(errs, warns)
}

// resolveDirectives validates every directive and resolves shorthand
// specifiers against the scope.
func (p *documentParser) resolveDirectives() (errs []ParseError, warns []ParseWarning) {
	opts := directives.ValidateOptions{StrictTargets: p.cfg.strictTargets}
	p.tree.Directives = make([]Directive, 0, len(p.directives))
	for _, d := range p.directives {
		for _, prob := range directives.Validate(d.name, d.tag, d.shorthand, opts) {
			pos, span := p.namePosition(d, prob.Span)
			if prob.Severity == builder.SeverityError {
				errs = append(errs, ParseError{
					Filename: p.cfg.filename, Position: pos, Span: span,
					Message: prob.Message, Context: "directive", Suggestion: prob.Suggestion,
				})
			} else {
				warns = append(warns, ParseWarning{
					Filename: p.cfg.filename, Position: pos, Span: span,
					Message: prob.Message, Context: "directive", Suggestion: prob.Suggestion,
				})
			}
		}

		res := directives.Resolve(d.name, d.shorthand, p.tree.Scope)
		if !res.Resolved {
			spec := d.name.Specifiers[0]
			pos, span := p.namePosition(d, spec.Span)
			warns = append(warns, ParseWarning{
				Filename:   p.cfg.filename,
				Position:   pos,
				Span:       span,
				Message:    fmt.Sprintf("'%s' is not declared", res.Name),
				Context:    "directive",
				Suggestion: suggest.Hint(res.Name, p.tree.Scope.Names()),
			})
		}

		p.tree.Directives = append(p.tree.Directives, Directive{
			Name:       d.name,
			Tag:        d.tag,
			Span:       d.span,
			NameStart:  d.nameTok.Position,
			Shorthand:  d.shorthand,
			Value:      d.value,
			Resolution: res,
		})
	}
	return errs, warns
}

// namePosition maps a span relative to a directive name to document
// coordinates. Attribute names never contain a line break.
func (p *documentParser) namePosition(d pendingDirective, rel lexer.Span) (lexer.Position, lexer.Span) {
	start := d.nameTok.Position
	raw := d.name.Raw
	col := start.Column + utf8.RuneCountInString(raw[:min(rel.Start, len(raw))])
	pos := lexer.Position{Line: start.Line, Column: col, Offset: start.Offset + rel.Start}
	return pos, lexer.Span{Start: start.Offset + rel.Start, End: start.Offset + rel.End}
}

func (p *documentParser) errorAt(tok lexer.Token, msg, suggestion, example string) {
	p.errors = append(p.errors, ParseError{
		Filename:   p.cfg.filename,
		Position:   tok.Position,
		Span:       tok.Span(),
		Message:    msg,
		Context:    "markup",
		Suggestion: suggestion,
		Example:    example,
	})
}

// collectDiagnostics merges builder diagnostics from the document and every
// region with the ones recorded directly, ordered by offset.
func (p *documentParser) collectDiagnostics(errs []ParseError, warns []ParseWarning) {
	tree := p.tree
	tree.Errors, tree.Warnings = nil, nil
	add := func(d builder.Diagnostic, context, example string) {
		if d.Severity == builder.SeverityWarning {
			tree.Warnings = append(tree.Warnings, ParseWarning{
				Filename:   p.cfg.filename,
				Position:   d.Position,
				Span:       d.Span,
				Message:    d.Message,
				Context:    context,
				Suggestion: d.Suggestion,
			})
			return
		}
		tree.Errors = append(tree.Errors, ParseError{
			Filename:   p.cfg.filename,
			Position:   d.Position,
			Span:       d.Span,
			Message:    d.Message,
			Context:    context,
			Suggestion: d.Suggestion,
			Example:    example,
		})
	}

	for _, d := range tree.Document.Diagnostics {
		add(d, "markup", "")
	}
	for _, r := range tree.Regions {
		if r.Tree == nil {
			continue
		}
		g, _ := lookupRegion(r.Kind)
		example := ""
		if g.block != nil {
			example = g.block.example
		}
		for _, d := range r.Tree.Diagnostics {
			add(d, g.context, example)
		}
	}
	tree.Errors = append(tree.Errors, p.errors...)
	tree.Errors = append(tree.Errors, errs...)
	tree.Warnings = append(tree.Warnings, warns...)

	sort.SliceStable(tree.Errors, func(i, j int) bool {
		return tree.Errors[i].Position.Offset < tree.Errors[j].Position.Offset
	})
	sort.SliceStable(tree.Warnings, func(i, j int) bool {
		return tree.Warnings[i].Position.Offset < tree.Warnings[j].Position.Offset
	})
}
