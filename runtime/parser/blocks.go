package parser

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Block identifies one of the block families.
type Block uint8

const (
	BlockIf Block = iota
	BlockEach
	BlockAwait
	BlockKey
	BlockSnippet

	blockCount
)

func (b Block) String() string {
	if b < blockCount {
		return blocks[b].keyword
	}
	return fmt.Sprintf("Block(%d)", uint8(b))
}

// blockGrammar describes one block family: {#kw header}...{:clause}...{/kw}.
type blockGrammar struct {
	block   Block
	keyword string
	token   lexer.TokenType // What the keyword is remapped to
	start   builder.NodeKind
	end     builder.NodeKind
	node    builder.NodeKind   // Block node in the document tree
	clauses []builder.NodeKind // Clause regions allowed inside the block
	header  func(r *regionParser)
	since   string // Minimum Svelte version, "" for all
	example string
}

// clauseGrammar describes a continuation clause: {:else}, {:then}, {:catch}.
type clauseGrammar struct {
	keyword string
	token   lexer.TokenType
	kind    builder.NodeKind
	body    func(r *regionParser)
}

var blocks = [blockCount]blockGrammar{
	BlockIf: {
		block: BlockIf, keyword: "if", token: lexer.IF,
		start: builder.KindIfStart, end: builder.KindIfEnd, node: builder.KindIfBlock,
		clauses: []builder.NodeKind{builder.KindElseClause},
		header:  (*regionParser).expressionHeader,
		example: "{#if condition}...{/if}",
	},
	BlockEach: {
		block: BlockEach, keyword: "each", token: lexer.EACH,
		start: builder.KindEachStart, end: builder.KindEachEnd, node: builder.KindEachBlock,
		clauses: []builder.NodeKind{builder.KindElseClause},
		header:  (*regionParser).eachHeader,
		example: "{#each items as item, i (item.id)}...{/each}",
	},
	BlockAwait: {
		block: BlockAwait, keyword: "await", token: lexer.AWAIT,
		start: builder.KindAwaitStart, end: builder.KindAwaitEnd, node: builder.KindAwaitBlock,
		clauses: []builder.NodeKind{builder.KindThenClause, builder.KindCatchClause},
		header:  (*regionParser).awaitHeader,
		example: "{#await promise then value}...{/await}",
	},
	BlockKey: {
		block: BlockKey, keyword: "key", token: lexer.KEY,
		start: builder.KindKeyStart, end: builder.KindKeyEnd, node: builder.KindKeyBlock,
		header:  (*regionParser).expressionHeader,
		example: "{#key value}...{/key}",
	},
	BlockSnippet: {
		block: BlockSnippet, keyword: "snippet", token: lexer.SNIPPET,
		start: builder.KindSnippetStart, end: builder.KindSnippetEnd, node: builder.KindSnippetBlock,
		header:  (*regionParser).snippetHeader,
		since:   "v5.0.0",
		example: "{#snippet row(item)}...{/snippet}",
	},
}

var clauses = []clauseGrammar{
	{keyword: "else", token: lexer.ELSE, kind: builder.KindElseClause, body: (*regionParser).elseClause},
	{keyword: "then", token: lexer.THEN, kind: builder.KindThenClause, body: (*regionParser).optionalPattern},
	{keyword: "catch", token: lexer.CATCH, kind: builder.KindCatchClause, body: (*regionParser).optionalPattern},
}

var (
	blockByKeyword  = map[string]*blockGrammar{}
	clauseByKeyword = map[string]*clauseGrammar{}
	blockByKind     = map[builder.NodeKind]*blockGrammar{}
)

// blockNames and clauseNames feed "did you mean" hints.
var blockNames, clauseNames []string

func registerBlocks() {
	for i := range blocks {
		g := &blocks[i]
		blockByKeyword[g.keyword] = g
		blockByKind[g.start] = g
		blockByKind[g.end] = g
		blockNames = append(blockNames, g.keyword)

		registerRegion(&regionGrammar{
			kind:     g.start,
			context:  g.keyword + " block",
			noTokens: "expression expected",
			body:     func(r *regionParser) { r.blockStart(g) },
			block:    g,
		})
		registerRegion(&regionGrammar{
			kind:     g.end,
			context:  "{/" + g.keyword + "}",
			noTokens: "expression expected",
			body:     func(r *regionParser) { r.blockEnd(g) },
			block:    g,
		})
	}
	for i := range clauses {
		c := &clauses[i]
		clauseByKeyword[c.keyword] = c
		clauseNames = append(clauseNames, c.keyword)
		registerRegion(&regionGrammar{
			kind:     c.kind,
			context:  "{:" + c.keyword + "}",
			noTokens: "expression expected",
			body:     func(r *regionParser) { r.clause(c) },
		})
	}
}

// BlockOf returns the family of a start or end region kind.
func BlockOf(kind builder.NodeKind) (Block, bool) {
	g, ok := blockByKind[kind.Untyped()]
	if !ok {
		return 0, false
	}
	return g.block, true
}

// blockStart parses "#keyword header".
func (r *regionParser) blockStart(g *blockGrammar) {
	r.trace.record("enter_block", r.b.Pos(), g.keyword)
	if !r.expectSigil(lexer.SHARP) || !r.expectWord(g.keyword, g.token) {
		r.failed = true
		return
	}
	if g.since != "" && versionBefore(r.cfg.svelteVersion, g.since) {
		r.b.Errorf("{#%s} requires Svelte %s or newer", g.keyword, majorOf(g.since))
	}
	g.header(r)
	r.trace.record("exit_block", r.b.Pos(), g.keyword)
}

// blockEnd parses "/keyword".
func (r *regionParser) blockEnd(g *blockGrammar) {
	if !r.expectSigil(lexer.SLASH) || !r.expectWord(g.keyword, g.token) {
		r.failed = true
	}
}

// clause parses ":keyword body".
func (r *regionParser) clause(c *clauseGrammar) {
	if !r.expectSigil(lexer.COLON) || !r.expectWord(c.keyword, c.token) {
		r.failed = true
		return
	}
	c.body(r)
}

func (r *regionParser) expressionHeader() {
	if !r.g.Expression() {
		r.failed = true
	}
}

func (r *regionParser) snippetHeader() {
	if !r.g.FunctionDeclaration() {
		r.failed = true
	}
}

// awaitHeader parses "promise", "promise then value" or
// "promise catch error". Both patterns are optional.
func (r *regionParser) awaitHeader() {
	b := r.b
	r.g.Expression()
	if b.AtWord("then") {
		b.Remap(lexer.THEN)
		b.Advance()
		r.optionalPattern()
	}
	if b.At(lexer.CATCH) {
		b.Advance()
		r.optionalPattern()
	}
}

// optionalPattern parses a binding pattern unless the region ends here.
func (r *regionParser) optionalPattern() {
	if r.b.AtAny(lexer.END_MUSTACHE, lexer.EOF, lexer.CATCH) {
		return
	}
	r.g.DestructuringPattern(builder.KindParameter, true)
}

// elseClause parses "else" or "else if condition".
func (r *regionParser) elseClause() {
	if r.b.At(lexer.IF) {
		r.b.Advance()
		r.g.Expression()
	}
}

// versionBefore reports whether the configured version is older than since.
// An unparsable configured version never gates anything.
func versionBefore(configured, since string) bool {
	if !semver.IsValid(configured) {
		return false
	}
	return semver.Compare(configured, since) < 0
}

// majorOf returns "5" for "v5.0.0".
func majorOf(v string) string {
	return strings.TrimPrefix(semver.Major(v), "v")
}
