package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/script"
)

// region parses src as kind and checks that the tree covers it exactly.
func region(t *testing.T, kind builder.NodeKind, src string, mode lexer.LanguageMode, opts ...ParserOpt) *builder.Tree {
	t.Helper()
	tree, err := ParseRegion(kind, []byte(src), lexer.Position{Line: 1, Column: 1}, mode, opts...)
	require.NoError(t, err)
	require.NotNil(t, tree)
	require.Equal(t, src, tree.Text(tree.Root()), "region tree must cover its source")
	return tree
}

func messages(tree *builder.Tree) []string {
	var out []string
	for _, d := range tree.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}

func dedent(s string) string { return strings.TrimLeft(s, "\n") }

func TestEachTrees(t *testing.T) {
	tests := []struct {
		name string
		mode lexer.LanguageMode
		src  string
		want string
	}{
		{
			name: "untyped item",
			mode: lexer.ModeUntyped,
			src:  "{#each items as item}",
			want: `
EachStart
  LBRACE "{"
  SHARP "#"
  EACH "each"
  Identifier
    IDENTIFIER "items"
  AS "as"
  Parameter
    IDENTIFIER "item"
  RBRACE "}"
`,
		},
		{
			name: "typed item without assertion",
			mode: lexer.ModeTyped,
			src:  "{#each items as item}",
			want: `
EachStartTyped
  LBRACE "{"
  SHARP "#"
  EACH "each"
  Identifier
    IDENTIFIER "items"
  AS "as"
  Parameter
    IDENTIFIER "item"
  RBRACE "}"
`,
		},
		{
			name: "typed assertion wraps the iterated expression",
			mode: lexer.ModeTyped,
			src:  "{#each items as Item as item}",
			want: `
EachStartTyped
  LBRACE "{"
  SHARP "#"
  EACH "each"
  AsExpression
    Identifier
      IDENTIFIER "items"
    AS "as"
    TypeReference
      IDENTIFIER "Item"
  AS "as"
  Parameter
    IDENTIFIER "item"
  RBRACE "}"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := region(t, builder.KindEachStart, tt.src, tt.mode)
			if diff := cmp.Diff(dedent(tt.want), tree.Dump()); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
			assert.Empty(t, tree.Diagnostics)
		})
	}
}

func TestEachHeaders(t *testing.T) {
	tests := []struct {
		name   string
		mode   lexer.LanguageMode
		src    string
		counts map[builder.NodeKind]int
		errors []string
	}{
		{
			name:   "no binding",
			mode:   lexer.ModeUntyped,
			src:    "{#each items}",
			counts: map[builder.NodeKind]int{builder.KindParameter: 0},
		},
		{
			name:   "index",
			mode:   lexer.ModeUntyped,
			src:    "{#each items as item, i}",
			counts: map[builder.NodeKind]int{builder.KindParameter: 2},
		},
		{
			name: "index and key",
			mode: lexer.ModeUntyped,
			src:  "{#each items as item, i (item.id)}",
			counts: map[builder.NodeKind]int{
				builder.KindParameter:              2,
				builder.KindTagDependentExpression: 1,
			},
		},
		{
			name: "key without index",
			mode: lexer.ModeUntyped,
			src:  "{#each items as item (item.id)}",
			counts: map[builder.NodeKind]int{
				builder.KindParameter:              1,
				builder.KindTagDependentExpression: 1,
			},
		},
		{
			name: "object pattern",
			mode: lexer.ModeUntyped,
			src:  "{#each items as {id, name}}",
			counts: map[builder.NodeKind]int{
				builder.KindParameter:     1,
				builder.KindObjectPattern: 1,
			},
		},
		{
			name: "array pattern with index",
			mode: lexer.ModeUntyped,
			src:  "{#each pairs as [a, b], i}",
			counts: map[builder.NodeKind]int{
				builder.KindParameter:    2,
				builder.KindArrayPattern: 1,
			},
		},
		{
			name: "member and call suffixes",
			mode: lexer.ModeUntyped,
			src:  "{#each store.items.filter(visible) as item}",
			counts: map[builder.NodeKind]int{
				builder.KindCallExpression: 1,
				builder.KindParameter:      1,
			},
		},
		{
			name: "typed array assertion",
			mode: lexer.ModeTyped,
			src:  "{#each items as Item[] as item}",
			counts: map[builder.NodeKind]int{
				builder.KindAsExpression: 1,
				builder.KindArrayType:    1,
				builder.KindParameter:    1,
			},
		},
		{
			name: "typed generic assertion and pattern",
			mode: lexer.ModeTyped,
			src:  "{#each rows as Array<Row> as {id}, i (id)}",
			counts: map[builder.NodeKind]int{
				builder.KindAsExpression:           1,
				builder.KindTypeArguments:          1,
				builder.KindParameter:              2,
				builder.KindTagDependentExpression: 1,
			},
		},
		{
			name: "typed chained assertions nest",
			mode: lexer.ModeTyped,
			src:  "{#each items as unknown as Item[] as item}",
			counts: map[builder.NodeKind]int{
				builder.KindAsExpression: 2,
				builder.KindParameter:    1,
			},
		},
		{
			name:   "untyped assertion is rejected",
			mode:   lexer.ModeUntyped,
			src:    "{#each items as Item as item}",
			counts: map[builder.NodeKind]int{builder.KindAsExpression: 0, builder.KindParameter: 0},
			errors: []string{"unexpected token Item"},
		},
		{
			name:   "typed trailing word after a type",
			mode:   lexer.ModeTyped,
			src:    "{#each items as item extra}",
			counts: map[builder.NodeKind]int{builder.KindParameter: 0},
			errors: []string{"expected 'as' and an item pattern"},
		},
		{
			name:   "untyped trailing word",
			mode:   lexer.ModeUntyped,
			src:    "{#each items as item extra}",
			errors: []string{"unexpected token extra"},
		},
		{
			name:   "binary operator in expression",
			mode:   lexer.ModeUntyped,
			src:    "{#each a + b as item}",
			errors: []string{"unexpected token +"},
		},
		{
			name:   "index must be an identifier",
			mode:   lexer.ModeUntyped,
			src:    "{#each items as item, 1}",
			errors: []string{"expected an identifier for the index"},
		},
		{
			name:   "tokens after key",
			mode:   lexer.ModeUntyped,
			src:    "{#each items as item (item.id) extra}",
			errors: []string{"expected '}', unexpected token extra"},
		},
		{
			name:   "missing closing brace",
			mode:   lexer.ModeUntyped,
			src:    "{#each items as item",
			counts: map[builder.NodeKind]int{builder.KindParameter: 1},
			errors: []string{"missing closing '}'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := region(t, builder.KindEachStart, tt.src, tt.mode)
			for kind, want := range tt.counts {
				assert.Len(t, tree.Find(kind), want, "%s nodes", kind)
			}
			if tt.errors != nil {
				assert.Equal(t, tt.errors, messages(tree))
			}
		})
	}
}

func TestEachUntypedAssertionSuggestsTypedScript(t *testing.T) {
	tree := region(t, builder.KindEachStart, "{#each items as Item as item}", lexer.ModeUntyped)
	require.Len(t, tree.Diagnostics, 1)
	d := tree.Diagnostics[0]
	assert.Contains(t, d.Suggestion, `lang="ts"`)
	assert.Equal(t, 17, d.Position.Column, "reported at the type, not at 'as'")
}

func TestEachTransitionLimit(t *testing.T) {
	tree := region(t, builder.KindEachStart, "{#each items as item, i (item.id)}", lexer.ModeUntyped,
		WithMaxEachTransitions(3))
	assert.Equal(t, []string{"each block is too long"}, messages(tree))
	assert.Empty(t, tree.Find(builder.KindTagDependentExpression))

	// The default limit is reached by a long chain of assertions.
	src := "{#each items" + strings.Repeat(" as T", 400) + " as item}"
	tree = region(t, builder.KindEachStart, src, lexer.ModeTyped)
	assert.Equal(t, []string{"each block is too long"}, messages(tree))

	tree = region(t, builder.KindEachStart, src, lexer.ModeTyped, WithMaxEachTransitions(5000))
	assert.Empty(t, tree.Diagnostics)
	assert.Len(t, tree.Find(builder.KindAsExpression), 400)
}

// eachMachineFor returns a machine positioned on the header of src, just
// after "{#each", and the open region root.
func eachMachineFor(t *testing.T, src string, mode lexer.LanguageMode, opts ...ParserOpt) (*eachMachine, builder.Marker) {
	t.Helper()
	tokens := lexer.ScanScript([]byte(src), lexer.Position{Line: 1, Column: 1}, false)
	b := builder.New(tokens)
	g, ok := lookupRegion(builder.KindEachStart)
	require.True(t, ok)
	r := &regionParser{
		cfg:      newConfig(opts),
		b:        b,
		g:        script.New(b, mode),
		mode:     mode,
		grammar:  g,
		selected: selectKind(builder.KindEachStart, mode),
	}
	root := b.Mark()
	for _, want := range []lexer.TokenType{lexer.START_MUSTACHE, lexer.SHARP} {
		require.True(t, b.At(want), "want %s, got %s", want, b.TokenType())
		b.Advance()
	}
	require.True(t, b.AtWord("each"))
	b.Advance()
	return &eachMachine{r: r, b: b}, root
}

func TestEachTransitionLimitUnwindsCheckpoints(t *testing.T) {
	src := "{#each items" + strings.Repeat(" as T", 6) + " as item, i (item.id)}"
	for limit := 1; limit <= 20; limit++ {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			fsm, root := eachMachineFor(t, src, lexer.ModeTyped, WithMaxEachTransitions(limit))
			fsm.run()
			assert.Equal(t, 0, fsm.stack.Len())
			assert.Equal(t, 1, fsm.b.OpenMarkers(), "only the region root is open")

			fsm.r.finish()
			fsm.b.Done(root, fsm.r.selected)
			require.Equal(t, 0, fsm.b.OpenMarkers())
			assert.Equal(t, []string{"each block is too long"}, messages(fsm.b.Finish()))
		})
	}
}

func TestEachStopHasNoTransition(t *testing.T) {
	fsm, _ := eachMachineFor(t, "{#each items}", lexer.ModeUntyped)
	assert.Panics(t, func() { fsm.step(eachStop) })
}

func TestEachModeSelectsRootKind(t *testing.T) {
	src := "{#each items as item}"
	rootKind := func(kind builder.NodeKind, mode lexer.LanguageMode) builder.NodeKind {
		tree := region(t, kind, src, mode)
		return tree.Kind(tree.Root())
	}
	assert.Equal(t, builder.KindEachStart, rootKind(builder.KindEachStart, lexer.ModeUntyped))
	assert.Equal(t, builder.KindEachStartTyped, rootKind(builder.KindEachStart, lexer.ModeTyped))
	// Asking for the typed kind directly still follows the mode.
	assert.Equal(t, builder.KindEachStart, rootKind(builder.KindEachStartTyped, lexer.ModeUntyped))
}

func TestEachStateTrace(t *testing.T) {
	tree := ParseString("{#each items as item, i}{/each}", WithDebugDetailed())

	var states []string
	for _, e := range tree.DebugEvents {
		if e.Event == "each_state" {
			states = append(states, e.Context)
		}
	}
	want := []string{"Expr", "As", "Item", "BaseEnd", "Index"}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("states (-want +got):\n%s", diff)
	}

	typed := ParseString(`<script lang="ts"></script>{#each items as T as item}{/each}`, WithDebugDetailed())
	states = states[:0]
	for _, e := range typed.DebugEvents {
		if e.Event == "each_state" {
			states = append(states, e.Context)
		}
	}
	want = []string{"Expr", "As", "Item", "ASType", "Type", "As", "Item", "BaseEnd"}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("typed states (-want +got):\n%s", diff)
	}
}
