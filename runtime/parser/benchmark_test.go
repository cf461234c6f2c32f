package parser

import (
	"strings"
	"testing"

	"github.com/aledsdavies/svelteparse/runtime/builder"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
)

// Benchmark suite for parser performance analysis.
//
// Mirrors lexer benchmark structure:
// - BenchmarkParserCore: Primary performance across component complexity levels
// - BenchmarkTelemetryModes: Observability overhead (production vs debug)
// - BenchmarkParserScaling: Linear scaling verification across file sizes
// - BenchmarkRegion: One region on its own, the unit of re-parse

// BenchmarkParserCore measures lex + parse across component complexity levels.
func BenchmarkParserCore(b *testing.B) {
	scenarios := map[string]string{
		"empty":     "",
		"simple":    "<p>Hello {name}!</p>",
		"directive": `<button on:click|once={handle} class:active>go</button>`,
		"complex":   generateComplexComponent(),
	}

	for name, input := range scenarios {
		b.Run(name, func(b *testing.B) {
			inputBytes := []byte(input)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				tree := Parse(inputBytes)
				_ = tree
			}
		})
	}
}

// BenchmarkTelemetryModes measures observability overhead for production vs debugging.
// Target: <10% overhead for timing telemetry.
func BenchmarkTelemetryModes(b *testing.B) {
	inputBytes := []byte(generateComplexComponent())

	modes := map[string][]ParserOpt{
		"production": {},                      // No telemetry (production default)
		"monitoring": {WithTelemetryBasic()},  // Basic telemetry for monitoring
		"debugging":  {WithTelemetryTiming()}, // Full telemetry for debugging
	}

	for mode, opts := range modes {
		b.Run(mode, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				tree := Parse(inputBytes, opts...)
				_ = tree
			}
		})
	}
}

// BenchmarkParserScaling verifies linear O(n) performance scaling across file sizes.
func BenchmarkParserScaling(b *testing.B) {
	sizes := map[string]int{
		"small":  10,
		"medium": 100,
		"large":  1000,
	}

	for size, rows := range sizes {
		inputBytes := []byte(generateScalingInput(rows))

		b.Run(size, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				tree := Parse(inputBytes)
				_ = tree
			}
			b.SetBytes(int64(len(inputBytes)))
		})
	}
}

// BenchmarkRegion measures a single each header, untyped and typed.
func BenchmarkRegion(b *testing.B) {
	scenarios := map[string]struct {
		src  string
		mode lexer.LanguageMode
	}{
		"untyped": {"{#each items as {id, name}, i (id)}", lexer.ModeUntyped},
		"typed":   {"{#each items as Row[] as {id, name}, i (id)}", lexer.ModeTyped},
	}

	for name, sc := range scenarios {
		src := []byte(sc.src)
		b.Run(name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := ParseRegion(builder.KindEachStart, src, lexer.Position{}, sc.mode); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Helper functions to generate test inputs

func generateComplexComponent() string {
	return `<script lang="ts">
	import Row from './Row.svelte'
	export let items: Item[] = []
	let selected = null
	function select(item: Item) { selected = item }
</script>

<ul class:empty={items.length === 0}>
	{#each items as item, i (item.id)}
		<li on:click|preventDefault={() => select(item)} class:selected={item === selected}>
			<Row {...item} index={i} />
		</li>
	{:else}
		<li>No items</li>
	{/each}
</ul>

{#await load() then data}
	{@html data.body}
{:catch err}
	<p>{err.message}</p>
{/await}
`
}

func generateScalingInput(rows int) string {
	var sb strings.Builder
	sb.WriteString("<script>let items = []</script>\n")
	for i := 0; i < rows; i++ {
		sb.WriteString(`{#each items as item, i (item.id)}
	<p class:odd={i % 2} on:click={() => item.toggle()}>{item.name}</p>
{/each}
`)
	}
	return sb.String()
}
