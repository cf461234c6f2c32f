package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/reparse"
)

// run executes the command line with the given stdin and returns what was
// written to stdout and stderr.
func run(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{stdin: stdin, stdout: &out, stderr: &errOut}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCommand(t *testing.T) {
	file := writeFile(t, t.TempDir(), "App.svelte", "<p>{x}</p>")

	out, _, err := run(t, nil, "parse", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mode: js\nDocument\n"), "got:\n%s", out)
	assert.Contains(t, out, "ContentExpression")
	assert.Contains(t, out, `IDENTIFIER "x"`)
}

func TestParseCommandReportsDiagnosticsOnStderr(t *testing.T) {
	out, errOut, err := run(t, strings.NewReader("{#if a}"), "parse", "-")
	require.NoError(t, err, "parse prints the tree even when the component has errors")
	assert.Contains(t, out, "IfBlock")
	assert.Contains(t, errOut, "{#if} block is not closed")
}

func TestInputModes(t *testing.T) {
	const src = "<p>{x}</p>"

	t.Run("ExplicitStdin", func(t *testing.T) {
		out, _, err := run(t, strings.NewReader(src), "tokens", "-")
		require.NoError(t, err)
		assert.Contains(t, out, `1:4 MUSTACHE "{x}"`)
	})

	t.Run("PipedInputWithoutFile", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		go func() {
			defer func() { _ = w.Close() }()
			_, err := w.Write([]byte(src))
			assert.NoError(t, err)
		}()
		defer func() { _ = r.Close() }()

		out, _, err := run(t, r, "tokens")
		require.NoError(t, err)
		assert.Contains(t, out, `1:4 MUSTACHE "{x}"`)
	})

	t.Run("NoInput", func(t *testing.T) {
		_, _, err := run(t, nil, "tokens")
		var cliErr *CLIError
		require.True(t, errors.As(err, &cliErr), "err = %v", err)
		assert.Equal(t, "usage", cliErr.Type)
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, _, err := run(t, nil, "parse", "/does/not/exist.svelte")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error opening file")
		assert.Contains(t, err.Error(), "/does/not/exist.svelte")
	})
}

func TestTokensWithRegions(t *testing.T) {
	out, _, err := run(t, strings.NewReader("{a}"), "tokens", "--regions", "-")
	require.NoError(t, err)
	want := strings.Join([]string{
		`1:1 MUSTACHE "{a}"`,
		`    1:1 LBRACE "{"`,
		`    1:2 IDENTIFIER "a"`,
		`    1:3 RBRACE "}"`,
		`    1:4 EOF ""`,
		`1:4 EOF ""`,
		``,
	}, "\n")
	assert.Equal(t, want, out)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Good.svelte", "<p>{x}</p>")
	writeFile(t, dir, "nested/Bad.svelte", "{#each items as item}\n<p>{item}</p>")
	writeFile(t, dir, "notes.txt", "{#if")
	writeFile(t, dir, ".cache/Hidden.svelte", "{#if")

	out, _, err := run(t, nil, "check", dir)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr), "err = %v", err)
	assert.Equal(t, "check", cliErr.Type)
	assert.Contains(t, cliErr.Message, "1 error, 0 warnings in 2 files")
	assert.Contains(t, out, "{#each} block is not closed")
	assert.Contains(t, out, filepath.Join("nested", "Bad.svelte")+":1:1")
	assert.NotContains(t, out, "Hidden")
}

func TestCheckCommandClean(t *testing.T) {
	file := writeFile(t, t.TempDir(), "App.svelte", "<script>let n = 0</script>\n<button on:click={() => n++}>{n}</button>")
	out, _, err := run(t, nil, "check", file)
	require.NoError(t, err)
	assert.Contains(t, out, "0 errors, 0 warnings in 1 file")
}

func TestLangFlag(t *testing.T) {
	file := writeFile(t, t.TempDir(), "List.svelte", "{#each items as Item as item}{item}{/each}")

	_, _, err := run(t, nil, "check", file)
	assert.Error(t, err, "type assertions need the typed dialect")

	_, _, err = run(t, nil, "--lang", "ts", "check", file)
	assert.NoError(t, err)

	_, _, err = run(t, nil, "--lang", "coffee", "check", file)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr), "err = %v", err)
	assert.Equal(t, "usage", cliErr.Type)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "App.svelte", "{# if x}{/if}")

	_, _, err := run(t, nil, "check", file)
	assert.NoError(t, err, "whitespace after a sigil is a warning by default")

	cfg := writeFile(t, dir, "strict.yaml", "whitespace: error\n")
	out, _, err := run(t, nil, "--config", cfg, "check", file)
	assert.Error(t, err)
	assert.Contains(t, out, "whitespace is not allowed after '#'")

	bad := writeFile(t, dir, "bad.yaml", "whitespace: loud\n")
	_, _, err = run(t, nil, "--config", bad, "check", file)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr), "err = %v", err)
	assert.Equal(t, "config", cliErr.Type)
}

func TestConfigIsFoundNextToTheComponent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svelteparse.yaml", "whitespace: error\n")
	file := writeFile(t, dir, "src/App.svelte", "{# if x}{/if}")

	_, _, err := run(t, nil, "check", file)
	assert.Error(t, err)
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	FormatError(&buf, &CLIError{Message: "no input", Details: "details", Hint: "pass a file"}, false)
	assert.Equal(t, "Error: no input\n\ndetails\nHint: pass a file\n", buf.String())

	buf.Reset()
	FormatError(&buf, errors.New("boom"), true)
	assert.Equal(t, ColorRed+"Error: "+ColorReset+"boom\n", buf.String())

	buf.Reset()
	FormatError(&buf, nil, false)
	assert.Empty(t, buf.String())
}

func TestShouldUseColor(t *testing.T) {
	assert.False(t, ShouldUseColor(true))
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ShouldUseColor(false))
}

func TestDiffEdit(t *testing.T) {
	tests := []struct {
		old, next string
		want      reparse.Edit
	}{
		{"{a}", "{ab}", reparse.Edit{Offset: 2, Insert: "b"}},
		{"{abc}", "{ac}", reparse.Edit{Offset: 2, Delete: 1}},
		{"<p>{a}</p>", "<p>{b}</p>", reparse.Edit{Offset: 4, Delete: 1, Insert: "b"}},
		{"aaa", "aa", reparse.Edit{Offset: 2, Delete: 1}},
		{"", "x", reparse.Edit{Insert: "x"}},
		{"same", "same", reparse.Edit{Offset: 4}},
	}
	for _, tt := range tests {
		got := diffEdit([]byte(tt.old), []byte(tt.next))
		assert.Equal(t, tt.want, got, "%q -> %q", tt.old, tt.next)

		applied := tt.old[:got.Offset] + got.Insert + tt.old[got.Offset+got.Delete:]
		assert.Equal(t, tt.next, applied)
	}
}

// syncBuffer lets the watch loop write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchRechecksWrittenComponents(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "App.svelte", "<p>{a}</p>")

	out := &syncBuffer{}
	a := &app{stdout: out, stderr: io.Discard, lang: "auto", logger: lexer.NewLogger(io.Discard, false)}
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, dir, func() { close(ready) }) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}
	assert.Contains(t, out.String(), "App.svelte: ok")

	require.NoError(t, os.WriteFile(file, []byte("<p>{a +}</p>"), 0o644))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "expression expected")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
