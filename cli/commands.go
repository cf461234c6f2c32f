package main

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/parser"
)

// componentExt marks files check and watch pick up inside directories.
const componentExt = ".svelte"

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Print the parse tree of a component",
		Long:  "Print the document tree with every mustache region's tree nested in place. Reads standard input for - or piped input.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := optionalArg(args)
			src, err := a.readInput(file)
			if err != nil {
				return err
			}
			opts, err := a.parserOptions(file)
			if err != nil {
				return err
			}
			tree := parser.Parse(src, opts...)
			_, _ = io.WriteString(a.stdout, tree.Dump())
			writeDiagnostics(a.stderr, tree, a.color)
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH...",
		Short: "Report diagnostics; exit 1 if any component has errors",
		Long:  "Check components and every " + componentExt + " file under directories. Exits with status 1 when any error is found.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectComponents(args)
			if err != nil {
				return err
			}
			var errCount, warnCount, failed int
			for _, file := range files {
				tree, err := a.checkFile(file)
				if err != nil {
					return err
				}
				if n := writeDiagnostics(a.stdout, tree, a.color); n > 0 {
					errCount += n
					failed++
				}
				warnCount += len(tree.Warnings)
			}

			summary := fmt.Sprintf("%s, %s in %s",
				plural(errCount, "error"), plural(warnCount, "warning"), plural(len(files), "file"))
			if errCount > 0 {
				return &CLIError{
					Type:    "check",
					Message: fmt.Sprintf("check failed: %s", summary),
					Hint:    fmt.Sprintf("%s with errors", plural(failed, "file")),
				}
			}
			_, _ = fmt.Fprintln(a.stdout, Colorize(summary, ColorGreen, a.color))
			return nil
		},
	}
}

func (a *app) checkFile(file string) (*parser.ParseTree, error) {
	src, err := a.readInput(file)
	if err != nil {
		return nil, err
	}
	opts, err := a.parserOptions(file)
	if err != nil {
		return nil, err
	}
	tree := parser.Parse(src, opts...)
	a.logger.Debug("checked", "file", file, "errors", len(tree.Errors), "warnings", len(tree.Warnings))
	return tree, nil
}

// collectComponents expands directories into the component files under them.
// Files named explicitly are kept whatever their extension.
func collectComponents(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		if p == "-" {
			files = append(files, p)
			continue
		}
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			if path == p || filepath.Ext(path) == componentExt {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", p, err)
		}
	}
	return files, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func newTokensCmd(a *app) *cobra.Command {
	var regions bool
	cmd := &cobra.Command{
		Use:   "tokens [FILE]",
		Short: "Print the markup tokens of a component",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := optionalArg(args)
			src, err := a.readInput(file)
			if err != nil {
				return err
			}
			if !regions {
				lex := lexer.NewLexer("", lexer.WithLogger(a.logger))
				lex.Init(src)
				writeTokens(a.stdout, lex.GetTokens(), "")
				return nil
			}

			opts, err := a.parserOptions(file)
			if err != nil {
				return err
			}
			tree := parser.Parse(src, opts...)
			for i := range tree.Tokens {
				writeTokens(a.stdout, tree.Tokens[i:i+1], "")
				if r, ok := tree.RegionAt(i); ok && r.Tree != nil {
					writeTokens(a.stdout, r.Tree.Tokens, "    ")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&regions, "regions", false, "Also print the script tokens of every mustache region")
	return cmd
}

// writeTokens prints one token per line as "line:col TYPE "text"".
func writeTokens(w io.Writer, tokens []lexer.Token, indent string) {
	for _, tok := range tokens {
		_, _ = fmt.Fprintf(w, "%s%d:%d %s %q\n", indent, tok.Position.Line, tok.Position.Column, tok.Type, tok.Text)
	}
}
