package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/svelteparse/runtime/config"
	"github.com/aledsdavies/svelteparse/runtime/lexer"
	"github.com/aledsdavies/svelteparse/runtime/parser"
)

const version = "0.1.0"

// debugEnv turns on debug logging like --debug.
const debugEnv = "SVELTEPARSE_DEBUG"

// app holds the persistent flags and the streams commands write to.
type app struct {
	configPath string
	lang       string
	debug      bool
	noColor    bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	// color is decided once flags are parsed.
	color bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	rootCmd := newRootCmd(a)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		FormatError(os.Stderr, err, ShouldUseColor(a.noColor))
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "svelteparse",
		Short:         "Parse and check Svelte component templates",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug := a.debug || os.Getenv(debugEnv) != ""
			a.logger = lexer.NewLogger(a.stderr, debug)
			a.color = ShouldUseColor(a.noColor) && a.stdout == io.Writer(os.Stdout)
			if _, err := lexer.ParseLanguageMode(a.lang); err != nil {
				return &CLIError{
					Type:    "usage",
					Message: fmt.Sprintf("invalid --lang %q", a.lang),
					Hint:    "use auto, js or ts",
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to "+config.FileName+" (default: search upwards from the input)")
	rootCmd.PersistentFlags().StringVar(&a.lang, "lang", "auto", "Expression dialect when a component does not declare one: auto, js or ts")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newParseCmd(a), newCheckCmd(a), newTokensCmd(a), newWatchCmd(a))
	return rootCmd
}

// parserOptions loads the configuration for a file at path and turns the
// persistent flags into parser options. The --lang flag wins over the
// config; a lang attribute in the component wins over both.
func (a *app) parserOptions(path string) ([]parser.ParserOpt, error) {
	cfg, err := a.loadConfig(path)
	if err != nil {
		return nil, &CLIError{
			Type:    "config",
			Message: "could not load configuration",
			Details: err.Error(),
			Hint:    "fix " + config.FileName + " or pass --config",
		}
	}
	a.logger.Debug("config", "path", cfg.Path, "svelte", cfg.Svelte, "language", cfg.Language)

	opts := []parser.ParserOpt{
		parser.WithConfig(cfg),
		parser.WithLogger(a.logger),
	}
	if path != "" && path != "-" {
		opts = append(opts, parser.WithFilename(path))
	}
	if mode, _ := lexer.ParseLanguageMode(a.lang); mode != lexer.ModeUnset {
		opts = append(opts, parser.WithLanguageMode(mode))
	}
	if a.debug {
		opts = append(opts, parser.WithDebugPaths())
	}
	return opts, nil
}

func (a *app) loadConfig(path string) (*config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	dir := "."
	if path != "" && path != "-" {
		dir = filepath.Dir(path)
	}
	return config.Find(dir)
}

// getInputReader handles the 3 modes of input:
// 1. Explicit stdin with "-"
// 2. Piped input when no file is given
// 3. A file path
func (a *app) getInputReader(file string) (io.Reader, func() error, error) {
	if file == "-" || (file == "" && a.hasPipedInput()) {
		return a.stdin, func() error { return nil }, nil
	}
	if file == "" {
		return nil, nil, &CLIError{
			Type:    "usage",
			Message: "no input",
			Hint:    "pass a file, or - to read standard input",
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", file, err)
	}
	return f, f.Close, nil
}

// hasPipedInput detects if there's data piped to stdin
func (a *app) hasPipedInput() bool {
	f, ok := a.stdin.(*os.File)
	if !ok {
		return a.stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	// Pipes may not report a size, so only the mode is checked.
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readInput reads the whole input named by file.
func (a *app) readInput(file string) ([]byte, error) {
	reader, closeFunc, err := a.getInputReader(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFunc() }()
	return io.ReadAll(reader)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
