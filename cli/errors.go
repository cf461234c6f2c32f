package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/svelteparse/runtime/parser"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "usage", "config", "check", "watch"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var cliErr *CLIError
	var internal *parser.InternalError
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	case errors.As(err, &internal):
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Internal error: ", ColorRed, useColor), internal.Error())
		_, _ = fmt.Fprintf(w, "%s\n", Colorize("  this is a bug in svelteparse, please report it", ColorGray, useColor))
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}

// writeDiagnostics prints every error and warning of tree in compact form
// and returns the number of errors.
func writeDiagnostics(w io.Writer, tree *parser.ParseTree, useColor bool) int {
	f := parser.ErrorFormatter{Source: tree.Source, Filename: tree.Filename, Compact: true, Color: useColor}
	for _, e := range tree.Errors {
		_, _ = fmt.Fprintln(w, f.Format(e))
	}
	for _, wn := range tree.Warnings {
		_, _ = fmt.Fprintln(w, f.FormatWarning(wn))
	}
	return len(tree.Errors)
}
