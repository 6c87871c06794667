// Package ui renders CLI output: diagnostics, status lines and tables.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
	"github.com/conduit-lang/metamodel/internal/loader"
)

// Diagnostic is a coded error plus optional spelling suggestions
type Diagnostic struct {
	cerrors.CompilerError
	Suggestions []string
}

// Diagnostics extracts the coded errors carried by err. Errors without
// codes become a single E999 diagnostic without a location.
func Diagnostics(err error) cerrors.ErrorList {
	if err == nil {
		return nil
	}

	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) && len(loadErr.Diagnostics) > 0 {
		return loadErr.Diagnostics
	}
	var ce cerrors.CompilerError
	if errors.As(err, &ce) {
		return cerrors.ErrorList{ce}
	}
	return cerrors.ErrorList{cerrors.NewCompilerError(cerrors.ErrUnexpected, err.Error(), cerrors.SourceLocation{}).
		WithCause(err)}
}

// FormatDiagnostic renders one diagnostic with its source excerpt
//
// Example output:
//
//	error[E205]: schema: Plcae: unknown element
//	  --> net.m1:3:5
//	   3 | p = Plcae(of=root)
//	     |     ^
//	   Did you mean: Place?
func FormatDiagnostic(d Diagnostic, noColor bool) string {
	var b strings.Builder
	b.WriteString(d.FormatForTerminal())

	if len(d.Suggestions) > 0 {
		yellow := color.New(color.FgYellow)
		if noColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(d.Suggestions, ", "))
	}
	return b.String()
}

// WriteDiagnostics writes every diagnostic followed by a summary line
func WriteDiagnostics(w io.Writer, diags []Diagnostic, noColor bool) {
	for _, d := range diags {
		fmt.Fprintln(w, FormatDiagnostic(d, noColor))
	}

	red := color.New(color.FgRed, color.Bold)
	if noColor {
		red.DisableColor()
	}
	noun := "errors"
	if len(diags) == 1 {
		noun = "error"
	}
	red.Fprintf(w, "✗ %d %s\n", len(diags), noun)
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// FormatWarning creates a warning message
func FormatWarning(message string, noColor bool) string {
	yellow := color.New(color.FgYellow, color.Bold)
	if noColor {
		yellow.DisableColor()
	}
	return yellow.Sprintf("⚠ %s", message)
}

// WriteWarning writes a warning message to the writer
func WriteWarning(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatWarning(message, noColor))
}
