// Package errors provides positioned, coded diagnostics for loading schema
// and instance descriptions.
package errors

import (
	"encoding/json"
	"fmt"
)

// Severity represents the severity level of an error
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// SourceLocation represents a location in a description file
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// ErrorContext contains surrounding source lines for an error
type ErrorContext struct {
	SourceLines []string `json:"source_lines"`
	Highlight   int      `json:"highlight"` // index of the error line in SourceLines
	FirstLine   int      `json:"first_line"`
}

// CompilerError is a diagnostic produced while loading a description
type CompilerError struct {
	Phase    string         // "io", "lexer", "parser", "schema", "instance"
	Code     string         // "E001", "E100", etc.
	Message  string         // Human-readable message
	Location SourceLocation // File, line, column
	Severity Severity
	Context  ErrorContext
	Cause    error // underlying error, kept for errors.Is/As
}

// Error implements the error interface
func (e CompilerError) Error() string {
	if e.Location.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Location.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Location.File,
		e.Location.Line,
		e.Location.Column,
		e.Code,
		e.Message)
}

// Unwrap returns the underlying cause
func (e CompilerError) Unwrap() error {
	return e.Cause
}

// NewCompilerError creates a new CompilerError; the phase is derived from the code
func NewCompilerError(code, message string, location SourceLocation) CompilerError {
	return CompilerError{
		Phase:    GetPhaseForCode(code),
		Code:     code,
		Message:  message,
		Location: location,
		Severity: Error,
	}
}

// WithCause attaches the underlying error
func (e CompilerError) WithCause(cause error) CompilerError {
	e.Cause = cause
	return e
}

// WithContext adds source context to the error
func (e CompilerError) WithContext(ctx ErrorContext) CompilerError {
	e.Context = ctx
	return e
}

// MarshalJSON implements json.Marshaler
func (e CompilerError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Phase    string         `json:"phase"`
		Code     string         `json:"code"`
		Message  string         `json:"message"`
		Severity Severity       `json:"severity"`
		Location SourceLocation `json:"location"`
		Context  *ErrorContext  `json:"context,omitempty"`
	}{
		Phase:    e.Phase,
		Code:     e.Code,
		Message:  e.Message,
		Severity: e.Severity,
		Location: e.Location,
		Context:  contextOrNil(e.Context),
	})
}

// IsError returns true if the error is at Error or Fatal severity
func (e CompilerError) IsError() bool {
	return e.Severity == Error || e.Severity == Fatal
}

func contextOrNil(ctx ErrorContext) *ErrorContext {
	if len(ctx.SourceLines) == 0 {
		return nil
	}
	return &ctx
}

// ErrorList is a collection of diagnostics returned as one error
type ErrorList []CompilerError

// Error implements the error interface
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Unwrap exposes every diagnostic to errors.Is/As
func (el ErrorList) Unwrap() []error {
	out := make([]error, len(el))
	for i, e := range el {
		out[i] = e
	}
	return out
}
