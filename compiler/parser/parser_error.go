package parser

import (
	"fmt"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
)

// ParseError represents a parsing error
type ParseError struct {
	Code     string
	Message  string
	Location SourceLocation
}

// Error implements the error interface
func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Location.File, e.Location.Line, e.Location.Column, e.Message)
}

// ToCompilerError converts the error to a coded diagnostic
func (e ParseError) ToCompilerError() cerrors.CompilerError {
	code := e.Code
	if code == "" {
		code = cerrors.ErrUnexpectedToken
	}
	return cerrors.NewCompilerError(code, e.Message, cerrors.SourceLocation{
		File:   e.Location.File,
		Line:   e.Location.Line,
		Column: e.Location.Column,
	})
}

// ParseErrorList is a collection of parse errors
type ParseErrorList []ParseError

// Error implements the error interface for error lists
func (el ParseErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// HasErrors returns true if there are any errors
func (el ParseErrorList) HasErrors() bool {
	return len(el) > 0
}

// ToCompilerErrors converts all errors to coded diagnostics
func (el ParseErrorList) ToCompilerErrors() cerrors.ErrorList {
	out := make(cerrors.ErrorList, len(el))
	for i, err := range el {
		out[i] = err.ToCompilerError()
	}
	return out
}
