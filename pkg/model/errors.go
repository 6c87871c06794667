package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/metamodel/compiler/parser"
)

var (
	// ErrUnknownField is returned when a field is not declared for the element type
	ErrUnknownField = errors.New("unknown field")

	// ErrReadOnlyField is returned when writing a child collection directly
	ErrReadOnlyField = errors.New("field is read-only")

	// ErrTypeMismatch is returned when a reference value is not an element of the target type
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCapacityExceeded is returned when a bounded collection is full
	ErrCapacityExceeded = errors.New("collection limit exceeded")

	// ErrMissingRequired is returned when required references are left unset
	ErrMissingRequired = errors.New("missing required reference")

	// ErrAbstractType is returned when instantiating an abstract element type
	ErrAbstractType = errors.New("abstract element can not be instantiated")

	// ErrMissingRoot is returned when no element is bound to the root identifier
	ErrMissingRoot = errors.New("missing root element")

	// ErrUnknownIdentifier is returned when an identifier is not bound
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrInvalidIdentifier is returned when binding a name that is not an identifier
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnserializableCycle is returned when required references form a cycle
	ErrUnserializableCycle = errors.New("required references form a cycle")

	// ErrUnserializableValue is returned for attribute values the notation can not express
	ErrUnserializableValue = errors.New("attribute value can not be serialized")
)

// ValidationError describes a failed element operation.
type ValidationError struct {
	Type    string   // element type name
	Element string   // element label, empty before the element exists
	Field   string   // offending field, if any
	Fields  []string // every offending field for ErrMissingRequired
	Detail  string
	Err     error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	subject := e.Element
	if subject == "" {
		subject = e.Type
	}

	var b strings.Builder
	b.WriteString(subject)
	switch {
	case len(e.Fields) > 0:
		fmt.Fprintf(&b, ": %v: %s", e.Err, strings.Join(e.Fields, ", "))
	case e.Field != "":
		fmt.Fprintf(&b, ".%s: %v", e.Field, e.Err)
	default:
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Unwrap returns the sentinel error
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StatementError locates a failure while replaying instance statements.
type StatementError struct {
	Index    int
	Location parser.SourceLocation
	Err      error
}

// Error implements the error interface
func (e *StatementError) Error() string {
	if e.Location.Line == 0 {
		return fmt.Sprintf("statement %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("%s:%d:%d: %v", e.Location.File, e.Location.Line, e.Location.Column, e.Err)
}

// Unwrap returns the underlying error
func (e *StatementError) Unwrap() error {
	return e.Err
}
