package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateElement is returned when an element name is already registered
	ErrDuplicateElement = errors.New("element already defined")

	// ErrDuplicateField is returned when a field name collides with an existing field
	ErrDuplicateField = errors.New("field already defined")

	// ErrInvalidName is returned for names with a reserved marker, reserved words or bad shape
	ErrInvalidName = errors.New("invalid name")

	// ErrSelfAssociation is returned for self-associations that could never be satisfied
	ErrSelfAssociation = errors.New("invalid self-association")

	// ErrInvalidLimit is returned when an association limit is not a positive integer
	ErrInvalidLimit = errors.New("limit must be a positive integer")

	// ErrUnknownElement is returned when an element type is not registered
	ErrUnknownElement = errors.New("unknown element")
)

// SchemaError describes a failed schema declaration.
type SchemaError struct {
	Element string
	Field   string
	Detail  string
	Err     error
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	var subject string
	switch {
	case e.Element != "" && e.Field != "":
		subject = fmt.Sprintf("%s.%s", e.Element, e.Field)
	case e.Element != "":
		subject = e.Element
	default:
		subject = e.Field
	}

	if e.Detail != "" {
		return fmt.Sprintf("schema: %s: %v: %s", subject, e.Err, e.Detail)
	}
	return fmt.Sprintf("schema: %s: %v", subject, e.Err)
}

// Unwrap returns the sentinel error
func (e *SchemaError) Unwrap() error {
	return e.Err
}
