package loader

import (
	"errors"
	"fmt"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
	"github.com/conduit-lang/metamodel/compiler/parser"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// Load phases
const (
	PhaseIO       = "io"
	PhaseParse    = "parse"
	PhaseSchema   = "schema"
	PhaseInstance = "instance"
)

// LoadError reports why a description file could not be loaded.
// Diagnostics carry positions and source context for display; Err keeps
// the underlying error for errors.Is and errors.As.
type LoadError struct {
	Phase       string
	File        string
	Diagnostics cerrors.ErrorList
	Err         error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	case 1:
		return e.Diagnostics[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", e.Diagnostics[0].Error(), len(e.Diagnostics)-1)
	}
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}

func ioError(file string, err error) *LoadError {
	diag := cerrors.NewCompilerError(cerrors.ErrReadFailed, err.Error(), cerrors.SourceLocation{File: file}).
		WithCause(err)
	return &LoadError{Phase: PhaseIO, File: file, Diagnostics: cerrors.ErrorList{diag}, Err: err}
}

func parseError(file, source string, errs parser.ParseErrorList) *LoadError {
	return &LoadError{
		Phase:       PhaseParse,
		File:        file,
		Diagnostics: cerrors.EnrichAll(errs.ToCompilerErrors(), source),
		Err:         errs,
	}
}

func semanticError(phase, file, source string, loc parser.SourceLocation, err error) *LoadError {
	code := schemaCode(err)
	if phase == PhaseInstance {
		code = instanceCode(err)
	}

	diag := cerrors.NewCompilerError(code, err.Error(), cerrors.SourceLocation{
		File:   loc.File,
		Line:   loc.Line,
		Column: loc.Column,
	}).WithCause(err)
	if diag.Location.File == "" {
		diag.Location.File = file
	}
	diag = cerrors.EnrichError(diag, source)

	return &LoadError{Phase: phase, File: file, Diagnostics: cerrors.ErrorList{diag}, Err: err}
}

func schemaCode(err error) string {
	switch {
	case errors.Is(err, schema.ErrDuplicateElement):
		return cerrors.ErrDuplicateElement
	case errors.Is(err, schema.ErrDuplicateField):
		return cerrors.ErrDuplicateField
	case errors.Is(err, schema.ErrInvalidName):
		return cerrors.ErrInvalidName
	case errors.Is(err, schema.ErrSelfAssociation):
		return cerrors.ErrInvalidSelfAssoc
	case errors.Is(err, schema.ErrInvalidLimit):
		return cerrors.ErrInvalidLimit
	default:
		return cerrors.ErrUndefinedElement
	}
}

func instanceCode(err error) string {
	switch {
	case errors.Is(err, schema.ErrUnknownElement):
		return cerrors.ErrUndefinedElement
	case errors.Is(err, model.ErrUnknownField):
		return cerrors.ErrUnknownField
	case errors.Is(err, model.ErrReadOnlyField):
		return cerrors.ErrReadOnlyField
	case errors.Is(err, model.ErrTypeMismatch):
		return cerrors.ErrTypeMismatch
	case errors.Is(err, model.ErrCapacityExceeded):
		return cerrors.ErrCapacityExceeded
	case errors.Is(err, model.ErrMissingRequired):
		return cerrors.ErrMissingRequired
	case errors.Is(err, model.ErrAbstractType):
		return cerrors.ErrAbstractType
	case errors.Is(err, model.ErrMissingRoot):
		return cerrors.ErrMissingRoot
	case errors.Is(err, model.ErrUnknownIdentifier):
		return cerrors.ErrUnknownIdentifier
	case errors.Is(err, model.ErrInvalidIdentifier):
		return cerrors.ErrInvalidIdentifier
	case errors.Is(err, model.ErrUnserializableCycle), errors.Is(err, model.ErrUnserializableValue):
		return cerrors.ErrUnserializable
	default:
		return cerrors.ErrInvalidStatement
	}
}

// Diagnose converts graph validation failures of file into diagnostics
func Diagnose(file string, errs []error) cerrors.ErrorList {
	var out cerrors.ErrorList
	for _, err := range errs {
		out = append(out, cerrors.NewCompilerError(instanceCode(err), err.Error(),
			cerrors.SourceLocation{File: file}).WithCause(err))
	}
	return out
}
