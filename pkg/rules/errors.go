package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrCircularApplication is returned when a rule re-enters itself on an
	// element whose evaluation has not finished
	ErrCircularApplication = errors.New("circular rule application")

	// ErrNoSession is returned when applying or deferring work outside of a session
	ErrNoSession = errors.New("no active session")

	// ErrSessionActive is returned when Run is called while a session is in
	// flight, including from inside a rule body
	ErrSessionActive = errors.New("session already active")

	// ErrNoResult is returned when a result was forgotten before the session ended
	ErrNoResult = errors.New("rule produced no result")
)

// TransformationError describes a failed rule application.
type TransformationError struct {
	Rule    string
	Element string
	Err     error
}

// Error implements the error interface
func (e *TransformationError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
	}
	return fmt.Sprintf("rule %s on %s: %v", e.Rule, e.Element, e.Err)
}

// Unwrap returns the sentinel error
func (e *TransformationError) Unwrap() error {
	return e.Err
}
