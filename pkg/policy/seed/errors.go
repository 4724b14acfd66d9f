package seed

import (
	"fmt"
	"strings"
)

// LoadError reports a seed file that could not be read.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load seed file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load seed file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// EntryError reports a problem with one seed entry, either while parsing it
// or while applying it.
type EntryError struct {
	// FilePath is the seed file, if known.
	FilePath string

	// Line is the 1-indexed line the entry starts on.
	Line int

	// PolicyID is the entry's id as written.
	PolicyID string

	// Field is the offending key, if the problem is confined to one.
	Field string

	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EntryError) Error() string {
	var sb strings.Builder
	if e.FilePath != "" {
		sb.WriteString(e.FilePath)
		sb.WriteString(":")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "%d:", e.Line)
	}
	if sb.Len() > 0 {
		sb.WriteString(" ")
	}
	sb.WriteString("seed entry")
	if e.PolicyID != "" {
		fmt.Fprintf(&sb, " %s", e.PolicyID)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, " at %s", e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *EntryError) Unwrap() error {
	return e.Cause
}

// ErrorList collects the errors of several entries.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %v\n", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add appends err if it is not nil.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ToError returns nil for an empty list, the single error for a list of one,
// and the list itself otherwise.
func (e *ErrorList) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}
