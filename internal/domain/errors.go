package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Structural and validation failures surfaced by the schedule engine.
// Callers match them with errors.Is; none of them is retryable without
// changing the input.
var (
	ErrInvalidHierarchy  = errors.New("invalid hierarchy")
	ErrCycleDetected     = errors.New("cycle detected")
	ErrSelfDependency    = errors.New("self dependency")
	ErrNotALeaf          = errors.New("not a leaf")
	ErrScheduleConflict  = errors.New("schedule conflict")
	ErrEmptyProject      = errors.New("empty project")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicate         = errors.New("duplicate")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError ties an error kind to the node or edge identifiers that
// caused it.
type ValidationError struct {
	Kind   error
	IDs    []string
	Detail string
}

// NewValidationError builds a ValidationError of the given kind.
func NewValidationError(kind error, detail string, ids ...string) *ValidationError {
	return &ValidationError{Kind: kind, IDs: ids, Detail: detail}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// OffendingIDs returns the identifiers attached to err, if it carries any.
func OffendingIDs(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.IDs
	}
	return nil
}
