package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a ticket, session, or project id does not resolve.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input, rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PreconditionError reports an unsatisfied status or finding-count gate.
// The mutation is rejected with no side effects.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: precondition failed: %s", e.Op, e.Reason)
}

// DenialError is raised when an enforcement gate blocks a call. The message
// embeds the exact remediation call so an autonomous caller can self-correct
// without human intervention.
type DenialError struct {
	Gate        string
	Reason      string
	Remediation string
}

func (e *DenialError) Error() string {
	if e.Remediation == "" {
		return fmt.Sprintf("%s: %s", e.Gate, e.Reason)
	}
	return fmt.Sprintf("%s: %s\n%s", e.Gate, e.Reason, e.Remediation)
}

// IsPrecondition reports whether err is a PreconditionError
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
