package lifecycle

import (
	"fmt"

	"github.com/propdesk/propdesk/internal/models"
)

// InvalidTransitionError is returned when a status change is not in the
// transition table for the issue's current status. The issue is not
// mutated.
type InvalidTransitionError struct {
	From models.IssueStatus
	To   models.IssueStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// UnauthorizedError is returned when the acting role may not perform the
// requested operation.
type UnauthorizedError struct {
	Role   models.Role
	Action string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}

// ValidationError is returned when required input is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
