package ledger

import (
	"errors"
	"fmt"
)

// ErrDuplicatePerson is returned by AddPerson when the name is already in the
// rotation. Callers treat it as a successful no-op.
var ErrDuplicatePerson = errors.New("ledger: person already exists")

// ValidationError reports a missing or malformed required field. The
// operation that returned it was not applied.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("ledger: invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
