package store

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed data passed to Write. The mutation
// is aborted and the ledger left unchanged.
type ValidationError struct {
	// Reason describes what was malformed.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid ledger: %s", e.Reason)
}

// IsValidation returns true if the error is a validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
