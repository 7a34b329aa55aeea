package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both an unknown beat id and an owner-scoped write
// against a beat the caller does not own. The two cases are deliberately
// indistinguishable so existence is not leaked.
var ErrNotFound = errors.New("beat not found")

// ValidationError rejects malformed input before it reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
