package combat

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected command: the session state was not
// mutated and no event was emitted.
type ValidationError struct {
	// Field names the offending input ("target", "ammo", "uses", ...).
	Field string
	// Reason is a human-readable explanation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrSessionEnded is returned by player commands issued against a session
// that has already been destroyed. Ticks on ended sessions are silent no-ops
// instead; only foreground commands surface this error.
var ErrSessionEnded = errors.New("combat: session has ended")
