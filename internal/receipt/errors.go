package receipt

import "fmt"

// ValidationError reports bad user input: a non-positive amount, an empty
// name, or an unknown participant.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StateError reports a command issued against a receipt that does not exist
// or cannot serve it (no open receipt, nothing to resolve).
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return e.Reason
}

func statef(format string, args ...any) error {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}
