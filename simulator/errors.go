package simulator

import "fmt"

// SimError is a custom error type for simulation errors
type SimError struct {
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("simulation error: %s", e.Message)
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(msg string) error {
	return SimError{Message: fmt.Sprintf("invalid config: %s", msg)}
}

// ErrInvariant creates the error used to panic when a component is driven
// out of order (e.g. removing the active process from an idle device).
// These are driver bugs, never retryable conditions.
func ErrInvariant(format string, args ...interface{}) error {
	return SimError{Message: "BUG: " + fmt.Sprintf(format, args...)}
}
