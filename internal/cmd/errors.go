package cmd

import "fmt"

// Exit codes returned by pydist
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitMismatch = 2
)

// ExitError carries the exit status a command should end with.
// Message, when set, is printed to stderr by main as-is.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("exit status %d", e.Code)
	}
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
