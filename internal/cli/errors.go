package cli

import (
	"errors"
	"fmt"
)

// Exit codes besides the report codes 0, 1 and 2.
const (
	ExitUsage  = 3
	ExitConfig = 4
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

func configError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: message, Cause: cause}
}

// ExitCode extracts the exit code from an error. Errors without one exit with ExitUsage.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitUsage
}
