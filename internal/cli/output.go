package cli

import (
	"errors"
	"fmt"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the run finished without storing its records, or fetched nothing
	ExitCommandError = 2 // configuration, flags or schema setup
)

// ExitError carries the exit code for a failed command. For pipeline runs it
// also names the run and its outcome label (aborted_no_data, store_unavailable...).
type ExitError struct {
	Code    int
	Message string
	RunID   string
	Outcome string
	Err     error
}

func (e *ExitError) Error() string {
	msg := e.Message
	if e.Outcome != "" {
		msg = fmt.Sprintf("%s (run %s: %s)", msg, e.RunID, e.Outcome)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// runFailed reports an unsuccessful pipeline run as ExitFailure.
func runFailed(out weather.Outcome) *ExitError {
	return &ExitError{
		Code:    ExitFailure,
		Message: "pipeline run failed",
		RunID:   out.RunID,
		Outcome: out.Label(),
		Err:     out.Err(),
	}
}

// GetExitCode maps err to a process exit code; unknown errors are ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
