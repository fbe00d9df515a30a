package cmd

import "fmt"

// Exit codes for hitdesk CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitFailure indicates an HTTP error status or a failed selection
	ExitFailure = 1

	// ExitConfigError indicates a configuration or data directory error
	ExitConfigError = 3

	// ExitTransportError indicates a network/connection error
	ExitTransportError = 4

	// ExitCancelled indicates the execution was cancelled
	ExitCancelled = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries a process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// silentExit ends the process with code without printing anything more.
func silentExit(code int) error {
	return &exitError{code: code}
}

func usageError(format string, args ...any) error {
	return withExitCode(ExitUsageError, fmt.Errorf(format, args...))
}
