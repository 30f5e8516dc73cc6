// Package exitcodes defines the CLI's exit code contract so scripts
// wrapping noveldl can distinguish failure classes.
package exitcodes

import (
	"errors"
	"fmt"
	"os"
)

const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates invalid command-line arguments or flags
	InvalidArgs = 2

	// PreconditionFailed indicates a precondition was not met
	// (e.g., no release feed configured, helper binary missing)
	PreconditionFailed = 3

	// NetworkError indicates network/connectivity failure
	// (e.g., release feed unreachable, download timeout)
	NetworkError = 4

	// ProcessError indicates process management failure
	// (e.g., failed to spawn the install helper)
	ProcessError = 5

	// ValidationError indicates validation failure
	// (e.g., checksum mismatch, malformed manifest)
	ValidationError = 6

	// UpdateLocked indicates another update run holds the update lock
	UpdateLocked = 7
)

// Exit terminates the program with the given code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError prints error message to stderr and exits with the given code
func ExitWithError(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// ExitWithErrorf prints formatted error message to stderr and exits
func ExitWithErrorf(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}

// CodeForError returns the appropriate exit code for an error.
// Unwraps ErrorWithCode for explicit codes, otherwise returns GeneralError.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}
	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}
	return GeneralError
}
