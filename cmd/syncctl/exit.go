package main

import (
	"errors"
	"fmt"
)

// Exit codes for syncctl commands.
const (
	exitFailure      = 1 // fatal sync, store or migration failure
	exitCommandError = 2 // bad flags or arguments
)

// exitError carries the process exit code for a command error.
type exitError struct {
	code    int
	message string
	err     error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *exitError) Unwrap() error {
	return e.err
}

func newExitError(code int, message string, err error) *exitError {
	return &exitError{code: code, message: message, err: err}
}

// exitCode extracts the exit code from an error, defaulting to exitFailure.
func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitFailure
}
