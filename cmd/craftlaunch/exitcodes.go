package main

import (
	"errors"
	"fmt"

	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
)

// Process exit codes
const (
	ExitSuccess           = 0
	ExitPanic             = 101
	ExitMetadataError     = 102
	ExitRuntimeError      = 103
	ExitExecutionError    = 104
	ExitInvalidArgs       = 105
	ExitIOError           = 106
	ExitVerificationError = 107
)

// exitError carries the code main exits with.
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

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a launch error to an exit code.
func exitCodeFor(err error) int {
	var coded *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &coded):
		return coded.code
	case errors.Is(err, launcherrors.ErrMetadataNotFound):
		return ExitMetadataError
	case errors.Is(err, launcherrors.ErrNoValidRuntime):
		return ExitRuntimeError
	case errors.Is(err, launcherrors.ErrVerificationFailed):
		return ExitVerificationError
	case errors.Is(err, launcherrors.ErrCannotCreateExecutable):
		return ExitIOError
	case errors.Is(err, launcherrors.ErrNoGameProfile), errors.Is(err, launcherrors.ErrNoPlayerProfile):
		return ExitInvalidArgs
	default:
		return ExitExecutionError
	}
}
