// Package errors defines the launch failure taxonomy.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Resolution errors 📄
	ErrMetadataNotFound = errors.New("version metadata not found")
	ErrNoValidRuntime   = errors.New("no valid java runtime")

	// Input errors 👤
	ErrNoGameProfile   = errors.New("no game profile selected")
	ErrNoPlayerProfile = errors.New("no player profile selected")

	// Preparation errors 🔍
	ErrVerificationFailed     = errors.New("file verification failed")
	ErrCannotCreateExecutable = errors.New("cannot create launch script")

	// Execution errors 🚀
	ErrLaunchFailed = errors.New("launch failed")
)

// NoValidRuntimeError reports the runtime major version the metadata asks for
// and the one that was found. Actual is 0 when nothing was found at all.
type NoValidRuntimeError struct {
	Expected int
	Actual   int
}

func (e *NoValidRuntimeError) Error() string {
	if e.Actual == 0 {
		return fmt.Sprintf("%s: java %d required, none configured", ErrNoValidRuntime, e.Expected)
	}
	return fmt.Sprintf("%s: java %d required, found java %d", ErrNoValidRuntime, e.Expected, e.Actual)
}

func (e *NoValidRuntimeError) Unwrap() error { return ErrNoValidRuntime }

// VerificationError names the first path that failed pre-launch checks.
// An empty Reason means the path does not exist.
type VerificationError struct {
	Path   string
	Reason string
}

func (e *VerificationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", ErrVerificationFailed, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s does not exist", ErrVerificationFailed, e.Path)
}

func (e *VerificationError) Unwrap() error { return ErrVerificationFailed }

// CannotCreateExecutableError carries the reason the script could not be written.
type CannotCreateExecutableError struct {
	Reason string
}

func (e *CannotCreateExecutableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCannotCreateExecutable, e.Reason)
}

func (e *CannotCreateExecutableError) Unwrap() error { return ErrCannotCreateExecutable }
