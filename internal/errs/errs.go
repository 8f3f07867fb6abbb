// ABOUTME: Error taxonomy shared across the git-tidy pipeline
// ABOUTME: Sentinel and typed errors plus exit-code classification

// Package errs defines the error kinds surfaced by git-tidy workflows.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is.
var (
	// ErrUserAbort indicates the user declined a confirmation prompt.
	// Nothing destructive has run when this is returned.
	ErrUserAbort = errors.New("operation cancelled")

	// ErrConflictLimit indicates the running conflict counter exceeded
	// the configured maximum and the operation was rolled back.
	ErrConflictLimit = errors.New("conflict limit exceeded")

	// ErrDirtyWorktree indicates a destructive workflow was started on
	// an unclean repository.
	ErrDirtyWorktree = errors.New("working tree is not clean")
)

// RangeError indicates a commit range could not be resolved or was empty.
// It is always fatal and always raised before any state change.
type RangeError struct {
	Base   string
	Head   string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid commit range %s..%s: %s", e.Base, e.Head, e.Reason)
}

// ValidationError indicates a post-step lint/test/build hook failed.
type ValidationError struct {
	Step string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %v", e.Step, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BackupError indicates the pre-operation backup could not be created.
// It is raised before any destructive instruction, so nothing needs rollback.
type BackupError struct {
	Err error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("failed to create backup: %v", e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// Exit codes reported by the CLI. Scripts rely on these being distinct.
const (
	ExitOK         = 0
	ExitFatal      = 1
	ExitValidation = 2
	ExitUserAbort  = 3
)

// ExitCode classifies an error into a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrUserAbort) {
		return ExitUserAbort
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ExitValidation
	}
	return ExitFatal
}
