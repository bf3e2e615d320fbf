// Package errors provides centralized error definitions for crucible.
//
// Conflict detection distinguishes four failure classes, each with a sentinel
// that callers can match with errors.Is:
//
//   - environment errors: the working directory is not a git repository
//     (ErrNotGitRepository)
//   - input errors: the commit list is unreadable or contains no commits
//     (ErrInvalidInput, ErrNoCommits)
//   - setup errors: the ephemeral branch could not be created
//     (ErrWorkspaceSetup)
//   - unexpected faults: everything else, including recovered panics
//     (ErrInternal)
//
// A cherry-pick conflict is not an error. It is report data.
//
// # Error Types
//
//   - GitError: a git invocation failed; carries repository, branch and the
//     captured git output
//   - ValidationError: invalid user input or configuration
//   - NotFoundError: a named resource (remote, ref, file) does not exist
//
// # Usage
//
//	err := errors.NewGitError("could not create temporary branch", errors.ErrWorkspaceSetup).
//		WithBranch(name).
//		WithGitOutput(res.Stderr)
//
//	if errors.Is(err, errors.ErrWorkspaceSetup) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Environment and repository sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not in a git repository")
	// ErrBranchNotFound indicates that a branch could not be found.
	ErrBranchNotFound = New("branch not found")
	// ErrBranchExists indicates that a branch already exists.
	ErrBranchExists = New("branch already exists")
	// ErrUpstreamNotFound indicates that the upstream remote or its default branch is missing.
	ErrUpstreamNotFound = New("upstream not found")
)

// Detection sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrNoCommits indicates that a commit list parsed to zero entries.
	ErrNoCommits = New("no commits found")
	// ErrWorkspaceSetup indicates that the isolated workspace could not be entered.
	ErrWorkspaceSetup = New("workspace setup failed")
	// ErrInternal marks an unexpected fault, such as a recovered panic.
	ErrInternal = New("internal error")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message string
	cause   error
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Message returns the message without the cause or any context.
func (e *baseError) Message() string {
	return e.message
}

// -----------------------------------------------------------------------------
// GitError
// -----------------------------------------------------------------------------

// GitError represents a failed git invocation.
//
// Example:
//
//	err := errors.NewGitError("failed to abort cherry-pick", nil)
//	err = err.WithRepository("/src/app").WithGitOutput("error: no cherry-pick in progress")
type GitError struct {
	baseError
	Branch     string
	Repository string
	GitOutput  string // Captured git stderr or combined output
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithBranch adds a branch or ref name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, e.GitOutput)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("remote", "upstream")
//	fmt.Println(err) // "remote 'upstream' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message: fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// ValidationError represents invalid input.
//
// Example:
//
//	err := errors.NewValidationError("commit list file is required").WithField("commitListFile")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message: message,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Is checks if this error matches the target.
// Every ValidationError matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsEnvironmentError reports whether err means the engine ran outside a repository.
func IsEnvironmentError(err error) bool {
	return Is(err, ErrNotGitRepository)
}

// IsInputError reports whether err was caused by the caller's input.
func IsInputError(err error) bool {
	return Is(err, ErrInvalidInput) || Is(err, ErrNoCommits)
}

// IsSetupError reports whether err happened while entering the isolated workspace.
func IsSetupError(err error) bool {
	return Is(err, ErrWorkspaceSetup)
}

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to write report")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to classify %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
