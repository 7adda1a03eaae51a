package main

import (
	"errors"
	"fmt"
	"strings"
)

var errGitNotInstalled = errors.New("git not installed")
var errNotInGitRepository = errors.New("not in a git repository")

type nameErrorReason int

const (
	nameEmpty nameErrorReason = iota + 1
	nameLeadingDash
	nameUnsafeSequence
)

func (r nameErrorReason) String() string {
	switch r {
	case nameEmpty:
		return "empty name"
	case nameLeadingDash:
		return "leading dash"
	case nameUnsafeSequence:
		return "unsafe sequence"
	default:
		return "invalid"
	}
}

// InvalidNameError is returned before any filesystem or git work when a
// worktree name (or branch prefix) cannot be used safely.
type InvalidNameError struct {
	Kind   string
	Name   string
	Reason nameErrorReason
}

func (e *InvalidNameError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "worktree name"
	}
	switch e.Reason {
	case nameEmpty:
		return kind + " required"
	case nameLeadingDash:
		return fmt.Sprintf("invalid %s %q: must not start with '-'", kind, e.Name)
	default:
		return fmt.Sprintf("invalid %s %q: must not contain '..', '/' or '\\'", kind, e.Name)
	}
}

// GitError wraps a git invocation that exited non-zero.
type GitError struct {
	Args []string
	Err  error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// DirtyWorktreeError reports a non-forced removal refused because the
// worktree has uncommitted changes.
type DirtyWorktreeError struct {
	Name   string
	Path   string
	Status string
}

func (e *DirtyWorktreeError) Error() string {
	return fmt.Sprintf("worktree %q has uncommitted changes:\n%s\nretry with force: gtr rm -f %s",
		e.Name, strings.TrimRight(e.Status, "\n"), e.Name)
}

type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("worktree not found: %s", e.Path)
}

// ExitCodeError carries the exit status of an interactive tool that gtr
// handed the terminal to. Its output has already reached the user.
type ExitCodeError struct {
	Code int
	Err  error
}

func newExitCodeError(code int, err error) *ExitCodeError {
	if code <= 0 {
		code = 1
	}
	return &ExitCodeError{Code: code, Err: err}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}
