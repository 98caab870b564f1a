package git

import (
	"context"
	"fmt"
	"strings"
)

// Operations are the work tree operations a publish needs, bound to one
// repository and one remote. Repo implements it over the git CLI and
// EventTracker decorates any implementation with history events.
type Operations interface {
	// CheckoutBranch switches the work tree to an existing branch.
	CheckoutBranch(ctx context.Context, branch string) error

	// CreateBranch creates branch from HEAD and checks it out.
	CreateBranch(ctx context.Context, branch string) error

	// WriteFile writes content to relPath inside the work tree, creating
	// parent directories as needed.
	WriteFile(ctx context.Context, relPath string, content []byte) error

	// RemoveFile deletes relPath from the index and the work tree. A missing
	// file is not an error.
	RemoveFile(ctx context.Context, relPath string) error

	// Exists reports whether relPath exists in the work tree.
	Exists(ctx context.Context, relPath string) (bool, error)

	// AddAndCommit stages relPath and commits only that path.
	// Returns the commit hash if successful.
	AddAndCommit(ctx context.Context, relPath, message string) (string, error)

	// Push pushes branch to the remote.
	Push(ctx context.Context, branch string) error

	// Pull fast-forwards the current branch from the remote branch.
	Pull(ctx context.Context, branch string) error

	// DeleteLocalBranch force-deletes a local branch.
	DeleteLocalBranch(ctx context.Context, branch string) error

	// DeleteRemoteBranch deletes branch on the remote.
	DeleteRemoteBranch(ctx context.Context, branch string) error
}

// Status represents the git status of a repository.
type Status struct {
	// Modified files (staged or unstaged)
	Modified []string

	// Untracked files
	Untracked []string

	// Deleted files
	Deleted []string

	// Added files (staged)
	Added []string

	// Renamed files
	Renamed []string

	// HasChanges is true if any changes exist
	HasChanges bool
}

// CommitOptions configures a git commit operation.
type CommitOptions struct {
	// Message is the commit message
	Message string

	// Author specifies the author (optional, uses git config if empty)
	Author string

	// Paths limits the commit to these paths. They are staged first.
	// When empty, whatever is already staged is committed.
	Paths []string

	// AddAll stages all changes before committing (git add -A)
	AddAll bool

	// AllowEmpty allows creating an empty commit
	AllowEmpty bool
}

// CommandError is returned when a git command exits unsuccessfully.
type CommandError struct {
	// Args are the git arguments after "-C <repo>"
	Args []string
	// Stderr is the trimmed standard error of the command
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	sub := "git"
	if len(e.Args) > 0 {
		sub = "git " + e.Args[0]
	}
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed: %v", sub, e.Err)
	}
	return fmt.Sprintf("%s failed: %v: %s", sub, e.Err, firstLines(e.Stderr, 3))
}

func (e *CommandError) Unwrap() error { return e.Err }

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " | ")
}
