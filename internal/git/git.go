// Package git drives the git CLI for the publish workflow: branches,
// commits, pushes and remote branch deletion in a single work tree.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Git runs git commands against repositories given by path.
type Git struct {
	// gitPath is the path to the git executable
	gitPath string
}

// NewGit creates a new Git instance.
// It verifies that git is available on the system.
func NewGit(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	// Verify git works
	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}

	return &Git{gitPath: gitPath}, nil
}

// run executes git -C repoPath args... and returns stdout. Prompts are
// disabled so a push waiting on credentials fails instead of hanging.
func (g *Git) run(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, append([]string{"-C", repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", &CommandError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return string(out), nil
}

// CurrentBranch returns the checked out branch name.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	out, err := g.run(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(out), nil
}

// BranchExists reports whether a local branch exists.
func (g *Git) BranchExists(ctx context.Context, repoPath, branch string) (bool, error) {
	_, err := g.run(ctx, repoPath, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check branch %s in %s: %w", branch, repoPath, err)
}

// CheckoutBranch switches to an existing branch.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) CheckoutBranch(ctx context.Context, repoPath, branch string) error {
	if _, err := g.run(ctx, repoPath, "checkout", branch); err != nil {
		return fmt.Errorf("failed to checkout %s in %s: %w", branch, repoPath, err)
	}
	return nil
}

// CreateBranch creates branch at HEAD and checks it out.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) CreateBranch(ctx context.Context, repoPath, branch string) error {
	if _, err := g.run(ctx, repoPath, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("failed to create branch %s in %s: %w", branch, repoPath, err)
	}
	return nil
}

// Add stages the given paths.
func (g *Git) Add(ctx context.Context, repoPath string, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no paths to add")
	}
	if _, err := g.run(ctx, repoPath, append([]string{"add", "--"}, paths...)...); err != nil {
		return fmt.Errorf("git add failed in %s: %w", repoPath, err)
	}
	return nil
}

// CommitChanges creates a git commit.
// Returns the commit hash if successful.
// SECURITY: repoPath must be a validated, trusted path. This function
// does not perform path validation or sandboxing.
func (g *Git) CommitChanges(ctx context.Context, repoPath string, opts CommitOptions) (string, error) {
	if strings.TrimSpace(opts.Message) == "" {
		return "", fmt.Errorf("commit message is required")
	}

	// Stage changes if requested
	if opts.AddAll {
		if _, err := g.run(ctx, repoPath, "add", "-A"); err != nil {
			return "", fmt.Errorf("git add failed in %s: %w", repoPath, err)
		}
	}
	if len(opts.Paths) > 0 {
		if err := g.Add(ctx, repoPath, opts.Paths...); err != nil {
			return "", err
		}
	}

	args := []string{"commit", "-m", opts.Message}
	if opts.Author != "" {
		args = append(args, "--author", opts.Author)
	}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}

	if _, err := g.run(ctx, repoPath, args...); err != nil {
		return "", fmt.Errorf("git commit failed in %s: %w", repoPath, err)
	}

	out, err := g.run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get commit hash in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(out), nil
}

// Push pushes branch to remote.
func (g *Git) Push(ctx context.Context, repoPath, remote, branch string) error {
	if _, err := g.run(ctx, repoPath, "push", remote, branch); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branch, remote, err)
	}
	return nil
}

// PullFastForward fast-forwards the current branch from remote/branch.
// It fails rather than creating a merge commit.
func (g *Git) PullFastForward(ctx context.Context, repoPath, remote, branch string) error {
	if _, err := g.run(ctx, repoPath, "pull", "--ff-only", remote, branch); err != nil {
		return fmt.Errorf("failed to fast-forward from %s/%s: %w", remote, branch, err)
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) DeleteBranch(ctx context.Context, repoPath, branch string) error {
	if _, err := g.run(ctx, repoPath, "branch", "-D", branch); err != nil {
		return fmt.Errorf("failed to delete branch %s in %s: %w", branch, repoPath, err)
	}
	return nil
}

// DeleteRemoteBranch deletes branch on remote.
func (g *Git) DeleteRemoteBranch(ctx context.Context, repoPath, remote, branch string) error {
	if _, err := g.run(ctx, repoPath, "push", remote, "--delete", branch); err != nil {
		return fmt.Errorf("failed to delete remote branch %s on %s: %w", branch, remote, err)
	}
	return nil
}

// ListBranches returns local branch names matching pattern (fnmatch, e.g. "blog-post-*").
func (g *Git) ListBranches(ctx context.Context, repoPath, pattern string) ([]string, error) {
	out, err := g.run(ctx, repoPath, "for-each-ref", "--format=%(refname:short)", "refs/heads/"+pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches in %s: %w", repoPath, err)
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// GetBranchTimestamp returns the committer time of the branch tip.
func (g *Git) GetBranchTimestamp(ctx context.Context, repoPath, branch string) (time.Time, error) {
	out, err := g.run(ctx, repoPath, "log", "-1", "--format=%ct", branch)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get timestamp of %s: %w", branch, err)
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp of %s: %w", branch, err)
	}
	return time.Unix(secs, 0), nil
}

// HasUncommittedChanges checks if there are uncommitted changes.
// SECURITY: repoPath must be a validated, trusted path. This function
// does not perform path validation or sandboxing.
func (g *Git) HasUncommittedChanges(ctx context.Context, repoPath string) (bool, error) {
	status, err := g.GetStatus(ctx, repoPath)
	if err != nil {
		return false, fmt.Errorf("failed to check uncommitted changes in %s: %w", repoPath, err)
	}
	return status.HasChanges, nil
}

// GetStatus returns the git status of the repository.
// SECURITY: repoPath must be a validated, trusted path. This function
// does not perform path validation or sandboxing.
func (g *Git) GetStatus(ctx context.Context, repoPath string) (*Status, error) {
	// Use git status --porcelain for machine-readable output
	output, err := g.run(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status failed in %s: %w", repoPath, err)
	}

	status := &Status{
		Modified:  []string{},
		Untracked: []string{},
		Deleted:   []string{},
		Added:     []string{},
		Renamed:   []string{},
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 3 {
			continue
		}

		statusCode := line[0:2]
		filePath := line[3:]

		// Parse status codes: XY where X=index, Y=working tree
		// Reference: https://git-scm.com/docs/git-status#_short_format
		switch {
		case strings.HasPrefix(statusCode, "??"):
			status.Untracked = append(status.Untracked, filePath)
		case strings.HasPrefix(statusCode, "A "), strings.HasPrefix(statusCode, "AM"):
			status.Added = append(status.Added, filePath)
		case strings.HasPrefix(statusCode, "M "), strings.HasPrefix(statusCode, " M"), strings.HasPrefix(statusCode, "MM"):
			status.Modified = append(status.Modified, filePath)
		case strings.HasPrefix(statusCode, "D "), strings.HasPrefix(statusCode, " D"):
			status.Deleted = append(status.Deleted, filePath)
		case strings.HasPrefix(statusCode, "R "):
			status.Renamed = append(status.Renamed, filePath)
		default:
			// Other changes (copied, updated but unmerged, etc.)
			status.Modified = append(status.Modified, filePath)
		}

		status.HasChanges = true
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse git status: %w", err)
	}

	return status, nil
}
