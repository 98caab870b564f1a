package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Repo is a work tree bound to one remote. It implements Operations.
type Repo struct {
	git    *Git
	path   string
	remote string
}

// NewRepo binds g to the work tree at path and the named remote.
func NewRepo(g *Git, path, remote string) (*Repo, error) {
	if g == nil {
		return nil, fmt.Errorf("git cannot be nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository path %s: %w", path, err)
	}
	if remote == "" {
		remote = "origin"
	}
	return &Repo{git: g, path: abs, remote: remote}, nil
}

// Path returns the absolute work tree path.
func (r *Repo) Path() string { return r.path }

// Remote returns the remote name.
func (r *Repo) Remote() string { return r.remote }

// Git returns the underlying CLI wrapper.
func (r *Repo) Git() *Git { return r.git }

func (r *Repo) CheckoutBranch(ctx context.Context, branch string) error {
	return r.git.CheckoutBranch(ctx, r.path, branch)
}

func (r *Repo) CreateBranch(ctx context.Context, branch string) error {
	return r.git.CreateBranch(ctx, r.path, branch)
}

// WriteFile writes content to relPath. Paths that are absolute or escape
// the work tree are rejected.
func (r *Repo) WriteFile(_ context.Context, relPath string, content []byte) error {
	full, err := r.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

// RemoveFile unstages relPath and deletes it from the work tree. A staged
// new file otherwise follows a checkout back to trunk.
func (r *Repo) RemoveFile(ctx context.Context, relPath string) error {
	full, err := r.resolve(relPath)
	if err != nil {
		return err
	}
	path := filepath.ToSlash(filepath.Clean(relPath))
	if _, err := r.git.run(ctx, r.path, "rm", "-q", "--cached", "--ignore-unmatch", "--", path); err != nil {
		return fmt.Errorf("failed to unstage %s: %w", relPath, err)
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", relPath, err)
	}
	return nil
}

// Exists reports whether relPath exists in the work tree.
func (r *Repo) Exists(_ context.Context, relPath string) (bool, error) {
	full, err := r.resolve(relPath)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}
	return true, nil
}

func (r *Repo) AddAndCommit(ctx context.Context, relPath, message string) (string, error) {
	if _, err := r.resolve(relPath); err != nil {
		return "", err
	}
	return r.git.CommitChanges(ctx, r.path, CommitOptions{
		Message: message,
		Paths:   []string{filepath.ToSlash(filepath.Clean(relPath))},
	})
}

func (r *Repo) Push(ctx context.Context, branch string) error {
	return r.git.Push(ctx, r.path, r.remote, branch)
}

func (r *Repo) Pull(ctx context.Context, branch string) error {
	return r.git.PullFastForward(ctx, r.path, r.remote, branch)
}

func (r *Repo) DeleteLocalBranch(ctx context.Context, branch string) error {
	return r.git.DeleteBranch(ctx, r.path, branch)
}

func (r *Repo) DeleteRemoteBranch(ctx context.Context, branch string) error {
	return r.git.DeleteRemoteBranch(ctx, r.path, r.remote, branch)
}

func (r *Repo) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("path must be relative to the work tree: %s", relPath)
	}
	clean := filepath.Clean(relPath)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the work tree: %s", relPath)
	}
	return filepath.Join(r.path, clean), nil
}
