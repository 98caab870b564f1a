package git

import (
	"context"
	"fmt"

	"github.com/steveyegge/postbot/internal/events"
)

// EventStore persists history events.
type EventStore interface {
	StoreEvent(ctx context.Context, event *events.Event) error
}

// EventTracker wraps Operations and emits a git_operation event to the
// event store for every call. Tracking failures never change the result of
// the wrapped operation.
type EventTracker struct {
	ops       Operations
	store     EventStore
	attemptID string
}

// EventTrackerConfig holds configuration for the event tracker
type EventTrackerConfig struct {
	Ops       Operations
	Store     EventStore
	AttemptID string
}

// NewEventTracker creates a new git event tracker
func NewEventTracker(cfg *EventTrackerConfig) (*EventTracker, error) {
	if cfg.Ops == nil {
		return nil, fmt.Errorf("git operations required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("event store required")
	}
	if cfg.AttemptID == "" {
		return nil, fmt.Errorf("attempt ID required")
	}

	return &EventTracker{
		ops:       cfg.Ops,
		store:     cfg.Store,
		attemptID: cfg.AttemptID,
	}, nil
}

func (et *EventTracker) CheckoutBranch(ctx context.Context, branch string) error {
	err := et.ops.CheckoutBranch(ctx, branch)
	et.track(ctx, "checkout", []string{branch}, err, "")
	return err
}

func (et *EventTracker) CreateBranch(ctx context.Context, branch string) error {
	err := et.ops.CreateBranch(ctx, branch)
	et.track(ctx, "checkout", []string{"-b", branch}, err, "")
	return err
}

// WriteFile is not a git command and is not tracked.
func (et *EventTracker) WriteFile(ctx context.Context, relPath string, content []byte) error {
	return et.ops.WriteFile(ctx, relPath, content)
}

// RemoveFile and Exists are not git commands and are not tracked.
func (et *EventTracker) RemoveFile(ctx context.Context, relPath string) error {
	return et.ops.RemoveFile(ctx, relPath)
}

func (et *EventTracker) Exists(ctx context.Context, relPath string) (bool, error) {
	return et.ops.Exists(ctx, relPath)
}

func (et *EventTracker) AddAndCommit(ctx context.Context, relPath, message string) (string, error) {
	hash, err := et.ops.AddAndCommit(ctx, relPath, message)
	et.track(ctx, "commit", []string{"-m", message, "--", relPath}, err, hash)
	return hash, err
}

func (et *EventTracker) Push(ctx context.Context, branch string) error {
	err := et.ops.Push(ctx, branch)
	et.track(ctx, "push", []string{branch}, err, "")
	return err
}

func (et *EventTracker) Pull(ctx context.Context, branch string) error {
	err := et.ops.Pull(ctx, branch)
	et.track(ctx, "pull", []string{"--ff-only", branch}, err, "")
	return err
}

func (et *EventTracker) DeleteLocalBranch(ctx context.Context, branch string) error {
	err := et.ops.DeleteLocalBranch(ctx, branch)
	et.track(ctx, "branch", []string{"-D", branch}, err, "")
	return err
}

func (et *EventTracker) DeleteRemoteBranch(ctx context.Context, branch string) error {
	err := et.ops.DeleteRemoteBranch(ctx, branch)
	et.track(ctx, "push", []string{"--delete", branch}, err, "")
	return err
}

func (et *EventTracker) track(ctx context.Context, command string, args []string, opErr error, commitHash string) {
	severity := events.SeverityInfo
	message := fmt.Sprintf("Git %s successful", command)
	data := events.GitOperationData{
		Command:    command,
		Args:       args,
		Success:    opErr == nil,
		CommitHash: commitHash,
	}
	if opErr != nil {
		severity = events.SeverityError
		message = fmt.Sprintf("Git %s failed: %v", command, opErr)
		data.Error = opErr.Error()
	} else if commitHash != "" {
		message = fmt.Sprintf("Git %s successful: %s", command, commitHash[:min(8, len(commitHash))])
	}

	event, err := events.NewGitOperationEvent(et.attemptID, severity, message, data)
	if err != nil {
		return
	}
	_ = et.store.StoreEvent(ctx, event)
}
