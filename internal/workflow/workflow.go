package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/postbot/internal/clock"
	"github.com/steveyegge/postbot/internal/git"
	"github.com/steveyegge/postbot/internal/github"
	"github.com/steveyegge/postbot/internal/retry"
	"github.com/steveyegge/postbot/internal/types"
)

// LocalRepo is the work tree the workflow commits to.
type LocalRepo = git.Operations

// ReviewHost is the hosting service that owns pull requests.
// *github.Repository implements it.
type ReviewHost interface {
	CreatePullRequest(ctx context.Context, request github.NewPullRequest) (*github.PullRequest, error)
	MergePullRequest(ctx context.Context, number int, request github.MergeRequest) (*github.MergeResult, error)
	GetPullRequest(ctx context.Context, number int) (*github.PullRequest, error)
}

var (
	_ LocalRepo  = (*git.Repo)(nil)
	_ ReviewHost = (*github.Repository)(nil)
)

// Config holds workflow configuration.
type Config struct {
	Trunk       string        // Branch pull requests target (default: main)
	AutoMerge   bool          // Merge the pull request after opening it (default: true)
	MergeMethod string        // merge, squash or rebase (default: squash)
	MergeWait   time.Duration // How long to poll for merge confirmation (default: 30s)
	MergePoll   time.Duration // Interval between merge polls (default: 2s)

	// Retry applies to Push, OpenReview and AutoMerge.
	Retry retry.Policy

	Clock  clock.Clock
	Logger *slog.Logger
}

// DefaultConfig returns the default workflow configuration
func DefaultConfig() Config {
	return Config{
		Trunk:       "main",
		AutoMerge:   true,
		MergeMethod: github.MergeMethodSquash,
		MergeWait:   30 * time.Second,
		MergePoll:   2 * time.Second,
		Retry:       retry.DefaultPolicy(),
	}
}

// Validate checks the configuration for invalid values
func (c Config) Validate() error {
	if c.Trunk == "" {
		return fmt.Errorf("trunk branch is required")
	}
	if !github.ValidMergeMethod(c.MergeMethod) {
		return fmt.Errorf("merge method must be merge, squash or rebase (got %q)", c.MergeMethod)
	}
	if c.MergeWait < 0 {
		return fmt.Errorf("merge wait cannot be negative (got %v)", c.MergeWait)
	}
	if c.MergePoll <= 0 {
		return fmt.Errorf("merge poll interval must be positive (got %v)", c.MergePoll)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	return nil
}

// Request is one artifact to publish.
type Request struct {
	Title   string
	Path    string // relative to the work tree root
	Content []byte
}

func (r Request) validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	if len(r.Content) == 0 {
		return fmt.Errorf("content is required")
	}
	return nil
}

// Run is the outcome of one Execute call.
type Run struct {
	State      State
	FailedStep Step  // set when the run failed
	Cause      error // *StepError when the run failed

	Branch       string
	Path         string
	CommitHash   string
	ReviewURL    string
	ReviewNumber int
	MergeHash    string
	MergeStatus  types.MergeStatus
	MergeMethod  string

	// MergeError explains a merge_failed status, or wraps
	// ErrMergeNotConfirmed when the merge was never confirmed.
	MergeError error

	Transitions    []Transition
	RollbackErrors []error
	CleanupErrors  []error

	StartedAt  time.Time
	FinishedAt time.Time

	fileCreated bool
	observer    Observer
}

// Succeeded reports whether the run opened a pull request.
func (r *Run) Succeeded() bool {
	return r.State.Published()
}

// Workflow executes publish runs against one work tree and review host.
// It is not safe for concurrent use; callers serialize runs.
type Workflow struct {
	repo   LocalRepo
	host   ReviewHost
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a workflow.
func New(repo LocalRepo, host ReviewHost, cfg Config) (*Workflow, error) {
	if repo == nil {
		return nil, fmt.Errorf("local repo cannot be nil")
	}
	if host == nil {
		return nil, fmt.Errorf("review host cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow config: %w", err)
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Workflow{repo: repo, host: host, cfg: cfg, clock: clk, logger: logger}, nil
}

// Config returns the workflow configuration.
func (w *Workflow) Config() Config { return w.cfg }

// Execute runs every step for req exactly once and returns the run.
// It never returns nil. obs may be nil.
func (w *Workflow) Execute(ctx context.Context, req Request, obs Observer) *Run {
	run := &Run{
		State:     StateIdle,
		Path:      req.Path,
		StartedAt: w.clock.Now(),
		observer:  obs,
	}
	defer func() { run.FinishedAt = w.clock.Now() }()

	if err := req.validate(); err != nil {
		return w.fail(ctx, run, StepCreateBranch, &StepError{Step: StepCreateBranch, Kind: KindLocal, Err: err})
	}

	if err := w.createBranch(ctx, run, req); err != nil {
		return w.fail(ctx, run, StepCreateBranch, err)
	}
	w.transition(run, StateBranchCreated, StepCreateBranch, nil)

	if err := w.writeAndCommit(ctx, run, req); err != nil {
		return w.fail(ctx, run, StepWriteAndCommit, err)
	}
	w.transition(run, StateCommitted, StepWriteAndCommit, nil)

	if err := w.push(ctx, run); err != nil {
		return w.fail(ctx, run, StepPush, err)
	}
	w.transition(run, StatePushed, StepPush, nil)

	if err := w.openReview(ctx, run, req); err != nil {
		return w.fail(ctx, run, StepOpenReview, err)
	}
	w.transition(run, StateReviewOpen, StepOpenReview, nil)

	detached := context.WithoutCancel(ctx)

	if !w.cfg.AutoMerge {
		w.logger.Info("auto-merge disabled, leaving pull request open", "number", run.ReviewNumber)
		run.MergeStatus = types.MergeStatusPRCreated
		w.returnToTrunk(detached, run)
		w.transition(run, StateReviewOpenUnmerged, StepAutoMerge, nil)
		return run
	}

	if err := w.autoMerge(ctx, run, req); err != nil {
		w.logger.Warn("auto-merge failed, leaving pull request open",
			"number", run.ReviewNumber,
			"error", err)
		run.MergeStatus = types.MergeStatusMergeFailed
		run.MergeError = err
		w.returnToTrunk(detached, run)
		w.transition(run, StateReviewOpenUnmerged, StepAutoMerge, err)
		return run
	}
	run.MergeStatus = types.MergeStatusMerged
	run.MergeMethod = w.cfg.MergeMethod
	w.transition(run, StateMerged, StepAutoMerge, nil)

	if err := w.waitForMerge(ctx, run); err != nil {
		w.logger.Warn("merge not confirmed, skipping branch cleanup",
			"number", run.ReviewNumber,
			"branch", run.Branch,
			"error", err)
		run.MergeError = err
		w.returnToTrunk(detached, run)
		w.transition(run, StateMerged, StepWaitForMerge, err)
		return run
	}

	w.cleanup(detached, run)
	return run
}

func (w *Workflow) createBranch(ctx context.Context, run *Run, req Request) error {
	branch := BranchName(w.clock.Now(), req.Title)
	if err := w.repo.CheckoutBranch(ctx, w.cfg.Trunk); err != nil {
		return &StepError{Step: StepCreateBranch, Kind: KindLocal, Err: err}
	}
	if err := w.repo.CreateBranch(ctx, branch); err != nil {
		return &StepError{Step: StepCreateBranch, Kind: KindLocal, Err: err}
	}
	run.Branch = branch
	return nil
}

func (w *Workflow) writeAndCommit(ctx context.Context, run *Run, req Request) error {
	exists, err := w.repo.Exists(ctx, req.Path)
	if err != nil {
		return &StepError{Step: StepWriteAndCommit, Kind: KindLocal, Err: err}
	}
	if exists {
		return &StepError{Step: StepWriteAndCommit, Kind: KindLocal, Err: fmt.Errorf("%w: %s", ErrFileExists, req.Path)}
	}

	// Set before writing so a partial write is removed on rollback
	run.fileCreated = true
	if err := w.repo.WriteFile(ctx, req.Path, req.Content); err != nil {
		return &StepError{Step: StepWriteAndCommit, Kind: KindLocal, Err: err}
	}

	hash, err := w.repo.AddAndCommit(ctx, req.Path, CommitMessage(req.Title))
	if err != nil {
		return &StepError{Step: StepWriteAndCommit, Kind: KindLocal, Err: err}
	}
	run.CommitHash = hash
	return nil
}

func (w *Workflow) push(ctx context.Context, run *Run) error {
	err := w.policy(func(error) bool { return true }).Do(ctx, "push", func(ctx context.Context) error {
		return w.repo.Push(ctx, run.Branch)
	})
	if err != nil {
		return &StepError{Step: StepPush, Kind: KindNetwork, Err: err}
	}
	return nil
}

func (w *Workflow) openReview(ctx context.Context, run *Run, req Request) error {
	request := github.NewPullRequest{
		Title: ReviewTitle(req.Title),
		Body:  ReviewBody(req.Title, run.Branch, w.clock.Now()),
		Head:  run.Branch,
		Base:  w.cfg.Trunk,
	}

	var pr *github.PullRequest
	err := w.policy(github.IsRetryable).Do(ctx, "open review", func(ctx context.Context) error {
		var err error
		pr, err = w.host.CreatePullRequest(ctx, request)
		return err
	})
	if err != nil {
		return &StepError{Step: StepOpenReview, Kind: remoteKind(err), Err: err}
	}

	run.ReviewNumber = pr.Number
	run.ReviewURL = pr.HTMLURL
	w.logger.Info("opened pull request", "number", pr.Number, "url", pr.HTMLURL)
	return nil
}

func (w *Workflow) autoMerge(ctx context.Context, run *Run, req Request) error {
	request := github.MergeRequest{
		CommitTitle:   MergeCommitTitle(run.ReviewNumber, req.Title),
		CommitMessage: MergeCommitMessage,
		MergeMethod:   w.cfg.MergeMethod,
	}
	retryable := func(err error) bool {
		return github.IsRetryable(err) || errors.Is(err, github.ErrNotMerged)
	}

	var result *github.MergeResult
	err := w.policy(retryable).Do(ctx, "merge", func(ctx context.Context) error {
		var err error
		result, err = w.host.MergePullRequest(ctx, run.ReviewNumber, request)
		return err
	})
	if err != nil {
		return &StepError{Step: StepAutoMerge, Kind: remoteKind(err), Err: err}
	}

	run.MergeHash = result.SHA
	w.logger.Info("merged pull request",
		"number", run.ReviewNumber,
		"method", w.cfg.MergeMethod,
		"sha", result.SHA)
	return nil
}

// waitForMerge polls the pull request until it reports merged or
// MergeWait elapses. Any failure wraps ErrMergeNotConfirmed.
func (w *Workflow) waitForMerge(ctx context.Context, run *Run) error {
	deadline := w.clock.Now().Add(w.cfg.MergeWait)
	for {
		pr, err := w.host.GetPullRequest(ctx, run.ReviewNumber)
		if err != nil {
			return fmt.Errorf("%w: polling pull request #%d: %w", ErrMergeNotConfirmed, run.ReviewNumber, err)
		}
		if pr.Merged {
			if run.MergeHash == "" {
				run.MergeHash = pr.MergeCommitSHA
			}
			return nil
		}
		if !w.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: pull request #%d after %v", ErrMergeNotConfirmed, run.ReviewNumber, w.cfg.MergeWait)
		}

		select {
		case <-w.clock.After(w.cfg.MergePoll):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrMergeNotConfirmed, ctx.Err())
		}
	}
}

// cleanup returns to an up to date trunk and deletes the merged branch.
// Failures are recorded on the run and never change its outcome.
func (w *Workflow) cleanup(ctx context.Context, run *Run) {
	if err := w.repo.CheckoutBranch(ctx, w.cfg.Trunk); err != nil {
		w.cleanupFailed(run, "checkout trunk", err)
	} else if err := w.repo.Pull(ctx, w.cfg.Trunk); err != nil {
		w.cleanupFailed(run, "pull trunk", err)
	}
	if err := w.repo.DeleteLocalBranch(ctx, run.Branch); err != nil {
		w.cleanupFailed(run, "delete local branch", err)
	}
	if err := w.repo.DeleteRemoteBranch(ctx, run.Branch); err != nil {
		w.cleanupFailed(run, "delete remote branch", err)
	}
	w.transition(run, StateCleanedUp, StepCleanupBranch, errors.Join(run.CleanupErrors...))
}

// returnToTrunk checks out trunk after a run that leaves its branch in place.
func (w *Workflow) returnToTrunk(ctx context.Context, run *Run) {
	if err := w.repo.CheckoutBranch(ctx, w.cfg.Trunk); err != nil {
		w.cleanupFailed(run, "checkout trunk", err)
	}
}

func (w *Workflow) cleanupFailed(run *Run, action string, err error) {
	w.logger.Warn("cleanup action failed", "action", action, "branch", run.Branch, "error", err)
	run.CleanupErrors = append(run.CleanupErrors, fmt.Errorf("%s: %w", action, err))
}

func (w *Workflow) fail(ctx context.Context, run *Run, step Step, err error) *Run {
	reached := run.State
	run.FailedStep = step
	run.Cause = err
	w.logger.Error("workflow step failed", "step", step, "state", reached, "branch", run.Branch, "error", err)
	w.transition(run, StateFailed, step, err)

	if w.rollback(context.WithoutCancel(ctx), run, reached) {
		w.transition(run, StateRolledBack, StepRollback, errors.Join(run.RollbackErrors...))
	}
	return run
}

// rollback undoes what the run created up to reached and reports whether
// there was anything to undo.
func (w *Workflow) rollback(ctx context.Context, run *Run, reached State) bool {
	switch reached {
	case StateIdle:
		return false

	case StateBranchCreated:
		w.undo(run, "checkout trunk", w.repo.CheckoutBranch(ctx, w.cfg.Trunk))
		if run.fileCreated {
			w.undo(run, "remove file", w.repo.RemoveFile(ctx, run.Path))
		}
		w.undo(run, "delete local branch", w.repo.DeleteLocalBranch(ctx, run.Branch))
		return true

	case StateCommitted:
		w.undo(run, "checkout trunk", w.repo.CheckoutBranch(ctx, w.cfg.Trunk))
		w.undo(run, "delete local branch", w.repo.DeleteLocalBranch(ctx, run.Branch))
		// The push may have created the remote branch before failing
		if err := w.repo.DeleteRemoteBranch(ctx, run.Branch); err != nil {
			w.logger.Debug("no remote branch to delete", "branch", run.Branch, "error", err)
		}
		return true

	case StatePushed:
		w.undo(run, "checkout trunk", w.repo.CheckoutBranch(ctx, w.cfg.Trunk))
		w.undo(run, "delete local branch", w.repo.DeleteLocalBranch(ctx, run.Branch))
		w.undo(run, "delete remote branch", w.repo.DeleteRemoteBranch(ctx, run.Branch))
		return true

	case StateReviewOpen, StateMerged, StateReviewOpenUnmerged, StateCleanedUp, StateFailed, StateRolledBack:
		// An open pull request is never rolled back
		return false
	}
	return false
}

func (w *Workflow) undo(run *Run, action string, err error) {
	if err == nil {
		return
	}
	w.logger.Warn("rollback action failed", "action", action, "branch", run.Branch, "error", err)
	run.RollbackErrors = append(run.RollbackErrors, fmt.Errorf("%s: %w", action, err))
}

func (w *Workflow) transition(run *Run, to State, step Step, err error) {
	if !run.State.CanTransitionTo(to) {
		w.logger.Error("invalid workflow transition", "from", run.State, "to", to, "step", step)
	}
	t := Transition{From: run.State, To: to, Step: step, At: w.clock.Now(), Err: err}
	run.State = to
	run.Transitions = append(run.Transitions, t)
	w.logger.Debug("workflow transition", "from", t.From, "to", t.To, "step", step, "branch", run.Branch)
	if run.observer != nil {
		run.observer.OnTransition(t)
	}
}

// policy returns the configured retry policy bound to the workflow clock.
// Cancellation is never retried; a caller deadline is checked by Do
// between attempts.
func (w *Workflow) policy(retryable func(error) bool) retry.Policy {
	p := w.cfg.Retry
	p.Clock = w.clock
	p.Logger = w.logger
	p.Retryable = func(err error) bool {
		if errors.Is(err, context.Canceled) {
			return false
		}
		return retryable(err)
	}
	return p
}

func remoteKind(err error) Kind {
	if github.IsTransport(err) {
		return KindNetwork
	}
	return KindRemote
}
