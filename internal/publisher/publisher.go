// Package publisher turns a finished candidate document into a pull request:
// it runs the duplicate gate, picks the target filename, drives the remote
// change workflow and records the attempt in the publish history.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/steveyegge/postbot/internal/artifacts"
	"github.com/steveyegge/postbot/internal/clock"
	"github.com/steveyegge/postbot/internal/deduplication"
	"github.com/steveyegge/postbot/internal/events"
	"github.com/steveyegge/postbot/internal/git"
	"github.com/steveyegge/postbot/internal/storage"
	"github.com/steveyegge/postbot/internal/types"
	"github.com/steveyegge/postbot/internal/workflow"
)

// Config holds publisher configuration
type Config struct {
	// OutputDir is the work-tree directory new artifacts are written to.
	// Default: _posts
	OutputDir string

	// LockPath is the publish lock file. Empty disables the cross-process
	// lock; attempts inside one process are always serialized.
	LockPath string

	// Holder and Version identify this process in the lock file.
	Holder  string
	Version string

	Workflow workflow.Config

	Clock  clock.Clock
	Logger *slog.Logger
}

// Publisher runs publish attempts one at a time.
type Publisher struct {
	mu sync.Mutex

	repo    git.Operations
	host    workflow.ReviewHost
	gate    *deduplication.Gate
	history storage.Storage // nil when history is disabled
	cfg     Config
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a publisher. history may be nil.
func New(repo git.Operations, host workflow.ReviewHost, gate *deduplication.Gate, history storage.Storage, cfg Config) (*Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("local repo cannot be nil")
	}
	if host == nil {
		return nil, fmt.Errorf("review host cannot be nil")
	}
	if gate == nil {
		return nil, fmt.Errorf("duplicate gate cannot be nil")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "_posts"
	}
	if strings.HasPrefix(path.Clean(cfg.OutputDir), "..") || path.IsAbs(cfg.OutputDir) {
		return nil, fmt.Errorf("output directory must be inside the work tree (got %q)", cfg.OutputDir)
	}
	if cfg.Holder == "" {
		cfg.Holder = "postbot"
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workflow.Clock == nil {
		cfg.Workflow.Clock = cfg.Clock
	}
	if cfg.Workflow.Logger == nil {
		cfg.Workflow.Logger = cfg.Logger
	}
	if err := cfg.Workflow.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow config: %w", err)
	}

	return &Publisher{
		repo:    repo,
		host:    host,
		gate:    gate,
		history: history,
		cfg:     cfg,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}, nil
}

// Publish runs one attempt for candidate and always returns a result.
// A duplicate is reported with DuplicateDetected and no error; nothing
// remote is touched. Publish never panics.
func (p *Publisher) Publish(ctx context.Context, candidate types.Candidate) (result types.PublishResult) {
	attempt := &types.PublishAttempt{
		ID:        uuid.New().String(),
		StartedAt: p.clock.Now(),
	}
	logger := p.logger.With("attempt", attempt.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("publish panicked", "panic", r, "stack", string(debug.Stack()))
			result = types.PublishResult{
				AttemptID: attempt.ID,
				Error:     fmt.Sprintf("unexpected error: %v", r),
			}
		}
		p.record(ctx, attempt, result, logger)
	}()

	return p.publish(ctx, attempt, candidate, logger)
}

func (p *Publisher) publish(ctx context.Context, attempt *types.PublishAttempt, candidate types.Candidate,
	logger *slog.Logger) types.PublishResult {
	result := types.PublishResult{AttemptID: attempt.ID}
	failure := func(format string, args ...interface{}) types.PublishResult {
		result.Error = fmt.Sprintf(format, args...)
		logger.Error("publish failed", "title", candidate.Title, "error", result.Error)
		return result
	}

	Complete(&candidate)
	attempt.Title = candidate.Title
	if err := candidate.Validate(); err != nil {
		return failure("invalid candidate: %v", err)
	}
	describe(attempt, candidate)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.LockPath != "" {
		lock, err := storage.AcquireLock(p.cfg.LockPath, p.cfg.Holder, p.cfg.Version)
		if err != nil {
			return failure("failed to acquire publish lock: %v", err)
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release publish lock", "path", lock.Path(), "error", err)
			}
		}()
	}

	check, err := p.gate.Check(ctx, &candidate)
	if err != nil {
		return failure("duplicate check failed: %v", err)
	}
	p.storeDuplicateCheck(ctx, attempt.ID, check, logger)
	result.Similarity = check.Score
	if check.IsDuplicate {
		result.DuplicateDetected = true
		result.MatchedPath = check.Match.Path
		logger.Info("skipping duplicate",
			"title", candidate.Title,
			"match", check.Match.Path,
			"score", fmt.Sprintf("%.3f", check.Score))
		return result
	}

	filename := candidate.Filename
	if filename == "" {
		date := candidate.Date
		if date.IsZero() {
			date = p.clock.Now()
		}
		filename = Filename(date, candidate.Title)
	}
	if !strings.HasSuffix(filename, ".md") {
		filename += ".md"
	}
	relPath := path.Join(p.cfg.OutputDir, filename)
	result.FilePath = relPath

	wf, err := workflow.New(p.ops(attempt.ID, logger), p.host, p.cfg.Workflow)
	if err != nil {
		return failure("failed to create workflow: %v", err)
	}

	run := wf.Execute(ctx, workflow.Request{
		Title:   candidate.Title,
		Path:    relPath,
		Content: []byte(candidate.Body),
	}, p.observer(ctx, attempt.ID, logger))

	result.Success = run.Succeeded()
	result.BranchName = run.Branch
	result.CommitHash = run.CommitHash
	result.ReviewURL = run.ReviewURL
	result.ReviewNumber = run.ReviewNumber
	result.MergeHash = run.MergeHash
	result.MergeStatus = run.MergeStatus
	result.MergeMethod = run.MergeMethod
	if run.MergeError != nil {
		attempt.Error = run.MergeError.Error()
	}

	if !result.Success {
		if run.Cause != nil {
			result.Error = run.Cause.Error()
		} else {
			result.Error = fmt.Sprintf("workflow ended in state %s", run.State)
		}
		logger.Error("publish failed",
			"title", candidate.Title,
			"step", run.FailedStep,
			"state", run.State,
			"error", result.Error)
		return result
	}

	logger.Info("published",
		"title", candidate.Title,
		"path", relPath,
		"review", result.ReviewURL,
		"merge_status", result.MergeStatus)
	return result
}

// ops wraps the work tree in an event tracker when history is enabled, so
// every git call of the attempt lands in its history.
func (p *Publisher) ops(attemptID string, logger *slog.Logger) git.Operations {
	if p.history == nil {
		return p.repo
	}
	tracker, err := git.NewEventTracker(&git.EventTrackerConfig{
		Ops:       p.repo,
		Store:     p.history,
		AttemptID: attemptID,
	})
	if err != nil {
		logger.Warn("git event tracking disabled", "error", err)
		return p.repo
	}
	return tracker
}

func (p *Publisher) observer(ctx context.Context, attemptID string, logger *slog.Logger) workflow.Observer {
	return workflow.ObserverFunc(func(t workflow.Transition) {
		logger.Debug("workflow transition", "from", t.From, "to", t.To, "step", t.Step)
		if p.history == nil {
			return
		}

		severity := events.SeverityInfo
		data := events.StateTransitionData{From: string(t.From), To: string(t.To), Step: string(t.Step)}
		switch {
		case t.Err != nil:
			data.Error = t.Err.Error()
			severity = events.SeverityError
			if t.To.Published() {
				severity = events.SeverityWarning
			}
		case t.To == workflow.StateRolledBack:
			severity = events.SeverityWarning
		}

		event, err := events.NewStateTransitionEvent(attemptID, severity, fmt.Sprintf("%s -> %s", t.From, t.To), data)
		if err != nil {
			logger.Warn("failed to build transition event", "error", err)
			return
		}
		event.Timestamp = t.At
		if err := p.history.StoreEvent(context.WithoutCancel(ctx), event); err != nil {
			logger.Warn("failed to store transition event", "error", err)
		}
	})
}

func (p *Publisher) storeDuplicateCheck(ctx context.Context, attemptID string, check *types.SimilarityResult, logger *slog.Logger) {
	if p.history == nil {
		return
	}
	data := events.DuplicateCheckData{
		IsDuplicate:   check.IsDuplicate,
		Score:         check.Score,
		ComparedCount: check.ComparedCount,
	}
	msg := fmt.Sprintf("No duplicate among %d recent artifacts (best %.3f)", check.ComparedCount, check.Score)
	if check.IsDuplicate {
		data.MatchedPath = check.Match.Path
		msg = fmt.Sprintf("Duplicate of %s (score %.3f)", check.Match.Path, check.Score)
	}
	event, err := events.NewDuplicateCheckEvent(attemptID, msg, data)
	if err == nil {
		err = p.history.StoreEvent(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		logger.Warn("failed to store duplicate check event", "error", err)
	}
}

// record stores the finished attempt. Failures are logged and never
// change the result.
func (p *Publisher) record(ctx context.Context, attempt *types.PublishAttempt, result types.PublishResult, logger *slog.Logger) {
	if p.history == nil {
		return
	}

	switch {
	case result.Success:
		attempt.Status = types.AttemptPublished
	case result.DuplicateDetected:
		attempt.Status = types.AttemptDuplicate
	default:
		attempt.Status = types.AttemptFailed
		attempt.Error = result.Error
	}
	attempt.FilePath = result.FilePath
	attempt.BranchName = result.BranchName
	attempt.CommitHash = result.CommitHash
	attempt.ReviewURL = result.ReviewURL
	attempt.ReviewNumber = result.ReviewNumber
	attempt.MergeStatus = result.MergeStatus
	attempt.MergeMethod = result.MergeMethod
	attempt.MergeHash = result.MergeHash
	attempt.Similarity = result.Similarity
	attempt.MatchedPath = result.MatchedPath
	attempt.CompletedAt = p.clock.Now()
	if attempt.Title == "" {
		attempt.Title = "(untitled)"
	}

	if err := p.history.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		logger.Warn("failed to record publish attempt", "error", err)
	}
}

// Complete fills missing candidate fields from the document itself: the
// title from frontmatter, first heading or filename, and the metadata the
// duplicate gate compares from frontmatter.
func Complete(c *types.Candidate) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		c.Title = artifacts.ExtractTitle([]byte(c.Body), c.Filename)
	}

	doc, err := artifacts.ParseDocument([]byte(c.Body))
	if err != nil {
		return
	}
	if c.Date.IsZero() {
		c.Date = doc.Date()
	}
	if c.Venue == "" {
		c.Venue = doc.String("venue")
	}
	if c.Category == "" {
		c.Category = doc.Category()
	}
	if len(c.Tags) == 0 {
		c.Tags = doc.StringList("tags")
	}
}

// describe copies what later candidates are compared against into attempt.
func describe(attempt *types.PublishAttempt, c types.Candidate) {
	body := c.Body
	if doc, err := artifacts.ParseDocument([]byte(c.Body)); err == nil {
		body = doc.Body
	}
	attempt.ContentHash = artifacts.DocumentHash(c.Body)
	attempt.Venue = c.Venue
	attempt.Category = c.Category
	attempt.Tags = c.Tags
	attempt.Keywords = artifacts.ExtractKeywords(c.Title, artifacts.PlainText(body))
	attempt.ArtifactDate = c.Date
}
