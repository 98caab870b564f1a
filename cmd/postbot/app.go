package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/steveyegge/postbot/internal/artifacts"
	"github.com/steveyegge/postbot/internal/deduplication"
	"github.com/steveyegge/postbot/internal/git"
	"github.com/steveyegge/postbot/internal/github"
	"github.com/steveyegge/postbot/internal/publisher"
	"github.com/steveyegge/postbot/internal/retry"
	"github.com/steveyegge/postbot/internal/storage"
	"github.com/steveyegge/postbot/internal/workflow"
)

// workTree returns the absolute path of the site repository.
func workTree() (string, error) {
	abs, err := filepath.Abs(cfg.Repository.Path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository path: %w", err)
	}
	return abs, nil
}

// openHistory opens the publish history database, or returns nil when
// history is disabled.
func openHistory(ctx context.Context) (storage.Storage, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	repo, err := workTree()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.History.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(repo, ".postbot", "history.db")
	}
	if err := storage.ValidateAlignment(dbPath, repo); err != nil {
		return nil, err
	}

	store, err := storage.NewStorage(ctx, &storage.Config{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", dbPath, err)
	}
	return store, nil
}

// requireHistory is openHistory for commands that are useless without it.
func requireHistory(ctx context.Context) (storage.Storage, error) {
	store, err := openHistory(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("publish history is disabled (POSTBOT_DB_PATH is empty)")
	}
	return store, nil
}

func newArtifactStore() (*artifacts.Store, error) {
	repo, err := workTree()
	if err != nil {
		return nil, err
	}
	return artifacts.NewStore(artifacts.Config{
		Dir:     filepath.Join(repo, cfg.Repository.PostsDirectory),
		Pattern: cfg.Repository.Pattern,
		Logger:  slog.Default(),
	})
}

// newGate builds the duplicate gate over the posts directory and, when
// history is available, the attempts published but not yet merged.
func newGate(history storage.Storage) (*deduplication.Gate, error) {
	store, err := newArtifactStore()
	if err != nil {
		return nil, err
	}
	var source deduplication.Source = store
	if history != nil {
		source = deduplication.MultiSource(store, publisher.HistorySource(history, cfg.Dedup.Window, nil))
	}
	return deduplication.NewGate(source, cfg.Dedup, deduplication.WithLogger(slog.Default()))
}

// newGitHubRepository validates the GitHub settings and binds a client to
// the configured repository.
func newGitHubRepository() (*github.Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := github.NewClient(github.Config{
		BaseURL: cfg.GitHub.APIURL,
		Token:   cfg.GitHub.Token,
		Logger:  slog.Default(),
	})
	if err != nil {
		return nil, err
	}
	return github.NewRepository(client, cfg.GitHub.Repo)
}

func newLocalRepo(ctx context.Context) (*git.Repo, error) {
	gitOps, err := git.NewGit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize git: %w", err)
	}
	repo, err := workTree()
	if err != nil {
		return nil, err
	}
	return git.NewRepo(gitOps, repo, cfg.Repository.Remote)
}

func workflowConfig() workflow.Config {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Workflow.RetryAttempts
	policy.Logger = slog.Default()

	return workflow.Config{
		Trunk:       cfg.GitHub.Branch,
		AutoMerge:   cfg.GitHub.AutoMerge,
		MergeMethod: cfg.GitHub.MergeMethod,
		MergeWait:   cfg.Workflow.MergeWait,
		MergePoll:   cfg.Workflow.MergePoll,
		Retry:       policy,
		Logger:      slog.Default(),
	}
}

// newPublisher wires every component of a publish. The returned history
// store may be nil; the caller closes it.
func newPublisher(ctx context.Context) (*publisher.Publisher, storage.Storage, error) {
	host, err := newGitHubRepository()
	if err != nil {
		return nil, nil, err
	}
	local, err := newLocalRepo(ctx)
	if err != nil {
		return nil, nil, err
	}
	history, err := openHistory(ctx)
	if err != nil {
		return nil, nil, err
	}
	gate, err := newGate(history)
	if err != nil {
		closeHistory(history)
		return nil, nil, err
	}

	pub, err := publisher.New(local, host, gate, history, publisher.Config{
		OutputDir: filepath.ToSlash(cfg.Repository.PostsDirectory),
		LockPath:  storage.LockPath(local.Path()),
		Holder:    "postbot",
		Version:   version,
		Workflow:  workflowConfig(),
		Logger:    slog.Default(),
	})
	if err != nil {
		closeHistory(history)
		return nil, nil, err
	}
	return pub, history, nil
}

func closeHistory(history storage.Storage) {
	if history == nil {
		return
	}
	if err := history.Close(); err != nil {
		slog.Warn("failed to close history database", "error", err)
	}
}
