// Package storage holds the publish history store and the publish lock.
package storage

import (
	"context"
	"os"
	"time"

	"github.com/steveyegge/postbot/internal/events"
	"github.com/steveyegge/postbot/internal/storage/sqlite"
	"github.com/steveyegge/postbot/internal/types"
)

// Storage defines the interface for publish history backends
type Storage interface {
	// Workflow events
	StoreEvent(ctx context.Context, event *events.Event) error
	GetEvents(ctx context.Context, attemptID string) ([]*events.Event, error)

	// Publish attempts
	RecordAttempt(ctx context.Context, attempt *types.PublishAttempt) error
	GetAttempt(ctx context.Context, id string) (*types.PublishAttempt, error)
	ListAttempts(ctx context.Context, filter types.AttemptFilter) ([]*types.PublishAttempt, error)

	// RecentPublished returns published attempts started after since, as
	// artifacts for the duplicate gate.
	RecentPublished(ctx context.Context, since time.Time) ([]*types.PublishedArtifact, error)

	// Retention
	CleanupHistory(ctx context.Context, cutoff time.Time, batchSize int, dryRun bool) (*sqlite.CleanupCounts, error)
	VacuumDatabase(ctx context.Context) error

	// Lifecycle
	Close() error
}

var _ Storage = (*sqlite.SQLiteStorage)(nil)

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".postbot/history.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	path := ".postbot/history.db"
	if env := os.Getenv(DBPathEnv); env != "" {
		path = env
	}
	return &Config{Path: path}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg = DefaultConfig()
	}
	return sqlite.New(ctx, cfg.Path)
}
