package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigRespectsEnv(t *testing.T) {
	t.Setenv(DBPathEnv, ":memory:")
	if cfg := DefaultConfig(); cfg.Path != ":memory:" {
		t.Errorf("DefaultConfig with %s=:memory: returned %s", DBPathEnv, cfg.Path)
	}

	t.Setenv(DBPathEnv, "")
	if cfg := DefaultConfig(); cfg.Path != ".postbot/history.db" {
		t.Errorf("DefaultConfig without %s returned %s, expected .postbot/history.db", DBPathEnv, cfg.Path)
	}
}

func TestNewStorage(t *testing.T) {
	t.Setenv(DBPathEnv, "")
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStorage(context.Background(), &Config{Path: path})
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	attempts, err := store.RecentPublished(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("RecentPublished failed: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("Expected empty history, got %d attempts", len(attempts))
	}
}
