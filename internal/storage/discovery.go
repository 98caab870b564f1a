package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DBPathEnv overrides the history database location. It accepts ":memory:".
const DBPathEnv = "POSTBOT_DB_PATH"

// DiscoverDatabase returns the history database path for the repository
// at repoDir: $POSTBOT_DB_PATH when set, else <repoDir>/.postbot/history.db.
// The file need not exist yet.
func DiscoverDatabase(repoDir string) (string, error) {
	if dbPath := os.Getenv(DBPathEnv); dbPath != "" {
		return dbPath, nil
	}
	if repoDir == "" {
		return "", fmt.Errorf("repository directory is required")
	}
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return filepath.Join(abs, ".postbot", "history.db"), nil
}

// ValidateAlignment ensures a history database kept under a repository's
// .postbot directory belongs to repoDir. Databases elsewhere are accepted;
// one repository's history used for another would hide its duplicates.
func ValidateAlignment(dbPath, repoDir string) error {
	if dbPath == ":memory:" {
		return nil
	}
	absDB, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	if filepath.Base(filepath.Dir(absDB)) != ".postbot" {
		return nil
	}
	owner := filepath.Dir(filepath.Dir(absDB))

	absRepo, err := filepath.Abs(repoDir)
	if err != nil {
		return fmt.Errorf("invalid repository directory: %w", err)
	}
	if !isAtOrBelow(absRepo, owner) {
		return fmt.Errorf(
			"database-repository mismatch:\n"+
				"  database: %s\n"+
				"  repository: %s\n"+
				"Point --repo at %s or set %s",
			dbPath, absRepo, owner, DBPathEnv)
	}
	return nil
}

func isAtOrBelow(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}
