package config

import (
	"fmt"
	"time"
)

// BranchCleanupConfig holds configuration for removing orphaned publish
// branches, the ones a crashed or unconfirmed run left behind.
type BranchCleanupConfig struct {
	// RetentionHours is how old an orphaned branch must be before deletion (in hours)
	// Younger branches may belong to a pull request still awaiting review.
	// Default: 168 (7 days), Range: 0-2160 (0-90 days)
	RetentionHours int

	// DeleteRemote also deletes the branch on the remote
	// Default: true
	DeleteRemote bool
}

// DefaultBranchCleanupConfig returns the default branch cleanup configuration
func DefaultBranchCleanupConfig() BranchCleanupConfig {
	return BranchCleanupConfig{
		RetentionHours: 168,
		DeleteRemote:   true,
	}
}

// Validate checks if the configuration has valid values
func (c BranchCleanupConfig) Validate() error {
	if c.RetentionHours < 0 || c.RetentionHours > 2160 {
		return fmt.Errorf("retention_hours must be between 0 and 2160 (got %d)", c.RetentionHours)
	}
	return nil
}

// Retention returns the age threshold as a time.Duration
func (c BranchCleanupConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// String returns a human-readable representation of the config
func (c BranchCleanupConfig) String() string {
	return fmt.Sprintf(
		"BranchCleanupConfig{RetentionHours: %d, DeleteRemote: %t}",
		c.RetentionHours, c.DeleteRemote,
	)
}

// BranchCleanupConfigFromEnv overlays environment variables onto base.
//
// Environment variables:
//   - POSTBOT_BRANCH_RETENTION_HOURS: Minimum age of deleted branches (default: 168)
//   - POSTBOT_BRANCH_DELETE_REMOTE: Delete the remote branch too (default: true)
//
// Returns an error if any environment variable has an invalid value.
func BranchCleanupConfigFromEnv(base BranchCleanupConfig) (BranchCleanupConfig, error) {
	cfg := base

	if err := parseEnvInt("POSTBOT_BRANCH_RETENTION_HOURS", &cfg.RetentionHours); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("POSTBOT_BRANCH_DELETE_REMOTE", &cfg.DeleteRemote); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid branch cleanup configuration from environment: %w", err)
	}
	return cfg, nil
}
