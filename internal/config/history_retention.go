package config

import (
	"fmt"
	"time"
)

// HistoryRetentionConfig holds configuration for pruning the publish history
type HistoryRetentionConfig struct {
	// RetentionDays is how long attempts and their events are kept (in days)
	// Published attempts older than the duplicate window no longer affect
	// duplicate detection, so this only bounds how far back `history` reaches.
	// Default: 180, Range: 1-3650
	RetentionDays int

	// CleanupBatchSize is the number of rows to delete per statement
	// Default: 1000, Range: 100-10000
	CleanupBatchSize int

	// CleanupVacuum controls whether to run VACUUM after cleanup
	// Default: false
	CleanupVacuum bool
}

// DefaultHistoryRetentionConfig returns the default history retention configuration
func DefaultHistoryRetentionConfig() HistoryRetentionConfig {
	return HistoryRetentionConfig{
		RetentionDays:    180,
		CleanupBatchSize: 1000,
		CleanupVacuum:    false,
	}
}

// Validate checks if the configuration has valid values
func (c HistoryRetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 3650 {
		return fmt.Errorf("retention_days must be between 1 and 3650 (got %d)", c.RetentionDays)
	}
	if c.CleanupBatchSize < 100 {
		return fmt.Errorf("cleanup_batch_size must be at least 100 (got %d)", c.CleanupBatchSize)
	}
	if c.CleanupBatchSize > 10000 {
		return fmt.Errorf("cleanup_batch_size too large (got %d, max 10000)", c.CleanupBatchSize)
	}
	return nil
}

// Cutoff returns the time before which history is eligible for deletion.
func (c HistoryRetentionConfig) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.RetentionDays)
}

// String returns a human-readable representation of the config
func (c HistoryRetentionConfig) String() string {
	return fmt.Sprintf(
		"HistoryRetentionConfig{RetentionDays: %d, BatchSize: %d, Vacuum: %t}",
		c.RetentionDays, c.CleanupBatchSize, c.CleanupVacuum,
	)
}

// HistoryRetentionConfigFromEnv overlays environment variables onto base.
//
// Environment variables:
//   - POSTBOT_HISTORY_RETENTION_DAYS: How long history is kept in days (default: 180)
//   - POSTBOT_HISTORY_CLEANUP_BATCH_SIZE: Rows to delete per statement (default: 1000)
//   - POSTBOT_HISTORY_CLEANUP_VACUUM: Run VACUUM after cleanup (default: false)
//
// Returns an error if any environment variable has an invalid value.
func HistoryRetentionConfigFromEnv(base HistoryRetentionConfig) (HistoryRetentionConfig, error) {
	cfg := base

	if err := parseEnvInt("POSTBOT_HISTORY_RETENTION_DAYS", &cfg.RetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("POSTBOT_HISTORY_CLEANUP_BATCH_SIZE", &cfg.CleanupBatchSize); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("POSTBOT_HISTORY_CLEANUP_VACUUM", &cfg.CleanupVacuum); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid history retention configuration from environment: %w", err)
	}
	return cfg, nil
}
