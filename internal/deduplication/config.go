package deduplication

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the duplicate gate
type Config struct {
	// Threshold is the similarity score (0.0-1.0) a candidate must exceed to be a duplicate.
	// The comparison is strict: a score equal to the threshold is not a duplicate.
	// Default: 0.75
	Threshold float64

	// Window is how far back to look for potential duplicates.
	// Artifacts dated at or before now-Window, and undated artifacts, are never compared.
	// Default: 30 days
	Window time.Duration

	// FreshnessWindow is how far back to count venue and category coverage.
	// Default: 60 days
	FreshnessWindow time.Duration

	// VenueMatchThreshold is the partial ratio above which a post keyword counts
	// as a mention of the venue when computing freshness.
	// Default: 0.70
	VenueMatchThreshold float64

	// VenuePenalty and CategoryPenalty are subtracted from freshness per recent mention.
	// Defaults: 0.3 and 0.2
	VenuePenalty    float64
	CategoryPenalty float64

	// ExactContentMatch treats a candidate whose body hash equals a recent
	// artifact's as a duplicate with score 1.0, whatever its metadata says.
	// Default: true
	ExactContentMatch bool
}

// DefaultConfig returns the default duplicate gate configuration
func DefaultConfig() Config {
	return Config{
		Threshold:           0.75,
		Window:              30 * 24 * time.Hour, // 30 days
		FreshnessWindow:     60 * 24 * time.Hour, // 60 days
		VenueMatchThreshold: 0.70,
		VenuePenalty:        0.3,
		CategoryPenalty:     0.2,
		ExactContentMatch:   true,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive (got %v)", c.Window)
	}
	if c.Window > 365*24*time.Hour {
		return fmt.Errorf("window too large (got %v, max 365 days)", c.Window)
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness_window must be positive (got %v)", c.FreshnessWindow)
	}
	if c.FreshnessWindow > 365*24*time.Hour {
		return fmt.Errorf("freshness_window too large (got %v, max 365 days)", c.FreshnessWindow)
	}
	if c.VenueMatchThreshold < 0.0 || c.VenueMatchThreshold > 1.0 {
		return fmt.Errorf("venue_match_threshold must be between 0.0 and 1.0 (got %.2f)", c.VenueMatchThreshold)
	}
	if c.VenuePenalty < 0.0 || c.VenuePenalty > 1.0 {
		return fmt.Errorf("venue_penalty must be between 0.0 and 1.0 (got %.2f)", c.VenuePenalty)
	}
	if c.CategoryPenalty < 0.0 || c.CategoryPenalty > 1.0 {
		return fmt.Errorf("category_penalty must be between 0.0 and 1.0 (got %.2f)", c.CategoryPenalty)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Threshold: %.2f, Window: %v, FreshnessWindow: %v, VenueMatch: %.2f, "+
			"VenuePenalty: %.2f, CategoryPenalty: %.2f, ExactContent: %t}",
		c.Threshold, c.Window, c.FreshnessWindow, c.VenueMatchThreshold,
		c.VenuePenalty, c.CategoryPenalty, c.ExactContentMatch,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - POSTBOT_DEDUP_THRESHOLD: Score (0.0-1.0) a candidate must exceed to be a duplicate (default: 0.75)
//   - POSTBOT_DEDUP_WINDOW_DAYS: How many days to look back for duplicates (default: 30)
//   - POSTBOT_FRESHNESS_WINDOW_DAYS: How many days of posts count toward freshness (default: 60)
//   - POSTBOT_DEDUP_EXACT_CONTENT: Flag identical bodies as duplicates (default: true)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("POSTBOT_DEDUP_THRESHOLD", &cfg.Threshold); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("POSTBOT_DEDUP_WINDOW_DAYS", &cfg.Window, 24*time.Hour); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("POSTBOT_FRESHNESS_WINDOW_DAYS", &cfg.FreshnessWindow, 24*time.Hour); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("POSTBOT_DEDUP_EXACT_CONTENT", &cfg.ExactContentMatch); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable
// The multiplier is used to convert the numeric value to a duration
// (e.g., for days: multiplier = 24*time.Hour)
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
