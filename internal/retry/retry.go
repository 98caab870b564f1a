// Package retry runs fallible operations under a bounded exponential
// backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/postbot/internal/clock"
)

// Policy holds retry configuration for remote operations
type Policy struct {
	MaxAttempts       int           // Total attempts including the first (default: 3)
	InitialBackoff    time.Duration // Wait after the first failure (default: 1s)
	MaxBackoff        time.Duration // Upper bound on a single wait (default: 30s)
	BackoffMultiplier float64       // Growth factor between waits (default: 2.0)

	// Retryable decides whether a failed attempt may be repeated.
	// Nil means every error is retryable.
	Retryable func(error) bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// DefaultPolicy returns the default retry policy: three attempts with
// waits of 1s and 2s between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Validate checks the policy for nonsensical values
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1 (got %d)", p.MaxAttempts)
	}
	if p.InitialBackoff < 0 {
		return fmt.Errorf("initial backoff cannot be negative (got %v)", p.InitialBackoff)
	}
	if p.MaxBackoff < p.InitialBackoff {
		return fmt.Errorf("max backoff (%v) must be >= initial backoff (%v)", p.MaxBackoff, p.InitialBackoff)
	}
	if p.BackoffMultiplier < 1.0 {
		return fmt.Errorf("backoff multiplier must be >= 1.0 (got %.2f)", p.BackoffMultiplier)
	}
	return nil
}

// Backoff returns the wait that follows the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	backoff := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * p.BackoffMultiplier)
		if backoff > p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return backoff
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do executes fn until it succeeds, returns a non-retryable error, the
// context is cancelled, or the attempts are used up.
//
// A non-retryable error is returned unchanged so callers can classify it.
// Exhaustion returns an *ExhaustedError wrapping the last failure.
func (p Policy) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	clk := p.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", "operation", operation, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			logger.Warn("operation failed with non-retryable error", "operation", operation, "error", err)
			return err
		}

		if attempt == attempts {
			break
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%s failed: context canceled: %w", operation, errors.Join(ctx.Err(), lastErr))
		}

		backoff := p.Backoff(attempt)
		logger.Warn("operation failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", err)

		select {
		case <-clk.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, errors.Join(ctx.Err(), lastErr))
		}
	}

	return &ExhaustedError{Operation: operation, Attempts: attempts, Err: lastErr}
}
