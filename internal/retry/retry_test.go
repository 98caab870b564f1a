package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/postbot/internal/clock"
)

func testPolicy(clk clock.Clock) Policy {
	p := DefaultPolicy()
	p.Clock = clk
	return p
}

func TestDoSucceedsFirstTry(t *testing.T) {
	clk := clock.Fake(time.Now())
	calls := 0
	err := testPolicy(clk).Do(context.Background(), "push", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.Waits())
}

func TestDoRetriesWithExponentialBackoff(t *testing.T) {
	clk := clock.Fake(time.Now())
	calls := 0
	err := testPolicy(clk).Do(context.Background(), "push", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, clk.Waits())
}

func TestDoExhausted(t *testing.T) {
	clk := clock.Fake(time.Now())
	cause := errors.New("remote hung up")
	calls := 0
	err := testPolicy(clk).Do(context.Background(), "push", func(context.Context) error {
		calls++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "push", exhausted.Operation)
	assert.Contains(t, err.Error(), "push failed after 3 attempts")
	// No wait after the final attempt
	assert.Len(t, clk.Waits(), 2)
}

func TestDoNonRetryableFailsFast(t *testing.T) {
	clk := clock.Fake(time.Now())
	cause := errors.New("validation failed")
	p := testPolicy(clk)
	p.Retryable = func(error) bool { return false }

	calls := 0
	err := p.Do(context.Background(), "create pull request", func(context.Context) error {
		calls++
		return cause
	})
	assert.Same(t, cause, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.Waits())
}

func TestDoContextCanceled(t *testing.T) {
	clk := clock.Fake(time.Now())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := testPolicy(clk).Do(ctx, "push", func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffCapped(t *testing.T) {
	p := Policy{MaxAttempts: 10, InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffMultiplier: 2}
	assert.Equal(t, 1*time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 5*time.Second, p.Backoff(4))
	assert.Equal(t, 5*time.Second, p.Backoff(9))
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{"default is valid", func(*Policy) {}, ""},
		{"zero attempts", func(p *Policy) { p.MaxAttempts = 0 }, "max attempts"},
		{"negative backoff", func(p *Policy) { p.InitialBackoff = -1 }, "initial backoff"},
		{"max below initial", func(p *Policy) { p.MaxBackoff = 500 * time.Millisecond }, "max backoff"},
		{"shrinking multiplier", func(p *Policy) { p.BackoffMultiplier = 0.5 }, "multiplier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
