package git

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/steveyegge/postbot/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryEventStore struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (s *memoryEventStore) StoreEvent(_ context.Context, e *events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

// stubOps returns canned results for each operation.
type stubOps struct {
	pushErr error
	hash    string
}

func (s *stubOps) CheckoutBranch(context.Context, string) error { return nil }
func (s *stubOps) CreateBranch(context.Context, string) error { return nil }
func (s *stubOps) WriteFile(context.Context, string, []byte) error { return nil }
func (s *stubOps) RemoveFile(context.Context, string) error { return nil }
func (s *stubOps) Exists(context.Context, string) (bool, error) { return false, nil }
func (s *stubOps) AddAndCommit(context.Context, string, string) (string, error) { return s.hash, nil }
func (s *stubOps) Push(context.Context, string) error { return s.pushErr }
func (s *stubOps) Pull(context.Context, string) error { return nil }
func (s *stubOps) DeleteLocalBranch(context.Context, string) error { return nil }
func (s *stubOps) DeleteRemoteBranch(context.Context, string) error { return nil }

func TestNewEventTracker_Validation(t *testing.T) {
	store := &memoryEventStore{}
	ops := &stubOps{}

	_, err := NewEventTracker(&EventTrackerConfig{Store: store, AttemptID: "a"})
	assert.Error(t, err)
	_, err = NewEventTracker(&EventTrackerConfig{Ops: ops, AttemptID: "a"})
	assert.Error(t, err)
	_, err = NewEventTracker(&EventTrackerConfig{Ops: ops, Store: store})
	assert.Error(t, err)
}

func TestEventTracker_TracksOperations(t *testing.T) {
	ctx := context.Background()
	store := &memoryEventStore{}
	ops := &stubOps{hash: "0123456789abcdef0123456789abcdef01234567", pushErr: errors.New("connection reset")}

	tracker, err := NewEventTracker(&EventTrackerConfig{Ops: ops, Store: store, AttemptID: "attempt-1"})
	require.NoError(t, err)

	require.NoError(t, tracker.CreateBranch(ctx, "blog-post-x"))
	require.NoError(t, tracker.WriteFile(ctx, "_posts/x.md", []byte("x")))
	hash, err := tracker.AddAndCommit(ctx, "_posts/x.md", "Add blog post: X")
	require.NoError(t, err)
	assert.Equal(t, ops.hash, hash)
	err = tracker.Push(ctx, "blog-post-x")
	assert.EqualError(t, err, "connection reset")

	// WriteFile is not tracked
	require.Len(t, store.events, 3)

	for _, e := range store.events {
		assert.Equal(t, events.EventTypeGitOperation, e.Type)
		assert.Equal(t, "attempt-1", e.AttemptID)
		assert.NotEmpty(t, e.ID)
	}

	commit := store.events[1]
	assert.Equal(t, events.SeverityInfo, commit.Severity)
	assert.Equal(t, "Git commit successful: 01234567", commit.Message)

	push := store.events[2]
	assert.Equal(t, events.SeverityError, push.Severity)
	assert.Equal(t, "Git push failed: connection reset", push.Message)
	data, err := push.GetGitOperationData()
	require.NoError(t, err)
	assert.False(t, data.Success)
	assert.Equal(t, "connection reset", data.Error)
}

func TestEventTracker_StoreFailureDoesNotChangeResult(t *testing.T) {
	store := &memoryEventStore{err: errors.New("disk full")}
	tracker, err := NewEventTracker(&EventTrackerConfig{Ops: &stubOps{}, Store: store, AttemptID: "a"})
	require.NoError(t, err)
	assert.NoError(t, tracker.Push(context.Background(), "b"))
}
