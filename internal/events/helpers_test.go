package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJSONTagsSnakeCase(t *testing.T) {
	event := &Event{
		ID:        "test-event-123",
		Type:      EventTypeGitOperation,
		Timestamp: time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC),
		AttemptID: "attempt-1",
		Severity:  SeverityInfo,
		Message:   "Git commit",
		Data:      map[string]interface{}{"command": "commit"},
	}

	jsonBytes, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal Event: %v", err)
	}
	jsonStr := string(jsonBytes)

	for _, field := range []string{`"id"`, `"type"`, `"timestamp"`, `"attempt_id"`, `"severity"`, `"message"`, `"data"`} {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("JSON missing expected field: %s\nGot: %s", field, jsonStr)
		}
	}
}

func TestGitOperationDataHelpers(t *testing.T) {
	event := NewSimpleEvent(EventTypeGitOperation, "attempt-1", SeverityInfo, "Git commit")

	original := GitOperationData{
		Command:    "commit",
		Args:       []string{"-m", "Added Jazz Night"},
		Success:    true,
		CommitHash: "abc123",
	}
	if err := event.SetGitOperationData(original); err != nil {
		t.Fatalf("SetGitOperationData failed: %v", err)
	}
	if event.Data["commit_hash"] != "abc123" {
		t.Errorf("expected commit_hash in data map, got %v", event.Data)
	}

	retrieved, err := event.GetGitOperationData()
	if err != nil {
		t.Fatalf("GetGitOperationData failed: %v", err)
	}
	if retrieved.Command != original.Command || retrieved.Success != original.Success ||
		retrieved.CommitHash != original.CommitHash || len(retrieved.Args) != 2 {
		t.Errorf("retrieved data mismatch: got %+v, want %+v", retrieved, original)
	}
}

func TestStateTransitionDataHelpers(t *testing.T) {
	event, err := NewStateTransitionEvent("attempt-2", SeverityError, "Push failed",
		StateTransitionData{From: "committed", To: "failed", Step: "push", Error: "remote hung up"})
	if err != nil {
		t.Fatalf("NewStateTransitionEvent failed: %v", err)
	}
	if event.Type != EventTypeStateTransition {
		t.Errorf("Type = %s, want %s", event.Type, EventTypeStateTransition)
	}
	data, err := event.GetStateTransitionData()
	if err != nil {
		t.Fatalf("GetStateTransitionData failed: %v", err)
	}
	if data.To != "failed" || data.Error != "remote hung up" {
		t.Errorf("unexpected data: %+v", data)
	}
}

func TestNewDuplicateCheckEvent(t *testing.T) {
	event, err := NewDuplicateCheckEvent("attempt-3", "Duplicate detected",
		DuplicateCheckData{IsDuplicate: true, Score: 0.91, MatchedPath: "_posts/a.md", ComparedCount: 4})
	if err != nil {
		t.Fatalf("NewDuplicateCheckEvent failed: %v", err)
	}
	if _, err := uuid.Parse(event.ID); err != nil {
		t.Errorf("event ID is not a UUID: %q", event.ID)
	}
	data, err := event.GetDuplicateCheckData()
	if err != nil {
		t.Fatalf("GetDuplicateCheckData failed: %v", err)
	}
	if !data.IsDuplicate || data.Score != 0.91 || data.ComparedCount != 4 {
		t.Errorf("unexpected data: %+v", data)
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventTypeCleanup, "attempt-4", SeverityWarning, "Cleanup failed", nil)
	if event.Data == nil {
		t.Error("Data should never be nil")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	event = NewEvent(EventTypeRollback, "attempt-4", SeverityInfo, "Rolled back", map[string]interface{}{"state": "pushed"})
	if event.Data["state"] != "pushed" {
		t.Errorf("Data = %v", event.Data)
	}
}
