package events

import (
	"time"
)

// EventType represents the type of event recorded during a publish attempt.
type EventType string

const (
	// EventTypeGitOperation indicates a git command was executed
	EventTypeGitOperation EventType = "git_operation"
	// EventTypeStateTransition indicates the workflow moved between states
	EventTypeStateTransition EventType = "state_transition"
	// EventTypeDuplicateCheck indicates the duplicate gate made a decision
	EventTypeDuplicateCheck EventType = "duplicate_check"
	// EventTypeReviewOpened indicates a pull request was created
	EventTypeReviewOpened EventType = "review_opened"
	// EventTypeMergeAttempt indicates an auto-merge was attempted
	EventTypeMergeAttempt EventType = "merge_attempt"
	// EventTypeRollback indicates a failed attempt was rolled back
	EventTypeRollback EventType = "rollback"
	// EventTypeCleanup indicates the merged branch was cleaned up
	EventTypeCleanup EventType = "cleanup"
	// EventTypeError indicates an error occurred outside a step
	EventTypeError EventType = "error"
	// EventTypeHistoryCleanupCompleted indicates a history retention pass completed
	EventTypeHistoryCleanupCompleted EventType = "history_cleanup_completed"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeGitOperation, EventTypeStateTransition, EventTypeDuplicateCheck,
		EventTypeReviewOpened, EventTypeMergeAttempt, EventTypeRollback,
		EventTypeCleanup, EventTypeError, EventTypeHistoryCleanupCompleted:
		return true
	}
	return false
}

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// Event is one entry in the publish history.
type Event struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// AttemptID is the publish attempt that produced this event
	AttemptID string `json:"attempt_id"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// GitOperationData contains structured data for git operation events.
type GitOperationData struct {
	// Command is the git subcommand that was executed
	Command string `json:"command"`
	// Args are the arguments passed to the git command
	Args []string `json:"args"`
	// Success indicates whether the operation succeeded
	Success bool `json:"success"`
	// CommitHash is set for successful commits
	CommitHash string `json:"commit_hash,omitempty"`
	// Error is the failure message, if any
	Error string `json:"error,omitempty"`
}

// StateTransitionData contains structured data for workflow state transitions.
type StateTransitionData struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Step  string `json:"step,omitempty"`
	Error string `json:"error,omitempty"`
}

// DuplicateCheckData contains structured data for duplicate gate decisions.
type DuplicateCheckData struct {
	IsDuplicate   bool    `json:"is_duplicate"`
	Score         float64 `json:"score"`
	MatchedPath   string  `json:"matched_path,omitempty"`
	ComparedCount int     `json:"compared_count"`
}

// HistoryCleanupData contains structured data for history retention passes.
type HistoryCleanupData struct {
	AttemptsDeleted int   `json:"attempts_deleted"`
	EventsDeleted   int   `json:"events_deleted"`
	ProcessingMs    int64 `json:"processing_ms"`
	DryRun          bool  `json:"dry_run,omitempty"`
}
