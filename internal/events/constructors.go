package events

import (
	"time"

	"github.com/google/uuid"
)

// NewGitOperationEvent creates a new Event for a git operation with type-safe data.
func NewGitOperationEvent(attemptID string, severity EventSeverity, message string, data GitOperationData) (*Event, error) {
	event := NewSimpleEvent(EventTypeGitOperation, attemptID, severity, message)
	if err := event.SetGitOperationData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewStateTransitionEvent creates a new Event for a workflow state transition.
func NewStateTransitionEvent(attemptID string, severity EventSeverity, message string, data StateTransitionData) (*Event, error) {
	event := NewSimpleEvent(EventTypeStateTransition, attemptID, severity, message)
	if err := event.SetStateTransitionData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewDuplicateCheckEvent creates a new Event for a duplicate gate decision.
func NewDuplicateCheckEvent(attemptID string, message string, data DuplicateCheckData) (*Event, error) {
	event := NewSimpleEvent(EventTypeDuplicateCheck, attemptID, SeverityInfo, message)
	if err := event.SetDuplicateCheckData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewEvent creates a new Event with free-form data.
func NewEvent(eventType EventType, attemptID string, severity EventSeverity, message string, data map[string]interface{}) *Event {
	event := NewSimpleEvent(eventType, attemptID, severity, message)
	if data != nil {
		event.Data = data
	}
	return event
}

// NewSimpleEvent creates a new Event with no structured data.
func NewSimpleEvent(eventType EventType, attemptID string, severity EventSeverity, message string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		AttemptID: attemptID,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
	}
}
