package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/steveyegge/postbot/internal/events"
)

// StoreEvent stores a new workflow event in the database
func (s *SQLiteStorage) StoreEvent(ctx context.Context, event *events.Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if !event.Type.IsValid() {
		return fmt.Errorf("invalid event type: %q", event.Type)
	}

	dataJSON := []byte("{}")
	if len(event.Data) > 0 {
		var err error
		if dataJSON, err = json.Marshal(event.Data); err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
	}

	query := `
		INSERT INTO workflow_events (id, type, timestamp, attempt_id, severity, message, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		toMillis(event.Timestamp),
		event.AttemptID,
		string(event.Severity),
		event.Message,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store event (type=%s, attempt=%s): %w", event.Type, event.AttemptID, err)
	}
	return nil
}

// GetEvents returns the events of one attempt, oldest first.
func (s *SQLiteStorage) GetEvents(ctx context.Context, attemptID string) ([]*events.Event, error) {
	query := `
		SELECT id, type, timestamp, attempt_id, severity, message, data
		FROM workflow_events
		WHERE attempt_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*events.Event
	for rows.Next() {
		var (
			event     events.Event
			eventType string
			severity  string
			timestamp int64
			dataJSON  string
		)
		if err := rows.Scan(&event.ID, &eventType, &timestamp, &event.AttemptID, &severity, &event.Message, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = events.EventType(eventType)
		event.Severity = events.EventSeverity(severity)
		event.Timestamp = fromMillis(timestamp)
		if err := json.Unmarshal([]byte(dataJSON), &event.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
		result = append(result, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return result, nil
}
