package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/postbot/internal/types"
)

const attemptColumns = `
	id, title, status, file_path, branch_name, commit_hash, review_url, review_number,
	merge_status, merge_method, merge_hash, similarity, matched_path, error,
	content_hash, venue, category, tags, keywords, artifact_date, started_at, completed_at
`

// RecordAttempt inserts an attempt, or replaces the stored row with the same ID.
func (s *SQLiteStorage) RecordAttempt(ctx context.Context, attempt *types.PublishAttempt) error {
	if attempt == nil {
		return fmt.Errorf("attempt cannot be nil")
	}
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("invalid publish attempt: %w", err)
	}

	tags, err := marshalList(attempt.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	keywords, err := marshalList(attempt.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	query := `INSERT OR REPLACE INTO publish_attempts (` + attemptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.Title,
		string(attempt.Status),
		attempt.FilePath,
		attempt.BranchName,
		attempt.CommitHash,
		attempt.ReviewURL,
		attempt.ReviewNumber,
		string(attempt.MergeStatus),
		attempt.MergeMethod,
		attempt.MergeHash,
		attempt.Similarity,
		attempt.MatchedPath,
		attempt.Error,
		attempt.ContentHash,
		attempt.Venue,
		attempt.Category,
		tags,
		keywords,
		toMillis(attempt.ArtifactDate),
		toMillis(attempt.StartedAt),
		toMillis(attempt.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt %s: %w", attempt.ID, err)
	}
	return nil
}

// GetAttempt returns the attempt with id, or nil if there is none.
func (s *SQLiteStorage) GetAttempt(ctx context.Context, id string) (*types.PublishAttempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM publish_attempts WHERE id = ?`, id)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt %s: %w", id, err)
	}
	return attempt, nil
}

// ListAttempts returns attempts matching filter, newest first.
func (s *SQLiteStorage) ListAttempts(ctx context.Context, filter types.AttemptFilter) ([]*types.PublishAttempt, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		where = append(where, "started_at > ?")
		args = append(args, toMillis(filter.Since))
	}

	query := `SELECT ` + attemptColumns + ` FROM publish_attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []*types.PublishAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempt rows: %w", err)
	}
	return attempts, nil
}

// RecentPublished returns published attempts started after since as
// artifacts. It covers pull requests whose files are not on trunk yet.
func (s *SQLiteStorage) RecentPublished(ctx context.Context, since time.Time) ([]*types.PublishedArtifact, error) {
	attempts, err := s.ListAttempts(ctx, types.AttemptFilter{Status: types.AttemptPublished, Since: since})
	if err != nil {
		return nil, err
	}
	artifacts := make([]*types.PublishedArtifact, 0, len(attempts))
	for _, attempt := range attempts {
		artifacts = append(artifacts, attempt.Artifact())
	}
	return artifacts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row scanner) (*types.PublishAttempt, error) {
	var (
		attempt               types.PublishAttempt
		status, mergeStatus   string
		tags, keywords        string
		artifactDate, started int64
		completed             int64
	)
	err := row.Scan(
		&attempt.ID,
		&attempt.Title,
		&status,
		&attempt.FilePath,
		&attempt.BranchName,
		&attempt.CommitHash,
		&attempt.ReviewURL,
		&attempt.ReviewNumber,
		&mergeStatus,
		&attempt.MergeMethod,
		&attempt.MergeHash,
		&attempt.Similarity,
		&attempt.MatchedPath,
		&attempt.Error,
		&attempt.ContentHash,
		&attempt.Venue,
		&attempt.Category,
		&tags,
		&keywords,
		&artifactDate,
		&started,
		&completed,
	)
	if err != nil {
		return nil, err
	}

	attempt.Status = types.AttemptStatus(status)
	attempt.MergeStatus = types.MergeStatus(mergeStatus)
	attempt.ArtifactDate = fromMillis(artifactDate)
	attempt.StartedAt = fromMillis(started)
	attempt.CompletedAt = fromMillis(completed)
	if err := json.Unmarshal([]byte(tags), &attempt.Tags); err != nil {
		return nil, fmt.Errorf("invalid tags for %s: %w", attempt.ID, err)
	}
	if err := json.Unmarshal([]byte(keywords), &attempt.Keywords); err != nil {
		return nil, fmt.Errorf("invalid keywords for %s: %w", attempt.ID, err)
	}
	return &attempt, nil
}

func marshalList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	return string(data), err
}
