package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateValidate(t *testing.T) {
	tests := []struct {
		name    string
		cand    Candidate
		wantErr string
	}{
		{"valid", Candidate{Title: "Houston Food Festival", Body: "body"}, ""},
		{"empty title", Candidate{Title: "  ", Body: "body"}, "title is required"},
		{"empty body", Candidate{Title: "t", Body: ""}, "body is required"},
		{"long title", Candidate{Title: strings.Repeat("a", 501), Body: "b"}, "500 characters"},
		{"filename with separator", Candidate{Title: "t", Body: "b", Filename: "../x.md"}, "path separators"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cand.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSimilarityResultValidate(t *testing.T) {
	match := &PublishedArtifact{Path: "_posts/2024-05-01-x.md"}

	tests := []struct {
		name    string
		result  SimilarityResult
		wantErr bool
	}{
		{"fresh", SimilarityResult{Score: 0.5}, false},
		{"duplicate", SimilarityResult{IsDuplicate: true, Match: match, Score: 0.9}, false},
		{"at threshold is not duplicate", SimilarityResult{Score: 0.75}, false},
		{"duplicate flag below threshold", SimilarityResult{IsDuplicate: true, Match: match, Score: 0.5}, true},
		{"missing match", SimilarityResult{IsDuplicate: true, Score: 0.9}, true},
		{"match without duplicate", SimilarityResult{Match: match, Score: 0.1}, true},
		{"score out of range", SimilarityResult{Score: 1.5}, true},
		{"negative compared", SimilarityResult{ComparedCount: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate(0.75)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishedArtifactHasTag(t *testing.T) {
	a := PublishedArtifact{Tags: []string{"Food", " festival "}}
	if !a.HasTag("food") {
		t.Error("expected case-insensitive tag match")
	}
	if !a.HasTag("Festival") {
		t.Error("expected trimmed tag match")
	}
	if a.HasTag("") {
		t.Error("empty tag must never match")
	}
	if a.HasTag("music") {
		t.Error("unexpected match for absent tag")
	}
}

func TestMergeStatusIsValid(t *testing.T) {
	for _, s := range []MergeStatus{MergeStatusNone, MergeStatusPRCreated, MergeStatusMerged, MergeStatusMergeFailed} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if MergeStatus("closed").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestPublishAttemptValidate(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	valid := func() *PublishAttempt {
		return &PublishAttempt{
			ID:           "a-1",
			Title:        "Jazz Night",
			Status:       AttemptPublished,
			ReviewNumber: 7,
			StartedAt:    start,
			CompletedAt:  start.Add(time.Minute),
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*PublishAttempt)
		wantErr string
	}{
		{"missing id", func(a *PublishAttempt) { a.ID = "" }, "attempt ID is required"},
		{"bad status", func(a *PublishAttempt) { a.Status = "queued" }, "invalid attempt status"},
		{"bad merge status", func(a *PublishAttempt) { a.MergeStatus = "pending" }, "invalid merge status"},
		{"missing start", func(a *PublishAttempt) { a.StartedAt = time.Time{} }, "started_at is required"},
		{"completed before start", func(a *PublishAttempt) { a.CompletedAt = start.Add(-time.Second) }, "cannot be before"},
		{"published without review", func(a *PublishAttempt) { a.ReviewNumber = 0 }, "must have a review number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(a)
			assert.ErrorContains(t, a.Validate(), tt.wantErr)
		})
	}
}

func TestPublishAttemptArtifact(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	a := &PublishAttempt{
		ID:          "a-1",
		Title:       "Jazz Night",
		FilePath:    "_posts/2026-10-14-jazz-night.md",
		Venue:       "Miller Outdoor Theatre",
		Category:    "music",
		ContentHash: "abc",
		StartedAt:   start,
	}

	artifact := a.Artifact()
	assert.Equal(t, "Jazz Night", artifact.Title)
	assert.Equal(t, start, artifact.Date, "falls back to start time")
	assert.Equal(t, "abc", artifact.ContentHash)

	a.ArtifactDate = start.AddDate(0, 0, 3)
	assert.Equal(t, start.AddDate(0, 0, 3), a.Artifact().Date)

	// A past event published today is measured by its publish time
	a.ArtifactDate = start.AddDate(0, 0, -40)
	artifact = a.Artifact()
	assert.Equal(t, start.AddDate(0, 0, -40), artifact.Date)
	assert.Equal(t, start, artifact.PublishedAt)
	assert.Equal(t, start, artifact.PublishTime())
}

func TestPublishedArtifactPublishTime(t *testing.T) {
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	a := PublishedArtifact{Date: date}
	assert.Equal(t, date, a.PublishTime(), "store files fall back to the artifact date")

	published := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	a.PublishedAt = published
	assert.Equal(t, published, a.PublishTime())

	assert.True(t, (&PublishedArtifact{}).PublishTime().IsZero())
}
