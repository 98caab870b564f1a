package types

import (
	"fmt"
	"time"
)

// AttemptStatus is the outcome of one publish attempt.
type AttemptStatus string

const (
	AttemptPublished AttemptStatus = "published" // pull request opened
	AttemptDuplicate AttemptStatus = "duplicate" // rejected by the duplicate gate
	AttemptFailed    AttemptStatus = "failed"    // validation, lock or workflow failure
)

// IsValid checks if the status value is valid
func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptPublished, AttemptDuplicate, AttemptFailed:
		return true
	}
	return false
}

// PublishAttempt is the history record of one publish call.
type PublishAttempt struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Status AttemptStatus `json:"status"`

	FilePath     string      `json:"file_path,omitempty"`
	BranchName   string      `json:"branch_name,omitempty"`
	CommitHash   string      `json:"commit_hash,omitempty"`
	ReviewURL    string      `json:"review_url,omitempty"`
	ReviewNumber int         `json:"review_number,omitempty"`
	MergeStatus  MergeStatus `json:"merge_status,omitempty"`
	MergeMethod  string      `json:"merge_method,omitempty"`
	MergeHash    string      `json:"merge_hash,omitempty"`
	Similarity   float64     `json:"similarity,omitempty"`
	MatchedPath  string      `json:"matched_path,omitempty"`
	Error        string      `json:"error,omitempty"`

	// Candidate attributes kept so a published attempt can be compared
	// against later candidates before its file reaches trunk.
	ContentHash  string    `json:"content_hash,omitempty"`
	Venue        string    `json:"venue,omitempty"`
	Category     string    `json:"category,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Keywords     []string  `json:"keywords,omitempty"`
	ArtifactDate time.Time `json:"artifact_date,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Validate checks the attempt before it is stored.
func (a *PublishAttempt) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("attempt ID is required")
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("invalid attempt status: %q", a.Status)
	}
	if !a.MergeStatus.IsValid() {
		return fmt.Errorf("invalid merge status: %q", a.MergeStatus)
	}
	if a.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if !a.CompletedAt.IsZero() && a.CompletedAt.Before(a.StartedAt) {
		return fmt.Errorf("completed_at (%v) cannot be before started_at (%v)", a.CompletedAt, a.StartedAt)
	}
	if a.Status == AttemptPublished && a.ReviewNumber <= 0 {
		return fmt.Errorf("published attempt must have a review number")
	}
	return nil
}

// Artifact returns the attempt as a published artifact for duplicate
// detection. The date is the artifact date, or the start time when the
// candidate carried none. PublishedAt is always the start time, so a
// candidate dated in the past still falls inside the duplicate window.
func (a *PublishAttempt) Artifact() *PublishedArtifact {
	date := a.ArtifactDate
	if date.IsZero() {
		date = a.StartedAt
	}
	return &PublishedArtifact{
		Path:        a.FilePath,
		Title:       a.Title,
		Category:    a.Category,
		Tags:        a.Tags,
		Venue:       a.Venue,
		Date:        date,
		PublishedAt: a.StartedAt,
		Keywords:    a.Keywords,
		ContentHash: a.ContentHash,
	}
}

// AttemptFilter narrows ListAttempts.
type AttemptFilter struct {
	Status AttemptStatus // empty matches all
	Since  time.Time     // zero matches all
	Limit  int           // 0 means no limit
}
