package types

import (
	"fmt"
	"strings"
	"time"
)

// PublishedArtifact is a document already present in the artifact store.
// Artifacts are read-only: they are created by a successful publish and
// superseded by newer artifacts, never mutated.
type PublishedArtifact struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	Date        time.Time `json:"date"` // zero when neither frontmatter nor filename carries a date
	// PublishedAt is when the artifact was published, when known apart
	// from Date. Files in the artifact store leave it zero.
	PublishedAt time.Time `json:"published_at,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// PublishTime is the time the duplicate window is measured against:
// PublishedAt when set, else Date.
func (a *PublishedArtifact) PublishTime() time.Time {
	if !a.PublishedAt.IsZero() {
		return a.PublishedAt
	}
	return a.Date
}

// HasTag reports whether the artifact carries tag (case-insensitive).
func (a *PublishedArtifact) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for _, t := range a.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == tag {
			return true
		}
	}
	return false
}

// Candidate is a finished document handed to the pipeline by the content
// generation stage. Date, Venue and Category are optional structured
// attributes used for duplicate detection of event-like content.
type Candidate struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Filename string    `json:"filename,omitempty"`
	Date     time.Time `json:"date,omitempty"`
	Venue    string    `json:"venue,omitempty"`
	Category string    `json:"category,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
}

// Validate checks the fields every publish attempt requires.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(c.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(c.Title))
	}
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if strings.ContainsAny(c.Filename, `/\`) {
		return fmt.Errorf("filename must not contain path separators: %q", c.Filename)
	}
	return nil
}

// SimilarityResult is the decision returned by the duplicate gate.
type SimilarityResult struct {
	// IsDuplicate is true iff Score exceeds the gate threshold
	IsDuplicate bool `json:"is_duplicate"`

	// Match is the best matching artifact. Only set when IsDuplicate is true.
	Match *PublishedArtifact `json:"match,omitempty"`

	// Score is the highest similarity seen, in [0,1]
	Score float64 `json:"score"`

	// ComparedCount is the number of in-window artifacts scored
	ComparedCount int `json:"compared_count"`
}

// Validate checks the result invariants against the threshold that produced it.
func (r *SimilarityResult) Validate(threshold float64) error {
	if r.Score < 0.0 || r.Score > 1.0 {
		return fmt.Errorf("score must be between 0.0 and 1.0 (got %.4f)", r.Score)
	}
	if r.IsDuplicate != (r.Score > threshold) {
		return fmt.Errorf("is_duplicate=%t inconsistent with score %.4f and threshold %.2f",
			r.IsDuplicate, r.Score, threshold)
	}
	if r.IsDuplicate && r.Match == nil {
		return fmt.Errorf("match must be set when is_duplicate is true")
	}
	if !r.IsDuplicate && r.Match != nil {
		return fmt.Errorf("match should not be set when is_duplicate is false")
	}
	if r.ComparedCount < 0 {
		return fmt.Errorf("compared_count cannot be negative (got %d)", r.ComparedCount)
	}
	return nil
}

// MergeStatus describes what happened to the review request after it was opened.
type MergeStatus string

const (
	MergeStatusNone        MergeStatus = ""
	MergeStatusPRCreated   MergeStatus = "pr_created"
	MergeStatusMerged      MergeStatus = "merged"
	MergeStatusMergeFailed MergeStatus = "merge_failed"
)

// IsValid checks if the merge status value is valid
func (s MergeStatus) IsValid() bool {
	switch s {
	case MergeStatusNone, MergeStatusPRCreated, MergeStatusMerged, MergeStatusMergeFailed:
		return true
	}
	return false
}

// PublishResult is the single record returned for every publish call.
// It is never mutated after the orchestrator returns it.
type PublishResult struct {
	Success           bool        `json:"success"`
	DuplicateDetected bool        `json:"duplicate_detected,omitempty"`
	AttemptID         string      `json:"attempt_id,omitempty"`
	FilePath          string      `json:"file_path,omitempty"`
	CommitHash        string      `json:"commit_hash,omitempty"`
	BranchName        string      `json:"branch_name,omitempty"`
	ReviewURL         string      `json:"review_url,omitempty"`
	ReviewNumber      int         `json:"review_number,omitempty"`
	MergeHash         string      `json:"merge_hash,omitempty"`
	MergeStatus       MergeStatus `json:"merge_status,omitempty"`
	MergeMethod       string      `json:"merge_method,omitempty"`
	Similarity        float64     `json:"similarity,omitempty"`
	MatchedPath       string      `json:"matched_path,omitempty"`
	Error             string      `json:"error,omitempty"`
}
