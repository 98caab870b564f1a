package github

import (
	"fmt"
	"strings"
	"time"
)

// PullRequest is the subset of the GitHub pull request resource the
// workflow reads.
type PullRequest struct {
	Number         int        `json:"number"`
	State          string     `json:"state"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	HTMLURL        string     `json:"html_url"`
	Merged         bool       `json:"merged"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	Head           BranchRef  `json:"head"`
	Base           BranchRef  `json:"base"`
	User           User       `json:"user"`
	CreatedAt      time.Time  `json:"created_at"`
	MergedAt       *time.Time `json:"merged_at"`
}

// BranchRef identifies the head or base of a pull request.
type BranchRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// User is a GitHub account.
type User struct {
	Login string `json:"login"`
}

// NewPullRequest is the request body for creating a pull request.
type NewPullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// Merge methods accepted by the merge endpoint.
const (
	MergeMethodMerge  = "merge"
	MergeMethodSquash = "squash"
	MergeMethodRebase = "rebase"
)

// ValidMergeMethod reports whether method is accepted by the merge endpoint.
func ValidMergeMethod(method string) bool {
	switch method {
	case MergeMethodMerge, MergeMethodSquash, MergeMethodRebase:
		return true
	}
	return false
}

// MergeRequest is the request body for merging a pull request.
type MergeRequest struct {
	CommitTitle   string `json:"commit_title,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	MergeMethod   string `json:"merge_method,omitempty"`
}

// MergeResult is the merge endpoint response.
type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// ParseRepository splits "owner/name" into its parts.
func ParseRepository(fullName string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(fullName), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be in owner/name format (got %q)", fullName)
	}
	return parts[0], parts[1], nil
}
