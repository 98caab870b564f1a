package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListPullRequestsOptions controls filtering for ListPullRequests.
type ListPullRequestsOptions struct {
	State string // "open", "closed", "all" (default: "open")
	Head  string // "owner:branch"
	Base  string
}

func (options ListPullRequestsOptions) query(page, perPage int) string {
	values := url.Values{}
	if options.State != "" {
		values.Set("state", options.State)
	}
	if options.Head != "" {
		values.Set("head", options.Head)
	}
	if options.Base != "" {
		values.Set("base", options.Base)
	}
	values.Set("per_page", fmt.Sprint(perPage))
	values.Set("page", fmt.Sprint(page))
	return values.Encode()
}

// CreatePullRequest opens a pull request.
func (client *Client) CreatePullRequest(ctx context.Context, owner, repo string, request NewPullRequest) (*PullRequest, error) {
	var pullRequest PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if err := client.do(ctx, http.MethodPost, path, request, &pullRequest); err != nil {
		return nil, fmt.Errorf("creating PR %s/%s %s -> %s: %w", owner, repo, request.Head, request.Base, err)
	}
	return &pullRequest, nil
}

// GetPullRequest retrieves a single pull request by number.
func (client *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pullRequest PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := client.do(ctx, http.MethodGet, path, nil, &pullRequest); err != nil {
		return nil, fmt.Errorf("getting PR %s/%s#%d: %w", owner, repo, number, err)
	}
	return &pullRequest, nil
}

// MergePullRequest merges a pull request. A 200 response with merged=false
// returns an error wrapping ErrNotMerged.
func (client *Client) MergePullRequest(ctx context.Context, owner, repo string, number int, request MergeRequest) (*MergeResult, error) {
	var result MergeResult
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, number)
	if err := client.do(ctx, http.MethodPut, path, request, &result); err != nil {
		return nil, fmt.Errorf("merging PR %s/%s#%d: %w", owner, repo, number, err)
	}
	if !result.Merged {
		return &result, fmt.Errorf("merging PR %s/%s#%d: %w: %s", owner, repo, number, ErrNotMerged, result.Message)
	}
	return &result, nil
}

// ListPullRequests returns every pull request matching options, following
// pages until a short page is returned.
func (client *Client) ListPullRequests(ctx context.Context, owner, repo string, options ListPullRequestsOptions) ([]PullRequest, error) {
	const perPage = 100
	var all []PullRequest
	for page := 1; ; page++ {
		var batch []PullRequest
		path := fmt.Sprintf("/repos/%s/%s/pulls?%s", owner, repo, options.query(page, perPage))
		if err := client.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, fmt.Errorf("listing PRs %s/%s: %w", owner, repo, err)
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

// DeleteBranchRef deletes refs/heads/branch. A missing ref returns an
// error for which IsNotFound or IsValidationFailed is true.
func (client *Client) DeleteBranchRef(ctx context.Context, owner, repo, branch string) error {
	path := fmt.Sprintf("/repos/%s/%s/git/refs/heads/%s", owner, repo, url.PathEscape(branch))
	if err := client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting branch %s in %s/%s: %w", branch, owner, repo, err)
	}
	return nil
}
