package github

import (
	"context"
	"fmt"
	"strings"
)

// Repository binds a Client to one owner/name pair.
type Repository struct {
	client *Client
	owner  string
	name   string
}

// NewRepository binds client to fullName ("owner/name").
func NewRepository(client *Client, fullName string) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("github: client cannot be nil")
	}
	owner, name, err := ParseRepository(fullName)
	if err != nil {
		return nil, err
	}
	return &Repository{client: client, owner: owner, name: name}, nil
}

// FullName returns "owner/name".
func (r *Repository) FullName() string { return r.owner + "/" + r.name }

func (r *Repository) CreatePullRequest(ctx context.Context, request NewPullRequest) (*PullRequest, error) {
	return r.client.CreatePullRequest(ctx, r.owner, r.name, request)
}

func (r *Repository) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	return r.client.GetPullRequest(ctx, r.owner, r.name, number)
}

func (r *Repository) MergePullRequest(ctx context.Context, number int, request MergeRequest) (*MergeResult, error) {
	return r.client.MergePullRequest(ctx, r.owner, r.name, number, request)
}

func (r *Repository) DeleteBranchRef(ctx context.Context, branch string) error {
	return r.client.DeleteBranchRef(ctx, r.owner, r.name, branch)
}

// OpenPullRequests lists open pull requests against base whose head branch
// starts with headPrefix. An empty prefix matches every branch.
func (r *Repository) OpenPullRequests(ctx context.Context, base, headPrefix string) ([]PullRequest, error) {
	all, err := r.client.ListPullRequests(ctx, r.owner, r.name, ListPullRequestsOptions{State: "open", Base: base})
	if err != nil {
		return nil, err
	}
	var matched []PullRequest
	for _, pr := range all {
		if strings.HasPrefix(pr.Head.Ref, headPrefix) {
			matched = append(matched, pr)
		}
	}
	return matched, nil
}
