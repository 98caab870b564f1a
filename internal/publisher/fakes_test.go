package publisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/steveyegge/postbot/internal/github"
)

// memRepo is an in-memory work tree. pushErr fails every push.
type memRepo struct {
	mu      sync.Mutex
	calls   map[string]int
	files   map[string][]byte
	branch  string
	locals  map[string]bool
	pushErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		calls:  make(map[string]int),
		files:  make(map[string][]byte),
		branch: "main",
		locals: map[string]bool{"main": true},
	}
}

func (r *memRepo) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// mutating counts calls that change the work tree or the remote.
func (r *memRepo) mutating() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range []string{"CreateBranch", "WriteFile", "RemoveFile", "AddAndCommit", "Push", "DeleteLocalBranch", "DeleteRemoteBranch"} {
		n += r.calls[m]
	}
	return n
}

func (r *memRepo) CheckoutBranch(_ context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["CheckoutBranch"]++
	if !r.locals[branch] {
		return fmt.Errorf("no such branch %s", branch)
	}
	r.branch = branch
	return nil
}

func (r *memRepo) CreateBranch(_ context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["CreateBranch"]++
	r.locals[branch] = true
	r.branch = branch
	return nil
}

func (r *memRepo) WriteFile(_ context.Context, relPath string, content []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["WriteFile"]++
	r.files[relPath] = content
	return nil
}

func (r *memRepo) RemoveFile(_ context.Context, relPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["RemoveFile"]++
	delete(r.files, relPath)
	return nil
}

func (r *memRepo) Exists(_ context.Context, relPath string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Exists"]++
	_, ok := r.files[relPath]
	return ok, nil
}

func (r *memRepo) AddAndCommit(_ context.Context, _, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["AddAndCommit"]++
	return "0123456789abcdef0123456789abcdef01234567", nil
}

func (r *memRepo) Push(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Push"]++
	return r.pushErr
}

func (r *memRepo) Pull(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Pull"]++
	return nil
}

func (r *memRepo) DeleteLocalBranch(_ context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["DeleteLocalBranch"]++
	delete(r.locals, branch)
	return nil
}

func (r *memRepo) DeleteRemoteBranch(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["DeleteRemoteBranch"]++
	return nil
}

// countingHost merges every pull request it is asked to. panicOnCreate
// simulates a bug in the host client.
type countingHost struct {
	mu            sync.Mutex
	creates       int
	merges        int
	gets          int
	panicOnCreate bool
}

func (h *countingHost) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.creates + h.merges + h.gets
}

func (h *countingHost) CreatePullRequest(_ context.Context, req github.NewPullRequest) (*github.PullRequest, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOnCreate {
		panic("nil map write")
	}
	h.creates++
	n := 40 + h.creates
	return &github.PullRequest{
		Number:  n,
		State:   "open",
		Title:   req.Title,
		HTMLURL: fmt.Sprintf("https://github.com/acme/blog/pull/%d", n),
		Head:    github.BranchRef{Ref: req.Head},
		Base:    github.BranchRef{Ref: req.Base},
	}, nil
}

func (h *countingHost) MergePullRequest(_ context.Context, _ int, _ github.MergeRequest) (*github.MergeResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.merges++
	return &github.MergeResult{SHA: "feedfacefeedfacefeedfacefeedfacefeedface", Merged: true, Message: "Pull Request successfully merged"}, nil
}

func (h *countingHost) GetPullRequest(_ context.Context, number int) (*github.PullRequest, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gets++
	return &github.PullRequest{Number: number, State: "closed", Merged: true}, nil
}
