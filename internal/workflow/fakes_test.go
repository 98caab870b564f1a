package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/steveyegge/postbot/internal/github"
)

// fakeRepo is an in-memory LocalRepo. Errors are returned by name of the
// method; a fail count limits how many calls fail before succeeding.
type fakeRepo struct {
	mu     sync.Mutex
	calls  []string
	counts map[string]int
	errs   map[string]error
	limits map[string]int
	files  map[string][]byte
	branch string
	locals map[string]bool
	remote map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		counts: make(map[string]int),
		errs:   make(map[string]error),
		limits: make(map[string]int),
		files:  make(map[string][]byte),
		branch: "main",
		locals: map[string]bool{"main": true},
		remote: map[string]bool{"main": true},
	}
}

// failFor makes method fail with err on its first n calls; n <= 0 fails always.
func (r *fakeRepo) failFor(method string, err error, n int) {
	r.errs[method] = err
	r.limits[method] = n
}

func (r *fakeRepo) record(ctx context.Context, method string) error {
	r.calls = append(r.calls, method)
	r.counts[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := r.errs[method]; ok {
		if limit := r.limits[method]; limit <= 0 || r.counts[method] <= limit {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[method]
}

func (r *fakeRepo) CheckoutBranch(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "CheckoutBranch"); err != nil {
		return err
	}
	if !r.locals[branch] {
		return fmt.Errorf("no such branch %s", branch)
	}
	r.branch = branch
	return nil
}

func (r *fakeRepo) CreateBranch(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "CreateBranch"); err != nil {
		return err
	}
	r.locals[branch] = true
	r.branch = branch
	return nil
}

func (r *fakeRepo) WriteFile(ctx context.Context, relPath string, content []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "WriteFile"); err != nil {
		return err
	}
	r.files[relPath] = content
	return nil
}

func (r *fakeRepo) RemoveFile(ctx context.Context, relPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "RemoveFile"); err != nil {
		return err
	}
	delete(r.files, relPath)
	return nil
}

func (r *fakeRepo) Exists(ctx context.Context, relPath string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "Exists"); err != nil {
		return false, err
	}
	_, ok := r.files[relPath]
	return ok, nil
}

func (r *fakeRepo) AddAndCommit(ctx context.Context, relPath, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "AddAndCommit"); err != nil {
		return "", err
	}
	return "c0ffee0000000000000000000000000000000001", nil
}

func (r *fakeRepo) Push(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "Push"); err != nil {
		return err
	}
	r.remote[branch] = true
	return nil
}

func (r *fakeRepo) Pull(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record(ctx, "Pull")
}

func (r *fakeRepo) DeleteLocalBranch(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "DeleteLocalBranch"); err != nil {
		return err
	}
	if r.branch == branch {
		return fmt.Errorf("cannot delete checked out branch %s", branch)
	}
	delete(r.locals, branch)
	return nil
}

func (r *fakeRepo) DeleteRemoteBranch(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(ctx, "DeleteRemoteBranch"); err != nil {
		return err
	}
	if !r.remote[branch] {
		return fmt.Errorf("remote ref does not exist: %s", branch)
	}
	delete(r.remote, branch)
	return nil
}

// fakeHost is an in-memory ReviewHost.
type fakeHost struct {
	mu sync.Mutex

	createErr   error
	createFails int // 0 = always when createErr set
	mergeErr    error
	mergeFails  int
	neverMerged bool
	pollErr     error

	creates  []github.NewPullRequest
	merges   []github.MergeRequest
	polls    int
	nextPR   int
	mergedPR map[int]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{nextPR: 100, mergedPR: make(map[int]bool)}
}

func (h *fakeHost) CreatePullRequest(ctx context.Context, request github.NewPullRequest) (*github.PullRequest, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.creates = append(h.creates, request)
	if h.createErr != nil && (h.createFails == 0 || len(h.creates) <= h.createFails) {
		return nil, h.createErr
	}
	h.nextPR++
	return &github.PullRequest{
		Number:  h.nextPR,
		State:   "open",
		HTMLURL: fmt.Sprintf("https://github.com/acme/blog/pull/%d", h.nextPR),
		Head:    github.BranchRef{Ref: request.Head},
	}, nil
}

func (h *fakeHost) MergePullRequest(ctx context.Context, number int, request github.MergeRequest) (*github.MergeResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.merges = append(h.merges, request)
	if h.mergeErr != nil && (h.mergeFails == 0 || len(h.merges) <= h.mergeFails) {
		return nil, h.mergeErr
	}
	h.mergedPR[number] = true
	return &github.MergeResult{SHA: "feed000000000000000000000000000000000002", Merged: true}, nil
}

func (h *fakeHost) GetPullRequest(ctx context.Context, number int) (*github.PullRequest, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.polls++
	if h.pollErr != nil {
		return nil, h.pollErr
	}
	merged := h.mergedPR[number] && !h.neverMerged
	return &github.PullRequest{Number: number, Merged: merged}, nil
}

func (h *fakeHost) mutatingCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.creates) + len(h.merges)
}
