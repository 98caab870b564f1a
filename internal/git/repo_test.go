package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepo(t *testing.T) {
	g := newTestGit(t)

	_, err := NewRepo(nil, ".", "")
	assert.Error(t, err)

	repo, err := NewRepo(g, ".", "")
	require.NoError(t, err)
	assert.Equal(t, "origin", repo.Remote())
	assert.True(t, filepath.IsAbs(repo.Path()))
	assert.Same(t, g, repo.Git())
}

func TestRepo_Resolve(t *testing.T) {
	repo, err := NewRepo(newTestGit(t), t.TempDir(), "origin")
	require.NoError(t, err)

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"_posts/2026-10-14-jazz.md", false},
		{"a/../b.md", false},
		{"", true},
		{"/etc/passwd", true},
		{"..", true},
		{"../outside.md", true},
		{"_posts/../../outside.md", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := repo.resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepo_WorkflowOperations(t *testing.T) {
	ctx := context.Background()
	work, bare := setupRepo(t)
	repo, err := NewRepo(newTestGit(t), work, "origin")
	require.NoError(t, err)

	const post = "_posts/2026-10-14-jazz-night.md"

	require.NoError(t, repo.CreateBranch(ctx, "blog-post-20261014-jazz-night"))

	exists, err := repo.Exists(ctx, post)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.WriteFile(ctx, post, []byte("# Jazz Night\n")))
	exists, err = repo.Exists(ctx, post)
	require.NoError(t, err)
	assert.True(t, exists)

	hash, err := repo.AddAndCommit(ctx, post, "Add blog post: Jazz Night")
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	require.NoError(t, repo.Push(ctx, "blog-post-20261014-jazz-night"))
	assert.Contains(t, runGit(t, bare, "branch", "--list"), "blog-post-20261014-jazz-night")

	require.NoError(t, repo.CheckoutBranch(ctx, "main"))
	_, err = os.Stat(filepath.Join(work, post))
	assert.True(t, os.IsNotExist(err), "post must not exist on main")

	require.NoError(t, repo.DeleteLocalBranch(ctx, "blog-post-20261014-jazz-night"))
	require.NoError(t, repo.DeleteRemoteBranch(ctx, "blog-post-20261014-jazz-night"))
	assert.NotContains(t, runGit(t, bare, "branch", "--list"), "blog-post-20261014-jazz-night")

	require.NoError(t, repo.Pull(ctx, "main"))
}

func TestRepo_RemoveFile(t *testing.T) {
	ctx := context.Background()
	work, _ := setupRepo(t)
	repo, err := NewRepo(newTestGit(t), work, "origin")
	require.NoError(t, err)

	require.NoError(t, repo.WriteFile(ctx, "dir/file.md", []byte("x")))
	require.NoError(t, repo.RemoveFile(ctx, "dir/file.md"))
	// Missing file is fine
	require.NoError(t, repo.RemoveFile(ctx, "dir/file.md"))
	assert.Error(t, repo.RemoveFile(ctx, "../escape.md"))
	assert.Error(t, repo.WriteFile(ctx, "../escape.md", []byte("x")))
	assert.Empty(t, runGit(t, work, "status", "--porcelain"))
}

func TestRepo_RemoveFileUnstages(t *testing.T) {
	ctx := context.Background()
	work, _ := setupRepo(t)
	repo, err := NewRepo(newTestGit(t), work, "origin")
	require.NoError(t, err)

	const post = "_posts/2026-10-14-jazz-night.md"
	require.NoError(t, repo.CreateBranch(ctx, "blog-post-20261014-jazz-night"))
	require.NoError(t, repo.WriteFile(ctx, post, []byte("# Jazz Night\n")))
	runGit(t, work, "add", post)

	// The staged file follows the checkout to main
	require.NoError(t, repo.CheckoutBranch(ctx, "main"))
	require.NoError(t, repo.RemoveFile(ctx, post))

	assert.Empty(t, runGit(t, work, "status", "--porcelain"))
	require.NoError(t, repo.DeleteLocalBranch(ctx, "blog-post-20261014-jazz-night"))
}
