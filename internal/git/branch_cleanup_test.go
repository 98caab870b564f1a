package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// commitOldBranch creates branch with a commit dated age ago.
func commitOldBranch(t *testing.T, dir, branch string, age time.Duration) {
	t.Helper()
	runGit(t, dir, "checkout", "-b", branch)
	if err := os.WriteFile(filepath.Join(dir, branch+".md"), []byte(branch), 0644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", branch+".md")
	date := time.Now().Add(-age).Format(time.RFC3339)
	cmd := exec.Command("git", "-C", dir, "commit", "-m", "old "+branch)
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_DATE="+date, "GIT_COMMITTER_DATE="+date)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to commit on %s: %v\n%s", branch, err, out)
	}
	runGit(t, dir, "checkout", "main")
}

// TestFindOrphanedPublishBranches tests the orphaned branch detection logic
func TestFindOrphanedPublishBranches(t *testing.T) {
	ctx := context.Background()
	work, _ := setupRepo(t)
	git := newTestGit(t)

	commitOldBranch(t, work, "blog-post-old", 10*24*time.Hour)
	runGit(t, work, "branch", "blog-post-new")
	runGit(t, work, "branch", "blog-post-open")
	// Non-publish branches are ignored
	runGit(t, work, "branch", "feature/test")

	orphaned, err := git.FindOrphanedPublishBranches(ctx, work, map[string]bool{"blog-post-open": true})
	if err != nil {
		t.Fatalf("FindOrphanedPublishBranches failed: %v", err)
	}
	if len(orphaned) != 2 {
		t.Fatalf("expected 2 orphaned branches, got %d: %+v", len(orphaned), orphaned)
	}
	if orphaned[0].Name != "blog-post-old" {
		t.Errorf("expected oldest first, got %s", orphaned[0].Name)
	}
	if orphaned[1].Name != "blog-post-new" {
		t.Errorf("expected blog-post-new second, got %s", orphaned[1].Name)
	}
	if orphaned[0].Age < 9*24*time.Hour {
		t.Errorf("expected old branch age ~10 days, got %v", orphaned[0].Age)
	}
}

func TestFindOrphanedPublishBranches_SkipsCurrentBranch(t *testing.T) {
	ctx := context.Background()
	work, _ := setupRepo(t)
	git := newTestGit(t)

	runGit(t, work, "checkout", "-b", "blog-post-current")
	orphaned, err := git.FindOrphanedPublishBranches(ctx, work, nil)
	if err != nil {
		t.Fatalf("FindOrphanedPublishBranches failed: %v", err)
	}
	if len(orphaned) != 0 {
		t.Errorf("expected checked out branch to be skipped, got %+v", orphaned)
	}
}

func TestCleanupOrphanedBranches(t *testing.T) {
	ctx := context.Background()

	t.Run("DryRun", func(t *testing.T) {
		work, _ := setupRepo(t)
		git := newTestGit(t)
		commitOldBranch(t, work, "blog-post-old", 10*24*time.Hour)

		results, err := git.CleanupOrphanedBranches(ctx, work, "origin", nil, 7*24*time.Hour, false, true)
		if err != nil {
			t.Fatalf("CleanupOrphanedBranches failed: %v", err)
		}
		if len(results) != 1 || results[0].Deleted {
			t.Fatalf("expected one undeleted result, got %+v", results)
		}
		exists, _ := git.BranchExists(ctx, work, "blog-post-old")
		if !exists {
			t.Error("dry run must not delete branches")
		}
	})

	t.Run("RespectsRetention", func(t *testing.T) {
		work, _ := setupRepo(t)
		git := newTestGit(t)
		commitOldBranch(t, work, "blog-post-old", 10*24*time.Hour)
		runGit(t, work, "branch", "blog-post-new")

		results, err := git.CleanupOrphanedBranches(ctx, work, "origin", nil, 7*24*time.Hour, false, false)
		if err != nil {
			t.Fatalf("CleanupOrphanedBranches failed: %v", err)
		}
		if len(results) != 1 || results[0].Branch.Name != "blog-post-old" || !results[0].Deleted {
			t.Fatalf("expected blog-post-old deleted, got %+v", results)
		}
		if exists, _ := git.BranchExists(ctx, work, "blog-post-old"); exists {
			t.Error("expected blog-post-old to be deleted")
		}
		if exists, _ := git.BranchExists(ctx, work, "blog-post-new"); !exists {
			t.Error("expected blog-post-new to be kept")
		}
	})

	t.Run("DeletesRemote", func(t *testing.T) {
		work, bare := setupRepo(t)
		git := newTestGit(t)
		commitOldBranch(t, work, "blog-post-old", 10*24*time.Hour)
		runGit(t, work, "push", "origin", "blog-post-old")

		results, err := git.CleanupOrphanedBranches(ctx, work, "origin", nil, 0, true, false)
		if err != nil {
			t.Fatalf("CleanupOrphanedBranches failed: %v", err)
		}
		if len(results) != 1 || results[0].Err != nil {
			t.Fatalf("unexpected results: %+v", results)
		}
		if out := runGit(t, bare, "branch", "--list", "blog-post-old"); out != "" {
			t.Errorf("remote branch still present: %q", out)
		}
	})

	t.Run("MissingRemoteBranchReported", func(t *testing.T) {
		work, _ := setupRepo(t)
		git := newTestGit(t)
		runGit(t, work, "branch", "blog-post-local")

		results, err := git.CleanupOrphanedBranches(ctx, work, "origin", nil, 0, true, false)
		if err != nil {
			t.Fatalf("CleanupOrphanedBranches failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if !results[0].Deleted {
			t.Error("local branch should still be deleted")
		}
		if results[0].Err == nil {
			t.Error("expected remote deletion error to be reported")
		}
	})
}

func TestGetOrphanedBranchSummary(t *testing.T) {
	if got := GetOrphanedBranchSummary(nil); got != "No orphaned publish branches found." {
		t.Errorf("unexpected empty summary: %q", got)
	}

	summary := GetOrphanedBranchSummary([]OrphanedBranch{
		{Name: "blog-post-a", Age: 2 * 24 * time.Hour},
		{Name: "blog-post-b", Age: 10 * 24 * time.Hour},
		{Name: "blog-post-c", Age: 40 * 24 * time.Hour},
	})
	for _, want := range []string{
		"Found 3 orphaned publish branch(es)",
		"Recent (< 7 days):\n  - blog-post-a (2.0 days old)",
		"Old (7-30 days):\n  - blog-post-b (10.0 days old)",
		"Very Old (> 30 days):\n  - blog-post-c (40.0 days old)",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
