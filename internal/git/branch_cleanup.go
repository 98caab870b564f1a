package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// PublishBranchPrefix is the prefix of every branch the publish workflow creates.
const PublishBranchPrefix = "blog-post-"

// OrphanedBranch represents a publish branch that no open review or checkout uses
type OrphanedBranch struct {
	Name      string
	Timestamp time.Time
	Age       time.Duration
}

// FindOrphanedPublishBranches finds local publish branches that are neither
// checked out nor listed in active. Callers pass the head branches of open
// pull requests as active. Orphans are left behind by a crash, a merge that
// was never confirmed, or a cleanup that failed.
// Results are ordered oldest first.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) FindOrphanedPublishBranches(ctx context.Context, repoPath string, active map[string]bool) ([]OrphanedBranch, error) {
	branches, err := g.ListBranches(ctx, repoPath, PublishBranchPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list publish branches: %w", err)
	}

	current, err := g.CurrentBranch(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	var orphaned []OrphanedBranch
	now := time.Now()

	for _, branch := range branches {
		if branch == current || active[branch] {
			continue
		}
		timestamp, err := g.GetBranchTimestamp(ctx, repoPath, branch)
		if err != nil {
			// Skip branches we can't get timestamps for
			continue
		}
		orphaned = append(orphaned, OrphanedBranch{
			Name:      branch,
			Timestamp: timestamp,
			Age:       now.Sub(timestamp),
		})
	}

	sort.Slice(orphaned, func(i, j int) bool {
		return orphaned[i].Timestamp.Before(orphaned[j].Timestamp)
	})
	return orphaned, nil
}

// BranchCleanupResult reports what a cleanup pass did with one branch.
type BranchCleanupResult struct {
	Branch  OrphanedBranch
	Deleted bool
	Err     error
}

// CleanupOrphanedBranches deletes orphaned publish branches older than retention,
// locally and, when deleteRemote is set, on the remote as well.
// If dryRun is true, branches are identified but not deleted.
// A failure on one branch does not stop the others.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) CleanupOrphanedBranches(ctx context.Context, repoPath, remote string, active map[string]bool,
	retention time.Duration, deleteRemote, dryRun bool) ([]BranchCleanupResult, error) {
	orphaned, err := g.FindOrphanedPublishBranches(ctx, repoPath, active)
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned branches: %w", err)
	}

	var results []BranchCleanupResult
	for _, branch := range orphaned {
		if branch.Age < retention {
			// Branch is too recent to delete
			continue
		}

		result := BranchCleanupResult{Branch: branch}
		if !dryRun {
			if err := g.DeleteBranch(ctx, repoPath, branch.Name); err != nil {
				result.Err = err
				results = append(results, result)
				continue
			}
			result.Deleted = true
			if deleteRemote {
				// The remote branch may already be gone
				if err := g.DeleteRemoteBranch(ctx, repoPath, remote, branch.Name); err != nil {
					result.Err = err
				}
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// GetOrphanedBranchSummary returns a summary of orphaned branches for display.
// Groups branches by age category for better visibility.
func GetOrphanedBranchSummary(orphaned []OrphanedBranch) string {
	if len(orphaned) == 0 {
		return "No orphaned publish branches found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d orphaned publish branch(es):\n\n", len(orphaned)))

	// Group by age
	var recent, old, veryOld []OrphanedBranch
	for _, branch := range orphaned {
		days := branch.Age.Hours() / 24
		if days < 7 {
			recent = append(recent, branch)
		} else if days < 30 {
			old = append(old, branch)
		} else {
			veryOld = append(veryOld, branch)
		}
	}

	writeGroup := func(label string, group []OrphanedBranch) {
		if len(group) == 0 {
			return
		}
		sb.WriteString(label + ":\n")
		for _, b := range group {
			sb.WriteString(fmt.Sprintf("  - %s (%.1f days old)\n", b.Name, b.Age.Hours()/24))
		}
		sb.WriteString("\n")
	}
	writeGroup("Recent (< 7 days)", recent)
	writeGroup("Old (7-30 days)", old)
	writeGroup("Very Old (> 30 days)", veryOld)

	return sb.String()
}
