package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/postbot/internal/events"
	"github.com/steveyegge/postbot/internal/git"
	"github.com/steveyegge/postbot/internal/workflow"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Reconcile leftovers of interrupted publishes",
	Long: `Commands for cleaning up what interrupted or unconfirmed publishes leave behind.

A publish that dies mid-workflow is never resumed. Its branch, and possibly
an open pull request, stay behind until an operator reconciles them.`,
}

var cleanupBranchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Clean up orphaned publish branches",
	Long: `Delete orphaned publish branches that no open pull request uses.

Publish branches ("blog-post-*") are deleted after a confirmed merge or a
rollback, but survive a crash, a failed cleanup or a merge that was never
confirmed. Branches that are the head of an open pull request are kept.

By default, only branches older than 7 days are deleted.

Examples:
  postbot cleanup branches                       # Delete orphans older than 7 days
  postbot cleanup branches --retention-hours 24  # Delete orphans older than a day
  postbot cleanup branches --dry-run             # Preview what would be deleted`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		branchCfg := cfg.Branches
		if cmd.Flags().Changed("retention-hours") {
			branchCfg.RetentionHours, _ = cmd.Flags().GetInt("retention-hours")
		}
		if cmd.Flags().Changed("local-only") {
			localOnly, _ := cmd.Flags().GetBool("local-only")
			branchCfg.DeleteRemote = !localOnly
		}
		if err := branchCfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()

		local, err := newLocalRepo(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		host, err := newGitHubRepository()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		open, err := host.OpenPullRequests(ctx, cfg.GitHub.Branch, workflow.BranchPrefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list open pull requests: %v\n", err)
			os.Exit(1)
		}
		active := make(map[string]bool, len(open))
		for _, pr := range open {
			active[pr.Head.Ref] = true
		}

		if dryRun {
			fmt.Printf("%s\n", color.YellowString("DRY RUN MODE - No branches will be deleted"))
		}
		fmt.Printf("Scanning for orphaned publish branches (retention: %s)...\n\n", branchCfg.Retention())

		orphaned, err := local.Git().FindOrphanedPublishBranches(ctx, local.Path(), active)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(git.GetOrphanedBranchSummary(orphaned))

		results, err := local.Git().CleanupOrphanedBranches(ctx, local.Path(), local.Remote(), active,
			branchCfg.Retention(), branchCfg.DeleteRemote, dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: branch cleanup failed: %v\n", err)
			os.Exit(1)
		}

		deleted := 0
		for _, r := range results {
			if r.Deleted {
				deleted++
			}
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", r.Branch.Name, r.Err)
			}
		}

		fmt.Println()
		if dryRun {
			fmt.Printf("Would delete %d orphaned branch(es)\n", len(results))
			fmt.Printf("Run without --dry-run to perform cleanup\n")
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Deleted %d orphaned branch(es)\n", green("✓"), deleted)
		}
	},
}

var cleanupReviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "List pull requests left open by postbot",
	Long: `List open pull requests from publish branches.

These are publishes whose merge failed, whose auto-merge was disabled, or
whose process died after opening the request. Merge or close them on GitHub.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		host, err := newGitHubRepository()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		open, err := host.OpenPullRequests(ctx, cfg.GitHub.Branch, workflow.BranchPrefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(open) == 0 {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s No open publish pull requests on %s\n", green("✓"), host.FullName())
			return
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s %d open publish pull request(s) on %s:\n\n", yellow("⚠"), len(open), host.FullName())
		for _, pr := range open {
			fmt.Printf("%s %s\n", cyan(fmt.Sprintf("#%d", pr.Number)), pr.Title)
			fmt.Printf("  Branch: %s\n", pr.Head.Ref)
			fmt.Printf("  Opened: %s (%s ago)\n", pr.CreatedAt.Local().Format("2006-01-02 15:04"),
				time.Since(pr.CreatedAt).Round(time.Minute))
			fmt.Printf("  %s\n\n", pr.HTMLURL)
		}
	},
}

var cleanupHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Prune old publish history",
	Long: `Delete publish attempts and their events older than the retention period.

Configuration is read from environment variables:
  POSTBOT_HISTORY_RETENTION_DAYS (default 180)
  POSTBOT_HISTORY_CLEANUP_BATCH_SIZE (default 1000)
  POSTBOT_HISTORY_CLEANUP_VACUUM (default false)

Examples:
  postbot cleanup history             # Run cleanup with configured retention
  postbot cleanup history --vacuum    # Run cleanup and reclaim disk space
  postbot cleanup history --dry-run   # Count what would be deleted`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		retention := cfg.History.Retention
		if cmd.Flags().Changed("vacuum") {
			retention.CleanupVacuum, _ = cmd.Flags().GetBool("vacuum")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		store, err := requireHistory(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeHistory(store)

		fmt.Printf("History Retention Configuration:\n")
		fmt.Printf("  Retention: %d days\n", retention.RetentionDays)
		fmt.Printf("  Batch size: %d rows/statement\n", retention.CleanupBatchSize)
		if dryRun {
			fmt.Printf("\n%s\n", color.YellowString("DRY RUN MODE - Nothing will be deleted"))
		}
		fmt.Println()

		start := time.Now()
		counts, err := store.CleanupHistory(ctx, retention.Cutoff(start), retention.CleanupBatchSize, dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: history cleanup failed: %v\n", err)
			os.Exit(1)
		}
		elapsed := time.Since(start)

		if dryRun {
			fmt.Printf("Would delete %s attempt(s) and %s event(s)\n",
				formatNumber(counts.AttemptsDeleted), formatNumber(counts.EventsDeleted))
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Cleanup complete\n", green("✓"))
		fmt.Printf("  Attempts deleted: %s\n", formatNumber(counts.AttemptsDeleted))
		fmt.Printf("  Events deleted: %s\n", formatNumber(counts.EventsDeleted))
		fmt.Printf("  Time taken: %s\n", elapsed.Round(time.Millisecond))

		event := events.NewSimpleEvent(events.EventTypeHistoryCleanupCompleted, "", events.SeverityInfo,
			fmt.Sprintf("Deleted %d attempts and %d events", counts.AttemptsDeleted, counts.EventsDeleted))
		if err := event.SetHistoryCleanupData(events.HistoryCleanupData{
			AttemptsDeleted: counts.AttemptsDeleted,
			EventsDeleted:   counts.EventsDeleted,
			ProcessingMs:    elapsed.Milliseconds(),
		}); err == nil {
			if err := store.StoreEvent(ctx, event); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record cleanup event: %v\n", err)
			}
		}

		if retention.CleanupVacuum {
			fmt.Printf("\nRunning VACUUM to reclaim disk space...\n")
			if err := store.VacuumDatabase(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: VACUUM failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s VACUUM complete\n", green("✓"))
		} else {
			fmt.Printf("\nNote: Use --vacuum to reclaim disk space\n")
		}
	},
}

func init() {
	cleanupBranchesCmd.Flags().Bool("dry-run", false, "Preview deletions without committing")
	cleanupBranchesCmd.Flags().Int("retention-hours", 168, "Delete branches older than N hours")
	cleanupBranchesCmd.Flags().Bool("local-only", false, "Keep the remote branches")

	cleanupHistoryCmd.Flags().Bool("dry-run", false, "Count deletions without committing")
	cleanupHistoryCmd.Flags().Bool("vacuum", false, "Run VACUUM after cleanup to reclaim disk space")

	cleanupCmd.AddCommand(cleanupBranchesCmd)
	cleanupCmd.AddCommand(cleanupReviewsCmd)
	cleanupCmd.AddCommand(cleanupHistoryCmd)
	rootCmd.AddCommand(cleanupCmd)
}

// formatNumber formats a number with thousand separators
func formatNumber(n int) string {
	if n < 0 {
		return fmt.Sprintf("-%s", formatNumber(-n))
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", formatNumber(n/1000), n%1000)
}
