package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/postbot/internal/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a post through a pull request",
	Long: `Publish a finished post to the site repository.

The post is first compared against posts published in the duplicate window
(default 30 days). A duplicate is reported and nothing is pushed. Otherwise
postbot creates a blog-post-* branch from trunk, commits the post to the posts
directory, pushes the branch, opens a pull request and, with auto-merge
enabled, merges it and deletes the branch.

Push, pull request creation and merge are retried with exponential backoff.
A failure before the pull request exists deletes the branch again. A merge
failure leaves the pull request open for a human and still counts as published.

Exit status is 0 when the post was published or skipped as a duplicate and
1 when the publish failed.

Examples:
  postbot publish -f drafts/food-festival.md
  postbot publish -f post.md --venue "Discovery Green" --date 2024-05-02 --category food
  generate-post | postbot publish -f - --title "Houston Food Festival" --json`,
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		candidate, err := candidateFromFlags(cmd, os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		pub, history, err := newPublisher(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeHistory(history)

		result := pub.Publish(ctx, candidate)

		if asJSON {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		} else {
			printPublishResult(candidate.Title, result)
		}

		if !result.Success && !result.DuplicateDetected {
			closeHistory(history)
			os.Exit(1)
		}
	},
}

func printPublishResult(title string, r types.PublishResult) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	switch {
	case r.DuplicateDetected:
		fmt.Printf("%s Skipped duplicate: %s\n", yellow("⚠"), title)
		fmt.Printf("  Matches: %s (similarity %.2f)\n", r.MatchedPath, r.Similarity)
		return
	case !r.Success:
		fmt.Printf("%s Publish failed: %s\n", red("✗"), title)
		fmt.Printf("  Error: %s\n", r.Error)
		if r.BranchName != "" {
			fmt.Printf("  Branch: %s\n", r.BranchName)
		}
		return
	}

	fmt.Printf("%s Published: %s\n", green("✓"), title)
	fmt.Printf("  File: %s\n", r.FilePath)
	fmt.Printf("  Commit: %s\n", shortHash(r.CommitHash))
	fmt.Printf("  Pull request: %s %s\n", cyan(fmt.Sprintf("#%d", r.ReviewNumber)), r.ReviewURL)

	switch r.MergeStatus {
	case types.MergeStatusMerged:
		fmt.Printf("  Merge: %s (%s, %s)\n", green("merged"), r.MergeMethod, shortHash(r.MergeHash))
	case types.MergeStatusMergeFailed:
		fmt.Printf("  Merge: %s, pull request left open on %s\n", red("failed"), r.BranchName)
	case types.MergeStatusPRCreated:
		fmt.Printf("  Merge: %s, auto-merge disabled\n", yellow("pending review"))
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func init() {
	addCandidateFlags(publishCmd)
	publishCmd.Flags().Bool("json", false, "Print the result as JSON")
	publishCmd.Flags().Duration("timeout", 10*time.Minute, "Abort the publish after this long (0 disables)")
	rootCmd.AddCommand(publishCmd)
}
