package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/postbot/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [attempt-id]",
	Short: "Show past publish attempts",
	Long: `List recent publish attempts, or show one attempt with its workflow events.

Examples:
  postbot history                      # Last 20 attempts
  postbot history --status failed      # Only failed attempts
  postbot history --since 72h          # Attempts from the last three days
  postbot history 3f0c...              # One attempt with its events`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := requireHistory(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeHistory(store)

		if len(args) == 1 {
			attempt, err := store.GetAttempt(ctx, args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if attempt == nil {
				fmt.Fprintf(os.Stderr, "Error: no attempt %s\n", args[0])
				os.Exit(1)
			}
			printAttempt(attempt)

			evts, err := store.GetEvents(ctx, attempt.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to load events: %v\n", err)
				os.Exit(1)
			}
			if len(evts) > 0 {
				fmt.Printf("\nEvents:\n")
			}
			for _, e := range evts {
				displayEvent(e)
			}
			return
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetDuration("since")

		filter := types.AttemptFilter{Status: types.AttemptStatus(status), Limit: limit}
		if status != "" && !filter.Status.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: invalid status %q (want published, duplicate or failed)\n", status)
			os.Exit(1)
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		attempts, err := store.ListAttempts(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(attempts) == 0 {
			fmt.Println("No publish attempts recorded")
			return
		}
		for _, a := range attempts {
			printAttemptLine(a)
		}
	},
}

func statusLabel(s types.AttemptStatus) string {
	switch s {
	case types.AttemptPublished:
		return color.GreenString("%-9s", s)
	case types.AttemptDuplicate:
		return color.YellowString("%-9s", s)
	default:
		return color.RedString("%-9s", s)
	}
}

func printAttemptLine(a *types.PublishAttempt) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Printf("%s  %s  %s  %s\n",
		a.StartedAt.Local().Format("2006-01-02 15:04"),
		statusLabel(a.Status),
		truncateString(a.Title, 50),
		gray(shortID(a.ID)))
}

func printAttempt(a *types.PublishAttempt) {
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("%s %s\n", cyan("Attempt"), a.ID)
	fmt.Printf("  Title: %s\n", a.Title)
	fmt.Printf("  Status: %s\n", statusLabel(a.Status))
	fmt.Printf("  Started: %s", a.StartedAt.Local().Format(time.RFC3339))
	if !a.CompletedAt.IsZero() {
		fmt.Printf(" (took %s)", a.CompletedAt.Sub(a.StartedAt).Round(time.Millisecond))
	}
	fmt.Println()

	fields := []struct{ label, value string }{
		{"File", a.FilePath},
		{"Branch", a.BranchName},
		{"Commit", a.CommitHash},
		{"Pull request", a.ReviewURL},
		{"Merge", string(a.MergeStatus)},
		{"Merge commit", a.MergeHash},
		{"Matched", a.MatchedPath},
		{"Error", a.Error},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Printf("  %s: %s\n", f.label, f.value)
		}
	}
	if a.Similarity > 0 {
		fmt.Printf("  Best similarity: %.3f\n", a.Similarity)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().String("status", "", "Only show attempts with this status (published, duplicate, failed)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum attempts to list (0 lists all)")
	historyCmd.Flags().Duration("since", 0, "Only list attempts started within this duration")
	rootCmd.AddCommand(historyCmd)
}
