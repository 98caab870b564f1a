package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/postbot/internal/publisher"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the duplicate check without publishing",
	Long: `Compare a post against recently published posts and show the closest matches.

Scores combine title (40%), date proximity (30%), venue (20%) and category
(10%). A score above the threshold (default 0.75) would block the publish.
Nothing is written and GitHub is not contacted.

Examples:
  postbot check -f drafts/food-festival.md
  postbot check -f post.md --venue "Discovery Green" --top 10`,
	Run: func(cmd *cobra.Command, args []string) {
		top, _ := cmd.Flags().GetInt("top")
		ctx := context.Background()

		candidate, err := candidateFromFlags(cmd, os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		publisher.Complete(&candidate)

		history, err := openHistory(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeHistory(history)

		gate, err := newGate(history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		result, err := gate.Check(ctx, &candidate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		matches, err := gate.TopMatches(ctx, &candidate, top)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		threshold := gate.Config().Threshold
		fmt.Printf("Candidate: %s\n", candidate.Title)
		fmt.Printf("Compared against %d post(s) from the last %d days (threshold %.2f)\n\n",
			result.ComparedCount, int(gate.Config().Window.Hours()/24), threshold)

		for _, m := range matches {
			score := fmt.Sprintf("%.3f", m.Score())
			if m.Score() > threshold {
				score = yellow(score)
			}
			fmt.Printf("%s  %s\n", score, cyan(filepath.Base(m.Artifact.Path)))
			if m.ExactContent {
				fmt.Printf("       identical content\n")
				continue
			}
			fmt.Printf("       title %.2f  date %.2f  venue %.2f  category %.2f\n",
				m.Breakdown.Title, m.Breakdown.Date, m.Breakdown.Venue, m.Breakdown.Category)
		}
		if len(matches) > 0 {
			fmt.Println()
		}

		if result.IsDuplicate {
			fmt.Printf("%s Duplicate of %s\n", yellow("⚠"), result.Match.Path)
			os.Exit(2)
		}
		fmt.Printf("%s No duplicate found\n", green("✓"))
	},
}

func init() {
	addCandidateFlags(checkCmd)
	checkCmd.Flags().Int("top", 5, "Number of closest posts to show (0 shows all)")
	rootCmd.AddCommand(checkCmd)
}
