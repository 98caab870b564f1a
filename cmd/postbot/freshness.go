package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var freshnessCmd = &cobra.Command{
	Use:   "freshness",
	Short: "Score how fresh a venue or category is",
	Long: `Score how little a venue and category have been covered recently.

Counts posts in the freshness window (default 60 days) that mention the venue
or carry the category. 1.00 means not covered at all; each venue mention
costs 0.3 and each category post 0.2, averaged over the two.

Examples:
  postbot freshness --venue "Discovery Green"
  postbot freshness --venue "Toyota Center" --category concerts`,
	Run: func(cmd *cobra.Command, args []string) {
		venue, _ := cmd.Flags().GetString("venue")
		category, _ := cmd.Flags().GetString("category")
		if venue == "" && category == "" {
			fmt.Fprintf(os.Stderr, "Error: --venue or --category is required\n")
			os.Exit(1)
		}

		// Unmerged attempts are not content yet; freshness reads the posts only
		gate, err := newGate(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		score := gate.Freshness(context.Background(), venue, category)

		var label string
		switch {
		case score >= 0.8:
			label = color.GreenString("fresh")
		case score >= 0.5:
			label = color.YellowString("covered")
		default:
			label = color.RedString("saturated")
		}
		fmt.Printf("Freshness: %.2f (%s) over the last %d days\n",
			score, label, int(gate.Config().FreshnessWindow.Hours()/24))
	},
}

func init() {
	freshnessCmd.Flags().String("venue", "", "Venue to score")
	freshnessCmd.Flags().String("category", "", "Category to score")
	rootCmd.AddCommand(freshnessCmd)
}
