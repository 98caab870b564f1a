package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently published posts",
	Long: `List posts in the posts directory, newest first.

Examples:
  postbot recent
  postbot recent -n 20`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := newArtifactStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		posts, err := store.Recent(context.Background(), limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(posts) == 0 {
			fmt.Printf("No posts found in %s\n", store.Dir())
			return
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, p := range posts {
			date := "undated   "
			if !p.Date.IsZero() {
				date = p.Date.Format("2006-01-02")
			}
			fmt.Printf("%s  %s  %s\n", date, p.Title, gray(filepath.Base(p.Path)))
		}
	},
}

func init() {
	recentCmd.Flags().IntP("limit", "n", 10, "Number of posts to list (0 lists all)")
	rootCmd.AddCommand(recentCmd)
}
