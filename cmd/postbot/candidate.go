package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/postbot/internal/artifacts"
	"github.com/steveyegge/postbot/internal/types"
)

// addCandidateFlags registers the flags that describe a candidate post.
func addCandidateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Post to publish, with frontmatter (- reads stdin)")
	cmd.Flags().StringP("title", "t", "", "Post title (default: frontmatter title or first heading)")
	cmd.Flags().String("filename", "", "Target filename inside the posts directory (default: <date>-<slug>.md)")
	cmd.Flags().String("date", "", "Event date, YYYY-MM-DD (default: frontmatter date)")
	cmd.Flags().String("venue", "", "Event venue (default: frontmatter venue)")
	cmd.Flags().String("category", "", "Post category (default: frontmatter category)")
	cmd.Flags().StringSlice("tags", nil, "Post tags (default: frontmatter tags)")
}

// candidateFromFlags reads the post named by --file and applies the
// metadata flags. Missing metadata is filled from frontmatter later.
func candidateFromFlags(cmd *cobra.Command, stdin io.Reader) (types.Candidate, error) {
	var c types.Candidate

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return c, fmt.Errorf("--file is required")
	}
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return c, fmt.Errorf("failed to read post: %w", err)
	}
	c.Body = string(data)

	c.Title, _ = cmd.Flags().GetString("title")
	c.Filename, _ = cmd.Flags().GetString("filename")
	c.Venue, _ = cmd.Flags().GetString("venue")
	c.Category, _ = cmd.Flags().GetString("category")
	c.Tags, _ = cmd.Flags().GetStringSlice("tags")

	if date, _ := cmd.Flags().GetString("date"); date != "" {
		c.Date = artifacts.ParseDate(date)
		if c.Date.IsZero() {
			return c, fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", date)
		}
	}

	// Without a title flag the file name is the last title fallback
	if strings.TrimSpace(c.Title) == "" && file != "-" {
		c.Title = artifacts.ExtractTitle(data, filepath.Base(file))
	}
	c.Title = strings.TrimSpace(c.Title)
	return c, nil
}
