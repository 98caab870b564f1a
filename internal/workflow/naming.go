package workflow

import (
	"fmt"
	"strings"
	"time"
)

// BranchPrefix starts every branch the workflow creates.
const BranchPrefix = "blog-post-"

const slugMaxRunes = 30

// Slug lowercases title and replaces every rune outside [a-z0-9-] with
// '-', truncated to 30 runes.
func Slug(title string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(title) {
		if n == slugMaxRunes {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
		n++
	}
	return b.String()
}

// BranchName returns blog-post-<YYYY-MM-DD-HHMMSS>-<slug>.
func BranchName(now time.Time, title string) string {
	return BranchPrefix + now.Format("2006-01-02-150405") + "-" + Slug(title)
}

// CommitMessage is the message of the artifact commit.
func CommitMessage(title string) string {
	return "Added " + title
}

// ReviewTitle is the pull request title.
func ReviewTitle(title string) string {
	return "Add blog post: " + title
}

// ReviewBody is the pull request description.
func ReviewBody(title, branch string, now time.Time) string {
	return fmt.Sprintf("Automated blog post generation\n\n- Title: %s\n- Branch: %s\n- Generated: %s",
		title, branch, now.Format(time.RFC3339))
}

// MergeCommitTitle is the title of the merge commit.
func MergeCommitTitle(number int, title string) string {
	return fmt.Sprintf("Merge pull request #%d: %s", number, title)
}

// MergeCommitMessage is the body of the merge commit.
const MergeCommitMessage = "Automated blog post merge"
