package publisher

import (
	"strings"
	"time"
)

const filenameSlugMaxRunes = 60

// Filename returns the Jekyll post name <YYYY-MM-DD>-<slug>.md for title.
func Filename(date time.Time, title string) string {
	slug := FilenameSlug(title)
	if slug == "" {
		slug = "post"
	}
	return date.Format("2006-01-02") + "-" + slug + ".md"
}

// FilenameSlug lowercases title, joins its alphanumeric runs with single
// dashes and truncates the result to 60 runes without a trailing dash.
func FilenameSlug(title string) string {
	var b strings.Builder
	n := 0
	dash := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			dash = b.Len() > 0
			continue
		}
		if dash {
			if n+1 >= filenameSlugMaxRunes {
				break
			}
			b.WriteByte('-')
			n++
			dash = false
		}
		if n == filenameSlugMaxRunes {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
