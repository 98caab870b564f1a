package artifacts

import (
	"regexp"
	"sort"
	"strings"
)

// Venue phrases: up to three words before a venue noun, the phrase after
// "at", and the phrases after "downtown" and "museum district". Matching
// stops at sentence punctuation and line ends.
var venuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b((?:[a-z0-9'&]+ +){0,2}[a-z0-9'&]+) +(?:venue|theater|theatre|hall|center|arena|stadium|park)\b`),
	regexp.MustCompile(`\bat +([^.,;:!?\n]+)`),
	regexp.MustCompile(`\bdowntown +([^.,;:!?\n]+)`),
	regexp.MustCompile(`\bmuseum +district +([^.,;:!?\n]+)`),
}

var eventTypes = []string{
	"concert", "festival", "show", "performance", "theater", "theatre",
	"music", "art", "food", "family", "kids", "sports", "game",
}

var neighborhoods = []string{
	"downtown", "heights", "montrose", "midtown", "museum district",
	"river oaks", "galleria", "memorial", "sugar land", "woodlands",
	"katy", "pearland",
}

// Leading words before the last of these are dropped from a venue phrase,
// so "parking near hermann park" yields "hermann".
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "at": true, "in": true, "on": true,
	"near": true, "of": true, "to": true, "for": true, "and": true, "or": true,
	"from": true, "by": true, "with": true, "us": true, "our": true,
	"join": true, "visit": true,
}

// maxKeywordRunes bounds a captured venue phrase.
const maxKeywordRunes = 60

func trimStopwords(phrase string) string {
	words := strings.Fields(phrase)
	for i := len(words) - 1; i >= 0; i-- {
		if stopwords[words[i]] {
			return strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " ")
}

var wordPatterns = compileWordPatterns(append(append([]string{}, eventTypes...), neighborhoods...))

func compileWordPatterns(words []string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(words))
	for _, w := range words {
		out[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// ExtractKeywords derives the venue, event type and neighborhood keywords
// of a post from its title and plain-text body. The result is lowercase,
// deduplicated and sorted.
func ExtractKeywords(title, body string) []string {
	text := strings.ToLower(title + "\n" + body)
	seen := make(map[string]bool)

	for i, re := range venuePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			kw := strings.TrimSpace(m[1])
			if i == 0 {
				kw = trimStopwords(kw)
			}
			if len([]rune(kw)) <= 2 || len([]rune(kw)) > maxKeywordRunes {
				continue
			}
			seen[kw] = true
		}
	}

	for word, re := range wordPatterns {
		if re.MatchString(text) {
			seen[word] = true
		}
	}

	keywords := make([]string, 0, len(seen))
	for kw := range seen {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}
