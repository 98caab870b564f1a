package similarity

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Ratio returns the normalized Levenshtein similarity of a and b in [0,1]:
// 1 - distance/max(len). Lengths are counted in runes. If either string is
// empty the ratio is 0.
func Ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 1
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(dist)/float64(longest))
}

// PartialRatio returns the best Ratio of the shorter string against every
// equal-length window of the longer one.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return Ratio(a, b)
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := Ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

// MinPartialTokenLen is the shortest token matched by substring. Shorter
// tokens such as "at" or "de" must match a whole token.
const MinPartialTokenLen = 3

// TokenPartialRatio compares a and b token by token. Each token of the side
// with fewer tokens is matched against its best counterpart on the other
// side, and the mean of those best matches is returned.
func TokenPartialRatio(a, b string) float64 {
	ta, tb := Tokenize(a), Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}

	sum := 0.0
	for _, x := range ta {
		best := 0.0
		for _, y := range tb {
			if r := tokenRatio(x, y); r > best {
				best = r
			}
		}
		sum += best
	}
	return clamp(sum / float64(len(ta)))
}

// tokenRatio is PartialRatio, except that a token shorter than
// MinPartialTokenLen is compared whole with Ratio.
func tokenRatio(x, y string) float64 {
	if min(len([]rune(x)), len([]rune(y))) < MinPartialTokenLen {
		return Ratio(x, y)
	}
	return PartialRatio(x, y)
}

// TitleRatio is the fuzzy title similarity: the larger of the window
// partial ratio and the token partial ratio of the lowercased inputs.
func TitleRatio(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}
	p := PartialRatio(a, b)
	if t := TokenPartialRatio(a, b); t > p {
		return t
	}
	return p
}

// Tokenize lowercases s and splits it on anything that is not a letter or
// digit. Single-rune tokens are dropped unless nothing else remains.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return fields
	}
	return tokens
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v float64) float64 {
	if v != v || v < 0 { // NaN or negative
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
