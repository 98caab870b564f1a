// Package similarity scores how closely a publish candidate resembles an
// already published artifact.
//
// The score is a weighted sum of four components, each in [0,1]:
//
//	title     40  fuzzy partial ratio of lowercased titles
//	date      30  1 - days/7 within a week, else 0
//	venue     20  best partial ratio of the candidate venue against the
//	              artifact venue and its extracted keywords
//	category  10  exact category or tag match
//
// Weights are integers summed before dividing by 100 so that a candidate
// compared with itself scores exactly 1.0.
package similarity

import (
	"math"
	"strings"
	"time"

	"github.com/steveyegge/postbot/internal/types"
)

// Component weights, out of 100.
const (
	TitleWeight    = 40
	DateWeight     = 30
	VenueWeight    = 20
	CategoryWeight = 10

	totalWeight = TitleWeight + DateWeight + VenueWeight + CategoryWeight
)

// DateHorizonDays is the distance in calendar days at which date similarity reaches 0.
const DateHorizonDays = 7

// Breakdown is the per-component view of a score.
type Breakdown struct {
	Title    float64 `json:"title"`
	Date     float64 `json:"date"`
	Venue    float64 `json:"venue"`
	Category float64 `json:"category"`
	Total    float64 `json:"total"`
}

// Score returns the weighted similarity of c and a in [0,1].
func Score(c types.Candidate, a types.PublishedArtifact) float64 {
	return Explain(c, a).Total
}

// Explain computes every component of the score along with the total.
func Explain(c types.Candidate, a types.PublishedArtifact) Breakdown {
	b := Breakdown{
		Title:    TitleRatio(c.Title, a.Title),
		Date:     DateSimilarity(c.Date, a.Date),
		Venue:    VenueSimilarity(c.Venue, a),
		Category: CategorySimilarity(c.Category, a),
	}
	sum := TitleWeight*b.Title + DateWeight*b.Date + VenueWeight*b.Venue + CategoryWeight*b.Category
	b.Total = clamp(sum / totalWeight)
	return b
}

// DateSimilarity is 1 - days/7 for dates up to a week apart, counting
// calendar days. Either date being zero yields 0.
func DateSimilarity(x, y time.Time) float64 {
	if x.IsZero() || y.IsZero() {
		return 0
	}
	days := math.Abs(calendarDay(x).Sub(calendarDay(y)).Hours() / 24)
	if days > DateHorizonDays {
		return 0
	}
	return clamp(1 - days/DateHorizonDays)
}

// VenueSimilarity matches venue against the artifact's venue field and
// every keyword extracted from it. An empty venue yields 0.
func VenueSimilarity(venue string, a types.PublishedArtifact) float64 {
	venue = normalize(venue)
	if venue == "" {
		return 0
	}
	best := 0.0
	if a.Venue != "" {
		best = PartialRatio(venue, normalize(a.Venue))
	}
	for _, kw := range a.Keywords {
		if best == 1 {
			break
		}
		if r := PartialRatio(venue, normalize(kw)); r > best {
			best = r
		}
	}
	return best
}

// CategorySimilarity is 1 when category equals the artifact category or
// one of its tags, ignoring case.
func CategorySimilarity(category string, a types.PublishedArtifact) float64 {
	category = normalize(category)
	if category == "" {
		return 0
	}
	if strings.EqualFold(category, strings.TrimSpace(a.Category)) || a.HasTag(category) {
		return 1
	}
	return 0
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
