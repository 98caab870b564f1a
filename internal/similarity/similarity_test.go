package similarity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/postbot/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"kitten", "sitting", 1 - 3.0/7.0},
		{"same", "same", 1},
		{"", "", 0},
		{"abc", "", 0},
		{"", "abc", 0},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9, "Ratio(%q, %q)", tt.a, tt.b)
	}
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 1.0, PartialRatio("fest", "festival"))
	assert.Equal(t, 1.0, PartialRatio("festival", "fest"))
	assert.Equal(t, 1.0, PartialRatio("green", "discovery green park"))
	assert.Equal(t, 0.0, PartialRatio("", "anything"))
	assert.Less(t, PartialRatio("zoo", "museum"), 0.5)
}

func TestTokenPartialRatio(t *testing.T) {
	assert.Equal(t, 1.0, TokenPartialRatio("houston food festival", "houston food fest 2024"))
	assert.Equal(t, 0.0, TokenPartialRatio("", "houston"))

	// Short tokens only match whole tokens
	assert.Equal(t, 1.0, TokenPartialRatio("at", "at"))
	assert.InDelta(t, 2.0/7.0, TokenPartialRatio("at", "atlanta"), 1e-9)
	assert.Less(t, TokenPartialRatio("jazz at dusk", "kids cooking atlanta"), 0.5)
	assert.Equal(t, 1.0, TokenPartialRatio("fest", "festival"))
	assert.Equal(t, []string{"jazz", "night", "2024"}, Tokenize("Jazz Night: 2024!"))
	assert.Equal(t, []string{"a"}, Tokenize("a"))
}

func TestScoreIdentity(t *testing.T) {
	a := types.PublishedArtifact{
		Path:     "_posts/2024-05-01-jazz-night.md",
		Title:    "Jazz Night at Discovery Green",
		Venue:    "Discovery Green",
		Category: "music",
		Date:     day(2024, 5, 1),
	}
	c := types.Candidate{
		Title:    a.Title,
		Venue:    a.Venue,
		Category: a.Category,
		Date:     a.Date,
	}
	assert.Equal(t, 1.0, Score(c, a))
}

func TestScoreHoustonFoodFestival(t *testing.T) {
	a := types.PublishedArtifact{
		Title:    "Houston Food Fest 2024",
		Category: "food",
		Date:     day(2024, 3, 10),
	}
	c := types.Candidate{
		Title:    "Houston Food Festival",
		Category: "food",
		Date:     day(2024, 3, 11),
	}
	b := Explain(c, a)
	assert.Equal(t, 1.0, b.Title)
	assert.InDelta(t, 6.0/7.0, b.Date, 1e-9)
	assert.Equal(t, 1.0, b.Category)
	assert.Greater(t, b.Total, 0.75)
}

func TestScoreBoundedWithMissingFields(t *testing.T) {
	full := types.PublishedArtifact{
		Title:    "Art Walk",
		Venue:    "Heights",
		Category: "arts",
		Tags:     []string{"weekend"},
		Keywords: []string{"heights", "festival"},
		Date:     day(2024, 1, 1),
	}
	cases := []struct {
		name string
		c    types.Candidate
		a    types.PublishedArtifact
	}{
		{"all empty", types.Candidate{}, types.PublishedArtifact{}},
		{"candidate empty", types.Candidate{}, full},
		{"artifact empty", types.Candidate{Title: "Art Walk", Venue: "Heights", Category: "arts", Date: day(2024, 1, 1)}, types.PublishedArtifact{}},
		{"title only", types.Candidate{Title: "Art Walk"}, types.PublishedArtifact{Title: "Art Walk"}},
		{"dates far apart", types.Candidate{Title: "x", Date: day(2020, 1, 1)}, full},
		{"unicode", types.Candidate{Title: "Café Olé Fiesta"}, types.PublishedArtifact{Title: "café"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			s := Score(tt.c, tt.a)
			require.False(t, math.IsNaN(s))
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		})
	}
	assert.Equal(t, 0.0, Score(types.Candidate{}, types.PublishedArtifact{}))
}

func TestDateSimilarity(t *testing.T) {
	base := day(2024, 6, 1)
	assert.Equal(t, 1.0, DateSimilarity(base, base.Add(5*time.Hour)))
	assert.InDelta(t, 4.0/7.0, DateSimilarity(base, day(2024, 6, 4)), 1e-9)
	assert.InDelta(t, 4.0/7.0, DateSimilarity(day(2024, 6, 4), base), 1e-9)
	assert.Equal(t, 0.0, DateSimilarity(base, day(2024, 6, 8)))
	assert.Equal(t, 0.0, DateSimilarity(base, day(2024, 7, 1)))
	assert.Equal(t, 0.0, DateSimilarity(time.Time{}, base))
}

func TestVenueSimilarityUsesKeywords(t *testing.T) {
	a := types.PublishedArtifact{Keywords: []string{"midtown", "jazz"}}
	assert.Equal(t, 1.0, VenueSimilarity("Midtown", a))
	assert.Equal(t, 0.0, VenueSimilarity("", a))
	assert.Equal(t, 0.0, VenueSimilarity("Midtown", types.PublishedArtifact{}))
}

func TestCategorySimilarity(t *testing.T) {
	a := types.PublishedArtifact{Category: "Music", Tags: []string{"Outdoor"}}
	assert.Equal(t, 1.0, CategorySimilarity("music", a))
	assert.Equal(t, 1.0, CategorySimilarity("outdoor", a))
	assert.Equal(t, 0.0, CategorySimilarity("food", a))
	assert.Equal(t, 0.0, CategorySimilarity("", a))
}
