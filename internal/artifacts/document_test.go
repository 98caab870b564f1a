package artifacts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	data := []byte("---\ntitle: Jazz Night\ndate: 2024-05-01\ntags: [music, outdoor]\ncategory: music\n---\n\n# Jazz Night\n\nBody text.\n")
	doc, err := ParseDocument(data)
	require.NoError(t, err)

	assert.Equal(t, "Jazz Night", doc.String("title"))
	assert.Equal(t, "music", doc.Category())
	assert.Equal(t, []string{"music", "outdoor"}, doc.StringList("tags"))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), doc.Date())
	assert.Equal(t, "# Jazz Night\n\nBody text.\n", doc.Body)
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	doc, err := ParseDocument([]byte("# Only a heading\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Frontmatter)
	assert.Equal(t, "# Only a heading\n", doc.Body)
}

func TestParseDocumentBodyMayContainRules(t *testing.T) {
	doc, err := ParseDocument([]byte("---\ntitle: A\n---\nabove\n\n---\n\nbelow\n"))
	require.NoError(t, err)
	assert.Equal(t, "A", doc.String("title"))
	assert.Equal(t, "above\n\n---\n\nbelow\n", doc.Body)
}

func TestParseDocumentErrors(t *testing.T) {
	_, err := ParseDocument([]byte("---\ntitle: never closed\n"))
	assert.ErrorIs(t, err, ErrUnterminatedFrontmatter)

	_, err = ParseDocument([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid frontmatter")
}

func TestDocumentStringList(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"sequence", "tags: [a, b]", []string{"a", "b"}},
		{"comma string", "tags: a, b ,c", []string{"a", "b", "c"}},
		{"space string", "tags: a b", []string{"a", "b"}},
		{"missing", "title: x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte("---\n" + tt.yaml + "\n---\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.StringList("tags"))
		})
	}
}

func TestDocumentCategoryFallsBackToCategories(t *testing.T) {
	doc, err := ParseDocument([]byte("---\ncategories: [events, food]\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, "events", doc.Category())
}

func TestParseDate(t *testing.T) {
	cst := time.FixedZone("", -5*3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01 19:30:00 -0500", time.Date(2024, 5, 1, 19, 30, 0, 0, cst)},
		{"2024-05-01T19:30:00-05:00", time.Date(2024, 5, 1, 19, 30, 0, 0, cst)},
		{"not a date", time.Time{}},
		{"", time.Time{}},
	}
	for _, tt := range tests {
		got := ParseDate(tt.in)
		assert.True(t, tt.want.Equal(got), "ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
	}
}

func TestDateFromFilename(t *testing.T) {
	assert.Equal(t, time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC), DateFromFilename("2023-12-24-holiday-lights.md"))
	assert.True(t, DateFromFilename("holiday-lights.md").IsZero())
	assert.True(t, DateFromFilename("2023-13-45-bad.md").IsZero())
}
