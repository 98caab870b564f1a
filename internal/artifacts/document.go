package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is a markdown file split into its YAML frontmatter and body.
type Document struct {
	Frontmatter map[string]interface{}
	Body        string
}

// ErrUnterminatedFrontmatter is returned when a document opens a
// frontmatter block but never closes it.
var ErrUnterminatedFrontmatter = errors.New("frontmatter started but no closing delimiter found")

// ParseDocument splits data into frontmatter and body. A document without
// a leading "---" line has an empty frontmatter and data as its body.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{Frontmatter: make(map[string]interface{})}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		doc.Body = string(data)
		return doc, nil
	}

	rest := data[bytes.IndexByte(data, '\n')+1:]
	end := closingDelimiter(rest)
	if end < 0 {
		return nil, ErrUnterminatedFrontmatter
	}

	if err := yaml.Unmarshal(rest[:end], &doc.Frontmatter); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if doc.Frontmatter == nil {
		doc.Frontmatter = make(map[string]interface{})
	}

	body := rest[end:]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	doc.Body = strings.TrimLeft(string(body), "\r\n")
	return doc, nil
}

// closingDelimiter returns the offset of the first line consisting of
// "---", or -1.
func closingDelimiter(data []byte) int {
	offset := 0
	for offset <= len(data) {
		line := data[offset:]
		next := bytes.IndexByte(line, '\n')
		if next >= 0 {
			line = line[:next]
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			return offset
		}
		if next < 0 {
			return -1
		}
		offset += next + 1
	}
	return -1
}

// String returns a frontmatter value as a trimmed string, or "".
func (d *Document) String(key string) string {
	switch v := d.Frontmatter[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// StringList returns a frontmatter value as a list. YAML sequences are used
// as is; a scalar string is split on commas, or on whitespace when it has
// no commas, the way Jekyll reads tags.
func (d *Document) StringList(key string) []string {
	var out []string
	switch v := d.Frontmatter[key].(type) {
	case []interface{}:
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		sep := strings.Fields
		if strings.Contains(v, ",") {
			sep = func(s string) []string { return strings.Split(s, ",") }
		}
		for _, s := range sep(v) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Category returns the "category" field, falling back to the first entry
// of "categories".
func (d *Document) Category() string {
	if c := d.String("category"); c != "" {
		return c
	}
	if cs := d.StringList("categories"); len(cs) > 0 {
		return cs[0]
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Date returns the "date" field. YAML timestamps decode to time.Time
// directly; strings are tried against the layouts Jekyll accepts.
// The zero time means the field is missing or unparseable.
func (d *Document) Date() time.Time {
	switch v := d.Frontmatter["date"].(type) {
	case time.Time:
		return v
	case string:
		return ParseDate(v)
	}
	return time.Time{}
}

// ParseDate parses s with the first matching layout, or returns the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var filenameDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-`)

// DateFromFilename extracts the date of a Jekyll-style "YYYY-MM-DD-slug.md"
// name, or returns the zero time.
func DateFromFilename(name string) time.Time {
	m := filenameDate.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}
