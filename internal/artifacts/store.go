// Package artifacts reads the directory of published documents.
//
// Each document is a markdown file with YAML frontmatter. The store parses
// the frontmatter fields the duplicate gate needs (title, date, category,
// tags, venue), derives keywords from the plain-text body and hashes the
// body for exact-content matching. The store is read-only; documents are
// only ever added by a publish.
package artifacts

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/postbot/internal/types"
)

// Config holds artifact store configuration
type Config struct {
	Dir     string       // Directory holding published documents (default: _posts)
	Pattern string       // doublestar pattern relative to Dir (default: *.md)
	Workers int          // Parallel parse limit (default: 8)
	Logger  *slog.Logger // Defaults to slog.Default()
}

// DefaultConfig returns the default store configuration
func DefaultConfig() Config {
	return Config{
		Dir:     "_posts",
		Pattern: "*.md",
		Workers: 8,
	}
}

// Store lists and parses published artifacts.
type Store struct {
	dir     string
	pattern string
	workers int
	logger  *slog.Logger
}

// NewStore creates a store over cfg.Dir.
func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*.md"
	}
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return nil, fmt.Errorf("invalid artifact pattern %q", cfg.Pattern)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		dir:     cfg.Dir,
		pattern: cfg.Pattern,
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}, nil
}

// Dir returns the directory the store reads.
func (s *Store) Dir() string { return s.dir }

// List parses every artifact matching the pattern, ordered by path.
//
// A missing directory is an empty store. Files that cannot be read or
// parsed are logged and skipped. An error is returned only when the
// directory itself cannot be listed or ctx is done.
func (s *Store) List(ctx context.Context) ([]types.PublishedArtifact, error) {
	info, err := os.Stat(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("artifact directory does not exist", "dir", s.dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact directory %s: %w", s.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact path %s is not a directory", s.dir)
	}

	matches, err := doublestar.Glob(os.DirFS(s.dir), s.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts in %s: %w", s.dir, err)
	}
	sort.Strings(matches)

	parsed := make([]*types.PublishedArtifact, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rel := range matches {
		path := filepath.Join(s.dir, filepath.FromSlash(rel))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				s.logger.Warn("failed to read artifact", "path", path, "error", err)
				return nil
			}
			a, err := ParseArtifact(path, data)
			if err != nil {
				s.logger.Warn("failed to parse artifact", "path", path, "error", err)
				return nil
			}
			parsed[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]types.PublishedArtifact, 0, len(parsed))
	for _, a := range parsed {
		if a != nil {
			out = append(out, *a)
		}
	}
	s.logger.Debug("scanned artifacts", "dir", s.dir, "count", len(out), "files", len(matches))
	return out, nil
}

// Recent returns up to limit artifacts, newest first. Undated artifacts
// sort last. A limit <= 0 returns all of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.PublishedArtifact, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		di, dj := all[i].Date, all[j].Date
		if di.IsZero() != dj.IsZero() {
			return !di.IsZero()
		}
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return all[i].Path > all[j].Path
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ParseArtifact builds an artifact from the raw file contents at path.
// The date comes from frontmatter, falling back to the filename prefix.
func ParseArtifact(path string, data []byte) (*types.PublishedArtifact, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	title := doc.String("title")
	if title == "" {
		title = FirstHeading(doc.Body)
	}

	date := doc.Date()
	if date.IsZero() {
		date = DateFromFilename(filepath.Base(path))
	}

	plain := PlainText(doc.Body)
	return &types.PublishedArtifact{
		Path:        path,
		Title:       title,
		Body:        doc.Body,
		Category:    doc.Category(),
		Tags:        doc.StringList("tags"),
		Venue:       doc.String("venue"),
		Date:        date,
		Keywords:    ExtractKeywords(title, plain),
		ContentHash: ContentHash(doc.Body),
	}, nil
}

// ContentHash returns the hex BLAKE3 digest of body with surrounding
// whitespace removed, or "" for an empty body.
func ContentHash(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// DocumentHash hashes the body of a full document, frontmatter excluded.
// A document with broken frontmatter is hashed whole.
func DocumentHash(content string) string {
	doc, err := ParseDocument([]byte(content))
	if err != nil {
		return ContentHash(content)
	}
	return ContentHash(doc.Body)
}
