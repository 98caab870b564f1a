package deduplication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/postbot/internal/artifacts"
	"github.com/steveyegge/postbot/internal/clock"
	"github.com/steveyegge/postbot/internal/similarity"
	"github.com/steveyegge/postbot/internal/types"
)

// Source lists published artifacts.
type Source interface {
	List(ctx context.Context) ([]types.PublishedArtifact, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) ([]types.PublishedArtifact, error)

// List calls f(ctx).
func (f SourceFunc) List(ctx context.Context) ([]types.PublishedArtifact, error) { return f(ctx) }

// MultiSource concatenates the artifacts of several sources. A failing
// source does not hide the others: List returns everything that could be
// read together with the joined errors.
func MultiSource(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) ([]types.PublishedArtifact, error) {
		var all []types.PublishedArtifact
		var errs []error
		for _, s := range sources {
			if s == nil {
				continue
			}
			list, err := s.List(ctx)
			if err != nil {
				errs = append(errs, err)
			}
			all = append(all, list...)
		}
		return all, errors.Join(errs...)
	})
}

// Match is one scored artifact.
type Match struct {
	Artifact  types.PublishedArtifact `json:"artifact"`
	Breakdown similarity.Breakdown    `json:"breakdown"`
	// ExactContent is true when the bodies hash identically
	ExactContent bool `json:"exact_content,omitempty"`
}

// Score returns the match score.
func (m Match) Score() float64 { return m.Breakdown.Total }

// Gate is the duplicate gate.
type Gate struct {
	source Source
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets the clock used for window cutoffs.
func WithClock(c clock.Clock) Option { return func(g *Gate) { g.clock = c } }

// WithLogger sets the gate logger.
func WithLogger(l *slog.Logger) Option { return func(g *Gate) { g.logger = l } }

// NewGate creates a duplicate gate over source.
func NewGate(source Source, cfg Config, opts ...Option) (*Gate, error) {
	if source == nil {
		return nil, fmt.Errorf("artifact source cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	g := &Gate{
		source: source,
		cfg:    cfg,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the gate configuration.
func (g *Gate) Config() Config { return g.cfg }

// Check compares candidate against every artifact inside the window and
// reports the best match.
func (g *Gate) Check(ctx context.Context, candidate *types.Candidate) (*types.SimilarityResult, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, compared := g.rank(ctx, candidate)
	result := &types.SimilarityResult{ComparedCount: compared}
	if len(matches) > 0 {
		best := matches[0]
		result.Score = best.Score()
		if result.Score > g.cfg.Threshold {
			match := best.Artifact
			result.IsDuplicate = true
			result.Match = &match
		}
	}

	if result.IsDuplicate {
		g.logger.Info("duplicate detected",
			"title", candidate.Title,
			"match", result.Match.Path,
			"score", fmt.Sprintf("%.3f", result.Score),
			"compared", compared)
	} else {
		g.logger.Debug("no duplicate found",
			"title", candidate.Title,
			"best_score", fmt.Sprintf("%.3f", result.Score),
			"compared", compared)
	}
	return result, nil
}

// TopMatches returns up to limit in-window artifacts ordered by score,
// best first. A limit <= 0 returns all of them.
func (g *Gate) TopMatches(ctx context.Context, candidate *types.Candidate, limit int) ([]Match, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, _ := g.rank(ctx, candidate)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// rank scores every in-window artifact. Ties keep source order so the first
// artifact with the maximal score is reported.
func (g *Gate) rank(ctx context.Context, candidate *types.Candidate) ([]Match, int) {
	recent := g.recent(ctx, g.cfg.Window)

	var hash string
	if g.cfg.ExactContentMatch {
		hash = artifacts.DocumentHash(candidate.Body)
	}

	matches := make([]Match, 0, len(recent))
	for _, a := range recent {
		m := Match{Artifact: a, Breakdown: similarity.Explain(*candidate, a)}
		if hash != "" && a.ContentHash == hash {
			m.ExactContent = true
			m.Breakdown.Total = 1.0
		}
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})
	return matches, len(recent)
}

// recent lists the artifacts published strictly after now-window. Source errors
// are logged and whatever was returned is used.
func (g *Gate) recent(ctx context.Context, window time.Duration) []types.PublishedArtifact {
	all, err := g.source.List(ctx)
	if err != nil {
		g.logger.Warn("artifact source failed, continuing with partial results",
			"error", err, "artifacts", len(all))
	}

	cutoff := g.clock.Now().Add(-window)
	recent := make([]types.PublishedArtifact, 0, len(all))
	for _, a := range all {
		published := a.PublishTime()
		if published.IsZero() || !published.After(cutoff) {
			continue
		}
		recent = append(recent, a)
	}
	return recent
}

// Freshness scores how little a venue and category have been covered by
// posts in the freshness window. 1.0 means not covered at all.
func (g *Gate) Freshness(ctx context.Context, venue, category string) float64 {
	recent := g.recent(ctx, g.cfg.FreshnessWindow)
	if len(recent) == 0 {
		return 1.0
	}

	venue = strings.ToLower(strings.TrimSpace(venue))
	category = strings.ToLower(strings.TrimSpace(category))

	venueHits, categoryHits := 0, 0
	for _, a := range recent {
		if venue != "" && g.mentionsVenue(venue, a) {
			venueHits++
		}
		if category != "" && mentionsCategory(category, a) {
			categoryHits++
		}
	}

	venueFreshness := max(0.0, 1.0-float64(venueHits)*g.cfg.VenuePenalty)
	categoryFreshness := max(0.0, 1.0-float64(categoryHits)*g.cfg.CategoryPenalty)
	return (venueFreshness + categoryFreshness) / 2.0
}

func (g *Gate) mentionsVenue(venue string, a types.PublishedArtifact) bool {
	for _, kw := range a.Keywords {
		if similarity.PartialRatio(venue, strings.ToLower(kw)) > g.cfg.VenueMatchThreshold {
			return true
		}
	}
	return false
}

func mentionsCategory(category string, a types.PublishedArtifact) bool {
	return strings.Contains(strings.ToLower(a.Category), category) || a.HasTag(category)
}
