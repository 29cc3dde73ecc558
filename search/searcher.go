package search

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/telemetry"
)

// DefaultLimit is the result count used when the caller passes none.
const DefaultLimit = 10

const (
	packageBaseConfidence = 110
	maxConfidence         = 100
	minConfidence         = 10
	forkPenalty           = 60

	packageLowScore        = 30
	packageLowScorePenalty = 10
	lowScore               = 70
	lowScorePenalty        = 15
)

// tier is one match strategy.
type tier struct {
	tag  core.MatchTier
	kind storage.MatchKind
	base int
	repo bool // matches against the repository name variant
}

var (
	packageTier   = tier{core.MatchExactPackageName, storage.MatchPackageName, packageBaseConfidence, false}
	exactNameTier = tier{core.MatchExactName, storage.MatchName, 100, false}
	exactRepoTier = tier{core.MatchExactRepoName, storage.MatchRepoName, 100, true}

	partialTiers = []tier{
		{core.MatchNameStartsWith, storage.MatchNamePrefix, 75, false},
		{core.MatchRepoNameStartsWith, storage.MatchRepoNamePrefix, 70, true},
		{core.MatchNameContains, storage.MatchNameSubstring, 50, false},
	}
)

// Searcher resolves queries against the project store.
type Searcher struct {
	projects storage.ProjectRepository
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *Searcher) error {
		s.metrics = metrics
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(projects storage.ProjectRepository, opts ...Option) (*Searcher, error) {
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}

	s := &Searcher{
		projects: projects,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to limit projects matching query, best first.
// A limit below one means DefaultLimit.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, limit, nil)
}

// SearchWithMonitor searches like Search and reports each tier to monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	query = NormalizeQuery(query)
	if query == "" {
		return []*core.SearchResult{}, nil
	}
	repoName := RepoName(query)

	start := time.Now()
	monitor.Start(query, repoName)

	run := &tierRun{
		searcher: s,
		monitor:  monitor,
		query:    query,
		repoName: repoName,
		found:    make(map[core.ID]struct{}),
		results:  []*core.SearchResult{},
	}

	// 1. Package names are the most authoritative match
	if err := run.tier(ctx, packageTier, 0); err != nil {
		return nil, err
	}

	// 2. Exact name, then exact repository name, only when nothing matched so far
	if len(run.results) == 0 {
		if err := run.tier(ctx, exactNameTier, 0); err != nil {
			return nil, err
		}
		if len(run.results) == 0 {
			if err := run.tier(ctx, exactRepoTier, 0); err != nil {
				return nil, err
			}
		} else {
			monitor.TierSkipped(exactRepoTier.tag)
		}
	} else {
		monitor.TierSkipped(exactNameTier.tag)
		monitor.TierSkipped(exactRepoTier.tag)
	}

	// 3. Partial matches fill the remaining slots
	for _, t := range partialTiers {
		if len(run.results) >= limit {
			monitor.TierSkipped(t.tag)
			continue
		}
		if err := run.tier(ctx, t, limit-len(run.results)); err != nil {
			return nil, err
		}
	}

	results := rank(run.results, limit)
	monitor.Finish(results)
	s.metrics.RecordSearch(len(results), time.Since(start))
	s.logger.Debug("search finished", "query", query, "results", len(results))
	return results, nil
}

// tierRun accumulates results across the tiers of one search.
type tierRun struct {
	searcher *Searcher
	monitor  SearchMonitor
	query    string
	repoName string
	found    map[core.ID]struct{}
	results  []*core.SearchResult
}

func (r *tierRun) tier(ctx context.Context, t tier, limit int) error {
	value := r.query
	if t.repo {
		value = r.repoName
	}
	if value == "" {
		r.monitor.TierSkipped(t.tag)
		return nil
	}

	projects, err := r.searcher.projects.FindProjects(ctx, storage.ProjectQuery{
		Kind:    t.kind,
		Value:   value,
		Exclude: r.found,
		Limit:   limit,
	})
	if err != nil {
		r.searcher.logger.Error("error querying projects", "tier", t.tag, "err", err)
		return err
	}

	hits := make([]*core.SearchResult, 0, len(projects))
	for _, project := range projects {
		r.found[project.Id] = struct{}{}
		hits = append(hits, buildResult(project, t, value))
	}
	r.results = append(r.results, hits...)

	r.monitor.AfterTier(t.tag, hits)
	r.searcher.metrics.RecordTierHits(string(t.tag), len(hits))
	return nil
}

func buildResult(project *core.Project, t tier, value string) *core.SearchResult {
	result := &core.SearchResult{
		Project: project,
		Tier:    t.tag,
	}

	switch t.kind {
	case storage.MatchPackageName:
		result.Confidence = packageConfidence(project)
		result.MatchValue = matchingPackage(project, value)
	case storage.MatchRepoName, storage.MatchRepoNamePrefix:
		result.Confidence = confidence(project, t.base)
		result.MatchValue = project.RepoName()
	default:
		result.Confidence = confidence(project, t.base)
		result.MatchValue = project.Name
	}

	if project.Fork {
		result.Tier = t.tag.ForkTier()
	}
	return result
}

// packageConfidence starts above the cap so that package matches survive a
// small penalty at full confidence. It has no floor.
func packageConfidence(project *core.Project) int {
	c := packageBaseConfidence
	if project.Fork {
		c -= forkPenalty
	}
	if project.ScienceScore < packageLowScore {
		c -= packageLowScorePenalty
	}
	return min(c, maxConfidence)
}

func confidence(project *core.Project, base int) int {
	c := base
	if project.Fork {
		c -= forkPenalty
	}
	if project.ScienceScore < lowScore {
		c -= lowScorePenalty
	}
	return max(c, minConfidence)
}

// matchingPackage returns the package name as published, falling back to value.
func matchingPackage(project *core.Project, value string) string {
	for _, pkg := range project.Packages {
		if strings.EqualFold(pkg.Name, value) {
			return pkg.Name
		}
	}
	return value
}

// quality breaks confidence ties: science score plus the non-negative,
// finite part of the secondary score.
func quality(project *core.Project) float64 {
	secondary := project.Score
	if math.IsNaN(secondary) || math.IsInf(secondary, 0) || secondary < 0 {
		secondary = 0
	}
	return project.ScienceScore + secondary
}

// rank orders results by confidence, then quality, and truncates to limit.
func rank(results []*core.SearchResult, limit int) []*core.SearchResult {
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Confidence != b.Confidence {
			return b.Confidence - a.Confidence
		}
		qa, qb := quality(a.Project), quality(b.Project)
		switch {
		case qa > qb:
			return -1
		case qa < qb:
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// NormalizeQuery trims and lowercases a query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// RepoName returns the repository name variant of a normalized query: the
// last path segment with a trailing ".git" removed. Queries without a slash
// are returned unchanged.
func RepoName(query string) string {
	if !strings.Contains(query, "/") {
		return query
	}
	return strings.TrimSuffix(core.LastPathSegment(query), ".git")
}
