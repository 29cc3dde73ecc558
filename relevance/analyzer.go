// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package relevance scores how scientific a project is against the
// vocabulary of the reference corpus.
package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/corpus"
	"github.com/poiesic/scicat/idf"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/telemetry"
)

const (
	// DefaultTopN is the default number of comparison signals.
	DefaultTopN = 100

	// ComparisonLimit caps the projects of the comparison corpus.
	ComparisonLimit = 500

	minSignalLength = 4
)

// TableSource provides the reference idf table.
type TableSource interface {
	Get(ctx context.Context, opts idf.GetOptions) (idf.Table, error)
	BuiltAt() time.Time
}

// Signal is a term more common in the reference corpus than elsewhere.
type Signal struct {
	Term          string
	ReferenceIDF  float64
	ComparisonIDF float64
	Difference    float64
}

// Analyzer scores projects against the reference corpus.
type Analyzer struct {
	tables     TableSource
	projects   storage.ProjectRepository
	percentile float64
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	mu         sync.Mutex
	indicators Indicators
	selectedAt time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithPercentile sets the indicator percentile.
// Default is DefaultPercentile.
func WithPercentile(percentile float64) Option {
	return func(a *Analyzer) error {
		if percentile <= 0 || percentile > 1 || math.IsNaN(percentile) {
			return fmt.Errorf("%w: %v", ErrInvalidPercentile, percentile)
		}
		a.percentile = percentile
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(a *Analyzer) error {
		a.metrics = metrics
		return nil
	}
}

// NewAnalyzer creates an analyzer over a table source and the project store.
func NewAnalyzer(tables TableSource, projects storage.ProjectRepository, opts ...Option) (*Analyzer, error) {
	if tables == nil {
		return nil, ErrTableSourceRequired
	}
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}

	a := &Analyzer{
		tables:     tables,
		projects:   projects,
		percentile: DefaultPercentile,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Indicators returns the indicator set of the current table.
// The selection is reused until the table is rebuilt.
func (a *Analyzer) Indicators(ctx context.Context) (Indicators, error) {
	table, err := a.tables.Get(ctx, idf.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load idf table: %w", err)
	}
	builtAt := a.tables.BuiltAt()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.indicators != nil && !builtAt.IsZero() && builtAt.Equal(a.selectedAt) {
		return a.indicators, nil
	}

	a.indicators = SelectIndicators(table, a.percentile)
	a.selectedAt = builtAt
	a.logger.Debug("selected indicators", "terms", len(table), "indicators", len(a.indicators))
	return a.indicators, nil
}

// ScoreProject returns the relevance score of a project, 0 to 100.
// A nil project, an empty table or an empty indicator set scores 0.
func (a *Analyzer) ScoreProject(ctx context.Context, project *core.Project) (float64, error) {
	if project == nil {
		return 0, nil
	}
	indicators, err := a.Indicators(ctx)
	if err != nil {
		return 0, err
	}
	score := Score(corpus.Tokenize(project), indicators)
	a.metrics.RecordRelevanceScore(score)
	return score, nil
}

// CompareDistributions finds the topN terms that are common in the
// reference corpus but rare among other projects with a readme.
//
// Terms missing from the comparison corpus are assigned ln(n+1), n being
// the comparison corpus size. Only terms longer than three characters whose
// reference idf is below their comparison idf are kept, ordered by the
// difference, largest first.
func (a *Analyzer) CompareDistributions(ctx context.Context, topN int) ([]Signal, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	reference, err := a.tables.Get(ctx, idf.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load idf table: %w", err)
	}

	others, err := a.projects.ListComparison(ctx, ComparisonLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparison projects: %w", err)
	}
	docs := make([]corpus.Document, len(others))
	for i, project := range others {
		docs[i] = corpus.Tokenize(project)
	}
	comparison := idf.Compute(docs)
	fallback := math.Log(float64(len(docs) + 1))

	signals := make([]Signal, 0)
	for term, refValue := range reference {
		if utf8.RuneCountInString(term) < minSignalLength {
			continue
		}
		cmpValue, ok := comparison[term]
		if !ok {
			cmpValue = fallback
		}
		if refValue < cmpValue {
			signals = append(signals, Signal{
				Term:          term,
				ReferenceIDF:  refValue,
				ComparisonIDF: cmpValue,
				Difference:    cmpValue - refValue,
			})
		}
	}

	slices.SortFunc(signals, func(x, y Signal) int {
		switch {
		case x.Difference > y.Difference:
			return -1
		case x.Difference < y.Difference:
			return 1
		}
		return strings.Compare(x.Term, y.Term)
	})
	if len(signals) > topN {
		signals = signals[:topN]
	}

	a.logger.Debug("compared term distributions",
		"referenceTerms", len(reference), "comparisonProjects", len(docs), "signals", len(signals))
	return signals, nil
}
