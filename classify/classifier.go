// Package classify assigns scientific fields to projects.
//
// Each field is scored from four signals: keyword overlap, readme terms,
// package names and field jargon. Signals without input are left out of
// the weighted average. Up to MaxFields fields are kept per project.
package classify

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/telemetry"
)

// Selection thresholds.
const (
	MaxFields          = 3
	PrimaryThreshold   = 0.3
	SecondaryThreshold = 0.4
	RelativeThreshold  = 0.5 // secondary score relative to the primary
)

// Classifier scores projects against the known fields.
// It is safe for concurrent use.
type Classifier struct {
	fields          storage.FieldRepository
	classifications storage.ClassificationRepository
	logger          *slog.Logger
	metrics         *telemetry.Metrics

	mu    sync.RWMutex
	model *model
}

// Option configures a Classifier.
type Option func(*Classifier) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(c *Classifier) error {
		c.metrics = metrics
		return nil
	}
}

// NewClassifier creates a classifier and loads the field definitions.
func NewClassifier(
	ctx context.Context,
	fields storage.FieldRepository,
	classifications storage.ClassificationRepository,
	opts ...Option,
) (*Classifier, error) {
	if fields == nil {
		return nil, ErrFieldRepositoryRequired
	}
	if classifications == nil {
		return nil, ErrClassificationRepositoryRequired
	}

	c := &Classifier{
		fields:          fields,
		classifications: classifications,
		logger:          slog.Default(),
		model:           compile(nil),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the field definitions with the current store contents.
func (c *Classifier) Reload(ctx context.Context) error {
	fields, err := c.fields.GetAllFields(ctx)
	if err != nil {
		return fmt.Errorf("failed to load fields: %w", err)
	}

	m := compile(fields)
	c.mu.Lock()
	c.model = m
	c.mu.Unlock()

	c.logger.Debug("loaded fields", "fields", len(m.fields), "indicatorPhrases", len(m.phrases))
	return nil
}

// Fields returns the loaded fields ordered by name.
func (c *Classifier) Fields() []*core.Field {
	m := c.current()
	out := make([]*core.Field, len(m.fields))
	for i, fm := range m.fields {
		out[i] = fm.field
	}
	return out
}

// Score returns the score of every field for the project, highest first.
// Equal scores keep field name order.
func (c *Classifier) Score(project *core.Project) []core.FieldScore {
	if project == nil {
		return []core.FieldScore{}
	}
	m := c.current()
	features := extractFeatures(project, m)

	scores := make([]core.FieldScore, len(m.fields))
	for i, fm := range m.fields {
		scores[i] = scoreField(features, fm)
	}
	slices.SortStableFunc(scores, func(a, b core.FieldScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scores
}

// Classify returns the fields assigned to the project, primary first.
// Nothing is persisted.
func (c *Classifier) Classify(project *core.Project) []core.FieldScore {
	start := time.Now()
	selected := selectFields(c.Score(project))
	c.metrics.RecordClassification(len(selected), time.Since(start))
	return selected
}

// ClassifyAndSave classifies the project and replaces its stored
// classifications with the result. Storage errors are returned as is;
// callers own retries.
func (c *Classifier) ClassifyAndSave(ctx context.Context, project *core.Project) ([]core.FieldScore, error) {
	if project == nil || project.Id == 0 {
		return nil, ErrProjectRequired
	}

	selected := c.Classify(project)
	records := make([]*core.Classification, len(selected))
	for i, fs := range selected {
		records[i] = &core.Classification{
			ProjectId:  project.Id,
			FieldId:    fs.Field.Id,
			Confidence: fs.Score,
			Signals:    fs.Signals,
		}
	}

	if err := c.classifications.ReplaceClassifications(ctx, project.Id, records...); err != nil {
		c.metrics.RecordClassificationFailure()
		return nil, fmt.Errorf("failed to save classifications: %w", err)
	}

	c.logger.Debug("classified project", "project", project.Name, "fields", len(selected))
	return selected, nil
}

func (c *Classifier) current() *model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// selectFields picks the primary and secondary fields from scores sorted
// highest first. The walk stops at the first field that misses a
// threshold, so it relies on that order.
func selectFields(ranked []core.FieldScore) []core.FieldScore {
	if len(ranked) == 0 || ranked[0].Score < PrimaryThreshold {
		return []core.FieldScore{}
	}

	primary := ranked[0]
	selected := []core.FieldScore{primary}
	for _, candidate := range ranked[1:] {
		if len(selected) >= MaxFields {
			break
		}
		if candidate.Score < SecondaryThreshold {
			break
		}
		if candidate.Score < primary.Score*RelativeThreshold {
			break
		}
		selected = append(selected, candidate)
	}
	return selected
}
