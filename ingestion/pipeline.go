package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/telemetry"
)

// Pipeline orchestrates the import and processing of projects.
// Stored projects are scored and classified on a worker pool.
type Pipeline struct {
	projects   storage.ProjectRepository
	pool       *ants.Pool
	scorer     Scorer
	classifier Classifier
	processors []processor
	pending    sync.WaitGroup
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithScorer enables relevance scoring of imported projects.
func WithScorer(scorer Scorer) Option {
	return func(p *Pipeline) error {
		p.scorer = scorer
		return nil
	}
}

// WithClassifier enables classification of imported projects.
func WithClassifier(classifier Classifier) Option {
	return func(p *Pipeline) error {
		p.classifier = classifier
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = metrics
		return nil
	}
}

// NewPipeline creates a new import pipeline.
// Without WithScorer or WithClassifier the pipeline only stores projects.
func NewPipeline(projects storage.ProjectRepository, opts ...Option) (*Pipeline, error) {
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		projects: projects,
		pool:     pool,
		logger:   slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Scoring runs first so the stored project carries its new score
	if p.scorer != nil {
		proc, err := newRelevanceProcessor(projects, p.scorer, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.processors = append(p.processors, proc)
	}
	if p.classifier != nil {
		proc, err := newClassificationProcessor(projects, p.classifier, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.processors = append(p.processors, proc)
	}

	return p, nil
}

// Ingest validates and stores projects, then processes them asynchronously.
// Nothing is stored when any project is invalid.
// Errors during async processing are logged but do not fail the import.
func (p *Pipeline) Ingest(ctx context.Context, projects []*core.Project) ([]*core.Project, error) {
	for i, project := range projects {
		if err := core.ValidateProject(project); err != nil {
			return nil, fmt.Errorf("project %d: %w", i, err)
		}
	}

	added, err := p.projects.AddProjects(ctx, projects...)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordImport(len(added))

	if len(added) == 0 || len(p.processors) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, project := range added {
		ids[i] = project.Id
	}

	// Submit for async processing
	p.pending.Add(1)
	err = p.pool.Submit(func() {
		defer p.pending.Done()
		for _, proc := range p.processors {
			if err := proc.process(context.Background(), ids...); err != nil {
				p.logger.Error("error processing projects", "processor", proc.name(), "err", err)
			}
		}
	})
	if err != nil {
		p.pending.Done()
		p.logger.Error("error submitting projects for processing", "err", err)
	}

	return added, nil
}

// Wait blocks until every submitted batch has been processed.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for pending work and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}
