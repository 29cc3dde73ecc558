package rescore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/telemetry"
)

// Config holds configuration for the rescoring run.
type Config struct {
	// BatchSize is the number of projects to process in each batch
	BatchSize int

	// Workers is the number of projects processed concurrently
	Workers int

	// ReportInterval is how often to report progress (number of projects)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each project
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		Workers:        4,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.BatchSize < 1 || c.Workers < 1 {
		return ErrInvalidConfig
	}
	return nil
}

// Summary reports the outcome of a run.
type Summary struct {
	Total     int
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// Rescorer recomputes relevance scores and classifications for all projects.
type Rescorer struct {
	projects   storage.ProjectRepository
	scorer     Scorer
	classifier Classifier
	config     *Config
	progress   io.Writer
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// Option configures a Rescorer.
type Option func(*Rescorer) error

// WithScorer sets the relevance scorer.
func WithScorer(scorer Scorer) Option {
	return func(r *Rescorer) error {
		r.scorer = scorer
		return nil
	}
}

// WithClassifier sets the field classifier.
func WithClassifier(classifier Classifier) Option {
	return func(r *Rescorer) error {
		r.classifier = classifier
		return nil
	}
}

// WithConfig replaces the configuration passed to NewRescorer.
func WithConfig(config *Config) Option {
	return func(r *Rescorer) error {
		if config == nil {
			return ErrInvalidConfig
		}
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rescorer) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(r *Rescorer) error {
		r.metrics = metrics
		return nil
	}
}

// NewRescorer creates a new rescorer.
// progress: where to write progress output (typically os.Stderr); nil discards it.
func NewRescorer(projects storage.ProjectRepository, config *Config, progress io.Writer, opts ...Option) (*Rescorer, error) {
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Rescorer{
		projects: projects,
		config:   config,
		progress: progress,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.scorer == nil && r.classifier == nil {
		return nil, ErrNothingToDo
	}
	return r, nil
}

// Run rescores every project in the catalog.
// Progress is reported to the configured writer.
func (r *Rescorer) Run(ctx context.Context) (Summary, error) {
	total, err := r.projects.CountProjects(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count projects: %w", err)
	}

	summary := Summary{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No projects found in catalog (0 projects)\n")
		return summary, nil
	}

	workers := max(r.config.Workers, 1)
	pool, err := ants.NewPool(workers)
	if err != nil {
		return summary, err
	}
	defer pool.Release()

	processor := &batchProcessor{
		projects:   r.projects,
		scorer:     r.scorer,
		classifier: r.classifier,
		pool:       pool,
		retry: RetryPolicy{
			MaxAttempts: max(r.config.MaxRetries, 1),
			BaseDelay:   r.config.RetryDelay,
		},
		logger:  r.logger,
		metrics: r.metrics,
	}

	fmt.Fprintf(r.progress, "Starting rescoring of %d projects (batch size: %d, workers: %d)\n",
		total, r.config.BatchSize, workers)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.projects.ForEachProject(ctx, r.config.BatchSize, func(projects []*core.Project) error {
		result, err := processor.process(ctx, projects)
		summary.Processed += result.processed
		summary.Failed += result.failed
		tracker.Add(result.processed, result.failed)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		return nil
	})
	summary.Elapsed = tracker.Elapsed()
	if err != nil {
		return summary, err
	}

	tracker.Finish()

	fmt.Fprintf(r.progress, "Rescoring complete. Processed %d projects (%d failed) in %v\n",
		summary.Processed, summary.Failed, summary.Elapsed.Round(time.Millisecond))
	r.logger.Info("rescoring complete", "processed", summary.Processed, "failed", summary.Failed)

	return summary, nil
}
