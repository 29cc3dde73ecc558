package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
)

// DefaultBatchSize is the number of reference projects loaded per batch.
const DefaultBatchSize = 100

// Builder assembles reference corpus documents.
// Tokenization runs on a worker pool; document order follows the store.
type Builder struct {
	projects  storage.ProjectRepository
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithBatchSize sets how many projects are loaded per batch.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		b.batchSize = size
		return nil
	}
}

// WithPoolSize sets the tokenizer worker pool size.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a corpus builder over the reference projects of the store.
func NewBuilder(projects storage.ProjectRepository, opts ...Option) (*Builder, error) {
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}

	poolSize := max(runtime.NumCPU(), 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		projects:  projects,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	return b, nil
}

// Build returns one document per reference corpus project.
// A sampleSize of zero walks the whole corpus in batches; a positive
// sampleSize tokenizes a uniform random subset of that many projects.
// An empty corpus yields an empty slice.
func (b *Builder) Build(ctx context.Context, sampleSize int) ([]Document, error) {
	if sampleSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, sampleSize)
	}

	if sampleSize > 0 {
		projects, err := b.projects.SampleReference(ctx, sampleSize)
		if err != nil {
			return nil, fmt.Errorf("failed to sample reference corpus: %w", err)
		}
		b.logger.Info("building sampled corpus", "requested", sampleSize, "projects", len(projects))
		return b.tokenizeAll(ctx, projects)
	}

	total, err := b.projects.CountReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reference corpus: %w", err)
	}
	if total == 0 {
		return []Document{}, nil
	}
	b.logger.Info("building full corpus", "projects", total, "batchSize", b.batchSize)

	docs := make([]Document, 0, total)
	err = b.projects.ForEachReferenceBatch(ctx, b.batchSize, func(batch []*core.Project) error {
		batchDocs, err := b.tokenizeAll(ctx, batch)
		if err != nil {
			return err
		}
		docs = append(docs, batchDocs...)
		b.logger.Debug("tokenized corpus batch", "processed", len(docs), "total", total)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build corpus: %w", err)
	}
	return docs, nil
}

// tokenizeAll tokenizes projects on the pool, keeping input order.
func (b *Builder) tokenizeAll(ctx context.Context, projects []*core.Project) ([]Document, error) {
	docs := make([]Document, len(projects))
	var wg sync.WaitGroup
	for i, project := range projects {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			docs[i] = Tokenize(project)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit tokenize task: %w", err)
		}
	}
	wg.Wait()
	return docs, nil
}

// Release releases the worker pool.
// The builder should not be used after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}
