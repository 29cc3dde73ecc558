package idf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/scicat/corpus"
	"github.com/poiesic/scicat/telemetry"
)

// CorpusBuilder produces the reference corpus documents.
// A positive sampleSize asks for a random subset of that size.
type CorpusBuilder interface {
	Build(ctx context.Context, sampleSize int) ([]corpus.Document, error)
}

// Config holds cache timing parameters.
type Config struct {
	MemoryTTL  time.Duration // Age after which the in-memory table is rebuilt
	DurableTTL time.Duration // Age after which the durable snapshot is ignored
	MarkerWait time.Duration // Pause before re-reading the store when another worker builds
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MemoryTTL:  24 * time.Hour,
		DurableTTL: 7 * 24 * time.Hour,
		MarkerWait: 2 * time.Second,
	}
}

// Validate checks that every duration is usable.
func (c Config) Validate() error {
	if c.MemoryTTL <= 0 {
		return fmt.Errorf("%w: memory TTL must be positive", ErrInvalidConfig)
	}
	if c.DurableTTL <= 0 {
		return fmt.Errorf("%w: durable TTL must be positive", ErrInvalidConfig)
	}
	if c.MarkerWait < 0 {
		return fmt.Errorf("%w: marker wait must not be negative", ErrInvalidConfig)
	}
	return nil
}

// GetOptions controls a single Get call.
type GetOptions struct {
	ForceRefresh bool // Skip both cache layers and rebuild
	SampleLimit  int  // Build from a random sample of this size; never stored durably
}

// Cache owns the idf table of the reference corpus.
// It is safe for concurrent use; at most one rebuild runs per Cache.
type Cache struct {
	mu       sync.Mutex
	builder  CorpusBuilder
	store    Store
	marker   *Marker
	config   Config
	now      func() time.Time
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	table    Table
	info     Info
	cachedAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache) error

// WithStore sets the durable store. Without one the cache is memory only.
func WithStore(store Store) CacheOption {
	return func(c *Cache) error {
		c.store = store
		return nil
	}
}

// WithMarker sets the cross-process build marker.
func WithMarker(marker *Marker) CacheOption {
	return func(c *Cache) error {
		c.marker = marker
		return nil
	}
}

// WithConfig sets the cache timings.
func WithConfig(config Config) CacheOption {
	return func(c *Cache) error {
		if err := config.Validate(); err != nil {
			return err
		}
		c.config = config
		return nil
	}
}

// WithClock sets the time source.
// Default is time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) error {
		if now == nil {
			now = time.Now
		}
		c.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *telemetry.Metrics) CacheOption {
	return func(c *Cache) error {
		c.metrics = metrics
		return nil
	}
}

// NewCache creates an empty cache over builder.
func NewCache(builder CorpusBuilder, opts ...CacheOption) (*Cache, error) {
	if builder == nil {
		return nil, ErrBuilderRequired
	}

	c := &Cache{
		builder: builder,
		config:  DefaultConfig(),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "idf")
	return c, nil
}

// Get returns the current idf table.
//
// Without ForceRefresh, a memory copy younger than MemoryTTL is returned as
// is. Otherwise, when no SampleLimit is given, a durable snapshot younger than
// DurableTTL is promoted to memory. Failing both, the table is rebuilt; full
// rebuilds are also written to the store. An empty corpus yields an empty
// table and touches neither layer.
func (c *Cache) Get(ctx context.Context, opts GetOptions) (Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !opts.ForceRefresh {
		if c.table != nil && c.now().Sub(c.cachedAt) < c.config.MemoryTTL {
			c.metrics.RecordCacheHit(telemetry.LayerMemory)
			return c.table, nil
		}
		if opts.SampleLimit == 0 {
			if table, ok := c.loadDurable(ctx); ok {
				c.metrics.RecordCacheHit(telemetry.LayerDurable)
				return table, nil
			}
		}
	}

	c.metrics.RecordCacheMiss()
	return c.rebuild(ctx, opts)
}

// Clear drops the memory copy and the durable snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.table = nil
	c.info = Info{}
	c.cachedAt = time.Time{}

	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear durable idf cache: %w", err)
	}
	c.logger.Info("cleared idf cache")
	return nil
}

// BuiltAt returns when the in-memory table was built.
// It is zero when the cache is empty.
func (c *Cache) BuiltAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.BuiltAt
}

// Info describes the in-memory table.
func (c *Cache) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// loadDurable promotes a fresh durable snapshot to memory.
// Read failures are logged and reported as a miss.
func (c *Cache) loadDurable(ctx context.Context) (Table, bool) {
	if c.store == nil {
		return nil, false
	}

	snapshot, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			c.logger.Warn("error loading durable idf cache", "err", err)
		}
		return nil, false
	}

	age := c.now().Sub(snapshot.BuiltAt)
	if age > c.config.DurableTTL {
		c.logger.Info("durable idf cache is stale", "age", age.Round(time.Hour))
		return nil, false
	}

	c.logger.Info("loaded durable idf cache",
		"terms", snapshot.TermCount, "projects", snapshot.SourceProjectCount)
	c.setTable(snapshot.Scores, Info{
		BuiltAt:            snapshot.BuiltAt,
		SourceProjectCount: snapshot.SourceProjectCount,
		TermCount:          len(snapshot.Scores),
	})
	return snapshot.Scores, true
}

// rebuild builds the table under the build marker.
func (c *Cache) rebuild(ctx context.Context, opts GetOptions) (Table, error) {
	if c.marker != nil {
		release, err := c.marker.Acquire()
		if errors.Is(err, ErrMarkerHeld) && !opts.ForceRefresh {
			c.logger.Info("another worker is building the idf table, waiting", "wait", c.config.MarkerWait)
			c.metrics.RecordMarkerWait()
			if err := sleep(ctx, c.config.MarkerWait); err != nil {
				return nil, err
			}
			if table, ok := c.loadDurable(ctx); ok {
				c.metrics.RecordCacheHit(telemetry.LayerDurable)
				return table, nil
			}
		}
		if errors.Is(err, ErrMarkerHeld) {
			release, err = c.marker.TakeOver()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to acquire idf build marker: %w", err)
		}
		defer release()
	}

	start := c.now()
	docs, err := c.builder.Build(ctx, opts.SampleLimit)
	if err != nil {
		c.metrics.RecordRebuild(false, 0, c.now().Sub(start))
		return nil, fmt.Errorf("failed to build idf corpus: %w", err)
	}
	if len(docs) == 0 {
		c.logger.Warn("reference corpus is empty, idf table not cached")
		return Table{}, nil
	}

	table := Compute(docs)
	builtAt := c.now().UTC()
	c.metrics.RecordRebuild(true, len(table), builtAt.Sub(start))
	c.logger.Info("built idf table",
		"documents", len(docs), "terms", len(table), "sampled", opts.SampleLimit > 0,
		"duration", builtAt.Sub(start))

	c.setTable(table, Info{
		BuiltAt:            builtAt,
		SourceProjectCount: len(docs),
		TermCount:          len(table),
		Sampled:            opts.SampleLimit > 0,
	})

	if opts.SampleLimit == 0 && c.store != nil {
		snapshot := &Snapshot{
			Version:            SnapshotVersion,
			BuiltAt:            builtAt,
			SourceProjectCount: len(docs),
			TermCount:          len(table),
			Scores:             table,
		}
		if err := c.store.Save(ctx, snapshot); err != nil {
			c.logger.Error("error saving durable idf cache", "err", err)
		}
	}
	return table, nil
}

func (c *Cache) setTable(table Table, info Info) {
	c.table = table
	c.info = info
	c.cachedAt = c.now()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
