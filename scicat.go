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


// Package scicat wires the catalog storage, the idf cache and the
// relevance, classification and search engines together.
package scicat

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/scicat/classify"
	"github.com/poiesic/scicat/config"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/corpus"
	"github.com/poiesic/scicat/idf"
	"github.com/poiesic/scicat/ingestion"
	"github.com/poiesic/scicat/relevance"
	"github.com/poiesic/scicat/rescore"
	"github.com/poiesic/scicat/search"
	"github.com/poiesic/scicat/seed"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/storage/badger"
	"github.com/poiesic/scicat/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// Catalog is an open project catalog.
type Catalog struct {
	config     config.Config
	repos      *badger.Repositories
	builder    *corpus.Builder
	store      *idf.FileStore
	cache      *idf.Cache
	analyzer   *relevance.Analyzer
	classifier *classify.Classifier
	searcher   *search.Searcher
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(o *catalogOptions) {
		o.logger = logger
	}
}

// WithRegisterer enables metrics registered on reg.
// Without it the catalog records no metrics.
func WithRegisterer(reg prometheus.Registerer) CatalogOption {
	return func(o *catalogOptions) {
		o.registerer = reg
	}
}

// Open opens the catalog described by cfg.
func Open(ctx context.Context, cfg config.Config, opts ...CatalogOption) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &catalogOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics *telemetry.Metrics
	if options.registerer != nil {
		metrics = telemetry.NewMetrics(options.registerer)
	}

	backend, err := badger.OpenBackend(cfg.Storage.DataDir, cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}
	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	c := &Catalog{
		config:  cfg,
		repos:   repos,
		metrics: metrics,
		logger:  logger,
	}
	if err := c.init(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init(ctx context.Context) error {
	cfg := c.config
	var err error

	c.builder, err = corpus.NewBuilder(c.repos.Projects,
		corpus.WithBatchSize(cfg.Workers.CorpusBatchSize),
		corpus.WithPoolSize(cfg.Workers.CorpusPool),
		corpus.WithLogger(c.logger),
	)
	if err != nil {
		return err
	}

	c.store, err = idf.NewFileStore(cfg.Storage.CacheDir)
	if err != nil {
		return err
	}
	marker, err := idf.NewMarker(cfg.Storage.CacheDir, idf.WithStaleAfter(cfg.IDF.MarkerStaleAfter))
	if err != nil {
		return err
	}
	c.cache, err = idf.NewCache(c.builder,
		idf.WithStore(c.store),
		idf.WithMarker(marker),
		idf.WithConfig(idf.Config{
			MemoryTTL:  cfg.IDF.MemoryTTL,
			DurableTTL: cfg.IDF.DurableTTL,
			MarkerWait: cfg.IDF.MarkerWait,
		}),
		idf.WithLogger(c.logger),
		idf.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}

	c.analyzer, err = relevance.NewAnalyzer(c.cache, c.repos.Projects,
		relevance.WithPercentile(cfg.IDF.Percentile),
		relevance.WithLogger(c.logger),
		relevance.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}

	c.classifier, err = classify.NewClassifier(ctx, c.repos.Fields, c.repos.Classifications,
		classify.WithLogger(c.logger),
		classify.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}

	c.searcher, err = search.NewSearcher(c.repos.Projects,
		search.WithLogger(c.logger),
		search.WithMetrics(c.metrics),
	)
	return err
}

// Close releases the worker pools and closes the store.
func (c *Catalog) Close() error {
	if c.builder != nil {
		c.builder.Release()
	}
	if err := c.repos.Close(); err != nil {
		c.logger.Error("error closing catalog storage", "err", err)
		return err
	}
	return nil
}

// Config returns the configuration the catalog was opened with.
func (c *Catalog) Config() config.Config {
	return c.config
}

func (c *Catalog) ProjectRepository() storage.ProjectRepository {
	return c.repos.Projects
}

func (c *Catalog) FieldRepository() storage.FieldRepository {
	return c.repos.Fields
}

func (c *Catalog) ClassificationRepository() storage.ClassificationRepository {
	return c.repos.Classifications
}

func (c *Catalog) Analyzer() *relevance.Analyzer {
	return c.analyzer
}

func (c *Catalog) Classifier() *classify.Classifier {
	return c.classifier
}

func (c *Catalog) Searcher() *search.Searcher {
	return c.searcher
}

// IDFTable returns the reference idf table, building it when needed.
func (c *Catalog) IDFTable(ctx context.Context, opts idf.GetOptions) (idf.Table, error) {
	return c.cache.Get(ctx, opts)
}

// CacheInfo describes the in-memory idf table.
func (c *Catalog) CacheInfo() idf.Info {
	return c.cache.Info()
}

// DurableSnapshot reads the stored idf snapshot without touching the cache.
func (c *Catalog) DurableSnapshot(ctx context.Context) (*idf.Snapshot, error) {
	return c.store.Load(ctx)
}

// ClearCache drops both idf cache layers.
func (c *Catalog) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// Score returns the relevance score of a project.
func (c *Catalog) Score(ctx context.Context, project *core.Project) (float64, error) {
	return c.analyzer.ScoreProject(ctx, project)
}

// Search resolves a query. A limit below one uses the configured default.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	if limit < 1 {
		limit = c.config.Search.DefaultLimit
	}
	return c.searcher.Search(ctx, query, limit)
}

// SeedFields stores the embedded reference fields and reloads the classifier.
func (c *Catalog) SeedFields(ctx context.Context, overwrite bool) ([]*core.Field, error) {
	fields, err := seed.Fields()
	if err != nil {
		return nil, err
	}
	written, err := seed.Apply(ctx, c.repos.Fields, fields, overwrite, c.logger)
	if err != nil {
		return nil, err
	}
	if err := c.classifier.Reload(ctx); err != nil {
		return nil, err
	}
	return written, nil
}

// NewIngestionPipeline creates an import pipeline. Imported projects are
// classified when the configuration asks for it.
func (c *Catalog) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithPoolSize(c.config.Workers.ImportPool),
		ingestion.WithLogger(c.logger),
		ingestion.WithMetrics(c.metrics),
	}
	if c.config.Classifier.ClassifyOnImport {
		defaults = append(defaults, ingestion.WithClassifier(c.classifier))
	}
	return ingestion.NewPipeline(c.repos.Projects, append(defaults, opts...)...)
}

// NewRescorer creates a rescorer that updates relevance scores and
// classifications of every project.
func (c *Catalog) NewRescorer(progress io.Writer, opts ...rescore.Option) (*rescore.Rescorer, error) {
	cfg := rescore.DefaultConfig()
	cfg.BatchSize = c.config.Workers.RescoreBatch
	cfg.Workers = c.config.Workers.RescoreWorkers

	defaults := []rescore.Option{
		rescore.WithScorer(c.analyzer),
		rescore.WithClassifier(c.classifier),
		rescore.WithLogger(c.logger),
		rescore.WithMetrics(c.metrics),
	}
	return rescore.NewRescorer(c.repos.Projects, cfg, progress, append(defaults, opts...)...)
}
