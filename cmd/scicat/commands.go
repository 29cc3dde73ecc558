package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/scicat"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/idf"
	"github.com/poiesic/scicat/ingestion"
	"github.com/poiesic/scicat/rescore"
	"github.com/poiesic/scicat/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// openCatalog opens the catalog described by the loaded configuration.
func openCatalog(c *cli.Context, opts ...scicat.CatalogOption) (*scicat.Catalog, error) {
	opts = append([]scicat.CatalogOption{scicat.WithLogger(slog.Default())}, opts...)
	catalog, err := scicat.Open(c.Context, loadedConfig(c), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return catalog, nil
}

// metricsOptions enables metrics when --metrics-file is set. The returned
// function writes the collected metrics in the Prometheus text format.
func metricsOptions(c *cli.Context) ([]scicat.CatalogOption, func() error) {
	path := c.String("metrics-file")
	if path == "" {
		return nil, func() error { return nil }
	}
	reg := prometheus.NewRegistry()
	write := func() error {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("failed to write metrics to %s: %w", path, err)
		}
		return nil
	}
	return []scicat.CatalogOption{scicat.WithRegisterer(reg)}, write
}

func seedFieldsCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	fields, err := catalog.SeedFields(c.Context, c.Bool("overwrite"))
	if err != nil {
		return fmt.Errorf("failed to seed fields: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Stored %d fields\n", len(fields))
	return nil
}

func importCommand(c *cli.Context) error {
	var input io.Reader
	if path := c.String("file"); path == "-" {
		input = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		input = f
	}

	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var opts []ingestion.Option
	if c.Bool("score") {
		opts = append(opts, ingestion.WithScorer(catalog.Analyzer()))
	}
	if c.Bool("no-classify") {
		opts = append(opts, ingestion.WithClassifier(nil))
	}
	pipeline, err := catalog.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	imported := 0
	err = ingestion.ReadProjects(input, c.Int("batch-size"), func(batch []*core.Project) error {
		stored, err := pipeline.Ingest(c.Context, batch)
		imported += len(stored)
		return err
	})
	pipeline.Wait()
	if err != nil {
		return fmt.Errorf("import stopped after %d projects: %w", imported, err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d projects\n", imported)
	return nil
}

func buildIDFCommand(c *cli.Context) error {
	opts, writeMetrics := metricsOptions(c)
	catalog, err := openCatalog(c, opts...)
	if err != nil {
		return err
	}
	defer catalog.Close()

	table, err := catalog.IDFTable(c.Context, idf.GetOptions{
		ForceRefresh: c.Bool("force"),
		SampleLimit:  c.Int("sample"),
	})
	if err != nil {
		return fmt.Errorf("failed to build idf table: %w", err)
	}
	info := catalog.CacheInfo()
	fmt.Fprintf(c.App.Writer, "IDF table: %d terms from %d projects\n", len(table), info.SourceProjectCount)
	return writeMetrics()
}

func clearCacheCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	if err := catalog.ClearCache(c.Context); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "IDF cache cleared")
	return nil
}

func idfStatsCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	snapshot, err := catalog.DurableSnapshot(c.Context)
	if errors.Is(err, idf.ErrNoSnapshot) {
		fmt.Fprintln(c.App.Writer, "No idf table stored; run build-idf")
		return nil
	}
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Built at:         %s\n", snapshot.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Source projects:  %d\n", snapshot.SourceProjectCount)
	fmt.Fprintf(w, "Terms:            %d\n", snapshot.TermCount)

	entries := snapshot.Scores.Sorted()
	if len(entries) > 0 {
		fmt.Fprintf(w, "Most common term: %s (%.3f)\n", entries[0].Term, entries[0].IDF)
		last := entries[len(entries)-1]
		fmt.Fprintf(w, "Rarest term:      %s (%.3f)\n", last.Term, last.IDF)
	}
	return nil
}

func indicatorsCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	indicators, err := catalog.Analyzer().Indicators(c.Context)
	if err != nil {
		return fmt.Errorf("failed to select indicators: %w", err)
	}
	terms := make([]string, 0, len(indicators))
	for term := range indicators {
		terms = append(terms, term)
	}
	slices.SortFunc(terms, func(a, b string) int {
		switch {
		case indicators[a] > indicators[b]:
			return -1
		case indicators[a] < indicators[b]:
			return 1
		}
		return strings.Compare(a, b)
	})
	if limit := c.Int("limit"); limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}

	fmt.Fprintf(c.App.Writer, "%d indicators, total weight %.3f\n", len(indicators), indicators.TotalWeight())
	for _, term := range terms {
		fmt.Fprintf(c.App.Writer, "  %-30s %.3f\n", term, indicators[term])
	}
	return nil
}

func scoreCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	project, err := projectArg(c, catalog)
	if err != nil {
		return err
	}
	score, err := catalog.Score(c.Context, project)
	if err != nil {
		return fmt.Errorf("failed to score %s: %w", project.Name, err)
	}
	fmt.Fprintf(c.App.Writer, "%s: %.2f\n", project.Name, score)
	return nil
}

func classifyCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	project, err := projectArg(c, catalog)
	if err != nil {
		return err
	}

	classifier := catalog.Classifier()
	var scores []core.FieldScore
	switch {
	case c.Bool("all"):
		scores = classifier.Score(project)
	case c.Bool("save"):
		scores, err = classifier.ClassifyAndSave(c.Context, project)
		if err != nil {
			return fmt.Errorf("failed to classify %s: %w", project.Name, err)
		}
	default:
		scores = classifier.Classify(project)
	}

	if len(scores) == 0 {
		fmt.Fprintf(c.App.Writer, "%s: no matching fields\n", project.Name)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%s:\n", project.Name)
	for _, fs := range scores {
		fmt.Fprintf(c.App.Writer, "  %-35s %.3f %s\n", fs.Field.Name, fs.Score, formatSignals(fs.Signals))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("search requires a query")
	}

	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	results, err := catalog.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}
	printResults(c.App.Writer, results)
	return nil
}

func rescoreCommand(c *cli.Context) error {
	opts, writeMetrics := metricsOptions(c)
	catalog, err := openCatalog(c, opts...)
	if err != nil {
		return err
	}
	defer catalog.Close()

	config := rescoreConfig(c, catalog)
	rescorer, err := catalog.NewRescorer(os.Stderr, rescore.WithConfig(config))
	if err != nil {
		return err
	}

	summary, err := rescorer.Run(c.Context)
	if err != nil {
		return fmt.Errorf("rescore failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Rescored %d/%d projects in %s (%d failed)\n",
		summary.Processed, summary.Total, summary.Elapsed.Round(time.Millisecond), summary.Failed)
	return writeMetrics()
}

// rescoreConfig applies the command flags over the catalog's worker settings.
func rescoreConfig(c *cli.Context, catalog *scicat.Catalog) *rescore.Config {
	workers := catalog.Config().Workers
	config := rescore.DefaultConfig()
	config.BatchSize = workers.RescoreBatch
	config.Workers = workers.RescoreWorkers
	if c.IsSet("batch-size") {
		config.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("workers") {
		config.Workers = c.Int("workers")
	}
	config.ReportInterval = c.Int("report-interval")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")
	return config
}

func compareCommand(c *cli.Context) error {
	catalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer catalog.Close()

	signals, err := catalog.Analyzer().CompareDistributions(c.Context, c.Int("top"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%-30s %10s %10s %10s\n", "term", "reference", "other", "diff")
	for _, s := range signals {
		fmt.Fprintf(c.App.Writer, "%-30s %10.3f %10.3f %10.3f\n", s.Term, s.ReferenceIDF, s.ComparisonIDF, s.Difference)
	}
	return nil
}

// projectArg resolves the command's first argument to a stored project.
func projectArg(c *cli.Context, catalog *scicat.Catalog) (*core.Project, error) {
	url := strings.TrimSpace(c.Args().First())
	if url == "" {
		return nil, errors.New("a project url is required")
	}
	project, err := catalog.ProjectRepository().GetProject(c.Context, core.ProjectIDFromURL(url))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("project %s not found", url)
	}
	return project, err
}

func printResults(w io.Writer, results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %-30s %3d  %-28s %s\n", i+1, r.Project.Name, r.Confidence, r.Tier, r.Project.URL)
	}
}

func formatSignals(signals map[string]float64) string {
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, signals[name]))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
