// Package telemetry provides Prometheus metrics for the catalog engines.
//
// All Record methods are safe to call on a nil *Metrics, so components
// accept an optional metrics value without guarding every call site.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scicat"

// Cache layers reported by RecordCacheHit.
const (
	LayerMemory  = "memory"
	LayerDurable = "durable"
)

// Metrics holds all catalog Prometheus metrics.
type Metrics struct {
	// IDF cache metrics
	CacheHits       *prometheus.CounterVec
	CacheMisses     prometheus.Counter
	Rebuilds        *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	MarkerWaits     prometheus.Counter
	TableTerms      prometheus.Gauge

	// Scoring metrics
	RelevanceScores prometheus.Histogram

	// Classification metrics
	Classifications  *prometheus.CounterVec
	FieldsAssigned   prometheus.Histogram
	ClassifyDuration prometheus.Histogram

	// Search metrics
	SearchTierHits *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	SearchEmpty    prometheus.Counter

	// Catalog processing metrics
	ProjectsImported prometheus.Counter
	ProjectsRescored *prometheus.CounterVec
}

// NewMetrics creates and registers the catalog metrics on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}
	initCacheMetrics(m, factory)
	initScoringMetrics(m, factory)
	initClassificationMetrics(m, factory)
	initSearchMetrics(m, factory)
	initProcessingMetrics(m, factory)
	return m
}

func initCacheMetrics(m *Metrics, f promauto.Factory) {
	m.CacheHits = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idf_cache_hits_total",
		Help:      "IDF table requests served from a cache layer",
	}, []string{"layer"})

	m.CacheMisses = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idf_cache_misses_total",
		Help:      "IDF table requests that required a rebuild",
	})

	m.Rebuilds = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idf_rebuilds_total",
		Help:      "IDF table rebuilds by outcome",
	}, []string{"outcome"})

	m.RebuildDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "idf_rebuild_duration_seconds",
		Help:      "Time spent building the IDF table",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	})

	m.MarkerWaits = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idf_marker_waits_total",
		Help:      "Times a caller waited on another worker's build marker",
	})

	m.TableTerms = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "idf_table_terms",
		Help:      "Number of terms in the current IDF table",
	})
}

func initScoringMetrics(m *Metrics, f promauto.Factory) {
	m.RelevanceScores = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "relevance_score",
		Help:      "Distribution of project relevance scores",
		Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
}

func initClassificationMetrics(m *Metrics, f promauto.Factory) {
	m.Classifications = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Classification runs by outcome",
	}, []string{"outcome"})

	m.FieldsAssigned = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classification_fields_assigned",
		Help:      "Number of fields assigned per classification run",
		Buckets:   []float64{0, 1, 2, 3},
	})

	m.ClassifyDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classification_duration_seconds",
		Help:      "Time to score a project against every field",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
}

func initSearchMetrics(m *Metrics, f promauto.Factory) {
	m.SearchTierHits = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_tier_hits_total",
		Help:      "Search candidates produced by each match tier",
	}, []string{"tier"})

	m.SearchDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time to resolve a search query",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	})

	m.SearchEmpty = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_empty_total",
		Help:      "Searches that returned no results",
	})
}

func initProcessingMetrics(m *Metrics, f promauto.Factory) {
	m.ProjectsImported = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_imported_total",
		Help:      "Projects stored by the import pipeline",
	})

	m.ProjectsRescored = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projects_rescored_total",
		Help:      "Projects processed by catalog rescoring by outcome",
	}, []string{"outcome"})
}

// RecordCacheHit records an IDF request served from layer.
func (m *Metrics) RecordCacheHit(layer string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(layer).Inc()
}

// RecordCacheMiss records an IDF request that needed a rebuild.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// RecordRebuild records a finished IDF rebuild.
func (m *Metrics) RecordRebuild(success bool, terms int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Rebuilds.WithLabelValues(outcome).Inc()
	m.RebuildDuration.Observe(duration.Seconds())
	if success {
		m.TableTerms.Set(float64(terms))
	}
}

// RecordMarkerWait records a wait on a foreign build marker.
func (m *Metrics) RecordMarkerWait() {
	if m == nil {
		return
	}
	m.MarkerWaits.Inc()
}

// RecordRelevanceScore records one project relevance score.
func (m *Metrics) RecordRelevanceScore(score float64) {
	if m == nil {
		return
	}
	m.RelevanceScores.Observe(score)
}

// RecordClassification records a classification run and how many fields it assigned.
func (m *Metrics) RecordClassification(assigned int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "classified"
	if assigned == 0 {
		outcome = "unclassified"
	}
	m.Classifications.WithLabelValues(outcome).Inc()
	m.FieldsAssigned.Observe(float64(assigned))
	m.ClassifyDuration.Observe(duration.Seconds())
}

// RecordClassificationFailure records a classification that could not be saved.
func (m *Metrics) RecordClassificationFailure() {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues("failed").Inc()
}

// RecordTierHits records candidates produced by a search tier.
func (m *Metrics) RecordTierHits(tier string, hits int) {
	if m == nil || hits == 0 {
		return
	}
	m.SearchTierHits.WithLabelValues(tier).Add(float64(hits))
}

// RecordSearch records a finished search.
func (m *Metrics) RecordSearch(results int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(duration.Seconds())
	if results == 0 {
		m.SearchEmpty.Inc()
	}
}

// RecordImport records projects stored by an import.
func (m *Metrics) RecordImport(count int) {
	if m == nil {
		return
	}
	m.ProjectsImported.Add(float64(count))
}

// RecordRescore records the outcome of rescoring one project.
func (m *Metrics) RecordRescore(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.ProjectsRescored.WithLabelValues(outcome).Inc()
}
