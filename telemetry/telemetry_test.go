package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	// Should not panic
	m.RecordCacheHit(LayerMemory)
	m.RecordCacheMiss()
	m.RecordRebuild(true, 10, time.Second)
	m.RecordMarkerWait()
	m.RecordRelevanceScore(42)
	m.RecordClassification(2, time.Millisecond)
	m.RecordClassificationFailure()
	m.RecordTierHits("exact_name", 1)
	m.RecordSearch(0, time.Millisecond)
	m.RecordImport(3)
	m.RecordRescore(false)
}

func TestCacheMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordCacheHit(LayerMemory)
	m.RecordCacheHit(LayerMemory)
	m.RecordCacheHit(LayerDurable)
	m.RecordCacheMiss()
	m.RecordRebuild(true, 250, 2*time.Second)
	m.RecordRebuild(false, 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues(LayerMemory)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues(LayerDurable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds.WithLabelValues("failure")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.TableTerms))
}

func TestClassificationMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordClassification(0, time.Millisecond)
	m.RecordClassification(3, time.Millisecond)
	m.RecordClassificationFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues("classified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues("unclassified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues("failed")))
}

func TestSearchMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTierHits("exact_name", 2)
	m.RecordTierHits("name_contains", 0)
	m.RecordSearch(0, time.Millisecond)
	m.RecordSearch(3, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchTierHits.WithLabelValues("exact_name")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchTierHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchEmpty))
}

func TestProcessingMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordImport(5)
	m.RecordImport(2)
	m.RecordRescore(true)
	m.RecordRescore(false)
	m.RecordRescore(true)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.ProjectsImported))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProjectsRescored.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProjectsRescored.WithLabelValues("failure")))
}
