package classify

import (
	"testing"

	"github.com/poiesic/scicat/core"
	"github.com/stretchr/testify/assert"
)

func fieldFor(t *testing.T, field *core.Field) (*model, *fieldModel) {
	t.Helper()
	m := compile([]*core.Field{field})
	return m, m.fields[0]
}

func TestKeywordSignal(t *testing.T) {
	tests := []struct {
		name     string
		project  []string
		field    []string
		want     float64
		computed bool
	}{
		{"exact match", []string{"quantum", "mechanics"}, []string{"quantum", "mechanics"}, 1.0, true},
		{"case insensitive", []string{"Quantum"}, []string{"QUANTUM", "optics"}, 0.5, true},
		{"split on separators", []string{"machine-learning", "deep_learning"}, []string{"learning"}, 1.0, true},
		{"partial match", []string{"bioinformatics"}, []string{"informatics", "genomics"}, 0.125, true},
		{"short words never partial", []string{"dna"}, []string{"dnase"}, 0, true},
		{"direct match blocks partial", []string{"genome", "genomes"}, []string{"genome"}, 1.0, true},
		{"no overlap", []string{"web"}, []string{"quantum"}, 0, true},
		{"field without keywords", []string{"quantum"}, nil, 0, true},
		{"project without keywords", nil, []string{"quantum"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fm := fieldFor(t, &core.Field{Name: "F", Keywords: tt.field})
			features := extractFeatures(&core.Project{Keywords: tt.project}, m)

			got := keywordSignal(features, fm)
			assert.Equal(t, tt.computed, got.ok)
			assert.InDelta(t, tt.want, got.score, 1e-12)
		})
	}
}

func TestReadmeSignal(t *testing.T) {
	readme := "# Quantum\n\nWe simulate quantum systems.\n\n" +
		"```python\nimport genome\n```\n\n" +
		"See https://example.com/genome and `genome`.\n"

	m, fm := fieldFor(t, &core.Field{Name: "F", Keywords: []string{"quantum", "genome", "systems"}})

	got := readmeSignal(extractFeatures(&core.Project{Readme: readme}, m), fm)
	assert.True(t, got.ok)
	assert.InDelta(t, 2.0/3.0, got.score, 1e-12)

	got = readmeSignal(extractFeatures(&core.Project{Readme: "   "}, m), fm)
	assert.False(t, got.ok)
}

func TestPackageSignal(t *testing.T) {
	m, fm := fieldFor(t, &core.Field{Name: "F", Packages: []string{"numpy", "scipy", "pandas", "matplotlib"}})

	project := &core.Project{
		Packages: []core.Package{{Name: "NumPy"}},
		Manifests: []core.Manifest{{
			Path:         "requirements.txt",
			Dependencies: []core.Dependency{{PackageName: "scipy", Kind: "runtime"}},
		}},
	}
	got := packageSignal(extractFeatures(project, m), fm)
	assert.True(t, got.ok)
	assert.InDelta(t, 0.9, got.score, 1e-12)

	got = packageSignal(extractFeatures(&core.Project{Packages: []core.Package{{Name: "flask"}}}, m), fm)
	assert.True(t, got.ok)
	assert.Equal(t, 0.0, got.score)

	got = packageSignal(extractFeatures(&core.Project{}, m), fm)
	assert.False(t, got.ok)
}

func TestPackageSignal_Capped(t *testing.T) {
	m, fm := fieldFor(t, &core.Field{Name: "F", Packages: []string{"qutip"}})
	got := packageSignal(extractFeatures(&core.Project{Packages: []core.Package{{Name: "qutip"}}}, m), fm)
	assert.InDelta(t, 1.0, got.score, 1e-12)
}

func TestIndicatorSignal(t *testing.T) {
	m, fm := fieldFor(t, &core.Field{
		Name:       "F",
		Indicators: []string{"Density Functional Theory", "molecular dynamics"},
	})

	project := &core.Project{Description: "Solves the Schrödinger equation with density functional theory"}
	got := indicatorSignal(extractFeatures(project, m), fm)
	assert.True(t, got.ok)
	assert.InDelta(t, 0.5, got.score, 1e-12)

	got = indicatorSignal(extractFeatures(&core.Project{Keywords: []string{"x"}}, m), fm)
	assert.False(t, got.ok)
}

func TestScoreField_Renormalizes(t *testing.T) {
	field := &core.Field{Name: "Physics", Keywords: []string{"quantum", "mechanics"}}
	m, fm := fieldFor(t, field)

	t.Run("only keywords computed", func(t *testing.T) {
		got := scoreField(extractFeatures(&core.Project{Keywords: []string{"quantum", "mechanics"}}, m), fm)
		assert.InDelta(t, 1.0, got.Score, 1e-12)
		assert.Equal(t, map[string]float64{SignalKeywords: 1.0}, got.Signals)
		assert.Same(t, field, got.Field)
	})

	t.Run("computed zero signals still count", func(t *testing.T) {
		project := &core.Project{Keywords: []string{"quantum", "mechanics"}, Readme: "nothing relevant here"}
		got := scoreField(extractFeatures(project, m), fm)
		// (0.4*1 + 0.3*0 + 0.1*0) / 0.8
		assert.InDelta(t, 0.5, got.Score, 1e-12)
		assert.Len(t, got.Signals, 3)
	})

	t.Run("no input", func(t *testing.T) {
		got := scoreField(extractFeatures(&core.Project{Name: "bare"}, m), fm)
		assert.Equal(t, 0.0, got.Score)
		assert.Empty(t, got.Signals)
	})
}
