package classify

import (
	"context"
	"testing"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	badgerstore "github.com/poiesic/scicat/storage/badger"
	"github.com/poiesic/scicat/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() []*core.Field {
	return []*core.Field{
		{
			Name:       "Physics",
			Domain:     core.DomainPhysicalSciences,
			Keywords:   []string{"quantum", "mechanics", "optics"},
			Packages:   []string{"qutip"},
			Indicators: []string{"hamiltonian"},
		},
		{
			Name:       "Biology",
			Domain:     core.DomainLifeSciences,
			Keywords:   []string{"genome", "protein"},
			Packages:   []string{"biopython"},
			Indicators: []string{"gene expression"},
		},
		{
			Name:     "Chemistry",
			Domain:   core.DomainPhysicalSciences,
			Keywords: []string{"molecule", "reaction"},
		},
	}
}

func newTestClassifier(t *testing.T, opts ...Option) (*Classifier, *badgerstore.Repositories) {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	ctx := context.Background()
	_, err = repos.Fields.AddFields(ctx, testFields()...)
	require.NoError(t, err)

	c, err := NewClassifier(ctx, repos.Fields, repos.Classifications, opts...)
	require.NoError(t, err)
	return c, repos
}

func scoresOf(values ...float64) []core.FieldScore {
	out := make([]core.FieldScore, len(values))
	for i, v := range values {
		out[i] = core.FieldScore{Field: &core.Field{Name: string(rune('A' + i))}, Score: v}
	}
	return out
}

func fieldNames(scores []core.FieldScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Field.Name
	}
	return out
}

func TestSelectFields(t *testing.T) {
	tests := []struct {
		name   string
		ranked []core.FieldScore
		want   []string
	}{
		{"no fields", nil, []string{}},
		{"below primary threshold", scoresOf(0.29, 0.1), []string{}},
		{"primary only", scoresOf(0.3, 0.29), []string{"A"}},
		{"relative threshold", scoresOf(0.9, 0.5, 0.44, 0.41), []string{"A", "B"}},
		{"secondary threshold", scoresOf(0.45, 0.39), []string{"A"}},
		{"at most three", scoresOf(0.6, 0.5, 0.5, 0.5), []string{"A", "B", "C"}},
		{"stops at first failure", scoresOf(0.9, 0.3, 0.8), []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldNames(selectFields(tt.ranked)))
		})
	}
}

func TestNewClassifier_Validation(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()
	ctx := context.Background()

	_, err = NewClassifier(ctx, nil, repos.Classifications)
	assert.ErrorIs(t, err, ErrFieldRepositoryRequired)

	_, err = NewClassifier(ctx, repos.Fields, nil)
	assert.ErrorIs(t, err, ErrClassificationRepositoryRequired)
}

func TestClassifier_Score(t *testing.T) {
	c, _ := newTestClassifier(t)

	project := &core.Project{
		Keywords: []string{"quantum", "mechanics"},
		Packages: []core.Package{{Name: "QuTiP"}},
	}
	scores := c.Score(project)
	require.Len(t, scores, 3)
	assert.Equal(t, "Physics", scores[0].Field.Name)
	// (0.4*2/3 + 0.2*1) / 0.6
	assert.InDelta(t, 7.0/9.0, scores[0].Score, 1e-9)

	// Zero scores keep name order
	assert.Equal(t, []string{"Biology", "Chemistry"}, fieldNames(scores[1:]))

	assert.Empty(t, c.Score(nil))
}

func TestClassifier_ClassifyAndSave(t *testing.T) {
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	c, repos := newTestClassifier(t, WithMetrics(metrics))
	ctx := context.Background()

	project := &core.Project{
		Name:     "qsim",
		URL:      "https://github.com/lab/qsim",
		Keywords: []string{"quantum", "mechanics"},
		Packages: []core.Package{{Name: "qutip"}},
	}
	_, err := repos.Projects.AddProjects(ctx, project)
	require.NoError(t, err)

	selected, err := c.ClassifyAndSave(ctx, project)
	require.NoError(t, err)
	require.Len(t, selected, 1)

	stored, err := repos.Classifications.GetClassifications(ctx, project.Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, core.FieldIDFromName("Physics"), stored[0].FieldId)
	assert.InDelta(t, 7.0/9.0, stored[0].Confidence, 1e-9)
	assert.Contains(t, stored[0].Signals, SignalKeywords)
	assert.Contains(t, stored[0].Signals, SignalPackages)

	// A new run replaces the previous records
	project.Keywords = []string{"genome", "protein"}
	project.Packages = nil
	_, err = c.ClassifyAndSave(ctx, project)
	require.NoError(t, err)

	stored, err = repos.Classifications.GetClassifications(ctx, project.Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, core.FieldIDFromName("Biology"), stored[0].FieldId)

	// Nothing assigned clears the records
	project.Keywords = []string{"web"}
	selected, err = c.ClassifyAndSave(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, selected)

	stored, err = repos.Classifications.GetClassifications(ctx, project.Id)
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Classifications.WithLabelValues("classified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Classifications.WithLabelValues("unclassified")))
}

func TestClassifier_ClassifyAndSaveRequiresID(t *testing.T) {
	c, _ := newTestClassifier(t)

	_, err := c.ClassifyAndSave(context.Background(), nil)
	assert.ErrorIs(t, err, ErrProjectRequired)

	_, err = c.ClassifyAndSave(context.Background(), &core.Project{Name: "unsaved"})
	assert.ErrorIs(t, err, ErrProjectRequired)
}

func TestClassifier_SaveErrorPropagates(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = repos.Fields.AddFields(ctx, testFields()...)
	require.NoError(t, err)

	c, err := NewClassifier(ctx, repos.Fields, repos.Classifications)
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	_, err = c.ClassifyAndSave(ctx, &core.Project{Id: 1, Keywords: []string{"quantum"}})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestClassifier_Reload(t *testing.T) {
	c, repos := newTestClassifier(t)
	ctx := context.Background()
	assert.Len(t, c.Fields(), 3)

	_, err := repos.Fields.AddFields(ctx, &core.Field{
		Name:     "Astronomy",
		Domain:   core.DomainPhysicalSciences,
		Keywords: []string{"telescope"},
	})
	require.NoError(t, err)

	project := &core.Project{Keywords: []string{"telescope"}}
	assert.Empty(t, c.Classify(project))

	require.NoError(t, c.Reload(ctx))
	assert.Len(t, c.Fields(), 4)
	assert.Equal(t, []string{"Astronomy"}, fieldNames(c.Classify(project)))
}

func TestClassifier_Invariants(t *testing.T) {
	c, _ := newTestClassifier(t)

	projects := []*core.Project{
		{Keywords: []string{"quantum", "genome", "molecule"}},
		{Keywords: []string{"quantum-optics"}, Readme: "hamiltonian of the genome protein reaction"},
		{Packages: []core.Package{{Name: "qutip"}, {Name: "biopython"}}},
		{Description: "gene expression and hamiltonian"},
		{Name: "empty"},
	}

	for _, project := range projects {
		scores := c.Score(project)
		selected := c.Classify(project)

		assert.LessOrEqual(t, len(selected), MaxFields)
		for _, fs := range scores {
			assert.GreaterOrEqual(t, fs.Score, 0.0)
			assert.LessOrEqual(t, fs.Score, 1.0)
		}
		if len(selected) > 0 {
			assert.Equal(t, scores[0].Score, selected[0].Score)
			assert.GreaterOrEqual(t, selected[0].Score, PrimaryThreshold)
			for _, secondary := range selected[1:] {
				assert.GreaterOrEqual(t, secondary.Score, SecondaryThreshold)
				assert.GreaterOrEqual(t, secondary.Score, RelativeThreshold*selected[0].Score)
			}
		}
	}
}
