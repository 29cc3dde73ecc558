package relevance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/idf"
	badgerstore "github.com/poiesic/scicat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTables struct {
	table   idf.Table
	builtAt time.Time
	err     error
	calls   int
}

func (f *fakeTables) Get(ctx context.Context, opts idf.GetOptions) (idf.Table, error) {
	f.calls++
	return f.table, f.err
}

func (f *fakeTables) BuiltAt() time.Time {
	return f.builtAt
}

func newTestAnalyzer(t *testing.T, tables *fakeTables, opts ...Option) (*Analyzer, *badgerstore.Repositories) {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	a, err := NewAnalyzer(tables, repos.Projects, opts...)
	require.NoError(t, err)
	return a, repos
}

func TestNewAnalyzer_Validation(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = NewAnalyzer(nil, repos.Projects)
	assert.ErrorIs(t, err, ErrTableSourceRequired)

	_, err = NewAnalyzer(&fakeTables{}, nil)
	assert.ErrorIs(t, err, ErrProjectRepositoryRequired)

	for _, p := range []float64{0, -0.1, 1.5, math.NaN()} {
		_, err = NewAnalyzer(&fakeTables{}, repos.Projects, WithPercentile(p))
		assert.ErrorIs(t, err, ErrInvalidPercentile)
	}
}

func TestAnalyzer_ScoreProject(t *testing.T) {
	tables := &fakeTables{
		table:   idf.Table{"spectral": 1.5, "telescope": 2.0},
		builtAt: time.Now(),
	}
	a, _ := newTestAnalyzer(t, tables, WithPercentile(1))
	ctx := context.Background()

	score, err := a.ScoreProject(ctx, &core.Project{Name: "specx", Readme: "Spectral analysis"})
	require.NoError(t, err)
	assert.Equal(t, 52.27, score)

	score, err = a.ScoreProject(ctx, &core.Project{Description: "telescope spectral pipeline"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)

	score, err = a.ScoreProject(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAnalyzer_EmptyTableScoresZero(t *testing.T) {
	a, _ := newTestAnalyzer(t, &fakeTables{table: idf.Table{}})

	score, err := a.ScoreProject(context.Background(), &core.Project{Readme: "spectral"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAnalyzer_TableError(t *testing.T) {
	boom := errors.New("corpus unavailable")
	a, _ := newTestAnalyzer(t, &fakeTables{err: boom})

	_, err := a.ScoreProject(context.Background(), &core.Project{Readme: "spectral"})
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzer_IndicatorsReusedUntilRebuild(t *testing.T) {
	built := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tables := &fakeTables{table: idf.Table{"spectral": 1.5}, builtAt: built}
	a, _ := newTestAnalyzer(t, tables, WithPercentile(1))
	ctx := context.Background()

	first, err := a.Indicators(ctx)
	require.NoError(t, err)
	assert.Equal(t, Indicators{"spectral": 1.5}, first)

	tables.table = idf.Table{"genome": 2.0}
	same, err := a.Indicators(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, same)

	tables.builtAt = built.Add(time.Hour)
	next, err := a.Indicators(ctx)
	require.NoError(t, err)
	assert.Equal(t, Indicators{"genome": 2.0}, next)
}

func TestAnalyzer_CompareDistributions(t *testing.T) {
	tables := &fakeTables{
		table: idf.Table{
			"spectral":  1.2,
			"telescope": 1.1,
			"framework": 2.5,
			"abc":       0.5,
		},
	}
	a, repos := newTestAnalyzer(t, tables)
	ctx := context.Background()

	_, err := repos.Projects.AddProjects(ctx,
		&core.Project{Name: "alpha", URL: "https://github.com/x/alpha", Readme: "web framework"},
		&core.Project{Name: "beta", URL: "https://github.com/x/beta", Readme: "web framework server"},
		&core.Project{Name: "gamma", URL: "https://github.com/x/gamma", Readme: "telescope mount"},
		&core.Project{Name: "delta", URL: "https://github.com/x/delta", Readme: "spectral", Reference: true},
		&core.Project{Name: "epsilon", URL: "https://github.com/x/epsilon"},
	)
	require.NoError(t, err)

	signals, err := a.CompareDistributions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, signals, 2)

	// telescope: comparison idf 1 + ln(3/2)
	assert.Equal(t, "telescope", signals[0].Term)
	assert.InDelta(t, 1+math.Log(1.5), signals[0].ComparisonIDF, 1e-12)
	assert.InDelta(t, 1+math.Log(1.5)-1.1, signals[0].Difference, 1e-12)

	// spectral is absent from the comparison corpus: ln(3+1)
	assert.Equal(t, "spectral", signals[1].Term)
	assert.InDelta(t, math.Log(4), signals[1].ComparisonIDF, 1e-12)

	top, err := a.CompareDistributions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
	assert.Equal(t, "telescope", top[0].Term)
}
