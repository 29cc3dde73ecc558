package corpus

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/scicat/core"
	badgerstore "github.com/poiesic/scicat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T, reference, other int) *badgerstore.Repositories {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	projects := make([]*core.Project, 0, reference+other)
	for i := range reference {
		projects = append(projects, &core.Project{
			Name:      fmt.Sprintf("ref%d", i),
			URL:       fmt.Sprintf("https://github.com/ref/ref%d", i),
			Readme:    "spectral analysis toolkit",
			Reference: true,
		})
	}
	for i := range other {
		projects = append(projects, &core.Project{
			Name:   fmt.Sprintf("other%d", i),
			URL:    fmt.Sprintf("https://github.com/other/other%d", i),
			Readme: "web framework",
		})
	}
	if len(projects) > 0 {
		_, err = repos.Projects.AddProjects(context.Background(), projects...)
		require.NoError(t, err)
	}
	return repos
}

func newTestBuilder(t *testing.T, repos *badgerstore.Repositories, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(repos.Projects, opts...)
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func TestNewBuilder_RequiresRepository(t *testing.T) {
	_, err := NewBuilder(nil)
	assert.ErrorIs(t, err, ErrProjectRepositoryRequired)
}

func TestBuilder_FullCorpus(t *testing.T) {
	repos := setupRepos(t, 7, 4)
	b := newTestBuilder(t, repos, WithBatchSize(3), WithPoolSize(2))

	docs, err := b.Build(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, docs, 7)
	for _, doc := range docs {
		assert.Contains(t, doc, "spectral")
		assert.NotContains(t, doc, "framework")
	}
}

func TestBuilder_Sampled(t *testing.T) {
	repos := setupRepos(t, 10, 2)
	b := newTestBuilder(t, repos)

	docs, err := b.Build(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, docs, 4)

	docs, err = b.Build(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, docs, 10)
}

func TestBuilder_EmptyCorpus(t *testing.T) {
	repos := setupRepos(t, 0, 3)
	b := newTestBuilder(t, repos)

	docs, err := b.Build(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NotNil(t, docs)
}

func TestBuilder_NegativeSample(t *testing.T) {
	repos := setupRepos(t, 1, 0)
	b := newTestBuilder(t, repos)

	_, err := b.Build(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)
}

func TestBuilder_CanceledContext(t *testing.T) {
	repos := setupRepos(t, 3, 0)
	b := newTestBuilder(t, repos)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
