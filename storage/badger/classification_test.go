package badger

import (
	"context"
	"testing"

	"github.com/poiesic/scicat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationRepository_Replace(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	projectID := core.ProjectIDFromURL("https://github.com/a/tool")
	physics := core.FieldIDFromName("Physics")
	chemistry := core.FieldIDFromName("Chemistry")
	biology := core.FieldIDFromName("Biology")

	err := repos.Classifications.ReplaceClassifications(ctx, projectID,
		&core.Classification{FieldId: physics, Confidence: 0.4, Signals: map[string]float64{"keywords": 0.4}},
		&core.Classification{FieldId: chemistry, Confidence: 0.9},
	)
	require.NoError(t, err)

	got, err := repos.Classifications.GetClassifications(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chemistry, got[0].FieldId)
	assert.Equal(t, physics, got[1].FieldId)
	assert.Equal(t, 0.4, got[1].Signals["keywords"])
	assert.False(t, got[0].ClassifiedAt.IsZero())

	// Replace wipes the previous set
	err = repos.Classifications.ReplaceClassifications(ctx, projectID,
		&core.Classification{FieldId: biology, Confidence: 0.7})
	require.NoError(t, err)

	got, err = repos.Classifications.GetClassifications(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, biology, got[0].FieldId)
	assert.Equal(t, projectID, got[0].ProjectId)

	ids, err := repos.Classifications.GetProjectsByField(ctx, physics)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repos.Classifications.GetProjectsByField(ctx, biology)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{projectID}, ids)
}

func TestClassificationRepository_ReplaceWithNothing(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	projectID := core.ID(7)

	require.NoError(t, repos.Classifications.ReplaceClassifications(ctx, projectID,
		&core.Classification{FieldId: 1, Confidence: 0.5}))
	require.NoError(t, repos.Classifications.ReplaceClassifications(ctx, projectID))

	got, err := repos.Classifications.GetClassifications(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassificationRepository_RejectsInvalidConfidence(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	projectID := core.ID(7)

	require.NoError(t, repos.Classifications.ReplaceClassifications(ctx, projectID,
		&core.Classification{FieldId: 1, Confidence: 0.5}))

	err := repos.Classifications.ReplaceClassifications(ctx, projectID,
		&core.Classification{FieldId: 2, Confidence: 1.5})
	assert.ErrorIs(t, err, core.ErrConfidenceOutOfRange)

	// Existing records survive a rejected replace
	got, err := repos.Classifications.GetClassifications(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestClassificationRepository_Isolation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Classifications.ReplaceClassifications(ctx, 1,
		&core.Classification{FieldId: 10, Confidence: 0.5}))
	require.NoError(t, repos.Classifications.ReplaceClassifications(ctx, 2,
		&core.Classification{FieldId: 10, Confidence: 0.6}))
	require.NoError(t, repos.Classifications.DeleteClassifications(ctx, 1))

	got, err := repos.Classifications.GetClassifications(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	ids, err := repos.Classifications.GetProjectsByField(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{2}, ids)
}
