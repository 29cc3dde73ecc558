package badger

import (
	"context"
	"testing"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRepository_Basics(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	physics := &core.Field{Name: "Physics", Domain: core.DomainPhysicalSciences, Keywords: []string{"quantum"}}
	chemistry := &core.Field{Name: "Chemistry", Domain: core.DomainPhysicalSciences, Keywords: []string{"molecular"}}

	_, err := repos.Fields.AddFields(ctx, physics, chemistry)
	require.NoError(t, err)
	assert.Equal(t, core.FieldIDFromName("Physics"), physics.Id)

	all, err := repos.Fields.GetAllFields(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Chemistry", all[0].Name)
	assert.Equal(t, "Physics", all[1].Name)

	byName, err := repos.Fields.GetFieldByName(ctx, "Physics")
	require.NoError(t, err)
	assert.Equal(t, physics.Id, byName.Id)

	byID, err := repos.Fields.GetField(ctx, chemistry.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"molecular"}, byID.Keywords)
}

func TestFieldRepository_UpsertKeepsInsertedAt(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	first := &core.Field{Name: "Physics", Domain: core.DomainPhysicalSciences, Keywords: []string{"quantum"}}
	_, err := repos.Fields.AddFields(ctx, first)
	require.NoError(t, err)

	second := &core.Field{Name: "Physics", Domain: core.DomainPhysicalSciences, Keywords: []string{"quantum", "optics"}}
	_, err = repos.Fields.AddFields(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, first.InsertedAt, second.InsertedAt)

	all, err := repos.Fields.GetAllFields(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"quantum", "optics"}, all[0].Keywords)
}

func TestFieldRepository_Delete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	field := &core.Field{Name: "Physics", Domain: core.DomainPhysicalSciences, Keywords: []string{"quantum"}}
	_, err := repos.Fields.AddFields(ctx, field)
	require.NoError(t, err)

	require.NoError(t, repos.Fields.DeleteFields(ctx, field.Id))

	_, err = repos.Fields.GetFieldByName(ctx, "Physics")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repos.Fields.GetField(ctx, field.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, repos.Fields.DeleteFields(ctx, field.Id), storage.ErrNotFound)
}
