package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/lootable/internal/game/catalog"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/storage/postgres"
	"github.com/cory-johannsen/lootable/internal/testutil"
)

func TestItemRepository_Lookup(t *testing.T) {
	repo := postgres.NewItemRepository(testutil.NewPool(t))
	ctx := context.Background()

	n, err := repo.Upsert(ctx, []loot.Item{
		{ID: "gem-1", Name: "Ruby", Type: "loot", Price: map[string]any{"value": 50.0, "denomination": "gp"}},
		{ID: "gem-2", Name: "Ruby", Type: "loot"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	item, err := repo.ItemByID(ctx, "gem-2")
	require.NoError(t, err)
	assert.Equal(t, "gem-2", item.ID)

	item, err = repo.ItemByName(ctx, "Ruby")
	require.NoError(t, err)
	assert.Equal(t, "gem-1", item.ID, "earliest stored item wins name lookups")
	assert.Equal(t, 50.0, loot.ValueOfItem(item, 1).Value)

	_, err = repo.ItemByID(ctx, "nope")
	assert.ErrorIs(t, err, draw.ErrItemNotFound)
	_, err = repo.ItemByName(ctx, "Sapphire")
	assert.ErrorIs(t, err, draw.ErrItemNotFound)
	assert.Equal(t, catalog.WorldName, repo.Name())
}

func TestItemRepository_UpsertReplaces(t *testing.T) {
	repo := postgres.NewItemRepository(testutil.NewPool(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, []loot.Item{{ID: "x", Name: "Old"}})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, []loot.Item{{ID: "x", Name: "New"}})
	require.NoError(t, err)

	item, err := repo.ItemByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "New", item.Name)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestItemRepository_UpsertRejectsUnnamed(t *testing.T) {
	repo := postgres.NewItemRepository(testutil.NewPool(t))
	_, err := repo.Upsert(context.Background(), []loot.Item{{ID: "ok", Name: "Fine"}, {ID: "bad"}})
	require.Error(t, err)
	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestItemRepository_ServesResolver(t *testing.T) {
	repo := postgres.NewItemRepository(testutil.NewPool(t))
	ctx := context.Background()
	_, err := repo.Upsert(ctx, []loot.Item{{ID: "lamp", Name: "Lamp"}})
	require.NoError(t, err)

	resolver := draw.NewResolver(repo, nil, nil)
	item, err := resolver.Resolve(ctx, draw.RawResult{Text: "Lamp"})
	require.NoError(t, err)
	assert.Equal(t, "lamp", item.ID)
	assert.Empty(t, item.Pack, "live registry items carry no pack")
}
