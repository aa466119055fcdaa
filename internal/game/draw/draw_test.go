package draw_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/lootable/internal/game/draw"
	drawmock "github.com/cory-johannsen/lootable/internal/game/draw/mock"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

func notFound(ctx context.Context, key string) (loot.Item, error) {
	return loot.Item{}, draw.ErrItemNotFound
}

func newCatalog(ctrl *gomock.Controller, name string) *drawmock.MockCatalog {
	c := drawmock.NewMockCatalog(ctrl)
	c.EXPECT().Name().Return(name).AnyTimes()
	return c
}

func TestIsText(t *testing.T) {
	cases := []struct {
		raw  draw.RawResult
		want bool
	}{
		{draw.RawResult{Type: draw.RawText, ID: "x", Collection: "c"}, true},
		{draw.RawResult{Text: "A note"}, true},
		{draw.RawResult{Text: "Rope", ID: "r1"}, false},
		{draw.RawResult{Text: "Rope", Collection: "srd"}, false},
		{draw.RawResult{ID: "r1", Collection: "srd"}, false},
		{draw.RawResult{}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, draw.IsText(tc.raw), "%+v", tc.raw)
	}
}

func TestResolver_RegistryByIDFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	world := newCatalog(ctrl, "world")
	pack := newCatalog(ctrl, "srd")
	world.EXPECT().ItemByID(ctx, "rope").Return(loot.Item{ID: "rope", Name: "Rope"}, nil)

	r := draw.NewResolver(world, []draw.Catalog{pack}, nil)
	item, err := r.Resolve(ctx, draw.RawResult{ID: "rope"})
	require.NoError(t, err)
	assert.Equal(t, "Rope", item.Name)
	assert.Empty(t, item.Pack)
}

func TestResolver_CatalogByIDSetsPack(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	world := newCatalog(ctrl, "world")
	pack := newCatalog(ctrl, "srd")
	world.EXPECT().ItemByID(ctx, "rope").DoAndReturn(notFound)
	pack.EXPECT().ItemByID(ctx, "rope").Return(loot.Item{ID: "rope", Name: "Rope"}, nil)

	r := draw.NewResolver(world, []draw.Catalog{pack}, nil)
	item, err := r.Resolve(ctx, draw.RawResult{ID: "rope", Collection: "srd"})
	require.NoError(t, err)
	assert.Equal(t, "srd", item.Pack)
	assert.Equal(t, "Compendium.srd.rope", loot.Identity(item))
}

func TestResolver_FallsBackToName(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	world := newCatalog(ctrl, "world")
	pack := newCatalog(ctrl, "srd")
	gomock.InOrder(
		world.EXPECT().ItemByID(ctx, "gone").DoAndReturn(notFound),
		pack.EXPECT().ItemByID(ctx, "gone").DoAndReturn(notFound),
		world.EXPECT().ItemByName(ctx, "Torch").DoAndReturn(notFound),
		pack.EXPECT().ItemByName(ctx, "Torch").Return(loot.Item{ID: "torch", Name: "Torch"}, nil),
	)

	r := draw.NewResolver(world, []draw.Catalog{pack}, nil)
	item, err := r.Resolve(ctx, draw.RawResult{ID: "gone", Text: "Torch", Collection: draw.WorldCollection})
	require.NoError(t, err)
	assert.Equal(t, "torch", item.ID)
}

func TestResolver_CollectionHintSearchedFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	a := newCatalog(ctrl, "a")
	b := newCatalog(ctrl, "b")
	b.EXPECT().ItemByID(ctx, "x").Return(loot.Item{ID: "x", Name: "X"}, nil)

	r := draw.NewResolver(nil, []draw.Catalog{a, b}, nil)
	item, err := r.Resolve(ctx, draw.RawResult{ID: "x", Collection: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", item.Pack)
}

func TestResolver_CatalogFailureLoggedAndSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	flaky := newCatalog(ctrl, "srd")
	flaky.EXPECT().ItemByID(ctx, "x").Return(loot.Item{}, errors.New("connection refused"))

	r := draw.NewResolver(nil, []draw.Catalog{flaky}, zap.New(core))
	_, err := r.Resolve(ctx, draw.RawResult{ID: "x"})
	assert.ErrorIs(t, err, draw.ErrItemNotFound)
	require.Equal(t, 1, logs.FilterMessage("catalog lookup failed").Len())
}

func TestProcessor_ClassifiesResolvesAndDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	src := drawmock.NewMockSource(ctrl)
	world := newCatalog(ctrl, "world")

	src.EXPECT().Draw(ctx, "t1").Return([]draw.RawResult{
		{Text: "An old map"},
		{ID: "rope", Collection: draw.WorldCollection, Quantity: 3},
		{ID: "missing", Collection: draw.WorldCollection, Text: "Mystery Box"},
		{ID: "missing", Collection: draw.WorldCollection},
	}, nil)
	world.EXPECT().ItemByID(ctx, "rope").Return(loot.Item{ID: "rope", Name: "Rope"}, nil)
	world.EXPECT().ItemByID(ctx, "missing").DoAndReturn(notFound).Times(2)
	world.EXPECT().ItemByName(ctx, "Mystery Box").DoAndReturn(notFound)

	p := draw.NewProcessor(src, draw.NewResolver(world, nil, nil), nil)
	out, err := p.Draw(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, loot.KindItem, out[0].Kind)
	assert.Equal(t, 3, out[0].Quantity)
	assert.Equal(t, 3, out[0].Item.Quantity)
	assert.Equal(t, loot.TextResult("An old map", 1), out[1])
	assert.Equal(t, loot.TextResult("Mystery Box", 1), out[2])
}

func TestProcessor_SourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	src := drawmock.NewMockSource(ctrl)
	src.EXPECT().Draw(ctx, "t1").Return(nil, draw.ErrSourceUnavailable)

	p := draw.NewProcessor(src, draw.NewResolver(nil, nil, nil), nil)
	_, err := p.Draw(ctx, "t1")
	assert.ErrorIs(t, err, draw.ErrSourceUnavailable)
}

func TestFallback_PrimaryWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	primary := drawmock.NewMockSource(ctrl)
	secondary := drawmock.NewMockSource(ctrl)
	primary.EXPECT().Draw(ctx, "t").Return([]draw.RawResult{{Text: "p"}}, nil)

	f := &draw.Fallback{Primary: primary, Secondary: secondary}
	out, err := f.Draw(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "p", out[0].Text)
}

func TestFallback_FallsBackOnErrors(t *testing.T) {
	for _, primaryErr := range []error{draw.ErrSourceNotFound, errors.New("script crashed")} {
		ctrl := gomock.NewController(t)
		ctx := context.Background()
		primary := drawmock.NewMockSource(ctrl)
		secondary := drawmock.NewMockSource(ctrl)
		primary.EXPECT().Draw(ctx, "t").Return(nil, primaryErr)
		secondary.EXPECT().Draw(ctx, "t").Return([]draw.RawResult{{Text: "s"}}, nil)

		f := &draw.Fallback{Primary: primary, Secondary: secondary}
		out, err := f.Draw(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, "s", out[0].Text)
	}
}

func TestFallback_NoSecondary(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	primary := drawmock.NewMockSource(ctrl)
	primary.EXPECT().Draw(ctx, "t").Return(nil, draw.ErrSourceNotFound)

	f := &draw.Fallback{Primary: primary}
	_, err := f.Draw(ctx, "t")
	assert.ErrorIs(t, err, draw.ErrSourceNotFound)
}

type listedSource struct {
	tables []draw.TableInfo
}

func (l listedSource) Draw(context.Context, string) ([]draw.RawResult, error) {
	return nil, draw.ErrSourceNotFound
}

func (l listedSource) Tables(context.Context) ([]draw.TableInfo, error) {
	return l.tables, nil
}

func TestFallback_TablesMergedAndSorted(t *testing.T) {
	f := &draw.Fallback{
		Primary:   listedSource{tables: []draw.TableInfo{{ID: "b", Name: "Bandit Purse"}, {ID: "x", Name: "Zombie"}}},
		Secondary: listedSource{tables: []draw.TableInfo{{ID: "a", Name: "Armory"}, {ID: "x", Name: "Zombie (dup)"}}},
	}
	tables, err := f.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []draw.TableInfo{{ID: "a", Name: "Armory"}, {ID: "b", Name: "Bandit Purse"}, {ID: "x", Name: "Zombie"}}, tables)
}

func TestSortTables_IgnoresCaseAndBreaksTiesByID(t *testing.T) {
	tables := []draw.TableInfo{
		{ID: "hoard", Name: "Dragon Hoard"},
		{ID: "z", Name: "bandit"},
		{ID: "a", Name: "bandit"},
		{ID: "arm", Name: "armory"},
	}
	draw.SortTables(tables)
	assert.Equal(t, []draw.TableInfo{
		{ID: "arm", Name: "armory"},
		{ID: "a", Name: "bandit"},
		{ID: "z", Name: "bandit"},
		{ID: "hoard", Name: "Dragon Hoard"},
	}, tables)
}
