package treasure_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/dice/dicetest"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/treasure"
	"github.com/cory-johannsen/lootable/internal/host"
)

type drawerFunc func(ctx context.Context, sourceID string) ([]loot.DrawResult, error)

func (f drawerFunc) Draw(ctx context.Context, sourceID string) ([]loot.DrawResult, error) {
	return f(ctx, sourceID)
}

func item(id, name, price string) loot.Item {
	return loot.Item{ID: id, Name: name, Price: price}
}

func fixedDraw(results ...loot.DrawResult) drawerFunc {
	return func(context.Context, string) ([]loot.DrawResult, error) { return results, nil }
}

func newComposer(t *testing.T, d treasure.Drawer, src dice.Source, mem *host.Memory) *treasure.Composer {
	t.Helper()
	if mem == nil {
		mem = host.NewMemory()
	}
	h := treasure.Host{Actors: mem, Ledger: mem, Inventory: mem, Journals: mem}
	return treasure.NewComposer(treasure.DefaultSettings, d, h, src, zaptest.NewLogger(t))
}

var tables = []draw.TableInfo{{ID: "gems", Name: "Gems"}}

func TestRollTable_MergesItemsAndIgnoresText(t *testing.T) {
	d := fixedDraw(
		loot.ItemResult(item("rope", "Rope", "1 gp"), 2),
		loot.TextResult("A note", 1),
		loot.ItemResult(item("rope", "Rope", "1 gp"), 1),
	)
	s := newComposer(t, d, dicetest.New(), nil).NewSession()
	assert.Equal(t, treasure.StateIdle, s.State())

	added, err := s.RollTable(context.Background(), "gems")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, 3, added[0].Quantity)

	_, err = s.RollTable(context.Background(), "gems")
	require.NoError(t, err)
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Item.rope", entries[0].Ref)
	assert.Equal(t, 6, entries[0].Quantity)
	assert.InDelta(t, 6.0, s.Total(), 1e-9)
	assert.Equal(t, treasure.StateComposing, s.State())
}

func TestRollTable_PropagatesDrawErrors(t *testing.T) {
	d := drawerFunc(func(context.Context, string) ([]loot.DrawResult, error) { return nil, draw.ErrSourceNotFound })
	s := newComposer(t, d, dicetest.New(), nil).NewSession()
	_, err := s.RollTable(context.Background(), "nope")
	assert.ErrorIs(t, err, draw.ErrSourceNotFound)
	assert.Equal(t, treasure.StateIdle, s.State())
}

func TestAddCoins(t *testing.T) {
	src := dicetest.New().Floats(0.5, 0, 0.99, 0).Ints(4)
	s := newComposer(t, fixedDraw(), src, nil).NewSession()

	coins, err := s.AddCoins("gp", "purse")
	require.NoError(t, err)
	assert.Equal(t, currency.Amount{GP: 5}, coins)

	coins, err = s.AddCoins(treasure.RandomChoice, "sack")
	require.NoError(t, err)
	assert.Equal(t, currency.Amount{GP: 10}, coins)

	coins, err = s.AddCoins("pp", treasure.RandomChoice)
	require.NoError(t, err)
	assert.Equal(t, currency.Amount{PP: 50}, coins)

	assert.Equal(t, currency.Amount{PP: 50, GP: 15}, s.Coins())
	require.Len(t, s.Entries(), 1, "coins share one line")
	assert.InDelta(t, 515.0, s.Total(), 1e-9)

	_, err = s.AddCoins("ep", "purse")
	assert.ErrorIs(t, err, treasure.ErrUnknownCoin)
}

func TestAddCoins_UnknownSizeFallsBackToPurse(t *testing.T) {
	s := newComposer(t, fixedDraw(), dicetest.New().Floats(1), nil).NewSession()
	coins, err := s.AddCoins("cp", "hoard")
	require.NoError(t, err)
	assert.Equal(t, currency.Amount{CP: 1000}, coins)
}

func TestSetCoin(t *testing.T) {
	s := newComposer(t, fixedDraw(), dicetest.New(), nil).NewSession()
	s.SetCoin(currency.Silver, 25)
	s.SetCoin(currency.Gold, 3)
	s.SetCoin(currency.Silver, 5)
	assert.Equal(t, currency.Amount{GP: 3, SP: 5}, s.Coins())
	s.SetCoin(currency.Gold, -4)
	assert.Equal(t, currency.Amount{SP: 5}, s.Coins())
	assert.InDelta(t, 0.5, s.Total(), 1e-9)
}

func TestItemEdits(t *testing.T) {
	s := newComposer(t, fixedDraw(), dicetest.New(), nil).NewSession()
	sword := item("sword", "Longsword", "15 gp")

	s.AddItem(sword, "")
	e := s.AddItem(sword, "")
	assert.Equal(t, 2, e.Quantity)
	assert.InDelta(t, 30.0, e.Value.Value, 1e-9)

	e, err := s.SetQuantity("Item.sword", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Quantity)

	e, err = s.SetQuantity("sword", 4)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, s.Total(), 1e-9)
	assert.Equal(t, 4, e.Quantity)

	_, err = s.SetQuantity("missing", 2)
	assert.ErrorIs(t, err, treasure.ErrEntryNotFound)

	require.NoError(t, s.RemoveItem("sword"))
	assert.Empty(t, s.Entries())
	assert.ErrorIs(t, s.RemoveItem("sword"), treasure.ErrEntryNotFound)
}

func TestClear(t *testing.T) {
	s := newComposer(t, fixedDraw(), dicetest.New(), nil).NewSession()
	s.SetCoin(currency.Gold, 10)
	s.Clear()
	assert.Empty(t, s.Entries())
	assert.Equal(t, treasure.StateIdle, s.State())
}

func TestAutogenerate_Converges(t *testing.T) {
	d := fixedDraw(loot.ItemResult(item("gem", "Gem", "10 gp"), 1))
	s := newComposer(t, d, dicetest.New(), nil).NewSession()

	r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{Min: 25, Eligible: tables, MaxAttempts: 10})
	require.NoError(t, err)
	assert.NoError(t, r.Notice)
	assert.Equal(t, treasure.StateConverged, r.State)
	assert.Equal(t, 3, r.Attempts)
	assert.InDelta(t, 30.0, r.Value, 1e-9)
	assert.Equal(t, r.Value, s.Total())
}

func TestAutogenerate_RollsBackOverMax(t *testing.T) {
	d := fixedDraw(loot.ItemResult(item("gem", "Gem", "10 gp"), 1))
	s := newComposer(t, d, dicetest.New(), nil).NewSession()

	r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{Min: 20, Max: 15, Eligible: tables, MaxAttempts: 5})
	require.NoError(t, err)
	assert.ErrorIs(t, r.Notice, treasure.ErrGenerationLimit)
	assert.Equal(t, treasure.StateExhausted, r.State)
	assert.Equal(t, 5, r.Attempts)
	assert.Equal(t, 4, r.Rollbacks)
	assert.InDelta(t, 10.0, s.Total(), 1e-9)
}

func TestAutogenerate_SeedsCoins(t *testing.T) {
	s := newComposer(t, fixedDraw(), dicetest.New().Floats(0.99), nil).NewSession()
	s.AddItem(item("old", "Old", "1 gp"), "")

	r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{Min: 50, CoinPercentage: 30})
	require.NoError(t, err)
	assert.Equal(t, currency.Amount{GP: 15}, r.Seed)
	assert.ErrorIs(t, r.Notice, treasure.ErrNoEligibleSources)
	assert.Equal(t, treasure.StateExhausted, r.State)
	assert.Zero(t, r.Attempts)

	entries := s.Entries()
	require.Len(t, entries, 1, "autogeneration replaces the pile")
	assert.Equal(t, loot.EntryCoins, entries[0].Kind)
}

func TestAutogenerate_DrawFailuresSpendAttempts(t *testing.T) {
	d := drawerFunc(func(context.Context, string) ([]loot.DrawResult, error) { return nil, draw.ErrSourceUnavailable })
	s := newComposer(t, d, dicetest.New(), nil).NewSession()
	r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{Min: 10, Eligible: tables, MaxAttempts: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Attempts)
	assert.ErrorIs(t, r.Notice, treasure.ErrGenerationLimit)
}

func TestAutogenerate_UsesConfiguredLimit(t *testing.T) {
	s := newComposer(t, fixedDraw(), dicetest.New(), nil).NewSession()
	r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{Min: 10, Eligible: tables})
	require.NoError(t, err)
	assert.Equal(t, treasure.DefaultSettings().GenerationLimit, r.Attempts)
}

func TestAutogenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newComposer(t, fixedDraw(), dicetest.New(), nil).NewSession()
	_, err := s.Autogenerate(ctx, treasure.AutogenInput{Min: 10, Eligible: tables})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAutogenerate_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		minValue := rapid.Float64Range(0, 500).Draw(rt, "min")
		maxValue := rapid.SampledFrom([]float64{0, minValue + 20, minValue * 2}).Draw(rt, "max")
		limit := rapid.IntRange(1, 250).Draw(rt, "limit")
		pct := rapid.Float64Range(0, 100).Draw(rt, "pct")

		src := dice.NewSeededSource(seed)
		d := drawerFunc(func(context.Context, string) ([]loot.DrawResult, error) {
			price := []string{"1 gp", "5 gp", "20 sp", "12 gp", "150 cp"}[src.Intn(5)]
			return []loot.DrawResult{loot.ItemResult(item(price, price, price), 1+src.Intn(3))}, nil
		})
		s := newComposer(t, d, src, nil).NewSession()
		r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{
			Min: minValue, Max: maxValue, CoinPercentage: pct, Eligible: tables, MaxAttempts: limit,
		})
		require.NoError(rt, err)
		assert.LessOrEqual(rt, r.Attempts, limit)
		assert.Equal(rt, r.Value, s.Total())
		if r.State == treasure.StateConverged {
			assert.GreaterOrEqual(rt, r.Value, minValue)
		} else {
			assert.ErrorIs(rt, r.Notice, treasure.ErrGenerationLimit)
		}
		if maxValue > 0 {
			assert.LessOrEqual(rt, r.Value, maxValue)
		}
	})
}

func TestAutogenerate_ConvergesWithoutCap(t *testing.T) {
	converged := 0
	for seed := uint64(1); seed <= 50; seed++ {
		src := dice.NewSeededSource(seed)
		d := drawerFunc(func(context.Context, string) ([]loot.DrawResult, error) {
			return []loot.DrawResult{loot.ItemResult(item("gem", "Gem", "5 gp"), 1+src.Intn(4))}, nil
		})
		s := newComposer(t, d, src, nil).NewSession()
		r, err := s.Autogenerate(context.Background(), treasure.AutogenInput{Min: 100, CoinPercentage: 30, Eligible: tables, MaxAttempts: 250})
		require.NoError(t, err)
		if r.State == treasure.StateConverged {
			converged++
		}
	}
	assert.Equal(t, 50, converged)
}

func TestSources(t *testing.T) {
	all := []draw.TableInfo{{ID: "c", Name: "Coins"}, {ID: "a", Name: "Armor"}, {ID: "g", Name: "Gems"}, {ID: "b", Name: "Books"}}
	defaults := []string{"g", "b"}

	assert.Equal(t, []draw.TableInfo{{ID: "b", Name: "Books"}, {ID: "g", Name: "Gems"}}, treasure.AvailableSources(all, defaults, false))
	assert.Equal(t, []string{"Armor", "Books", "Coins", "Gems"}, names(treasure.AvailableSources(all, defaults, true)))
	assert.Equal(t, []string{"Books", "Gems", "Armor", "Coins"}, names(treasure.AutogenListing(all, defaults)))
	assert.Empty(t, treasure.EligibleSources(all, nil))
}

func names(ts []draw.TableInfo) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func TestClampCoinPercentage(t *testing.T) {
	assert.Equal(t, 30.0, treasure.ClampCoinPercentage(0, 30))
	assert.Equal(t, 100.0, treasure.ClampCoinPercentage(140, 30))
	assert.Equal(t, 0.0, treasure.ClampCoinPercentage(-5, 30))
	assert.Equal(t, 45.0, treasure.ClampCoinPercentage(45, 30))
}

func TestSnapshotRestore(t *testing.T) {
	c := newComposer(t, fixedDraw(), dicetest.New(), nil)
	s := c.NewSession()
	s.SetCoin(currency.Platinum, 2)
	s.AddItem(item("gem", "Gem", "10 gp"), "")

	r := c.Restore(s.Snapshot())
	assert.Equal(t, s.ID(), r.ID())
	assert.Equal(t, s.State(), r.State())
	assert.Equal(t, s.Entries(), r.Entries())
	assert.InDelta(t, 30.0, r.Total(), 1e-9)
}
