package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/dice/dicetest"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/scripting"
)

func writeScripts(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func load(t *testing.T, dir string, limit int, src dice.Source) (*scripting.TableSource, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	s, err := scripting.LoadDir(dir, limit, dice.NewLoggedRoller(src, logger), logger)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, logs
}

const hoard = `
name = "Dragon Hoard"

function draw()
	local out = {}
	table.insert(out, { collection = "Item", id = "gem", quantity = loot.roll("1d4+1") })
	if loot.random(2) == 2 then
		table.insert(out, { type = "text", text = "A cursed idol" })
	end
	loot.log("hoard drawn")
	return out
end
`

func TestTableSource_Draw(t *testing.T) {
	dir := writeScripts(t, map[string]string{"hoard.lua": hoard, "readme.txt": "ignored"})
	s, logs := load(t, dir, 0, dicetest.New().Ints(2, 1))

	raws, err := s.Draw(context.Background(), "hoard")
	require.NoError(t, err)
	assert.Equal(t, []draw.RawResult{
		{Collection: "Item", ID: "gem", Quantity: 4},
		{Type: "text", Text: "A cursed idol"},
	}, raws)
	assert.NotZero(t, logs.FilterMessage("lua").Len())
}

func TestTableSource_Tables(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"hoard.lua":  hoard,
		"bandit.lua": `function draw() return {} end`,
	})
	s, _ := load(t, dir, 0, dicetest.New())
	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []draw.TableInfo{{ID: "bandit", Name: "bandit"}, {ID: "hoard", Name: "Dragon Hoard"}}, tables)
}

func TestTableSource_UnknownTable(t *testing.T) {
	s, _ := load(t, writeScripts(t, nil), 0, dicetest.New())
	_, err := s.Draw(context.Background(), "nope")
	assert.ErrorIs(t, err, draw.ErrSourceNotFound)
}

func TestTableSource_RuntimeErrorIsUnavailable(t *testing.T) {
	dir := writeScripts(t, map[string]string{"bad.lua": `function draw() error("boom") end`})
	s, logs := load(t, dir, 0, dicetest.New())
	_, err := s.Draw(context.Background(), "bad")
	assert.ErrorIs(t, err, draw.ErrSourceUnavailable)
	assert.Equal(t, 1, logs.FilterMessage("lua table failed").Len())
}

func TestTableSource_InstructionBudgetPerDraw(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"spin.lua": `function draw() while true do end end`,
		"ok.lua":   `function draw() local n = 0 for i = 1, 50 do n = n + 1 end return {{ text = "fine" }} end`,
	})
	s, _ := load(t, dir, 1_000, dicetest.New())

	_, err := s.Draw(context.Background(), "spin")
	assert.ErrorIs(t, err, draw.ErrSourceUnavailable)
	for range 3 {
		raws, err := s.Draw(context.Background(), "ok")
		require.NoError(t, err)
		assert.Equal(t, []draw.RawResult{{Text: "fine"}}, raws)
	}
}

func TestTableSource_OversizedRollFails(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"huge.lua": `function draw() return {{ id = "gem", quantity = loot.roll("20000000d6") }} end`,
	})
	s, _ := load(t, dir, 50, dicetest.New())
	_, err := s.Draw(context.Background(), "huge")
	assert.ErrorIs(t, err, draw.ErrSourceUnavailable)
}

func TestTableSource_BadReturnShape(t *testing.T) {
	dir := writeScripts(t, map[string]string{"num.lua": `function draw() return 42 end`})
	s, _ := load(t, dir, 0, dicetest.New())
	_, err := s.Draw(context.Background(), "num")
	assert.ErrorIs(t, err, draw.ErrSourceUnavailable)
}

func TestTableSource_NilReturnIsEmpty(t *testing.T) {
	dir := writeScripts(t, map[string]string{"none.lua": `function draw() end`})
	s, _ := load(t, dir, 0, dicetest.New())
	raws, err := s.Draw(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestLoadDir_Errors(t *testing.T) {
	logger := zap.NewNop()
	roller := dice.NewLoggedRoller(dicetest.New(), logger)

	_, err := scripting.LoadDir(filepath.Join(t.TempDir(), "missing"), 0, roller, logger)
	assert.Error(t, err)

	_, err = scripting.LoadDir(writeScripts(t, map[string]string{"nodraw.lua": `x = 1`}), 0, roller, logger)
	assert.ErrorContains(t, err, "does not define draw()")

	_, err = scripting.LoadDir(writeScripts(t, map[string]string{"syntax.lua": `function draw(`}), 0, roller, logger)
	assert.Error(t, err)

	_, err = scripting.LoadDir(writeScripts(t, map[string]string{"sandbox.lua": `os.exit(1)`}), 0, roller, logger)
	assert.Error(t, err)
}

func TestLua_RandomRejectsZero(t *testing.T) {
	dir := writeScripts(t, map[string]string{"zero.lua": `function draw() return {{ text = tostring(loot.random(0)) }} end`})
	s, _ := load(t, dir, 0, dicetest.New())
	_, err := s.Draw(context.Background(), "zero")
	assert.ErrorIs(t, err, draw.ErrSourceUnavailable)
}
