package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/lootable/internal/config"
	"github.com/cory-johannsen/lootable/internal/engine"
	"github.com/cory-johannsen/lootable/internal/game/dice/dicetest"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

const gemsYAML = `
id: gems
name: Gems
results:
  - id: ruby
    text: Ruby
`

const gemsLua = `
name = "Scripted Gems"

function draw()
	return {{ id = "emerald", text = "Emerald" }}
end
`

const itemsYAML = `
items:
  - id: ruby
    name: Ruby
    price: "50 gp"
  - id: emerald
    name: Emerald
    price: "100 gp"
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestBuild_ScriptsTakePrecedence(t *testing.T) {
	root := t.TempDir()
	tables, scripts, items := filepath.Join(root, "tables"), filepath.Join(root, "scripts"), filepath.Join(root, "items")
	writeFile(t, tables, "gems.yaml", gemsYAML)
	writeFile(t, scripts, "gems.lua", gemsLua)
	writeFile(t, items, "items.yaml", itemsYAML)

	logger := zap.NewNop()
	reg, err := engine.LoadItems(config.CatalogConfig{ItemsDir: items}, logger)
	require.NoError(t, err)
	e, err := engine.Build(config.ScriptingConfig{TablesDir: tables, ScriptsDir: scripts}, reg, nil, dicetest.New(), logger)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	got, err := e.Processor.Draw(context.Background(), "gems")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, loot.KindItem, got[0].Kind)
	assert.Equal(t, "Emerald", got[0].Item.Name)

	infos, err := e.Sources.Tables(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestBuild_YAMLOnly(t *testing.T) {
	root := t.TempDir()
	tables := filepath.Join(root, "tables")
	writeFile(t, tables, "gems.yaml", gemsYAML)

	e, err := engine.Build(config.ScriptingConfig{TablesDir: tables, ScriptsDir: filepath.Join(root, "absent")},
		nil, nil, dicetest.New(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)

	infos, err := e.Sources.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []draw.TableInfo{{ID: "gems", Name: "Gems"}}, infos)
}

func TestBuild_MissingDirsWarn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	root := t.TempDir()
	e, err := engine.Build(config.ScriptingConfig{TablesDir: filepath.Join(root, "none")}, nil, nil, dicetest.New(), zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("roll table directory missing").Len())
	_, err = e.Processor.Draw(context.Background(), "gems")
	assert.ErrorIs(t, err, draw.ErrSourceNotFound)
}

func TestBuild_RejectsFileAsDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tables", "not a dir")
	_, err := engine.Build(config.ScriptingConfig{TablesDir: filepath.Join(root, "tables")}, nil, nil, dicetest.New(), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadItems_EmptyDir(t *testing.T) {
	reg, err := engine.LoadItems(config.CatalogConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, reg.All())
}

func TestCatalogs_SRDDisabled(t *testing.T) {
	cs, err := engine.Catalogs(config.CatalogConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, cs)
}
