// Package engine assembles draw sources and item catalogs from configuration.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/clients/srd"
	"github.com/cory-johannsen/lootable/internal/config"
	"github.com/cory-johannsen/lootable/internal/game/catalog"
	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/table"
	"github.com/cory-johannsen/lootable/internal/scripting"
)

// Engine holds the assembled draw pipeline.
type Engine struct {
	Roller    *dice.Roller
	Sources   *draw.Fallback
	Processor *draw.Processor
	scripts   *scripting.TableSource
}

// Close releases the Lua states.
func (e *Engine) Close() {
	if e.scripts != nil {
		e.scripts.Close()
	}
}

// LoadItems loads the YAML world items in cfg.ItemsDir into a new registry.
// An empty ItemsDir yields an empty registry.
func LoadItems(cfg config.CatalogConfig, logger *zap.Logger) (*catalog.Registry, error) {
	reg := catalog.NewRegistry()
	if cfg.ItemsDir == "" {
		return reg, nil
	}
	n, err := reg.LoadItemsDir(cfg.ItemsDir)
	if err != nil {
		return nil, err
	}
	logger.Info("world items loaded", zap.String("dir", cfg.ItemsDir), zap.Int("count", n))
	return reg, nil
}

// Catalogs returns the enumerable catalogs enabled by cfg.
func Catalogs(cfg config.CatalogConfig, logger *zap.Logger) ([]draw.Catalog, error) {
	var out []draw.Catalog
	if cfg.SRDEnabled {
		c, err := srd.New(&srd.Config{BaseURL: cfg.SRDBaseURL, HTTPTimeout: cfg.SRDTimeout, CacheTTL: cfg.SRDCacheTTL}, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Build loads the YAML and Lua tables and wires them through a resolver
// over registry and catalogs. Lua tables take precedence; YAML tables serve
// as the fallback. Missing table directories are skipped.
//
// Precondition: src and logger are non-nil.
func Build(cfg config.ScriptingConfig, registry draw.Catalog, catalogs []draw.Catalog, src dice.Source, logger *zap.Logger) (*Engine, error) {
	e := &Engine{Roller: dice.NewLoggedRoller(src, logger)}
	fallback := &draw.Fallback{Logger: logger}

	if ok, err := dirExists(cfg.TablesDir); err != nil {
		return nil, err
	} else if ok {
		tables, err := table.LoadDir(cfg.TablesDir)
		if err != nil {
			return nil, err
		}
		ts, err := table.NewSource(tables, e.Roller, logger)
		if err != nil {
			return nil, err
		}
		fallback.Secondary = ts
		logger.Info("roll tables loaded", zap.String("dir", cfg.TablesDir), zap.Int("count", len(tables)))
	} else {
		logger.Warn("roll table directory missing", zap.String("dir", cfg.TablesDir))
	}

	if ok, err := dirExists(cfg.ScriptsDir); err != nil {
		return nil, err
	} else if ok {
		ss, err := scripting.LoadDir(cfg.ScriptsDir, cfg.InstructionLimit, e.Roller, logger)
		if err != nil {
			return nil, err
		}
		e.scripts = ss
		fallback.Primary = ss
	}

	e.Sources = fallback
	e.Processor = draw.NewProcessor(fallback, draw.NewResolver(registry, catalogs, logger), logger)
	return e, nil
}

func dirExists(dir string) (bool, error) {
	if dir == "" {
		return false, nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %q: %w", dir, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%q is not a directory", dir)
	}
	return true, nil
}
