package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/draw"
)

// drawHook is the global function each table script must define.
const drawHook = "draw"

// script is one loaded table. Each has its own VM; mu serializes draws.
type script struct {
	mu   sync.Mutex
	info draw.TableInfo
	L    *lua.LState
}

// TableSource draws from Lua table scripts. A script's id is its file name
// without the .lua extension; its display name is the global `name` when
// set.
//
// A script's draw() returns a list of tables with the optional fields type,
// collection, id, text and quantity.
type TableSource struct {
	scripts   map[string]*script
	instLimit int
	logger    *zap.Logger
}

// LoadDir loads every *.lua file in dir.
//
// Precondition: roller and logger are non-nil; instLimit <= 0 uses
// DefaultInstructionLimit.
// Postcondition: returns an error when a script fails to load or does not
// define draw().
func LoadDir(dir string, instLimit int, roller *dice.Roller, logger *zap.Logger) (*TableSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	s := &TableSource{scripts: make(map[string]*script), instLimit: instLimit, logger: logger}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		sc, err := s.load(path, roller, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.scripts[sc.info.ID] = sc
	}
	return s, nil
}

func (s *TableSource) load(path string, roller *dice.Roller, logger *zap.Logger) (*script, error) {
	L := NewSandboxedState()
	RegisterModules(L, roller, logger)
	done := withBudget(context.Background(), L, s.instLimit)
	err := L.DoFile(path)
	done()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
	}
	if L.GetGlobal(drawHook).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("scripting: %q does not define %s()", path, drawHook)
	}
	id := strings.TrimSuffix(filepath.Base(path), ".lua")
	name := id
	if v, ok := L.GetGlobal("name").(lua.LString); ok && v != "" {
		name = string(v)
	}
	return &script{info: draw.TableInfo{ID: id, Name: name}, L: L}, nil
}

// Close releases every VM.
func (s *TableSource) Close() {
	for _, sc := range s.scripts {
		sc.mu.Lock()
		sc.L.Close()
		sc.mu.Unlock()
	}
}

// Tables implements draw.Lister.
func (s *TableSource) Tables(context.Context) ([]draw.TableInfo, error) {
	out := make([]draw.TableInfo, 0, len(s.scripts))
	for _, sc := range s.scripts {
		out = append(out, sc.info)
	}
	draw.SortTables(out)
	return out, nil
}

// Draw implements draw.Source. Script errors, including an exhausted
// instruction budget, are reported as draw.ErrSourceUnavailable.
func (s *TableSource) Draw(ctx context.Context, sourceID string) ([]draw.RawResult, error) {
	sc, ok := s.scripts[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", draw.ErrSourceNotFound, sourceID)
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	done := withBudget(ctx, sc.L, s.instLimit)
	defer done()
	err := sc.L.CallByParam(lua.P{Fn: sc.L.GetGlobal(drawHook), NRet: 1, Protect: true})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("lua table failed", zap.String("table", sourceID), zap.Error(err))
		return nil, fmt.Errorf("%w: %q: %w", draw.ErrSourceUnavailable, sourceID, err)
	}
	ret := sc.L.Get(-1)
	sc.L.Pop(1)

	raws, err := toRawResults(ret)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", draw.ErrSourceUnavailable, sourceID, err)
	}
	s.logger.Debug("lua table drawn", zap.String("table", sourceID), zap.Int("results", len(raws)))
	return raws, nil
}

func toRawResults(v lua.LValue) ([]draw.RawResult, error) {
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("draw() returned %s, want table", v.Type())
	}
	var out []draw.RawResult
	var errs []error
	for i := 1; i <= tbl.Len(); i++ {
		row, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			errs = append(errs, fmt.Errorf("result %d is not a table", i))
			continue
		}
		out = append(out, draw.RawResult{
			Type:       lua.LVAsString(row.RawGetString("type")),
			Collection: lua.LVAsString(row.RawGetString("collection")),
			ID:         lua.LVAsString(row.RawGetString("id")),
			Text:       lua.LVAsString(row.RawGetString("text")),
			Quantity:   int(lua.LVAsNumber(row.RawGetString("quantity"))),
		})
	}
	return out, errors.Join(errs...)
}
