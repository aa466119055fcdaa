package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/dice"
)

// RegisterModules installs the loot global into L:
//
//	loot.roll(expr)   rolls a dice expression and returns the total
//	loot.random(n)    returns a uniform integer in [1, n]
//	loot.log(msg)     writes msg to the debug log
func RegisterModules(L *lua.LState, roller *dice.Roller, logger *zap.Logger) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"roll": func(L *lua.LState) int {
			expr := L.CheckString(1)
			result, err := roller.RollExpr(expr)
			if err != nil {
				L.RaiseError("loot.roll: %v", err)
				return 0
			}
			L.Push(lua.LNumber(result.Total()))
			return 1
		},
		"random": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n < 1 {
				L.ArgError(1, "must be >= 1")
				return 0
			}
			L.Push(lua.LNumber(roller.Source().Intn(n) + 1))
			return 1
		},
		"log": func(L *lua.LState) int {
			logger.Debug("lua", zap.String("message", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("loot", mod)
}
