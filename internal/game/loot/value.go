package loot

import "github.com/cory-johannsen/lootable/internal/game/currency"

// Valuer is anything with a gp value.
type Valuer interface {
	GoldValue() float64
}

// ValueOf sums the gp value of entries and rounds to two decimals.
func ValueOf[T Valuer](entries []T) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.GoldValue()
	}
	return currency.RoundGold(total)
}
