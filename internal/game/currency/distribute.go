package currency

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/lootable/internal/game/dice"
)

const (
	// platinumThreshold is the whole-gold value from which a share is moved
	// into platinum.
	platinumThreshold = 20
	startingChance    = 80
	chanceDecay       = 5
)

// Distribution is the result of DistributeGold. Steps is an advisory trace.
type Distribution struct {
	Amount Amount
	Steps  []string
}

// DistributeGold splits a gp value into a randomized coin mix. Between 20% and
// 80% of the whole gold moves to platinum in 10 gp blocks once the whole
// gold reaches 20. The fractional part becomes silver and copper. A decaying
// chance loop then breaks further gold into silver and copper until a soft
// cap is crossed, the chance runs out, or no gold is left to break.
//
// Precondition: gold >= 0.
// Postcondition: result.Amount.GoldValue() == RoundGold(gold).
func DistributeGold(gold float64, src dice.Source) Distribution {
	var d Distribution
	start := RoundGold(gold)
	whole := int(math.Floor(start))
	silverCap := whole + 10
	copperCap := whole + 100

	if whole >= platinumThreshold {
		pct := 20 + src.Float64()*60
		platinumGold := int(math.Round(float64(whole) * pct / 100))
		rounded := int(math.Round(float64(platinumGold)/10)) * 10
		d.Amount.PP = rounded / 10
		d.Amount.GP = whole - rounded
		d.Steps = append(d.Steps, fmt.Sprintf("platinum %.0f%%: %d gp as %d pp", pct, rounded, d.Amount.PP))
	} else {
		d.Amount.GP = whole
	}

	if frac := RoundGold(start - float64(whole)); frac > 0 {
		cents := int(math.Round(frac * 100))
		d.Amount.SP += cents / 10
		d.Amount.CP += cents % 10
		d.Steps = append(d.Steps, fmt.Sprintf("fraction %.2f gp as %d sp %d cp", frac, cents/10, cents%10))
	}

	step := int(math.Ceil(start / 100))
	for chance := startingChance; chance > 0; chance -= chanceDecay {
		if step <= 0 || d.Amount.GP < step {
			break
		}
		if src.Float64()*100 >= float64(chance) {
			d.Steps = append(d.Steps, fmt.Sprintf("chance %d%% failed", chance))
			break
		}
		copperPct := (src.Intn(4) + 1) * 10
		total := step * copperPer[Gold]
		copper := total * copperPct / 100
		silver := (total - copper) / copperPer[Silver]
		exceeds := d.Amount.SP+silver > silverCap || d.Amount.CP+copper > copperCap

		d.Amount.GP -= step
		d.Amount.SP += silver
		d.Amount.CP += copper
		d.Steps = append(d.Steps, fmt.Sprintf("chance %d%%: %d gp as %d sp %d cp", chance, step, silver, copper))
		if exceeds {
			break
		}
	}
	return d
}

// PurseRange is an inclusive gp range used when adding coins to a pile.
type PurseRange struct {
	Min float64
	Max float64
}

// PurseSizes maps the named coin amounts to their gp ranges.
var PurseSizes = map[string]PurseRange{
	"purse":  {Min: 1, Max: 10},
	"sack":   {Min: 10, Max: 50},
	"coffer": {Min: 50, Max: 200},
	"chest":  {Min: 200, Max: 500},
	"vault":  {Min: 500, Max: 1000},
}

// PurseNames lists PurseSizes from smallest to largest.
var PurseNames = []string{"purse", "sack", "coffer", "chest", "vault"}

// RandomCoins rolls a gp value in the named purse range and returns it either
// spread across denominations (coinType "random") or as whole coins of a
// single denomination.
//
// Postcondition: ok is false iff size or coinType is unknown.
func RandomCoins(size, coinType string, src dice.Source) (Amount, bool) {
	r, ok := PurseSizes[size]
	if !ok {
		return Amount{}, false
	}
	gold := RoundGold(src.Float64()*(r.Max-r.Min) + r.Min)
	if coinType == "random" {
		return DistributeGold(gold, src).Amount, true
	}
	d, ok := ParseDenomination(coinType)
	if !ok {
		return Amount{}, false
	}
	return Amount{}.With(d, int(math.Floor(Convert(gold, Gold, d)+1e-9))), true
}
