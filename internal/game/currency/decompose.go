package currency

import (
	"math"

	"github.com/cory-johannsen/lootable/internal/game/dice"
)

const (
	// softCap bounds accumulated gold and silver during decomposition.
	softCap = 200
	// capJitter is the exclusive upper bound of the random shortfall applied
	// when a conversion would cross softCap.
	capJitter = 6
	// settleThreshold is the copper count at or below which decomposition
	// stops.
	settleThreshold = 100
)

// ApplyMinimumFloor adds minimum to amount when 0 < amount < minimum.
// The floor is additive so the original roll keeps its spread.
func ApplyMinimumFloor(amount, minimum int) int {
	if amount > 0 && amount < minimum {
		return amount + minimum
	}
	return amount
}

// Decompose floors amount and splits the resulting copper count into a
// randomized denomination mix.
//
// Precondition: amount >= 0.
// Postcondition: result.CopperValue() == ApplyMinimumFloor(amount, minimum).
func Decompose(amount, minimum int, src dice.Source) Amount {
	out, _ := decompose(ApplyMinimumFloor(amount, minimum), src)
	return out
}

// decompose runs the conversion passes and reports how many were taken.
func decompose(cp int, src dice.Source) (Amount, int) {
	var out Amount
	passes := 0
	for {
		passes++
		converted := 0

		if cp >= copperPer[Platinum] {
			n := int(math.Floor(float64(cp) * src.Float64() / float64(copperPer[Platinum])))
			cp -= n * copperPer[Platinum]
			out.PP += n
			converted += n
		}
		if cp >= copperPer[Gold] && out.GP < softCap {
			n := cappedIncrement(cp, copperPer[Gold], out.GP, src)
			cp -= n * copperPer[Gold]
			out.GP += n
			converted += n
		}
		if cp >= copperPer[Silver] && out.SP < softCap {
			n := cappedIncrement(cp, copperPer[Silver], out.SP, src)
			cp -= n * copperPer[Silver]
			out.SP += n
			converted += n
		}

		if cp <= settleThreshold || converted == 0 {
			break
		}
	}
	out.CP = cp
	return out, passes
}

// cappedIncrement picks a random number of coins worth up to cp copper at
// unit copper each. When held plus the pick would cross softCap, the pick is
// shortened to the cap minus a random jitter. It never returns a negative
// count.
func cappedIncrement(cp, unit, held int, src dice.Source) int {
	n := int(math.Floor(float64(cp) * src.Float64() / float64(unit)))
	if held+n > softCap {
		n = softCap - held - src.Intn(capJitter)
	}
	return max(n, 0)
}
