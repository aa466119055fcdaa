package currency

import (
	"math"

	"github.com/cory-johannsen/lootable/internal/game/dice"
)

// Outcome is a named wealth profile selected before the base roll.
type Outcome int

const (
	OutcomeNoCoin Outcome = iota
	OutcomeDoubleCoin
	OutcomeTripleCoin
	OutcomeHalfAmount
	OutcomeTenPercentAmount
	OutcomeNormal
)

var outcomeNames = map[Outcome]string{
	OutcomeNoCoin:           "penniless",
	OutcomeDoubleCoin:       "affluent",
	OutcomeTripleCoin:       "rich",
	OutcomeHalfAmount:       "poor",
	OutcomeTenPercentAmount: "squalid",
	OutcomeNormal:           "normal",
}

var outcomeMultipliers = map[Outcome]float64{
	OutcomeNoCoin:           0,
	OutcomeDoubleCoin:       2,
	OutcomeTripleCoin:       3,
	OutcomeHalfAmount:       0.5,
	OutcomeTenPercentAmount: 0.1,
	OutcomeNormal:           1,
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Multiplier returns the factor applied to the base amount for o.
func (o Outcome) Multiplier() float64 {
	return outcomeMultipliers[o]
}

// Profile holds the five configured outcome weights as percentages. The
// normal outcome receives whatever remains of 100.
type Profile struct {
	NoCoin           float64
	DoubleCoin       float64
	TripleCoin       float64
	HalfAmount       float64
	TenPercentAmount float64
}

// ProfileFromFractions builds a Profile from 0–1 chances as stored in
// configuration.
func ProfileFromFractions(noCoin, double, triple, half, tenPercent float64) Profile {
	return Profile{
		NoCoin:           noCoin * 100,
		DoubleCoin:       double * 100,
		TripleCoin:       triple * 100,
		HalfAmount:       half * 100,
		TenPercentAmount: tenPercent * 100,
	}
}

// OutcomeWeight pairs an outcome with its percentage weight.
type OutcomeWeight struct {
	Outcome Outcome
	Weight  float64
}

// Weights returns all six outcomes in evaluation order. The normal weight is
// 100 minus the configured sum, floored at 0.
func (p Profile) Weights() []OutcomeWeight {
	weights := []OutcomeWeight{
		{OutcomeNoCoin, p.NoCoin},
		{OutcomeDoubleCoin, p.DoubleCoin},
		{OutcomeTripleCoin, p.TripleCoin},
		{OutcomeHalfAmount, p.HalfAmount},
		{OutcomeTenPercentAmount, p.TenPercentAmount},
	}
	sum := 0.0
	for _, w := range weights {
		sum += w.Weight
	}
	return append(weights, OutcomeWeight{OutcomeNormal, math.Max(0, 100-sum)})
}

// Select walks the weights in order and returns the first outcome whose
// cumulative weight exceeds draw. When every weight is exhausted the normal
// outcome is returned.
//
// Precondition: draw is in [0, 100).
func (p Profile) Select(draw float64) Outcome {
	cumulative := 0.0
	for _, w := range p.Weights() {
		cumulative += w.Weight
		if draw < cumulative {
			return w.Outcome
		}
	}
	return OutcomeNormal
}

// BaseRoll is the result of RollBaseAmount. Outcome, Roll, Base and
// Multiplier are advisory trace data.
type BaseRoll struct {
	Amount     int
	IsZero     bool
	Outcome    Outcome
	Weight     float64
	Roll       int
	Base       int
	Multiplier float64
}

// EffectivePower maps a power level of 0 to 1/8.
func EffectivePower(power float64) float64 {
	if power == 0 {
		return 1.0 / 8
	}
	return power
}

// RollBaseAmount mints a flat copper amount for a creature of the given power
// level.
//
// Precondition: power >= 0; perCoin > 0.
// Postcondition: IsZero is true iff the noCoin outcome fired, in which case
// Amount == 0.
func RollBaseAmount(power, perCoin float64, profile Profile, src dice.Source) BaseRoll {
	outcome := profile.Select(src.Float64() * 100)
	weight := 0.0
	for _, w := range profile.Weights() {
		if w.Outcome == outcome {
			weight = w.Weight
		}
	}
	if outcome == OutcomeNoCoin {
		return BaseRoll{IsZero: true, Outcome: outcome, Weight: weight}
	}

	roll := 100 + src.Intn(201)
	base := int(math.Round(float64(roll) * EffectivePower(power) * perCoin))
	multiplier := outcome.Multiplier()
	return BaseRoll{
		Amount:     int(math.Round(float64(base) * multiplier)),
		Outcome:    outcome,
		Weight:     weight,
		Roll:       roll,
		Base:       base,
		Multiplier: multiplier,
	}
}
