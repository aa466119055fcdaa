// Package currency holds the four-denomination coin model and the randomized
// routines that mint and split coin for generated loot.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Denomination is one of the four coin units.
type Denomination string

const (
	Platinum Denomination = "pp"
	Gold     Denomination = "gp"
	Silver   Denomination = "sp"
	Copper   Denomination = "cp"
)

// Denominations lists the coin units from most to least valuable.
var Denominations = []Denomination{Platinum, Gold, Silver, Copper}

// copperPer is the copper-equivalent of one coin of each denomination.
var copperPer = map[Denomination]int{
	Platinum: 1000,
	Gold:     100,
	Silver:   10,
	Copper:   1,
}

// goldRate is the gp-equivalent of one coin of each denomination.
var goldRate = map[Denomination]float64{
	Platinum: 10,
	Gold:     1,
	Silver:   0.1,
	Copper:   0.01,
}

// ParseDenomination normalizes s ("GP", " sp ") into a Denomination.
//
// Postcondition: ok is false iff s names no known denomination.
func ParseDenomination(s string) (Denomination, bool) {
	d := Denomination(strings.ToLower(strings.TrimSpace(s)))
	_, ok := goldRate[d]
	return d, ok
}

// Convert expresses amount of from-coins in to-coins without rounding.
// Unknown denominations are treated as gp.
func Convert(amount float64, from, to Denomination) float64 {
	fr, ok := goldRate[from]
	if !ok {
		fr = 1
	}
	tr, ok := goldRate[to]
	if !ok {
		tr = 1
	}
	return amount * (fr / tr)
}

// RoundGold rounds a gp value to two decimal places.
func RoundGold(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Amount is a coin purse broken into denominations.
type Amount struct {
	PP int `json:"pp" yaml:"pp"`
	GP int `json:"gp" yaml:"gp"`
	SP int `json:"sp" yaml:"sp"`
	CP int `json:"cp" yaml:"cp"`
}

// CopperValue returns the copper-equivalent total of a.
func (a Amount) CopperValue() int {
	return a.PP*copperPer[Platinum] + a.GP*copperPer[Gold] + a.SP*copperPer[Silver] + a.CP
}

// GoldValue returns the gp-equivalent of a rounded to two decimals.
func (a Amount) GoldValue() float64 {
	v := float64(a.PP)*goldRate[Platinum] + float64(a.GP) + float64(a.SP)*goldRate[Silver] + float64(a.CP)*goldRate[Copper]
	return RoundGold(v)
}

// IsZero reports whether a holds no coin at all.
func (a Amount) IsZero() bool {
	return a == Amount{}
}

// Add returns the denomination-wise sum of a and b.
func (a Amount) Add(b Amount) Amount {
	return Amount{PP: a.PP + b.PP, GP: a.GP + b.GP, SP: a.SP + b.SP, CP: a.CP + b.CP}
}

// Get returns the coin count for d; unknown denominations yield 0.
func (a Amount) Get(d Denomination) int {
	switch d {
	case Platinum:
		return a.PP
	case Gold:
		return a.GP
	case Silver:
		return a.SP
	case Copper:
		return a.CP
	}
	return 0
}

// With returns a copy of a with the count for d replaced by n.
func (a Amount) With(d Denomination, n int) Amount {
	switch d {
	case Platinum:
		a.PP = n
	case Gold:
		a.GP = n
	case Silver:
		a.SP = n
	case Copper:
		a.CP = n
	}
	return a
}

// String renders the non-zero denominations as "12 pp • 3 gp • 40 cp".
// An empty purse renders as "0 cp".
func (a Amount) String() string {
	var parts []string
	for _, d := range Denominations {
		if n := a.Get(d); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, d))
		}
	}
	if len(parts) == 0 {
		return "0 cp"
	}
	return strings.Join(parts, " • ")
}
