package loot

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cory-johannsen/lootable/internal/game/currency"
)

// ErrMalformedPrice is returned by ParsePrice when a price is present but
// none of the supported shapes can be read from it.
var ErrMalformedPrice = errors.New("loot: malformed price")

// Price is the structured price shape. ValueInGP, when set, overrides the
// conversion from Value and Denomination.
type Price struct {
	Value        float64  `json:"value" yaml:"value"`
	Denomination string   `json:"denomination" yaml:"denomination"`
	ValueInGP    *float64 `json:"valueInGp,omitempty" yaml:"valueInGp,omitempty"`
}

// MonetaryValue is a price in gp alongside its original denomination.
type MonetaryValue struct {
	Value        float64 `json:"value"`
	DisplayValue float64 `json:"displayValue"`
	Currency     string  `json:"currency"`
}

// Times scales m by qty and rounds both amounts to two decimals.
func (m MonetaryValue) Times(qty int) MonetaryValue {
	return MonetaryValue{
		Value:        currency.RoundGold(m.Value * float64(qty)),
		DisplayValue: currency.RoundGold(m.DisplayValue * float64(qty)),
		Currency:     m.Currency,
	}
}

func (m MonetaryValue) String() string {
	return fmt.Sprintf("%s %s", strconv.FormatFloat(m.DisplayValue, 'f', -1, 64), m.Currency)
}

var pricePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(pp|gp|sp|cp)?`)

var zeroValue = MonetaryValue{Currency: string(currency.Gold)}

// ParsePrice reads a unit price from any supported shape: a structured
// {value, denomination[, valueInGp]} object, a per-denomination object such
// as {sp: 5}, a string such as "15 gp", or a bare number.
//
// Postcondition: a nil price yields the zero gp value and a nil error; an
// unreadable price yields the zero gp value and ErrMalformedPrice.
func ParsePrice(price any) (MonetaryValue, error) {
	switch p := price.(type) {
	case nil:
		return zeroValue, nil
	case Price:
		return structuredPrice(p.Value, p.Denomination, p.ValueInGP), nil
	case *Price:
		if p == nil {
			return zeroValue, nil
		}
		return structuredPrice(p.Value, p.Denomination, p.ValueInGP), nil
	case map[string]any:
		return objectPrice(p)
	case string:
		return stringPrice(p)
	}
	if n, ok := number(price); ok {
		return MonetaryValue{Value: n, DisplayValue: n, Currency: string(currency.Gold)}, nil
	}
	return zeroValue, fmt.Errorf("%w: unsupported type %T", ErrMalformedPrice, price)
}

func structuredPrice(value float64, denomination string, inGP *float64) MonetaryValue {
	d := currency.Gold
	if parsed, ok := currency.ParseDenomination(denomination); ok {
		d = parsed
	}
	gp := currency.Convert(value, d, currency.Gold)
	if inGP != nil {
		gp = *inGP
	}
	return MonetaryValue{Value: gp, DisplayValue: value, Currency: string(d)}
}

func objectPrice(p map[string]any) (MonetaryValue, error) {
	if raw, ok := p["value"]; ok {
		value, _ := number(raw)
		denomination, _ := p["denomination"].(string)
		var inGP *float64
		if rawGP, ok := p["valueInGp"]; ok {
			if g, ok := number(rawGP); ok {
				inGP = &g
			}
		}
		return structuredPrice(value, denomination, inGP), nil
	}
	for _, d := range currency.Denominations {
		raw, ok := p[string(d)]
		if !ok {
			continue
		}
		value, _ := number(raw)
		return MonetaryValue{
			Value:        currency.Convert(value, d, currency.Gold),
			DisplayValue: value,
			Currency:     string(d),
		}, nil
	}
	return zeroValue, fmt.Errorf("%w: object without value or denomination key", ErrMalformedPrice)
}

func stringPrice(s string) (MonetaryValue, error) {
	clean := strings.ReplaceAll(s, ",", "")
	if m := pricePattern.FindStringSubmatch(clean); m != nil {
		value, _ := strconv.ParseFloat(m[1], 64)
		d := currency.Gold
		if m[2] != "" {
			d, _ = currency.ParseDenomination(m[2])
		}
		return MonetaryValue{
			Value:        currency.Convert(value, d, currency.Gold),
			DisplayValue: value,
			Currency:     string(d),
		}, nil
	}
	return zeroValue, fmt.Errorf("%w: %q", ErrMalformedPrice, s)
}

// number reads a numeric value from decoded JSON or YAML data.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ValueOfItem prices qty units of item. Malformed prices count as zero.
func ValueOfItem(item Item, qty int) MonetaryValue {
	m, _ := ParsePrice(item.Price)
	return m.Times(qty)
}
