package loot

import (
	"github.com/cory-johannsen/lootable/internal/game/currency"
)

// EntryKind tags a PileEntry.
type EntryKind string

const (
	EntryCoins EntryKind = "coins"
	EntryItem  EntryKind = "item"
)

// CoinsKey is the grouping key shared by every coin entry.
const CoinsKey = "coins"

// MaxQuantity bounds the units on one pile line. Exported containers become
// one inventory record per unit.
const MaxQuantity = 1000

func pileQuantity(qty int) int {
	return min(atLeastOne(qty), MaxQuantity)
}

// PileEntry is one line of a treasure pile.
type PileEntry struct {
	Kind     EntryKind       `json:"kind"`
	Coins    currency.Amount `json:"coins,omitempty"`
	Item     *Item           `json:"item,omitempty"`
	Ref      string          `json:"ref,omitempty"`
	Quantity int             `json:"quantity"`
	Value    MonetaryValue   `json:"value"`
}

// CoinEntry wraps a coin amount.
func CoinEntry(a currency.Amount) PileEntry {
	return PileEntry{
		Kind:     EntryCoins,
		Coins:    a,
		Quantity: 1,
		Value:    MonetaryValue{Value: a.GoldValue(), DisplayValue: a.GoldValue(), Currency: string(currency.Gold)},
	}
}

// ItemEntry wraps qty units of item, clamped to [1, MaxQuantity]. An empty
// ref falls back to Identity(item).
func ItemEntry(item Item, ref string, qty int) PileEntry {
	qty = pileQuantity(qty)
	if ref == "" {
		ref = Identity(item)
	}
	rec := item.Clone()
	rec.Quantity = qty
	return PileEntry{
		Kind:     EntryItem,
		Item:     &rec,
		Ref:      ref,
		Quantity: qty,
		Value:    ValueOfItem(rec, qty),
	}
}

// Key returns the grouping key of e.
func (e PileEntry) Key() string {
	if e.Kind == EntryCoins {
		return CoinsKey
	}
	if e.Ref != "" {
		return e.Ref
	}
	if e.Item != nil && e.Item.ID != "" {
		return "Item." + e.Item.ID
	}
	return ""
}

// GoldValue returns the gp value of e.
func (e PileEntry) GoldValue() float64 {
	if e.Kind == EntryCoins {
		return e.Coins.GoldValue()
	}
	return e.Value.Value
}

// WithQuantity returns a copy of an item entry repriced at qty units,
// clamped to [1, MaxQuantity].
func (e PileEntry) WithQuantity(qty int) PileEntry {
	if e.Kind != EntryItem || e.Item == nil {
		return e
	}
	qty = pileQuantity(qty)
	rec := e.Item.Clone()
	rec.Quantity = qty
	e.Item = &rec
	e.Quantity = qty
	e.Value = ValueOfItem(rec, qty)
	return e
}

// MergePile groups entries by key in first-seen order. Coin entries sum
// denomination-wise into a single line; item entries sum quantities and are
// repriced. Entries without a key are dropped.
//
// Postcondition: at most one entry has Kind == EntryCoins.
func MergePile(entries []PileEntry) []PileEntry {
	var out []PileEntry
	at := make(map[string]int)
	for _, e := range entries {
		key := e.Key()
		if key == "" {
			continue
		}
		i, ok := at[key]
		if !ok {
			at[key] = len(out)
			if e.Kind == EntryCoins {
				out = append(out, CoinEntry(e.Coins))
			} else {
				out = append(out, e.WithQuantity(e.Quantity))
			}
			continue
		}
		if e.Kind == EntryCoins {
			out[i] = CoinEntry(out[i].Coins.Add(e.Coins))
		} else {
			out[i] = out[i].WithQuantity(out[i].Quantity + atLeastOne(e.Quantity))
		}
	}
	return out
}

// ClonePile deep-copies entries so a snapshot survives later edits.
func ClonePile(entries []PileEntry) []PileEntry {
	out := make([]PileEntry, len(entries))
	for i, e := range entries {
		if e.Item != nil {
			rec := e.Item.Clone()
			e.Item = &rec
		}
		out[i] = e
	}
	return out
}
