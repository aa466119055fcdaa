package loot

// Kind tags a DrawResult.
type Kind string

const (
	KindItem Kind = "item"
	KindText Kind = "text"
)

// DrawResult is one resolved line from a draw: an item with a quantity, or
// a free-text entry with an occurrence count.
type DrawResult struct {
	Kind     Kind   `json:"kind"`
	Item     *Item  `json:"item,omitempty"`
	Text     string `json:"text,omitempty"`
	Quantity int    `json:"quantity"`
}

// ItemResult wraps item as a DrawResult. The item record carries the same
// quantity.
func ItemResult(item Item, qty int) DrawResult {
	qty = atLeastOne(qty)
	item.Quantity = qty
	return DrawResult{Kind: KindItem, Item: &item, Quantity: qty}
}

// TextResult wraps text as a DrawResult.
func TextResult(text string, qty int) DrawResult {
	return DrawResult{Kind: KindText, Text: text, Quantity: atLeastOne(qty)}
}

// Key returns the consolidation key: the item display name or the literal
// text.
func (r DrawResult) Key() string {
	if r.Kind == KindItem && r.Item != nil {
		return r.Item.Name
	}
	return r.Text
}

// GoldValue prices an item result by its quantity. Text results are worth
// nothing.
func (r DrawResult) GoldValue() float64 {
	if r.Kind != KindItem || r.Item == nil {
		return 0
	}
	return ValueOfItem(*r.Item, atLeastOne(r.Quantity)).Value
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Consolidate merges results sharing a key. Items group by case-sensitive
// display name and text entries by literal text; quantities are summed.
// Each item group is represented by a deep copy of its first-seen record
// with the quantity overwritten by the total. Items come first, then text,
// each in first-seen order. Item results without a record are dropped.
//
// Postcondition: Consolidate(Consolidate(r)) equals Consolidate(r).
func Consolidate(results []DrawResult) []DrawResult {
	var items, texts []DrawResult
	itemAt := make(map[string]int)
	textAt := make(map[string]int)

	for _, r := range results {
		qty := atLeastOne(r.Quantity)
		switch r.Kind {
		case KindItem:
			if r.Item == nil {
				continue
			}
			if i, ok := itemAt[r.Item.Name]; ok {
				items[i].Quantity += qty
				items[i].Item.Quantity = items[i].Quantity
				continue
			}
			rep := r.Item.Clone()
			rep.Quantity = qty
			itemAt[rep.Name] = len(items)
			items = append(items, DrawResult{Kind: KindItem, Item: &rep, Quantity: qty})
		case KindText:
			if i, ok := textAt[r.Text]; ok {
				texts[i].Quantity += qty
				continue
			}
			textAt[r.Text] = len(texts)
			texts = append(texts, DrawResult{Kind: KindText, Text: r.Text, Quantity: qty})
		}
	}
	return append(items, texts...)
}

// Flatten concatenates several draws into one result list.
func Flatten(draws ...[]DrawResult) []DrawResult {
	var out []DrawResult
	for _, d := range draws {
		out = append(out, d...)
	}
	return out
}
