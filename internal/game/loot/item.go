// Package loot holds draw results and treasure pile entries, and merges and
// values them.
package loot

import (
	"fmt"
	"maps"
)

// Item is a host item record. Price and System are opaque host data and may
// hold any of the decoded JSON or YAML shapes.
type Item struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Image     string         `json:"img,omitempty" yaml:"img,omitempty"`
	Type      string         `json:"type,omitempty" yaml:"type,omitempty"`
	SourceRef string         `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
	Pack      string         `json:"pack,omitempty" yaml:"pack,omitempty"`
	Quantity  int            `json:"quantity" yaml:"quantity"`
	Price     any            `json:"price,omitempty" yaml:"price,omitempty"`
	System    map[string]any `json:"system,omitempty" yaml:"system,omitempty"`
}

// ContainerType is the item type exported as one record per unit.
const ContainerType = "container"

// IsContainer reports whether i is a container.
func (i Item) IsContainer() bool {
	return i.Type == ContainerType || i.Type == "backpack"
}

// Clone returns a deep copy of i.
func (i Item) Clone() Item {
	out := i
	out.Price = cloneValue(i.Price)
	if i.System != nil {
		out.System = cloneValue(i.System).(map[string]any)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case map[string]string:
		return maps.Clone(t)
	case *Price:
		if t == nil {
			return t
		}
		p := *t
		if t.ValueInGP != nil {
			g := *t.ValueInGP
			p.ValueInGP = &g
		}
		return &p
	default:
		return v
	}
}

// Identity returns a durable reference for i: the recorded source
// reference, else its catalog address, else its world id.
func Identity(i Item) string {
	switch {
	case i.SourceRef != "":
		return i.SourceRef
	case i.Pack != "" && i.ID != "":
		return fmt.Sprintf("Compendium.%s.%s", i.Pack, i.ID)
	default:
		return "Item." + i.ID
	}
}
