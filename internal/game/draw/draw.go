// Package draw turns raw roll-table output into resolved loot results.
package draw

//go:generate mockgen -destination=mock/mock_draw.go -package=drawmock github.com/cory-johannsen/lootable/internal/game/draw Source,Catalog

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/lootable/internal/game/loot"
)

var (
	// ErrSourceNotFound means a Source does not know the requested id.
	ErrSourceNotFound = errors.New("draw: source not found")
	// ErrSourceUnavailable means a Source knows the id but cannot draw now.
	ErrSourceUnavailable = errors.New("draw: source unavailable")
	// ErrItemNotFound means no catalog could resolve an item reference.
	ErrItemNotFound = errors.New("draw: item not found")
)

// RawText marks a RawResult as a free-text line.
const RawText = "text"

// WorldCollection is the collection name of the live item registry.
const WorldCollection = "Item"

// RawResult is one unresolved line produced by a Source.
type RawResult struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	Quantity   int    `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// TableInfo names a drawable source.
type TableInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SortTables orders tables by collated name, so case does not split the
// list, breaking ties by id.
func SortTables(tables []TableInfo) {
	c := collate.New(language.Und)
	slices.SortFunc(tables, func(a, b TableInfo) int {
		if n := c.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Source produces raw results for a source id.
type Source interface {
	// Draw rolls the source once.
	//
	// Postcondition: returns ErrSourceNotFound (possibly wrapped) when the
	// id is unknown.
	Draw(ctx context.Context, sourceID string) ([]RawResult, error)
}

// Lister enumerates the sources a Source can draw.
type Lister interface {
	Tables(ctx context.Context) ([]TableInfo, error)
}

// Catalog resolves item records. Both lookups return ErrItemNotFound
// (possibly wrapped) on a miss.
type Catalog interface {
	Name() string
	ItemByID(ctx context.Context, id string) (loot.Item, error)
	ItemByName(ctx context.Context, name string) (loot.Item, error)
}

// IsText reports whether raw is a free-text line. A line is text when it
// says so explicitly, or when it carries text and neither an id nor a
// collection. An id alone marks an item reference, since tables name items
// by id and leave the collection to the resolver.
func IsText(raw RawResult) bool {
	if raw.Type == RawText {
		return true
	}
	return raw.Text != "" && raw.ID == "" && raw.Collection == ""
}
