package draw

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// Resolver looks items up in the live registry first and then in each
// enumerable catalog, by id and then by exact name.
type Resolver struct {
	registry Catalog
	catalogs []Catalog
	logger   *zap.Logger
}

// NewResolver builds a Resolver. registry may be nil.
func NewResolver(registry Catalog, catalogs []Catalog, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: registry, catalogs: catalogs, logger: logger}
}

// Resolve finds the item referenced by raw. When raw names a known
// catalog that catalog is searched ahead of the rest. Catalog failures
// other than a miss are logged and skipped.
//
// Postcondition: returns ErrItemNotFound iff every strategy missed.
func (r *Resolver) Resolve(ctx context.Context, raw RawResult) (loot.Item, error) {
	order := r.searchOrder(raw.Collection)
	if raw.ID != "" {
		for i, c := range order {
			if item, ok := r.try(ctx, c, i == 0 && r.registry != nil, raw.ID, c.ItemByID); ok {
				return item, nil
			}
		}
	}
	if raw.Text != "" {
		for i, c := range order {
			if item, ok := r.try(ctx, c, i == 0 && r.registry != nil, raw.Text, c.ItemByName); ok {
				return item, nil
			}
		}
	}
	return loot.Item{}, fmt.Errorf("%w: id=%q name=%q", ErrItemNotFound, raw.ID, raw.Text)
}

func (r *Resolver) try(ctx context.Context, c Catalog, world bool, key string, lookup func(context.Context, string) (loot.Item, error)) (loot.Item, bool) {
	item, err := lookup(ctx, key)
	if err == nil {
		if item.Pack == "" && !world {
			item.Pack = c.Name()
		}
		return item, true
	}
	if !errors.Is(err, ErrItemNotFound) {
		r.logger.Warn("catalog lookup failed",
			zap.String("catalog", c.Name()),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return loot.Item{}, false
}

func (r *Resolver) searchOrder(hint string) []Catalog {
	var order []Catalog
	if r.registry != nil {
		order = append(order, r.registry)
	}
	if hint != "" && hint != WorldCollection {
		for _, c := range r.catalogs {
			if c.Name() == hint {
				order = append(order, c)
			}
		}
	}
	for _, c := range r.catalogs {
		if hint != "" && c.Name() == hint {
			continue
		}
		order = append(order, c)
	}
	return order
}
