package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/lootable/internal/game/catalog"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// ItemRepository persists world items and serves them as the live item
// registry. It implements draw.Catalog.
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates an ItemRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// Name implements draw.Catalog.
func (r *ItemRepository) Name() string { return catalog.WorldName }

// Upsert stores items, replacing any record with the same id.
//
// Precondition: every item has a non-empty ID and Name.
// Postcondition: Returns the number of items written or a non-nil error; on
// error no item is written.
func (r *ItemRepository) Upsert(ctx context.Context, items []loot.Item) (int, error) {
	for _, item := range items {
		if item.ID == "" || item.Name == "" {
			return 0, fmt.Errorf("upserting item %q: id and name must not be empty", item.ID)
		}
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(`
				INSERT INTO items (id, name, item) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, item = EXCLUDED.item`,
				item.ID, item.Name, item,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("upserting items: %w", err)
	}
	return len(items), nil
}

// ItemByID implements draw.Catalog.
func (r *ItemRepository) ItemByID(ctx context.Context, id string) (loot.Item, error) {
	return r.one(ctx, `SELECT item FROM items WHERE id = $1`, "id", id)
}

// ItemByName implements draw.Catalog. The earliest stored item wins when
// several share a name.
func (r *ItemRepository) ItemByName(ctx context.Context, name string) (loot.Item, error) {
	return r.one(ctx, `SELECT item FROM items WHERE name = $1 ORDER BY created_at ASC, id ASC LIMIT 1`, "name", name)
}

func (r *ItemRepository) one(ctx context.Context, query, field, key string) (loot.Item, error) {
	var item loot.Item
	if err := r.db.QueryRow(ctx, query, key).Scan(&item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loot.Item{}, fmt.Errorf("%w: world %s %q", draw.ErrItemNotFound, field, key)
		}
		return loot.Item{}, fmt.Errorf("querying item by %s: %w", field, err)
	}
	return item, nil
}

// Count returns the number of stored items.
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}
