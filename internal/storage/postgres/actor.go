package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/host"
)

// ActorRepository persists actors, their purses and their inventories. It
// implements host.ActorStore, host.ActorLedger and host.InventorySink.
type ActorRepository struct {
	db *pgxpool.Pool
}

// NewActorRepository creates an ActorRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewActorRepository(db *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{db: db}
}

// Put inserts or replaces an actor record and its inventory, assigning an id
// when a.ID is empty.
//
// Postcondition: Returns the stored actor id or a non-nil error.
func (r *ActorRepository) Put(ctx context.Context, a host.Actor) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO actors (id, name, kind, img, details, currency)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, kind = EXCLUDED.kind, img = EXCLUDED.img,
				details = EXCLUDED.details, currency = EXCLUDED.currency,
				updated_at = NOW()`,
			a.ID, a.Name, a.Kind, a.Image, a.Details, a.Currency,
		); err != nil {
			return fmt.Errorf("upserting actor: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM actor_items WHERE actor_id = $1`, a.ID); err != nil {
			return fmt.Errorf("clearing actor items: %w", err)
		}
		return insertItems(ctx, tx, a.ID, a.Items)
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// Actor implements host.ActorStore.
//
// Postcondition: Returns the actor with its items or an error wrapping
// host.ErrActorNotFound.
func (r *ActorRepository) Actor(ctx context.Context, actorID string) (*host.Actor, error) {
	var a host.Actor
	err := r.db.QueryRow(ctx, `
		SELECT id, name, kind, img, details, currency
		FROM actors WHERE id = $1`,
		actorID,
	).Scan(&a.ID, &a.Name, &a.Kind, &a.Image, &a.Details, &a.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", host.ErrActorNotFound, actorID)
		}
		return nil, fmt.Errorf("querying actor: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT item FROM actor_items WHERE actor_id = $1 ORDER BY id ASC`, actorID)
	if err != nil {
		return nil, fmt.Errorf("listing actor items: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowTo[loot.Item])
	if err != nil {
		return nil, fmt.Errorf("scanning actor item row: %w", err)
	}
	a.Items = items
	return &a, nil
}

// CreateActor implements host.ActorStore. New actors get an empty purse.
func (r *ActorRepository) CreateActor(ctx context.Context, in host.NewActor) (*host.Actor, error) {
	a := host.Actor{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Kind:     in.Kind,
		Image:    in.Image,
		Currency: &host.Currency{},
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO actors (id, name, kind, img, details, currency)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Name, a.Kind, a.Image, a.Details, a.Currency,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting actor: %w", err)
	}
	return &a, nil
}

// GetCurrency implements host.ActorLedger.
//
// Postcondition: Returns nil without error when the actor has no purse.
func (r *ActorRepository) GetCurrency(ctx context.Context, actorID string) (*host.Currency, error) {
	var cur *host.Currency
	err := r.db.QueryRow(ctx, `SELECT currency FROM actors WHERE id = $1`, actorID).Scan(&cur)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", host.ErrActorNotFound, actorID)
		}
		return nil, fmt.Errorf("querying actor currency: %w", err)
	}
	return cur, nil
}

// AddCurrency implements host.ActorLedger. The purse row is locked for the
// read-modify-write so concurrent credits do not lose coin.
func (r *ActorRepository) AddCurrency(ctx context.Context, actorID string, delta currency.Amount) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var cur *host.Currency
		err := tx.QueryRow(ctx, `SELECT currency FROM actors WHERE id = $1 FOR UPDATE`, actorID).Scan(&cur)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %q", host.ErrActorNotFound, actorID)
			}
			return fmt.Errorf("locking actor currency: %w", err)
		}
		if cur == nil {
			cur = &host.Currency{}
		}
		cur.Amount = cur.Amount.Add(delta)
		if _, err := tx.Exec(ctx, `UPDATE actors SET currency = $2, updated_at = NOW() WHERE id = $1`, actorID, cur); err != nil {
			return fmt.Errorf("saving actor currency: %w", err)
		}
		return nil
	})
}

// AddItems implements host.InventorySink.
func (r *ActorRepository) AddItems(ctx context.Context, actorID string, items []loot.Item) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return insertItems(ctx, tx, actorID, items)
	})
	if isForeignKeyError(err) {
		return fmt.Errorf("%w: %q", host.ErrActorNotFound, actorID)
	}
	return err
}

func insertItems(ctx context.Context, tx pgx.Tx, actorID string, items []loot.Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`INSERT INTO actor_items (actor_id, item) VALUES ($1, $2)`, actorID, item)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting actor items: %w", err)
	}
	return nil
}
