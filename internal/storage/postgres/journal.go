package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/lootable/internal/host"
)

// JournalRepository persists exported treasure journals. It implements
// host.JournalStore.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// CreateJournal implements host.JournalStore.
func (r *JournalRepository) CreateJournal(ctx context.Context, name string) (*host.Journal, error) {
	j := host.Journal{ID: uuid.NewString(), Name: name}
	if _, err := r.db.Exec(ctx, `INSERT INTO journals (id, name) VALUES ($1, $2)`, j.ID, j.Name); err != nil {
		return nil, fmt.Errorf("inserting journal: %w", err)
	}
	return &j, nil
}

// AddPage implements host.JournalStore.
//
// Postcondition: Returns an error wrapping host.ErrJournalNotFound when
// journalID is unknown.
func (r *JournalRepository) AddPage(ctx context.Context, journalID string, page host.JournalPage) error {
	lines := page.Lines
	if lines == nil {
		lines = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO journal_pages (journal_id, name, lines) VALUES ($1, $2, $3)`,
		journalID, page.Name, lines,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: %q", host.ErrJournalNotFound, journalID)
		}
		return fmt.Errorf("inserting journal page: %w", err)
	}
	return nil
}

// Journal returns the journal with its pages in insertion order.
func (r *JournalRepository) Journal(ctx context.Context, journalID string) (*host.Journal, error) {
	var j host.Journal
	err := r.db.QueryRow(ctx, `SELECT id, name FROM journals WHERE id = $1`, journalID).Scan(&j.ID, &j.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", host.ErrJournalNotFound, journalID)
		}
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	rows, err := r.db.Query(ctx, `
		SELECT name, lines FROM journal_pages WHERE journal_id = $1 ORDER BY id ASC`,
		journalID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing journal pages: %w", err)
	}
	pages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (host.JournalPage, error) {
		var p host.JournalPage
		err := row.Scan(&p.Name, &p.Lines)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning journal page row: %w", err)
	}
	j.Pages = pages
	return &j, nil
}
