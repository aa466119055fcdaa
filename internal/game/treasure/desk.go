package treasure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// ErrExportNotSaved means an export reached the host but the emptied session
// could neither be saved nor discarded. The stored session still holds the
// exported pile and must not be exported again.
var ErrExportNotSaved = errors.New("treasure: exported session not saved")

const (
	exportSaveRetries  = 3
	exportSaveInterval = 50 * time.Millisecond
)

// SnapshotStore persists session snapshots between requests.
// session.Store[Snapshot] implements it.
type SnapshotStore interface {
	Save(ctx context.Context, id string, snap *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// Desk serves treasure pile requests against persisted sessions. Each call
// loads the session, applies one operation, and saves it back.
type Desk struct {
	composer *Composer
	store    SnapshotStore
	sources  draw.Lister
}

// NewDesk wires a Desk.
//
// Precondition: every argument is non-nil.
func NewDesk(c *Composer, store SnapshotStore, sources draw.Lister) *Desk {
	return &Desk{composer: c, store: store, sources: sources}
}

// Open creates and persists an empty session.
func (d *Desk) Open(ctx context.Context) (*Session, error) {
	if err := d.enabled(); err != nil {
		return nil, err
	}
	s := d.composer.NewSession()
	if err := d.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Session loads a persisted session.
func (d *Desk) Session(ctx context.Context, id string) (*Session, error) {
	snap, err := d.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading treasure session %q: %w", id, err)
	}
	return d.composer.Restore(*snap), nil
}

// Sources lists the sources offered for manual rolls.
func (d *Desk) Sources(ctx context.Context) ([]draw.TableInfo, error) {
	if err := d.enabled(); err != nil {
		return nil, err
	}
	all, err := d.sources.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	cfg := d.composer.settings()
	return AvailableSources(all, cfg.DefaultSources, cfg.ShowAll), nil
}

// AutogenRequest asks for an autogenerated pile. A zero CoinPercentage
// selects the configured default.
type AutogenRequest struct {
	SessionID      string  `json:"session_id"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	CoinPercentage float64 `json:"coin_percentage"`
}

// Autogenerate runs autogeneration over the configured default sources and
// saves the result.
func (d *Desk) Autogenerate(ctx context.Context, req AutogenRequest) (AutogenReport, error) {
	if err := d.enabled(); err != nil {
		return AutogenReport{}, err
	}
	all, err := d.sources.Tables(ctx)
	if err != nil {
		return AutogenReport{}, fmt.Errorf("listing sources: %w", err)
	}
	cfg := d.composer.settings()
	var report AutogenReport
	err = d.update(ctx, req.SessionID, func(s *Session) error {
		var err error
		report, err = s.Autogenerate(ctx, AutogenInput{
			Min:            req.Min,
			Max:            req.Max,
			CoinPercentage: ClampCoinPercentage(req.CoinPercentage, cfg.CoinPercentage),
			Eligible:       EligibleSources(all, cfg.DefaultSources),
		})
		return err
	})
	return report, err
}

// RollTable draws one source into the session.
func (d *Desk) RollTable(ctx context.Context, id, sourceID string) error {
	return d.update(ctx, id, func(s *Session) error {
		_, err := s.RollTable(ctx, sourceID)
		return err
	})
}

// AddCoins adds a random coin amount to the session. See Session.AddCoins.
func (d *Desk) AddCoins(ctx context.Context, id, coinType, amountType string) (currency.Amount, error) {
	var added currency.Amount
	err := d.update(ctx, id, func(s *Session) error {
		var err error
		added, err = s.AddCoins(coinType, amountType)
		return err
	})
	return added, err
}

// SetCoin overwrites one denomination of the session's coin line.
func (d *Desk) SetCoin(ctx context.Context, id, coin string, value int) error {
	denom, ok := currency.ParseDenomination(coin)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCoin, coin)
	}
	return d.update(ctx, id, func(s *Session) error {
		s.SetCoin(denom, value)
		return nil
	})
}

// AddItem adds one unit of item to the session.
func (d *Desk) AddItem(ctx context.Context, id string, item loot.Item, ref string) (loot.PileEntry, error) {
	var entry loot.PileEntry
	err := d.update(ctx, id, func(s *Session) error {
		entry = s.AddItem(item, ref)
		return nil
	})
	return entry, err
}

// RemoveItem drops an entry from the session.
func (d *Desk) RemoveItem(ctx context.Context, id, key string) error {
	return d.update(ctx, id, func(s *Session) error { return s.RemoveItem(key) })
}

// SetQuantity reprices an item line of the session.
func (d *Desk) SetQuantity(ctx context.Context, id, key string, qty int) (loot.PileEntry, error) {
	var entry loot.PileEntry
	err := d.update(ctx, id, func(s *Session) error {
		var err error
		entry, err = s.SetQuantity(key, qty)
		return err
	})
	return entry, err
}

// Clear empties the session's pile.
func (d *Desk) Clear(ctx context.Context, id string) error {
	return d.update(ctx, id, func(s *Session) error {
		s.Clear()
		return nil
	})
}

// ExportToActor exports the session to an actor and saves the cleared pile.
// A partially applied export is saved too, so a retry resumes it. See
// finishExport for a completed export whose save fails.
func (d *Desk) ExportToActor(ctx context.Context, id string, in ExportActorInput) (string, error) {
	if err := d.enabled(); err != nil {
		return "", err
	}
	s, err := d.Session(ctx, id)
	if err != nil {
		return "", err
	}
	actorID, err := s.ExportToActor(ctx, in)
	if err != nil {
		if s.PendingActor() == "" {
			return "", err
		}
		if serr := d.save(ctx, s); serr != nil {
			return "", errors.Join(err, serr)
		}
		return "", err
	}
	return actorID, d.finishExport(ctx, s)
}

// ExportToJournal exports the session to a journal and saves the cleared
// pile.
func (d *Desk) ExportToJournal(ctx context.Context, id string, in ExportJournalInput) (string, error) {
	if err := d.enabled(); err != nil {
		return "", err
	}
	s, err := d.Session(ctx, id)
	if err != nil {
		return "", err
	}
	journalID, err := s.ExportToJournal(ctx, in)
	if err != nil {
		return "", err
	}
	return journalID, d.finishExport(ctx, s)
}

// finishExport stores the emptied session after a completed export. The
// save is retried; when it still fails the session is discarded instead,
// since a stored copy of the exported pile would be written out again on
// the next export.
func (d *Desk) finishExport(ctx context.Context, s *Session) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(exportSaveInterval), exportSaveRetries), ctx)
	serr := backoff.Retry(func() error { return d.save(ctx, s) }, b)
	if serr == nil {
		return nil
	}
	if derr := d.store.Delete(ctx, s.ID()); derr != nil {
		return fmt.Errorf("%w: %q: %w", ErrExportNotSaved, s.ID(), errors.Join(serr, derr))
	}
	return nil
}

// Close discards a persisted session.
func (d *Desk) Close(ctx context.Context, id string) error {
	return d.store.Delete(ctx, id)
}

// update applies fn to the session and saves it only when fn succeeds.
func (d *Desk) update(ctx context.Context, id string, fn func(*Session) error) error {
	if err := d.enabled(); err != nil {
		return err
	}
	s, err := d.Session(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return d.save(ctx, s)
}

func (d *Desk) enabled() error {
	if d.composer.settings().Disabled {
		return ErrDisabled
	}
	return nil
}

func (d *Desk) save(ctx context.Context, s *Session) error {
	snap := s.Snapshot()
	if err := d.store.Save(ctx, s.ID(), &snap); err != nil {
		return fmt.Errorf("saving treasure session %q: %w", s.ID(), err)
	}
	return nil
}
