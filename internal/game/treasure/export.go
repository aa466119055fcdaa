package treasure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/host"
)

// Export validation errors.
var (
	ErrNameRequired     = errors.New("treasure: a name is required for a new export target")
	ErrPageNameRequired = errors.New("treasure: a page name is required")
	ErrNoTarget         = errors.New("treasure: no export target selected")
	// ErrPartialExport means an actor export wrote part of the pile before
	// failing. The written part is removed from the pile and a retry
	// resumes into the same actor.
	ErrPartialExport = errors.New("treasure: export interrupted")
)

// DefaultActorImage is the portrait given to actors created by export.
const DefaultActorImage = "icons/svg/mystery-man.svg"

// ExportActorInput selects the actor an export writes to. When CreateNew
// is set a new npc named NewName is created; otherwise ActorID must exist.
type ExportActorInput struct {
	ActorID   string `json:"actor_id,omitempty"`
	CreateNew bool   `json:"create_new,omitempty"`
	NewName   string `json:"new_name,omitempty"`
}

// ExportToActor writes the pile to an actor: items are added to its
// inventory first and coins credited to its purse second. Containers are
// expanded to one record per unit. On success the session is cleared.
//
// Once a target is resolved the session remembers it, and each completed
// write is removed from the pile, so retrying after ErrPartialExport never
// writes the same coins or items twice. A pending target overrides in.
//
// Postcondition: returns the id of the actor written to.
func (s *Session) ExportToActor(ctx context.Context, in ExportActorInput) (string, error) {
	actorID := s.pendingActor
	if actorID == "" {
		var err error
		if actorID, err = s.exportActor(ctx, in); err != nil {
			return "", err
		}
		s.pendingActor = actorID
	}
	value := s.Total()
	if items := exportItems(s.entries); len(items) > 0 {
		if err := s.c.host.Inventory.AddItems(ctx, actorID, items); err != nil {
			return "", fmt.Errorf("%w: adding items to %q: %w", ErrPartialExport, actorID, err)
		}
		s.entries = slices.DeleteFunc(s.entries, func(e loot.PileEntry) bool { return e.Kind == loot.EntryItem })
	}
	if coins := s.Coins(); !coins.IsZero() {
		if err := s.c.host.Ledger.AddCurrency(ctx, actorID, coins); err != nil {
			return "", fmt.Errorf("%w: crediting %q: %w", ErrPartialExport, actorID, err)
		}
	}
	s.c.logger.Info("treasure pile exported to actor",
		zap.String("session", s.id),
		zap.String("actor", actorID),
		zap.Float64("value", value),
	)
	s.Clear()
	return actorID, nil
}

// PendingActor returns the actor a partially applied export resumes into,
// or "" when no export is in progress.
func (s *Session) PendingActor() string { return s.pendingActor }

func (s *Session) exportActor(ctx context.Context, in ExportActorInput) (string, error) {
	if in.CreateNew {
		name := strings.TrimSpace(in.NewName)
		if name == "" {
			return "", ErrNameRequired
		}
		a, err := s.c.host.Actors.CreateActor(ctx, host.NewActor{Name: name, Kind: host.KindNPC, Image: DefaultActorImage})
		if err != nil {
			return "", fmt.Errorf("creating actor %q: %w", name, err)
		}
		return a.ID, nil
	}
	if in.ActorID == "" {
		return "", ErrNoTarget
	}
	a, err := s.c.host.Actors.Actor(ctx, in.ActorID)
	if err != nil {
		return "", fmt.Errorf("loading actor: %w", err)
	}
	return a.ID, nil
}

// exportItems turns the item lines into inventory records. Each record
// gets a fresh id and keeps its pile reference as its source.
func exportItems(entries []loot.PileEntry) []loot.Item {
	var out []loot.Item
	for _, e := range entries {
		if e.Kind != loot.EntryItem || e.Item == nil {
			continue
		}
		n, qty := 1, min(e.Quantity, loot.MaxQuantity)
		if e.Item.IsContainer() {
			n, qty = qty, 1
		}
		for range n {
			rec := e.Item.Clone()
			rec.ID = uuid.NewString()
			rec.Quantity = qty
			if rec.SourceRef == "" {
				rec.SourceRef = e.Ref
			}
			out = append(out, rec)
		}
	}
	return out
}

// ExportJournalInput selects the journal an export writes to. When
// CreateNew is set a new journal named NewName is created; otherwise a page
// is appended to JournalID.
type ExportJournalInput struct {
	JournalID string `json:"journal_id,omitempty"`
	CreateNew bool   `json:"create_new,omitempty"`
	NewName   string `json:"new_name,omitempty"`
	PageName  string `json:"page_name"`
}

// ExportToJournal writes the pile as a text page. On success the session
// is cleared.
//
// Postcondition: returns the id of the journal written to.
func (s *Session) ExportToJournal(ctx context.Context, in ExportJournalInput) (string, error) {
	page := strings.TrimSpace(in.PageName)
	if in.CreateNew && strings.TrimSpace(in.NewName) == "" {
		return "", ErrNameRequired
	}
	if page == "" {
		return "", ErrPageNameRequired
	}
	journalID := in.JournalID
	if in.CreateNew {
		j, err := s.c.host.Journals.CreateJournal(ctx, strings.TrimSpace(in.NewName))
		if err != nil {
			return "", fmt.Errorf("creating journal: %w", err)
		}
		journalID = j.ID
	} else if journalID == "" {
		return "", ErrNoTarget
	}
	if err := s.c.host.Journals.AddPage(ctx, journalID, host.JournalPage{Name: page, Lines: RenderLines(s.entries)}); err != nil {
		return "", fmt.Errorf("adding page to %q: %w", journalID, err)
	}
	s.c.logger.Info("treasure pile exported to journal",
		zap.String("session", s.id),
		zap.String("journal", journalID),
		zap.String("page", page),
	)
	s.Clear()
	return journalID, nil
}

// RenderLines formats the pile for a journal page: the coin line as
// "12 pp • 3 gp (123.00 gp)" and items as "@UUID[ref]{Name} ×2 (50 gp)".
// An empty coin line is omitted.
func RenderLines(entries []loot.PileEntry) []string {
	var lines []string
	for _, e := range entries {
		switch {
		case e.Kind == loot.EntryCoins:
			if e.Coins.IsZero() {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s (%.2f gp)", e.Coins, e.Coins.GoldValue()))
		case e.Item != nil:
			qty := ""
			if e.Quantity > 1 {
				qty = fmt.Sprintf(" ×%d", e.Quantity)
			}
			lines = append(lines, fmt.Sprintf("@UUID[%s]{%s}%s (%d %s)",
				e.Ref, e.Item.Name, qty, int(math.Round(e.Value.DisplayValue)), e.Value.Currency))
		}
	}
	return lines
}
