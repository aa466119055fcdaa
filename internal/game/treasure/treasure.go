// Package treasure composes treasure piles: coin and item collections a GM
// builds toward a target value and then exports.
package treasure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/host"
)

var (
	// ErrNoEligibleSources means autogeneration had no default source to
	// draw from. It is reported as a notice, not returned.
	ErrNoEligibleSources = errors.New("treasure: no eligible sources")
	// ErrGenerationLimit means autogeneration spent its attempt budget
	// below the minimum value. It is reported as a notice, not returned.
	ErrGenerationLimit = errors.New("treasure: generation limit reached")
	// ErrEntryNotFound means no pile entry has the requested key.
	ErrEntryNotFound = errors.New("treasure: entry not found")
	// ErrUnknownCoin means a coin or purse name is not recognized.
	ErrUnknownCoin = errors.New("treasure: unknown coin type")
	// ErrDisabled means the treasure pile is switched off in settings.
	ErrDisabled = errors.New("treasure: treasure pile is disabled")
)

// State is the composition state of a Session.
type State string

const (
	StateIdle      State = "idle"
	StateComposing State = "composing"
	StateConverged State = "converged"
	StateExhausted State = "exhausted"
)

// RandomChoice selects a random coin type or purse size in AddCoins.
const RandomChoice = "random"

// Settings is a snapshot of the treasure pile options.
type Settings struct {
	Disabled        bool
	DefaultSources  []string
	GenerationLimit int
	ShowAll         bool
	CoinPercentage  float64
}

// DefaultSettings mirrors the shipped configuration defaults.
func DefaultSettings() Settings {
	return Settings{GenerationLimit: 250, CoinPercentage: 30}
}

// Drawer rolls a source and resolves its output. draw.Processor implements
// it.
type Drawer interface {
	Draw(ctx context.Context, sourceID string) ([]loot.DrawResult, error)
}

// Host groups the host stores exports write to.
type Host struct {
	Actors    host.ActorStore
	Ledger    host.ActorLedger
	Inventory host.InventorySink
	Journals  host.JournalStore
}

// Composer creates sessions and carries their collaborators.
type Composer struct {
	settings func() Settings
	drawer   Drawer
	host     Host
	src      dice.Source
	logger   *zap.Logger
	now      func() time.Time
}

// NewComposer wires a Composer. settings is read once per operation.
//
// Precondition: settings, drawer, and src are non-nil.
func NewComposer(settings func() Settings, drawer Drawer, h Host, src dice.Source, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{settings: settings, drawer: drawer, host: h, src: src, logger: logger, now: time.Now}
}

// Snapshot is the persisted form of a Session.
type Snapshot struct {
	ID        string           `json:"id"`
	State     State            `json:"state"`
	Entries   []loot.PileEntry `json:"entries"`
	UpdatedAt time.Time        `json:"updated_at"`
	// PendingActor is the target of an interrupted actor export.
	PendingActor string `json:"pending_actor,omitempty"`
}

// Session is one GM's pile under composition. A Session is not safe for
// concurrent use.
type Session struct {
	c       *Composer
	id      string
	state   State
	entries []loot.PileEntry
	updated time.Time

	pendingActor string
}

// NewSession opens an empty, idle session.
func (c *Composer) NewSession() *Session {
	return &Session{c: c, id: uuid.NewString(), state: StateIdle, updated: c.now().UTC()}
}

// Restore rebuilds a session from a snapshot.
func (c *Composer) Restore(snap Snapshot) *Session {
	state := snap.State
	if state == "" {
		state = StateIdle
	}
	return &Session{
		c:       c,
		id:      snap.ID,
		state:   state,
		entries: loot.ClonePile(snap.Entries),
		updated: snap.UpdatedAt,

		pendingActor: snap.PendingActor,
	}
}

// Snapshot captures s for persistence.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:           s.id,
		State:        s.state,
		Entries:      loot.ClonePile(s.entries),
		UpdatedAt:    s.updated,
		PendingActor: s.pendingActor,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the composition state.
func (s *Session) State() State { return s.state }

// Entries returns a copy of the pile.
func (s *Session) Entries() []loot.PileEntry { return loot.ClonePile(s.entries) }

// Total returns the pile's gp value rounded to two places.
func (s *Session) Total() float64 { return loot.ValueOf(s.entries) }

// Coins returns the pile's coin line, zero when there is none.
func (s *Session) Coins() currency.Amount {
	if i := s.coinIndex(); i >= 0 {
		return s.entries[i].Coins
	}
	return currency.Amount{}
}

func (s *Session) touch(state State) {
	s.state = state
	s.updated = s.c.now().UTC()
}

func (s *Session) coinIndex() int {
	return slices.IndexFunc(s.entries, func(e loot.PileEntry) bool { return e.Kind == loot.EntryCoins })
}

func (s *Session) indexOf(key string) int {
	return slices.IndexFunc(s.entries, func(e loot.PileEntry) bool {
		if e.Key() == key {
			return true
		}
		return e.Kind == loot.EntryItem && e.Item != nil && e.Item.ID == key
	})
}

// RollTable draws sourceID once and merges the resolved items into the
// pile. Text lines are ignored.
func (s *Session) RollTable(ctx context.Context, sourceID string) ([]loot.PileEntry, error) {
	added, err := s.c.drawEntries(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	s.entries = loot.MergePile(append(s.entries, added...))
	s.touch(StateComposing)
	return added, nil
}

// drawEntries rolls sourceID and converts the item results into pile
// entries, grouped by reference.
func (c *Composer) drawEntries(ctx context.Context, sourceID string) ([]loot.PileEntry, error) {
	results, err := c.drawer.Draw(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("rolling %q: %w", sourceID, err)
	}
	var added []loot.PileEntry
	for _, r := range results {
		if r.Kind != loot.KindItem || r.Item == nil {
			continue
		}
		added = append(added, loot.ItemEntry(*r.Item, loot.Identity(*r.Item), r.Quantity))
	}
	added = loot.MergePile(added)
	fields := make([]string, 0, len(added))
	for _, e := range added {
		fields = append(fields, fmt.Sprintf("%dx %s (%s)", e.Quantity, e.Item.Name, e.Value))
	}
	c.logger.Debug("treasure table rolled",
		zap.String("source", sourceID),
		zap.Strings("results", fields),
	)
	return added, nil
}

// AddCoins adds a random coin amount. amountType names a purse size or is
// RandomChoice; an unknown size falls back to a purse. coinType names a
// denomination or is RandomChoice for a mixed split.
func (s *Session) AddCoins(coinType, amountType string) (currency.Amount, error) {
	if coinType != RandomChoice {
		if _, ok := currency.ParseDenomination(coinType); !ok {
			return currency.Amount{}, fmt.Errorf("%w: %q", ErrUnknownCoin, coinType)
		}
	}
	size := amountType
	switch {
	case size == RandomChoice:
		size = currency.PurseNames[s.c.src.Intn(len(currency.PurseNames))]
	case !slices.Contains(currency.PurseNames, size):
		size = currency.PurseNames[0]
	}
	coins, ok := currency.RandomCoins(size, coinType, s.c.src)
	if !ok {
		return currency.Amount{}, fmt.Errorf("%w: %q", ErrUnknownCoin, coinType)
	}
	s.addCoins(coins)
	s.touch(StateComposing)
	return coins, nil
}

func (s *Session) addCoins(a currency.Amount) {
	if i := s.coinIndex(); i >= 0 {
		s.entries[i] = loot.CoinEntry(s.entries[i].Coins.Add(a))
		return
	}
	s.entries = append(s.entries, loot.CoinEntry(a))
}

// SetCoin overwrites one denomination of the coin line, creating the line
// when absent. Negative values are stored as zero.
func (s *Session) SetCoin(d currency.Denomination, value int) {
	value = max(value, 0)
	i := s.coinIndex()
	if i < 0 {
		s.entries = append(s.entries, loot.CoinEntry(currency.Amount{}))
		i = len(s.entries) - 1
	}
	s.entries[i] = loot.CoinEntry(s.entries[i].Coins.With(d, value))
	s.touch(StateComposing)
}

// AddItem adds one unit of item, incrementing an existing line with the
// same id or reference. An empty ref falls back to loot.Identity.
func (s *Session) AddItem(item loot.Item, ref string) loot.PileEntry {
	if ref == "" {
		ref = loot.Identity(item)
	}
	i := slices.IndexFunc(s.entries, func(e loot.PileEntry) bool {
		return e.Kind == loot.EntryItem && e.Item != nil && (e.Item.ID == item.ID || e.Ref == ref)
	})
	if i >= 0 {
		s.entries[i] = s.entries[i].WithQuantity(s.entries[i].Quantity + 1)
	} else {
		s.entries = append(s.entries, loot.ItemEntry(item, ref, 1))
		i = len(s.entries) - 1
	}
	s.touch(StateComposing)
	return s.entries[i]
}

// RemoveItem drops the entry with key, matched against the entry key or the
// item id.
func (s *Session) RemoveItem(key string) error {
	i := s.indexOf(key)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, key)
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	s.touch(StateComposing)
	return nil
}

// SetQuantity reprices an item line at qty units, clamped to
// [1, loot.MaxQuantity].
func (s *Session) SetQuantity(key string, qty int) (loot.PileEntry, error) {
	i := s.indexOf(key)
	if i < 0 || s.entries[i].Kind != loot.EntryItem {
		return loot.PileEntry{}, fmt.Errorf("%w: %q", ErrEntryNotFound, key)
	}
	s.entries[i] = s.entries[i].WithQuantity(qty)
	s.touch(StateComposing)
	return s.entries[i], nil
}

// Clear empties the pile and returns the session to idle.
func (s *Session) Clear() {
	s.entries = nil
	s.pendingActor = ""
	s.touch(StateIdle)
}
