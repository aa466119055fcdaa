package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// Memory is an in-process host backend. It serves the operator CLI and
// tests. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	actors   map[string]*Actor
	journals map[string]*Journal
	messages []Message
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		actors:   make(map[string]*Actor),
		journals: make(map[string]*Journal),
	}
}

// PutActor stores a copy of a, assigning an id when empty, and returns the
// id.
func (m *Memory) PutActor(a Actor) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := cloneActor(&a)
	m.actors[a.ID] = cp
	return a.ID
}

// Actor implements ActorStore.
func (m *Memory) Actor(_ context.Context, actorID string) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[actorID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActorNotFound, actorID)
	}
	return cloneActor(a), nil
}

// CreateActor implements ActorStore. New actors get an empty purse.
func (m *Memory) CreateActor(_ context.Context, in NewActor) (*Actor, error) {
	a := &Actor{ID: uuid.NewString(), Name: in.Name, Kind: in.Kind, Image: in.Image, Currency: &Currency{}}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[a.ID] = a
	return cloneActor(a), nil
}

// GetCurrency implements ActorLedger.
func (m *Memory) GetCurrency(_ context.Context, actorID string) (*Currency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[actorID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActorNotFound, actorID)
	}
	if a.Currency == nil {
		return nil, nil
	}
	c := *a.Currency
	return &c, nil
}

// AddCurrency implements ActorLedger.
func (m *Memory) AddCurrency(_ context.Context, actorID string, delta currency.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[actorID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrActorNotFound, actorID)
	}
	if a.Currency == nil {
		a.Currency = &Currency{}
	}
	a.Currency.Amount = a.Currency.Amount.Add(delta)
	return nil
}

// AddItems implements InventorySink.
func (m *Memory) AddItems(_ context.Context, actorID string, items []loot.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[actorID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrActorNotFound, actorID)
	}
	for _, item := range items {
		a.Items = append(a.Items, item.Clone())
	}
	return nil
}

// CreateJournal implements JournalStore.
func (m *Memory) CreateJournal(_ context.Context, name string) (*Journal, error) {
	j := &Journal{ID: uuid.NewString(), Name: name}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journals[j.ID] = j
	return &Journal{ID: j.ID, Name: j.Name}, nil
}

// AddPage implements JournalStore.
func (m *Memory) AddPage(_ context.Context, journalID string, page JournalPage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journals[journalID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrJournalNotFound, journalID)
	}
	j.Pages = append(j.Pages, JournalPage{Name: page.Name, Lines: append([]string(nil), page.Lines...)})
	return nil
}

// Journal returns a copy of the journal with id.
func (m *Memory) Journal(journalID string) (*Journal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journals[journalID]
	if !ok {
		return nil, false
	}
	cp := *j
	cp.Pages = append([]JournalPage(nil), j.Pages...)
	return &cp, true
}

// Post implements ChatSink.
func (m *Memory) Post(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns every posted message in order.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

func cloneActor(a *Actor) *Actor {
	cp := *a
	if a.Currency != nil {
		c := *a.Currency
		cp.Currency = &c
	}
	if a.Details.Type != nil {
		t := *a.Details.Type
		cp.Details.Type = &t
	}
	if a.Details.CR != nil {
		cr := *a.Details.CR
		cp.Details.CR = &cr
	}
	cp.Details.Treasure = append([]string(nil), a.Details.Treasure...)
	cp.Items = make([]loot.Item, len(a.Items))
	for i, item := range a.Items {
		cp.Items[i] = item.Clone()
	}
	return &cp
}
