// Package host defines the records and collaborator contracts shared with
// the virtual tabletop host.
package host

import (
	"context"
	"errors"
	"strings"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/rules"
)

// ErrActorNotFound is returned by stores when an actor id is unknown.
var ErrActorNotFound = errors.New("host: actor not found")

// ErrJournalNotFound is returned by stores when a journal id is unknown.
var ErrJournalNotFound = errors.New("host: journal not found")

// Actor kinds.
const (
	KindNPC       = "npc"
	KindCharacter = "character"
)

// customType is the type value that defers to CreatureType.Custom.
const customType = "custom"

// CreatureType is the creature classification block of an actor.
type CreatureType struct {
	Value   string `json:"value" yaml:"value"`
	Custom  string `json:"custom,omitempty" yaml:"custom,omitempty"`
	Subtype string `json:"subtype,omitempty" yaml:"subtype,omitempty"`
}

// Details carries the creature attributes loot generation reads. CR is nil
// when the actor has no challenge rating at all.
type Details struct {
	Type     *CreatureType `json:"type,omitempty" yaml:"type,omitempty"`
	Race     string        `json:"race,omitempty" yaml:"race,omitempty"`
	Treasure []string      `json:"treasure,omitempty" yaml:"treasure,omitempty"`
	CR       *float64      `json:"cr,omitempty" yaml:"cr,omitempty"`
}

// Currency is an actor's purse. Electrum is tracked so existing coin is
// detected, but loot generation never mints it.
type Currency struct {
	currency.Amount `yaml:",inline"`
	EP              int `json:"ep" yaml:"ep"`
}

// HasCoin reports whether any denomination is non-zero.
func (c Currency) HasCoin() bool {
	return !c.Amount.IsZero() || c.EP != 0
}

// Actor is a host actor. Currency is nil when the actor's system has no
// currency field.
type Actor struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Kind     string      `json:"kind" yaml:"kind"`
	Image    string      `json:"img,omitempty" yaml:"img,omitempty"`
	Details  Details     `json:"details" yaml:"details"`
	Currency *Currency   `json:"currency,omitempty" yaml:"currency,omitempty"`
	Items    []loot.Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// Token is a placed instance of an actor.
type Token struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Image string `json:"img,omitempty" yaml:"img,omitempty"`
	Actor *Actor `json:"actor,omitempty" yaml:"actor,omitempty"`
}

// DisplayName returns the token name, else the actor name.
func (t Token) DisplayName() string {
	if t.Name != "" || t.Actor == nil {
		return t.Name
	}
	return t.Actor.Name
}

// CreatureType resolves the legacy type shapes: a "custom" value defers to
// the custom label, an empty value falls back to the race.
func (a *Actor) CreatureType() string {
	t := a.Details.Type
	if t == nil {
		return ""
	}
	switch {
	case t.Value == customType && t.Custom != "":
		return t.Custom
	case t.Value != "":
		return t.Value
	default:
		return a.Details.Race
	}
}

// PrimaryType returns the raw lowercased type value, or "unknown".
func (a *Actor) PrimaryType() string {
	if a.Details.Type == nil || a.Details.Type.Value == "" {
		return "unknown"
	}
	return strings.ToLower(a.Details.Type.Value)
}

// Power returns the challenge rating, treating a missing one as 0.
func (a *Actor) Power() float64 {
	if a.Details.CR == nil {
		return 0
	}
	return *a.Details.CR
}

// CandidateFromActor normalizes a into a rules.Candidate.
//
// Postcondition: ok is false iff a is nil or has no creature type.
func CandidateFromActor(a *Actor) (rules.Candidate, bool) {
	if a == nil {
		return rules.Candidate{}, false
	}
	c := rules.Candidate{
		Type:  a.CreatureType(),
		Power: a.Power(),
		Tag:   strings.Join(a.Details.Treasure, ","),
	}
	if a.Details.Type != nil {
		c.Subtype = a.Details.Type.Subtype
	}
	return c, c.Type != ""
}

// MessageKind tags a chat Message.
type MessageKind string

const (
	MessageCoin MessageKind = "coin"
	MessageLoot MessageKind = "loot"
)

// SummaryItem is one item line of a loot message.
type SummaryItem struct {
	Name     string `json:"name"`
	Image    string `json:"img,omitempty"`
	Quantity int    `json:"quantity"`
}

// SummaryText is one text line of a loot message.
type SummaryText struct {
	Text     string `json:"text"`
	Quantity int    `json:"quantity"`
}

// Message is a GM-whispered chat summary.
type Message struct {
	Kind      MessageKind     `json:"kind"`
	TokenName string          `json:"token_name"`
	Coins     currency.Amount `json:"coins,omitempty"`
	Penniless bool            `json:"penniless,omitempty"`
	Items     []SummaryItem   `json:"items,omitempty"`
	Text      []SummaryText   `json:"text,omitempty"`
}

// Summarize builds a loot message from consolidated results.
func Summarize(tokenName string, results []loot.DrawResult) Message {
	m := Message{Kind: MessageLoot, TokenName: tokenName}
	for _, r := range loot.Consolidate(results) {
		if r.Kind == loot.KindItem {
			m.Items = append(m.Items, SummaryItem{Name: r.Item.Name, Image: r.Item.Image, Quantity: r.Quantity})
			continue
		}
		m.Text = append(m.Text, SummaryText{Text: r.Text, Quantity: r.Quantity})
	}
	return m
}

// NewActor describes an actor to create on export.
type NewActor struct {
	Name  string
	Kind  string
	Image string
}

// JournalPage is one text page of a journal.
type JournalPage struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// Journal is a host journal entry.
type Journal struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Pages []JournalPage `json:"pages,omitempty"`
}

// ActorLedger reads and credits actor purses.
type ActorLedger interface {
	// GetCurrency returns the actor's purse, or nil when it has none.
	GetCurrency(ctx context.Context, actorID string) (*Currency, error)
	// AddCurrency credits delta to the actor's purse.
	AddCurrency(ctx context.Context, actorID string, delta currency.Amount) error
}

// InventorySink stores items on an actor. The host merges identities on its
// side.
type InventorySink interface {
	AddItems(ctx context.Context, actorID string, items []loot.Item) error
}

// ActorStore fetches and creates actors.
type ActorStore interface {
	Actor(ctx context.Context, actorID string) (*Actor, error)
	CreateActor(ctx context.Context, in NewActor) (*Actor, error)
}

// JournalStore creates journals and appends pages.
type JournalStore interface {
	CreateJournal(ctx context.Context, name string) (*Journal, error)
	AddPage(ctx context.Context, journalID string, page JournalPage) error
}

// ChatSink posts GM-only chat messages.
type ChatSink interface {
	Post(ctx context.Context, msg Message) error
}

// TokenCreated reports a token placed on a scene. ActingUserID is the user
// whose client handles the event; CreatorID placed the token.
type TokenCreated struct {
	Token        Token  `json:"token"`
	CreatorID    string `json:"creator_id"`
	ActingUserID string `json:"acting_user_id"`
	ActingIsGM   bool   `json:"acting_is_gm"`
}

// Authorized reports whether the acting user may generate loot for the
// event: a GM handling their own creation.
func (e TokenCreated) Authorized() bool {
	return e.ActingIsGM && e.ActingUserID == e.CreatorID
}
