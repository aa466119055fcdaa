package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/treasure"
)

// Treasure pile request types. Each is answered with a Reply on the
// envelope's ReplyTo channel.
const (
	TypeTreasureOpen          = "treasure_open"
	TypeTreasureSources       = "treasure_sources"
	TypeTreasureRoll          = "treasure_roll"
	TypeTreasureAutogen       = "treasure_autogen"
	TypeTreasureExportActor   = "treasure_export_actor"
	TypeTreasureExportJournal = "treasure_export_journal"
	TypeTreasureClose         = "treasure_close"
	TypeTreasureAddCoins      = "treasure_add_coins"
	TypeTreasureSetCoin       = "treasure_set_coin"
	TypeTreasureAddItem       = "treasure_add_item"
	TypeTreasureRemoveItem    = "treasure_remove_item"
	TypeTreasureSetQuantity   = "treasure_set_quantity"
	TypeTreasureClear         = "treasure_clear"
)

func isTreasureEvent(t string) bool {
	switch t {
	case TypeTreasureOpen, TypeTreasureSources, TypeTreasureRoll, TypeTreasureAutogen,
		TypeTreasureExportActor, TypeTreasureExportJournal, TypeTreasureClose,
		TypeTreasureAddCoins, TypeTreasureSetCoin, TypeTreasureAddItem,
		TypeTreasureRemoveItem, TypeTreasureSetQuantity, TypeTreasureClear:
		return true
	}
	return false
}

// TreasureDesk serves treasure pile requests. treasure.Desk implements it.
type TreasureDesk interface {
	Open(ctx context.Context) (*treasure.Session, error)
	Session(ctx context.Context, id string) (*treasure.Session, error)
	Sources(ctx context.Context) ([]draw.TableInfo, error)
	RollTable(ctx context.Context, id, sourceID string) error
	Autogenerate(ctx context.Context, req treasure.AutogenRequest) (treasure.AutogenReport, error)
	ExportToActor(ctx context.Context, id string, in treasure.ExportActorInput) (string, error)
	ExportToJournal(ctx context.Context, id string, in treasure.ExportJournalInput) (string, error)
	Close(ctx context.Context, id string) error
	AddCoins(ctx context.Context, id, coinType, amountType string) (currency.Amount, error)
	SetCoin(ctx context.Context, id, coin string, value int) error
	AddItem(ctx context.Context, id string, item loot.Item, ref string) (loot.PileEntry, error)
	RemoveItem(ctx context.Context, id, key string) error
	SetQuantity(ctx context.Context, id, key string, qty int) (loot.PileEntry, error)
	Clear(ctx context.Context, id string) error
}

// WithTreasure enables treasure pile requests, publishing replies through
// client.
func (d *Dispatcher) WithTreasure(desk TreasureDesk, client redis.UniversalClient) *Dispatcher {
	d.treasure = desk
	d.replies = client
	return d
}

// TreasureRequest is the payload of every treasure request. Fields unused
// by a request type are ignored.
type TreasureRequest struct {
	SessionID      string                       `json:"session_id,omitempty"`
	SourceID       string                       `json:"source_id,omitempty"`
	Min            float64                      `json:"min,omitempty"`
	Max            float64                      `json:"max,omitempty"`
	CoinPercentage float64                      `json:"coin_percentage,omitempty"`
	Actor          *treasure.ExportActorInput   `json:"actor,omitempty"`
	Journal        *treasure.ExportJournalInput `json:"journal,omitempty"`
	// CoinType and AmountType feed treasure_add_coins; both default to
	// treasure.RandomChoice.
	CoinType   string `json:"coin_type,omitempty"`
	AmountType string `json:"amount_type,omitempty"`
	// Coin and Value feed treasure_set_coin.
	Coin  string `json:"coin,omitempty"`
	Value int    `json:"value,omitempty"`
	// Item and Ref feed treasure_add_item.
	Item *loot.Item `json:"item,omitempty"`
	Ref  string     `json:"ref,omitempty"`
	// Key names the entry for treasure_remove_item and
	// treasure_set_quantity.
	Key      string `json:"key,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// ErrNoItem is replied to a treasure_add_item request without an item.
var ErrNoItem = errors.New("events: treasure_add_item needs an item")

// Reply answers a request. Error is set instead of Result on failure.
type Reply struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// AutogenResult is the Result of a treasure_autogen reply.
type AutogenResult struct {
	State     treasure.State    `json:"state"`
	Value     float64           `json:"value"`
	Attempts  int               `json:"attempts"`
	Rollbacks int               `json:"rollbacks"`
	Notice    string            `json:"notice,omitempty"`
	Pile      treasure.Snapshot `json:"pile"`
}

// ExportResult is the Result of an export reply.
type ExportResult struct {
	TargetID string `json:"target_id"`
}

func (d *Dispatcher) dispatchTreasure(ctx context.Context, env Envelope) error {
	var req TreasureRequest
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
	}
	result, err := d.handleTreasure(ctx, env.Type, req)
	if err != nil {
		d.logger.Warn("treasure request failed",
			zap.String("type", env.Type),
			zap.String("session", req.SessionID),
			zap.Error(err),
		)
	}
	return d.reply(ctx, env, result, err)
}

func (d *Dispatcher) handleTreasure(ctx context.Context, eventType string, req TreasureRequest) (any, error) {
	snapshot := func() (any, error) {
		s, err := d.treasure.Session(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		return s.Snapshot(), nil
	}
	switch eventType {
	case TypeTreasureOpen:
		s, err := d.treasure.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s.Snapshot(), nil
	case TypeTreasureSources:
		return d.treasure.Sources(ctx)
	case TypeTreasureRoll:
		if err := d.treasure.RollTable(ctx, req.SessionID, req.SourceID); err != nil {
			return nil, err
		}
		return snapshot()
	case TypeTreasureAutogen:
		report, err := d.treasure.Autogenerate(ctx, treasure.AutogenRequest{
			SessionID:      req.SessionID,
			Min:            req.Min,
			Max:            req.Max,
			CoinPercentage: req.CoinPercentage,
		})
		if err != nil {
			return nil, err
		}
		s, err := d.treasure.Session(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		out := AutogenResult{
			State:     report.State,
			Value:     report.Value,
			Attempts:  report.Attempts,
			Rollbacks: report.Rollbacks,
			Pile:      s.Snapshot(),
		}
		if report.Notice != nil {
			out.Notice = report.Notice.Error()
		}
		return out, nil
	case TypeTreasureExportActor:
		if req.Actor == nil {
			return nil, treasure.ErrNoTarget
		}
		id, err := d.treasure.ExportToActor(ctx, req.SessionID, *req.Actor)
		if err != nil {
			return nil, err
		}
		return ExportResult{TargetID: id}, nil
	case TypeTreasureExportJournal:
		if req.Journal == nil {
			return nil, treasure.ErrNoTarget
		}
		id, err := d.treasure.ExportToJournal(ctx, req.SessionID, *req.Journal)
		if err != nil {
			return nil, err
		}
		return ExportResult{TargetID: id}, nil
	case TypeTreasureClose:
		return nil, d.treasure.Close(ctx, req.SessionID)
	case TypeTreasureAddCoins:
		if _, err := d.treasure.AddCoins(ctx, req.SessionID, orRandom(req.CoinType), orRandom(req.AmountType)); err != nil {
			return nil, err
		}
		return snapshot()
	case TypeTreasureSetCoin:
		if err := d.treasure.SetCoin(ctx, req.SessionID, req.Coin, req.Value); err != nil {
			return nil, err
		}
		return snapshot()
	case TypeTreasureAddItem:
		if req.Item == nil {
			return nil, ErrNoItem
		}
		if _, err := d.treasure.AddItem(ctx, req.SessionID, *req.Item, req.Ref); err != nil {
			return nil, err
		}
		return snapshot()
	case TypeTreasureRemoveItem:
		if err := d.treasure.RemoveItem(ctx, req.SessionID, req.Key); err != nil {
			return nil, err
		}
		return snapshot()
	case TypeTreasureSetQuantity:
		if _, err := d.treasure.SetQuantity(ctx, req.SessionID, req.Key, req.Quantity); err != nil {
			return nil, err
		}
		return snapshot()
	case TypeTreasureClear:
		if err := d.treasure.Clear(ctx, req.SessionID); err != nil {
			return nil, err
		}
		return snapshot()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
}

func orRandom(s string) string {
	if s == "" {
		return treasure.RandomChoice
	}
	return s
}
