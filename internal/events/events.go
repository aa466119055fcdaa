// Package events receives host events from a Redis channel and dispatches
// them to the loot services.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/pocket"
	"github.com/cory-johannsen/lootable/internal/game/randomloot"
	"github.com/cory-johannsen/lootable/internal/host"
)

// Event types carried in Envelope.Type.
const (
	TypeTokenCreated = "token_created"
	TypeManualRoll   = "manual_roll"
)

// ErrUnknownEvent is returned by Dispatch for an unrecognised event type.
var ErrUnknownEvent = errors.New("events: unknown event type")

// Envelope is the wire shape of one published event. ReplyTo names the
// channel a request's Reply is published to; events without one get no
// reply.
type Envelope struct {
	Type    string          `json:"type"`
	ReplyTo string          `json:"reply_to,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ManualRoll asks for loot on a token from the HUD action.
type ManualRoll struct {
	Token    host.Token `json:"token"`
	UserIsGM bool       `json:"user_is_gm"`
}

// PocketChange handles token creation with coin.
type PocketChange interface {
	OnTokenCreated(ctx context.Context, e host.TokenCreated) pocket.Outcome
}

// RandomLoot handles token creation and manual rolls with items.
type RandomLoot interface {
	OnTokenCreated(ctx context.Context, e host.TokenCreated) randomloot.Outcome
	HandleManualRoll(ctx context.Context, token host.Token, userIsGM bool) randomloot.Outcome
}

// Dispatcher routes decoded events to the services.
type Dispatcher struct {
	pocket   PocketChange
	loot     RandomLoot
	treasure TreasureDesk
	drafts   DraftDesk
	replies  redis.UniversalClient
	logger   *zap.Logger
}

// NewDispatcher builds a Dispatcher.
//
// Precondition: every argument is non-nil.
func NewDispatcher(pc PocketChange, rl RandomLoot, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{pocket: pc, loot: rl, logger: logger}
}

// WithReplies publishes a Reply through client for every event that names
// a ReplyTo channel.
func (d *Dispatcher) WithReplies(client redis.UniversalClient) *Dispatcher {
	d.replies = client
	return d
}

// CoinResult reports the pocket change pass of a token_created reply.
type CoinResult struct {
	Skipped bool            `json:"skipped"`
	Reason  string          `json:"reason,omitempty"`
	Amount  currency.Amount `json:"amount"`
}

// LootResult reports a random loot pass. Draft is set when the pass opened
// a prompt; its ID is what draft requests refer to.
type LootResult struct {
	Skipped  bool              `json:"skipped"`
	Reason   string            `json:"reason,omitempty"`
	SourceID string            `json:"source_id,omitempty"`
	Results  []loot.DrawResult `json:"results,omitempty"`
	Draft    *randomloot.Draft `json:"draft,omitempty"`
}

// TokenCreatedResult is the Result of a token_created reply.
type TokenCreatedResult struct {
	Coin CoinResult `json:"coin"`
	Loot LootResult `json:"loot"`
}

func lootResult(out randomloot.Outcome) LootResult {
	return LootResult{
		Skipped:  out.Skipped,
		Reason:   out.Reason,
		SourceID: out.Rule.SourceID,
		Results:  out.Results,
		Draft:    out.Draft,
	}
}

// Dispatch decodes payload and runs it. A token creation runs pocket change
// before random loot.
//
// Postcondition: returns an error only for undecodable or unknown events
// and for replies that cannot be published; service skips are logged and
// replied.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) error {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decoding event envelope: %w", err)
	}
	switch env.Type {
	case TypeTokenCreated:
		var e host.TokenCreated
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		pc := d.pocket.OnTokenCreated(ctx, e)
		rl := d.loot.OnTokenCreated(ctx, e)
		d.logger.Debug("token created handled",
			zap.String("token", e.Token.DisplayName()),
			zap.Bool("coin_skipped", pc.Skipped),
			zap.String("coin_reason", pc.Reason),
			zap.Bool("loot_skipped", rl.Skipped),
			zap.String("loot_reason", rl.Reason),
		)
		return d.reply(ctx, env, TokenCreatedResult{
			Coin: CoinResult{Skipped: pc.Skipped, Reason: pc.Reason, Amount: pc.Generation.Amount},
			Loot: lootResult(rl),
		}, nil)
	case TypeManualRoll:
		var m ManualRoll
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		out := d.loot.HandleManualRoll(ctx, m.Token, m.UserIsGM)
		d.logger.Debug("manual roll handled",
			zap.String("token", m.Token.DisplayName()),
			zap.Bool("skipped", out.Skipped),
			zap.String("reason", out.Reason),
		)
		return d.reply(ctx, env, lootResult(out), nil)
	default:
		if d.treasure != nil && isTreasureEvent(env.Type) {
			return d.dispatchTreasure(ctx, env)
		}
		if d.drafts != nil && isDraftEvent(env.Type) {
			return d.dispatchDraft(ctx, env)
		}
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

// reply publishes the outcome of env to its ReplyTo channel. Events without
// one, or a Dispatcher without a reply client, get no reply.
func (d *Dispatcher) reply(ctx context.Context, env Envelope, result any, err error) error {
	r := Reply{Type: env.Type, OK: err == nil, Result: result}
	if err != nil {
		r.Result = nil
		r.Error = err.Error()
	}
	if env.ReplyTo == "" || d.replies == nil {
		return nil
	}
	data, merr := json.Marshal(r)
	if merr != nil {
		return fmt.Errorf("encoding %s reply: %w", env.Type, merr)
	}
	if perr := d.replies.Publish(ctx, env.ReplyTo, data).Err(); perr != nil {
		return fmt.Errorf("publishing %s reply: %w", env.Type, perr)
	}
	return nil
}

// Subscriber feeds a Redis channel into a Dispatcher.
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	d       *Dispatcher
	logger  *zap.Logger
}

// NewSubscriber builds a Subscriber for channel.
func NewSubscriber(client redis.UniversalClient, channel string, d *Dispatcher, logger *zap.Logger) *Subscriber {
	return &Subscriber{client: client, channel: channel, d: d, logger: logger}
}

// Run subscribes and dispatches messages one at a time until ctx is done.
// Malformed events are logged and dropped.
//
// Postcondition: returns nil after ctx cancellation, or the subscription
// error.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribing to %q: %w", s.channel, err)
	}
	s.logger.Info("listening for events", zap.String("channel", s.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %q closed", s.channel)
			}
			if err := s.d.Dispatch(ctx, []byte(msg.Payload)); err != nil {
				s.logger.Warn("dropping event", zap.String("channel", msg.Channel), zap.Error(err))
			}
		}
	}
}

// Publish encodes v under eventType and publishes it to channel.
func Publish(ctx context.Context, client redis.UniversalClient, channel, eventType string, v any) error {
	return PublishRequest(ctx, client, channel, eventType, "", v)
}

// PublishRequest is Publish with a reply channel.
func PublishRequest(ctx context.Context, client redis.UniversalClient, channel, eventType, replyTo string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	data, err := json.Marshal(Envelope{Type: eventType, ReplyTo: replyTo, Payload: payload})
	if err != nil {
		return fmt.Errorf("encoding event envelope: %w", err)
	}
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}
	return nil
}
