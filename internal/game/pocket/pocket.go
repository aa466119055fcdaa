// Package pocket mints passive coin for newly placed creatures.
package pocket

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/rules"
	"github.com/cory-johannsen/lootable/internal/host"
)

// Settings is a snapshot of the pocket change options for one pass.
type Settings struct {
	Disabled       bool
	PerCoin        float64
	MinCoin        int
	IgnoreExisting bool
	AllowedTypes   string
	Profile        currency.Profile
	HideChat       bool
}

// DefaultSettings mirrors the shipped configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		PerCoin:        1,
		MinCoin:        10,
		IgnoreExisting: true,
		AllowedTypes:   "humanoid",
		Profile:        currency.ProfileFromFractions(0, 0.1, 0.05, 0.1, 0.05),
	}
}

// Skip reasons reported on Outcome.
const (
	SkipUnauthorized = "not the creating gm"
	SkipDisabled     = "pocket change disabled"
	SkipNoActor      = "token has no actor"
	SkipNoCR         = "actor has no challenge rating"
	SkipType         = "creature type not allowed"
	SkipHasCoin      = "actor already has coin"
	SkipNoCurrency   = "actor has no currency field"
	SkipZero         = "rolled no coin"
	SkipLedger       = "ledger unavailable"
)

// Generation is a rolled and decomposed coin amount.
type Generation struct {
	Roll   currency.BaseRoll
	Amount currency.Amount
}

// Penniless reports whether the no-coin outcome fired.
func (g Generation) Penniless() bool { return g.Roll.IsZero }

// Outcome reports what a token-created pass did.
type Outcome struct {
	Skipped    bool
	Reason     string
	Generation Generation
}

func skipped(reason string) Outcome {
	return Outcome{Skipped: true, Reason: reason}
}

// Generate rolls and decomposes coin for a creature of the given power.
func Generate(power float64, s Settings, src dice.Source) Generation {
	roll := currency.RollBaseAmount(power, s.PerCoin, s.Profile, src)
	g := Generation{Roll: roll}
	if roll.Amount > 0 {
		g.Amount = currency.Decompose(roll.Amount, s.MinCoin, src)
	}
	return g
}

// Service reacts to token creation by crediting coin to the actor.
type Service struct {
	settings func() Settings
	ledger   host.ActorLedger
	chat     host.ChatSink
	src      dice.Source
	logger   *zap.Logger
}

// NewService wires a Service. settings is called once per pass.
//
// Precondition: every argument but logger is non-nil.
func NewService(settings func() Settings, ledger host.ActorLedger, chat host.ChatSink, src dice.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{settings: settings, ledger: ledger, chat: chat, src: src, logger: logger}
}

// OnTokenCreated runs one pocket change pass. Failures are logged and
// reported as skips; they never propagate to the host.
func (s *Service) OnTokenCreated(ctx context.Context, e host.TokenCreated) Outcome {
	out := s.run(ctx, e)
	if out.Skipped {
		s.logger.Debug("pocket change skipped",
			zap.String("token", e.Token.DisplayName()),
			zap.String("reason", out.Reason),
		)
	}
	return out
}

func (s *Service) run(ctx context.Context, e host.TokenCreated) Outcome {
	if !e.Authorized() {
		return skipped(SkipUnauthorized)
	}
	cfg := s.settings()
	if cfg.Disabled {
		return skipped(SkipDisabled)
	}
	actor := e.Token.Actor
	if actor == nil {
		return skipped(SkipNoActor)
	}
	if actor.Details.CR == nil {
		return skipped(SkipNoCR)
	}
	if !slices.Contains(rules.Tokens(cfg.AllowedTypes), actor.PrimaryType()) {
		return skipped(SkipType)
	}
	purse, err := s.ledger.GetCurrency(ctx, actor.ID)
	if err != nil {
		s.logger.Warn("reading actor currency", zap.String("actor", actor.ID), zap.Error(err))
		return skipped(SkipLedger)
	}
	if cfg.IgnoreExisting && purse != nil && purse.HasCoin() {
		return skipped(SkipHasCoin)
	}

	gen := Generate(actor.Power(), cfg, s.src)
	s.logger.Debug("pocket change rolled",
		zap.String("token", e.Token.DisplayName()),
		zap.Stringer("profile", gen.Roll.Outcome),
		zap.Float64("weight", gen.Roll.Weight),
		zap.Int("roll", gen.Roll.Roll),
		zap.Int("base", gen.Roll.Base),
		zap.Float64("multiplier", gen.Roll.Multiplier),
		zap.Int("cp", gen.Roll.Amount),
		zap.Stringer("coins", gen.Amount),
	)
	if gen.Roll.Amount <= 0 && !gen.Penniless() {
		return Outcome{Skipped: true, Reason: SkipZero, Generation: gen}
	}
	if purse == nil {
		return Outcome{Skipped: true, Reason: SkipNoCurrency, Generation: gen}
	}
	if err := s.ledger.AddCurrency(ctx, actor.ID, gen.Amount); err != nil {
		s.logger.Warn("crediting actor currency", zap.String("actor", actor.ID), zap.Error(err))
		return Outcome{Skipped: true, Reason: SkipLedger, Generation: gen}
	}
	if !cfg.HideChat {
		msg := host.Message{
			Kind:      host.MessageCoin,
			TokenName: e.Token.DisplayName(),
			Coins:     gen.Amount,
			Penniless: gen.Penniless(),
		}
		if err := s.chat.Post(ctx, msg); err != nil {
			s.logger.Warn("posting pocket change message", zap.Error(err))
		}
	}
	return Outcome{Generation: gen}
}
