// Package randomloot draws items for newly placed creatures from the roll
// table their attributes select.
package randomloot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/rules"
	"github.com/cory-johannsen/lootable/internal/host"
)

// Mode selects when random loot runs.
type Mode string

const (
	// ModeOnCreate draws on token creation and from the HUD action.
	ModeOnCreate Mode = "on_create"
	// ModeManualOnly draws from the HUD action only.
	ModeManualOnly Mode = "manual_only"
)

// ParseMode accepts the configured mode names.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOnCreate, ModeManualOnly:
		return Mode(s), nil
	case "":
		return ModeOnCreate, nil
	}
	return "", fmt.Errorf("randomloot: unknown mode %q", s)
}

// Settings is a snapshot of the random loot options for one pass.
type Settings struct {
	Disabled   bool
	Mode       Mode
	HideHUD    bool
	HideChat   bool
	ShowPrompt bool
	Rules      []rules.Rule
}

// DefaultSettings mirrors the shipped configuration defaults.
func DefaultSettings() Settings {
	return Settings{Mode: ModeOnCreate, Rules: rules.DefaultRules()}
}

// Skip reasons reported on Outcome.
const (
	SkipUnauthorized = "not the creating gm"
	SkipNotGM        = "user is not a gm"
	SkipDisabled     = "random loot disabled"
	SkipManualOnly   = "random loot is manual only"
	SkipNoActor      = "token has no actor"
	SkipIneligible   = "token cannot receive loot"
	SkipNoType       = "creature has no type"
	SkipNoRule       = "no rule matched"
	SkipDrawFailed   = "draw failed"
	SkipEmpty        = "draw produced nothing"
	SkipInventory    = "inventory unavailable"
	SkipDraft        = "draft unavailable"
)

// Outcome reports what a pass did. Draft is set when the pass opened a
// prompt instead of delivering loot.
type Outcome struct {
	Skipped bool
	Reason  string
	Rule    rules.Rule
	Results []loot.DrawResult
	Draft   *Draft
}

func skipped(reason string) Outcome {
	return Outcome{Skipped: true, Reason: reason}
}

// Drawer rolls a source and resolves its output. draw.Processor implements
// it.
type Drawer interface {
	Draw(ctx context.Context, sourceID string) ([]loot.DrawResult, error)
}

// DraftStore persists prompt drafts between round-trips. session.Store
// implements it.
type DraftStore interface {
	Save(ctx context.Context, id string, d *Draft) error
	Load(ctx context.Context, id string) (*Draft, error)
	Delete(ctx context.Context, id string) error
}

// Service runs random loot passes and prompt drafts.
type Service struct {
	settings  func() Settings
	drawer    Drawer
	inventory host.InventorySink
	chat      host.ChatSink
	drafts    DraftStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a Service. settings is called once per pass.
//
// Precondition: every argument but logger is non-nil.
func NewService(settings func() Settings, drawer Drawer, inventory host.InventorySink, chat host.ChatSink, drafts DraftStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings:  settings,
		drawer:    drawer,
		inventory: inventory,
		chat:      chat,
		drafts:    drafts,
		logger:    logger,
		now:       time.Now,
	}
}

// OnTokenCreated runs the on-create pass. Failures are logged and reported
// as skips.
func (s *Service) OnTokenCreated(ctx context.Context, e host.TokenCreated) Outcome {
	out := s.onCreate(ctx, e)
	s.logSkip(e.Token, out)
	return out
}

func (s *Service) onCreate(ctx context.Context, e host.TokenCreated) Outcome {
	if !e.Authorized() {
		return skipped(SkipUnauthorized)
	}
	cfg := s.settings()
	if cfg.Disabled {
		return skipped(SkipDisabled)
	}
	if cfg.Mode == ModeManualOnly {
		return skipped(SkipManualOnly)
	}
	if e.Token.Actor == nil {
		return skipped(SkipNoActor)
	}
	candidate, ok := host.CandidateFromActor(e.Token.Actor)
	if !ok {
		return skipped(SkipNoType)
	}
	return s.generate(ctx, e.Token, candidate, cfg)
}

// HandleManualRoll runs the HUD action for token on behalf of a user.
func (s *Service) HandleManualRoll(ctx context.Context, token host.Token, userIsGM bool) Outcome {
	out := s.manual(ctx, token, userIsGM)
	s.logSkip(token, out)
	return out
}

func (s *Service) manual(ctx context.Context, token host.Token, userIsGM bool) Outcome {
	if !userIsGM {
		return skipped(SkipNotGM)
	}
	cfg := s.settings()
	if cfg.Disabled {
		return skipped(SkipDisabled)
	}
	if !CanTokenReceiveLoot(token, cfg.Rules) {
		return skipped(SkipIneligible)
	}
	candidate, _ := host.CandidateFromActor(token.Actor)
	return s.generate(ctx, token, candidate, cfg)
}

// CanTokenReceiveLoot reports whether token is an npc with a challenge
// rating and a creature type that some rule maps to a source.
func CanTokenReceiveLoot(token host.Token, list []rules.Rule) bool {
	a := token.Actor
	if a == nil || a.Kind != host.KindNPC || a.Details.CR == nil {
		return false
	}
	candidate, ok := host.CandidateFromActor(a)
	if !ok {
		return false
	}
	_, ok = rules.FindMatch(candidate, list)
	return ok
}

// ShowHUDButton reports whether the manual roll action is offered for
// token to a user.
func ShowHUDButton(cfg Settings, token host.Token, userIsGM bool) bool {
	return userIsGM && !cfg.HideHUD && !cfg.Disabled && CanTokenReceiveLoot(token, cfg.Rules)
}

func (s *Service) generate(ctx context.Context, token host.Token, candidate rules.Candidate, cfg Settings) Outcome {
	rule, ok := rules.FindMatch(candidate, cfg.Rules)
	if !ok {
		return skipped(SkipNoRule)
	}
	s.logger.Debug("random loot rule matched",
		zap.String("token", token.DisplayName()),
		zap.String("type", candidate.Type),
		zap.String("subtype", candidate.Subtype),
		zap.String("tag", candidate.Tag),
		zap.Float64("power", candidate.Power),
		zap.String("rule", rule.Name),
		zap.String("source", rule.SourceID),
	)

	if cfg.ShowPrompt {
		d, err := s.openDraft(ctx, token, rule.SourceID)
		if err != nil {
			s.logger.Warn("opening random loot draft", zap.String("token", token.ID), zap.Error(err))
			return Outcome{Skipped: true, Reason: SkipDraft, Rule: rule}
		}
		return Outcome{Rule: rule, Draft: d}
	}

	results, err := s.drawer.Draw(ctx, rule.SourceID)
	if err != nil {
		s.logger.Warn("random loot draw failed", zap.String("source", rule.SourceID), zap.Error(err))
		return Outcome{Skipped: true, Reason: SkipDrawFailed, Rule: rule}
	}
	if len(results) == 0 {
		return Outcome{Skipped: true, Reason: SkipEmpty, Rule: rule}
	}
	if err := s.deliver(ctx, token, results, cfg.HideChat); err != nil {
		s.logger.Warn("delivering random loot", zap.String("actor", token.Actor.ID), zap.Error(err))
		return Outcome{Skipped: true, Reason: SkipInventory, Rule: rule, Results: results}
	}
	return Outcome{Rule: rule, Results: results}
}

// deliver adds the consolidated items to the token's actor and, unless
// hidden, posts a summary.
func (s *Service) deliver(ctx context.Context, token host.Token, results []loot.DrawResult, hideChat bool) error {
	var items []loot.Item
	for _, r := range loot.Consolidate(results) {
		if r.Kind == loot.KindItem {
			items = append(items, *r.Item)
		}
	}
	if len(items) > 0 {
		if err := s.inventory.AddItems(ctx, token.Actor.ID, items); err != nil {
			return fmt.Errorf("adding items to %q: %w", token.Actor.ID, err)
		}
	}
	s.logger.Debug("random loot delivered",
		zap.String("actor", token.Actor.ID),
		zap.Int("results", len(results)),
		zap.Int("unique_items", len(items)),
	)
	if hideChat {
		return nil
	}
	if err := s.chat.Post(ctx, host.Summarize(token.DisplayName(), results)); err != nil {
		s.logger.Warn("posting random loot message", zap.Error(err))
	}
	return nil
}

func (s *Service) logSkip(token host.Token, out Outcome) {
	if !out.Skipped {
		return
	}
	s.logger.Debug("random loot skipped",
		zap.String("token", token.DisplayName()),
		zap.String("reason", out.Reason),
	)
}

var errNoActor = errors.New("randomloot: token has no actor")
