package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/randomloot"
)

// Random loot prompt request types. A draft is opened by a token_created or
// manual_roll event when prompts are on; these requests act on it by id and
// are answered with a Reply.
const (
	TypeDraftGet    = "draft_get"
	TypeDraftRoll   = "draft_roll"
	TypeDraftReroll = "draft_reroll"
	TypeDraftClear  = "draft_clear"
	TypeDraftAccept = "draft_accept"
	TypeDraftCancel = "draft_cancel"
)

func isDraftEvent(t string) bool {
	switch t {
	case TypeDraftGet, TypeDraftRoll, TypeDraftReroll, TypeDraftClear, TypeDraftAccept, TypeDraftCancel:
		return true
	}
	return false
}

// ErrNoDraftID is replied to a draft request without a draft id.
var ErrNoDraftID = errors.New("events: draft request needs a draft_id")

// DraftDesk serves prompt drafts. randomloot.Service implements it.
type DraftDesk interface {
	Draft(ctx context.Context, draftID string) (*randomloot.Draft, error)
	Roll(ctx context.Context, draftID string) (*randomloot.Draft, error)
	Reroll(ctx context.Context, draftID string) (*randomloot.Draft, error)
	Clear(ctx context.Context, draftID string) (*randomloot.Draft, error)
	Accept(ctx context.Context, draftID string) ([]loot.DrawResult, error)
	Cancel(ctx context.Context, draftID string) error
}

// WithDrafts enables draft requests, publishing replies through client.
func (d *Dispatcher) WithDrafts(drafts DraftDesk, client redis.UniversalClient) *Dispatcher {
	d.drafts = drafts
	d.replies = client
	return d
}

// DraftRequest is the payload of every draft request.
type DraftRequest struct {
	DraftID string `json:"draft_id"`
}

// AcceptResult is the Result of a draft_accept reply: the delivered draws,
// most recent first.
type AcceptResult struct {
	Results []loot.DrawResult `json:"results"`
}

func (d *Dispatcher) dispatchDraft(ctx context.Context, env Envelope) error {
	var req DraftRequest
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
	}
	result, err := d.handleDraft(ctx, env.Type, req.DraftID)
	if err != nil {
		d.logger.Warn("draft request failed",
			zap.String("type", env.Type),
			zap.String("draft", req.DraftID),
			zap.Error(err),
		)
	}
	return d.reply(ctx, env, result, err)
}

func (d *Dispatcher) handleDraft(ctx context.Context, eventType, id string) (any, error) {
	if id == "" {
		return nil, ErrNoDraftID
	}
	switch eventType {
	case TypeDraftGet:
		return d.drafts.Draft(ctx, id)
	case TypeDraftRoll:
		return d.drafts.Roll(ctx, id)
	case TypeDraftReroll:
		return d.drafts.Reroll(ctx, id)
	case TypeDraftClear:
		return d.drafts.Clear(ctx, id)
	case TypeDraftAccept:
		results, err := d.drafts.Accept(ctx, id)
		if err != nil {
			return nil, err
		}
		return AcceptResult{Results: results}, nil
	case TypeDraftCancel:
		return nil, d.drafts.Cancel(ctx, id)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
}
