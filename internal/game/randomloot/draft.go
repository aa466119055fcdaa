package randomloot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/host"
)

// ErrNoDraws is returned by Accept when a draft holds nothing to deliver.
var ErrNoDraws = errors.New("randomloot: draft has no draws")

// Draft is a prompt in progress: the GM rolls, rerolls, and clears draws
// for one token before accepting them.
type Draft struct {
	ID       string     `json:"id"`
	SourceID string     `json:"source_id"`
	Token    host.Token `json:"token"`
	// Draws holds each roll's results, most recent first.
	Draws     [][]loot.DrawResult `json:"draws"`
	CreatedAt time.Time           `json:"created_at"`
}

// Results flattens every draw, most recent first.
func (d *Draft) Results() []loot.DrawResult {
	return loot.Flatten(d.Draws...)
}

func (s *Service) openDraft(ctx context.Context, token host.Token, sourceID string) (*Draft, error) {
	if token.Actor == nil {
		return nil, errNoActor
	}
	d := &Draft{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Token:     token,
		CreatedAt: s.now().UTC(),
	}
	if err := s.drafts.Save(ctx, d.ID, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Roll draws once more and prepends the results. An empty draw leaves the
// draft unchanged.
func (s *Service) Roll(ctx context.Context, draftID string) (*Draft, error) {
	return s.update(ctx, draftID, func(d *Draft) (bool, error) {
		results, err := s.drawer.Draw(ctx, d.SourceID)
		if err != nil {
			return false, err
		}
		if len(results) == 0 {
			return false, nil
		}
		d.Draws = append([][]loot.DrawResult{results}, d.Draws...)
		return true, nil
	})
}

// Reroll replaces the most recent draw. It is a no-op on a draft with no
// draws or when the new draw is empty.
func (s *Service) Reroll(ctx context.Context, draftID string) (*Draft, error) {
	return s.update(ctx, draftID, func(d *Draft) (bool, error) {
		if len(d.Draws) == 0 {
			return false, nil
		}
		results, err := s.drawer.Draw(ctx, d.SourceID)
		if err != nil {
			return false, err
		}
		if len(results) == 0 {
			return false, nil
		}
		d.Draws[0] = results
		return true, nil
	})
}

// Clear drops every draw.
func (s *Service) Clear(ctx context.Context, draftID string) (*Draft, error) {
	return s.update(ctx, draftID, func(d *Draft) (bool, error) {
		d.Draws = nil
		return true, nil
	})
}

// Accept delivers every draw to the token's actor, posts a summary unless
// hidden, and closes the draft.
//
// Postcondition: the draft is deleted iff err is nil.
func (s *Service) Accept(ctx context.Context, draftID string) ([]loot.DrawResult, error) {
	d, err := s.drafts.Load(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	results := d.Results()
	if len(results) == 0 {
		return nil, ErrNoDraws
	}
	cfg := s.settings()
	if err := s.deliver(ctx, d.Token, results, cfg.HideChat); err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		s.logger.Warn("deleting accepted draft", zap.String("draft", draftID), zap.Error(err))
	}
	return results, nil
}

// Cancel discards the draft.
func (s *Service) Cancel(ctx context.Context, draftID string) error {
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// Draft loads a draft.
func (s *Service) Draft(ctx context.Context, draftID string) (*Draft, error) {
	return s.drafts.Load(ctx, draftID)
}

func (s *Service) update(ctx context.Context, draftID string, fn func(*Draft) (bool, error)) (*Draft, error) {
	d, err := s.drafts.Load(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	changed, err := fn(d)
	if err != nil {
		return nil, fmt.Errorf("draft %q: %w", draftID, err)
	}
	if !changed {
		return d, nil
	}
	if err := s.drafts.Save(ctx, draftID, d); err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}
	return d, nil
}
