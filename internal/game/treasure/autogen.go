package treasure

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// AutogenInput parameterizes Autogenerate.
type AutogenInput struct {
	Min            float64
	Max            float64
	CoinPercentage float64
	// Eligible lists the sources to draw from, in listing order.
	Eligible []draw.TableInfo
	// MaxAttempts bounds the draw loop. Zero uses the configured limit.
	MaxAttempts int
}

// AutogenReport describes an autogeneration run. Notice is nil on
// convergence, and otherwise wraps ErrNoEligibleSources or
// ErrGenerationLimit.
type AutogenReport struct {
	Seed      currency.Amount
	Value     float64
	Attempts  int
	Rollbacks int
	State     State
	Notice    error
}

// ClampCoinPercentage bounds pct to [0,100]; zero or NaN selects def.
func ClampCoinPercentage(pct, def float64) float64 {
	if pct == 0 || math.IsNaN(pct) {
		pct = def
	}
	return min(100, max(0, pct))
}

// Autogenerate replaces the pile with a coin seed worth
// floor(Min*CoinPercentage/100) gp, then draws random eligible sources
// until the pile is worth at least Min or the attempt budget is spent. A
// draw that would push the total above a positive Max is rolled back.
//
// Postcondition: Attempts <= MaxAttempts. Only context cancellation is
// returned as an error; exhaustion and missing sources are notices.
func (s *Session) Autogenerate(ctx context.Context, in AutogenInput) (AutogenReport, error) {
	cfg := s.c.settings()
	maxAttempts := in.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = cfg.GenerationLimit
	}

	target := math.Floor(in.Min * in.CoinPercentage / 100)
	seed := currency.DistributeGold(target, s.c.src)
	s.c.logger.Debug("treasure coin seed",
		zap.Float64("gold", target),
		zap.Strings("steps", seed.Steps),
		zap.Stringer("coins", seed.Amount),
	)
	current := []loot.PileEntry{loot.CoinEntry(seed.Amount)}
	value := loot.ValueOf(current)
	report := AutogenReport{Seed: seed.Amount}

	finish := func(state State, notice error) (AutogenReport, error) {
		s.entries = current
		s.touch(state)
		report.Value = value
		report.State = state
		report.Notice = notice
		return report, nil
	}

	if len(in.Eligible) == 0 {
		s.c.logger.Warn("treasure autogeneration has no eligible sources")
		state := StateConverged
		if value < in.Min {
			state = StateExhausted
		}
		return finish(state, ErrNoEligibleSources)
	}

	for value < in.Min && report.Attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempts++
		snapshot, snapshotValue := loot.ClonePile(current), value

		pick := in.Eligible[s.c.src.Intn(len(in.Eligible))]
		added, err := s.c.drawEntries(ctx, pick.ID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			s.c.logger.Warn("treasure autogeneration draw failed", zap.String("source", pick.ID), zap.Error(err))
			continue
		}
		if len(added) == 0 {
			continue
		}
		current = loot.MergePile(append(current, added...))
		value = loot.ValueOf(current)
		if in.Max > 0 && value > in.Max {
			s.c.logger.Debug("treasure draw rolled back",
				zap.String("source", pick.ID),
				zap.Float64("value", value),
				zap.Float64("max", in.Max),
			)
			current, value = snapshot, snapshotValue
			report.Rollbacks++
		}
	}

	if value < in.Min {
		s.c.logger.Warn("treasure generation limit reached",
			zap.Int("attempts", report.Attempts),
			zap.Float64("value", value),
			zap.Float64("min", in.Min),
		)
		return finish(StateExhausted, fmt.Errorf("%w after %d attempts at %.2f gp", ErrGenerationLimit, report.Attempts, value))
	}
	return finish(StateConverged, nil)
}

// AvailableSources lists the sources shown for manual rolls: every source
// when showAll is set, otherwise only the defaults, sorted by name.
func AvailableSources(all []draw.TableInfo, defaults []string, showAll bool) []draw.TableInfo {
	var out []draw.TableInfo
	for _, t := range all {
		if showAll || slices.Contains(defaults, t.ID) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b draw.TableInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// EligibleSources lists the default sources autogeneration may draw from,
// ordered by name.
func EligibleSources(all []draw.TableInfo, defaults []string) []draw.TableInfo {
	return AvailableSources(all, defaults, false)
}

// AutogenListing orders all for the autogeneration picker: defaults first,
// then the rest, each group by name.
func AutogenListing(all []draw.TableInfo, defaults []string) []draw.TableInfo {
	out := slices.Clone(all)
	slices.SortStableFunc(out, func(a, b draw.TableInfo) int {
		ad, bd := slices.Contains(defaults, a.ID), slices.Contains(defaults, b.ID)
		switch {
		case ad && !bd:
			return -1
		case bd && !ad:
			return 1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
