package table

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/draw"
)

// maxDepth bounds nested table references.
const maxDepth = 5

// MaxDraws bounds the rolls one table makes per draw, and the rolls one
// Draw makes across all nested tables.
const MaxDraws = 100

// Source draws from in-memory YAML tables.
type Source struct {
	tables map[string]*Table
	roller *dice.Roller
	logger *zap.Logger
}

// NewSource indexes tables by id.
//
// Precondition: roller and logger are non-nil.
// Postcondition: returns an error on invalid tables, duplicate ids or
// dangling nested references.
func NewSource(tables []*Table, roller *dice.Roller, logger *zap.Logger) (*Source, error) {
	s := &Source{tables: make(map[string]*Table, len(tables)), roller: roller, logger: logger}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("table.NewSource: %w", err)
		}
		if _, dup := s.tables[t.ID]; dup {
			return nil, fmt.Errorf("table.NewSource: duplicate table id %q", t.ID)
		}
		s.tables[t.ID] = t
	}
	for _, t := range tables {
		for i, e := range t.Results {
			if e.Table == "" {
				continue
			}
			if _, ok := s.tables[e.Table]; !ok {
				return nil, fmt.Errorf("table.NewSource: %q results[%d] references unknown table %q", t.ID, i, e.Table)
			}
		}
	}
	return s, nil
}

// Draw implements draw.Source.
func (s *Source) Draw(ctx context.Context, sourceID string) ([]draw.RawResult, error) {
	t, ok := s.tables[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", draw.ErrSourceNotFound, sourceID)
	}
	b := &budget{left: MaxDraws}
	out, err := s.draw(ctx, t, 0, b)
	if err != nil {
		return nil, err
	}
	if b.exhausted {
		s.logger.Warn("table draw budget exhausted", zap.String("table", sourceID), zap.Int("max", MaxDraws))
	}
	return out, nil
}

// budget counts the rolls left to one Draw across every nested level.
type budget struct {
	left      int
	exhausted bool
}

func (b *budget) spend() bool {
	if b.left == 0 {
		b.exhausted = true
		return false
	}
	b.left--
	return true
}

func (s *Source) draw(ctx context.Context, t *Table, depth int, b *budget) ([]draw.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.roller.Quantity(t.Draws)
	if n > MaxDraws {
		s.logger.Warn("table draws capped", zap.String("table", t.ID), zap.Int("draws", n), zap.Int("max", MaxDraws))
		n = MaxDraws
	}
	var out []draw.RawResult
	for i := 0; i < n && b.spend(); i++ {
		roll, err := s.roller.RollExpr(t.Formula)
		if err != nil {
			return nil, fmt.Errorf("rolling table %q: %w", t.ID, err)
		}
		e, ok := t.Lookup(roll.Total())
		if !ok {
			s.logger.Debug("table roll hit no result", zap.String("table", t.ID), zap.Int("roll", roll.Total()))
			continue
		}
		if e.Table != "" {
			if depth+1 >= maxDepth {
				s.logger.Warn("nested table depth exceeded", zap.String("table", t.ID), zap.String("ref", e.Table))
				continue
			}
			nested, err := s.draw(ctx, s.tables[e.Table], depth+1, b)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, draw.RawResult{
			Type:       e.Type,
			Collection: e.Collection,
			ID:         e.ID,
			Text:       e.Text,
			Quantity:   s.roller.Quantity(e.Quantity),
		})
	}
	return out, nil
}

// Tables implements draw.Lister, sorted by name.
func (s *Source) Tables(ctx context.Context) ([]draw.TableInfo, error) {
	out := make([]draw.TableInfo, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, draw.TableInfo{ID: t.ID, Name: t.Name})
	}
	draw.SortTables(out)
	return out, nil
}
