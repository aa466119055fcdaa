package draw

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// Processor draws from a Source and resolves the raw lines into loot
// results.
type Processor struct {
	source   Source
	resolver *Resolver
	logger   *zap.Logger
}

// NewProcessor wires a Processor.
//
// Precondition: source and resolver are non-nil.
func NewProcessor(source Source, resolver *Resolver, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{source: source, resolver: resolver, logger: logger}
}

// Draw rolls sourceID once and processes the output.
func (p *Processor) Draw(ctx context.Context, sourceID string) ([]loot.DrawResult, error) {
	raws, err := p.source.Draw(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("drawing %q: %w", sourceID, err)
	}
	results := p.Process(ctx, raws)
	p.logger.Debug("draw processed",
		zap.String("source", sourceID),
		zap.Int("raw", len(raws)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Process classifies and resolves raws. Resolved items keep their drawn
// quantity (1 when absent). An unresolved item line that carries text
// degrades to a text result; one without text is dropped. Items precede
// text in the output.
func (p *Processor) Process(ctx context.Context, raws []RawResult) []loot.DrawResult {
	var items, texts []loot.DrawResult
	for _, raw := range raws {
		if IsText(raw) {
			texts = append(texts, loot.TextResult(raw.Text, 1))
			continue
		}
		item, err := p.resolver.Resolve(ctx, raw)
		if err != nil {
			p.logger.Debug("item not resolved",
				zap.String("id", raw.ID),
				zap.String("collection", raw.Collection),
				zap.String("text", raw.Text),
				zap.Error(err),
			)
			if raw.Text != "" {
				texts = append(texts, loot.TextResult(raw.Text, 1))
			}
			continue
		}
		items = append(items, loot.ItemResult(item, raw.Quantity))
	}
	return append(items, texts...)
}
