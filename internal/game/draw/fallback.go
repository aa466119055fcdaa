package draw

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Fallback draws from Primary and falls back to Secondary when Primary is
// absent, does not know the source, or fails.
type Fallback struct {
	Primary   Source
	Secondary Source
	Logger    *zap.Logger
}

// Draw implements Source.
func (f *Fallback) Draw(ctx context.Context, sourceID string) ([]RawResult, error) {
	if f.Primary != nil {
		out, err := f.Primary.Draw(ctx, sourceID)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrSourceNotFound) {
			f.logger().Debug("primary draw failed, falling back",
				zap.String("source", sourceID),
				zap.Error(err),
			)
		}
	}
	if f.Secondary == nil {
		return nil, ErrSourceNotFound
	}
	return f.Secondary.Draw(ctx, sourceID)
}

// Tables merges the listings of both sources, dropping duplicate ids, sorted
// by name.
func (f *Fallback) Tables(ctx context.Context) ([]TableInfo, error) {
	seen := make(map[string]bool)
	var out []TableInfo
	for _, s := range []Source{f.Primary, f.Secondary} {
		l, ok := s.(Lister)
		if !ok || s == nil {
			continue
		}
		tables, err := l.Tables(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	SortTables(out)
	return out, nil
}

func (f *Fallback) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
