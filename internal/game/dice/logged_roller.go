package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every expression it evaluates at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness provider.
func (r *Roller) Source() Source {
	return r.src
}

// RollExpr parses expr, rolls it and logs the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	result, err := RollExpr(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}

// Quantity rolls a quantity expression, treating an empty expression as 1 and
// clamping the result to at least 1. Malformed expressions yield 1 and are
// logged at warn level.
func (r *Roller) Quantity(expr string) int {
	if expr == "" {
		return 1
	}
	result, err := r.RollExpr(expr)
	if err != nil {
		r.logger.Warn("invalid quantity expression", zap.String("expression", expr), zap.Error(err))
		return 1
	}
	if result.Total() < 1 {
		return 1
	}
	return result.Total()
}
