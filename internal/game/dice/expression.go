package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var expressionPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Limits on a single expression. Table and script authors pick expressions,
// so each roll stays bounded.
const (
	MaxDice  = 1000
	MaxSides = 10000
)

// Expression is a parsed dice expression. A constant expression such as "3"
// has Count == 0 and carries its value in Modifier.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// IsConstant reports whether the expression rolls no dice.
func (e Expression) IsConstant() bool {
	return e.Count == 0
}

// Parse parses "3", "d6", "1d4", "2d6+1" or "3d8-2". Whitespace is ignored.
//
// Postcondition: Returns an Expression with Count == 0 or (1 <= Count <=
// MaxDice and 1 <= Sides <= MaxSides), or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.Join(strings.Fields(expr), ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Expression{Raw: s, Modifier: n}, nil
	}

	m := expressionPattern.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}

	count := 1
	if m[1] != "" {
		var err error
		if count, err = strconv.Atoi(m[1]); err != nil {
			count = MaxDice + 1
		}
	}
	if count < 1 || count > MaxDice {
		return Expression{}, fmt.Errorf("dice: die count in %q must be between 1 and %d", expr, MaxDice)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 1 || sides > MaxSides {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be between 1 and %d", expr, MaxSides)
	}
	modifier := 0
	if m[3] != "" {
		modifier, _ = strconv.Atoi(m[3])
	}
	return Expression{Raw: s, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Intended for package-level values.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Roll evaluates expr against src.
//
// Postcondition: len(result.Dice) == expr.Count.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// RollExpr parses and rolls expr in one call.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}
