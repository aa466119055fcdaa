package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateRule is returned when an edit would produce two rules with the
// same match fields and power range.
var ErrDuplicateRule = errors.New("rules: duplicate rule")

// ErrIndexOutOfRange is returned by edits addressing a missing position.
var ErrIndexOutOfRange = errors.New("rules: index out of range")

// DefaultRules is the rule list a fresh installation starts with: an inert
// humanoid rule waiting for a source.
func DefaultRules() []Rule {
	return []Rule{{MatchType: "humanoid", Power: DefaultPowerRange}}
}

// Set is an editable ordered rule list. It enforces validation and
// uniqueness at the editing boundary so FindMatch never has to.
// A Set is not safe for concurrent use.
type Set struct {
	rules []Rule
}

// NewSet builds a Set from list, validating every rule.
func NewSet(list []Rule) (*Set, error) {
	s := &Set{}
	for _, r := range list {
		if err := s.Add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Rules returns a copy of the ordered rules.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Add appends r.
//
// Postcondition: on error the set is unchanged.
func (s *Set) Add(r Rule) error {
	r = normalize(r)
	if err := r.Validate(); err != nil {
		return err
	}
	if s.duplicateOf(r, -1) {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.label())
	}
	s.rules = append(s.rules, r)
	return nil
}

// Replace overwrites the rule at i.
func (s *Set) Replace(i int, r Rule) error {
	if i < 0 || i >= len(s.rules) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	r = normalize(r)
	if err := r.Validate(); err != nil {
		return err
	}
	if s.duplicateOf(r, i) {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.label())
	}
	s.rules[i] = r
	return nil
}

// SetSource assigns sourceID to the rule at i. An empty id makes the rule
// inert.
func (s *Set) SetSource(i int, sourceID string) error {
	if i < 0 || i >= len(s.rules) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	s.rules[i].SourceID = sourceID
	return nil
}

// Remove deletes the rule at i.
func (s *Set) Remove(i int) error {
	if i < 0 || i >= len(s.rules) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}

// Move shifts the rule at i by delta positions. Moves past either end are
// ignored.
func (s *Set) Move(i, delta int) {
	j := i + delta
	if i < 0 || i >= len(s.rules) || j < 0 || j >= len(s.rules) {
		return
	}
	s.rules[i], s.rules[j] = s.rules[j], s.rules[i]
}

// Find returns the first matching rule.
func (s *Set) Find(c Candidate) (Rule, bool) {
	return FindMatch(c, s.rules)
}

func (s *Set) duplicateOf(r Rule, skip int) bool {
	for i, e := range s.rules {
		if i == skip {
			continue
		}
		if e.MatchType == r.MatchType && e.MatchSubtype == r.MatchSubtype &&
			e.MatchTag == r.MatchTag && e.Power == r.Power {
			return true
		}
	}
	return false
}

// normalize lowercases and trims the match fields.
func normalize(r Rule) Rule {
	r.MatchType = strings.ToLower(strings.TrimSpace(r.MatchType))
	r.MatchSubtype = strings.ToLower(strings.TrimSpace(r.MatchSubtype))
	r.MatchTag = strings.ToLower(strings.TrimSpace(r.MatchTag))
	return r
}
