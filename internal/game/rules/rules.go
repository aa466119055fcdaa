// Package rules selects a loot source for a creature from an ordered list of
// match rules.
package rules

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Candidate holds the normalized attributes of a creature being matched.
// Type, Subtype and Tag may each carry a comma-joined list.
type Candidate struct {
	Type    string
	Subtype string
	Tag     string
	Power   float64
}

// PowerRange is an inclusive [Min, Max] challenge rating interval.
type PowerRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether p lies in the range, bounds included.
func (r PowerRange) Contains(p float64) bool {
	return p >= r.Min && p <= r.Max
}

// Rule maps creature attributes to a loot source. Empty match fields are
// wildcards. A rule with an empty SourceID never matches.
type Rule struct {
	Name         string     `yaml:"name,omitempty" json:"name,omitempty"`
	MatchType    string     `yaml:"type" json:"type"`
	MatchSubtype string     `yaml:"subtype" json:"subtype"`
	MatchTag     string     `yaml:"tag" json:"tag"`
	Power        PowerRange `yaml:"power" json:"power"`
	SourceID     string     `yaml:"source" json:"source"`
}

// DefaultPowerRange is the range given to rules that omit one.
var DefaultPowerRange = PowerRange{Min: 0, Max: 30}

// Tokens splits a comma-joined list into lowercase trimmed tokens, dropping
// empties.
func Tokens(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if tok := strings.ToLower(strings.TrimSpace(part)); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// fieldMatches reports whether the rule field is a wildcard or shares at
// least one token with the candidate field.
func fieldMatches(ruleField, candidateField string) bool {
	want := Tokens(ruleField)
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{})
	for _, tok := range Tokens(candidateField) {
		have[tok] = struct{}{}
	}
	for _, tok := range want {
		if _, ok := have[tok]; ok {
			return true
		}
	}
	return false
}

// Matches reports whether r selects c.
//
// Postcondition: false whenever r.SourceID is empty.
func (r Rule) Matches(c Candidate) bool {
	if r.SourceID == "" {
		return false
	}
	return fieldMatches(r.MatchType, c.Type) &&
		fieldMatches(r.MatchSubtype, c.Subtype) &&
		fieldMatches(r.MatchTag, c.Tag) &&
		r.Power.Contains(c.Power)
}

// FindMatch returns the first rule in list order that matches c.
// List position is the only priority; no specificity scoring is applied.
//
// Postcondition: ok is false iff no rule matches.
func FindMatch(c Candidate, list []Rule) (Rule, bool) {
	for _, r := range list {
		if r.Matches(c) {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate checks a rule at the editing boundary. Rules that fail
// validation still never panic FindMatch; an inverted range simply never
// matches.
//
// Postcondition: returns nil iff the power range is finite, non-negative
// and ordered.
func (r Rule) Validate() error {
	var errs []error
	if math.IsNaN(r.Power.Min) || math.IsNaN(r.Power.Max) {
		errs = append(errs, errors.New("power range must be numeric"))
	}
	if r.Power.Min < 0 {
		errs = append(errs, fmt.Errorf("power min must be >= 0, got %v", r.Power.Min))
	}
	if r.Power.Min > r.Power.Max {
		errs = append(errs, fmt.Errorf("power min (%v) must be <= max (%v)", r.Power.Min, r.Power.Max))
	}
	if len(errs) > 0 {
		return fmt.Errorf("rule %q: %w", r.label(), errors.Join(errs...))
	}
	return nil
}

func (r Rule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return strings.Join([]string{r.MatchType, r.MatchSubtype, r.MatchTag}, "/")
}
