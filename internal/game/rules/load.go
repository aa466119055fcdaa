package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk shape of a rules file.
type file struct {
	Rules []ruleYAML `yaml:"rules"`
}

// ruleYAML leaves the power range optional so omitted ranges can default.
type ruleYAML struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Subtype string      `yaml:"subtype"`
	Tag     string      `yaml:"tag"`
	Power   *PowerRange `yaml:"power"`
	Source  string      `yaml:"source"`
}

// ParseRules decodes an ordered rule list from YAML and validates every rule.
//
// Postcondition: returned rules preserve document order.
func ParseRules(data []byte) ([]Rule, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ParseRules: %w", err)
	}
	out := make([]Rule, 0, len(f.Rules))
	var errs []error
	for i, ry := range f.Rules {
		r := Rule{
			Name:         ry.Name,
			MatchType:    ry.Type,
			MatchSubtype: ry.Subtype,
			MatchTag:     ry.Tag,
			Power:        DefaultPowerRange,
			SourceID:     ry.Source,
		}
		if ry.Power != nil {
			r.Power = *ry.Power
		}
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rules[%d]: %w", i, err))
			continue
		}
		out = append(out, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("ParseRules: %w", errors.Join(errs...))
	}
	return out, nil
}

// LoadRulesFile reads and parses the YAML rules file at path.
//
// Precondition: path names a readable file.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRulesFile: cannot read %q: %w", path, err)
	}
	list, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("LoadRulesFile %q: %w", path, err)
	}
	return list, nil
}
