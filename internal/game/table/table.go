// Package table implements weighted roll tables loaded from YAML.
package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/lootable/internal/game/dice"
)

// Entry is one row of a table. A row covers Range when given, otherwise it
// is assigned a span of Weight (default 1) after the previous row.
type Entry struct {
	Range      []int  `yaml:"range"`
	Weight     int    `yaml:"weight"`
	Type       string `yaml:"type"`
	Collection string `yaml:"collection"`
	ID         string `yaml:"id"`
	Text       string `yaml:"text"`
	Quantity   string `yaml:"quantity"`
	Table      string `yaml:"table"`

	lo, hi int
}

// Table is a roll table. Formula defaults to 1dN over the covered span.
// Draws is a dice expression for how many rolls one draw makes.
type Table struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Formula string  `yaml:"formula"`
	Draws   string  `yaml:"draws"`
	Results []Entry `yaml:"results"`
}

// Validate checks t and assigns each entry its roll span.
//
// Precondition: t is non-nil.
// Postcondition: returns nil iff every entry has a usable span and the
// formula parses.
func (t *Table) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if len(t.Results) == 0 {
		errs = append(errs, errors.New("results must not be empty"))
	}
	next := 1
	for i := range t.Results {
		e := &t.Results[i]
		switch {
		case len(e.Range) == 2:
			if e.Range[0] > e.Range[1] {
				errs = append(errs, fmt.Errorf("results[%d]: range %v is inverted", i, e.Range))
			}
			e.lo, e.hi = e.Range[0], e.Range[1]
		case len(e.Range) == 0:
			w := e.Weight
			if w == 0 {
				w = 1
			}
			if w < 0 {
				errs = append(errs, fmt.Errorf("results[%d]: weight must be > 0, got %d", i, e.Weight))
			}
			e.lo, e.hi = next, next+w-1
		default:
			errs = append(errs, fmt.Errorf("results[%d]: range must have two bounds", i))
		}
		next = max(next, e.hi+1)
		if e.Type != "text" && e.ID == "" && e.Text == "" && e.Table == "" {
			errs = append(errs, fmt.Errorf("results[%d]: needs an id, text or table", i))
		}
		if e.Quantity != "" {
			if _, err := dice.Parse(e.Quantity); err != nil {
				errs = append(errs, fmt.Errorf("results[%d]: quantity: %w", i, err))
			}
		}
	}
	if t.Formula == "" && next > 1 {
		t.Formula = fmt.Sprintf("1d%d", next-1)
	}
	if t.Formula != "" {
		if _, err := dice.Parse(t.Formula); err != nil {
			errs = append(errs, fmt.Errorf("formula: %w", err))
		}
	}
	if t.Draws != "" {
		if _, err := dice.Parse(t.Draws); err != nil {
			errs = append(errs, fmt.Errorf("draws: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("table %q validation failed: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// Lookup returns the entry covering roll.
func (t *Table) Lookup(roll int) (Entry, bool) {
	for _, e := range t.Results {
		if roll >= e.lo && roll <= e.hi {
			return e, true
		}
	}
	return Entry{}, false
}

// Parse decodes and validates a single table document.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("table.Parse: %w", err)
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadDir reads every *.yaml and *.yml file in dir as a table.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all tables or the first encountered error.
func LoadDir(dir string) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDir: cannot read directory %q: %w", dir, err)
	}
	var tables []*Table
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDir: cannot read file %q: %w", path, err)
		}
		t, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("LoadDir: %q: %w", path, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}
