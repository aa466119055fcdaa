// Package catalog holds the live registry of world items.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// WorldName is the catalog name of the live registry.
const WorldName = "world"

// Registry is an in-memory item catalog indexed by id and exact name.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]loot.Item
	byName map[string]string
	order  []string
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]loot.Item),
		byName: make(map[string]string),
	}
}

// Register adds item.
//
// Postcondition: ItemByID(item.ID) returns item; returns an error if the id
// is empty or already registered. The first item registered under a name
// wins name lookups.
func (r *Registry) Register(item loot.Item) error {
	if item.ID == "" {
		return errors.New("catalog: Registry.Register: item id must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[item.ID]; exists {
		return fmt.Errorf("catalog: Registry.Register: item ID %q already registered", item.ID)
	}
	r.byID[item.ID] = item.Clone()
	if _, taken := r.byName[item.Name]; !taken {
		r.byName[item.Name] = item.ID
	}
	r.order = append(r.order, item.ID)
	return nil
}

// Name implements draw.Catalog.
func (r *Registry) Name() string { return WorldName }

// ItemByID implements draw.Catalog.
func (r *Registry) ItemByID(_ context.Context, id string) (loot.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.byID[id]
	if !ok {
		return loot.Item{}, fmt.Errorf("%w: world id %q", draw.ErrItemNotFound, id)
	}
	return item.Clone(), nil
}

// ItemByName implements draw.Catalog.
func (r *Registry) ItemByName(_ context.Context, name string) (loot.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return loot.Item{}, fmt.Errorf("%w: world name %q", draw.ErrItemNotFound, name)
	}
	return r.byID[id].Clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// All returns every registered item sorted by name.
func (r *Registry) All() []loot.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]loot.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// itemsFile is the on-disk shape of an items file.
type itemsFile struct {
	Items []loot.Item `yaml:"items"`
}

// LoadItemsDir reads every *.yaml and *.yml file in dir and registers the
// items it lists.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns the number of items registered or the first error.
func (r *Registry) LoadItemsDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("LoadItemsDir: cannot read directory %q: %w", dir, err)
	}
	n := 0
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return n, fmt.Errorf("LoadItemsDir: cannot read file %q: %w", path, err)
		}
		var f itemsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return n, fmt.Errorf("LoadItemsDir: cannot parse file %q: %w", path, err)
		}
		for _, item := range f.Items {
			if item.Name == "" {
				return n, fmt.Errorf("LoadItemsDir: item %q in %q has no name", item.ID, path)
			}
			if err := r.Register(item); err != nil {
				return n, fmt.Errorf("LoadItemsDir: %q: %w", path, err)
			}
			n++
		}
	}
	return n, nil
}
