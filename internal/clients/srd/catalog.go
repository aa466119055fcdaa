// Package srd exposes the D&D 5e SRD equipment list as an item catalog.
package srd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	"github.com/fadedpez/dnd5e-api/entities"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

// PackName is the catalog name SRD items are filed under.
const PackName = "dnd5e.srd"

// EquipmentAPI is the subset of the dnd5e-api client the catalog uses.
type EquipmentAPI interface {
	ListEquipment() ([]*entities.ReferenceItem, error)
	GetEquipment(key string) (dnd5e.EquipmentInterface, error)
}

// Config configures the SRD client.
type Config struct {
	// BaseURL defaults to https://www.dnd5eapi.co/api/2014/.
	BaseURL string
	// HTTPTimeout defaults to 30 seconds.
	HTTPTimeout time.Duration
	// CacheTTL defaults to 24 hours.
	CacheTTL time.Duration
}

// Validate sets defaults for unset fields.
func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.dnd5eapi.co/api/2014/"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.HTTPTimeout < 0 || cfg.CacheTTL < 0 {
		return fmt.Errorf("srd: timeouts must be positive")
	}
	return nil
}

// Catalog implements draw.Catalog over the SRD equipment list. The
// equipment index is fetched once on first use; a failed fetch is retried
// on the next lookup.
type Catalog struct {
	api    EquipmentAPI
	logger *zap.Logger

	mu     sync.Mutex
	loaded bool
	byKey  map[string]string
	byName map[string]string
}

// New builds a Catalog backed by a cached HTTP client.
func New(cfg *Config, logger *zap.Logger) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("srd: creating D&D 5e API client: %w", err)
	}
	return NewWithAPI(dnd5e.NewCachedClient(base, cfg.CacheTTL), logger), nil
}

// NewWithAPI builds a Catalog over api.
func NewWithAPI(api EquipmentAPI, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{api: api, logger: logger}
}

// Name implements draw.Catalog.
func (c *Catalog) Name() string { return PackName }

func (c *Catalog) index() (map[string]string, map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.byKey, c.byName, nil
	}
	refs, err := c.api.ListEquipment()
	if err != nil {
		return nil, nil, fmt.Errorf("srd: listing equipment: %w", err)
	}
	c.byKey = make(map[string]string, len(refs))
	c.byName = make(map[string]string, len(refs))
	for _, ref := range refs {
		if ref == nil || ref.Key == "" {
			continue
		}
		c.byKey[ref.Key] = ref.Name
		if _, dup := c.byName[ref.Name]; !dup {
			c.byName[ref.Name] = ref.Key
		}
	}
	c.loaded = true
	c.logger.Debug("srd equipment index loaded", zap.Int("items", len(c.byKey)))
	return c.byKey, c.byName, nil
}

// ItemByID implements draw.Catalog. id is the SRD equipment key.
func (c *Catalog) ItemByID(ctx context.Context, id string) (loot.Item, error) {
	byKey, _, err := c.index()
	if err != nil {
		return loot.Item{}, err
	}
	if _, ok := byKey[id]; !ok {
		return loot.Item{}, fmt.Errorf("%w: srd key %q", draw.ErrItemNotFound, id)
	}
	return c.fetch(ctx, id)
}

// ItemByName implements draw.Catalog with an exact name match.
func (c *Catalog) ItemByName(ctx context.Context, name string) (loot.Item, error) {
	_, byName, err := c.index()
	if err != nil {
		return loot.Item{}, err
	}
	key, ok := byName[name]
	if !ok {
		return loot.Item{}, fmt.Errorf("%w: srd name %q", draw.ErrItemNotFound, name)
	}
	return c.fetch(ctx, key)
}

func (c *Catalog) fetch(ctx context.Context, key string) (loot.Item, error) {
	if err := ctx.Err(); err != nil {
		return loot.Item{}, err
	}
	eq, err := c.api.GetEquipment(key)
	if err != nil {
		return loot.Item{}, fmt.Errorf("srd: getting equipment %q: %w", key, err)
	}
	item, ok := toItem(eq)
	if !ok {
		return loot.Item{}, fmt.Errorf("%w: srd key %q has no equipment record", draw.ErrItemNotFound, key)
	}
	return item, nil
}

// toItem converts an SRD equipment record.
func toItem(eq dnd5e.EquipmentInterface) (loot.Item, bool) {
	var (
		key, name string
		weight    any
		cost      *entities.Cost
		category  *entities.ReferenceItem
	)
	switch e := eq.(type) {
	case *entities.Weapon:
		key, name, weight, cost, category = e.Key, e.Name, e.Weight, e.Cost, e.EquipmentCategory
	case *entities.Armor:
		key, name, weight, cost, category = e.Key, e.Name, e.Weight, e.Cost, e.EquipmentCategory
	case *entities.Equipment:
		key, name, weight, cost, category = e.Key, e.Name, e.Weight, e.Cost, e.EquipmentCategory
	default:
		return loot.Item{}, false
	}
	item := loot.Item{
		ID:       key,
		Name:     name,
		Type:     strings.ToLower(eq.GetType()),
		Pack:     PackName,
		Quantity: 1,
		System:   map[string]any{"weight": weight},
	}
	if category != nil {
		item.System["category"] = category.Key
	}
	if cost != nil {
		item.Price = &loot.Price{Value: float64(cost.Quantity), Denomination: strings.ToLower(cost.Unit)}
	}
	return item, true
}
