package srd

import (
	"context"
	"errors"
	"testing"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	"github.com/fadedpez/dnd5e-api/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/lootable/internal/game/draw"
	"github.com/cory-johannsen/lootable/internal/game/loot"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListEquipment() ([]*entities.ReferenceItem, error) {
	args := m.Called()
	return args.Get(0).([]*entities.ReferenceItem), args.Error(1)
}

func (m *mockAPI) GetEquipment(key string) (dnd5e.EquipmentInterface, error) {
	args := m.Called(key)
	eq, _ := args.Get(0).(dnd5e.EquipmentInterface)
	return eq, args.Error(1)
}

var refs = []*entities.ReferenceItem{
	{Key: "longsword", Name: "Longsword"},
	{Key: "chain-mail", Name: "Chain Mail"},
	{Key: "rope-hempen-50-feet", Name: "Rope, hempen (50 feet)"},
}

func TestCatalog_ItemByID(t *testing.T) {
	api := new(mockAPI)
	api.On("ListEquipment").Return(refs, nil).Once()
	api.On("GetEquipment", "longsword").Return(&entities.Weapon{
		Key:               "longsword",
		Name:              "Longsword",
		Weight:            3.0,
		Cost:              &entities.Cost{Quantity: 15, Unit: "gp"},
		EquipmentCategory: &entities.ReferenceItem{Key: "weapon", Name: "Weapon"},
	}, nil)
	c := NewWithAPI(api, zaptest.NewLogger(t))

	item, err := c.ItemByID(context.Background(), "longsword")
	require.NoError(t, err)
	assert.Equal(t, "Longsword", item.Name)
	assert.Equal(t, PackName, item.Pack)
	assert.Equal(t, "weapon", item.Type)
	assert.Equal(t, "weapon", item.System["category"])
	assert.Equal(t, "Compendium.dnd5e.srd.longsword", loot.Identity(item))

	v, err := loot.ParsePrice(item.Price)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, v.Value, 1e-9)

	_, err = c.ItemByID(context.Background(), "vorpal-sword")
	assert.ErrorIs(t, err, draw.ErrItemNotFound)
	api.AssertExpectations(t)
}

func TestCatalog_ItemByName(t *testing.T) {
	api := new(mockAPI)
	api.On("ListEquipment").Return(refs, nil).Once()
	api.On("GetEquipment", "rope-hempen-50-feet").Return(&entities.Equipment{
		Key:  "rope-hempen-50-feet",
		Name: "Rope, hempen (50 feet)",
		Cost: &entities.Cost{Quantity: 1, Unit: "GP"},
	}, nil)
	c := NewWithAPI(api, zaptest.NewLogger(t))

	item, err := c.ItemByName(context.Background(), "Rope, hempen (50 feet)")
	require.NoError(t, err)
	assert.Equal(t, "rope-hempen-50-feet", item.ID)
	assert.Equal(t, "gp", item.Price.(*loot.Price).Denomination)

	_, err = c.ItemByName(context.Background(), "rope, hempen (50 feet)")
	assert.ErrorIs(t, err, draw.ErrItemNotFound, "name lookups are exact")
	api.AssertExpectations(t)
}

func TestCatalog_IndexFailureRetries(t *testing.T) {
	api := new(mockAPI)
	api.On("ListEquipment").Return(([]*entities.ReferenceItem)(nil), errors.New("api down")).Once()
	api.On("ListEquipment").Return(refs, nil).Once()
	api.On("GetEquipment", "chain-mail").Return(&entities.Armor{Key: "chain-mail", Name: "Chain Mail"}, nil)
	c := NewWithAPI(api, nil)

	_, err := c.ItemByID(context.Background(), "chain-mail")
	require.Error(t, err)
	assert.NotErrorIs(t, err, draw.ErrItemNotFound)

	item, err := c.ItemByID(context.Background(), "chain-mail")
	require.NoError(t, err)
	assert.Equal(t, "armor", item.Type)
	assert.Nil(t, item.Price)
	api.AssertExpectations(t)
}

func TestCatalog_GetEquipmentError(t *testing.T) {
	api := new(mockAPI)
	api.On("ListEquipment").Return(refs, nil)
	api.On("GetEquipment", "longsword").Return(nil, errors.New("timeout"))
	c := NewWithAPI(api, nil)
	_, err := c.ItemByID(context.Background(), "longsword")
	assert.ErrorContains(t, err, "timeout")
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://www.dnd5eapi.co/api/2014/", cfg.BaseURL)
	assert.NotZero(t, cfg.HTTPTimeout)
	assert.NotZero(t, cfg.CacheTTL)
	assert.Error(t, (&Config{HTTPTimeout: -1}).Validate())
}
