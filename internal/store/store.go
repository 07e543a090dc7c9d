// Package store persists accepted food items, scoped by owner.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sugarwatch/pantry-cli/internal/model"
)

// ErrNotFound is returned when a lookup matches no row for the owner.
var ErrNotFound = eris.New("store: item not found")

// ItemFilter specifies criteria for listing items. Query matches name or
// category substrings, case-insensitively.
type ItemFilter struct {
	Owner    string         `json:"owner"`
	Query    string         `json:"query,omitempty"`
	Category model.Category `json:"category,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// Totals aggregates an owner's pantry: quantities are counted, so two packs
// of the same item weigh double.
type Totals struct {
	SugarGrams float64 `json:"sugar_grams"`
	Cost       float64 `json:"cost"`
	Items      int     `json:"items"`
	AvgCost    float64 `json:"avg_cost"`
}

// Store defines the persistence interface for food items.
type Store interface {
	CreateItem(ctx context.Context, item *model.FoodItem) (*model.FoodItem, error)
	GetItem(ctx context.Context, id, owner string) (*model.FoodItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]model.FoodItem, error)
	UpdateQuantity(ctx context.Context, id, owner string, quantity int) error
	DeleteItem(ctx context.Context, id, owner string) error
	Totals(ctx context.Context, owner string) (*Totals, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
