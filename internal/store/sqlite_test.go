package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarwatch/pantry-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testItem(name string, sugar, cost float64, category model.Category) *model.FoodItem {
	return &model.FoodItem{
		Name:     name,
		Sugar:    sugar,
		Cost:     cost,
		Category: category,
		Owner:    "household",
	}
}

func TestSQLite_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateItem(ctx, testItem("Parle-G", 14.5, 10, model.CategorySnacks))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Quantity)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := st.GetItem(ctx, created.ID, "household")
	require.NoError(t, err)
	assert.Equal(t, "Parle-G", got.Name)
	assert.Equal(t, 14.5, got.Sugar)
	assert.Equal(t, 10.0, got.Cost)
	assert.Equal(t, model.CategorySnacks, got.Category)
}

func TestSQLite_GetItem_WrongOwner(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateItem(ctx, testItem("Maggi", 1.2, 14, model.CategoryMeals))
	require.NoError(t, err)

	_, err = st.GetItem(ctx, created.ID, "someone-else")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_CreateItem_DefaultsCategoryAndQuantity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateItem(ctx, &model.FoodItem{
		Name:  "Mystery snack",
		Sugar: 5,
		Cost:  20,
		Owner: "household",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, created.Category)
	assert.Equal(t, 1, created.Quantity)
}

func TestSQLite_ListItems_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, it := range []*model.FoodItem{
		testItem("Parle-G", 14.5, 10, model.CategorySnacks),
		testItem("Frooti", 12.0, 20, model.CategoryDrinks),
		testItem("Dairy Milk", 25.0, 45, model.CategorySweets),
	} {
		_, err := st.CreateItem(ctx, it)
		require.NoError(t, err)
	}

	all, err := st.ListItems(ctx, ItemFilter{Owner: "household"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	drinks, err := st.ListItems(ctx, ItemFilter{Owner: "household", Category: model.CategoryDrinks})
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Frooti", drinks[0].Name)

	byName, err := st.ListItems(ctx, ItemFilter{Owner: "household", Query: "parle"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Parle-G", byName[0].Name)

	none, err := st.ListItems(ctx, ItemFilter{Owner: "other-household"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_ListItems_LimitOffset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateItem(ctx, testItem("Item", 1, 5, model.CategoryOther))
		require.NoError(t, err)
	}

	page, err := st.ListItems(ctx, ItemFilter{Owner: "household", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := st.ListItems(ctx, ItemFilter{Owner: "household", Limit: 10, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestSQLite_UpdateQuantity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateItem(ctx, testItem("Frooti", 12.0, 20, model.CategoryDrinks))
	require.NoError(t, err)

	require.NoError(t, st.UpdateQuantity(ctx, created.ID, "household", 3))

	got, err := st.GetItem(ctx, created.ID, "household")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
}

func TestSQLite_UpdateQuantity_ClampsNegativeToZero(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateItem(ctx, testItem("Frooti", 12.0, 20, model.CategoryDrinks))
	require.NoError(t, err)

	require.NoError(t, st.UpdateQuantity(ctx, created.ID, "household", -4))

	got, err := st.GetItem(ctx, created.ID, "household")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestSQLite_UpdateQuantity_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateQuantity(context.Background(), "no-such-id", "household", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_DeleteItem(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateItem(ctx, testItem("Parle-G", 14.5, 10, model.CategorySnacks))
	require.NoError(t, err)

	require.NoError(t, st.DeleteItem(ctx, created.ID, "household"))

	_, err = st.GetItem(ctx, created.ID, "household")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.DeleteItem(ctx, created.ID, "household")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Totals(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.CreateItem(ctx, testItem("Parle-G", 14.5, 10, model.CategorySnacks))
	require.NoError(t, err)
	_, err = st.CreateItem(ctx, testItem("Frooti", 12.0, 20, model.CategoryDrinks))
	require.NoError(t, err)

	// Two packs of biscuits: sugar and cost both count double.
	require.NoError(t, st.UpdateQuantity(ctx, first.ID, "household", 2))

	totals, err := st.Totals(ctx, "household")
	require.NoError(t, err)
	assert.InDelta(t, 14.5*2+12.0, totals.SugarGrams, 1e-9)
	assert.InDelta(t, 10*2+20.0, totals.Cost, 1e-9)
	assert.Equal(t, 2, totals.Items)
	assert.InDelta(t, (10*2+20.0)/2, totals.AvgCost, 1e-9)
}

func TestSQLite_Totals_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	totals, err := st.Totals(context.Background(), "household")
	require.NoError(t, err)
	assert.Zero(t, totals.SugarGrams)
	assert.Zero(t, totals.Cost)
	assert.Zero(t, totals.Items)
	assert.Zero(t, totals.AvgCost)
}
