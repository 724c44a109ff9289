package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

func TestCartService_AddUpdateRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.carts.Add(ctx, "s1", "apple", 2)
	require.NoError(t, err)
	v, err = f.carts.Add(ctx, "s1", "apple", 1)
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 3, v.Lines[0].Quantity)

	// capped at the 5 in stock
	v, err = f.carts.Add(ctx, "s1", "apple", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Lines[0].Quantity)

	_, err = f.carts.Add(ctx, "s1", "apple", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	v, err = f.carts.Add(ctx, "s1", "milk", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "milk"}, []string{v.Lines[0].ProductID, v.Lines[1].ProductID})

	v, err = f.carts.Update(ctx, "s1", "apple", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, "31.75", v.Totals.Total.StringFixed(2))

	_, err = f.carts.Update(ctx, "s1", "nope", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	v, err = f.carts.Remove(ctx, "s1", "milk")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Count)

	// lines survive a reload
	v, err = f.carts.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, "10.00", v.Lines[0].UnitPrice.StringFixed(2))

	require.NoError(t, f.carts.Clear(ctx, "s1"))
	v, err = f.carts.View(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, v.Count)
	assert.True(t, v.Totals.Total.IsZero(), "no shipping on an empty cart")
}

func TestCartService_PriceIsCapturedAtAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.carts.Add(ctx, "s1", "apple", 1)
	require.NoError(t, err)

	_, err = f.db.Exec(`UPDATE products SET price = '99.00' WHERE id = 'apple'`)
	require.NoError(t, err)

	v, err := f.carts.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "10.00", v.Lines[0].UnitPrice.StringFixed(2))
}

func TestCartService_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, repos.NewProductRepo(f.db).SetActive(ctx, "milk", false))
	_, err := f.carts.Add(ctx, "s1", "milk", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestInventoryService_CheckAvailability(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	inv := services.NewInventoryService(repos.NewInventoryRepo(db), repos.NewProductRepo(db))

	cases := []struct {
		qty  int
		want string
	}{
		{0, "OUT_OF_STOCK"},
		{1, "LOW_STOCK"},
		{4, "LOW_STOCK"},
		{5, "IN_STOCK"},
		{40, "IN_STOCK"},
	}
	for _, c := range cases {
		require.NoError(t, inv.SetStock(ctx, "apple", c.qty))
		got, err := inv.CheckAvailability(ctx, "apple")
		require.NoError(t, err)
		assert.Equal(t, c.want, got.Status, "qty %d", c.qty)
		assert.Equal(t, c.qty, got.Qty)
	}

	got, err := inv.CheckAvailability(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, "OUT_OF_STOCK", got.Status)

	rows, err := inv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, inv.SetActive(ctx, "milk", false))
	cat := services.NewCatalogService(repos.NewProductRepo(db))
	_, err = cat.GetProduct(ctx, "milk")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	listed, err := cat.ListProducts(ctx, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "apple", listed[0].ID)
}
