package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
)

func product(id string, price string, qty int) domain.Product {
	return domain.Product{ID: id, Name: "P-" + id, Price: decimal.RequireFromString(price), Quantity: qty, Active: true}
}

func TestAddItemMergesLines(t *testing.T) {
	p := product("apple", "1.20", 100)

	lines, err := AddItem(nil, p, 2, true)
	require.NoError(t, err)
	lines, err = AddItem(lines, p, 3, true)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, "1.20", lines[0].UnitPrice.StringFixed(2))
}

func TestAddItemDoesNotMutateInput(t *testing.T) {
	p := product("apple", "1.20", 100)
	orig := []Line{{ProductID: "apple", ProductName: "Apple", UnitPrice: p.Price, Quantity: 1}}

	out, err := AddItem(orig, p, 4, false)
	require.NoError(t, err)

	assert.Equal(t, 1, orig[0].Quantity)
	assert.Equal(t, 5, out[0].Quantity)
}

func TestAddItemKeepsPriceSnapshot(t *testing.T) {
	p := product("milk", "2.00", 10)
	lines, err := AddItem(nil, p, 1, true)
	require.NoError(t, err)

	p.Price = decimal.RequireFromString("9.99")
	lines, err = AddItem(lines, p, 1, true)
	require.NoError(t, err)

	assert.Equal(t, "2.00", lines[0].UnitPrice.StringFixed(2))
}

func TestAddItemCapsAtStock(t *testing.T) {
	p := product("eggs", "3.50", 4)

	lines, err := AddItem(nil, p, 3, true)
	require.NoError(t, err)
	lines, err = AddItem(lines, p, 5, true)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)

	_, err = AddItem(lines, p, 1, true)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAddItemInactiveProduct(t *testing.T) {
	p := product("old", "1.00", 10)
	p.Active = false

	_, err := AddItem(nil, p, 1, true)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUpdateQuantityClamps(t *testing.T) {
	lines := []Line{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}

	out, err := UpdateQuantity(lines, "a", 50, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out[0].Quantity)

	out, err = UpdateQuantity(lines, "a", 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, out[0].Quantity)

	_, err = UpdateQuantity(lines, "zzz", 1, 7)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestRemoveAndClear(t *testing.T) {
	lines := []Line{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}

	out := RemoveItem(lines, "a")
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ProductID)
	assert.Len(t, lines, 2)

	assert.Empty(t, Clear())
	assert.Equal(t, 3, Count(lines))
}

func TestComputeTotalsScenario(t *testing.T) {
	lines := []Line{
		{ProductID: "a", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "b", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
	}

	got := ComputeTotals(lines, DefaultPricing())

	assert.Equal(t, "25.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "1.75", got.Tax.StringFixed(2))
	assert.Equal(t, "5.00", got.Shipping.StringFixed(2))
	assert.Equal(t, "31.75", got.Total.StringFixed(2))
	assert.Equal(t, int64(3175), MinorUnits(got.Total))
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	got := ComputeTotals(nil, DefaultPricing())
	assert.True(t, got.Total.IsZero())
	assert.True(t, got.Shipping.IsZero())
}

func TestComputeTotalsIsSumOfParts(t *testing.T) {
	prices := []string{"0.01", "0.99", "3.33", "12.345", "7.10"}
	for n := 1; n <= len(prices); n++ {
		var lines []Line
		for i := 0; i < n; i++ {
			lines = append(lines, Line{ProductID: prices[i], UnitPrice: decimal.RequireFromString(prices[i]), Quantity: i + 1})
		}
		got := ComputeTotals(lines, DefaultPricing())
		assert.True(t, got.Total.Equal(got.Subtotal.Add(got.Tax).Add(got.Shipping)))
		assert.True(t, got.Total.Equal(ComputeTotals(lines, DefaultPricing()).Total))
	}
}
