// Package cart holds the session cart line logic and the one totals formula
// shared by the checkout page, every payment adapter and order creation.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"freshmart/internal/domain"
)

// Line is one product in a cart. UnitPrice is the price seen when the line
// was first added; it is never re-read from the catalog.
type Line struct {
	ProductID   string          `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func find(lines []Line, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func clone(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// AddItem merges qty of p into lines, appending a new line when p is not in
// the cart yet. With stockAware set the added amount is capped so the line
// never exceeds p.Quantity.
func AddItem(lines []Line, p domain.Product, qty int, stockAware bool) ([]Line, error) {
	if !p.Active {
		return lines, domain.ErrProductNotFound
	}
	if qty < 1 {
		qty = 1
	}
	out := clone(lines)
	i := find(out, p.ID)

	if stockAware {
		inCart := 0
		if i >= 0 {
			inCart = out[i].Quantity
		}
		room := p.Quantity - inCart
		if room <= 0 {
			return lines, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, p.Name)
		}
		if qty > room {
			qty = room
		}
	}

	if i >= 0 {
		out[i].Quantity += qty
		return out, nil
	}
	return append(out, Line{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    qty,
	}), nil
}

// UpdateQuantity sets the line for productID to qty clamped to [1, stock].
func UpdateQuantity(lines []Line, productID string, qty, stock int) ([]Line, error) {
	i := find(lines, productID)
	if i < 0 {
		return lines, domain.ErrLineNotFound
	}
	if stock < 1 {
		stock = 1
	}
	if qty > stock {
		qty = stock
	}
	if qty < 1 {
		qty = 1
	}
	out := clone(lines)
	out[i].Quantity = qty
	return out, nil
}

func RemoveItem(lines []Line, productID string) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}

func Clear() []Line { return []Line{} }

// Count is the number of units across all lines.
func Count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
