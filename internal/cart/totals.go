package cart

import "github.com/shopspring/decimal"

// Pricing is the fixed tax and shipping policy.
type Pricing struct {
	TaxRate      decimal.Decimal
	ShippingFlat decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:      decimal.RequireFromString("0.07"),
		ShippingFlat: decimal.RequireFromString("5.00"),
	}
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals is the only place the order total is derived.
func ComputeTotals(lines []Line, p Pricing) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)
	shipping := decimal.Zero
	if len(lines) > 0 {
		shipping = p.ShippingFlat
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// MinorUnits converts an amount to cents for providers that bill in integers.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
