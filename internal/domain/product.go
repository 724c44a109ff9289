package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Category  string          `db:"category"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	Active    bool            `db:"active"`
	CreatedAt string          `db:"created_at"`
	UpdatedAt string          `db:"updated_at"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
