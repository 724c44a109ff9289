package domain

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderPaid     OrderStatus = "PAID"
	OrderFailed   OrderStatus = "FAILED"
	OrderRefunded OrderStatus = "REFUNDED"
)

// Terminal reports whether no confirmation channel may move the order any more.
func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderFailed || s == OrderRefunded
}

type Order struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	SessionID     string          `db:"session_id" json:"-"`
	Total         decimal.Decimal `db:"total" json:"total"`
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	Status        OrderStatus     `db:"status" json:"status"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
}

// OrderItem rows are immutable once written.
type OrderItem struct {
	OrderID     string          `db:"order_id" json:"orderId"`
	ProductID   string          `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

// OrderSummary joins an order with its payment for history and admin lists.
type OrderSummary struct {
	Order
	PaymentStatus string `db:"payment_status" json:"paymentStatus"`
	ProviderRef   string `db:"provider_ref" json:"providerRef,omitempty"`
	RefundRef     string `db:"refund_ref" json:"refundRef,omitempty"`
}
