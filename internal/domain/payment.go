package domain

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "CREATED"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

const (
	ProviderPayPal = "paypal"
	ProviderStripe = "stripe"
	ProviderNets   = "nets"
)

type Payment struct {
	ID            string          `db:"id"`
	OrderID       string          `db:"order_id"`
	UserID        string          `db:"user_id"`
	Provider      string          `db:"provider"`
	AttemptRef    sql.NullString  `db:"attempt_ref"`
	ProviderRef   sql.NullString  `db:"provider_ref"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        PaymentStatus   `db:"status"`
	PayerEmail    sql.NullString  `db:"payer_email"`
	RefundRef     sql.NullString  `db:"refund_ref"`
	RefundedAt    sql.NullString  `db:"refunded_at"`
	RefundReason  sql.NullString  `db:"refund_reason"`
	ReconcileNote sql.NullString  `db:"reconcile_note"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`
}

// PaymentUpdate carries coalesce semantics: empty fields leave the stored
// value untouched.
type PaymentUpdate struct {
	Status        PaymentStatus
	AttemptRef    string
	ProviderRef   string
	PayerEmail    string
	RefundRef     string
	RefundReason  string
	RefundedAt    *time.Time
	ReconcileNote string
}
