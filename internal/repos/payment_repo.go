package repos

import (
	"context"
	"database/sql"
	"errors"

	"freshmart/internal/domain"

	"github.com/jmoiron/sqlx"
)

const paymentCols = `id, order_id, user_id, provider, attempt_ref, provider_ref, amount, currency, status,
	payer_email, refund_ref, refunded_at, refund_reason, reconcile_note, created_at, updated_at`

type PaymentRepo struct{ db sqlx.ExtContext }

func NewPaymentRepo(db sqlx.ExtContext) *PaymentRepo { return &PaymentRepo{db: db} }

func (r *PaymentRepo) WithTx(tx *sqlx.Tx) *PaymentRepo { return &PaymentRepo{db: tx} }

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	ts := now()
	if p.CreatedAt == "" {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments(id, order_id, user_id, provider, attempt_ref, provider_ref, amount, currency, status, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OrderID, p.UserID, p.Provider, p.AttemptRef, p.ProviderRef, p.Amount, p.Currency, string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PaymentRepo) ByOrder(ctx context.Context, orderID string) (domain.Payment, error) {
	var p domain.Payment
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+paymentCols+` FROM payments WHERE order_id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrPaymentNotFound
	}
	return p, err
}

// ByRef finds a payment by the remote attempt id or the confirmed provider id.
func (r *PaymentRepo) ByRef(ctx context.Context, ref string) (domain.Payment, error) {
	var p domain.Payment
	if ref == "" {
		return p, domain.ErrPaymentNotFound
	}
	err := sqlx.GetContext(ctx, r.db, &p, `
		SELECT `+paymentCols+` FROM payments
		WHERE attempt_ref = ? OR provider_ref = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, ref, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrPaymentNotFound
	}
	return p, err
}

// Update applies u to the payment of an order. Empty fields keep the stored value.
func (r *PaymentRepo) Update(ctx context.Context, orderID string, u domain.PaymentUpdate) error {
	var refundedAt string
	if u.RefundedAt != nil {
		refundedAt = stamp(*u.RefundedAt)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET
		  status         = COALESCE(NULLIF(?, ''), status),
		  attempt_ref    = COALESCE(attempt_ref, NULLIF(?, '')),
		  provider_ref   = COALESCE(NULLIF(?, ''), provider_ref),
		  payer_email    = COALESCE(NULLIF(?, ''), payer_email),
		  refund_ref     = COALESCE(NULLIF(?, ''), refund_ref),
		  refund_reason  = COALESCE(NULLIF(?, ''), refund_reason),
		  refunded_at    = COALESCE(NULLIF(?, ''), refunded_at),
		  reconcile_note = COALESCE(NULLIF(?, ''), reconcile_note),
		  updated_at     = ?
		WHERE order_id = ?
	`, string(u.Status), u.AttemptRef, u.ProviderRef, u.PayerEmail, u.RefundRef, u.RefundReason,
		refundedAt, u.ReconcileNote, now(), orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// ClaimRefund records reason on a payment that has no refund yet. Only the
// first caller gets true, so a captured amount is sent back at most once.
func (r *PaymentRepo) ClaimRefund(ctx context.Context, orderID, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET refund_reason = ?, updated_at = ?
		WHERE order_id = ? AND refund_reason IS NULL AND refund_ref IS NULL
	`, reason, now(), orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListFlagged returns payments that carry a reconciliation note.
func (r *PaymentRepo) ListFlagged(ctx context.Context) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+paymentCols+` FROM payments
		WHERE reconcile_note IS NOT NULL AND reconcile_note <> ''
		ORDER BY updated_at DESC
	`)
	return out, err
}
