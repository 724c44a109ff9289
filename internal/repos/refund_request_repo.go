package repos

import (
	"context"
	"database/sql"
	"errors"

	"freshmart/internal/domain"

	"github.com/jmoiron/sqlx"
)

const refundRequestCols = `id, order_id, user_id, reason, status, admin_note, created_at, updated_at`

type RefundRequestRepo struct{ db sqlx.ExtContext }

func NewRefundRequestRepo(db sqlx.ExtContext) *RefundRequestRepo { return &RefundRequestRepo{db: db} }

func (r *RefundRequestRepo) WithTx(tx *sqlx.Tx) *RefundRequestRepo { return &RefundRequestRepo{db: tx} }

func (r *RefundRequestRepo) Create(ctx context.Context, rr *domain.RefundRequest) error {
	ts := now()
	rr.CreatedAt, rr.UpdatedAt = ts, ts
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refund_requests(id, order_id, user_id, reason, status, admin_note, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, rr.ID, rr.OrderID, rr.UserID, rr.Reason, string(rr.Status), rr.AdminNote, rr.CreatedAt, rr.UpdatedAt)
	return err
}

func (r *RefundRequestRepo) Get(ctx context.Context, id string) (domain.RefundRequest, error) {
	var rr domain.RefundRequest
	err := sqlx.GetContext(ctx, r.db, &rr, `SELECT `+refundRequestCols+` FROM refund_requests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return rr, domain.ErrRefundRequestNotFound
	}
	return rr, err
}

// HasOpen reports whether the order already has a PENDING request.
func (r *RefundRequestRepo) HasOpen(ctx context.Context, orderID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM refund_requests WHERE order_id = ? AND status = ?
	`, orderID, string(domain.RefundRequestPending))
	return n > 0, err
}

// List returns requests newest first; an empty status returns all of them.
func (r *RefundRequestRepo) List(ctx context.Context, status domain.RefundRequestStatus) ([]domain.RefundRequest, error) {
	q := `SELECT ` + refundRequestCols + ` FROM refund_requests`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	out := []domain.RefundRequest{}
	err := sqlx.SelectContext(ctx, r.db, &out, q, args...)
	return out, err
}

func (r *RefundRequestRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.RefundRequest, error) {
	out := []domain.RefundRequest{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+refundRequestCols+` FROM refund_requests
		WHERE order_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, orderID)
	return out, err
}

// Decide closes a PENDING request. It reports false when the request was
// already decided.
func (r *RefundRequestRepo) Decide(ctx context.Context, id string, status domain.RefundRequestStatus, note string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refund_requests SET status = ?, admin_note = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(status), note, now(), id, string(domain.RefundRequestPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
