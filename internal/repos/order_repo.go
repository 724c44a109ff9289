package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"freshmart/internal/domain"

	"github.com/jmoiron/sqlx"
)

const orderCols = `o.id, o.user_id, o.session_id, o.total, o.payment_method, o.status, o.created_at`

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

// Create inserts a new order header. CreatedAt is filled in when empty.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.CreatedAt == "" {
		o.CreatedAt = now()
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders(id, user_id, session_id, total, payment_method, status, created_at, updated_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.SessionID, o.Total, o.PaymentMethod, string(o.Status), o.CreatedAt, o.CreatedAt)
	return err
}

// InsertItem writes one line item; an existing row for the same product is kept.
func (r *OrderRepo) InsertItem(ctx context.Context, it domain.OrderItem) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO order_items(order_id, product_id, product_name, quantity, unit_price)
	  VALUES(?, ?, ?, ?, ?)
	  ON CONFLICT(order_id, product_id) DO NOTHING
	`, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders o WHERE o.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return o, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, r.db, &items, `
		SELECT order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY rowid
	`, orderID)
	return items, err
}

// Transition moves an order from one status to another. It reports false,
// without error, when the order was no longer in the from state.
func (r *OrderRepo) Transition(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(to), now(), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const summarySelect = `
	SELECT ` + orderCols + `,
	       COALESCE(p.status, '') AS payment_status,
	       COALESCE(p.provider_ref, p.attempt_ref, '') AS provider_ref,
	       COALESCE(p.refund_ref, '') AS refund_ref
	FROM orders o
	LEFT JOIN payments p ON p.order_id = o.id`

// ListByUser returns the buyer's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.OrderSummary, error) {
	out := []domain.OrderSummary{}
	err := sqlx.SelectContext(ctx, r.db, &out, summarySelect+`
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC, o.rowid DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.OrderSummary{}
	err := sqlx.SelectContext(ctx, r.db, &out, summarySelect+`
		ORDER BY o.created_at DESC, o.rowid DESC
		LIMIT ?
	`, limit)
	return out, err
}

// ListStalePending returns PENDING orders created before the cutoff.
func (r *OrderRepo) ListStalePending(ctx context.Context, before time.Time) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+orderCols+`
		FROM orders o
		WHERE o.status = ? AND o.created_at < ?
		ORDER BY o.created_at
	`, string(domain.OrderPending), stamp(before))
	return out, err
}
