package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PendingRepo maps (session, provider) to the order an attempt was started
// for. It backs the polling channel when no redis is configured.
type PendingRepo struct{ db sqlx.ExtContext }

func NewPendingRepo(db sqlx.ExtContext) *PendingRepo { return &PendingRepo{db: db} }

func (r *PendingRepo) Put(ctx context.Context, sessionID, provider, orderID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_attempts(session_id, provider, order_id, created_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(session_id, provider) DO UPDATE SET order_id = excluded.order_id, created_at = excluded.created_at
	`, sessionID, provider, orderID, now())
	return err
}

// Get returns "" when no marker exists.
func (r *PendingRepo) Get(ctx context.Context, sessionID, provider string) (string, error) {
	var orderID string
	err := sqlx.GetContext(ctx, r.db, &orderID, `
		SELECT order_id FROM pending_attempts WHERE session_id = ? AND provider = ?
	`, sessionID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return orderID, err
}

// ClearOrder drops every marker pointing at orderID.
func (r *PendingRepo) ClearOrder(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_attempts WHERE order_id = ?`, orderID)
	return err
}
