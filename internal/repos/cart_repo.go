package repos

import (
	"context"

	"freshmart/internal/cart"

	"github.com/jmoiron/sqlx"
)

// CartRepo persists session carts. The cart id is the session id.
type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) WithTx(tx *sqlx.Tx) *CartRepo { return &CartRepo{db: tx} }

// Lines returns the cart in insertion order; a missing cart is empty.
func (r *CartRepo) Lines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	lines := []cart.Line{}
	err := sqlx.SelectContext(ctx, r.db, &lines, `
	  SELECT product_id, product_name, unit_price, quantity
	  FROM cart_items
	  WHERE cart_id = ?
	  ORDER BY seq
	`, sessionID)
	return lines, err
}

// Save replaces the stored lines with the given ones.
func (r *CartRepo) Save(ctx context.Context, sessionID string, lines []cart.Line) error {
	return within(ctx, r.db, func(q sqlx.ExtContext) error {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO carts(id, updated_at) VALUES(?, ?)
			ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
		`, sessionID, now()); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, sessionID); err != nil {
			return err
		}
		for i, l := range lines {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO cart_items(cart_id, product_id, product_name, unit_price, quantity, seq)
				VALUES(?, ?, ?, ?, ?, ?)
			`, sessionID, l.ProductID, l.ProductName, l.UnitPrice, l.Quantity, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CartRepo) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, sessionID)
	return err
}
