package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"freshmart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type InventoryRepo struct{ db sqlx.ExtContext }

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{db: db} }

func (r *InventoryRepo) WithTx(tx *sqlx.Tx) *InventoryRepo { return &InventoryRepo{db: tx} }

// Row used by admin inventory pages
type InventoryRow struct {
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
	Qty       int    `db:"qty"`
	Active    bool   `db:"active"`
}

// ListAll returns stock for every product, active or not.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT id AS product_id, name, quantity AS qty, active
		FROM products
		ORDER BY name
	`)
	return rows, err
}

// Qty returns current stock for a product.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `SELECT quantity FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	return qty, err
}

// Check reports ErrInsufficientStock when fewer than n units are available.
func (r *InventoryRepo) Check(ctx context.Context, productID string, n int) error {
	qty, err := r.Qty(ctx, productID)
	if err != nil {
		return err
	}
	if qty < n {
		return fmt.Errorf("%w: %s has %d, need %d", domain.ErrInsufficientStock, productID, qty, n)
	}
	return nil
}

// Decrement subtracts n units, never going below zero.
func (r *InventoryRepo) Decrement(ctx context.Context, productID string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = MAX(quantity - ?, 0), updated_at = ?
		WHERE id = ?
	`, n, now(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// SetQty overwrites the stock level of a product.
func (r *InventoryRepo) SetQty(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("quantity must be >= 0, got %d", qty)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE products SET quantity = ?, updated_at = ? WHERE id = ?`, qty, now(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
