package repos

import (
	"context"
	"database/sql"
	"errors"

	"freshmart/internal/domain"

	"github.com/jmoiron/sqlx"
)

const productCols = `id, name, category, price, quantity, active, created_at, updated_at`

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrProductNotFound
	}
	return p, err
}

// List returns active products, optionally filtered by category.
func (r *ProductRepo) List(ctx context.Context, category string, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	where := `active = 1`
	args := []any{}
	if category != "" {
		where += ` AND category = ?`
		args = append(args, category)
	}
	args = append(args, limit, offset)

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY name
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

// SetActive enables or disables a product for sale.
func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET active = ?, updated_at = ? WHERE id = ?`, active, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
