package repos

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Seed inserts the demo catalog and accounts. Safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB) error {
	if err := seedProducts(ctx, db); err != nil {
		return err
	}
	return seedUsers(ctx, db)
}

func seedProducts(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	ts := now()
	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO products(id,name,category,price,quantity,active,created_at,updated_at) VALUES
		  ('apple-gala','Gala Apples 1kg','fruit','4.50',40,1,?,?),
		  ('banana','Bananas (bunch)','fruit','2.95',60,1,?,?),
		  ('milk-1l','Fresh Milk 1L','dairy','3.20',30,1,?,?),
		  ('eggs-10','Free-range Eggs (10)','dairy','5.40',25,1,?,?),
		  ('bread-wholemeal','Wholemeal Bread','bakery','3.80',20,1,?,?),
		  ('rice-5kg','Jasmine Rice 5kg','pantry','14.90',12,1,?,?),
		  ('coffee-beans','Arabica Coffee Beans 500g','pantry','18.50',3,1,?,?),
		  ('olive-oil','Extra Virgin Olive Oil 1L','pantry','16.00',0,1,?,?)`,
			ts, ts, ts, ts, ts, ts, ts, ts, ts, ts, ts, ts, ts, ts, ts, ts)
		return err
	})
}

// seedUsers ensures two USERs and one ADMIN exist.
func seedUsers(ctx context.Context, db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}, err
	}

	var users []u
	for _, x := range [][4]string{
		{"u-alice", "alice@freshmart.test", "Alice", "USER"},
		{"u-bob", "bob@freshmart.test", "Bob", "USER"},
		{"u-admin", "admin@freshmart.test", "Admin", "ADMIN"},
	} {
		user, err := mk(x[0], x[1], x[2], x[3], "Passw0rd!")
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	ts := now()
	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, x := range users {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users(id,email,name,password_hash,role,created_at)
				VALUES(?,?,?,?,?,?)
				ON CONFLICT DO NOTHING
			`, x.ID, x.Email, x.Name, x.Hash, x.Role, ts); err != nil {
				return err
			}
		}
		return nil
	})
}
