package repos

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// OpenDB opens the sqlite store, applies migrations and seeds demo data.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(context.Background(), db); err != nil {
		return nil, err
	}
	return db, nil
}

// Connect opens the database without touching the schema. The pool is pinned
// to a single connection: sqlite serializes writers anyway, and ":memory:"
// databases only exist per connection.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to the latest embedded version. The migrate
// instance is not closed because closing it would close db as well.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction, committing only when fn succeeds.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// within reuses an outer transaction when q already is one.
func within(ctx context.Context, q sqlx.ExtContext, fn func(q sqlx.ExtContext) error) error {
	db, ok := q.(*sqlx.DB)
	if !ok {
		return fn(q)
	}
	return InTx(ctx, db, func(tx *sqlx.Tx) error { return fn(tx) })
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func now() string { return stamp(time.Now()) }
