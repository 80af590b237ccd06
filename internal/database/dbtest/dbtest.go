// Package dbtest gives tests a migrated in-memory SQLite store.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/database"
)

// New opens a fresh in-memory database with the full schema applied.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, ":memory:", 1)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedProduct inserts an active product with the given price and stock.
func SeedProduct(t *testing.T, db *sqlx.DB, id, name, price string, stock int) {
	t.Helper()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO products (id, name, description, price, stock, customizable, status, created_at, updated_at)
		VALUES (?, ?, '', ?, ?, FALSE, 'active', ?, ?)
	`, id, name, decimal.RequireFromString(price), stock, now, now)
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT stock FROM products WHERE id = ?`, id); err != nil {
		t.Fatalf("read stock %s: %v", id, err)
	}
	return n
}

// Count runs a COUNT(*) style query with a single argument.
func Count(t *testing.T, db *sqlx.DB, query string, arg any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, arg); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}
