package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is portable between Postgres and SQLite: TEXT ids, NUMERIC money, timestamps
// written by the application.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		price        NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		stock        INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		customizable BOOLEAN NOT NULL DEFAULT FALSE,
		status       TEXT NOT NULL DEFAULT 'active',
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_categories (
		product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (product_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                   TEXT PRIMARY KEY,
		user_id              TEXT NOT NULL,
		total_price          NUMERIC(12,2) NOT NULL CHECK (total_price >= 0),
		status               TEXT NOT NULL DEFAULT 'pending',
		payment_status       TEXT NOT NULL DEFAULT 'pending',
		payment_method       TEXT,
		payment_id           TEXT,
		shipping_name        TEXT NOT NULL DEFAULT '',
		shipping_phone       TEXT NOT NULL DEFAULT '',
		shipping_address     TEXT NOT NULL DEFAULT '',
		shipping_city        TEXT NOT NULL DEFAULT '',
		shipping_postal_code TEXT NOT NULL DEFAULT '',
		shipping_country     TEXT NOT NULL DEFAULT '',
		notes                TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMP NOT NULL,
		updated_at           TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_payment_id ON orders(payment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id                  TEXT PRIMARY KEY,
		order_id            TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id          TEXT NOT NULL,
		product_name        TEXT NOT NULL,
		price               NUMERIC(12,2) NOT NULL,
		quantity            INTEGER NOT NULL CHECK (quantity > 0),
		customization_text  TEXT NOT NULL DEFAULT '',
		customization_image TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE TABLE IF NOT EXISTS payment_events (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL,
		token      TEXT NOT NULL,
		method     TEXT NOT NULL,
		kind       TEXT NOT NULL,
		amount     NUMERIC(12,2) NOT NULL,
		reference  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_events_order ON payment_events(order_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Migrate applies Schema statement by statement; every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
