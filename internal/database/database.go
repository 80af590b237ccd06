// Package database opens the relational store shared by the catalog, order and payment
// packages and provides the transaction helper every multi-row mutation goes through.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// sqlite primary result code for constraint violations (SQLITE_CONSTRAINT).
const sqliteConstraint = 19

// Open connects, pings and configures the pool. SQLite is pinned to one connection:
// ":memory:" databases are per-connection and writers serialize anyway.
func Open(ctx context.Context, driver, dsn string, maxOpen int) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	switch {
	case driver == DriverSQLite:
		db.SetMaxOpenConns(1)
	case maxOpen > 0:
		db.SetMaxOpenConns(maxOpen)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return db, nil
}

// WithTx runs fn inside a transaction. Any error from fn rolls everything back; the
// error is returned untouched so business kinds survive.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage("commit", err)
	}
	return nil
}

// Classify turns a driver error into an application error: constraint violations are
// the caller's fault (ErrInvalidInput), everything else is ErrStorage.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsConstraintViolation(err) {
		return fmt.Errorf("%w: %s: constraint violated: %v", apperr.ErrInvalidInput, op, err)
	}
	return apperr.Storage(op, err)
}

// IsConstraintViolation reports integrity errors (SQLSTATE class 23 on Postgres,
// SQLITE_CONSTRAINT on SQLite).
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "23"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqliteConstraint
	}
	return false
}

// NullIfEmpty maps "" to SQL NULL for optional text columns.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
