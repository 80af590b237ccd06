package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/database/dbtest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, database.Migrate(context.Background(), db))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	dbtest.SeedProduct(t, db, "p1", "Mug", "9.50", 4)

	boom := errors.New("boom")
	err := database.WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`UPDATE products SET stock = 0 WHERE id = ?`, "p1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 4, dbtest.Stock(t, db, "p1"))
}

func TestWithTx_Commits(t *testing.T) {
	db := dbtest.New(t)
	dbtest.SeedProduct(t, db, "p1", "Mug", "9.50", 4)

	err := database.WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE products SET stock = 1 WHERE id = ?`, "p1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.Stock(t, db, "p1"))
}

func TestClassify_StockCheckConstraint(t *testing.T) {
	db := dbtest.New(t)
	dbtest.SeedProduct(t, db, "p1", "Mug", "9.50", 1)

	_, err := db.Exec(`UPDATE products SET stock = -1 WHERE id = ?`, "p1")
	require.Error(t, err)
	assert.True(t, database.IsConstraintViolation(err))
	assert.ErrorIs(t, database.Classify("update stock", err), apperr.ErrInvalidInput)
}

func TestClassify_PostgresCodes(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503"}
	assert.ErrorIs(t, database.Classify("insert item", fk), apperr.ErrInvalidInput)

	deadlock := &pgconn.PgError{Code: "40P01"}
	assert.ErrorIs(t, database.Classify("insert item", deadlock), apperr.ErrStorage)

	assert.NoError(t, database.Classify("noop", nil))
}
