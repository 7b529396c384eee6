package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/comply/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return db.NewSQLiteUnitOfWork(database)
}

func insertSubmission(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (id, user_id, codes, outcome, created_at) VALUES (?, 'u-1', '["G1"]', 'accepted', '2025-01-01T00:00:00Z')`, id)
	return err
}

// readVal reports the user of a submission row, read through a separate
// transaction.
func readVal(uow *db.SQLiteUnitOfWork, id string) (string, bool) {
	var val string
	var found bool
	_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT user_id FROM submissions WHERE id = ?`, id)
		if err := row.Scan(&val); err != nil {
			return nil // not found
		}
		found = true
		return nil
	})
	return val, found
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := openTestDB(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertSubmission(ctx, tx, "k1")
	})
	require.NoError(t, err)

	val, found := readVal(uow, "k1")
	assert.True(t, found, "row should exist after commit")
	assert.Equal(t, "u-1", val)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openTestDB(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertSubmission(ctx, tx, "k2"); err != nil {
			return err
		}
		return fmt.Errorf("deliberate failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")

	_, found := readVal(uow, "k2")
	assert.False(t, found, "row should not exist after rollback")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openTestDB(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertSubmission(ctx, tx, "k3")
			panic("boom")
		})
	})

	_, found := readVal(uow, "k3")
	assert.False(t, found, "row should not exist after panic rollback")
}
