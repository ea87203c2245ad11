package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradegate/internal/persistence"
)

func newMockStore(t *testing.T) (persistence.Store, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	return NewStore(db, time.Second), mock
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions WHERE trade_id").
		WithArgs("trade-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx persistence.Store) error {
		return tx.Positions().DeleteByTrade(ctx, "trade-1")
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("balance check failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx persistence.Store) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackOnStatementError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions WHERE trade_id").
		WithArgs("trade-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx persistence.Store) error {
		return tx.Positions().DeleteByTrade(ctx, "trade-1")
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RejectsNesting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx persistence.Store) error {
		return tx.WithinTx(ctx, func(context.Context, persistence.Store) error { return nil })
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested")
}
