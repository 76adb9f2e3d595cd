package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/repository"
)

func TestStore_WithinTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()
	at := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE deposits SET status = 'APPROVED'").
			WithArgs(int64(7), at, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(tx repository.Tx) error {
			ok, err := tx.Deposits().MarkApproved(ctx, 3, 7, at)
			assert.True(t, ok)
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(tx repository.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil, "x"))
	assert.ErrorIs(t, mapError(sql.ErrNoRows, "deposit"), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}, "deposit"), domain.ErrConflict)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other, "deposit"))
}
