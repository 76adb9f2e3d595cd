package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneypool-backend/internal/domain"
)

var memberCols = []string{
	"id", "member_number", "email", "password_hash", "name", "phone_number", "national_id", "address",
	"avatar_url", "role", "status", "status_reason", "approved_by", "approved_at",
	"device_token", "created_at", "updated_at",
}

func TestMemberRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMemberRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		m := &domain.Member{Email: "a@pool.test", PasswordHash: "hash", Name: "Alice", Role: domain.MemberRoleMember, Status: domain.MemberStatusPending}
		mock.ExpectQuery("INSERT INTO members").
			WithArgs(m.Email, m.PasswordHash, m.Name, "", "", "", sqlmock.AnyArg(), m.Role, m.Status, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		err := repo.Create(ctx, m)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), m.ID)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		m := &domain.Member{Email: "a@pool.test"}
		mock.ExpectQuery("INSERT INTO members").WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, m)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestMemberRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMemberRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM members WHERE id = \\$1").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(memberCols).AddRow(
				5, 1001, "a@pool.test", "hash", "Alice", "017", "NID", "Dhaka",
				"", "MEMBER", "ACTIVE", "", 1, now, "", now, now,
			))

		m, err := repo.GetByID(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "Alice", m.Name)
		require.NotNil(t, m.MemberNumber)
		assert.Equal(t, int64(1001), *m.MemberNumber)
		assert.Equal(t, domain.MemberStatusActive, m.Status)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM members WHERE id = \\$1").
			WithArgs(int64(6)).
			WillReturnRows(sqlmock.NewRows(memberCols))

		_, err := repo.GetByID(ctx, 6)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMemberRepository_Approve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMemberRepository(db)
	ctx := context.Background()
	at := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Assigns number", func(t *testing.T) {
		mock.ExpectQuery("UPDATE members").
			WithArgs(int64(1), at, int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"member_number"}).AddRow(1007))

		number, ok, err := repo.Approve(ctx, 5, 1, at)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(1007), number)
	})

	t.Run("No longer pending", func(t *testing.T) {
		mock.ExpectQuery("UPDATE members").
			WithArgs(int64(1), at, int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"member_number"}))

		_, ok, err := repo.Approve(ctx, 5, 1, at)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMemberRepository(db)
	at := time.Now()

	mock.ExpectExec("UPDATE members SET status").
		WithArgs(domain.MemberStatusRejected, sqlmock.AnyArg(), at, int64(4), domain.MemberStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), 4, domain.MemberStatusPending, domain.MemberStatusRejected, "incomplete", at)
	assert.NoError(t, err)
	assert.False(t, ok)
}
