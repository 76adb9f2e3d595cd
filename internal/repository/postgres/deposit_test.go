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

var depositCols = []string{
	"id", "member_id", "deposit_month", "amount", "penalty", "total_amount", "payment_date",
	"payment_method", "status", "proof_url", "notes", "rejection_reason",
	"approved_by", "approved_at", "created_at", "updated_at", "name",
	"c_id", "received_by", "handover_date", "location",
	"w_id", "provider", "sender_number", "transaction_id",
	"b_id", "bank_name", "account_holder", "account_number", "transaction_ref",
}

func TestDepositRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	ctx := context.Background()
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	paid := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	d := &domain.Deposit{
		MemberID:      3,
		DepositMonth:  month,
		Amount:        1500,
		Penalty:       60,
		TotalAmount:   1560,
		PaymentDate:   paid,
		PaymentMethod: domain.PaymentMethodCash,
		Status:        domain.DepositStatusPending,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO deposits").
			WithArgs(int64(3), month, int64(1500), int64(60), int64(1560), paid, domain.PaymentMethodCash,
				domain.DepositStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		err := repo.Create(ctx, d)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), d.ID)
	})

	t.Run("Racing duplicate", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO deposits").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "deposits_member_month_live_key"})

		err := repo.Create(ctx, d)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	ctx := context.Background()
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	t.Run("Mobile wallet deposit", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM deposits d").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(depositCols).AddRow(
				42, 3, month, 1000, 0, 1000, now,
				"MOBILE_WALLET", "PENDING", "", "", "",
				nil, nil, now, now, "Alice",
				nil, nil, nil, nil,
				42, "bKash", "01700000000", "TX123",
				nil, nil, nil, nil, nil,
			))

		d, err := repo.GetByID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentMethodMobileWallet, d.PaymentMethod)
		require.NotNil(t, d.Details.MobileWallet)
		assert.Equal(t, "TX123", d.Details.MobileWallet.TransactionID)
		assert.Nil(t, d.Details.Cash)
		assert.Nil(t, d.Details.BankTransfer)
		assert.True(t, d.Details.Matches(domain.PaymentMethodMobileWallet))
		assert.Equal(t, "Alice", d.MemberName)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM deposits d").
			WithArgs(int64(43)).
			WillReturnRows(sqlmock.NewRows(depositCols))

		_, err := repo.GetByID(ctx, 43)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDepositRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	mock.ExpectQuery("FOR UPDATE OF d").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(depositCols))

	_, err = repo.GetByIDForUpdate(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepository_ExistsLive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(3), month, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsLive(context.Background(), 3, month)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestDepositRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	memberID := int64(3)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM deposits d WHERE d.member_id = \\$1 AND d.status = \\$2 AND d.deposit_month >= \\$3").
		WithArgs(memberID, domain.DepositStatusApproved, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("LIMIT \\$4 OFFSET \\$5").
		WithArgs(memberID, domain.DepositStatusApproved, from, int32(20), int32(20)).
		WillReturnRows(sqlmock.NewRows(depositCols))

	deposits, total, err := repo.List(context.Background(), domain.DepositFilter{
		MemberID: &memberID,
		Status:   domain.DepositStatusApproved,
		From:     &from,
		Page:     2,
		Limit:    20,
	})
	assert.NoError(t, err)
	assert.Empty(t, deposits)
	assert.Equal(t, int32(0), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepository_Transitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	ctx := context.Background()
	at := time.Now()

	t.Run("Reject applies only to pending", func(t *testing.T) {
		mock.ExpectExec("UPDATE deposits SET status = 'REJECTED'").
			WithArgs("proof unclear", at, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.MarkRejected(ctx, 5, "proof unclear", at)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Cancel", func(t *testing.T) {
		mock.ExpectExec("UPDATE deposits SET status = 'CANCELLED'").
			WithArgs(at, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.MarkCancelled(ctx, 5, at)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM deposits WHERE id = \\$1 AND status = 'PENDING'").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Delete(ctx, 5)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRepository_Details(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepositRepository(db)
	ctx := context.Background()

	d := &domain.Deposit{
		ID:            8,
		PaymentMethod: domain.PaymentMethodBankTransfer,
		Details: domain.PaymentDetails{BankTransfer: &domain.BankTransferDetail{
			BankName: "City Bank", AccountHolder: "Alice", AccountNumber: "123", TransactionRef: "REF1",
		}},
	}

	mock.ExpectExec("INSERT INTO deposit_bank_transfer_details").
		WithArgs(int64(8), "City Bank", "Alice", "123", "REF1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.CreateDetails(ctx, d))

	mock.ExpectExec("UPDATE deposit_bank_transfer_details").
		WithArgs("City Bank", "Alice", "123", "REF1", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateDetails(ctx, d))

	mock.ExpectExec("DELETE FROM deposit_cash_details").
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteDetails(ctx, 8, domain.PaymentMethodCash))

	assert.Error(t, repo.DeleteDetails(ctx, 8, domain.PaymentMethod("CHEQUE")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
