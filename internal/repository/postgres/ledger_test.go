package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneypool-backend/internal/domain"
)

var ledgerCols = []string{
	"member_id", "total_deposited", "total_penalties", "total_contribution", "total_months_paid",
	"consecutive_months", "missed_months", "last_deposit_date", "last_deposit_month", "created_at", "updated_at",
}

func TestLedgerRepository_Credit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	paid := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	credit := domain.LedgerCredit{MemberID: 3, Amount: 1000, Penalty: 0, Total: 1000, PaymentDate: paid, DepositMonth: month}
	mock.ExpectQuery("INSERT INTO member_ledgers (.+) ON CONFLICT \\(member_id\\) DO UPDATE").
		WithArgs(int64(3), int64(1000), int64(0), int64(1000), paid, month, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(ledgerCols).AddRow(3, 1000, 0, 1000, 1, 1, 0, paid, month, now, now))

	l, err := repo.Credit(context.Background(), credit)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), l.TotalDeposited)
	assert.Equal(t, int64(1000), l.TotalContribution)
	assert.Equal(t, int32(1), l.TotalMonthsPaid)
	assert.Equal(t, int32(1), l.ConsecutiveMonths)
	require.NotNil(t, l.LastDepositMonth)
	assert.Equal(t, month, *l.LastDepositMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetByMemberID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM member_ledgers WHERE member_id = \\$1").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(ledgerCols))

	_, err = repo.GetByMemberID(context.Background(), 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerRepository_EnsureExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	mock.ExpectExec("INSERT INTO member_ledgers (.+) ON CONFLICT \\(member_id\\) DO NOTHING").
		WithArgs(int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.EnsureExists(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_MarkMissed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO member_ledgers (.+) SELECT m.id(.+)COALESCE\(m.approved_at, m.created_at\) < \$3`).
		WithArgs(month, sqlmock.AnyArg(), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkMissed(context.Background(), month)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
