package postgres

import (
	"context"
	"database/sql"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

const ledgerColumns = `member_id, total_deposited, total_penalties, total_contribution, total_months_paid,
	consecutive_months, missed_months, last_deposit_date, last_deposit_month, created_at, updated_at`

type ledgerRepository struct {
	db dbtx
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func scanLedger(row rowScanner) (*domain.MemberLedger, error) {
	l := &domain.MemberLedger{}
	var lastDate, lastMonth sql.NullTime
	err := row.Scan(
		&l.MemberID, &l.TotalDeposited, &l.TotalPenalties, &l.TotalContribution, &l.TotalMonthsPaid,
		&l.ConsecutiveMonths, &l.MissedMonths, &lastDate, &lastMonth, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastDate.Valid {
		l.LastDepositDate = &lastDate.Time
	}
	if lastMonth.Valid {
		l.LastDepositMonth = &lastMonth.Time
	}
	return l, nil
}

func (r *ledgerRepository) GetByMemberID(ctx context.Context, memberID int64) (*domain.MemberLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM member_ledgers WHERE member_id = $1`
	l, err := scanLedger(r.db.QueryRowContext(ctx, query, memberID))
	if err != nil {
		return nil, mapError(err, "ledger")
	}
	return l, nil
}

func (r *ledgerRepository) Credit(ctx context.Context, c domain.LedgerCredit) (*domain.MemberLedger, error) {
	logger.EnterMethod("ledgerRepository.Credit", "memberID", c.MemberID, "amount", c.Amount, "penalty", c.Penalty)

	query := `INSERT INTO member_ledgers (member_id, total_deposited, total_penalties, total_contribution,
	          total_months_paid, consecutive_months, missed_months, last_deposit_date, last_deposit_month, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, 1, 1, 0, $5, $6, $7, $7)
	          ON CONFLICT (member_id) DO UPDATE SET
	              total_deposited = member_ledgers.total_deposited + EXCLUDED.total_deposited,
	              total_penalties = member_ledgers.total_penalties + EXCLUDED.total_penalties,
	              total_contribution = member_ledgers.total_contribution + EXCLUDED.total_contribution,
	              total_months_paid = member_ledgers.total_months_paid + 1,
	              consecutive_months = member_ledgers.consecutive_months + 1,
	              last_deposit_date = EXCLUDED.last_deposit_date,
	              last_deposit_month = EXCLUDED.last_deposit_month,
	              updated_at = EXCLUDED.updated_at
	          RETURNING ` + ledgerColumns
	l, err := scanLedger(r.db.QueryRowContext(ctx, query,
		c.MemberID, c.Amount, c.Penalty, c.Total, c.PaymentDate, c.DepositMonth, time.Now(),
	))
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.Credit", err, "memberID", c.MemberID)
		return nil, err
	}

	logger.ExitMethod("ledgerRepository.Credit", "memberID", c.MemberID, "totalContribution", l.TotalContribution)
	return l, nil
}

func (r *ledgerRepository) EnsureExists(ctx context.Context, memberID int64) error {
	query := `INSERT INTO member_ledgers (member_id, created_at, updated_at) VALUES ($1, $2, $2)
	          ON CONFLICT (member_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, memberID, time.Now())
	return err
}

func (r *ledgerRepository) MarkMissed(ctx context.Context, month time.Time) (int64, error) {
	logger.EnterMethod("ledgerRepository.MarkMissed", "month", month)

	query := `INSERT INTO member_ledgers (member_id, missed_months, consecutive_months, created_at, updated_at)
	          SELECT m.id, 1, 0, $2, $2 FROM members m
	          WHERE m.status = 'ACTIVE' AND COALESCE(m.approved_at, m.created_at) < $3
	          AND NOT EXISTS (
	              SELECT 1 FROM deposits d
	              WHERE d.member_id = m.id AND d.deposit_month = $1 AND d.status IN ('PENDING', 'APPROVED')
	          )
	          ON CONFLICT (member_id) DO UPDATE SET
	              missed_months = member_ledgers.missed_months + 1,
	              consecutive_months = 0,
	              updated_at = EXCLUDED.updated_at`
	// members who joined after the month ended owe nothing for it
	monthEnd := utils.AddMonths(month, 1)
	res, err := r.db.ExecContext(ctx, query, month, time.Now(), monthEnd)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.MarkMissed", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("MarkMissed", n, err)

	logger.ExitMethod("ledgerRepository.MarkMissed", "members", n)
	return n, err
}
