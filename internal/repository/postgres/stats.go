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

type statsRepository struct {
	db dbtx
}

func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) ApprovedTotals(ctx context.Context) (int64, int64, int64, error) {
	var deposited, penalties, collected int64
	query := `SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(penalty), 0), COALESCE(SUM(total_amount), 0)
	          FROM deposits WHERE status = 'APPROVED'`
	err := r.db.QueryRowContext(ctx, query).Scan(&deposited, &penalties, &collected)
	return deposited, penalties, collected, err
}

// CollectedByMonth sums approved totals per target month in [from, to],
// keyed by YYYY-MM. Months with nothing collected are absent.
func (r *statsRepository) CollectedByMonth(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	query := `SELECT deposit_month, COALESCE(SUM(total_amount), 0)
	          FROM deposits
	          WHERE status = 'APPROVED' AND deposit_month >= $1 AND deposit_month <= $2
	          GROUP BY deposit_month`
	logger.DatabaseCall("SELECT", "deposits by month", "from", from, "to", to)
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var month time.Time
		var sum int64
		if err := rows.Scan(&month, &sum); err != nil {
			return nil, err
		}
		out[utils.FormatMonth(month)] += sum
	}
	return out, rows.Err()
}

func (r *statsRepository) CountDeposits(ctx context.Context, status domain.DepositStatus) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM deposits WHERE status = $1`, status).Scan(&n)
	return n, err
}

func (r *statsRepository) CountMembers(ctx context.Context, status domain.MemberStatus) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM members WHERE status = $1`, status).Scan(&n)
	return n, err
}

func (r *statsRepository) ApprovedCountByMethod(ctx context.Context) (map[domain.PaymentMethod]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payment_method, count(*) FROM deposits WHERE status = 'APPROVED' GROUP BY payment_method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.PaymentMethod]int64)
	for rows.Next() {
		var method domain.PaymentMethod
		var n int64
		if err := rows.Scan(&method, &n); err != nil {
			return nil, err
		}
		out[method] = n
	}
	return out, rows.Err()
}

func (r *statsRepository) TopContributors(ctx context.Context, k int32) ([]domain.TopContributor, error) {
	query := `SELECT m.id, m.member_number, m.name, l.total_deposited, l.total_months_paid
	          FROM member_ledgers l JOIN members m ON m.id = l.member_id
	          ORDER BY l.total_deposited DESC, m.id ASC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TopContributor
	for rows.Next() {
		var c domain.TopContributor
		var number sql.NullInt64
		if err := rows.Scan(&c.MemberID, &number, &c.Name, &c.TotalDeposited, &c.TotalMonthsPaid); err != nil {
			return nil, err
		}
		if number.Valid {
			c.MemberNumber = &number.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
