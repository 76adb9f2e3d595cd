package postgres

import (
	"context"
	"database/sql"

	"moneypool-backend/internal/repository"
)

type jobRunRepository struct {
	db dbtx
}

func NewJobRunRepository(db *sql.DB) repository.JobRunRepository {
	return &jobRunRepository{db: db}
}

func (r *jobRunRepository) Claim(ctx context.Context, job, period string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO job_runs (job, period) VALUES ($1, $2) ON CONFLICT DO NOTHING`, job, period)
	if err != nil {
		return false, err
	}
	return applied(res)
}
