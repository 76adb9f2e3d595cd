package postgres

import (
	"context"
	"database/sql"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
)

type settingsRepository struct {
	db dbtx
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.SystemSettings, error) {
	s := &domain.SystemSettings{}
	var updatedBy sql.NullInt64
	query := `SELECT min_deposit_amount, penalty_rate_per_thousand, penalty_start_day, updated_by, updated_at
	          FROM system_settings WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&s.MinDepositAmount, &s.PenaltyRatePerThousand, &s.PenaltyStartDay, &updatedBy, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "system settings")
	}
	if updatedBy.Valid {
		s.UpdatedBy = &updatedBy.Int64
	}
	return s, nil
}

func (r *settingsRepository) Update(ctx context.Context, s *domain.SystemSettings) error {
	logger.EnterMethod("settingsRepository.Update", "minDeposit", s.MinDepositAmount, "rate", s.PenaltyRatePerThousand, "startDay", s.PenaltyStartDay)

	s.UpdatedAt = time.Now()
	query := `UPDATE system_settings SET min_deposit_amount = $1, penalty_rate_per_thousand = $2, penalty_start_day = $3,
	          updated_by = $4, updated_at = $5 WHERE id = 1`
	_, err := r.db.ExecContext(ctx, query, s.MinDepositAmount, s.PenaltyRatePerThousand, s.PenaltyStartDay, s.UpdatedBy, s.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("settingsRepository.Update", err)
		return err
	}

	logger.ExitMethod("settingsRepository.Update")
	return nil
}

func (r *settingsRepository) Seed(ctx context.Context, s *domain.SystemSettings) error {
	query := `INSERT INTO system_settings (id, min_deposit_amount, penalty_rate_per_thousand, penalty_start_day, updated_at)
	          VALUES (1, $1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, s.MinDepositAmount, s.PenaltyRatePerThousand, s.PenaltyStartDay, time.Now())
	return err
}
