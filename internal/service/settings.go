package service

import (
	"context"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

// SettingsInput is a partial update; nil fields keep their current value.
type SettingsInput struct {
	MinDepositAmount       *int64
	PenaltyRatePerThousand *int64
	PenaltyStartDay        *int
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	txr          repository.Transactor
}

func NewSettingsService(settingsRepo repository.SettingsRepository, txr repository.Transactor) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, txr: txr}
}

func (s *settingsService) GetSettings(ctx context.Context) (*domain.SystemSettings, error) {
	return s.settingsRepo.Get(ctx)
}

func (s *settingsService) UpdateSettings(ctx context.Context, admin domain.Actor, input SettingsInput) (*domain.SystemSettings, error) {
	logger.EnterMethod("settingsService.UpdateSettings", "adminID", admin.MemberID)

	if err := Authorize(admin, CapManageSettings, nil); err != nil {
		logger.ExitMethodWithError("settingsService.UpdateSettings", err, "adminID", admin.MemberID)
		return nil, err
	}

	var updated *domain.SystemSettings
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Settings().Get(ctx)
		if err != nil {
			return err
		}
		next := *current
		if input.MinDepositAmount != nil {
			next.MinDepositAmount = *input.MinDepositAmount
		}
		if input.PenaltyRatePerThousand != nil {
			next.PenaltyRatePerThousand = *input.PenaltyRatePerThousand
		}
		if input.PenaltyStartDay != nil {
			next.PenaltyStartDay = *input.PenaltyStartDay
		}
		if err := validateSettings(&next); err != nil {
			return err
		}
		next.UpdatedBy = &admin.MemberID
		if err := tx.Settings().Update(ctx, &next); err != nil {
			return err
		}

		entry := &domain.AuditEntry{
			Action:     domain.AuditActionSettingsUpdated,
			EntityType: domain.AuditEntitySettings,
			EntityID:   1,
			ActorID:    admin.MemberID,
			OldValues:  settingsSnapshot(current),
			NewValues:  settingsSnapshot(&next),
		}
		if err := tx.Audits().Create(ctx, entry); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("settingsService.UpdateSettings", err, "adminID", admin.MemberID)
		return nil, err
	}

	logger.ExitMethod("settingsService.UpdateSettings", "adminID", admin.MemberID)
	return updated, nil
}

func validateSettings(s *domain.SystemSettings) error {
	if s.MinDepositAmount <= 0 {
		return domain.Errorf(domain.ErrValidation, "minimum deposit amount must be positive")
	}
	if s.PenaltyRatePerThousand < 0 {
		return domain.Errorf(domain.ErrValidation, "penalty rate cannot be negative")
	}
	if s.PenaltyStartDay < 1 || s.PenaltyStartDay > 28 {
		return domain.Errorf(domain.ErrValidation, "penalty start day must be between 1 and 28")
	}
	return nil
}

func settingsSnapshot(s *domain.SystemSettings) map[string]any {
	return map[string]any{
		"min_deposit_amount":        s.MinDepositAmount,
		"penalty_rate_per_thousand": s.PenaltyRatePerThousand,
		"penalty_start_day":         s.PenaltyStartDay,
	}
}

func penaltyRules(s *domain.SystemSettings, loc *time.Location) utils.PenaltyRules {
	return utils.PenaltyRules{
		RatePerThousand: s.PenaltyRatePerThousand,
		StartDay:        s.PenaltyStartDay,
		Location:        loc,
	}
}
