package jobs

import (
	"context"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

// sendDepositReminders nudges ACTIVE members who have not deposited yet. The
// job is scheduled daily and only acts on the last penalty-free day of a
// month, read from the live settings, so a changed penalty_start_day moves
// the reminder with it. Each month gets at most one round.
func (jr *JobRunner) sendDepositReminders(ctx context.Context) error {
	today := jr.now().In(jr.loc)

	settings, err := jr.deps.Settings.Get(ctx)
	if err != nil {
		return err
	}

	// A start day of 1 puts the deadline on the last day of the previous
	// month, so the target month is derived from tomorrow.
	tomorrow := today.AddDate(0, 0, 1)
	month := utils.MonthStart(tomorrow, jr.loc)
	period := utils.FormatMonth(month)
	start := utils.PenaltyStart(month, settings.PenaltyStartDay, jr.loc)
	deadline := start.AddDate(0, 0, -1)

	if utils.FormatDate(today) != utils.FormatDate(deadline) {
		logger.Debug("Not a reminder day", "today", utils.FormatDate(today), "deadline", utils.FormatDate(deadline))
		return nil
	}

	var (
		claimed bool
		members []domain.Member
	)
	err = jr.deps.Txr.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		claimed, err = tx.JobRuns().Claim(ctx, JobSendDepositReminders, period)
		if err != nil || !claimed {
			return err
		}
		members, err = tx.Members().ListActiveWithoutDeposit(ctx, month)
		return err
	})
	if err != nil {
		return err
	}
	if !claimed {
		logger.Info("Reminders already sent", "month", period)
		return nil
	}

	failed := 0
	for _, m := range members {
		err := jr.deps.Notifier.Notify(ctx, domain.NotificationEvent{
			Kind:     domain.NotificationDepositReminder,
			MemberID: m.ID,
			Data: map[string]string{
				"month":    period,
				"deadline": utils.FormatDate(deadline),
			},
		})
		if err != nil {
			failed++
			logger.Warn("Failed to send deposit reminder", "memberID", m.ID, "error", err)
		}
	}

	logger.Info("Deposit reminders sent", "month", period, "members", len(members), "failed", failed)
	return nil
}
